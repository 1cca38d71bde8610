package echoapi

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edutrack/core/attendance"
	"github.com/trezcool/edutrack/core/coursework"
	"github.com/trezcool/edutrack/tests"
)

func Test_courseworkApi(t *testing.T) {
	app := setup(t)
	tchUsr, tch := testutil.CreateTeacher(t, app.env, "Marta Ruiz", "marta@test.cd")
	stUsr, st := testutil.CreateStudent(t, app.env, "Ana Torres", "ana@test.cd")
	outsider, _ := testutil.CreateStudent(t, app.env, "Luis Gómez", "luis@test.cd")
	c := testutil.CreateCourse(t, app.env, "MAT-101", "Álgebra Lineal", tch.ID, st.ID)
	tchToken := app.getToken(t, tchUsr)
	stToken := app.getToken(t, stUsr)

	newAssignment := marchallObj(t, coursework.NewAssignment{
		CourseID:    c.Code,
		Title:       "Tarea 1",
		DueDate:     time.Now().Add(24 * time.Hour).UTC(),
		TotalPoints: 20,
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "students cannot create assignments", method: http.MethodPost, path: "/v1/assignments", body: newAssignment, token: stToken,
			wantCode: http.StatusForbidden,
		},
		{
			name: "unknown assignment", method: http.MethodPost, path: "/v1/assignments/unknown/submissions", token: stToken,
			body: marchallObj(t, coursework.NewSubmission{Content: "respuesta"}), wantCode: http.StatusNotFound,
		},
		{
			name: "unknown submission", method: http.MethodPost, path: "/v1/submissions/unknown/grade", token: tchToken,
			body: marchallObj(t, coursework.Grade{Points: 10}), wantCode: http.StatusNotFound,
		},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/assignments", tchToken, newAssignment)
	app.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var a coursework.Assignment
	unmarshallObj(t, rec, &a)
	assert.Equal(t, c.ID, a.CourseID)
	assert.Equal(t, tchUsr.ID, a.CreatedBy)

	t.Run("query by course code", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/assignments?course=mat-101", stToken)
		app.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var assignments []coursework.Assignment
		unmarshallObj(t, rec, &assignments)
		require.Len(t, assignments, 1)
		assert.Equal(t, a.ID, assignments[0].ID)

		req, rec = newAuthRequest(http.MethodGet, "/v1/assignments?course=XYZ-999", stToken)
		app.serve(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	submitPath := fmt.Sprintf("/v1/assignments/%s/submissions", a.ID)

	t.Run("not enrolled", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, submitPath, app.getToken(t, outsider), marchallObj(t, coursework.NewSubmission{Content: "x"}))
		app.serve(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	// the student ID in the body is ignored for students
	req, rec = newAuthRequest(http.MethodPost, submitPath, stToken, marchallObj(t, coursework.NewSubmission{StudentID: "EST-000000", Content: "mi respuesta"}))
	app.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s coursework.Submission
	unmarshallObj(t, rec, &s)
	assert.Equal(t, coursework.StatusSubmitted, s.Status)

	req, rec = newAuthRequest(http.MethodGet, submitPath, tchToken)
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var submissions []coursework.Submission
	unmarshallObj(t, rec, &submissions)
	require.Len(t, submissions, 1)
	assert.Equal(t, s.ID, submissions[0].ID)

	req, rec = newAuthRequest(http.MethodPost, "/v1/submissions/"+s.ID+"/grade", tchToken, marchallObj(t, coursework.Grade{Points: 18, Feedback: "Muy bien"}))
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshallObj(t, rec, &s)
	assert.Equal(t, coursework.StatusGraded, s.Status)
	require.NotNil(t, s.Points)
	assert.Equal(t, 18.0, *s.Points)
	assert.Equal(t, tchUsr.ID, s.GradedBy)
}

func Test_attendanceApi(t *testing.T) {
	app := setup(t)
	tchUsr, tch := testutil.CreateTeacher(t, app.env, "Marta Ruiz", "marta@test.cd")
	stUsr, st := testutil.CreateStudent(t, app.env, "Ana Torres", "ana@test.cd")
	_, other := testutil.CreateStudent(t, app.env, "Luis Gómez", "luis@test.cd")
	c := testutil.CreateCourse(t, app.env, "MAT-101", "Álgebra Lineal", tch.ID, st.ID)
	tchToken := app.getToken(t, tchUsr)

	day := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	take := func(entries ...attendance.Entry) []byte {
		return marchallObj(t, attendance.NewAttendance{CourseID: c.Code, Date: day, Entries: entries})
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "teachers only", method: http.MethodPost, path: "/v1/attendance", token: app.getToken(t, stUsr),
			body: take(attendance.Entry{StudentID: st.ID, Status: attendance.StatusPresent}), wantCode: http.StatusForbidden,
		},
		{
			name: "invalid status", method: http.MethodPost, path: "/v1/attendance", token: tchToken,
			body: take(attendance.Entry{StudentID: st.ID, Status: "asleep"}), wantCode: http.StatusBadRequest,
		},
		{
			name: "student not enrolled", method: http.MethodPost, path: "/v1/attendance", token: tchToken,
			body: take(attendance.Entry{StudentID: other.ID, Status: attendance.StatusPresent}), wantCode: http.StatusBadRequest,
		},
		{
			name: "taken", method: http.MethodPost, path: "/v1/attendance", token: tchToken,
			body: take(attendance.Entry{StudentID: st.ID, Status: attendance.StatusAbsent}), wantCode: http.StatusCreated,
		},
		{
			name: "same day twice", method: http.MethodPost, path: "/v1/attendance", token: tchToken,
			body: take(attendance.Entry{StudentID: st.ID, Status: attendance.StatusPresent}), wantCode: http.StatusBadRequest,
		},
		{
			name: "invalid from date", method: http.MethodGet, path: "/v1/attendance?from=ayer", token: tchToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"from": "fecha no válida"}),
		},
		{name: "out of range", method: http.MethodGet, path: "/v1/attendance?from=05/03/2024", token: tchToken, wantData: []byte("[]")},
		{
			name: "unknown record", method: http.MethodPut, path: "/v1/attendance/unknown", token: tchToken,
			body:     marchallObj(t, UpdateEntriesRequest{Entries: []attendance.Entry{{StudentID: st.ID, Status: attendance.StatusPresent}}}),
			wantCode: http.StatusNotFound,
		},
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/attendance?course="+c.ID+"&from=04/03/2024&to=2024-03-04", tchToken)
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var records []attendance.Attendance
	unmarshallObj(t, rec, &records)
	require.Len(t, records, 1)
	assert.Equal(t, tchUsr.ID, records[0].TakenBy)

	body := marchallObj(t, UpdateEntriesRequest{Entries: []attendance.Entry{{StudentID: st.ID, Status: attendance.StatusExcused}}})
	req, rec = newAuthRequest(http.MethodPut, "/v1/attendance/"+records[0].ID, tchToken, body)
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated attendance.Attendance
	unmarshallObj(t, rec, &updated)
	status, ok := updated.StatusOf(st.ID)
	assert.True(t, ok)
	assert.Equal(t, attendance.StatusExcused, status)
}
