package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Attended reports whether the status counts towards the attendance rate.
func (s Status) Attended() bool {
	return s == StatusPresent || s == StatusLate
}

type Entry struct {
	StudentID string `json:"student_id" validate:"required"` // school.Student.ID
	Status    Status `json:"status" validate:"required,oneof=present absent late excused"`
}

// Attendance is the roll call of a course on a given day. There is at most one per (course, day).
type Attendance struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"` // truncated to the day, UTC
	Entries   []Entry   `json:"entries"`
	TakenBy   string    `json:"taken_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Key is the uniqueness key of the record: "<courseID>/<YYYY-MM-DD>".
func (a Attendance) Key() string {
	return Key(a.CourseID, a.Date)
}

func (a Attendance) StatusOf(studentID string) (Status, bool) {
	for _, e := range a.Entries {
		if e.StudentID == studentID {
			return e.Status, true
		}
	}
	return "", false
}

func Key(courseID string, date time.Time) string {
	return courseID + "/" + Day(date).Format("2006-01-02")
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Rate computes how many of the records a student attended, out of those listing them.
func Rate(records []Attendance, studentID string) (attended, total int) {
	for _, rec := range records {
		if st, ok := rec.StatusOf(studentID); ok {
			total++
			if st.Attended() {
				attended++
			}
		}
	}
	return attended, total
}

type NewAttendance struct {
	CourseID string    `json:"course_id" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	Entries  []Entry   `json:"entries" validate:"required,min=1,dive"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

type Query struct {
	CourseID  string    `query:"course"`
	StudentID string    `query:"student"`
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
}

func (q *Query) Match(a Attendance) bool {
	if q == nil {
		return true
	}
	if q.CourseID != "" && a.CourseID != q.CourseID {
		return false
	}
	if q.StudentID != "" {
		if _, ok := a.StatusOf(q.StudentID); !ok {
			return false
		}
	}
	if !q.From.IsZero() && a.Date.Before(Day(q.From)) {
		return false
	}
	if !q.To.IsZero() && a.Date.After(Day(q.To)) {
		return false
	}
	return true
}
