package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/report"
	"github.com/trezcool/edutrack/core/user"
)

type fakeActions struct {
	users   []Entities
	courses []Entities
	reports []report.Type
	filters []report.Filters
	fail    string
	panics  bool
}

func (f *fakeActions) CreateUser(_ context.Context, e Entities) ActionResult {
	if f.panics {
		panic("boom")
	}
	f.users = append(f.users, e.Clone())
	if f.fail != "" {
		return ActionResult{Message: f.fail}
	}
	kind := e.Get(FieldRole)
	if kind == "" {
		kind = user.KindStudent
	}
	return ActionResult{Success: true, Message: "Usuario creado exitosamente como " + user.KindName(kind) + "."}
}

func (f *fakeActions) CreateCourse(_ context.Context, e Entities) ActionResult {
	f.courses = append(f.courses, e.Clone())
	return ActionResult{Success: true, Message: "Curso creado exitosamente."}
}

func (f *fakeActions) GenerateReport(_ context.Context, typ report.Type, filters report.Filters) ActionResult {
	f.reports = append(f.reports, typ)
	f.filters = append(f.filters, filters)
	name := "reporte_" + string(typ) + ".pdf"
	return ActionResult{
		Success:     true,
		Message:     typ.Title() + " generado correctamente.",
		ReportType:  typ,
		FileName:    name,
		DownloadURL: "/v1/reports/download/" + name,
	}
}

type fakeAnswerer struct {
	calls int
}

func (f *fakeAnswerer) Ask(_ context.Context, _ string, _ Intent, _ Entities, _ string) string {
	f.calls++
	return "respuesta general"
}

type chatFixture struct {
	svc      *Service
	store    *MemoryStore
	actions  *fakeActions
	answerer *fakeAnswerer
}

func newChatFixture() *chatFixture {
	conf := core.NewTestConfig()
	f := &chatFixture{
		store:    NewMemoryStore(conf.Assistant.StateTTL),
		actions:  new(fakeActions),
		answerer: new(fakeAnswerer),
	}
	f.svc = NewService(conf, f.store, f.actions, f.answerer, newTestLogger())
	return f
}

func (f *chatFixture) send(message, role string) Response {
	return f.svc.ProcessChatMessage(context.Background(), message, "caller-1", role)
}

func TestService_createUserInOneMessage(t *testing.T) {
	f := newChatFixture()

	resp := f.send("crear estudiante Nombre: Ana Torres, Email: ana@colegio.edu", user.KindAdmin)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "estudiante")
	assert.Equal(t, IntentCreateUser, resp.CurrentIntent)
	assert.True(t, resp.CurrentEntities.Flag(FieldUserCreationCompleted))
	require.NotNil(t, resp.ActionResult)
	require.Len(t, f.actions.users, 1)
	assert.Equal(t, "ana@colegio.edu", f.actions.users[0].Get(FieldEmail))

	st, ok := f.store.Get("caller-1")
	require.True(t, ok)
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.LastEntities)
}

func TestService_createUserOverSeveralTurns(t *testing.T) {
	f := newChatFixture()

	resp := f.send("quiero crear un usuario", user.KindAdmin)
	assert.True(t, resp.Success)
	assert.True(t, resp.NeedsMoreData)
	assert.Contains(t, resp.Message, "Nombre:")

	resp = f.send("Nombre: Luis Gómez, Email: luis@colegio.edu", user.KindAdmin)
	assert.True(t, resp.NeedsMoreData)
	assert.Contains(t, resp.Message, "datos opcionales")
	assert.Empty(t, f.actions.users)
	st, _ := f.store.Get("caller-1")
	assert.Equal(t, PhaseAwaitingOptionalUserFields, st.Phase)

	resp = f.send("no", user.KindAdmin)
	assert.True(t, resp.Success)
	assert.False(t, resp.NeedsMoreData)
	assert.Contains(t, resp.Message, "estudiante")
	require.Len(t, f.actions.users, 1)
	assert.Equal(t, "Luis Gómez", f.actions.users[0].Get(FieldName))
	assert.False(t, f.actions.users[0].Has(FieldRole))
}

func TestService_optionalFieldsAreMerged(t *testing.T) {
	f := newChatFixture()

	f.send("Nombre: Luis Gómez, Email: luis@colegio.edu", user.KindAdmin)
	resp := f.send("Rol: profesor, Departamento: Ciencias", user.KindAdmin)
	assert.True(t, resp.Success)
	require.Len(t, f.actions.users, 1)
	assert.Equal(t, Entities{
		FieldName:       "Luis Gómez",
		FieldEmail:      "luis@colegio.edu",
		FieldRole:       "teacher",
		FieldDepartment: "Ciencias",
	}, f.actions.users[0])
}

func TestService_creationFailureKeepsData(t *testing.T) {
	f := newChatFixture()
	f.actions.fail = "No se pudo crear el usuario: ya existe un usuario con este email."

	resp := f.send("crear estudiante Nombre: Ana Torres, Email: ana@colegio.edu", user.KindAdmin)
	assert.False(t, resp.Success)
	assert.Equal(t, f.actions.fail, resp.Message)

	st, _ := f.store.Get("caller-1")
	assert.Equal(t, PhaseAwaitingUserFields, st.Phase)
	assert.Equal(t, "Ana Torres", st.LastEntities.Get(FieldName))

	f.actions.fail = ""
	resp = f.send("Email: ana.torres@colegio.edu", user.KindAdmin)
	assert.True(t, resp.Success)
	require.Len(t, f.actions.users, 2)
	assert.Equal(t, "ana.torres@colegio.edu", f.actions.users[1].Get(FieldEmail))
	assert.Equal(t, "Ana Torres", f.actions.users[1].Get(FieldName))
}

func TestService_unrelatedQuestionKeepsPendingCreation(t *testing.T) {
	f := newChatFixture()

	resp := f.send("crear estudiante, Nombre: Luis Paz", user.KindAdmin)
	assert.True(t, resp.NeedsMoreData)

	resp = f.send("¿cuál es el horario de la biblioteca del colegio?", user.KindAdmin)
	assert.Equal(t, IntentGeneralQuery, resp.CurrentIntent)
	assert.Equal(t, 1, f.answerer.calls)

	st, ok := f.store.Get("caller-1")
	require.True(t, ok)
	assert.Equal(t, IntentCreateUser, st.LastIntent)
	assert.Equal(t, PhaseAwaitingUserFields, st.Phase)
	assert.Equal(t, "Luis Paz", st.LastEntities.Get(FieldName))

	resp = f.send("l@x.co", user.KindAdmin)
	assert.True(t, resp.Success)
	assert.Equal(t, IntentCreateUser, resp.CurrentIntent)
	assert.True(t, resp.CurrentEntities.Flag(FieldUserCreationCompleted))
	require.Len(t, f.actions.users, 1)
	assert.Equal(t, "Luis Paz", f.actions.users[0].Get(FieldName))
	assert.Equal(t, "l@x.co", f.actions.users[0].Get(FieldEmail))
	assert.Equal(t, user.KindStudent, f.actions.users[0].Get(FieldRole))
}

func TestService_shortReplyThreshold(t *testing.T) {
	tests := []struct {
		message    string
		wantIntent Intent
	}{
		{message: "hola hola", wantIntent: IntentCreateUser},
		{message: "hola amigo", wantIntent: IntentGeneralQuery},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			f := newChatFixture()
			f.send("quiero crear un usuario", user.KindAdmin)

			resp := f.send(tt.message, user.KindAdmin)
			assert.Equal(t, tt.wantIntent, resp.CurrentIntent)
			assert.Empty(t, f.actions.users)
		})
	}
}

func TestService_createCourse(t *testing.T) {
	f := newChatFixture()

	resp := f.send("crear un curso nuevo", user.KindAdmin)
	assert.True(t, resp.NeedsMoreData)
	assert.Contains(t, resp.Message, "Código del curso:")

	resp = f.send("Nombre del curso: Álgebra Lineal, Código del curso: MAT-101, Horario: Lunes 8:00", user.KindAdmin)
	assert.True(t, resp.Success)
	assert.Equal(t, IntentCreateCourse, resp.CurrentIntent)
	require.Len(t, f.actions.courses, 1)
	assert.Equal(t, "MAT-101", f.actions.courses[0].Get(FieldCourseCode))
	assert.Equal(t, "Lunes 8:00", f.actions.courses[0].Get(FieldSchedule))
}

func TestService_roleGates(t *testing.T) {
	f := newChatFixture()

	resp := f.send("crear estudiante Nombre: Ana Torres, Email: ana@colegio.edu", user.KindTeacher)
	assert.False(t, resp.Success)
	assert.Equal(t, adminOnlyMsg, resp.Message)

	resp = f.send("quiero un reporte de asistencia", user.KindStudent)
	assert.False(t, resp.Success)
	assert.Equal(t, reportsForbiddenMsg, resp.Message)

	assert.Empty(t, f.actions.users)
	assert.Empty(t, f.actions.reports)
}

func TestService_reportWithoutFilters(t *testing.T) {
	f := newChatFixture()

	resp := f.send("genera un reporte", user.KindTeacher)
	assert.True(t, resp.NeedsMoreData)
	assert.Contains(t, resp.Message, "Tipo de reporte:")
	assert.Empty(t, f.actions.reports)

	resp = f.send("no", user.KindTeacher)
	assert.True(t, resp.Success)
	require.Len(t, f.actions.reports, 1)
	assert.Equal(t, report.TypeGeneral, f.actions.reports[0])
	assert.True(t, f.actions.filters[0].IsEmpty())
	assert.Contains(t, resp.Message, downloadQuestionMsg)

	resp = f.send("sí", user.KindTeacher)
	assert.True(t, resp.Success)
	assert.Equal(t, IntentDownloadReport, resp.CurrentIntent)
	require.NotNil(t, resp.ActionResult)
	assert.Equal(t, "/v1/reports/download/reporte_general.pdf", resp.ActionResult.DownloadURL)
	assert.Len(t, f.actions.reports, 1, "the download reuses the generated report")
}

func TestService_reportDownloadDeclined(t *testing.T) {
	f := newChatFixture()

	f.send("quiero un reporte de calificaciones", user.KindAdmin)
	resp := f.send("no", user.KindAdmin)
	assert.True(t, resp.Success)
	assert.Equal(t, downloadDeclinedMsg, resp.Message)

	st, _ := f.store.Get("caller-1")
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Nil(t, st.LastReport)
}

func TestService_reportTypesAndFilters(t *testing.T) {
	tests := []struct {
		message     string
		wantType    report.Type
		wantFilters report.Filters
	}{
		{
			message:     "quiero un reporte de asistencia del curso MAT-101",
			wantType:    report.TypeAttendance,
			wantFilters: report.Filters{CourseCode: "MAT-101"},
		},
		{
			message:  "genera un reporte de profesores",
			wantType: report.TypeTeachers,
		},
		{
			message:  "dame el reporte completo",
			wantType: report.TypeComplete,
		},
		{
			message:     "necesito el informe de notas desde 01/03/2024 hasta 31/03/2024",
			wantType:    report.TypeGrades,
			wantFilters: report.Filters{StartDate: "01/03/2024", EndDate: "31/03/2024"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			f := newChatFixture()
			resp := f.send(tt.message, user.KindAdmin)
			assert.True(t, resp.Success)
			require.Len(t, f.actions.reports, 1)
			assert.Equal(t, tt.wantType, f.actions.reports[0])
			assert.Equal(t, tt.wantFilters, f.actions.filters[0])
			require.NotNil(t, resp.ActionResult)
			assert.NotEmpty(t, resp.ActionResult.DownloadURL)
		})
	}
}

func TestService_reportFastDownload(t *testing.T) {
	f := newChatFixture()

	resp := f.send("genera el reporte de asistencia y descárgalo", user.KindAdmin)
	assert.True(t, resp.Success)
	assert.Equal(t, IntentDownloadReport, resp.CurrentIntent)
	require.NotNil(t, resp.ActionResult)
	assert.Equal(t, report.TypeAttendance, resp.ActionResult.ReportType)

	st, _ := f.store.Get("caller-1")
	assert.Equal(t, PhaseIdle, st.Phase)
}

func TestService_genericReportDownload(t *testing.T) {
	f := newChatFixture()

	resp := f.send("generar un reporte y descargarlo en pdf", user.KindAdmin)
	assert.True(t, resp.Success)
	assert.False(t, resp.NeedsMoreData)
	assert.Equal(t, IntentDownloadReport, resp.CurrentIntent)
	require.Len(t, f.actions.reports, 1)
	assert.Equal(t, report.TypeGeneral, f.actions.reports[0])
	require.NotNil(t, resp.ActionResult)
	assert.Equal(t, "/v1/reports/download/reporte_general.pdf", resp.ActionResult.DownloadURL)
}

func TestService_generalQuery(t *testing.T) {
	f := newChatFixture()

	resp := f.send("hola", user.KindStudent)
	assert.True(t, resp.Success)
	assert.Equal(t, "respuesta general", resp.Message)
	assert.Equal(t, IntentGeneralQuery, resp.CurrentIntent)
	assert.Equal(t, 1, f.answerer.calls)
}

func TestService_cancel(t *testing.T) {
	f := newChatFixture()

	f.send("quiero crear un usuario", user.KindAdmin)
	resp := f.send("cancelar", user.KindAdmin)
	assert.True(t, resp.Success)
	assert.Equal(t, cancelledMsg, resp.Message)

	_, ok := f.store.Get("caller-1")
	assert.False(t, ok)
}

func TestService_errors(t *testing.T) {
	f := newChatFixture()

	resp := f.send("   ", user.KindAdmin)
	assert.False(t, resp.Success)
	assert.Equal(t, emptyMessageMsg, resp.Message)

	f.actions.panics = true
	resp = f.send("crear estudiante Nombre: Ana Torres, Email: ana@colegio.edu", user.KindAdmin)
	assert.False(t, resp.Success)
	assert.Equal(t, genericErrorMsg, resp.Message)

	// the caller is not left locked
	f.actions.panics = false
	resp = f.send("hola", user.KindAdmin)
	assert.True(t, resp.Success)
}

func TestService_callersAreIsolated(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.svc.ProcessChatMessage(ctx, "quiero crear un usuario", "caller-1", user.KindAdmin)
	resp := f.svc.ProcessChatMessage(ctx, "no", "caller-2", user.KindAdmin)
	assert.Equal(t, IntentGeneralQuery, resp.CurrentIntent)
	assert.Empty(t, f.actions.users)
}
