package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/edutrack/core/report"
)

func newTurn(message string) turn {
	return turn{
		message:    message,
		short:      isShort(message, 10),
		entities:   Extract(message),
		classified: Classify(message),
	}
}

func TestResolveTurn(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		stored        *State
		wantIntent    Intent
		wantEntities  Entities
		wantContinued bool
	}{
		{
			name:         "fresh general query",
			message:      "hola",
			wantIntent:   IntentGeneralQuery,
			wantEntities: Entities{},
		},
		{
			name:         "name and email make a user creation",
			message:      "Nombre: Ana Torres, Email: ana@colegio.edu",
			wantIntent:   IntentCreateUser,
			wantEntities: Entities{FieldName: "Ana Torres", FieldEmail: "ana@colegio.edu"},
		},
		{
			name:    "fields sent after the prompt are merged",
			message: "Nombre: Luis Gómez, Email: luis@colegio.edu",
			stored: &State{
				LastIntent:   IntentCreateUser,
				LastEntities: Entities{FieldRole: "teacher"},
				Phase:        PhaseAwaitingUserFields,
			},
			wantIntent:    IntentCreateUser,
			wantEntities:  Entities{FieldName: "Luis Gómez", FieldEmail: "luis@colegio.edu", FieldRole: "teacher"},
			wantContinued: true,
		},
		{
			name:    "short reply while collecting user fields",
			message: "continuar",
			stored: &State{
				LastIntent:   IntentCreateUser,
				LastEntities: Entities{FieldName: "Ana", FieldEmail: "ana@colegio.edu"},
				Phase:        PhaseAwaitingOptionalUserFields,
			},
			wantIntent:    IntentCreateUser,
			wantEntities:  Entities{FieldName: "Ana", FieldEmail: "ana@colegio.edu"},
			wantContinued: true,
		},
		{
			name:    "no to the filters prompt",
			message: "no",
			stored: &State{
				LastIntent:   IntentGenerateReport,
				LastEntities: Entities{},
				Phase:        PhaseAwaitingReportFilters,
			},
			wantIntent:    IntentGenerateReport,
			wantEntities:  Entities{},
			wantContinued: true,
		},
		{
			name:    "filters answering the filters prompt",
			message: "Código del curso: MAT-101, Fecha de inicio: 01/03/2024",
			stored: &State{
				LastIntent:   IntentGenerateReport,
				LastEntities: Entities{},
				Phase:        PhaseAwaitingReportFilters,
			},
			wantIntent:    IntentGenerateReport,
			wantEntities:  Entities{FieldCourseCode: "MAT-101", FieldStartDate: "01/03/2024"},
			wantContinued: true,
		},
		{
			name:    "new question while idle does not inherit entities",
			message: "¿qué puedes hacer por mí?",
			stored: &State{
				LastIntent:   IntentCreateUser,
				LastEntities: Entities{FieldName: "Ana"},
				Phase:        PhaseIdle,
			},
			wantIntent:   IntentGeneralQuery,
			wantEntities: Entities{},
		},
		{
			name:         "general query naming a report type",
			message:      "el reporte de profesores, por favor",
			wantIntent:   IntentGenerateReport,
			wantEntities: Entities{FieldReportType: "teachers"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored State
			if tt.stored != nil {
				stored = *tt.stored
			}
			res := resolveTurn(newTurn(tt.message), stored, tt.stored != nil)
			assert.Equal(t, tt.wantIntent, res.intent)
			assert.Equal(t, tt.wantEntities, res.entities)
			assert.Equal(t, tt.wantContinued, res.continued)
		})
	}
}

func TestNextPhase(t *testing.T) {
	tests := []struct {
		intent Intent
		o      outcome
		want   Phase
	}{
		{IntentCreateUser, outcomeNeedsRequired, PhaseAwaitingUserFields},
		{IntentCreateUser, outcomeNeedsOptional, PhaseAwaitingOptionalUserFields},
		{IntentCreateUser, outcomeFailed, PhaseAwaitingUserFields},
		{IntentCreateUser, outcomeCreated, PhaseIdle},
		{IntentCreateCourse, outcomeNeedsRequired, PhaseAwaitingCourseFields},
		{IntentCreateCourse, outcomeNeedsOptional, PhaseAwaitingOptionalCourseFields},
		{IntentGenerateReport, outcomeNeedsFilters, PhaseAwaitingReportFilters},
		{IntentGenerateReport, outcomeReportReady, PhaseAwaitingReportConfirmation},
		{IntentGenerateReport, outcomeFailed, PhaseIdle},
		{IntentGenerateAttendanceReport, outcomeDownloaded, PhaseIdle},
		{IntentGeneralQuery, outcomeAnswered, PhaseIdle},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextPhase(tt.intent, tt.o), "%s/%d", tt.intent, tt.o)
	}
}

func TestCheckpoint(t *testing.T) {
	now := time.Now()
	last := &report.Result{Type: report.TypeGeneral, FileName: "r.pdf"}

	t.Run("creation clears entities", func(t *testing.T) {
		e := Entities{FieldName: "Ana", FieldEmail: "ana@colegio.edu"}
		st := checkpoint(IntentCreateUser, outcomeCreated, e, nil, now)
		assert.Equal(t, PhaseIdle, st.Phase)
		assert.Equal(t, IntentCreateUser, st.LastIntent)
		assert.Empty(t, st.LastEntities)
	})

	t.Run("identifying entities are kept while idle", func(t *testing.T) {
		st := checkpoint(IntentGeneralQuery, outcomeAnswered, Entities{FieldEmail: "ana@colegio.edu"}, nil, now)
		assert.Equal(t, Entities{FieldEmail: "ana@colegio.edu"}, st.LastEntities)
	})

	t.Run("other entities are dropped while idle", func(t *testing.T) {
		st := checkpoint(IntentGeneralQuery, outcomeAnswered, Entities{FieldCourseCode: "MAT-101"}, nil, now)
		assert.Empty(t, st.LastEntities)
	})

	t.Run("pending report keeps its handle", func(t *testing.T) {
		st := checkpoint(IntentGenerateReport, outcomeReportReady, Entities{FieldReportType: "general"}, last, now)
		assert.Equal(t, PhaseAwaitingReportConfirmation, st.Phase)
		assert.Equal(t, last, st.LastReport)
		assert.Equal(t, Entities{FieldReportType: "general"}, st.LastEntities)
	})

	t.Run("report handle is dropped once answered", func(t *testing.T) {
		st := checkpoint(IntentGenerateReport, outcomeDownloaded, nil, last, now)
		assert.Nil(t, st.LastReport)
	})
}

func TestPersists(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		intent    Intent
		o         outcome
		continued bool
		e         Entities
		want      bool
	}{
		{name: "pending creation", intent: IntentCreateUser, o: outcomeNeedsRequired, e: Entities{}, want: true},
		{name: "identifying entities", intent: IntentGeneralQuery, o: outcomeAnswered, e: Entities{FieldRole: "teacher"}, want: true},
		{name: "completed creation", intent: IntentCreateUser, o: outcomeCreated, e: Entities{}, want: true},
		{name: "download", intent: IntentGenerateReport, o: outcomeDownloaded, e: Entities{}, want: true},
		{name: "declined download", intent: IntentGenerateReport, o: outcomeAnswered, continued: true, e: Entities{}, want: true},
		{name: "unrelated question", intent: IntentGeneralQuery, o: outcomeAnswered, e: Entities{}},
		{name: "forbidden report", intent: IntentGenerateReport, o: outcomeAnswered, e: Entities{FieldCourseCode: "MAT-101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := checkpoint(tt.intent, tt.o, tt.e, nil, now)
			assert.Equal(t, tt.want, persists(st, tt.o, tt.continued, tt.e))
		})
	}
}
