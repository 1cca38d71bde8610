package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Entities
	}{
		{
			name:    "labeled student",
			message: "crear estudiante Nombre: Ana Torres, Email: ana@colegio.edu",
			want: Entities{
				FieldName:  "Ana Torres",
				FieldEmail: "ana@colegio.edu",
				FieldRole:  "student",
			},
		},
		{
			name:    "labeled teacher with role label",
			message: "Rol: profesor, Nombre: Luis Gómez, Email: luis@colegio.edu, Departamento: Ciencias",
			want: Entities{
				FieldName:       "Luis Gómez",
				FieldEmail:      "luis@colegio.edu",
				FieldRole:       "teacher",
				FieldDepartment: "Ciencias",
			},
		},
		{
			name:    "labeled email before name",
			message: "Email: ana@x.com, Nombre: Ana Torres",
			want: Entities{
				FieldName:  "Ana Torres",
				FieldEmail: "ana@x.com",
			},
		},
		{
			name:    "natural language",
			message: "Quiero registrar al profesor Carlos Pérez con email carlos@colegio.edu",
			want: Entities{
				FieldName:  "Carlos Pérez",
				FieldEmail: "carlos@colegio.edu",
				FieldRole:  "teacher",
			},
		},
		{
			name:    "report with course & range",
			message: "genera un reporte de asistencia del curso MAT-101 desde 01/03/2024 hasta 31/03/2024",
			want: Entities{
				FieldReportType: "attendance",
				FieldCourseCode: "MAT-101",
				FieldStartDate:  "01/03/2024",
				FieldEndDate:    "31/03/2024",
			},
		},
		{
			name:    "grades threshold",
			message: "reporte de calificaciones con calificación mínima de 70",
			want: Entities{
				FieldReportType: "grades",
				FieldMinGrade:   "70",
			},
		},
		{
			name:    "complete report",
			message: "dame un reporte completo",
			want:    Entities{FieldReportType: "complete"},
		},
		{
			name:    "several metrics make a complete report",
			message: "quiero un reporte de asistencia y calificaciones",
			want:    Entities{FieldReportType: "complete"},
		},
		{
			name:    "download request",
			message: "sí, descárgalo en pdf",
			want:    Entities{FieldDownloadRequested: flagOn},
		},
		{
			name:    "placeholders are ignored",
			message: "Nombre: [nombre completo], Email: [correo electrónico]",
			want:    Entities{},
		},
		{
			name:    "nothing to extract",
			message: "hola, ¿cómo estás?",
			want:    Entities{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.message))
		})
	}
}

func TestExtract_labelsAreNotNaturalValues(t *testing.T) {
	e := Extract("crear curso Nombre: Álgebra, Código: MAT-101")
	assert.Equal(t, "Álgebra", e.Get(FieldName))
	assert.Equal(t, "MAT-101", e.Get(FieldCourseCode))
	assert.False(t, e.Has(FieldCourseName))
}

func TestExtract_idempotent(t *testing.T) {
	messages := []string{
		"crear estudiante Nombre: Ana Torres, Email: ana@colegio.edu, Teléfono: 0991234567",
		"genera un reporte de asistencia del curso MAT-101 desde 01/03/2024",
		"no",
	}
	for _, msg := range messages {
		assert.Equal(t, Extract(msg), Extract(msg), msg)
	}
}

func TestCleanValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Ana   Torres. ", "Ana Torres"},
		{"[opcional]", ""},
		{"Calle 5 [centro];", "Calle 5"},
		{"MAT-101", "MAT-101"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanValue(tt.in), tt.in)
	}
}

func TestEntities_Merge(t *testing.T) {
	older := Entities{FieldName: "Ana", FieldRole: "student"}
	newer := Entities{FieldRole: "teacher", FieldEmail: "ana@colegio.edu"}

	merged := older.Merge(newer)
	assert.Equal(t, Entities{FieldName: "Ana", FieldRole: "teacher", FieldEmail: "ana@colegio.edu"}, merged)
	assert.Equal(t, "student", older.Get(FieldRole), "Merge must not modify its receiver")
}

func TestEntities_MarshalJSON(t *testing.T) {
	e := Entities{FieldName: "Ana"}
	e.SetFlag(FieldUserCreationCompleted, true)

	data, err := e.MarshalJSON()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"name": "Ana", "userCreationCompleted": true}`, string(data))
}
