package assistant

import (
	"fmt"
	"strings"

	"github.com/trezcool/edutrack/core/user"
)

// templateLine is a "Label: value" line of a prompt. The label must be one Extract understands,
// so that a filled-in template is read back as the same entities.
type templateLine struct {
	label       string
	field       Field
	placeholder string
}

var (
	userRequiredLines = []templateLine{
		{"Nombre", FieldName, "[nombre completo]"},
		{"Email", FieldEmail, "[correo electrónico]"},
	}
	userCommonLines = []templateLine{
		{"Rol", FieldRole, "[estudiante, profesor o administrador]"},
		{"Contraseña", FieldPassword, "[opcional, se genera automáticamente]"},
	}
	studentLines = []templateLine{
		{"ID de estudiante", FieldStudentID, "[opcional, se genera automáticamente]"},
		{"Grado", FieldGrade, "[opcional]"},
		{"Bloque", FieldBlock, "[opcional]"},
		{"Fecha de nacimiento", FieldDateOfBirth, "[DD/MM/AAAA]"},
		{"Dirección", FieldAddress, "[opcional]"},
		{"Teléfono", FieldPhoneNumber, "[opcional]"},
		{"Nombre del padre/tutor", FieldParentName, "[opcional]"},
		{"Contacto del padre/tutor", FieldParentContact, "[opcional]"},
	}
	teacherLines = []templateLine{
		{"ID de profesor", FieldTeacherID, "[opcional, se genera automáticamente]"},
		{"Departamento", FieldDepartment, "[opcional]"},
		{"Especialización", FieldSpecialization, "[opcional]"},
		{"Titulación", FieldQualification, "[opcional]"},
		{"Teléfono", FieldPhoneNumber, "[opcional]"},
		{"Dirección", FieldAddress, "[opcional]"},
	}
	contactLines = []templateLine{
		{"Teléfono", FieldPhoneNumber, "[opcional]"},
		{"Dirección", FieldAddress, "[opcional]"},
	}

	courseRequiredLines = []templateLine{
		{"Nombre del curso", FieldCourseName, "[nombre de la materia]"},
		{"Código del curso", FieldCourseCode, "[letras y números]"},
	}
	courseOptionalLines = []templateLine{
		{"Descripción", FieldDescription, "[opcional]"},
		{"Profesor", FieldTeacherName, "[nombre o ID del profesor]"},
		{"Bloque", FieldBlock, "[opcional]"},
		{"Fecha de inicio", FieldStartDate, "[DD/MM/AAAA]"},
		{"Fecha de fin", FieldEndDate, "[DD/MM/AAAA]"},
		{"Horario", FieldSchedule, "[días y horas]"},
	}

	reportFilterLines = []templateLine{
		{"Tipo de reporte", FieldReportType, "[asistencia, calificaciones, rendimiento, estudiantes, profesores, tareas, general o completo]"},
		{"Código del curso", FieldCourseCode, "[opcional]"},
		{"Nombre del curso", FieldCourseName, "[opcional]"},
		{"ID de estudiante", FieldStudentID, "[opcional]"},
		{"Nombre del estudiante", FieldStudentName, "[opcional]"},
		{"Fecha de inicio", FieldStartDate, "[DD/MM/AAAA]"},
		{"Fecha de fin", FieldEndDate, "[DD/MM/AAAA]"},
		{"Asistencia mínima", FieldMinAttendance, "[porcentaje]"},
		{"Calificación mínima", FieldMinGrade, "[porcentaje]"},
		{"Calificación máxima", FieldMaxGrade, "[porcentaje]"},
	}

	courseOptionalFields = []Field{FieldDescription, FieldTeacherName, FieldTeacherID, FieldBlock, FieldStartDate, FieldEndDate, FieldSchedule}
	reportFilterFields   = []Field{
		FieldCourseCode, FieldCourseName, FieldStudentID, FieldStudentName,
		FieldStartDate, FieldEndDate, FieldMinAttendance, FieldMinGrade, FieldMaxGrade,
	}
)

// BuildPrompt returns the question to ask for the data an intent still lacks, or "" when the action can run.
// Known values are filled into the template; the rest are left as "[...]" placeholders.
func BuildPrompt(intent Intent, e Entities) string {
	switch intent {
	case IntentCreateUser:
		return userPrompt(e)
	case IntentCreateCourse:
		return coursePrompt(e)
	case IntentGenerateReport:
		return reportPrompt(e)
	}
	return ""
}

func hasRequired(intent Intent, e Entities) bool {
	switch intent {
	case IntentCreateUser:
		return e.Has(FieldName) && e.Has(FieldEmail)
	case IntentCreateCourse:
		return courseName(e) != "" && e.Has(FieldCourseCode)
	}
	return true
}

func hasFilters(e Entities) bool {
	return e.HasAny(reportFilterFields...)
}

// courseName falls back to the generic name: "Nombre: Álgebra" while creating a course.
func courseName(e Entities) string {
	if name := e.Get(FieldCourseName); name != "" {
		return name
	}
	return e.Get(FieldName)
}

func userPrompt(e Entities) string {
	roleLines := contactLines
	switch e.Get(FieldRole) {
	case user.KindStudent:
		roleLines = studentLines
	case user.KindTeacher:
		roleLines = teacherLines
	}

	if !hasRequired(IntentCreateUser, e) {
		var b strings.Builder
		b.WriteString("Para crear el usuario necesito los datos obligatorios")
		if missing := missingNames(e, userRequiredLines); len(missing) > 0 {
			fmt.Fprintf(&b, " (falta: %s)", strings.Join(missing, ", "))
		}
		b.WriteString(". Envíalos con este formato:\n\n")
		writeLines(&b, e, userRequiredLines, userCommonLines, roleLines)
		return b.String()
	}

	if e.Flag(FieldAllFieldsProvided) || e.Has(FieldRole) {
		return ""
	}

	var b strings.Builder
	b.WriteString("Ya tengo los datos obligatorios:\n\n")
	writeLines(&b, e, userRequiredLines)
	b.WriteString("\n¿Deseas agregar datos opcionales? Puedes enviarlos con este formato:\n\n")
	writeLines(&b, e, []templateLine{{"Rol", FieldRole, "[por defecto, estudiante]"}}, userCommonLines[1:], contactLines)
	b.WriteString("\nSi no deseas agregar más datos, responde \"no\" o \"continuar\".")
	return b.String()
}

func coursePrompt(e Entities) string {
	if name := courseName(e); name != "" && !e.Has(FieldCourseName) {
		e = e.Clone()
		e.Set(FieldCourseName, name)
	}

	if !hasRequired(IntentCreateCourse, e) {
		var b strings.Builder
		b.WriteString("Para crear el curso necesito los datos obligatorios")
		if missing := missingNames(e, courseRequiredLines); len(missing) > 0 {
			fmt.Fprintf(&b, " (falta: %s)", strings.Join(missing, ", "))
		}
		b.WriteString(". Envíalos con este formato:\n\n")
		writeLines(&b, e, courseRequiredLines, courseOptionalLines)
		return b.String()
	}

	if e.Flag(FieldAllFieldsProvided) || e.HasAny(courseOptionalFields...) {
		return ""
	}

	var b strings.Builder
	b.WriteString("Ya tengo los datos obligatorios del curso:\n\n")
	writeLines(&b, e, courseRequiredLines)
	b.WriteString("\n¿Deseas agregar datos opcionales? Puedes enviarlos con este formato:\n\n")
	writeLines(&b, e, courseOptionalLines)
	b.WriteString("\nSi no deseas agregar más datos, responde \"no\" o \"continuar\".")
	return b.String()
}

// reportPrompt asks for filters only when a report was requested without type or filters.
func reportPrompt(e Entities) string {
	if e.Has(FieldReportType) || hasFilters(e) {
		return ""
	}

	var b strings.Builder
	b.WriteString("¿Qué reporte necesitas? Indica el tipo y, si quieres, aplica filtros con este formato:\n\n")
	writeLines(&b, e, reportFilterLines)
	b.WriteString("\nResponde \"no\" para generarlo sin filtros.")
	return b.String()
}

func writeLines(b *strings.Builder, e Entities, groups ...[]templateLine) {
	seen := make(map[Field]bool)
	for _, lines := range groups {
		for _, l := range lines {
			if seen[l.field] {
				continue
			}
			seen[l.field] = true

			v := l.placeholder
			if known := e.Get(l.field); known != "" {
				v = displayValue(l.field, known)
			}
			fmt.Fprintf(b, "%s: %s\n", l.label, v)
		}
	}
}

func displayValue(f Field, v string) string {
	if f == FieldRole {
		return user.KindName(v)
	}
	return v
}

func missingNames(e Entities, lines []templateLine) []string {
	var names []string
	for _, l := range lines {
		if !e.Has(l.field) {
			names = append(names, strings.ToLower(l.label))
		}
	}
	return names
}
