package assistant

import "regexp"

type Intent string

const (
	IntentCreateUser                Intent = "create_user"
	IntentCreateCourse              Intent = "create_course"
	IntentGenerateReport            Intent = "generate_report"
	IntentGenerateAttendanceReport  Intent = "generate_attendance_report"
	IntentGenerateGradesReport      Intent = "generate_grades_report"
	IntentGeneratePerformanceReport Intent = "generate_performance_report"
	IntentGeneralQuery              Intent = "general_query"
	IntentDownloadReport            Intent = "download_report"
)

func (i Intent) IsReport() bool {
	switch i {
	case IntentGenerateReport, IntentGenerateAttendanceReport, IntentGenerateGradesReport, IntentGeneratePerformanceReport:
		return true
	}
	return false
}

func (i Intent) IsCreation() bool {
	return i == IntentCreateUser || i == IntentCreateCourse
}

// intentRule matches when any of its patterns matches the folded message and none of its exclusions does.
type intentRule struct {
	intent   Intent
	patterns []*regexp.Regexp
	excludes []*regexp.Regexp
}

func (r intentRule) matches(folded string) bool {
	for _, ex := range r.excludes {
		if ex.MatchString(folded) {
			return false
		}
	}
	for _, p := range r.patterns {
		if p.MatchString(folded) {
			return true
		}
	}
	return false
}

var mentionsReport = regexp.MustCompile(`\b(?:reporte|reportes|informe|informes)\b`)

// intentRules are evaluated in order; the first match wins. The generic report rule precedes the
// report subtypes, so "generar reporte de asistencia" is a generic report request.
var intentRules = []intentRule{
	{
		intent: IntentCreateUser,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:crear|crea|cree|registrar|registra|agregar|agrega|anadir|anade|inscribir|inscribe|dar de alta|alta de)\s+(?:\S+\s+){0,3}?(?:usuario|usuaria|estudiante|alumno|alumna|profesor|profesora|docente|maestro|maestra|administrador|administradora)\b`),
			regexp.MustCompile(`\b(?:nuevo|nueva)\s+(?:usuario|usuaria|estudiante|alumno|alumna|profesor|profesora|docente|maestro|maestra|administrador|administradora)\b`),
		},
		excludes: []*regexp.Regexp{mentionsReport},
	},
	{
		intent: IntentCreateCourse,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:crear|crea|cree|registrar|registra|agregar|agrega|anadir|anade|abrir|abre|dar de alta)\s+(?:\S+\s+){0,3}?(?:curso|materia|asignatura)\b`),
			regexp.MustCompile(`\b(?:nuevo|nueva)\s+(?:curso|materia|asignatura)\b`),
		},
		excludes: []*regexp.Regexp{mentionsReport},
	},
	{
		intent: IntentGenerateReport,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:generar|genera|genere|generame|crear|crea|cree|hacer|haz|haga|hazme|dame|deme|elaborar|elabora|preparar|prepara|sacar|saca|emitir|emite)\b.*\b(?:reporte|reportes|informe|informes)\b`),
			regexp.MustCompile(`\b(?:reporte|informe)\s+(?:completo|general)\b`),
		},
	},
	{
		intent: IntentGenerateAttendanceReport,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:reporte|reportes|informe|informes)\b.*\basistencias?\b`),
			regexp.MustCompile(`\basistencias?\b.*\b(?:reporte|reportes|informe|informes)\b`),
		},
	},
	{
		intent: IntentGenerateGradesReport,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:reporte|reportes|informe|informes)\b.*\b(?:calificaciones|notas)\b`),
			regexp.MustCompile(`\b(?:calificaciones|notas)\b.*\b(?:reporte|reportes|informe|informes)\b`),
		},
	},
	{
		intent: IntentGeneratePerformanceReport,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(?:reporte|reportes|informe|informes)\b.*\b(?:rendimiento|desempeno)\b`),
			regexp.MustCompile(`\b(?:rendimiento|desempeno)\b.*\b(?:reporte|reportes|informe|informes)\b`),
		},
	},
}

// Classify maps a message to an intent. It is a pure function of the message.
func Classify(message string) Intent {
	folded := fold(message)
	for _, rule := range intentRules {
		if rule.matches(folded) {
			return rule.intent
		}
	}
	return IntentGeneralQuery
}
