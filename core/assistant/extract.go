package assistant

import (
	"regexp"
	"sort"
	"strings"

	"github.com/trezcool/edutrack/core/report"
	"github.com/trezcool/edutrack/core/user"
)

type (
	// pattern commits a field value. Natural patterns capture the value in group 1;
	// labeled patterns ("Label: value") capture the label in group 1 and the value in group 2;
	// a value ends at the first comma, semicolon or newline outside of "[...]".
	pattern struct {
		re      *regexp.Regexp
		labels  []string
		labeled bool
		find    func(message string) string
		post    func(value string) string
	}

	// fieldRule lists the patterns of a field by decreasing priority: the first one yielding a value wins.
	fieldRule struct {
		field    Field
		patterns []pattern
	}
)

const (
	namePat  = `(\p{Lu}\p{Ll}+(?:\s+(?:(?:de|del|de la)\s+)?\p{Lu}\p{Ll}+){0,4})`
	dateNC   = `(?:\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}|\d{4}-\d{1,2}-\d{1,2})`
	datePat  = `(` + dateNC + `)`
	numPat   = `(\d{1,3}(?:[.,]\d+)?)`
	emailPat = `[\w.+-]+@[\w-]+(?:\.[\w-]+)+`
)

func labeled(post func(string) string, labels ...string) pattern {
	return pattern{
		re:      regexp.MustCompile(`(?i)(?:^|[^\p{L}/])(` + strings.Join(labels, "|") + `)\s*:[ \t]*((?:\[[^\]\n]*\]|[^,\n;\[])+)`),
		labels:  labels,
		labeled: true,
		post:    post,
	}
}

func natural(expr string, post func(string) string) pattern {
	return pattern{re: regexp.MustCompile(expr), post: post}
}

func custom(find func(string) string) pattern {
	return pattern{find: find}
}

var extractionRules = []fieldRule{
	{FieldName, []pattern{
		labeled(nil, `nombre completo`, `nombre`, `name`),
		natural(`(?i:se llama|llamad[oa]|su nombre es|de nombre|nombre completo es)\s+`+namePat, nil),
		natural(`(?i:crear|crea|registrar|registra|agregar|agrega|a[ñn]adir|a[ñn]ade|dar de alta a|inscribir|inscribe)\s+`+
			`(?i:(?:a|al|el|la|un|una)\s+)?(?i:(?:nuevo|nueva)\s+)?`+
			`(?i:usuario|usuaria|estudiante|alumno|alumna|profesor|profesora|docente|maestro|maestra|administrador|administradora)\s+`+
			`(?i:(?:llamad[oa]|de nombre)\s+)?`+namePat, nil),
	}},
	{FieldEmail, []pattern{
		labeled(findEmail, `correo electr[oó]nico`, `correo`, `e-?mail`, `mail`),
		natural(`(`+emailPat+`)`, nil),
	}},
	{FieldPassword, []pattern{
		labeled(firstToken, `contrase[nñ]a`, `password`, `clave`),
		natural(`(?i:con (?:la )?contrase[nñ]a|contrase[nñ]a (?:es|ser[aá]))\s+(\S+)`, nil),
	}},
	{FieldRole, []pattern{
		labeled(normalizeRole, `tipo de usuario`, `rol`, `role`, `tipo`),
		natural(`(?i:como|con (?:el )?rol de|rol de|de tipo)\s+(\p{L}+)`, normalizeRole),
		custom(roleByKeyword),
	}},
	{FieldStudentID, []pattern{
		labeled(upperToken, `id del estudiante`, `id de estudiante`, `id estudiante`, `student id`, `matr[ií]cula`,
			`c[oó]digo del estudiante`, `c[oó]digo de estudiante`, `carn[eé]`),
		natural(`\b((?i:EST)-?\d{3,})\b`, upperToken),
	}},
	{FieldTeacherID, []pattern{
		labeled(upperToken, `id del profesor`, `id de profesor`, `id del docente`, `id de docente`, `id profesor`,
			`teacher id`, `c[oó]digo del profesor`, `c[oó]digo de profesor`, `c[oó]digo docente`),
		natural(`\b((?i:DOC)-?\d{3,})\b`, upperToken),
	}},
	{FieldGrade, []pattern{
		labeled(nil, `grado`, `nivel`, `a[ñn]o escolar`, `curso escolar`),
		natural(`(?i:de|en|del)\s+(\d{1,2}\s*(?:º|°|er|ro|do|to|vo|no|mo)?\s*(?i:grado|a[ñn]o))`, nil),
	}},
	{FieldDepartment, []pattern{
		labeled(nil, `departamento`, `[aá]rea`),
		natural(`(?i:departamento de|[aá]rea de)\s+(\p{Lu}\p{L}+(?:\s+\p{Lu}\p{L}+)*)`, nil),
	}},
	{FieldSpecialization, []pattern{
		labeled(nil, `especializaci[oó]n`, `especialidad`),
		natural(`(?i:especialista en|especializad[oa] en)\s+([^,\n;.]+)`, nil),
	}},
	{FieldQualification, []pattern{
		labeled(nil, `titulaci[oó]n`, `t[ií]tulo acad[eé]mico`, `t[ií]tulo`, `grado acad[eé]mico`, `formaci[oó]n`),
	}},
	{FieldBlock, []pattern{
		labeled(nil, `bloque`, `grupo`, `secci[oó]n`, `cohorte`),
		natural(`(?i:bloque|grupo)\s+([A-Z0-9][\w-]{0,15})\b`, nil),
	}},
	{FieldDateOfBirth, []pattern{
		labeled(nil, `fecha de nacimiento`, `nacimiento`),
		natural(`(?i:naci[oó] el|nacid[oa] el|nacimiento el)\s+`+datePat, nil),
	}},
	{FieldAddress, []pattern{
		labeled(nil, `direcci[oó]n`, `domicilio`, `address`),
		natural(`(?i:vive en|reside en|domiciliad[oa] en)\s+([^,\n;]+)`, nil),
	}},
	{FieldPhoneNumber, []pattern{
		labeled(nil, `n[uú]mero de tel[eé]fono`, `tel[eé]fono`, `tel`, `celular`, `m[oó]vil`, `phone`),
		natural(`(?i:tel[eé]fono|celular|m[oó]vil|n[uú]mero)\s+(?i:es\s+)?(\+?\d[\d\s-]{5,}\d)`, nil),
	}},
	{FieldParentName, []pattern{
		labeled(nil, `nombre del padre/tutor`, `nombre del padre`, `nombre de la madre`, `nombre del tutor`,
			`nombre del acudiente`, `padre/tutor`, `padre`, `madre`, `tutor`, `acudiente`, `apoderado`),
		natural(`(?i:su padre es|su madre es|su tutor es|su tutora es|hij[oa] de)\s+`+namePat, nil),
	}},
	{FieldParentContact, []pattern{
		labeled(nil, `contacto del padre/tutor`, `contacto del padre`, `contacto de la madre`, `contacto del tutor`,
			`contacto del acudiente`, `contacto de emergencia`, `tel[eé]fono del padre/tutor`, `tel[eé]fono del padre`,
			`tel[eé]fono de la madre`, `tel[eé]fono del tutor`),
	}},
	{FieldCourseCode, []pattern{
		labeled(upperToken, `c[oó]digo del curso`, `c[oó]digo de curso`, `clave del curso`, `c[oó]digo`, `code`),
		natural(`(?i:c[oó]digo|curso|materia|asignatura)\s+([A-Za-z]{2,6}-?\d{2,4}[A-Za-z]?)\b`, courseCode),
		natural(`\b([A-Z]{2,6}-\d{2,4}[A-Z]?)\b`, courseCode),
	}},
	{FieldCourseName, []pattern{
		labeled(nil, `nombre del curso`, `nombre de curso`, `curso`, `materia`, `asignatura`, `course`),
		natural(`(?i:curso|materia|asignatura|clase)\s+(?i:(?:de|llamad[oa])\s+)?(\p{Lu}\p{Ll}+(?:\s+\p{L}+)*)`, cutAtStopWord),
	}},
	{FieldDescription, []pattern{
		labeled(nil, `descripci[oó]n`, `description`),
	}},
	{FieldTeacherName, []pattern{
		labeled(nil, `nombre del profesor`, `nombre del docente`, `profesora`, `profesor`, `docente`, `maestro`, `teacher`),
		natural(`(?i:impartido por|dictado por|a cargo de|con el profesor|con la profesora|con el docente)\s+`+
			`(?i:(?:el|la)\s+)?(?i:(?:profesor|profesora|docente)\s+)?`+namePat, nil),
	}},
	{FieldStartDate, []pattern{
		labeled(nil, `fecha de inicio`, `fecha inicial`, `fecha de comienzo`, `inicio`, `desde`, `start date`),
		natural(`(?i:desde|a partir del?|comenzando el|inicia el|empieza el)\s+(?i:el\s+)?`+datePat, nil),
		natural(`(?i:entre)\s+(?i:el\s+)?`+datePat+`\s+(?i:y|al)\s+`, nil),
	}},
	{FieldEndDate, []pattern{
		labeled(nil, `fecha de fin`, `fecha de finalizaci[oó]n`, `fecha de t[eé]rmino`, `fecha final`, `fin`, `hasta`, `end date`),
		natural(`(?i:hasta|termina el|finaliza el)\s+(?i:el\s+)?`+datePat, nil),
		natural(`(?i:entre)\s+(?i:el\s+)?`+dateNC+`\s+(?i:y|al)\s+(?i:el\s+)?`+datePat, nil),
	}},
	{FieldSchedule, []pattern{
		labeled(nil, `horario`, `schedule`),
	}},
	{FieldReportType, []pattern{
		labeled(normalizeReportType, `tipo de reporte`, `tipo de informe`, `reporte`, `informe`),
		custom(reportTypeByKeyword),
	}},
	{FieldStudentName, []pattern{
		labeled(nil, `nombre del estudiante`, `nombre del alumno`, `estudiante`, `alumno`, `alumna`),
		natural(`(?i:del estudiante|de la estudiante|del alumno|de la alumna|para el estudiante|para la estudiante)\s+`+namePat, nil),
	}},
	{FieldMinAttendance, []pattern{
		labeled(number, `asistencia m[ií]nima`, `m[ií]nimo de asistencia`),
		natural(`(?i:asistencia (?:mayor|superior) (?:o igual )?(?:a|al|que)|asistencia m[ií]nima (?:de|del)?|m[ií]nimo de asistencia (?:de|del)?)\s*`+numPat, number),
	}},
	{FieldMinGrade, []pattern{
		labeled(number, `calificaci[oó]n m[ií]nima`, `nota m[ií]nima`, `promedio m[ií]nimo`),
		natural(`(?i:(?:calificaci[oó]n|calificaciones|notas?|promedio) (?:mayor|mayores|superior|superiores) (?:o iguale?s? )?(?:a|al|que)|(?:calificaci[oó]n|nota) m[ií]nima (?:de|del)?)\s*`+numPat, number),
	}},
	{FieldMaxGrade, []pattern{
		labeled(number, `calificaci[oó]n m[aá]xima`, `nota m[aá]xima`, `promedio m[aá]ximo`),
		natural(`(?i:(?:calificaci[oó]n|calificaciones|notas?|promedio) (?:menor|menores|inferior|inferiores) (?:o iguale?s? )?(?:a|al|que)|(?:calificaci[oó]n|nota) m[aá]xima (?:de|del)?)\s*`+numPat, number),
	}},
	{FieldDownloadRequested, []pattern{
		custom(downloadByKeyword),
	}},
}

var (
	// labelCutRe finds the start of the next "Label:" inside a captured value.
	labelCutRe  = labelsRegexp(`(?i)\s(?:`, `)\s*:`)
	// labelMaskRe finds every "Label:", hidden from natural patterns.
	labelMaskRe = labelsRegexp(`(?i)(?:^|[^\p{L}/])(?:`, `)\s*:`)
)

func labelsRegexp(prefix, suffix string) *regexp.Regexp {
	var labels []string
	for _, rule := range extractionRules {
		for _, p := range rule.patterns {
			labels = append(labels, p.labels...)
		}
	}
	sort.SliceStable(labels, func(i, j int) bool { return len(labels[i]) > len(labels[j]) })
	return regexp.MustCompile(prefix + strings.Join(labels, "|") + suffix)
}

// Extract parses a message into the entities it mentions. Only found fields are set.
func Extract(message string) Entities {
	e := make(Entities)
	masked := labelMaskRe.ReplaceAllString(message, " ; ")
	for _, rule := range extractionRules {
		for _, p := range rule.patterns {
			if v := p.match(message, masked); v != "" {
				e.Set(rule.field, v)
				break
			}
		}
	}
	return e
}

// match runs p on message; natural patterns see masked, the message without its labels,
// so that "curso Nombre: Álgebra" does not read as the course "Nombre".
func (p pattern) match(message, masked string) string {
	switch {
	case p.find != nil:
		return cleanValue(p.find(message))
	case p.labeled:
		for _, m := range p.re.FindAllStringSubmatchIndex(message, -1) {
			if followsArticle(message[:m[2]]) {
				continue // "ID de estudiante:" is not "Estudiante:"
			}
			if v := p.apply(cutAtLabel(message[m[4]:m[5]])); v != "" {
				return v
			}
		}
	default:
		for _, m := range p.re.FindAllStringSubmatch(masked, -1) {
			if v := p.apply(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}

func (p pattern) apply(v string) string {
	v = cleanValue(v)
	if p.post != nil && v != "" {
		v = cleanValue(p.post(v))
	}
	return v
}

var articles = map[string]bool{"de": true, "del": true, "la": true, "el": true, "los": true, "las": true, "por": true}

func followsArticle(before string) bool {
	words := strings.Fields(fold(before))
	return len(words) > 0 && articles[words[len(words)-1]]
}

func cutAtLabel(v string) string {
	if loc := labelCutRe.FindStringIndex(v); loc != nil {
		return v[:loc[0]]
	}
	return v
}

// post-processors

var emailRe = regexp.MustCompile(emailPat)

func findEmail(v string) string {
	return emailRe.FindString(v)
}

func firstToken(v string) string {
	if fields := strings.Fields(v); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func upperToken(v string) string {
	return strings.ToUpper(firstToken(v))
}

func courseCode(v string) string {
	code := strings.ToUpper(v)
	if strings.HasPrefix(code, "EST") || strings.HasPrefix(code, "DOC") {
		return ""
	}
	return code
}

var courseNameStopRe = regexp.MustCompile(`(?i)\s+(?:desde|hasta|entre|para|con|que|en|del|al|por|y|a|el|la|los|las|sobre|impartido|dictado|c[oó]digo)\b`)

func cutAtStopWord(v string) string {
	if loc := courseNameStopRe.FindStringIndex(v); loc != nil {
		return v[:loc[0]]
	}
	return v
}

func number(v string) string {
	n, ok := report.ParseNumber(v)
	if !ok {
		return ""
	}
	return report.FormatNumber(n)
}

var roleSynonyms = map[string]string{
	"estudiante":     user.KindStudent,
	"estudiantes":    user.KindStudent,
	"alumno":         user.KindStudent,
	"alumna":         user.KindStudent,
	"student":        user.KindStudent,
	"profesor":       user.KindTeacher,
	"profesora":      user.KindTeacher,
	"profe":          user.KindTeacher,
	"docente":        user.KindTeacher,
	"maestro":        user.KindTeacher,
	"maestra":        user.KindTeacher,
	"teacher":        user.KindTeacher,
	"administrador":  user.KindAdmin,
	"administradora": user.KindAdmin,
	"admin":          user.KindAdmin,
	"administrator":  user.KindAdmin,
}

// normalizeRole maps a role synonym to student|teacher|admin, or "" when unknown.
func normalizeRole(v string) string {
	return roleSynonyms[firstToken(fold(v))]
}

var roleKeywords = []struct {
	kind string
	re   *regexp.Regexp
}{
	{user.KindStudent, regexp.MustCompile(`\b(?:estudiante|alumno|alumna)\b`)},
	{user.KindTeacher, regexp.MustCompile(`\b(?:profesor|profesora|docente|maestro|maestra)\b`)},
	{user.KindAdmin, regexp.MustCompile(`\b(?:administrador|administradora|admin)\b`)},
}

func roleByKeyword(message string) string {
	f := fold(stripPlaceholders(message))
	for _, rk := range roleKeywords {
		if rk.re.MatchString(f) {
			return rk.kind
		}
	}
	return ""
}

var (
	reportWordRe   = regexp.MustCompile(`\b(?:reporte|reportes|informe|informes)\b`)
	completenessRe = regexp.MustCompile(`\b(?:completo|completa|todos los datos|toda la informacion|todo el sistema|todos los modulos|integral|full)\b`)
	generalRe      = regexp.MustCompile(`\b(?:general|resumen)\b`)

	// filterLabelRe finds threshold labels, which name a metric without asking for it.
	filterLabelRe = regexp.MustCompile(`(?i)(?:asistencia|calificaci[oó]n|nota|promedio) m[ií]nim[ao]\s*:|(?:calificaci[oó]n|nota|promedio) m[aá]xim[ao]\s*:|m[ií]nimo de asistencia\s*:`)

	// metrics are what a report measures; subjects are who or what it lists.
	reportMetrics = []reportKeyword{
		{report.TypeAttendance, regexp.MustCompile(`\basistencias?\b`)},
		{report.TypeGrades, regexp.MustCompile(`\b(?:calificaciones|notas)\b`)},
		{report.TypePerformance, regexp.MustCompile(`\b(?:rendimiento|desempeno)\b`)},
	}
	reportSubjects = []reportKeyword{
		{report.TypeAssignments, regexp.MustCompile(`\b(?:tareas|asignaciones|trabajos|entregas)\b`)},
		{report.TypeStudents, regexp.MustCompile(`\b(?:estudiantes|alumnos|alumnas)\b`)},
		{report.TypeTeachers, regexp.MustCompile(`\b(?:profesores|docentes|maestros)\b`)},
	}
)

type reportKeyword struct {
	typ report.Type
	re  *regexp.Regexp
}

func matchingTypes(f string, keywords []reportKeyword) []report.Type {
	var types []report.Type
	for _, kw := range keywords {
		if kw.re.MatchString(f) {
			types = append(types, kw.typ)
		}
	}
	return types
}

// reportTypeByKeyword infers the report type of a message mentioning a report:
// complete with completeness words or several metrics/subjects, else the single metric or subject named.
func reportTypeByKeyword(message string) string {
	f := fold(filterLabelRe.ReplaceAllString(stripPlaceholders(message), " "))
	if !reportWordRe.MatchString(f) {
		return ""
	}
	if completenessRe.MatchString(f) {
		return string(report.TypeComplete)
	}
	metrics, subjects := matchingTypes(f, reportMetrics), matchingTypes(f, reportSubjects)
	switch {
	case len(metrics) > 1, len(metrics) == 0 && len(subjects) > 1:
		return string(report.TypeComplete)
	case len(metrics) == 1:
		return string(metrics[0])
	case len(subjects) == 1:
		return string(subjects[0])
	case generalRe.MatchString(f):
		return string(report.TypeGeneral)
	}
	return ""
}

func normalizeReportType(v string) string {
	if t, ok := report.ParseType(v); ok {
		return string(t)
	}
	f := " " + fold(v) + " "
	for _, kw := range append(append([]reportKeyword{}, reportMetrics...), reportSubjects...) {
		if kw.re.MatchString(f) {
			return string(kw.typ)
		}
	}
	switch {
	case strings.Contains(f, "asistencia"):
		return string(report.TypeAttendance)
	case strings.Contains(f, "calificacion") || strings.Contains(f, "nota"):
		return string(report.TypeGrades)
	case strings.Contains(f, "estudiante") || strings.Contains(f, "alumno"):
		return string(report.TypeStudents)
	case strings.Contains(f, "profesor") || strings.Contains(f, "docente"):
		return string(report.TypeTeachers)
	case strings.Contains(f, "tarea"):
		return string(report.TypeAssignments)
	case completenessRe.MatchString(f):
		return string(report.TypeComplete)
	case generalRe.MatchString(f):
		return string(report.TypeGeneral)
	}
	return ""
}

var downloadRe = regexp.MustCompile(`\b(?:descargar|descargarlo|descargarla|descargalo|descargala|descarga|bajar|bajarlo|pdf)\b`)

func downloadByKeyword(message string) string {
	if downloadRe.MatchString(fold(message)) {
		return flagOn
	}
	return ""
}
