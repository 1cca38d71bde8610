package report

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/edutrack/core/attendance"
	"github.com/trezcool/edutrack/core/coursework"
	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/core/user"
)

const (
	dateFmt   = "02/01/2006"
	noDataMsg = "Sin datos para los filtros seleccionados."
)

// dataset is a snapshot of everything a report may need, narrowed by the filters.
type dataset struct {
	filters  Filters
	from, to time.Time

	users       map[string]user.User
	students    []school.Student
	teachers    []school.Teacher
	courses     []school.Course
	blocks      []school.Block
	assignments []coursework.Assignment
	submissions []coursework.Submission
	records     []attendance.Attendance

	studentsByID map[string]school.Student
	teachersByID map[string]school.Teacher
	coursesByID  map[string]school.Course
	assignByID   map[string]coursework.Assignment

	courseScope  map[string]bool // nil: every course
	studentScope map[string]bool // nil: every student
}

// Build loads the data needed for a report and lays out its Document.
func (svc *Service) Build(ctx context.Context, typ Type, filters Filters) (Document, error) {
	d, err := svc.load(ctx, filters)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Title:       typ.Title(),
		Subtitle:    svc.conf.AppName,
		GeneratedAt: NowFunc(),
		Filters:     filters.Describe(),
	}
	switch typ {
	case TypeAttendance:
		doc.Sections = []Section{d.attendanceSection()}
	case TypeGrades:
		doc.Sections = []Section{d.gradesSection()}
	case TypeTeachers:
		doc.Sections = []Section{d.teachersSection()}
	case TypeStudents:
		doc.Sections = []Section{d.studentsSection()}
	case TypeAssignments:
		doc.Sections = []Section{d.assignmentsSection()}
	case TypePerformance:
		doc.Sections = []Section{d.performanceSection()}
	case TypeGeneral:
		doc.Sections = []Section{d.summarySection(), d.coursesSection()}
	case TypeComplete:
		doc.Sections = []Section{
			d.summarySection(),
			d.coursesSection(),
			d.studentsSection(),
			d.teachersSection(),
			d.assignmentsSection(),
			d.attendanceSection(),
			d.gradesSection(),
			d.performanceSection(),
		}
	default:
		return Document{}, ErrUnknownType
	}

	for i := range doc.Sections {
		if len(doc.Sections[i].Rows) == 0 {
			doc.Sections[i].Notes = append([]string{noDataMsg}, doc.Sections[i].Notes...)
		}
	}
	return doc, ctx.Err()
}

func (svc *Service) load(ctx context.Context, filters Filters) (*dataset, error) {
	d := &dataset{filters: filters}
	d.from, d.to = filters.Range()

	users, err := svc.users.Query(ctx, nil)
	if err != nil {
		return nil, err
	}
	if d.students, err = svc.school.QueryStudents(ctx); err != nil {
		return nil, err
	}
	if d.teachers, err = svc.school.QueryTeachers(ctx); err != nil {
		return nil, err
	}
	if d.courses, err = svc.school.QueryCourses(ctx, nil); err != nil {
		return nil, err
	}
	if d.blocks, err = svc.school.QueryBlocks(ctx); err != nil {
		return nil, err
	}
	if d.assignments, err = svc.coursework.QueryAssignments(ctx, ""); err != nil {
		return nil, err
	}
	if d.submissions, err = svc.coursework.QuerySubmissions(ctx, nil); err != nil {
		return nil, err
	}
	if d.records, err = svc.attendance.Query(ctx, nil); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.users = make(map[string]user.User, len(users))
	for _, usr := range users {
		d.users[usr.ID] = usr
	}
	d.studentsByID = make(map[string]school.Student, len(d.students))
	for _, st := range d.students {
		d.studentsByID[st.ID] = st
	}
	d.teachersByID = make(map[string]school.Teacher, len(d.teachers))
	for _, tch := range d.teachers {
		d.teachersByID[tch.ID] = tch
	}
	d.coursesByID = make(map[string]school.Course, len(d.courses))
	for _, c := range d.courses {
		d.coursesByID[c.ID] = c
	}
	d.assignByID = make(map[string]coursework.Assignment, len(d.assignments))
	for _, a := range d.assignments {
		d.assignByID[a.ID] = a
	}
	d.scope()
	return d, nil
}

func (d *dataset) scope() {
	code := strings.TrimSpace(d.filters.CourseCode)
	name := strings.ToLower(strings.TrimSpace(d.filters.CourseName))
	if code != "" || name != "" {
		d.courseScope = make(map[string]bool)
		for _, c := range d.courses {
			if (code == "" || strings.EqualFold(c.Code, code)) &&
				(name == "" || strings.Contains(strings.ToLower(c.Name), name)) {
				d.courseScope[c.ID] = true
			}
		}
	}

	sid := strings.TrimSpace(d.filters.StudentID)
	sname := strings.ToLower(strings.TrimSpace(d.filters.StudentName))
	if sid != "" || sname != "" {
		d.studentScope = make(map[string]bool)
		for _, st := range d.students {
			if (sid == "" || strings.EqualFold(st.StudentID, sid) || st.ID == sid) &&
				(sname == "" || strings.Contains(strings.ToLower(d.userName(st.UserID)), sname)) {
				d.studentScope[st.ID] = true
			}
		}
	}
}

func (d *dataset) courseInScope(id string) bool {
	return d.courseScope == nil || d.courseScope[id]
}

func (d *dataset) studentInScope(id string) bool {
	return d.studentScope == nil || d.studentScope[id]
}

func (d *dataset) inRange(t time.Time) bool {
	return (d.from.IsZero() || !t.Before(d.from)) && (d.to.IsZero() || !t.After(d.to))
}

func (d *dataset) userName(userID string) string {
	return d.users[userID].Name
}

func (d *dataset) studentName(id string) string {
	st, ok := d.studentsByID[id]
	if !ok {
		return id
	}
	if name := d.userName(st.UserID); name != "" {
		return name
	}
	return st.StudentID
}

func (d *dataset) scopedCourses() []school.Course {
	var courses []school.Course
	for _, c := range d.courses {
		if d.courseInScope(c.ID) {
			courses = append(courses, c)
		}
	}
	return courses
}

// enrolled reports whether the student attends one of the courses in scope.
func (d *dataset) enrolled(studentID string) bool {
	if d.courseScope == nil {
		return true
	}
	for _, c := range d.scopedCourses() {
		if c.HasStudent(studentID) {
			return true
		}
	}
	return false
}

func (d *dataset) summarySection() Section {
	var admins int
	for _, usr := range d.users {
		if usr.IsAdmin() {
			admins++
		}
	}
	var graded int
	for _, s := range d.submissions {
		if s.Status == coursework.StatusGraded {
			graded++
		}
	}
	sec := Section{Title: "Resumen", Columns: []string{"Indicador", "Valor"}}
	sec.AddRow("Usuarios", strconv.Itoa(len(d.users)))
	sec.AddRow("Administradores", strconv.Itoa(admins))
	sec.AddRow("Estudiantes", strconv.Itoa(len(d.students)))
	sec.AddRow("Profesores", strconv.Itoa(len(d.teachers)))
	sec.AddRow("Cursos", strconv.Itoa(len(d.courses)))
	sec.AddRow("Bloques", strconv.Itoa(len(d.blocks)))
	sec.AddRow("Tareas", strconv.Itoa(len(d.assignments)))
	sec.AddRow("Entregas", strconv.Itoa(len(d.submissions)))
	sec.AddRow("Entregas calificadas", strconv.Itoa(graded))
	sec.AddRow("Registros de asistencia", strconv.Itoa(len(d.records)))
	return sec
}

func (d *dataset) coursesSection() Section {
	sec := Section{
		Title:   "Cursos",
		Columns: []string{"Código", "Nombre", "Profesor", "Estudiantes", "Inicio", "Fin"},
	}
	for _, c := range d.scopedCourses() {
		teacher := "-"
		if tch, ok := d.teachersByID[c.TeacherID]; ok {
			teacher = d.userName(tch.UserID)
		}
		sec.AddRow(c.Code, c.Name, teacher, strconv.Itoa(len(c.StudentIDs)), formatDate(c.StartDate), formatDate(c.EndDate))
	}
	return sec
}

func (d *dataset) studentsSection() Section {
	sec := Section{
		Title:   "Estudiantes",
		Columns: []string{"ID", "Nombre", "Email", "Grado", "Bloque", "Teléfono"},
	}
	for _, st := range d.students {
		if !d.studentInScope(st.ID) || !d.enrolled(st.ID) {
			continue
		}
		usr := d.users[st.UserID]
		sec.AddRow(st.StudentID, usr.Name, usr.Email, dash(st.Grade), dash(st.Block), dash(st.PhoneNumber))
	}
	sortRows(sec.Rows, 1)
	return sec
}

func (d *dataset) teachersSection() Section {
	sec := Section{
		Title:   "Profesores",
		Columns: []string{"ID", "Nombre", "Email", "Departamento", "Especialización", "Cursos"},
	}
	for _, tch := range d.teachers {
		var courses []string
		for _, c := range d.scopedCourses() {
			if c.TeacherID == tch.ID {
				courses = append(courses, c.Code)
			}
		}
		if d.courseScope != nil && len(courses) == 0 {
			continue
		}
		usr := d.users[tch.UserID]
		sec.AddRow(tch.TeacherID, usr.Name, usr.Email, dash(tch.Department), dash(tch.Specialization), dash(strings.Join(courses, ", ")))
	}
	sortRows(sec.Rows, 1)
	return sec
}

func (d *dataset) assignmentsSection() Section {
	sec := Section{
		Title:   "Tareas",
		Columns: []string{"Curso", "Título", "Entrega", "Puntos", "Entregas", "Calificadas"},
	}
	for _, a := range d.assignments {
		if !d.courseInScope(a.CourseID) || !d.inRange(a.DueDate) {
			continue
		}
		var submitted, graded int
		for _, s := range d.submissions {
			if s.AssignmentID != a.ID || !d.studentInScope(s.StudentID) {
				continue
			}
			submitted++
			if s.Status == coursework.StatusGraded {
				graded++
			}
		}
		sec.AddRow(d.coursesByID[a.CourseID].Code, a.Title, formatDate(a.DueDate), FormatNumber(a.TotalPoints),
			strconv.Itoa(submitted), strconv.Itoa(graded))
	}
	return sec
}

func (d *dataset) scopedRecords(courseID string) []attendance.Attendance {
	var records []attendance.Attendance
	for _, rec := range d.records {
		if rec.CourseID == courseID && d.inRange(rec.Date) {
			records = append(records, rec)
		}
	}
	return records
}

// attendanceRate returns the attendance percentage of a student in a course; ok is false without records.
func (d *dataset) attendanceRate(courseID, studentID string) (rate float64, attended, total int, ok bool) {
	attended, total = attendance.Rate(d.scopedRecords(courseID), studentID)
	if total == 0 {
		return 0, 0, 0, false
	}
	return float64(attended) * 100 / float64(total), attended, total, true
}

func (d *dataset) attendanceSection() Section {
	sec := Section{
		Title:   "Asistencia",
		Columns: []string{"Curso", "Estudiante", "Asistencias", "Registros", "Porcentaje"},
	}
	var sum float64
	for _, c := range d.scopedCourses() {
		for _, sid := range d.courseStudents(c) {
			rate, attended, total, ok := d.attendanceRate(c.ID, sid)
			if !ok {
				continue
			}
			if min := d.filters.MinAttendance; min != nil && rate < *min {
				continue
			}
			sum += rate
			sec.AddRow(c.Code, d.studentName(sid), strconv.Itoa(attended), strconv.Itoa(total), percent(rate))
		}
	}
	if n := len(sec.Rows); n > 0 {
		sec.Notes = append(sec.Notes, "Asistencia promedio: "+percent(sum/float64(n)))
	}
	return sec
}

// courseStudents lists the enrolled students of c plus those appearing in its records, within scope.
func (d *dataset) courseStudents(c school.Course) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] && d.studentInScope(id) {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range c.StudentIDs {
		add(id)
	}
	for _, rec := range d.records {
		if rec.CourseID == c.ID {
			for _, e := range rec.Entries {
				add(e.StudentID)
			}
		}
	}
	sort.SliceStable(ids, func(i, j int) bool { return d.studentName(ids[i]) < d.studentName(ids[j]) })
	return ids
}

func (d *dataset) gradeInBounds(pct float64) bool {
	if min := d.filters.MinGrade; min != nil && pct < *min {
		return false
	}
	if max := d.filters.MaxGrade; max != nil && pct > *max {
		return false
	}
	return true
}

func (d *dataset) gradesSection() Section {
	sec := Section{
		Title:   "Calificaciones",
		Columns: []string{"Curso", "Tarea", "Estudiante", "Puntos", "Porcentaje", "Estado"},
	}
	var sum float64
	for _, s := range d.submissions {
		a, ok := d.assignByID[s.AssignmentID]
		if !ok || s.Status != coursework.StatusGraded || !d.courseInScope(a.CourseID) ||
			!d.studentInScope(s.StudentID) || !d.inRange(s.SubmittedAt) {
			continue
		}
		pct, ok := s.Percentage(a)
		if !ok || !d.gradeInBounds(pct) {
			continue
		}
		sum += pct
		sec.AddRow(d.coursesByID[a.CourseID].Code, a.Title, d.studentName(s.StudentID),
			FormatNumber(*s.Points)+"/"+FormatNumber(a.TotalPoints), percent(pct), string(s.Status))
	}
	if n := len(sec.Rows); n > 0 {
		sec.Notes = append(sec.Notes, "Promedio: "+percent(sum/float64(n)))
	}
	return sec
}

func (d *dataset) averageGrade(courseID, studentID string) (avg float64, count int) {
	var sum float64
	for _, s := range d.submissions {
		a, ok := d.assignByID[s.AssignmentID]
		if !ok || a.CourseID != courseID || s.StudentID != studentID || !d.inRange(s.SubmittedAt) {
			continue
		}
		if pct, ok := s.Percentage(a); ok {
			sum += pct
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}

func (d *dataset) performanceSection() Section {
	sec := Section{
		Title:   "Rendimiento académico",
		Columns: []string{"Curso", "Estudiante", "Promedio", "Asistencia", "Tareas calificadas"},
	}
	gradeFiltered := d.filters.MinGrade != nil || d.filters.MaxGrade != nil
	for _, c := range d.scopedCourses() {
		for _, sid := range d.courseStudents(c) {
			avg, graded := d.averageGrade(c.ID, sid)
			if gradeFiltered && (graded == 0 || !d.gradeInBounds(avg)) {
				continue
			}
			rate, _, _, hasRecords := d.attendanceRate(c.ID, sid)
			if min := d.filters.MinAttendance; min != nil && (!hasRecords || rate < *min) {
				continue
			}
			avgCell, rateCell := "-", "-"
			if graded > 0 {
				avgCell = percent(avg)
			}
			if hasRecords {
				rateCell = percent(rate)
			}
			sec.AddRow(c.Code, d.studentName(sid), avgCell, rateCell, strconv.Itoa(graded))
		}
	}
	return sec
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateFmt)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortRows(rows [][]string, col int) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i][col] < rows[j][col] })
}
