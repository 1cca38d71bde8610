package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Type string

const (
	TypeAttendance  Type = "attendance"
	TypeGrades      Type = "grades"
	TypeTeachers    Type = "teachers"
	TypeStudents    Type = "students"
	TypeAssignments Type = "assignments"
	TypePerformance Type = "performance"
	TypeGeneral     Type = "general"
	TypeComplete    Type = "complete"
)

var Types = []Type{
	TypeAttendance,
	TypeGrades,
	TypeTeachers,
	TypeStudents,
	TypeAssignments,
	TypePerformance,
	TypeGeneral,
	TypeComplete,
}

var typeTitles = map[Type]string{
	TypeAttendance:  "Reporte de asistencia",
	TypeGrades:      "Reporte de calificaciones",
	TypeTeachers:    "Reporte de profesores",
	TypeStudents:    "Reporte de estudiantes",
	TypeAssignments: "Reporte de tareas",
	TypePerformance: "Reporte de rendimiento académico",
	TypeGeneral:     "Reporte general",
	TypeComplete:    "Reporte completo",
}

func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	_, ok := typeTitles[t]
	return t, ok
}

func (t Type) Title() string {
	if title, ok := typeTitles[t]; ok {
		return title
	}
	return typeTitles[TypeGeneral]
}

// Filters narrows the data of a report. Every field is optional.
type Filters struct {
	CourseCode    string   `json:"courseCode,omitempty"`
	CourseName    string   `json:"courseName,omitempty"`
	StudentID     string   `json:"studentId,omitempty"`
	StudentName   string   `json:"studentName,omitempty"`
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	MinAttendance *float64 `json:"minAttendance,omitempty"`
	MinGrade      *float64 `json:"minGrade,omitempty"`
	MaxGrade      *float64 `json:"maxGrade,omitempty"`
}

func (f Filters) IsEmpty() bool {
	return f.CourseCode == "" && f.CourseName == "" && f.StudentID == "" && f.StudentName == "" &&
		f.StartDate == "" && f.EndDate == "" && f.MinAttendance == nil && f.MinGrade == nil && f.MaxGrade == nil
}

// Range returns the parsed date range; unparsable or missing bounds are zero.
// The end bound covers its whole day.
func (f Filters) Range() (from, to time.Time) {
	from, _ = ParseDate(f.StartDate)
	if to, _ = ParseDate(f.EndDate); !to.IsZero() {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to
}

// Describe lists the active filters in human-readable form.
func (f Filters) Describe() []string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	addNum := func(label string, value *float64) {
		if value != nil {
			lines = append(lines, label+": "+FormatNumber(*value))
		}
	}
	add("Código del curso", f.CourseCode)
	add("Nombre del curso", f.CourseName)
	add("ID del estudiante", f.StudentID)
	add("Nombre del estudiante", f.StudentName)
	add("Desde", f.StartDate)
	add("Hasta", f.EndDate)
	addNum("Asistencia mínima (%)", f.MinAttendance)
	addNum("Calificación mínima (%)", f.MinGrade)
	addNum("Calificación máxima (%)", f.MaxGrade)
	return lines
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02/01/06",
	"2/1/06",
	"02-01-06",
	"2-1-06",
	"02.01.2006",
}

// ParseDate parses day-first dates (DD/MM/YYYY, DD-MM-YYYY, two-digit years) and ISO dates.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a number such as "80", "80%" or "7,5".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	s = strings.Replace(s, ",", ".", 1)
	n, err := strconv.ParseFloat(s, 64)
	return n, err == nil
}

func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func percent(n float64) string {
	return fmt.Sprintf("%.1f%%", n)
}

// Document is the renderer-independent content of a report.
type Document struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Filters     []string
	Sections    []Section
}

type Section struct {
	Title   string
	Columns []string
	Rows    [][]string
	// Notes are rendered as paragraphs below the table.
	Notes []string
}

func (s *Section) AddRow(cells ...string) {
	s.Rows = append(s.Rows, cells)
}

// Result is the handle of a generated report file.
type Result struct {
	Type        Type   `json:"reportType"`
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
}
