package assistant

import (
	"encoding/json"
	"strings"
)

// Field names an extracted entity.
type Field string

const (
	FieldName           Field = "name"
	FieldEmail          Field = "email"
	FieldPassword       Field = "password"
	FieldRole           Field = "role"
	FieldStudentID      Field = "studentId"
	FieldTeacherID      Field = "teacherId"
	FieldGrade          Field = "grade"
	FieldDepartment     Field = "department"
	FieldSpecialization Field = "specialization"
	FieldQualification  Field = "qualification"
	FieldBlock          Field = "block"
	FieldDateOfBirth    Field = "dateOfBirth"
	FieldAddress        Field = "address"
	FieldPhoneNumber    Field = "phoneNumber"
	FieldParentName     Field = "parentName"
	FieldParentContact  Field = "parentContact"

	FieldCourseCode  Field = "courseCode"
	FieldCourseName  Field = "courseName"
	FieldDescription Field = "description"
	FieldTeacherName Field = "teacherName"
	FieldStartDate   Field = "startDate"
	FieldEndDate     Field = "endDate"
	FieldSchedule    Field = "schedule"

	FieldReportType    Field = "reportType"
	FieldStudentName   Field = "studentName"
	FieldMinAttendance Field = "minAttendance"
	FieldMinGrade      Field = "minGrade"
	FieldMaxGrade      Field = "maxGrade"

	// flags
	FieldDownloadRequested     Field = "downloadRequested"
	FieldAllFieldsProvided     Field = "allFieldsProvided"
	FieldUserCreationCompleted Field = "userCreationCompleted"
)

var flagFields = map[Field]bool{
	FieldDownloadRequested:     true,
	FieldAllFieldsProvided:     true,
	FieldUserCreationCompleted: true,
}

// identifyingFields are the fields worth checkpointing on their own.
var identifyingFields = []Field{FieldName, FieldEmail, FieldRole}

const flagOn = "true"

// Entities is the attribute bag extracted from messages. Absent fields are not in the map.
type Entities map[Field]string

func (e Entities) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

func (e Entities) HasAny(fields ...Field) bool {
	for _, f := range fields {
		if e.Has(f) {
			return true
		}
	}
	return false
}

func (e Entities) Get(f Field) string {
	return e[f]
}

// Set stores the cleaned value of f. A value that is empty once cleaned removes the field.
func (e Entities) Set(f Field, value string) {
	if value = cleanValue(value); value == "" {
		delete(e, f)
		return
	}
	e[f] = value
}

func (e Entities) Flag(f Field) bool {
	return e[f] == flagOn
}

func (e Entities) SetFlag(f Field, on bool) {
	if on {
		e[f] = flagOn
	} else {
		delete(e, f)
	}
}

func (e Entities) Clone() Entities {
	c := make(Entities, len(e))
	for k, v := range e {
		c[k] = v
	}
	return c
}

// Merge returns a copy of e overridden field by field by newer.
func (e Entities) Merge(newer Entities) Entities {
	merged := e.Clone()
	for k, v := range newer {
		merged[k] = v
	}
	return merged
}

// Without returns a copy of e without the given fields.
func (e Entities) Without(fields ...Field) Entities {
	c := e.Clone()
	for _, f := range fields {
		delete(c, f)
	}
	return c
}

// MarshalJSON encodes flags as booleans.
func (e Entities) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(e))
	for k, v := range e {
		if flagFields[k] {
			m[string(k)] = v == flagOn
		} else {
			m[string(k)] = v
		}
	}
	return json.Marshal(m)
}

func cleanValue(v string) string {
	v = placeholderRe.ReplaceAllString(v, "")
	v = strings.Join(strings.Fields(v), " ")
	return strings.TrimSpace(strings.TrimRight(v, ".,;:"))
}
