package school

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edutrack/core"
)

// Student is the student profile attached to a user.User.
type Student struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	StudentID     string    `json:"student_id"`
	Grade         string    `json:"grade,omitempty"`
	Block         string    `json:"block,omitempty"`
	DateOfBirth   string    `json:"date_of_birth,omitempty"`
	Address       string    `json:"address,omitempty"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	ParentName    string    `json:"parent_name,omitempty"`
	ParentContact string    `json:"parent_contact,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Teacher is the teacher profile attached to a user.User.
type Teacher struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	TeacherID      string    `json:"teacher_id"`
	Department     string    `json:"department,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Qualification  string    `json:"qualification,omitempty"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	Address        string    `json:"address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Course struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TeacherID   string    `json:"teacher_id,omitempty"` // Teacher.ID
	BlockID     string    `json:"block_id,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Schedule    string    `json:"schedule,omitempty"`
	StudentIDs  []string  `json:"student_ids"` // Student.ID
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Course) HasStudent(id string) bool {
	for _, sid := range c.StudentIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// Block is a cohort of students.
type Block struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year,omitempty"`
	Description string    `json:"description,omitempty"`
	StudentIDs  []string  `json:"student_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewStudent struct {
	UserID        string `json:"user_id" validate:"required"`
	StudentID     string `json:"student_id" validate:"omitempty,max=32"`
	Grade         string `json:"grade"`
	Block         string `json:"block"`
	DateOfBirth   string `json:"date_of_birth"`
	Address       string `json:"address"`
	PhoneNumber   string `json:"phone_number" validate:"omitempty,max=32"`
	ParentName    string `json:"parent_name"`
	ParentContact string `json:"parent_contact"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.StudentID = strings.ToUpper(core.CleanString(ns.StudentID))
	ns.Grade = core.CleanString(ns.Grade)
	ns.Block = core.CleanString(ns.Block)
	ns.PhoneNumber = core.CleanString(ns.PhoneNumber)
	return validate.Struct(ns)
}

type NewTeacher struct {
	UserID         string `json:"user_id" validate:"required"`
	TeacherID      string `json:"teacher_id" validate:"omitempty,max=32"`
	Department     string `json:"department"`
	Specialization string `json:"specialization"`
	Qualification  string `json:"qualification"`
	PhoneNumber    string `json:"phone_number" validate:"omitempty,max=32"`
	Address        string `json:"address"`
}

func (nt *NewTeacher) Validate(validate *validator.Validate) error {
	nt.TeacherID = strings.ToUpper(core.CleanString(nt.TeacherID))
	nt.Department = core.CleanString(nt.Department)
	nt.PhoneNumber = core.CleanString(nt.PhoneNumber)
	return validate.Struct(nt)
}

type NewCourse struct {
	Code        string    `json:"code" validate:"required,coursecode"`
	Name        string    `json:"name" validate:"required,max=128"`
	Description string    `json:"description"`
	TeacherID   string    `json:"teacher_id"`
	BlockID     string    `json:"block_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date" validate:"omitempty,gtefield=StartDate"`
	Schedule    string    `json:"schedule"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.Schedule = core.CleanString(nc.Schedule)
	return validate.Struct(nc)
}

type NewBlock struct {
	Name        string `json:"name" validate:"required,max=64"`
	Year        int    `json:"year" validate:"omitempty,min=1900,max=3000"`
	Description string `json:"description"`
}

func (nb *NewBlock) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	nb.Description = core.CleanString(nb.Description)
	return validate.Struct(nb)
}

// StudentFilter selects a single student; the first non-empty field wins.
type StudentFilter struct {
	ID        string
	UserID    string
	StudentID string
}

// TeacherFilter selects a single teacher; the first non-empty field wins.
type TeacherFilter struct {
	ID        string
	UserID    string
	TeacherID string
}

// CourseFilter selects a single course; the first non-empty field wins.
type CourseFilter struct {
	ID   string
	Code string
}

type CourseQuery struct {
	Search    string `query:"search"`
	TeacherID string `query:"teacher"`
	StudentID string `query:"student"`
	BlockID   string `query:"block"`
}

// Match reports whether c satisfies every set field of the query.
func (q *CourseQuery) Match(c Course) bool {
	if q == nil {
		return true
	}
	if s := strings.ToLower(core.CleanString(q.Search)); s != "" {
		if !(strings.Contains(strings.ToLower(c.Name), s) || strings.Contains(strings.ToLower(c.Code), s)) {
			return false
		}
	}
	if q.TeacherID != "" && c.TeacherID != q.TeacherID {
		return false
	}
	if q.BlockID != "" && c.BlockID != q.BlockID {
		return false
	}
	if q.StudentID != "" && !c.HasStudent(q.StudentID) {
		return false
	}
	return true
}
