package coursework

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edutrack/core"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusLate      Status = "late"
	StatusGraded    Status = "graded"
)

type Assignment struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"due_date"`
	TotalPoints float64   `json:"total_points"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Submission struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignment_id"`
	StudentID    string     `json:"student_id"` // school.Student.ID
	Content      string     `json:"content"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	Status       Status     `json:"status"`
	Points       *float64   `json:"points,omitempty"`
	Feedback     string     `json:"feedback,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`
	GradedBy     string     `json:"graded_by,omitempty"`
}

// Percentage returns the grade as a percentage of the assignment's total points.
func (s Submission) Percentage(a Assignment) (float64, bool) {
	if s.Points == nil || a.TotalPoints <= 0 {
		return 0, false
	}
	return *s.Points * 100 / a.TotalPoints, true
}

// StatusAt derives the status of a submission made at submittedAt for an assignment due at due.
// A zero due date never makes a submission late.
func StatusAt(submittedAt, due time.Time) Status {
	if !due.IsZero() && submittedAt.After(due) {
		return StatusLate
	}
	return StatusSubmitted
}

// ClampPoints caps awarded points at the assignment's total.
func ClampPoints(points, total float64) float64 {
	return math.Min(points, total)
}

type NewAssignment struct {
	CourseID    string    `json:"course_id" validate:"required"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	TotalPoints float64   `json:"total_points" validate:"gt=0"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

type NewSubmission struct {
	StudentID string `json:"student_id" validate:"required"`
	Content   string `json:"content" validate:"required"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Content = core.CleanString(ns.Content)
	return validate.Struct(ns)
}

type Grade struct {
	Points   float64 `json:"points" validate:"gte=0"`
	Feedback string  `json:"feedback"`
}

func (g *Grade) Validate(validate *validator.Validate) error {
	g.Feedback = core.CleanString(g.Feedback)
	return validate.Struct(g)
}

// SubmissionFilter selects a single submission: by ID, or by (AssignmentID, StudentID).
type SubmissionFilter struct {
	ID           string
	AssignmentID string
	StudentID    string
}

type SubmissionQuery struct {
	AssignmentID string
	StudentID    string
	Status       Status
}

func (q *SubmissionQuery) Match(s Submission) bool {
	if q == nil {
		return true
	}
	return (q.AssignmentID == "" || s.AssignmentID == q.AssignmentID) &&
		(q.StudentID == "" || s.StudentID == q.StudentID) &&
		(q.Status == "" || s.Status == q.Status)
}
