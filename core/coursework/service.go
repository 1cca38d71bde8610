package coursework

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/school"
)

var (
	// errors
	ErrAssignmentNotFound = errors.New("tarea no encontrada")
	ErrSubmissionNotFound = errors.New("entrega no encontrada")
	ErrAlreadyGraded      = errors.New("la entrega ya fue calificada")
	ErrNotEnrolled        = errors.New("el estudiante no está inscrito en el curso")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// QueryAssignments returns the assignments of a course, or all of them when courseID is empty.
		QueryAssignments(ctx context.Context, courseID string) ([]Assignment, error)
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmission(ctx context.Context, filter SubmissionFilter) (Submission, error)
		QuerySubmissions(ctx context.Context, query *SubmissionQuery) ([]Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
	}

	// CourseFinder resolves courses & students; implemented by school.Service.
	CourseFinder interface {
		FindCourse(ctx context.Context, ref string) (school.Course, error)
		FindStudent(ctx context.Context, ref string) (school.Student, error)
	}

	Service struct {
		repo    Repository
		courses CourseFinder
	}
)

func NewService(repo Repository, courses CourseFinder) *Service {
	return &Service{repo: repo, courses: courses}
}

func (svc *Service) CreateAssignment(ctx context.Context, na NewAssignment, createdBy string) (Assignment, error) {
	c, err := svc.courses.FindCourse(ctx, na.CourseID)
	if err == school.ErrCourseNotFound {
		return Assignment{}, core.NewFieldError(err, "course_id")
	} else if err != nil {
		return Assignment{}, err
	}
	return svc.repo.CreateAssignment(ctx, Assignment{
		CourseID:    c.ID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate.UTC(),
		TotalPoints: na.TotalPoints,
		CreatedBy:   createdBy,
		CreatedAt:   NowFunc().UTC(),
	})
}

func (svc *Service) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *Service) QueryAssignments(ctx context.Context, courseID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, courseID)
}

// Submit records a student's submission. Re-submitting before grading replaces the content and
// re-derives the status from the new submission time; graded submissions are frozen.
func (svc *Service) Submit(ctx context.Context, assignmentID string, ns NewSubmission) (Submission, error) {
	a, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	st, err := svc.courses.FindStudent(ctx, ns.StudentID)
	if err == school.ErrStudentNotFound {
		return Submission{}, core.NewFieldError(err, "student_id")
	} else if err != nil {
		return Submission{}, err
	}
	c, err := svc.courses.FindCourse(ctx, a.CourseID)
	if err != nil {
		return Submission{}, err
	}
	if !c.HasStudent(st.ID) {
		return Submission{}, core.NewFieldError(ErrNotEnrolled, "student_id")
	}

	now := NowFunc().UTC()
	prev, err := svc.repo.GetSubmission(ctx, SubmissionFilter{AssignmentID: a.ID, StudentID: st.ID})
	switch err {
	case nil:
		if prev.Status == StatusGraded {
			return Submission{}, core.NewValidationError(ErrAlreadyGraded)
		}
		prev.Content = ns.Content
		prev.SubmittedAt = now
		prev.Status = StatusAt(now, a.DueDate)
		return svc.repo.UpdateSubmission(ctx, prev)
	case ErrSubmissionNotFound:
		return svc.repo.CreateSubmission(ctx, Submission{
			AssignmentID: a.ID,
			StudentID:    st.ID,
			Content:      ns.Content,
			SubmittedAt:  now,
			Status:       StatusAt(now, a.DueDate),
		})
	default:
		return Submission{}, err
	}
}

// Grade awards points to a submission; points above the assignment's total are clamped.
func (svc *Service) Grade(ctx context.Context, submissionID string, g Grade, gradedBy string) (Submission, error) {
	s, err := svc.repo.GetSubmission(ctx, SubmissionFilter{ID: submissionID})
	if err != nil {
		return Submission{}, err
	}
	a, err := svc.repo.GetAssignment(ctx, s.AssignmentID)
	if err != nil {
		return Submission{}, err
	}

	points := ClampPoints(g.Points, a.TotalPoints)
	now := NowFunc().UTC()
	s.Points = &points
	s.Feedback = g.Feedback
	s.Status = StatusGraded
	s.GradedAt = &now
	s.GradedBy = gradedBy
	return svc.repo.UpdateSubmission(ctx, s)
}

func (svc *Service) QuerySubmissions(ctx context.Context, query *SubmissionQuery) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, query)
}
