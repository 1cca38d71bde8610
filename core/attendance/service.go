package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/school"
)

var (
	// errors
	ErrNotFound = errors.New("registro de asistencia no encontrado")
	ErrExists   = errors.New("ya existe un registro de asistencia para este curso en esta fecha")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateAttendance fails with ErrExists when a record with the same Key exists.
		CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		GetAttendance(ctx context.Context, id string) (Attendance, error)
		QueryAttendance(ctx context.Context, query *Query) ([]Attendance, error)
		UpdateAttendance(ctx context.Context, a Attendance) (Attendance, error)
	}

	// CourseFinder resolves courses; implemented by school.Service.
	CourseFinder interface {
		FindCourse(ctx context.Context, ref string) (school.Course, error)
	}

	Service struct {
		repo    Repository
		courses CourseFinder
	}
)

func NewService(repo Repository, courses CourseFinder) *Service {
	return &Service{repo: repo, courses: courses}
}

// Take records the attendance of a course for a day. Every listed student must be enrolled.
func (svc *Service) Take(ctx context.Context, na NewAttendance, takenBy string) (Attendance, error) {
	c, err := svc.courses.FindCourse(ctx, na.CourseID)
	if err == school.ErrCourseNotFound {
		return Attendance{}, core.NewFieldError(err, "course_id")
	} else if err != nil {
		return Attendance{}, err
	}
	if err := checkEnrolled(c, na.Entries); err != nil {
		return Attendance{}, err
	}

	a, err := svc.repo.CreateAttendance(ctx, Attendance{
		CourseID:  c.ID,
		Date:      Day(na.Date),
		Entries:   na.Entries,
		TakenBy:   takenBy,
		CreatedAt: NowFunc().UTC(),
	})
	if err == ErrExists {
		return Attendance{}, core.NewFieldError(err, "date")
	}
	return a, err
}

// UpdateEntries replaces the entries of an existing record; the (course, day) pair never changes.
func (svc *Service) UpdateEntries(ctx context.Context, id string, entries []Entry) (Attendance, error) {
	a, err := svc.repo.GetAttendance(ctx, id)
	if err != nil {
		return Attendance{}, err
	}
	c, err := svc.courses.FindCourse(ctx, a.CourseID)
	if err != nil {
		return Attendance{}, err
	}
	if err := checkEnrolled(c, entries); err != nil {
		return Attendance{}, err
	}
	a.Entries = entries
	return svc.repo.UpdateAttendance(ctx, a)
}

func (svc *Service) Query(ctx context.Context, query *Query) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, query)
}

func checkEnrolled(c school.Course, entries []Entry) error {
	for _, e := range entries {
		if !c.HasStudent(e.StudentID) {
			return core.NewFieldError(fmt.Errorf("el estudiante %s no está inscrito en %s", e.StudentID, c.Code), "entries")
		}
	}
	return nil
}
