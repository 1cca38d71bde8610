package school

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/trezcool/edutrack/core"
)

var (
	// errors
	ErrStudentNotFound  = errors.New("estudiante no encontrado")
	ErrTeacherNotFound  = errors.New("profesor no encontrado")
	ErrCourseNotFound   = errors.New("curso no encontrado")
	ErrBlockNotFound    = errors.New("bloque no encontrado")
	ErrProfileExists    = errors.New("el usuario ya tiene un perfil para este rol")
	ErrStudentIDExists  = errors.New("ya existe un estudiante con este ID")
	ErrTeacherIDExists  = errors.New("ya existe un profesor con este ID")
	ErrCourseCodeExists = errors.New("ya existe un curso con este código")
	ErrBlockExists      = errors.New("ya existe un bloque con este nombre")

	NowFunc = time.Now // mockable
)

type (
	StudentRepository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudent(ctx context.Context, filter StudentFilter) (Student, error)
		QueryStudents(ctx context.Context) ([]Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	TeacherRepository interface {
		CreateTeacher(ctx context.Context, tch Teacher) (Teacher, error)
		GetTeacher(ctx context.Context, filter TeacherFilter) (Teacher, error)
		QueryTeachers(ctx context.Context) ([]Teacher, error)
		DeleteTeacher(ctx context.Context, id string) error
	}

	CourseRepository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, filter CourseFilter) (Course, error)
		QueryCourses(ctx context.Context, query *CourseQuery) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	BlockRepository interface {
		CreateBlock(ctx context.Context, b Block) (Block, error)
		// GetBlock finds a block by ID or, failing that, by name (case-insensitive).
		GetBlock(ctx context.Context, ref string) (Block, error)
		QueryBlocks(ctx context.Context) ([]Block, error)
		UpdateBlock(ctx context.Context, b Block) (Block, error)
	}

	Repository interface {
		StudentRepository
		TeacherRepository
		CourseRepository
		BlockRepository
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Students

// CreateStudent creates the student profile of a user. A student ID is generated when none is provided.
func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if _, err := svc.repo.GetStudent(ctx, StudentFilter{UserID: ns.UserID}); err == nil {
		return Student{}, core.NewFieldError(ErrProfileExists, "user_id")
	} else if err != ErrStudentNotFound {
		return Student{}, err
	}

	sid := ns.StudentID
	if sid == "" {
		var err error
		if sid, err = svc.newCode(ctx, "EST", func(code string) bool {
			_, err := svc.repo.GetStudent(ctx, StudentFilter{StudentID: code})
			return err == nil
		}); err != nil {
			return Student{}, err
		}
	}

	st, err := svc.repo.CreateStudent(ctx, Student{
		UserID:        ns.UserID,
		StudentID:     sid,
		Grade:         ns.Grade,
		Block:         ns.Block,
		DateOfBirth:   ns.DateOfBirth,
		Address:       ns.Address,
		PhoneNumber:   ns.PhoneNumber,
		ParentName:    ns.ParentName,
		ParentContact: ns.ParentContact,
		CreatedAt:     NowFunc().UTC(),
	})
	if err == ErrStudentIDExists {
		return Student{}, core.NewFieldError(err, "student_id")
	}
	if err != nil {
		return Student{}, err
	}

	if ns.Block != "" {
		if err := svc.addToBlock(ctx, ns.Block, st.ID); err != nil && err != ErrBlockNotFound {
			return st, err
		}
	}
	return st, nil
}

func (svc *Service) GetStudent(ctx context.Context, filter StudentFilter) (Student, error) {
	return svc.repo.GetStudent(ctx, filter)
}

// FindStudent resolves a student by profile ID or student ID.
func (svc *Service) FindStudent(ctx context.Context, ref string) (Student, error) {
	if st, err := svc.repo.GetStudent(ctx, StudentFilter{ID: ref}); err != ErrStudentNotFound {
		return st, err
	}
	return svc.repo.GetStudent(ctx, StudentFilter{StudentID: strings.ToUpper(core.CleanString(ref))})
}

func (svc *Service) QueryStudents(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

func (svc *Service) DeleteStudent(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}

// Teachers

// CreateTeacher creates the teacher profile of a user. A teacher ID is generated when none is provided.
func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if _, err := svc.repo.GetTeacher(ctx, TeacherFilter{UserID: nt.UserID}); err == nil {
		return Teacher{}, core.NewFieldError(ErrProfileExists, "user_id")
	} else if err != ErrTeacherNotFound {
		return Teacher{}, err
	}

	tid := nt.TeacherID
	if tid == "" {
		var err error
		if tid, err = svc.newCode(ctx, "DOC", func(code string) bool {
			_, err := svc.repo.GetTeacher(ctx, TeacherFilter{TeacherID: code})
			return err == nil
		}); err != nil {
			return Teacher{}, err
		}
	}

	tch, err := svc.repo.CreateTeacher(ctx, Teacher{
		UserID:         nt.UserID,
		TeacherID:      tid,
		Department:     nt.Department,
		Specialization: nt.Specialization,
		Qualification:  nt.Qualification,
		PhoneNumber:    nt.PhoneNumber,
		Address:        nt.Address,
		CreatedAt:      NowFunc().UTC(),
	})
	if err == ErrTeacherIDExists {
		return Teacher{}, core.NewFieldError(err, "teacher_id")
	}
	return tch, err
}

func (svc *Service) GetTeacher(ctx context.Context, filter TeacherFilter) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, filter)
}

// FindTeacher resolves a teacher by profile ID or teacher ID.
func (svc *Service) FindTeacher(ctx context.Context, ref string) (Teacher, error) {
	if tch, err := svc.repo.GetTeacher(ctx, TeacherFilter{ID: ref}); err != ErrTeacherNotFound {
		return tch, err
	}
	return svc.repo.GetTeacher(ctx, TeacherFilter{TeacherID: strings.ToUpper(core.CleanString(ref))})
}

func (svc *Service) QueryTeachers(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx)
}

func (svc *Service) DeleteTeacher(ctx context.Context, id string) error {
	return svc.repo.DeleteTeacher(ctx, id)
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	if nc.TeacherID != "" {
		tch, err := svc.FindTeacher(ctx, nc.TeacherID)
		if err == ErrTeacherNotFound {
			return Course{}, core.NewFieldError(err, "teacher_id")
		} else if err != nil {
			return Course{}, err
		}
		nc.TeacherID = tch.ID
	}
	if nc.BlockID != "" {
		blk, err := svc.repo.GetBlock(ctx, nc.BlockID)
		if err == ErrBlockNotFound {
			return Course{}, core.NewFieldError(err, "block_id")
		} else if err != nil {
			return Course{}, err
		}
		nc.BlockID = blk.ID
	}

	now := NowFunc().UTC()
	c, err := svc.repo.CreateCourse(ctx, Course{
		Code:        nc.Code,
		Name:        nc.Name,
		Description: nc.Description,
		TeacherID:   nc.TeacherID,
		BlockID:     nc.BlockID,
		StartDate:   nc.StartDate,
		EndDate:     nc.EndDate,
		Schedule:    nc.Schedule,
		StudentIDs:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err == ErrCourseCodeExists {
		return Course{}, core.NewFieldError(err, "code")
	}
	return c, err
}

// FindCourse resolves a course by ID or code.
func (svc *Service) FindCourse(ctx context.Context, ref string) (Course, error) {
	if c, err := svc.repo.GetCourse(ctx, CourseFilter{ID: ref}); err != ErrCourseNotFound {
		return c, err
	}
	return svc.repo.GetCourse(ctx, CourseFilter{Code: strings.ToUpper(core.CleanString(ref))})
}

func (svc *Service) QueryCourses(ctx context.Context, query *CourseQuery) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, query)
}

// EnrollStudents adds students (profile or student IDs) to a course. Already enrolled students are skipped.
func (svc *Service) EnrollStudents(ctx context.Context, courseID string, studentRefs ...string) (Course, error) {
	c, err := svc.FindCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	for _, ref := range studentRefs {
		st, err := svc.FindStudent(ctx, ref)
		if err == ErrStudentNotFound {
			return Course{}, core.NewFieldError(fmt.Errorf("%v: %s", err, ref), "student_ids")
		} else if err != nil {
			return Course{}, err
		}
		if !c.HasStudent(st.ID) {
			c.StudentIDs = append(c.StudentIDs, st.ID)
		}
	}
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) DeleteCourse(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

// Blocks

func (svc *Service) CreateBlock(ctx context.Context, nb NewBlock) (Block, error) {
	blk, err := svc.repo.CreateBlock(ctx, Block{
		Name:        nb.Name,
		Year:        nb.Year,
		Description: nb.Description,
		StudentIDs:  []string{},
		CreatedAt:   NowFunc().UTC(),
	})
	if err == ErrBlockExists {
		return Block{}, core.NewFieldError(err, "name")
	}
	return blk, err
}

func (svc *Service) FindBlock(ctx context.Context, ref string) (Block, error) {
	return svc.repo.GetBlock(ctx, ref)
}

func (svc *Service) QueryBlocks(ctx context.Context) ([]Block, error) {
	return svc.repo.QueryBlocks(ctx)
}

func (svc *Service) addToBlock(ctx context.Context, ref, studentID string) error {
	blk, err := svc.repo.GetBlock(ctx, ref)
	if err != nil {
		return err
	}
	for _, id := range blk.StudentIDs {
		if id == studentID {
			return nil
		}
	}
	blk.StudentIDs = append(blk.StudentIDs, studentID)
	_, err = svc.repo.UpdateBlock(ctx, blk)
	return err
}

// newCode returns a free "<prefix>-NNNNNN" code.
func (svc *Service) newCode(ctx context.Context, prefix string, taken func(string) bool) (string, error) {
	for i := 0; i < 20; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			return "", err
		}
		code := fmt.Sprintf("%s-%06d", prefix, n.Int64())
		if !taken(code) {
			return code, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	return "", errors.New("could not generate a free code")
}
