package docrepos

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/storage/database/docstore"
)

type schoolRepository struct {
	repo
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(store docstore.Store) school.Repository {
	return &schoolRepository{repo{store: store}}
}

// Students

func (r *schoolRepository) CreateStudent(ctx context.Context, st school.Student) (school.Student, error) {
	st.ID = newID()
	err := r.insert(ctx, studentsColl, st.ID, keysOf("user", st.UserID, "sid", st.StudentID), st)
	if err == docstore.ErrDuplicate {
		if _, err := r.GetStudent(ctx, school.StudentFilter{UserID: st.UserID}); err == nil {
			return school.Student{}, school.ErrProfileExists
		}
		return school.Student{}, school.ErrStudentIDExists
	}
	if err != nil {
		return school.Student{}, err
	}
	return st, nil
}

func (r *schoolRepository) GetStudent(ctx context.Context, filter school.StudentFilter) (school.Student, error) {
	var st school.Student
	var err error
	switch {
	case filter.ID != "":
		err = r.get(ctx, studentsColl, filter.ID, &st)
	case filter.UserID != "":
		err = r.getByKey(ctx, studentsColl, "user:"+filter.UserID, &st)
	case filter.StudentID != "":
		err = r.getByKey(ctx, studentsColl, "sid:"+filter.StudentID, &st)
	default:
		err = docstore.ErrNotFound
	}
	if err != nil {
		return school.Student{}, notFound(err, school.ErrStudentNotFound)
	}
	return st, nil
}

func (r *schoolRepository) QueryStudents(ctx context.Context) ([]school.Student, error) {
	students := make([]school.Student, 0)
	err := r.list(ctx, studentsColl,
		func() interface{} { return new(school.Student) },
		func(item interface{}) { students = append(students, *item.(*school.Student)) },
	)
	return students, err
}

func (r *schoolRepository) DeleteStudent(ctx context.Context, id string) error {
	return r.store.Delete(ctx, studentsColl, id)
}

// Teachers

func (r *schoolRepository) CreateTeacher(ctx context.Context, tch school.Teacher) (school.Teacher, error) {
	tch.ID = newID()
	err := r.insert(ctx, teachersColl, tch.ID, keysOf("user", tch.UserID, "tid", tch.TeacherID), tch)
	if err == docstore.ErrDuplicate {
		if _, err := r.GetTeacher(ctx, school.TeacherFilter{UserID: tch.UserID}); err == nil {
			return school.Teacher{}, school.ErrProfileExists
		}
		return school.Teacher{}, school.ErrTeacherIDExists
	}
	if err != nil {
		return school.Teacher{}, err
	}
	return tch, nil
}

func (r *schoolRepository) GetTeacher(ctx context.Context, filter school.TeacherFilter) (school.Teacher, error) {
	var tch school.Teacher
	var err error
	switch {
	case filter.ID != "":
		err = r.get(ctx, teachersColl, filter.ID, &tch)
	case filter.UserID != "":
		err = r.getByKey(ctx, teachersColl, "user:"+filter.UserID, &tch)
	case filter.TeacherID != "":
		err = r.getByKey(ctx, teachersColl, "tid:"+filter.TeacherID, &tch)
	default:
		err = docstore.ErrNotFound
	}
	if err != nil {
		return school.Teacher{}, notFound(err, school.ErrTeacherNotFound)
	}
	return tch, nil
}

func (r *schoolRepository) QueryTeachers(ctx context.Context) ([]school.Teacher, error) {
	teachers := make([]school.Teacher, 0)
	err := r.list(ctx, teachersColl,
		func() interface{} { return new(school.Teacher) },
		func(item interface{}) { teachers = append(teachers, *item.(*school.Teacher)) },
	)
	return teachers, err
}

func (r *schoolRepository) DeleteTeacher(ctx context.Context, id string) error {
	return r.store.Delete(ctx, teachersColl, id)
}

// Courses

func (r *schoolRepository) CreateCourse(ctx context.Context, c school.Course) (school.Course, error) {
	c.ID = newID()
	err := r.insert(ctx, coursesColl, c.ID, keysOf("code", c.Code), c)
	if err == docstore.ErrDuplicate {
		return school.Course{}, school.ErrCourseCodeExists
	}
	if err != nil {
		return school.Course{}, err
	}
	return c, nil
}

func (r *schoolRepository) GetCourse(ctx context.Context, filter school.CourseFilter) (school.Course, error) {
	var c school.Course
	var err error
	switch {
	case filter.ID != "":
		err = r.get(ctx, coursesColl, filter.ID, &c)
	case filter.Code != "":
		err = r.getByKey(ctx, coursesColl, "code:"+filter.Code, &c)
	default:
		err = docstore.ErrNotFound
	}
	if err != nil {
		return school.Course{}, notFound(err, school.ErrCourseNotFound)
	}
	return c, nil
}

func (r *schoolRepository) QueryCourses(ctx context.Context, query *school.CourseQuery) ([]school.Course, error) {
	courses := make([]school.Course, 0)
	err := r.list(ctx, coursesColl,
		func() interface{} { return new(school.Course) },
		func(item interface{}) {
			if c := *item.(*school.Course); query.Match(c) {
				courses = append(courses, c)
			}
		},
	)
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, err
}

func (r *schoolRepository) UpdateCourse(ctx context.Context, c school.Course) (school.Course, error) {
	switch err := r.update(ctx, coursesColl, c.ID, keysOf("code", c.Code), c); err {
	case nil:
		return c, nil
	case docstore.ErrNotFound:
		return school.Course{}, school.ErrCourseNotFound
	case docstore.ErrDuplicate:
		return school.Course{}, school.ErrCourseCodeExists
	default:
		return school.Course{}, err
	}
}

func (r *schoolRepository) DeleteCourse(ctx context.Context, id string) error {
	return r.store.Delete(ctx, coursesColl, id)
}

// Blocks

func blockKeys(b school.Block) []string {
	return keysOf("name", strings.ToLower(b.Name))
}

func (r *schoolRepository) CreateBlock(ctx context.Context, b school.Block) (school.Block, error) {
	b.ID = newID()
	err := r.insert(ctx, blocksColl, b.ID, blockKeys(b), b)
	if err == docstore.ErrDuplicate {
		return school.Block{}, school.ErrBlockExists
	}
	if err != nil {
		return school.Block{}, err
	}
	return b, nil
}

func (r *schoolRepository) GetBlock(ctx context.Context, ref string) (school.Block, error) {
	var b school.Block
	err := r.get(ctx, blocksColl, ref, &b)
	if err == docstore.ErrNotFound {
		err = r.getByKey(ctx, blocksColl, "name:"+strings.ToLower(strings.TrimSpace(ref)), &b)
	}
	if err != nil {
		return school.Block{}, notFound(err, school.ErrBlockNotFound)
	}
	return b, nil
}

func (r *schoolRepository) QueryBlocks(ctx context.Context) ([]school.Block, error) {
	blocks := make([]school.Block, 0)
	err := r.list(ctx, blocksColl,
		func() interface{} { return new(school.Block) },
		func(item interface{}) { blocks = append(blocks, *item.(*school.Block)) },
	)
	return blocks, err
}

func (r *schoolRepository) UpdateBlock(ctx context.Context, b school.Block) (school.Block, error) {
	switch err := r.update(ctx, blocksColl, b.ID, blockKeys(b), b); err {
	case nil:
		return b, nil
	case docstore.ErrNotFound:
		return school.Block{}, school.ErrBlockNotFound
	case docstore.ErrDuplicate:
		return school.Block{}, school.ErrBlockExists
	default:
		return school.Block{}, err
	}
}
