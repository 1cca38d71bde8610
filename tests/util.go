// Package testutil wires the app services on top of the in-memory store for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/attendance"
	"github.com/trezcool/edutrack/core/coursework"
	"github.com/trezcool/edutrack/core/report"
	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/core/user"
	emailsvc "github.com/trezcool/edutrack/services/email"
	logsvc "github.com/trezcool/edutrack/services/logger"
	pdfsvc "github.com/trezcool/edutrack/services/pdf"
	"github.com/trezcool/edutrack/storage/database/docrepos"
	inmem "github.com/trezcool/edutrack/storage/database/inmem"
)

// Env holds the services of an app instance backed by a fresh in-memory store.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Store      *inmem.Store

	UserRepo   user.Repository
	SchoolRepo school.Repository

	Users      *user.Service
	School     *school.Service
	Coursework *coursework.Service
	Attendance *attendance.Service
	Reports    *report.Service
}

func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func NewEnv(t *testing.T) *Env {
	conf := core.NewTestConfig()
	conf.Reports.Dir = t.TempDir()

	logger := NewLogger(conf)
	user.LoadCommonPasswords(logger)
	validate, translator := NewValidator()

	store := inmem.NewStore()
	usrRepo := docrepos.NewUserRepository(store)
	schoolRepo := docrepos.NewSchoolRepository(store)

	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf, logger))
	schoolSvc := school.NewService(schoolRepo)
	cwSvc := coursework.NewService(docrepos.NewCourseworkRepository(store), schoolSvc)
	attSvc := attendance.NewService(docrepos.NewAttendanceRepository(store), schoolSvc)
	reportSvc := report.NewService(conf, usrSvc, schoolSvc, cwSvc, attSvc, pdfsvc.NewRenderer(conf.AppName), logger)

	return &Env{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Store:      store,
		UserRepo:   usrRepo,
		SchoolRepo: schoolRepo,
		Users:      usrSvc,
		School:     schoolSvc,
		Coursework: cwSvc,
		Attendance: attSvc,
		Reports:    reportSvc,
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateTeacher creates a teacher user with its profile.
func CreateTeacher(t *testing.T, env *Env, name, email string) (user.User, school.Teacher) {
	usr := CreateUser(t, env.UserRepo, name, "", email, "", []string{user.RoleTeacher}, true)
	tch, err := env.School.CreateTeacher(context.Background(), school.NewTeacher{UserID: usr.ID})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return usr, tch
}

// CreateStudent creates a student user with its profile.
func CreateStudent(t *testing.T, env *Env, name, email string) (user.User, school.Student) {
	usr := CreateUser(t, env.UserRepo, name, "", email, "", []string{user.RoleStudent}, true)
	st, err := env.School.CreateStudent(context.Background(), school.NewStudent{UserID: usr.ID})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return usr, st
}

func CreateCourse(t *testing.T, env *Env, code, name, teacherRef string, studentIDs ...string) school.Course {
	ctx := context.Background()
	c, err := env.School.CreateCourse(ctx, school.NewCourse{Code: code, Name: name, TeacherID: teacherRef})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	if len(studentIDs) > 0 {
		if c, err = env.School.EnrollStudents(ctx, c.ID, studentIDs...); err != nil {
			t.Fatalf("CreateCourse() failed: %v", err)
		}
	}
	return c
}
