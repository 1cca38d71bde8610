package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/core/user"
)

type schoolApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, svc *school.Service, validate *validator.Validate) {
	api := schoolApi{svc: svc, validate: validate}
	staff := kindMiddleware(auth, user.KindAdmin, user.KindTeacher)

	sg := g.Group("/students", jwt)
	sg.POST("", api.createStudent, adminMiddleware(auth))
	sg.GET("", api.queryStudents, staff)

	tg := g.Group("/teachers", jwt)
	tg.POST("", api.createTeacher, adminMiddleware(auth))
	tg.GET("", api.queryTeachers, adminMiddleware(auth))

	cg := g.Group("/courses", jwt)
	cg.POST("", api.createCourse, adminMiddleware(auth))
	cg.GET("", api.queryCourses)
	cg.GET("/:id", api.retrieveCourse)
	cg.DELETE("/:id", api.destroyCourse, adminMiddleware(auth))
	cg.POST("/:id/students", api.enrollStudents, adminMiddleware(auth))

	bg := g.Group("/blocks", jwt)
	bg.POST("", api.createBlock, adminMiddleware(auth))
	bg.GET("", api.queryBlocks)
}

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	students, err := api.svc.QueryStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []school.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) createTeacher(ctx echo.Context) error {
	var data school.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tch, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, tch)
}

func (api *schoolApi) queryTeachers(ctx echo.Context) error {
	teachers, err := api.svc.QueryTeachers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []school.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *schoolApi) createCourse(ctx echo.Context) error {
	var data school.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *schoolApi) queryCourses(ctx echo.Context) error {
	query := new(school.CourseQuery)
	if err := ctx.Bind(query); err != nil {
		return ctx.JSON(http.StatusOK, []school.Course{})
	}

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), query)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []school.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *schoolApi) retrieveCourse(ctx echo.Context) error {
	c, err := api.svc.FindCourse(ctx.Request().Context(), ctx.Param("id"))
	if err == school.ErrCourseNotFound {
		return errHttpNotFound
	} else if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) destroyCourse(ctx echo.Context) error {
	c, err := api.svc.FindCourse(ctx.Request().Context(), ctx.Param("id"))
	if err == school.ErrCourseNotFound {
		return errHttpNotFound
	} else if err != nil {
		return errors.Wrap(err, "finding course")
	}

	if err := api.svc.DeleteCourse(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) enrollStudents(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	c, err := api.svc.EnrollStudents(ctx.Request().Context(), ctx.Param("id"), data.StudentIDs...)
	if err == school.ErrCourseNotFound {
		return errHttpNotFound
	} else if err != nil {
		return errors.Wrap(err, "enrolling students")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) createBlock(ctx echo.Context) error {
	var data school.NewBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBlock")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	blk, err := api.svc.CreateBlock(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating block")
	}
	return ctx.JSON(http.StatusCreated, blk)
}

func (api *schoolApi) queryBlocks(ctx echo.Context) error {
	blocks, err := api.svc.QueryBlocks(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying blocks")
	}
	if blocks == nil {
		blocks = []school.Block{}
	}
	return ctx.JSON(http.StatusOK, blocks)
}

type EnrollRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1"`
}
