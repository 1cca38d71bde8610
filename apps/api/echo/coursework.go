package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edutrack/core/coursework"
	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/core/user"
)

type courseworkApi struct {
	auth     *jwtAuth
	svc      *coursework.Service
	school   *school.Service
	validate *validator.Validate
}

func registerCourseworkAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *jwtAuth,
	svc *coursework.Service,
	schoolSvc *school.Service,
	validate *validator.Validate,
) {
	api := courseworkApi{auth: auth, svc: svc, school: schoolSvc, validate: validate}
	staff := kindMiddleware(auth, user.KindAdmin, user.KindTeacher)

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.createAssignment, staff)
	ag.GET("", api.queryAssignments)
	ag.POST("/:id/submissions", api.submit)
	ag.GET("/:id/submissions", api.querySubmissions, staff)

	g.POST("/submissions/:id/grade", api.grade, jwt, staff)
}

func (api *courseworkApi) createAssignment(ctx echo.Context) error {
	var data coursework.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	a, err := api.svc.CreateAssignment(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *courseworkApi) queryAssignments(ctx echo.Context) error {
	var courseID string
	if ref := ctx.QueryParam("course"); ref != "" {
		c, err := api.school.FindCourse(ctx.Request().Context(), ref)
		if err == school.ErrCourseNotFound {
			return ctx.JSON(http.StatusOK, []coursework.Assignment{})
		} else if err != nil {
			return errors.Wrap(err, "finding course")
		}
		courseID = c.ID
	}

	assignments, err := api.svc.QueryAssignments(ctx.Request().Context(), courseID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []coursework.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

// submit records a submission. Students always submit for their own profile.
func (api *courseworkApi) submit(ctx echo.Context) error {
	var data coursework.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}

	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.Kind == user.KindStudent {
		st, err := api.school.GetStudent(ctx.Request().Context(), school.StudentFilter{UserID: claims.Subject})
		if err == school.ErrStudentNotFound {
			return errHttpForbidden
		} else if err != nil {
			return errors.Wrap(err, "finding student profile")
		}
		data.StudentID = st.ID
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), data)
	if err == coursework.ErrAssignmentNotFound {
		return errHttpNotFound
	} else if err != nil {
		return errors.Wrap(err, "submitting")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *courseworkApi) querySubmissions(ctx echo.Context) error {
	query := &coursework.SubmissionQuery{
		AssignmentID: ctx.Param("id"),
		StudentID:    ctx.QueryParam("student"),
		Status:       coursework.Status(ctx.QueryParam("status")),
	}
	submissions, err := api.svc.QuerySubmissions(ctx.Request().Context(), query)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if submissions == nil {
		submissions = []coursework.Submission{}
	}
	return ctx.JSON(http.StatusOK, submissions)
}

func (api *courseworkApi) grade(ctx echo.Context) error {
	var data coursework.Grade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	s, err := api.svc.Grade(ctx.Request().Context(), ctx.Param("id"), data, claims.Subject)
	if err == coursework.ErrSubmissionNotFound {
		return errHttpNotFound
	} else if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, s)
}
