package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/attendance"
	"github.com/trezcool/edutrack/core/report"
	"github.com/trezcool/edutrack/core/user"
)

type attendanceApi struct {
	auth     *jwtAuth
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{auth: auth, svc: svc, validate: validate}

	ag := g.Group("/attendance", jwt, kindMiddleware(auth, user.KindAdmin, user.KindTeacher))
	ag.POST("", api.take)
	ag.GET("", api.query)
	ag.PUT("/:id", api.updateEntries)
}

func (api *attendanceApi) take(ctx echo.Context) error {
	var data attendance.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	a, err := api.svc.Take(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "taking attendance")
	}
	return ctx.JSON(http.StatusCreated, a)
}

// query filters by `course`, `student` and the `from`/`to` day range (DD/MM/YYYY or YYYY-MM-DD).
func (api *attendanceApi) query(ctx echo.Context) error {
	query := &attendance.Query{
		CourseID:  ctx.QueryParam("course"),
		StudentID: ctx.QueryParam("student"),
	}
	for _, p := range []struct {
		param string
		dst   *time.Time
	}{
		{"from", &query.From},
		{"to", &query.To},
	} {
		if v := ctx.QueryParam(p.param); v != "" {
			t, ok := report.ParseDate(v)
			if !ok {
				return core.NewValidationError(nil, core.FieldError{Field: p.param, Error: "fecha no válida"})
			}
			*p.dst = t
		}
	}

	records, err := api.svc.Query(ctx.Request().Context(), query)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) updateEntries(ctx echo.Context) error {
	var data UpdateEntriesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntriesRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	a, err := api.svc.UpdateEntries(ctx.Request().Context(), ctx.Param("id"), data.Entries)
	if err == attendance.ErrNotFound {
		return errHttpNotFound
	} else if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return ctx.JSON(http.StatusOK, a)
}

type UpdateEntriesRequest struct {
	Entries []attendance.Entry `json:"entries" validate:"required,min=1,dive"`
}
