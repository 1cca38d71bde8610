package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/report"
	"github.com/trezcool/edutrack/core/user"
)

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, svc *report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt, kindMiddleware(auth, user.KindAdmin, user.KindTeacher))
	rg.POST("", api.generate)
	rg.GET("/download/:file", api.download)
}

func (api *reportApi) generate(ctx echo.Context) error {
	var data GenerateReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateReportRequest")
	}

	typ := report.TypeGeneral
	if data.ReportType != "" {
		var ok bool
		if typ, ok = report.ParseType(data.ReportType); !ok {
			return core.NewValidationError(nil, core.FieldError{Field: "report_type", Error: report.ErrUnknownType.Error()})
		}
	}

	res, err := api.svc.Generate(ctx.Request().Context(), typ, data.Filters)
	if err != nil {
		return errors.Wrap(err, "generating report")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *reportApi) download(ctx echo.Context) error {
	p, err := api.svc.Path(ctx.Param("file"))
	if err == report.ErrNotFound {
		return errHttpNotFound
	} else if err != nil {
		return errors.Wrap(err, "locating report")
	}
	return ctx.Attachment(p, ctx.Param("file"))
}

type GenerateReportRequest struct {
	ReportType string         `json:"report_type"`
	Filters    report.Filters `json:"filters"`
}
