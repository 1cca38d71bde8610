package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"

	"github.com/trezcool/edutrack/core/assistant"
)

type chatApi struct {
	auth      *jwtAuth
	assistant *assistant.Service
}

func registerChatAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *jwtAuth, svc *assistant.Service, lmt *limiter.Limiter) {
	api := chatApi{auth: auth, assistant: svc}
	g.POST("/chat", api.message, jwt, rateLimitMiddleware(auth, lmt))
}

// message forwards a chat message to the assistant. The conversation is keyed by the caller's user ID.
func (api *chatApi) message(ctx echo.Context) error {
	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}

	claims, err := api.auth.contextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	resp := api.assistant.ProcessChatMessage(ctx.Request().Context(), data.Message, claims.Subject, claims.Kind)
	return ctx.JSON(http.StatusOK, resp)
}

type ChatRequest struct {
	Message string `json:"message"`
}
