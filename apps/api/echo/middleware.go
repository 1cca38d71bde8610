package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/trezcool/edutrack/core"
)

func adminMiddleware(auth *jwtAuth, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := auth.contextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && auth.contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// kindMiddleware lets through users whose coarse role is one of kinds.
func kindMiddleware(auth *jwtAuth, kinds ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := auth.contextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, kind := range kinds {
				if claims.Kind == kind {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func newChatLimiter(conf *core.Config) *limiter.Limiter {
	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(conf.Server.ChatRequestsPerMinute),
	}
	return limiter.New(memory.NewStore(), rate)
}

// rateLimitMiddleware limits requests per authenticated user, or per IP for anonymous requests.
func rateLimitMiddleware(auth *jwtAuth, lmt *limiter.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			key := "ip:" + ctx.RealIP()
			if claims, err := auth.contextClaims(ctx); err == nil {
				key = "user:" + claims.Subject
			}

			lctx, err := lmt.Get(ctx.Request().Context(), key)
			if err != nil {
				return errors.Wrap(err, "checking rate limit")
			}

			h := ctx.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}
