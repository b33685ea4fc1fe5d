package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rivaq/rivaq-backend/internal/util"
)

const healthTimeout = 2 * time.Second

type RouterOptions struct {
	AllowOrigins []string
	Logger       *slog.Logger
	// BodyLimit caps request bodies, in echo notation such as "6M".
	BodyLimit string
	// HealthCheck reports whether backing storage is reachable. Nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

func NewRouter(opts RouterOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	allowCredentials := true
	for _, origin := range opts.AllowOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	e.Use(middleware.RequestID())
	registerLogging(e, opts.Logger, opts.BodyLimit)

	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderOrigin,
			echo.HeaderXRequestedWith,
		},
		ExposeHeaders:    []string{echo.HeaderXRequestID, "Retry-After"},
		AllowCredentials: allowCredentials,
	}))

	e.GET("/health", func(c echo.Context) error {
		if opts.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
			defer cancel()
			if err := opts.HealthCheck(ctx); err != nil {
				requestLogger(c).WarnContext(ctx, "health check failed", slog.Any("err", err))
				return c.JSON(http.StatusServiceUnavailable, util.Envelope{"ok": false, "database": "unreachable"})
			}
		}
		return c.JSON(http.StatusOK, util.Envelope{"ok": true})
	})
	return e
}
