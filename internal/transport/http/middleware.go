package http

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/service"
	"github.com/rivaq/rivaq-backend/internal/util"
)

const (
	contextAccountKey = "auth.account"
	contextTokenKey   = "auth.token"
)

func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.TrimSpace(authHeader) == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("missing authorization header"))
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid authorization header"))
			}
			token := strings.TrimSpace(parts[1])
			account, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrSessionInvalid) {
					return c.JSON(http.StatusUnauthorized, util.Error(err.Error()))
				}
				return writeServiceError(c, err)
			}
			c.Set(contextAccountKey, account)
			c.Set(contextTokenKey, token)
			return next(c)
		}
	}
}

// RequirePermission must run after RequireAuth.
func RequirePermission(p domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, ok := CurrentAccount(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
			}
			if !account.HasPermission(p) {
				return c.JSON(http.StatusForbidden, util.Error("insufficient permissions"))
			}
			return next(c)
		}
	}
}

func CurrentAccount(c echo.Context) (*domain.Account, bool) {
	account, ok := c.Get(contextAccountKey).(*domain.Account)
	return account, ok && account != nil
}

func currentToken(c echo.Context) string {
	token, _ := c.Get(contextTokenKey).(string)
	return token
}

// RateLimitByIP answers 429 once a client address exceeds limit requests per
// window. A missing or failing limiter lets requests through.
func RateLimitByIP(limiter ports.RateLimiter, prefix string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil || limit <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			decision, err := limiter.Allow(ctx, prefix+c.RealIP(), limit, window)
			if err != nil {
				requestLogger(c).WarnContext(ctx, "rate limiter unavailable", slog.String("prefix", prefix), slog.Any("err", err))
				return next(c)
			}
			if !decision.Allowed {
				if decision.RetryAfter > 0 {
					seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
					c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				}
				return c.JSON(http.StatusTooManyRequests, util.Error("too many requests, try again later"))
			}
			return next(c)
		}
	}
}
