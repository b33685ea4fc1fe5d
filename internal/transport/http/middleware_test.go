package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rivaq/rivaq-backend/internal/domain"
)

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequirePermission(t *testing.T) {
	e := echo.New()
	guarded := RequirePermission(domain.PermissionManageMeetings)(okHandler)

	cases := []struct {
		name    string
		account *domain.Account
		want    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"missing permission", &domain.Account{ID: uuid.New(), Permissions: []string{"view_tasks"}}, http.StatusForbidden},
		{"granted", &domain.Account{ID: uuid.New(), Permissions: []string{"manage_meetings"}}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if tc.account != nil {
				c.Set(contextAccountKey, tc.account)
			}
			if err := guarded(c); err != nil {
				t.Fatalf("handler returned %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRateLimitByIPFailsOpen(t *testing.T) {
	e := echo.New()
	limiter := &fakeLimiter{err: errors.New("redis down")}
	handler := RateLimitByIP(limiter, "reset:ip:", 1, time.Minute)(okHandler)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		if err := handler(c); err != nil {
			t.Fatalf("handler returned %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
	}
}

func TestRateLimitByIPLogsThroughRouterLogger(t *testing.T) {
	logs := &syncBuffer{}
	e := NewRouter(RouterOptions{AllowOrigins: []string{"*"}, Logger: slog.New(slog.NewJSONHandler(logs, nil))})
	limiter := &fakeLimiter{err: errors.New("redis down")}
	e.POST("/limited", okHandler, RateLimitByIP(limiter, "reset:ip:", 1, time.Minute))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/limited", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
	if !strings.Contains(logs.String(), `"msg":"rate limiter unavailable"`) {
		t.Fatalf("expected limiter warning in router log, got %s", logs.String())
	}
}

func TestRateLimitByIPWithoutLimiter(t *testing.T) {
	e := echo.New()
	handler := RateLimitByIP(nil, "reset:ip:", 1, time.Minute)(okHandler)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)); err != nil {
		t.Fatalf("handler returned %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	srv := newTestServer(t)
	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		srv.e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}
