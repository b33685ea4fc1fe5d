package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/rivaq/rivaq-backend/internal/service"
)

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{service.ErrForbidden, http.StatusForbidden, "insufficient permissions"},
		{service.ErrTokenInvalidOrExpired, http.StatusBadRequest, "token invalid or expired"},
		{fmt.Errorf("%w: password must be at least 6 characters long", service.ErrPasswordPolicyViolation), http.StatusBadRequest, "password does not meet the policy: password must be at least 6 characters long"},
		{service.ErrTaskNotFound, http.StatusNotFound, "task not found"},
		{service.ErrEmailAlreadyUsed, http.StatusConflict, "email already in use"},
		{service.ErrAvatarTooLarge, http.StatusRequestEntityTooLarge, "avatar exceeds the size limit"},
		{fmt.Errorf("%w: find account: %w", service.ErrStorage, errors.New("connection reset")), http.StatusInternalServerError, "internal server error"},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if err := writeServiceError(c, tc.err); err != nil {
			t.Fatalf("writeServiceError returned %v", err)
		}
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		if msg := errorMessage(t, rec); msg != tc.msg {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.msg, msg)
		}
	}
}
