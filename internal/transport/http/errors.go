package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rivaq/rivaq-backend/internal/service"
	"github.com/rivaq/rivaq-backend/internal/util"
)

// writeServiceError maps service errors to responses. Anything unrecognised is
// logged and reported as a generic 500.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, util.Error(service.ErrInvalidCredentials.Error()))
	case errors.Is(err, service.ErrSessionInvalid):
		return c.JSON(http.StatusUnauthorized, util.Error(service.ErrSessionInvalid.Error()))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, util.Error("insufficient permissions"))
	case errors.Is(err, service.ErrTokenInvalidOrExpired):
		return c.JSON(http.StatusBadRequest, util.Error(service.ErrTokenInvalidOrExpired.Error()))
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrMeetingNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	case errors.Is(err, service.ErrEmailAlreadyUsed),
		errors.Is(err, service.ErrAccountInUse):
		return c.JSON(http.StatusConflict, util.Error(err.Error()))
	case errors.Is(err, service.ErrAvatarTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error(err.Error()))
	case errors.Is(err, service.ErrStorageNotAvailable):
		return c.JSON(http.StatusServiceUnavailable, util.Error(err.Error()))
	case errors.Is(err, service.ErrPasswordPolicyViolation),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrCannotDeleteSelf),
		errors.Is(err, service.ErrEmailRequired),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrUnknownPermission),
		errors.Is(err, service.ErrManagerNotFound),
		errors.Is(err, service.ErrTaskTitleRequired),
		errors.Is(err, service.ErrInvalidTaskField),
		errors.Is(err, service.ErrAssigneeNotFound),
		errors.Is(err, service.ErrInvalidMeeting),
		errors.Is(err, service.ErrAttendeeNotAllowed),
		errors.Is(err, service.ErrUnsupportedImage):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	default:
		requestLogger(c).ErrorContext(c.Request().Context(), "request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.Any("err", err),
		)
		return c.JSON(http.StatusInternalServerError, util.Error("internal server error"))
	}
}
