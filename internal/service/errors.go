package service

import (
	"errors"

	"github.com/rivaq/rivaq-backend/internal/repository/postgres"
)

var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrTokenInvalidOrExpired   = errors.New("token invalid or expired")
	ErrPasswordPolicyViolation = errors.New("password does not meet the policy")
	ErrPasswordMismatch        = errors.New("passwords do not match")
	ErrDeliveryFailure         = errors.New("reset message delivery failed")
	ErrStorage                 = errors.New("storage failure")

	ErrSessionInvalid      = errors.New("session invalid or expired")
	ErrForbidden           = errors.New("forbidden")
	ErrEmailAlreadyUsed    = errors.New("email already in use")
	ErrEmailRequired       = errors.New("email is required")
	ErrNameRequired        = errors.New("name is required")
	ErrUnknownPermission   = errors.New("unknown permission")
	ErrManagerNotFound     = errors.New("manager not found")
	ErrCannotDeleteSelf    = errors.New("cannot delete your own account")
	ErrAccountInUse        = errors.New("account still owns tasks or meetings")
	ErrAvatarTooLarge      = errors.New("avatar exceeds the size limit")
	ErrUnsupportedImage    = errors.New("unsupported image type")
	ErrStorageNotAvailable = errors.New("object storage not configured")

	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskTitleRequired  = errors.New("task title is required")
	ErrInvalidTaskField   = errors.New("invalid task field")
	ErrAssigneeNotFound   = errors.New("assignee not found")
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrInvalidMeeting     = errors.New("invalid meeting")
	ErrAttendeeNotAllowed = errors.New("attendee list contains an invalid id")
)

func isNotFound(err error) bool {
	return postgres.IsNotFound(err)
}

func isUniqueViolation(err error) bool {
	return postgres.IsUniqueViolation(err)
}

func isForeignKeyViolation(err error) bool {
	return postgres.IsForeignKeyViolation(err)
}
