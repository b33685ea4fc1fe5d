package http

import (
	"time"

	"github.com/rivaq/rivaq-backend/internal/domain"
)

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid email or password"`
}

// MessageResponse carries a human readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"password updated"`
}

// AccountResponse is the public view of an account. Credentials never leave the service.
type AccountResponse struct {
	ID              string   `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Name            string   `json:"name" example:"Dana Levi"`
	Email           string   `json:"email" example:"dana@example.com"`
	Position        string   `json:"position" example:"Team lead"`
	Department      string   `json:"department" example:"Operations"`
	JoinDate        *string  `json:"join_date,omitempty" example:"2024-03-01"`
	ManagerID       *string  `json:"manager_id,omitempty"`
	Permissions     []string `json:"permissions"`
	ProfileImageURL *string  `json:"profile_image_url,omitempty"`
	CreatedAt       string   `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt       string   `json:"updated_at" example:"2024-01-02T09:30:00Z"`
}

// AuthTokenResponse is returned by login.
type AuthTokenResponse struct {
	Token     string          `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt string          `json:"expires_at" example:"2024-01-02T09:30:00Z"`
	Account   AccountResponse `json:"account"`
}

type AccountEnvelope struct {
	Account AccountResponse `json:"account"`
}

type ListMeta struct {
	Limit  int   `json:"limit" example:"50"`
	Offset int   `json:"offset" example:"0"`
	Count  int   `json:"count" example:"2"`
	Total  int64 `json:"total,omitempty" example:"12"`
}

type AccountsListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Meta     ListMeta          `json:"meta"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"dana@example.com"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"dana@example.com"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required" example:"secret22"`
	ConfirmPassword string `json:"confirm_password" validate:"required" example:"secret22"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required" example:"secret1"`
	NewPassword     string `json:"new_password" validate:"required" example:"secret22"`
	ConfirmPassword string `json:"confirm_password" validate:"required" example:"secret22"`
}

type ProvisionAccountRequest struct {
	Name        string   `json:"name" validate:"required" example:"Dana Levi"`
	Email       string   `json:"email" validate:"required,email" example:"dana@example.com"`
	Password    string   `json:"password" validate:"required" example:"secret1"`
	Position    string   `json:"position" example:"Team lead"`
	Department  string   `json:"department" example:"Operations"`
	JoinDate    string   `json:"join_date" validate:"omitempty,datetime=2006-01-02" example:"2024-03-01"`
	ManagerID   string   `json:"manager_id" validate:"omitempty,uuid"`
	Permissions []string `json:"permissions" example:"view_tasks,create_tasks"`
}

type UpdateProfileRequest struct {
	Name       *string `json:"name" example:"Dana Levi"`
	Position   *string `json:"position" example:"Team lead"`
	Department *string `json:"department" example:"Operations"`
}

func toAccountResponse(a *domain.Account) AccountResponse {
	resp := AccountResponse{
		ID:              a.ID.String(),
		Name:            a.Name,
		Email:           a.Email,
		Position:        a.Position,
		Department:      a.Department,
		Permissions:     append([]string{}, a.Permissions...),
		ProfileImageURL: a.ProfileImageURL,
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.JoinDate != nil {
		d := a.JoinDate.Format(dateLayout)
		resp.JoinDate = &d
	}
	if a.ManagerID != nil {
		m := a.ManagerID.String()
		resp.ManagerID = &m
	}
	return resp
}
