package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/service"
	"github.com/rivaq/rivaq-backend/internal/util"
)

const resetAcknowledgement = "If an account exists for that email, a password reset link has been sent."

type AuthRoutesOptions struct {
	Limiter       ports.RateLimiter
	ResetIPLimit  int
	ResetIPWindow time.Duration
}

type AuthHandler struct {
	auth *service.AuthService
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, opts AuthRoutesOptions) {
	h := &AuthHandler{auth: auth}

	g := e.Group("/api/v1/auth")
	g.POST("/login", h.login)
	g.POST("/logout", h.logout, RequireAuth(auth))
	g.POST("/password/forgot", h.forgotPassword, RateLimitByIP(opts.Limiter, "reset:ip:", opts.ResetIPLimit, opts.ResetIPWindow))
	g.GET("/password/reset/:token", h.checkResetToken)
	g.POST("/password/reset", h.resetPassword)
}

// login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body LoginRequest true "Credentials"
// @Success 200 {object} AuthTokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	result, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, AuthTokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		Account:   toAccountResponse(result.Account),
	})
}

func (h *AuthHandler) logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), currentToken(c)); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// forgotPassword answers 202 with the same body whether or not the account
// exists. Storage failures surface as a generic 500.
func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	if err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusAccepted, MessageResponse{Message: resetAcknowledgement})
}

func (h *AuthHandler) checkResetToken(c echo.Context) error {
	if err := h.auth.ValidateResetToken(c.Request().Context(), c.Param("token")); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"valid": true})
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(errInvalidBody.Error()))
	}
	if req.Token == "" {
		return writeServiceError(c, service.ErrTokenInvalidOrExpired)
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}

	if err := h.auth.CompletePasswordReset(c.Request().Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}
