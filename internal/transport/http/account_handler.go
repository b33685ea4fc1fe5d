package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/service"
	"github.com/rivaq/rivaq-backend/internal/util"
)

const avatarFormField = "image"

type AccountHandler struct {
	accounts *service.AccountService
}

func RegisterAccounts(e *echo.Echo, auth *service.AuthService, accounts *service.AccountService) {
	h := &AccountHandler{accounts: accounts}

	me := e.Group("/api/v1/users/me", RequireAuth(auth))
	me.GET("", h.getMe)
	me.PUT("", h.updateMe)
	me.PUT("/password", h.changePassword)
	me.POST("/avatar", h.uploadAvatar)

	admin := e.Group("/api/v1/users", RequireAuth(auth), RequirePermission(domain.PermissionManageUsers))
	admin.GET("", h.listAccounts)
	admin.POST("", h.provisionAccount)
	admin.GET("/:id", h.getAccount)
	admin.DELETE("/:id", h.deleteAccount)
}

func (h *AccountHandler) getMe(c echo.Context) error {
	account, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	return c.JSON(http.StatusOK, AccountEnvelope{Account: toAccountResponse(account)})
}

func (h *AccountHandler) updateMe(c echo.Context) error {
	account, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	var req UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	updated, err := h.accounts.UpdateProfile(c.Request().Context(), account.AccountID(), domain.ProfileUpdate{
		Name:       trimmedPtr(req.Name),
		Position:   trimmedPtr(req.Position),
		Department: trimmedPtr(req.Department),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, AccountEnvelope{Account: toAccountResponse(updated)})
}

func (h *AccountHandler) changePassword(c echo.Context) error {
	account, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	err := h.accounts.ChangePassword(c.Request().Context(), account.AccountID(), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusBadRequest, util.Error("current password is incorrect"))
		}
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "password updated, please log in again"})
}

func (h *AccountHandler) uploadAvatar(c echo.Context) error {
	account, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	fileHeader, err := c.FormFile(avatarFormField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("image file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("unable to read image"))
	}
	defer file.Close()

	updated, err := h.accounts.UploadAvatar(c.Request().Context(), account.AccountID(), service.ProfileImage{
		Reader:      file,
		Size:        fileHeader.Size,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, AccountEnvelope{Account: toAccountResponse(updated)})
}

func (h *AccountHandler) listAccounts(c echo.Context) error {
	limit, offset := parsePagination(c, 50, 0)
	accounts, err := h.accounts.ListAccounts(c.Request().Context(), limit, offset)
	if err != nil {
		return writeServiceError(c, err)
	}
	items := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountResponse(&accounts[i]))
	}
	return c.JSON(http.StatusOK, AccountsListResponse{
		Accounts: items,
		Meta:     ListMeta{Limit: limit, Offset: offset, Count: len(items)},
	})
}

func (h *AccountHandler) getAccount(c echo.Context) error {
	id, err := domain.ParseAccountID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid account id"))
	}
	account, err := h.accounts.GetAccount(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, AccountEnvelope{Account: toAccountResponse(account)})
}

func (h *AccountHandler) provisionAccount(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	var req ProvisionAccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	managerID, err := parseOptionalUUID(req.ManagerID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("manager_id must be a valid UUID"))
	}
	joinDate, err := parseOptionalDate(req.JoinDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("join_date must use the format 2006-01-02"))
	}

	account, err := h.accounts.ProvisionAccount(c.Request().Context(), actor, service.ProvisionInput{
		Name:        req.Name,
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		Position:    req.Position,
		Department:  req.Department,
		JoinDate:    joinDate,
		ManagerID:   managerID,
		Permissions: req.Permissions,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, AccountEnvelope{Account: toAccountResponse(account)})
}

func (h *AccountHandler) deleteAccount(c echo.Context) error {
	actor, ok := CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	id, err := domain.ParseAccountID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid account id"))
	}
	if err := h.accounts.DeleteAccount(c.Request().Context(), actor, id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
