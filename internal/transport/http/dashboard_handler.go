package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rivaq/rivaq-backend/internal/service"
	"github.com/rivaq/rivaq-backend/internal/util"
)

func RegisterDashboard(e *echo.Echo, auth *service.AuthService, dashboard *service.DashboardService) {
	e.GET("/api/v1/dashboard", func(c echo.Context) error {
		actor, ok := CurrentAccount(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
		}
		summary, err := dashboard.Summary(c.Request().Context(), actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data("dashboard", summary))
	}, RequireAuth(auth))
}
