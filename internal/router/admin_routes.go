package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fitnesshub/program-tracker/internal/handler"
	"github.com/fitnesshub/program-tracker/internal/middleware"
	"github.com/fitnesshub/program-tracker/internal/model"
)

func registerAdmin(e *echo.Echo, a *handler.AdminHandler) {
	g := e.Group("/api/admin", middleware.RequireRole(model.RoleAdmin))
	g.DELETE("/verifications/expired", a.PurgeExpiredVerifications)
}
