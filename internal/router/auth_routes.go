package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fitnesshub/program-tracker/internal/handler"
	"github.com/fitnesshub/program-tracker/internal/middleware"
)

// registerAuth mounts the credential endpoints behind the Redis token
// bucket, plus the current-user endpoint.
func registerAuth(e *echo.Echo, d Deps, a *handler.AuthHandler) {
	g := e.Group("/api/auth", middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/verify", a.Verify)
	g.GET("/verify", a.Verify)
	g.POST("/resend-verification", a.ResendVerification)
	g.GET("/test", a.Test)

	e.GET("/api/users/me", a.Me)
}
