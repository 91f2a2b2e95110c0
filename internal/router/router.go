// Package router assembles the echo server: global middleware, the access
// gate and every route group.
package router

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/config"
	"github.com/fitnesshub/program-tracker/internal/handler"
	"github.com/fitnesshub/program-tracker/internal/metrics"
	"github.com/fitnesshub/program-tracker/internal/middleware"
	"github.com/fitnesshub/program-tracker/internal/service"
)

// Deps is everything the HTTP layer needs. Redis and Metrics are optional.
type Deps struct {
	Config    config.Config
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Log       *zap.Logger
	Metrics   *metrics.Metrics
	Redis     *redis.Client

	Tokens        *auth.TokenService
	Users         middleware.UserLookup
	Auth          *service.AuthService
	Verifications *service.VerificationService
	Programs      *service.ProgramService
	Plans         *service.WeeklyPlanService

	// Ping checks the backing store for /healthz; nil skips the check.
	Ping func(context.Context) error
}

// New builds the echo instance with all routes registered.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLog(d.Log))
	if d.Metrics != nil {
		e.Use(middleware.Metrics(d.Metrics))
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           3600,
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.Gate(d.Tokens, d.Users, middleware.DefaultPublicRoutes, d.Log))

	e.GET("/healthz", handler.Health(d.Ping))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	timeout := d.Config.RequestTimeout
	registerAuth(e, d, handler.NewAuthHandler(d.Auth, timeout))
	registerPrograms(e, d, handler.NewProgramHandler(d.Programs, d.Plans, timeout))
	registerAdmin(e, handler.NewAdminHandler(d.Verifications, timeout))
	return e
}
