package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fitnesshub/program-tracker/internal/handler"
	"github.com/fitnesshub/program-tracker/internal/middleware"
)

// registerPrograms mounts the program catalogue. Reads are cached in Redis
// and every successful write bumps the cache generation.
func registerPrograms(e *echo.Echo, d Deps, p *handler.ProgramHandler) {
	g := e.Group("/api/programs",
		middleware.NewCacheBuster(d.Cache, d.Redis, d.Log),
		middleware.NewRedisCache(d.Cache, d.Redis, d.Log),
	)
	g.GET("", p.List)
	g.GET("/search", p.Search)
	g.GET("/:id", p.Get)
	g.POST("", p.Create)
	g.PUT("/:id", p.Update)
	g.DELETE("/:id", p.Delete)

	g.GET("/:id/weekly-plan", p.WeeklyPlan)
	g.PUT("/:id/weekly-plan/:day", p.SaveDay)
	g.DELETE("/:id/weekly-plan/:day", p.RemoveDay)
}
