package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"candidature-ai/internal/api/handlers"
	"candidature-ai/internal/api/middleware"
	"candidature-ai/internal/auth"
	"candidature-ai/internal/config"
	"candidature-ai/internal/entitlement"
	"candidature-ai/internal/health"
)

// Dependencies are the collaborators the HTTP surface is wired to
type Dependencies struct {
	Generator handlers.Generator
	Resolver  *auth.Resolver
	Profiles  entitlement.ProfileReader
	Renderer  handlers.CVRenderer
	History   handlers.HistoryReader
	Defaults  handlers.DefaultsStore
	Health    *health.Checker
	Limiter   *middleware.ClientRateLimiter
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) {
	e.HTTPErrorHandler = middleware.ErrorHandler()

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig(cfg.Server.AllowedOrigins))
	if cfg.Server.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(cfg.Server.BodyLimit))
	}
	// Generation waits on the model; everything else gets the read timeout
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, cfg.Server.GenerationTimeout, "/generate", "/pdf"))

	probes := e.Group("/health")
	{
		probes.GET("", handlers.HealthHandler(deps.Health))
		probes.GET("/ready", handlers.ReadinessHandler(deps.Health))
		probes.GET("/live", handlers.LivenessHandler(deps.Health))
	}

	requireAuth := middleware.RequireAuth(deps.Resolver)
	limited := []echo.MiddlewareFunc{requireAuth}
	if deps.Limiter != nil {
		limited = append(limited, deps.Limiter.Middleware())
	}

	generate := handlers.GenerateHandler(deps.Generator)
	generateChain := append([]echo.MiddlewareFunc{middleware.RequireConfigured(deps.Generator)}, limited...)
	e.POST("/generate", generate, generateChain...)

	v1 := e.Group("/api/v1")
	{
		v1.POST("/generate", generate, generateChain...)
		v1.POST("/pdf", handlers.PDFHandler(deps.Profiles, deps.Renderer), limited...)

		v1.GET("/generations", handlers.ListGenerationsHandler(deps.History), requireAuth)
		v1.GET("/generations/:id", handlers.GetGenerationHandler(deps.History), requireAuth)

		v1.GET("/defaults", handlers.GetDefaultsHandler(deps.Defaults), requireAuth)
		v1.POST("/defaults", handlers.SaveDefaultsHandler(deps.Defaults), requireAuth)
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Candidature AI",
			"version": deps.Health.Version(),
			"status":  "running",
		})
	})
}
