package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"candidature-ai/internal/api/middleware"
	"candidature-ai/internal/health"
	"candidature-ai/internal/logging"
	"candidature-ai/pkg/models"
)

// HealthHandler handles GET /health: the process is up and every dependency
// is reported, without failing on them
func HealthHandler(checker *health.Checker) echo.HandlerFunc {
	return func(c echo.Context) error {
		report := checker.Run(c.Request().Context())
		status := "healthy"
		if !report.Ready {
			status = health.StatusDegraded
		}
		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   checker.Version(),
			Uptime:    checker.Uptime(),
			Checks:    report.Checks,
		})
	}
}

// ReadinessHandler handles GET /health/ready and answers 503 while a
// critical dependency is down
func ReadinessHandler(checker *health.Checker) echo.HandlerFunc {
	return func(c echo.Context) error {
		report := checker.Run(c.Request().Context())
		code, status := http.StatusOK, "ready"
		if !report.Ready {
			code, status = http.StatusServiceUnavailable, "not_ready"
			logging.LogWithRequestID(middleware.GetRequestID(c)).Warn("readiness check failed", map[string]interface{}{
				"checks": report.Checks,
			})
		}
		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   checker.Version(),
			Uptime:    checker.Uptime(),
			Checks:    report.Checks,
		})
	}
}

// LivenessHandler handles GET /health/live
func LivenessHandler(checker *health.Checker) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "alive",
			Timestamp: time.Now(),
			Version:   checker.Version(),
			Uptime:    checker.Uptime(),
		})
	}
}
