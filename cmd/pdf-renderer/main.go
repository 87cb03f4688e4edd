package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"candidature-ai/internal/logging"
	"candidature-ai/internal/render"
)

// compileRequest mirrors what render.RemoteCompiler sends
type compileRequest struct {
	Latex string `json:"latex"`
}

func compileHandler(compiler render.Compiler, logger logging.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req compileRequest
		if err := c.Bind(&req); err != nil {
			return c.String(http.StatusBadRequest, "invalid json: "+err.Error())
		}
		if len(req.Latex) > render.MaxSourceBytes {
			return c.String(http.StatusRequestEntityTooLarge, "latex input too large")
		}
		if err := render.ValidateLatex(req.Latex); err != nil {
			return c.String(http.StatusBadRequest, "latex rejected: "+err.Error())
		}

		start := time.Now()
		pdf, err := compiler.Compile(c.Request().Context(), req.Latex)
		if err != nil {
			logger.Warn("compile failed", map[string]interface{}{"error": err.Error()})
			return c.String(http.StatusBadRequest, "latex compile failed: "+err.Error())
		}

		logger.Info("compiled", map[string]interface{}{
			"bytes":       len(pdf),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return c.Blob(http.StatusOK, "application/pdf", pdf)
	}
}

func main() {
	logger := logging.GetGlobalLogger().WithField("component", "pdf-renderer")

	workDir := os.Getenv("RENDER_WORK_DIR")
	compiler := render.NewLocalCompiler(workDir, 30*time.Second)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/compile", compileHandler(compiler, logger))

	addr := ":8999"
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		addr = ":" + v
	}

	go func() {
		logger.Info("pdf-renderer listening", map[string]interface{}{"address": addr})
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}
