package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"candidature-ai/internal/api/middleware"
	"candidature-ai/internal/api/routes"
	"candidature-ai/internal/auth"
	"candidature-ai/internal/config"
	"candidature-ai/internal/entitlement"
	"candidature-ai/internal/generation"
	"candidature-ai/internal/health"
	"candidature-ai/internal/llm"
	"candidature-ai/internal/logging"
	"candidature-ai/internal/mux"
	"candidature-ai/internal/render"
	"candidature-ai/internal/store"
	"candidature-ai/pkg/utils"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.LoadConfig(envOr("CONFIG_PATH", "configs/config.yaml"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Starting Candidature AI", map[string]interface{}{"version": version})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := store.Connect(ctx, cfg)
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	cache := newCache(cfg, logger)
	defer cache.Close()

	llmManager, err := llm.NewManager(cfg)
	if err != nil {
		logger.Fatal("Failed to create LLM manager", map[string]interface{}{"error": err.Error()})
	}

	identity := auth.NewCachedProvider(
		auth.NewSupabaseProvider(cfg, &http.Client{Timeout: cfg.Supabase.Timeout}),
		cache,
		cfg.Redis.TokenTTL,
	)

	svc := generation.NewService(cfg, generation.Dependencies{
		Entitlements: entitlement.NewEvaluator(db),
		Completer:    llmManager,
		Recorder:     db,
		Cache:        cache,
	})

	checker := health.NewChecker(version, 3*time.Second,
		health.Check{Name: "database", Critical: true, Probe: db.Ping},
		health.Check{Name: "cache", Probe: cache.Ping},
		health.Check{Name: "llm", Probe: llmManager.CheckHealth},
	)

	var limiter *middleware.ClientRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewClientRateLimiter(cfg)
		defer limiter.Stop()
	}

	e := echo.New()
	e.HideBanner = true
	routes.SetupRoutes(e, cfg, routes.Dependencies{
		Generator: svc,
		Resolver:  auth.NewResolver(identity),
		Profiles:  db,
		Renderer:  render.NewRenderer(render.NewCompiler(cfg)),
		History:   db,
		Defaults:  db,
		Health:    checker,
		Limiter:   limiter,
	})

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	m := mux.NewMultiplexer(cfg, checker, e)
	if err := m.Start(address); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Server listening", map[string]interface{}{
		"address":      m.Addr(),
		"llm_provider": llmManager.GetProviderName(),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := m.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Server shutdown complete")
}

// newCache connects to Redis when configured and falls back to an in-process
// cache otherwise, which is only correct for a single replica
func newCache(cfg *config.Config, logger logging.Logger) utils.Cache {
	if cfg.Redis.URL == "" {
		logger.Warn("REDIS_URL not set, using in-memory cache")
		return utils.NewMemoryCache()
	}
	rc, err := utils.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Invalid Redis configuration", map[string]interface{}{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("Redis unreachable at startup", map[string]interface{}{"error": err.Error()})
	}
	return rc
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
