// Package main is the entrypoint for the HerdWatch API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sandeepmv/herdwatch/internal/api"
	"github.com/sandeepmv/herdwatch/internal/api/handler"
	mw "github.com/sandeepmv/herdwatch/internal/api/middleware"
	"github.com/sandeepmv/herdwatch/internal/api/response"
	"github.com/sandeepmv/herdwatch/internal/cache"
	"github.com/sandeepmv/herdwatch/internal/config"
	"github.com/sandeepmv/herdwatch/internal/engine"
	"github.com/sandeepmv/herdwatch/internal/jobs"
	"github.com/sandeepmv/herdwatch/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "engine", cfg.Engine.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create engine client
	engineClient := engine.NewHTTPClient(cfg.Engine.BaseURL, cfg.Engine.APIKey, cfg.Engine.Timeout)
	if err := engineClient.Ready(ctx); err != nil {
		slog.Warn("analysis engine not ready at startup", "error", err)
	}

	// 6. Create store and job orchestrator
	pgStore := store.NewPostgresStore(pool)

	jobService := jobs.NewService(engineClient, pgStore, redisCache, jobs.Options{
		PollInterval: cfg.Jobs.PollInterval,
		RetryCeiling: cfg.Jobs.PollRetryCeiling,
	})
	defer jobService.Close()

	// 7. Build router with dependencies
	auth := mw.NewAuth(pgStore)
	rateLimit := mw.NewRateLimit(redisCache, 60)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler: healthHandler(pgStore, redisCache, engineClient),

		SubmitJobHandler:  handler.NewSubmitJobHandler(jobService),
		ListJobsHandler:   handler.NewListJobsHandler(jobService),
		GetJobHandler:     handler.NewGetJobHandler(jobService),
		RemoveJobHandler:  handler.NewRemoveJobHandler(jobService),
		JobHistoryHandler: handler.NewJobHistoryHandler(pgStore),

		GetSelectionHandler:   handler.NewGetSelectionHandler(jobService.Selection()),
		SelectHandler:         handler.NewSelectHandler(jobService.Selection()),
		ClearSelectionHandler: handler.NewClearSelectionHandler(jobService.Selection()),

		CreateKeyHandler: handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:  handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections and pollers...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database, cache, and engine connectivity.
func healthHandler(s store.Store, c cache.Cache, eng engine.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
			"engine":   "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}
		if err := eng.Ready(r.Context()); err != nil {
			checks["engine"] = "degraded"
		}

		degraded := false
		for _, v := range checks {
			if v != "ok" {
				degraded = true
			}
		}
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
