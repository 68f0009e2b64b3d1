// Package main is the entrypoint for the Financial Document Analyzer API server.
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

	"github.com/joho/godotenv"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/analysis"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api/handler"
	mw "github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api/middleware"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api/response"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/archive"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/cache"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/filestore"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/logger"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue/backend"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Setup(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    cfg.Log.Output,
		AddSource: cfg.Log.AddSource,
	})
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	log.Info("config loaded", "env", cfg.Server.Env, "queue_backend", cfg.Queue.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Redis: shared by the cache, the result store and the queue counters
	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr())
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	log.Info("redis connected")

	resultStore := store.NewRedisStore(redisCache.Client(), cfg.Store.ResultTTL, cfg.Store.ProcessingTTL, log)

	// 3. Queue
	jobQueue, err := backend.Open(cfg.Queue, 0, redisCache.Client(), log)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer jobQueue.Close()
	log.Info("queue ready", "backend", cfg.Queue.Backend, "name", cfg.Queue.Name)

	// 4. Optional Postgres archive
	var history archive.Archive
	if cfg.Database.Enabled() {
		pool, err := archive.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := archive.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		history = archive.NewPostgresArchive(pool)
		log.Info("archive database connected, migrations applied")
	}

	// 5. Upload storage and submission service
	files, err := filestore.New(cfg.Upload.Dir, ".pdf")
	if err != nil {
		return fmt.Errorf("open upload dir: %w", err)
	}
	svc := analysis.NewService(resultStore, jobQueue, files, cfg.Queue.JobTimeout, log)

	// 6. Build router with dependencies
	deps := api.Dependencies{
		UploadRateLimit:   mw.NewRateLimit(redisCache, "upload", cfg.Upload.RateLimitPerMin),
		IndexHandler:      handler.NewIndexHandler(),
		HealthHandler:     healthHandler(redisCache, jobQueue, history),
		UploadHandler:     handler.NewUploadHandler(svc, cfg.Upload.MaxBytes),
		StatusHandler:     handler.NewStatusHandler(svc),
		QueueStatsHandler: handler.NewQueueStatsHandler(svc),
	}
	if history != nil {
		deps.HistoryHandler = handler.NewHistoryHandler(history)
		deps.HistoryGetHandler = handler.NewHistoryGetHandler(history)
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

type queueLener interface {
	Len(ctx context.Context) (int64, error)
}

// healthHandler checks Redis and the queue. The archive is reported but
// never makes the service unhealthy.
func healthHandler(redis pinger, q queueLener, history pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := redis.Ping(r.Context()); err != nil {
			response.Write(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  "redis: " + err.Error(),
			})
			return
		}
		length, err := q.Len(r.Context())
		if err != nil {
			response.Write(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"error":  "queue: " + err.Error(),
			})
			return
		}

		archiveState := "disabled"
		if history != nil {
			archiveState = "connected"
			if err := history.Ping(r.Context()); err != nil {
				archiveState = "degraded"
			}
		}

		response.JSON(w, map[string]any{
			"status":       "healthy",
			"redis":        "connected",
			"queue_length": length,
			"archive":      archiveState,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
