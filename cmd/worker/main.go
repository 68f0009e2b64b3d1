// Package main is the entrypoint for the analysis worker. It consumes jobs
// from the queue and runs the LLM pipeline; it serves no HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/archive"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/cache"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/document"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/logger"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/pipeline"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue/backend"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/search"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/store"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/worker"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load and validate config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		return fmt.Errorf("invalid worker config: %w", err)
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
	log = log.With("worker_id", cfg.Worker.ID)
	log.Info("Starting worker service",
		slog.String("ai_provider", cfg.AI.Provider),
		slog.String("queue_backend", cfg.Queue.Backend),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Redis
	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr())
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	log.Info("Redis connection established")

	resultStore := store.NewRedisStore(redisCache.Client(), cfg.Store.ResultTTL, cfg.Store.ProcessingTTL, log)

	// 3. Queue
	jobQueue, err := backend.Open(cfg.Queue, cfg.Worker.Concurrency, redisCache.Client(), log)
	if err != nil {
		return fmt.Errorf("open queue: %w", err)
	}
	defer jobQueue.Close()

	// 4. Optional archive. The API owns migrations.
	var history archive.Archive
	if cfg.Database.Enabled() {
		pool, err := archive.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		history = archive.NewPostgresArchive(pool)
		log.Info("Archive database connection established")
	}

	// 5. AI provider, capped across workers when AI_MAX_RPM is set
	provider, err := ai.NewProvider(ctx, cfg.AI, log)
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	provider = ai.NewThrottled(provider, redisCache, cfg.AI.MaxRPM, log)
	log.Info("AI provider initialized", "provider", provider.Name(), "max_rpm", cfg.AI.MaxRPM)

	// 6. Pipeline tools
	runner, err := newRunner(cfg, provider, redisCache, log)
	if err != nil {
		return err
	}

	// 7. Worker pool
	proc := worker.NewProcessor(resultStore, runner, history, provider.Name(), cfg.Queue.JobTimeout, log)
	pool := worker.NewPool(jobQueue, proc, worker.Config{
		ID:              cfg.Worker.ID,
		Concurrency:     cfg.Worker.Concurrency,
		ShutdownTimeout: cfg.Worker.ShutdownTimeout,
	}, log)

	log.Info("Worker service started successfully")
	if err := pool.Run(ctx); err != nil {
		if errors.Is(err, worker.ErrShutdownTimeout) {
			log.Warn("Worker shutdown timeout exceeded, in-flight jobs were cancelled")
			return nil
		}
		return fmt.Errorf("worker pool: %w", err)
	}

	log.Info("Worker stopped gracefully")
	return nil
}

func newRunner(cfg *config.Config, provider models.AIProvider, c cache.Cache, log *slog.Logger) (*pipeline.Runner, error) {
	reader, err := document.NewReader(cfg.Pipeline.PDFExtractor, log)
	if err != nil {
		return nil, fmt.Errorf("create document reader: %w", err)
	}

	tools := pipeline.Toolset{Reader: reader}
	if cfg.Search.Enabled() {
		serper := search.NewSerperClient(cfg.Search.BaseURL, cfg.Search.SerperAPIKey, cfg.Search.NumResults, cfg.Search.Timeout)
		tools.Searcher = search.NewCachedSearcher(serper, c, search.DefaultCacheTTL, log)
	}

	runner, err := pipeline.NewRunner(provider, tools,
		pipeline.WithStrictVerification(cfg.Pipeline.StrictVerification),
		pipeline.WithMaxDocumentChars(cfg.Pipeline.MaxDocumentChars),
		pipeline.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	return runner, nil
}
