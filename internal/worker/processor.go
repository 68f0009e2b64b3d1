package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/archive"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/pipeline"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/store"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// storeWriteTimeout bounds ledger and archive writes made after a job ends,
// including when the job's own context is already done.
const storeWriteTimeout = 10 * time.Second

// Analyzer runs the pipeline for one job. *pipeline.Runner implements it.
type Analyzer interface {
	Run(ctx context.Context, in pipeline.Input, onStage pipeline.OnStage) (string, error)
}

// Processor runs a single job and records its outcome.
type Processor struct {
	store          store.Store
	analyzer       Analyzer
	archive        archive.Archive
	provider       string
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// NewProcessor creates a job processor. archive may be nil.
func NewProcessor(st store.Store, an Analyzer, arch archive.Archive, provider string, defaultTimeout time.Duration, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:          st,
		analyzer:       an,
		archive:        arch,
		provider:       provider,
		defaultTimeout: defaultTimeout,
		logger:         logger,
	}
}

type outcome struct {
	report string
	err    error
	detail string
}

// Process runs the pipeline for job under its timeout and writes the
// terminal status. It reports whether the job finished successfully. Jobs
// whose record is gone or already terminal are skipped without running.
func (p *Processor) Process(ctx context.Context, job models.Job) bool {
	log := p.logger.With("fingerprint", job.Fingerprint, "file_name", job.FileName)

	if !p.claim(log, job.Fingerprint) {
		log.Warn("job skipped, record missing or no longer processing")
		return false
	}

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = p.defaultTimeout
	}
	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	log.Info("processing job", "timeout", timeout)
	start := time.Now()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r), detail: string(debug.Stack())}
			}
		}()
		report, err := p.analyzer.Run(runCtx, pipeline.Input{
			Fingerprint: job.Fingerprint,
			Query:       job.Query,
			FilePath:    job.FilePath,
			FileName:    job.FileName,
		}, func(stage string) { p.setStage(log, job.Fingerprint, stage) })
		done <- outcome{report: report, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-runCtx.Done():
		out = outcome{err: runCtx.Err()}
	}

	succeeded := false
	switch {
	case out.err == nil:
		succeeded = true
		p.finish(log, job.Fingerprint, out.report)
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		p.fail(log, job.Fingerprint, fmt.Sprintf("job exceeded timeout of %s", timeout), "")
	case out.detail != "":
		p.fail(log, job.Fingerprint, out.err.Error(), out.detail)
	default:
		p.fail(log, job.Fingerprint, "Error: "+out.err.Error(), fmt.Sprintf("%+v", out.err))
	}

	log.Info("job processed", "succeeded", succeeded, "duration", time.Since(start))
	p.archiveRecord(log, ctx, job.Fingerprint)
	return succeeded
}

// claim reports false only when the ledger says the job must not run. A
// ledger error lets the job proceed; its writes are best effort anyway.
func (p *Processor) claim(log *slog.Logger, fingerprint string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	claimed, err := p.store.Claim(ctx, fingerprint)
	if err != nil {
		log.Warn("Failed to claim job", "error", err)
		return true
	}
	return claimed
}

func (p *Processor) setStage(log *slog.Logger, fingerprint, stage string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	if err := p.store.SetStage(ctx, fingerprint, stage); err != nil {
		log.Warn("Failed to update job stage", "stage", stage, "error", err)
	}
}

func (p *Processor) finish(log *slog.Logger, fingerprint, report string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	if err := p.store.SetFinished(ctx, fingerprint, report); err != nil {
		log.Error("Failed to update job status", "status", models.StatusFinished, "error", err)
	}
}

func (p *Processor) fail(log *slog.Logger, fingerprint, message, detail string) {
	log.Error("job failed", "message", message)
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	if err := p.store.SetFailed(ctx, fingerprint, message, detail); err != nil {
		log.Error("Failed to update job status", "status", models.StatusFailed, "error", err)
	}
}

func (p *Processor) archiveRecord(log *slog.Logger, ctx context.Context, fingerprint string) {
	if p.archive == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeWriteTimeout)
	defer cancel()

	rec, err := p.store.Get(wctx, fingerprint)
	if err != nil {
		log.Warn("archive skipped, record unavailable", "error", err)
		return
	}
	a, err := archive.FromRecord(rec, p.provider)
	if err != nil {
		log.Warn("archive skipped", "error", err)
		return
	}
	if err := p.archive.Save(wctx, a); err != nil {
		log.Error("failed to archive analysis", "error", err)
	}
}
