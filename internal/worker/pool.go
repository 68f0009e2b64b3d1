// Package worker consumes analysis jobs from the queue and runs them
// through the pipeline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue"
	"golang.org/x/sync/errgroup"
)

// ErrShutdownTimeout is returned by Run when in-flight jobs did not finish
// within the shutdown timeout.
var ErrShutdownTimeout = errors.New("worker shutdown timed out")

const (
	ackTimeout       = 5 * time.Second
	dequeueErrorWait = time.Second
)

type Config struct {
	ID              string
	Concurrency     int
	ShutdownTimeout time.Duration
}

// Pool runs Concurrency goroutines, each handling one job at a time.
type Pool struct {
	queue     queue.Queue
	processor *Processor
	cfg       Config
	logger    *slog.Logger
}

func NewPool(q queue.Queue, proc *Processor, cfg Config, logger *slog.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		queue:     q,
		processor: proc,
		cfg:       cfg,
		logger:    logger.With("worker_id", cfg.ID),
	}
}

// Run blocks until ctx is cancelled or the queue is closed. Cancelling ctx
// stops dequeuing; jobs already running get ShutdownTimeout to finish before
// their contexts are cancelled too.
func (p *Pool) Run(ctx context.Context) error {
	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	p.logger.Info("Starting worker pool", "concurrency", p.cfg.Concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Concurrency; i++ {
		id := fmt.Sprintf("%s-%d", p.cfg.ID, i)
		g.Go(func() error {
			return p.loop(gctx, jobCtx, p.logger.With("worker", id))
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		p.logger.Info("Worker pool stopped")
		return err
	case <-ctx.Done():
	}

	p.logger.Info("Shutting down worker pool, waiting for in-flight jobs", "timeout", p.cfg.ShutdownTimeout)
	var timeout <-chan time.Time
	if p.cfg.ShutdownTimeout > 0 {
		t := time.NewTimer(p.cfg.ShutdownTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case err := <-done:
		p.logger.Info("Worker pool stopped")
		return err
	case <-timeout:
		cancelJobs()
		<-done
		p.logger.Warn("Worker pool stopped before in-flight jobs completed")
		return ErrShutdownTimeout
	}
}

func (p *Pool) loop(ctx, jobCtx context.Context, log *slog.Logger) error {
	log.Debug("Worker started")
	for {
		d, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				log.Debug("Worker stopped")
				return nil
			}
			log.Error("Failed to dequeue job", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(dequeueErrorWait):
			}
			continue
		}

		log.Info("Job received", "handle", d.Handle, "fingerprint", d.Job.Fingerprint)
		succeeded := p.processor.Process(jobCtx, d.Job)

		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
		if err := p.queue.Ack(actx, d, succeeded); err != nil {
			log.Error("Failed to ack job", "handle", d.Handle, "error", err)
		}
		cancel()
	}
}
