package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/cache"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// Throttled caps calls to the wrapped provider at maxRPM per wall-clock
// minute, shared by every worker through a Redis counter. Calls over the
// limit wait for the next minute.
type Throttled struct {
	inner  models.AIProvider
	cache  cache.Cache
	maxRPM int64
	logger *slog.Logger
	now    func() time.Time
}

// NewThrottled wraps p. A maxRPM of zero or less returns p unchanged.
func NewThrottled(p models.AIProvider, c cache.Cache, maxRPM int, logger *slog.Logger) models.AIProvider {
	if maxRPM <= 0 {
		return p
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Throttled{inner: p, cache: c, maxRPM: int64(maxRPM), logger: logger, now: time.Now}
}

func (t *Throttled) Name() string { return t.inner.Name() }

func (t *Throttled) Complete(ctx context.Context, prompt models.Prompt) (string, error) {
	for {
		now := t.now()
		minute := now.Unix() / 60
		n, err := t.cache.IncrWithExpiry(ctx, cache.ModelRPMKey(t.inner.Name(), minute), 2*time.Minute)
		if err != nil {
			// Redis trouble should not block inference.
			t.logger.Warn("rate counter unavailable", "provider", t.inner.Name(), "error", err)
			break
		}
		if n <= t.maxRPM {
			break
		}

		wait := time.Unix((minute+1)*60, 0).Sub(now)
		t.logger.Info("provider rate limit reached, waiting",
			"provider", t.inner.Name(), "max_rpm", t.maxRPM, "wait", wait)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: waiting for rate limit: %v", ErrInferenceTimeout, ctx.Err())
		case <-time.After(wait):
		}
	}
	return t.inner.Complete(ctx, prompt)
}
