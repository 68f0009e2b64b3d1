package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/cache"
)

const (
	outcomeFinished = "finished"
	outcomeFailed   = "failed"
)

// Counters tracks finished and failed job totals in Redis so every backend
// reports the same stats.
type Counters struct {
	client redis.UniversalClient
	queue  string
}

func NewCounters(client redis.UniversalClient, queue string) *Counters {
	return &Counters{client: client, queue: queue}
}

func outcome(succeeded bool) string {
	if succeeded {
		return outcomeFinished
	}
	return outcomeFailed
}

func (c *Counters) Incr(ctx context.Context, succeeded bool) error {
	return c.client.Incr(ctx, cache.QueueCounterKey(c.queue, outcome(succeeded))).Err()
}

func (c *Counters) Finished(ctx context.Context) (int64, error) {
	return c.get(ctx, outcomeFinished)
}

func (c *Counters) Failed(ctx context.Context) (int64, error) {
	return c.get(ctx, outcomeFailed)
}

func (c *Counters) get(ctx context.Context, outcome string) (int64, error) {
	n, err := c.client.Get(ctx, cache.QueueCounterKey(c.queue, outcome)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s counter: %w", outcome, err)
	}
	return n, nil
}
