package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/cache"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// RedisQueue keeps pending jobs in one list and in-flight jobs in another.
// A crashed worker leaves its payload in the processing list; nothing moves
// it back automatically.
type RedisQueue struct {
	client      redis.UniversalClient
	name        string
	pollTimeout time.Duration
	counters    *Counters
	logger      *slog.Logger
	closed      atomic.Bool
}

func NewRedisQueue(client redis.UniversalClient, name string, pollTimeout time.Duration, logger *slog.Logger) *RedisQueue {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisQueue{
		client:      client,
		name:        name,
		pollTimeout: pollTimeout,
		counters:    NewCounters(client, name),
		logger:      logger,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job models.Job) (string, error) {
	if q.closed.Load() {
		return "", ErrClosed
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	handle, raw, err := Encode(job)
	if err != nil {
		return "", err
	}
	if err := q.client.LPush(ctx, cache.QueuePendingKey(q.name), raw).Err(); err != nil {
		return "", fmt.Errorf("enqueue job %s: %w", job.Fingerprint, err)
	}
	q.logger.Debug("job enqueued", "fingerprint", job.Fingerprint, "handle", handle, "queue", q.name)
	return handle, nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	for {
		if q.closed.Load() {
			return nil, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := q.client.BLMove(ctx,
			cache.QueuePendingKey(q.name), cache.QueueProcessingKey(q.name),
			"RIGHT", "LEFT", q.pollTimeout).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("dequeue: %w", err)
		}

		d, err := Decode(raw)
		if err != nil {
			// Drop poison payloads so they are not redelivered forever.
			q.logger.Error("discarding undecodable job", "error", err, "queue", q.name)
			if rmErr := q.client.LRem(ctx, cache.QueueProcessingKey(q.name), 1, raw).Err(); rmErr != nil {
				q.logger.Error("failed to discard job", "error", rmErr)
			}
			continue
		}
		return d, nil
	}
}

func (q *RedisQueue) Ack(ctx context.Context, d *Delivery, succeeded bool) error {
	if err := q.remove(ctx, d.Raw, succeeded); err != nil {
		return fmt.Errorf("ack job %s: %w", d.Job.Fingerprint, err)
	}
	return nil
}

func (q *RedisQueue) remove(ctx context.Context, raw []byte, succeeded bool) error {
	pipe := q.client.TxPipeline()
	pipe.LRem(ctx, cache.QueueProcessingKey(q.name), 1, raw)
	pipe.Incr(ctx, cache.QueueCounterKey(q.name, outcome(succeeded)))
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, cache.QueuePendingKey(q.name)).Result()
}

func (q *RedisQueue) FailedCount(ctx context.Context) (int64, error) {
	return q.counters.Failed(ctx)
}

func (q *RedisQueue) FinishedCount(ctx context.Context) (int64, error) {
	return q.counters.Finished(ctx)
}

func (q *RedisQueue) Stats(ctx context.Context) (Stats, error) {
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, cache.QueuePendingKey(q.name))
	inFlight := pipe.LLen(ctx, cache.QueueProcessingKey(q.name))
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	failed, err := q.counters.Failed(ctx)
	if err != nil {
		return Stats{}, err
	}
	finished, err := q.counters.Finished(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		QueueLength: pending.Val(),
		InFlight:    inFlight.Val(),
		Failed:      failed,
		Finished:    finished,
	}, nil
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close stops further Enqueue and Dequeue calls. The Redis client is owned
// by the caller.
func (q *RedisQueue) Close() error {
	q.closed.Store(true)
	return nil
}

var _ Queue = (*RedisQueue)(nil)
