// Package rabbitmq is a queue.Queue backed by a durable RabbitMQ queue.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

type Config struct {
	URL               string
	Exchange          string
	QueueName         string
	Prefetch          int
	// Consumers is how many goroutines share the subscription. Prefetch is
	// raised to at least this so each can hold an unacked delivery.
	Consumers         int
	PublishRetries    int
	PublishRetryDelay time.Duration
	RetryAttempts     int
	RetryInterval     time.Duration
	Heartbeat         time.Duration
}

func (c *Config) defaults() {
	if c.Exchange == "" {
		c.Exchange = "analysis"
	}
	if c.Prefetch <= 0 {
		c.Prefetch = 1
	}
	if c.Prefetch < c.Consumers {
		c.Prefetch = c.Consumers
	}
	if c.PublishRetries <= 0 {
		c.PublishRetries = 3
	}
	if c.PublishRetryDelay <= 0 {
		c.PublishRetryDelay = 100 * time.Millisecond
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 5
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 2 * time.Second
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = 10 * time.Second
	}
}

// Queue publishes persistent job messages to a direct exchange and consumes
// them with manual acknowledgement. Outcome totals live in queue.Counters.
type Queue struct {
	cfg      Config
	conn     *amqp.Connection
	channel  *amqp.Channel
	counters *queue.Counters
	logger   *slog.Logger

	// amqp channels are not safe for concurrent publishes
	mu         sync.Mutex
	consumeOne sync.Once
	deliveries <-chan amqp.Delivery
	consumeErr error
}

func New(cfg Config, counters *queue.Counters, logger *slog.Logger) (*Queue, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{cfg: cfg, counters: counters, logger: logger}
	if err := q.connect(); err != nil {
		return nil, fmt.Errorf("create rabbitmq queue: %w", err)
	}
	return q, nil
}

func (q *Queue) connect() error {
	var err error
	for attempt := 1; attempt <= q.cfg.RetryAttempts; attempt++ {
		q.conn, err = amqp.DialConfig(q.cfg.URL, amqp.Config{Heartbeat: q.cfg.Heartbeat, Locale: "en_US"})
		if err == nil {
			break
		}
		q.logger.Warn("rabbitmq dial failed", "attempt", attempt, "max_attempts", q.cfg.RetryAttempts, "error", err)
		if attempt < q.cfg.RetryAttempts {
			time.Sleep(q.cfg.RetryInterval)
		}
	}
	if err != nil {
		return fmt.Errorf("connect after %d attempts: %w", q.cfg.RetryAttempts, err)
	}

	q.channel, err = q.conn.Channel()
	if err != nil {
		q.conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := q.setup(); err != nil {
		q.channel.Close()
		q.conn.Close()
		return err
	}

	q.logger.Info("rabbitmq queue ready", "exchange", q.cfg.Exchange, "queue", q.cfg.QueueName, "prefetch", q.cfg.Prefetch)
	return nil
}

func (q *Queue) setup() error {
	if err := q.channel.ExchangeDeclare(q.cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := q.channel.QueueDeclare(q.cfg.QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := q.channel.QueueBind(q.cfg.QueueName, q.cfg.QueueName, q.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	if err := q.channel.Qos(q.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	return nil
}

// Enqueue publishes with exponential backoff between attempts.
func (q *Queue) Enqueue(ctx context.Context, job models.Job) (string, error) {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	handle, body, err := queue.Encode(job)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= q.cfg.PublishRetries; attempt++ {
		lastErr = q.publish(ctx, handle, body)
		if lastErr == nil {
			return handle, nil
		}
		if q.conn.IsClosed() {
			return "", queue.ErrClosed
		}
		if attempt < q.cfg.PublishRetries {
			delay := q.cfg.PublishRetryDelay * time.Duration(1<<attempt)
			q.logger.Warn("publish failed, retrying",
				"fingerprint", job.Fingerprint, "attempt", attempt+1, "retry_after", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return "", fmt.Errorf("publish job %s after %d attempts: %w", job.Fingerprint, q.cfg.PublishRetries+1, lastErr)
}

func (q *Queue) publish(ctx context.Context, handle string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.channel.PublishWithContext(ctx, q.cfg.Exchange, q.cfg.QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    handle,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
}

func (q *Queue) consume() (<-chan amqp.Delivery, error) {
	q.consumeOne.Do(func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.deliveries, q.consumeErr = q.channel.Consume(q.cfg.QueueName, "", false, false, false, false, nil)
	})
	return q.deliveries, q.consumeErr
}

func (q *Queue) Dequeue(ctx context.Context) (*queue.Delivery, error) {
	deliveries, err := q.consume()
	if err != nil {
		return nil, fmt.Errorf("start consumer: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return nil, queue.ErrClosed
			}
			d, err := queue.Decode(msg.Body)
			if err != nil {
				q.logger.Error("discarding undecodable job", "error", err)
				if nackErr := msg.Nack(false, false); nackErr != nil {
					q.logger.Error("failed to nack message", "error", nackErr)
				}
				continue
			}
			d.Tag = msg.DeliveryTag
			return d, nil
		}
	}
}

// Ack always acknowledges; failed jobs are recorded in the ledger, not retried.
func (q *Queue) Ack(ctx context.Context, d *queue.Delivery, succeeded bool) error {
	q.mu.Lock()
	err := q.channel.Ack(d.Tag, false)
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("ack job %s: %w", d.Job.Fingerprint, err)
	}
	return q.counters.Incr(ctx, succeeded)
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	info, err := q.channel.QueueDeclarePassive(q.cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("inspect queue: %w", err)
	}
	return int64(info.Messages), nil
}

func (q *Queue) FailedCount(ctx context.Context) (int64, error) {
	return q.counters.Failed(ctx)
}

func (q *Queue) FinishedCount(ctx context.Context) (int64, error) {
	return q.counters.Finished(ctx)
}

// Stats reports ready messages as QueueLength. RabbitMQ does not expose
// unacked counts through a passive declare, so InFlight is always zero.
func (q *Queue) Stats(ctx context.Context) (queue.Stats, error) {
	length, err := q.Len(ctx)
	if err != nil {
		return queue.Stats{}, err
	}
	failed, err := q.counters.Failed(ctx)
	if err != nil {
		return queue.Stats{}, err
	}
	finished, err := q.counters.Finished(ctx)
	if err != nil {
		return queue.Stats{}, err
	}
	return queue.Stats{QueueLength: length, Failed: failed, Finished: finished}, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	if q.conn == nil || q.conn.IsClosed() {
		return queue.ErrClosed
	}
	return nil
}

func (q *Queue) Close() error {
	if q.channel != nil {
		if err := q.channel.Close(); err != nil {
			q.logger.Error("failed to close rabbitmq channel", "error", err)
		}
	}
	if q.conn != nil && !q.conn.IsClosed() {
		return q.conn.Close()
	}
	return nil
}

var _ queue.Queue = (*Queue)(nil)
