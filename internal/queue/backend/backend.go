// Package backend opens the queue.Queue selected by QUEUE_BACKEND.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue/rabbitmq"
)

// Open returns a Redis list queue or a RabbitMQ queue. Both keep their
// finished/failed totals in Redis through client. consumers is the number of
// goroutines that will Dequeue concurrently; publish-only callers pass 0.
func Open(cfg config.QueueConfig, consumers int, client redis.UniversalClient, logger *slog.Logger) (queue.Queue, error) {
	switch cfg.Backend {
	case "", "redis":
		return queue.NewRedisQueue(client, cfg.Name, cfg.PollTimeout, logger), nil
	case "rabbitmq":
		q, err := rabbitmq.New(rabbitmq.Config{
			URL:            cfg.RabbitMQ.URL,
			Exchange:       cfg.RabbitMQ.Exchange,
			QueueName:      cfg.Name,
			Prefetch:       cfg.RabbitMQ.Prefetch,
			Consumers:      consumers,
			PublishRetries: cfg.RabbitMQ.PublishRetries,
		}, queue.NewCounters(client, cfg.Name), logger)
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}
