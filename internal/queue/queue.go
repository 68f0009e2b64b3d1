// Package queue carries job descriptors from the API to workers.
package queue

import (
	"context"
	"errors"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

var (
	ErrClosed         = errors.New("queue closed")
	ErrInvalidPayload = errors.New("invalid job payload")
)

// Queue is an at-least-once FIFO of jobs.
type Queue interface {
	Enqueue(ctx context.Context, job models.Job) (string, error)
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (*Delivery, error)
	// Ack removes the delivery from the in-flight set and counts the outcome.
	Ack(ctx context.Context, d *Delivery, succeeded bool) error
	Len(ctx context.Context) (int64, error)
	FailedCount(ctx context.Context) (int64, error)
	FinishedCount(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// Delivery is one dequeued job. Raw is the exact payload as stored by the
// backend and is what Ack uses to locate it.
type Delivery struct {
	Handle string
	Job    models.Job
	Raw    []byte
	Tag    uint64
}

type Stats struct {
	QueueLength int64 `json:"queue_length"`
	InFlight    int64 `json:"in_flight"`
	Failed      int64 `json:"failed_jobs"`
	Finished    int64 `json:"finished_jobs"`
}

// envelope is the wire format shared by every backend.
type envelope struct {
	Handle string     `json:"handle"`
	Job    models.Job `json:"job"`
}
