package store

import (
	"context"
	"errors"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store is the job ledger. One record per content fingerprint; all writes are
// visible to pollers as soon as they return.
type Store interface {
	Ping(ctx context.Context) error

	// CreateOrGet claims rec.Fingerprint atomically. When a record already
	// exists it is returned unchanged with existed=true.
	CreateOrGet(ctx context.Context, rec models.NewRecord) (record *models.Record, existed bool, err error)
	// Claim marks the start of work on a processing record and starts its
	// processing TTL. It reports false when the record is missing or terminal.
	Claim(ctx context.Context, fingerprint string) (bool, error)
	// SetStage records the current pipeline step. Ignored once terminal.
	SetStage(ctx context.Context, fingerprint, stage string) error
	// SetFinished and SetFailed apply only while the record is processing.
	// The first terminal write wins; later ones are no-ops.
	SetFinished(ctx context.Context, fingerprint, result string) error
	SetFailed(ctx context.Context, fingerprint, message, detail string) error
	Get(ctx context.Context, fingerprint string) (*models.Record, error)
}

// Messages written alongside status changes.
const (
	MessageAccepted = "Job is being processed."
	MessageFinished = "Financial analysis complete."
)
