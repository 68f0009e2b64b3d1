// Package analysis accepts uploads, deduplicates them by content and hands
// new documents to the job queue.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/filestore"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/store"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

var (
	ErrUnsupportedFileType = errors.New("only PDF files are supported")
	ErrEmptyFile           = errors.New("uploaded file is empty")
	ErrSaveFailed          = errors.New("failed to save upload")
	ErrEnqueueFailed       = errors.New("failed to enqueue job")
)

const DefaultQuery = "Analyze this financial document for investment insights"

// FileSaver persists an upload under its fingerprint. *filestore.Store
// implements it.
type FileSaver interface {
	Save(fingerprint string, data []byte) (string, error)
}

// Upload is one submitted document.
type Upload struct {
	FileName string
	Content  []byte
	Query    string
}

// Submission is the outcome of Submit. Cached is true when the fingerprint
// was already known, in which case Record is the stored record as found.
type Submission struct {
	Record *models.Record
	Cached bool
	Handle string
}

type Service struct {
	store      store.Store
	queue      queue.Queue
	files      FileSaver
	jobTimeout time.Duration
	logger     *slog.Logger
}

func NewService(st store.Store, q queue.Queue, files FileSaver, jobTimeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, queue: q, files: files, jobTimeout: jobTimeout, logger: logger}
}

// Validate rejects uploads that must never reach the store.
func Validate(up Upload) error {
	if !strings.EqualFold(filepath.Ext(up.FileName), ".pdf") {
		return ErrUnsupportedFileType
	}
	if len(up.Content) == 0 {
		return ErrEmptyFile
	}
	return nil
}

// NormalizeQuery trims q and falls back to DefaultQuery.
func NormalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return DefaultQuery
	}
	return q
}

// Submit claims the upload's fingerprint. A known fingerprint returns the
// existing record untouched. A new one is saved to disk and enqueued; if
// either step fails the record is marked failed before returning.
func (s *Service) Submit(ctx context.Context, up Upload) (*Submission, error) {
	if err := Validate(up); err != nil {
		return nil, err
	}
	query := NormalizeQuery(up.Query)
	fp := Fingerprint(up.Content)
	log := s.logger.With("fingerprint", fp, "file_name", up.FileName)

	rec, existed, err := s.store.CreateOrGet(ctx, models.NewRecord{
		Fingerprint: fp,
		FileName:    up.FileName,
		Query:       query,
	})
	if err != nil {
		return nil, fmt.Errorf("claim fingerprint: %w", err)
	}
	if existed {
		log.Info("upload matched existing record", "status", rec.Status)
		return &Submission{Record: rec, Cached: true}, nil
	}

	path, err := s.files.Save(fp, up.Content)
	if err != nil && !errors.Is(err, filestore.ErrExists) {
		s.markFailed(ctx, log, fp, "Failed to save file: "+err.Error())
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	handle, err := s.queue.Enqueue(ctx, models.Job{
		Fingerprint: fp,
		Query:       query,
		FilePath:    path,
		FileName:    up.FileName,
		Timeout:     s.jobTimeout,
	})
	if err != nil {
		s.markFailed(ctx, log, fp, "Failed to enqueue job: "+err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}

	log.Info("job enqueued", "handle", handle, "bytes", len(up.Content))
	return &Submission{Record: rec, Handle: handle}, nil
}

func (s *Service) markFailed(ctx context.Context, log *slog.Logger, fp, message string) {
	log.Error("submission failed", "message", message)
	if err := s.store.SetFailed(context.WithoutCancel(ctx), fp, message, ""); err != nil {
		log.Error("failed to mark record failed", "error", err)
	}
}

// Status returns the record for job_id, or store.ErrNotFound.
func (s *Service) Status(ctx context.Context, jobID string) (*models.Record, error) {
	return s.store.Get(ctx, jobID)
}

func (s *Service) QueueStats(ctx context.Context) (queue.Stats, error) {
	return s.queue.Stats(ctx)
}
