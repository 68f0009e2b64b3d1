// Package archive keeps a durable Postgres copy of terminal analyses so they
// outlive the Redis ledger's retention window.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

var ErrNotFound = errors.New("archived analysis not found")

// Archive is the data access interface for archived analyses.
type Archive interface {
	Ping(ctx context.Context) error
	Save(ctx context.Context, a *models.ArchivedAnalysis) error
	Get(ctx context.Context, fingerprint string) (*models.ArchivedAnalysis, error)
	List(ctx context.Context, filter Filter) ([]*models.ArchivedAnalysis, int, error)
}

type Filter struct {
	Status string
	Page   int
	Limit  int
}

// Normalize clamps pagination to page >= 1 and 1 <= limit <= 100.
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return f
}

// FromRecord converts a terminal ledger record into an archive row.
func FromRecord(rec *models.Record, provider string) (*models.ArchivedAnalysis, error) {
	if !models.IsTerminal(rec.Status) {
		return nil, fmt.Errorf("record %s is %s, only terminal records are archived", rec.Fingerprint, rec.Status)
	}
	a := &models.ArchivedAnalysis{
		ID:           uuid.New(),
		Fingerprint:  rec.Fingerprint,
		Status:       rec.Status,
		FileName:     rec.FileName,
		Query:        rec.Query,
		Result:       rec.Result,
		Message:      rec.Message,
		ErrorDetails: rec.ErrorDetails,
		Provider:     provider,
		CompletedAt:  rec.TerminalAt(),
		ArchivedAt:   time.Now().UTC(),
	}
	if rec.CreatedAt != nil {
		a.CreatedAt = *rec.CreatedAt
	} else {
		a.CreatedAt = a.ArchivedAt
	}
	return a, nil
}

// PostgresArchive implements Archive using pgx.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(pool *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{pool: pool}
}

func (s *PostgresArchive) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Save upserts by fingerprint; a re-run after the ledger expired replaces the old row.
func (s *PostgresArchive) Save(ctx context.Context, a *models.ArchivedAnalysis) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, fingerprint, status, file_name, query, result, message, error_details, provider, created_at, completed_at, archived_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (fingerprint) DO UPDATE SET
		   status = EXCLUDED.status,
		   file_name = EXCLUDED.file_name,
		   query = EXCLUDED.query,
		   result = EXCLUDED.result,
		   message = EXCLUDED.message,
		   error_details = EXCLUDED.error_details,
		   provider = EXCLUDED.provider,
		   created_at = EXCLUDED.created_at,
		   completed_at = EXCLUDED.completed_at,
		   archived_at = EXCLUDED.archived_at`,
		a.ID, a.Fingerprint, a.Status, a.FileName, a.Query, a.Result, a.Message,
		a.ErrorDetails, a.Provider, a.CreatedAt, a.CompletedAt, a.ArchivedAt)
	if err != nil {
		return fmt.Errorf("save archived analysis: %w", err)
	}
	return nil
}

func (s *PostgresArchive) Get(ctx context.Context, fingerprint string) (*models.ArchivedAnalysis, error) {
	var a models.ArchivedAnalysis
	err := s.pool.QueryRow(ctx,
		`SELECT id, fingerprint, status, file_name, query, result, message, error_details, provider, created_at, completed_at, archived_at
		 FROM analyses WHERE fingerprint = $1`, fingerprint,
	).Scan(&a.ID, &a.Fingerprint, &a.Status, &a.FileName, &a.Query, &a.Result, &a.Message,
		&a.ErrorDetails, &a.Provider, &a.CreatedAt, &a.CompletedAt, &a.ArchivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get archived analysis: %w", err)
	}
	return &a, nil
}

func (s *PostgresArchive) List(ctx context.Context, filter Filter) ([]*models.ArchivedAnalysis, int, error) {
	filter = filter.Normalize()

	conditions := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM analyses WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count archived analyses: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit

	// result and error_details are omitted from listings
	dataQuery := fmt.Sprintf(
		`SELECT id, fingerprint, status, file_name, query, message, provider, created_at, completed_at, archived_at
		 FROM analyses WHERE %s ORDER BY archived_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list archived analyses: %w", err)
	}
	defer rows.Close()

	var out []*models.ArchivedAnalysis
	for rows.Next() {
		var a models.ArchivedAnalysis
		if err := rows.Scan(&a.ID, &a.Fingerprint, &a.Status, &a.FileName, &a.Query, &a.Message,
			&a.Provider, &a.CreatedAt, &a.CompletedAt, &a.ArchivedAt); err != nil {
			return nil, 0, fmt.Errorf("scan archived analysis: %w", err)
		}
		out = append(out, &a)
	}
	return out, total, rows.Err()
}

var _ Archive = (*PostgresArchive)(nil)
