package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api/response"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/store"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

type StatusReader interface {
	Status(ctx context.Context, jobID string) (*models.Record, error)
}

// NewStatusHandler returns an http.HandlerFunc for GET /status/{job_id}.
// The body is the record itself; error_details never leaves the server.
func NewStatusHandler(svc StatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "job_id")

		rec, err := svc.Status(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Write(w, http.StatusNotFound, map[string]string{
					"status":  "not_found",
					"message": "Job not found.",
				})
				return
			}
			slog.Error("status lookup failed", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, rec)
	}
}

type QueueStatser interface {
	QueueStats(ctx context.Context) (queue.Stats, error)
}

type queueStatsResponse struct {
	queue.Stats
	Status string `json:"status"`
}

// NewQueueStatsHandler returns an http.HandlerFunc for GET /queue/stats.
func NewQueueStatsHandler(svc QueueStatser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.QueueStats(r.Context())
		if err != nil {
			slog.Error("queue stats failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "QUEUE_UNAVAILABLE",
				"Could not read queue statistics", nil)
			return
		}
		response.JSON(w, queueStatsResponse{Stats: stats, Status: "healthy"})
	}
}
