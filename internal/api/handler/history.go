package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api/response"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/archive"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// NewHistoryHandler returns an http.HandlerFunc for GET /history.
func NewHistoryHandler(a archive.Archive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, err := intParam(q.Get("page"), 1)
		if err != nil || page < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
			return
		}
		limit, err := intParam(q.Get("limit"), 20)
		if err != nil || limit < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
			return
		}
		status := q.Get("status")
		if status != "" && !models.IsTerminal(status) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "status must be finished or failed", nil)
			return
		}

		filter := archive.Filter{Status: status, Page: page, Limit: limit}.Normalize()
		items, total, err := a.List(r.Context(), filter)
		if err != nil {
			slog.Error("history listing failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		if items == nil {
			items = []*models.ArchivedAnalysis{}
		}

		response.Collection(w, items, response.NewPaginationMeta(filter.Page, filter.Limit, total))
	}
}

// NewHistoryGetHandler returns an http.HandlerFunc for GET /history/{job_id}.
func NewHistoryGetHandler(a archive.Archive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "job_id")

		item, err := a.Get(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, archive.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Analysis not found in history", nil)
				return
			}
			slog.Error("history lookup failed", "job_id", jobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, item)
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
