package handler

import (
	"net/http"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api/response"
)

const (
	ServiceName = "Financial Document Analyzer API"
	Version     = "1.0.0"
)

// NewIndexHandler returns an http.HandlerFunc for GET /.
func NewIndexHandler() http.HandlerFunc {
	body := map[string]any{
		"message": ServiceName,
		"version": Version,
		"endpoints": map[string]string{
			"upload":      "POST /upload",
			"status":      "GET /status/{job_id}",
			"queue_stats": "GET /queue/stats",
			"health":      "GET /health",
			"history":     "GET /history",
		},
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, body)
	}
}
