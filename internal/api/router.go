package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api/middleware"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
// A nil handler is served as 501.
type Dependencies struct {
	UploadRateLimit *mw.RateLimit

	IndexHandler      http.HandlerFunc
	HealthHandler     http.HandlerFunc
	UploadHandler     http.HandlerFunc
	StatusHandler     http.HandlerFunc
	QueueStatsHandler http.HandlerFunc
	HistoryHandler    http.HandlerFunc
	HistoryGetHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.CORS)

	r.Get("/", orNotImplemented(deps.IndexHandler))
	r.Get("/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.UploadRateLimit != nil {
			r.Use(deps.UploadRateLimit.Limit)
		}
		r.Post("/upload", orNotImplemented(deps.UploadHandler))
	})

	r.Get("/status/{job_id}", orNotImplemented(deps.StatusHandler))
	r.Get("/queue/stats", orNotImplemented(deps.QueueStatsHandler))

	r.Get("/history", orNotImplemented(deps.HistoryHandler))
	r.Get("/history/{job_id}", orNotImplemented(deps.HistoryGetHandler))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not available", nil)
	}
}
