package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/analysis"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/api/response"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

// Submitter defines the interface the upload handler depends on.
type Submitter interface {
	Submit(ctx context.Context, up analysis.Upload) (*analysis.Submission, error)
}

type uploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result,omitempty"`
	JobID   string `json:"job_id"`
	Cached  bool   `json:"cached,omitempty"`
}

// NewUploadHandler returns an http.HandlerFunc for POST /upload.
func NewUploadHandler(svc Submitter, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxBytes > 0 {
			if r.ContentLength > maxBytes {
				tooLarge(w)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				tooLarge(w)
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Expected a multipart form upload", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "file is required", nil)
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Could not read uploaded file", nil)
			return
		}

		sub, err := svc.Submit(r.Context(), analysis.Upload{
			FileName: header.Filename,
			Content:  content,
			Query:    r.FormValue("query"),
		})
		if err != nil {
			switch {
			case errors.Is(err, analysis.ErrUnsupportedFileType):
				response.Error(w, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE",
					"Only PDF files are supported.", nil)
			case errors.Is(err, analysis.ErrEmptyFile):
				response.Error(w, http.StatusBadRequest, "EMPTY_FILE",
					"Uploaded file is empty.", nil)
			case errors.Is(err, analysis.ErrEnqueueFailed):
				response.Error(w, http.StatusInternalServerError, "ENQUEUE_FAILED",
					"Failed to enqueue job", nil)
			case errors.Is(err, analysis.ErrSaveFailed):
				response.Error(w, http.StatusInternalServerError, "STORAGE_FAILED",
					"Failed to store uploaded file", nil)
			default:
				slog.Error("upload failed", "file_name", header.Filename, "error", err)
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		rec := sub.Record
		if !sub.Cached {
			response.Accepted(w, uploadResponse{
				Status:  models.StatusProcessing,
				Message: "Job enqueued for analysis.",
				JobID:   rec.Fingerprint,
			})
			return
		}

		out := uploadResponse{Status: rec.Status, JobID: rec.Fingerprint, Cached: true}
		switch rec.Status {
		case models.StatusFinished:
			out.Message = "Result found in cache."
			out.Result = rec.Result
		case models.StatusFailed:
			out.Message = rec.Message
		default:
			out.Message = "Job is still processing."
		}
		response.JSON(w, out)
	}
}

func tooLarge(w http.ResponseWriter) {
	response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
		"Uploaded file exceeds the size limit", nil)
}
