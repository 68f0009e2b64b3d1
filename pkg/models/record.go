package models

import "time"

// Record is the job ledger entry for one content fingerprint. The API polls
// it; only the worker owning the job writes to it after creation.
type Record struct {
	Fingerprint         string     `json:"job_id"`
	Status              string     `json:"status"`
	Stage               string     `json:"current_stage,omitempty"`
	Message             string     `json:"message,omitempty"`
	Result              string     `json:"result,omitempty"`
	ErrorDetails        string     `json:"-"`
	FileName            string     `json:"file_name,omitempty"`
	Query               string     `json:"query,omitempty"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	FailedAt            *time.Time `json:"failed_at,omitempty"`
}

// NewRecord holds the fields supplied when a fingerprint is first claimed.
type NewRecord struct {
	Fingerprint string
	FileName    string
	Query       string
}

// TerminalAt returns the completion or failure time, whichever is set.
func (r *Record) TerminalAt() *time.Time {
	if r.CompletedAt != nil {
		return r.CompletedAt
	}
	return r.FailedAt
}
