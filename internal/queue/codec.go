package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// Encode assigns a fresh handle to job and serializes it for the wire.
func Encode(job models.Job) (string, []byte, error) {
	handle := uuid.NewString()
	raw, err := json.Marshal(envelope{Handle: handle, Job: job})
	if err != nil {
		return "", nil, fmt.Errorf("encode job %s: %w", job.Fingerprint, err)
	}
	return handle, raw, nil
}

// Decode parses a wire payload. Payloads without a fingerprint are rejected.
func Decode(raw []byte) (*Delivery, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if env.Job.Fingerprint == "" {
		return nil, fmt.Errorf("%w: missing fingerprint", ErrInvalidPayload)
	}
	return &Delivery{Handle: env.Handle, Job: env.Job, Raw: raw}, nil
}
