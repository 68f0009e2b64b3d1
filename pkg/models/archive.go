package models

import (
	"time"

	"github.com/google/uuid"
)

// ArchivedAnalysis is the durable copy of a terminal record kept in Postgres
// after the Redis ledger entry expires.
type ArchivedAnalysis struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	Fingerprint  string     `db:"fingerprint"   json:"job_id"`
	Status       string     `db:"status"        json:"status"`
	FileName     string     `db:"file_name"     json:"file_name"`
	Query        string     `db:"query"         json:"query"`
	Result       string     `db:"result"        json:"result,omitempty"`
	Message      string     `db:"message"       json:"message,omitempty"`
	ErrorDetails string     `db:"error_details" json:"-"`
	Provider     string     `db:"provider"      json:"provider,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	ArchivedAt   time.Time  `db:"archived_at"   json:"archived_at"`
}
