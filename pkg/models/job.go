package models

import "time"

const (
	StatusProcessing = "processing"
	StatusFinished   = "finished"
	StatusFailed     = "failed"
)

// Stage labels written to a record while a worker owns it.
const (
	StageInitializing   = "initializing"
	StageVerification   = "verification"
	StageAnalysis       = "analysis"
	StageInvestment     = "investment"
	StageRiskAssessment = "risk_assessment"
	StageCompleted      = "completed"
)

// IsTerminal reports whether status is finished or failed.
func IsTerminal(status string) bool {
	return status == StatusFinished || status == StatusFailed
}

// Job is the descriptor carried on the queue. The worker that dequeues it
// runs the pipeline for Fingerprint and writes the terminal status.
type Job struct {
	Fingerprint string        `json:"fingerprint"`
	Query       string        `json:"query"`
	FilePath    string        `json:"file_path"`
	FileName    string        `json:"file_name"`
	Timeout     time.Duration `json:"timeout"`
	EnqueuedAt  time.Time     `json:"enqueued_at"`
}
