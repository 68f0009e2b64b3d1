// Package models contains shared data models used across the analyzer codebase.
package models

import "context"

// AIProvider is the core interface that all LLM integrations must implement.
// Callers depend on this interface, never on a concrete provider.
type AIProvider interface {
	// Complete sends a single prompt and returns the model's text output.
	Complete(ctx context.Context, p Prompt) (string, error)
	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string
}

// Prompt is one LLM request. System carries the role and rules, User the task.
type Prompt struct {
	System string
	User   string
}
