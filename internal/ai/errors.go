package ai

import "github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/llmhttp"

var (
	ErrProviderUnavailable = llmhttp.ErrUnavailable
	ErrInferenceTimeout    = llmhttp.ErrTimeout
	ErrInvalidResponse     = llmhttp.ErrInvalidResponse
)
