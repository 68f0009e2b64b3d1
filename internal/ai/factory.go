package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/anthropic"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/gemini"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/llmhttp"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/ollama"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/openai"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/vllm"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at worker startup.
func NewProvider(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (models.AIProvider, error) {
	opts := llmhttp.Options{
		Temperature: cfg.Temperature,
		Timeout:     cfg.InferenceTimeout,
		Logger:      logger,
	}
	switch cfg.Provider {
	case "gemini":
		return gemini.NewProvider(ctx, cfg.Gemini, opts)
	case "ollama":
		return ollama.NewProvider(cfg.Ollama, opts), nil
	case "vllm":
		return vllm.NewProvider(cfg.VLLM, opts), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI, opts), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic, opts), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, ollama, vllm, openai, anthropic", cfg.Provider)
	}
}
