package vllm

import (
	"strings"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/llmhttp"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/openai"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
)

// NewProvider points the OpenAI-compatible client at a vLLM server's /v1 API.
func NewProvider(cfg config.VLLMConfig, opts llmhttp.Options) *openai.Provider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return openai.NewCompatible("vllm", base, "", cfg.Model, opts)
}
