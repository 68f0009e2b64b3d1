package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/llmhttp"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// Provider implements models.AIProvider using Ollama's /api/generate.
type Provider struct {
	cfg    config.OllamaConfig
	opts   llmhttp.Options
	client *http.Client
}

func NewProvider(cfg config.OllamaConfig, opts llmhttp.Options) *Provider {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{cfg: cfg, opts: opts, client: opts.Client()}
}

func (p *Provider) Name() string { return "ollama" }

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *Provider) Complete(ctx context.Context, prompt models.Prompt) (string, error) {
	req := generateRequest{
		Model:   p.cfg.Model,
		Prompt:  prompt.User,
		System:  prompt.System,
		Stream:  false,
		Options: map[string]any{"temperature": p.opts.Temperature},
	}

	raw, _, err := llmhttp.SendJSON(ctx, p.client, p.cfg.BaseURL+"/api/generate", req, nil, p.opts.Log())
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", fmt.Errorf("ollama: %w: decode: %v", llmhttp.ErrInvalidResponse, err)
	}
	text := strings.TrimSpace(gr.Response)
	if text == "" {
		return "", fmt.Errorf("ollama: %w: empty response", llmhttp.ErrInvalidResponse)
	}
	return text, nil
}

var _ models.AIProvider = (*Provider)(nil)
