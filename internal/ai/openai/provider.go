// Package openai talks to any OpenAI-compatible chat/completions endpoint.
package openai

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

// Provider implements models.AIProvider over chat/completions.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	opts    llmhttp.Options
	client  *http.Client
}

func NewProvider(cfg config.OpenAIConfig, opts llmhttp.Options) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return newProvider("openai", baseURL, cfg.APIKey, cfg.Model, opts)
}

// NewCompatible returns a provider for a self-hosted OpenAI-compatible
// server. An empty apiKey sends no Authorization header.
func NewCompatible(name, baseURL, apiKey, model string, opts llmhttp.Options) *Provider {
	return newProvider(name, baseURL, apiKey, model, opts)
}

func newProvider(name, baseURL, apiKey, model string, opts llmhttp.Options) *Provider {
	return &Provider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		opts:    opts,
		client:  opts.Client(),
	}
}

func (p *Provider) Name() string { return p.name }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *Provider) Complete(ctx context.Context, prompt models.Prompt) (string, error) {
	req := chatRequest{Model: p.model, Temperature: p.opts.Temperature}
	if prompt.System != "" {
		req.Messages = append(req.Messages, message{Role: "system", Content: prompt.System})
	}
	req.Messages = append(req.Messages, message{Role: "user", Content: prompt.User})

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	raw, _, err := llmhttp.SendJSON(ctx, p.client, p.baseURL+"/chat/completions", req, headers, p.opts.Log())
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("%s: %w: decode: %v", p.name, llmhttp.ErrInvalidResponse, err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("%s: %w: no choices", p.name, llmhttp.ErrInvalidResponse)
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s: %w: empty content", p.name, llmhttp.ErrInvalidResponse)
	}
	return content, nil
}

var _ models.AIProvider = (*Provider)(nil)
