package anthropic

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

const (
	DefaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	maxTokens      = 4096
)

// Provider implements models.AIProvider using the Messages API.
type Provider struct {
	cfg     config.AnthropicConfig
	baseURL string
	opts    llmhttp.Options
	client  *http.Client
}

func NewProvider(cfg config.AnthropicConfig, opts llmhttp.Options) *Provider {
	return &Provider{cfg: cfg, baseURL: DefaultBaseURL, opts: opts, client: opts.Client()}
}

// WithBaseURL overrides the API host.
func (p *Provider) WithBaseURL(u string) *Provider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *Provider) Name() string { return "anthropic" }

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Provider) Complete(ctx context.Context, prompt models.Prompt) (string, error) {
	req := messagesRequest{
		Model:       p.cfg.Model,
		MaxTokens:   maxTokens,
		System:      prompt.System,
		Temperature: p.opts.Temperature,
		Messages:    []message{{Role: "user", Content: prompt.User}},
	}
	headers := map[string]string{
		"x-api-key":         p.cfg.APIKey,
		"anthropic-version": apiVersion,
	}

	raw, _, err := llmhttp.SendJSON(ctx, p.client, p.baseURL+"/v1/messages", req, headers, p.opts.Log())
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var mr messagesResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return "", fmt.Errorf("anthropic: %w: decode: %v", llmhttp.ErrInvalidResponse, err)
	}
	var sb strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("anthropic: %w: no text content", llmhttp.ErrInvalidResponse)
	}
	return text, nil
}

var _ models.AIProvider = (*Provider)(nil)
