// Package gemini calls Google's Gemini API through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/llmhttp"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
	"google.golang.org/genai"
)

// Provider implements models.AIProvider using genai.
type Provider struct {
	client *genai.Client
	model  string
	opts   llmhttp.Options
}

func NewProvider(ctx context.Context, cfg config.GeminiConfig, opts llmhttp.Options) (*Provider, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.Client(),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{client: client, model: cfg.Model, opts: opts}, nil
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) Complete(ctx context.Context, prompt models.Prompt) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(p.opts.Temperature)),
	}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(prompt.User, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", classify(err))
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w: no candidates", llmhttp.ErrInvalidResponse)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: %w: empty text", llmhttp.ErrInvalidResponse)
	}
	return text, nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return fmt.Errorf("%w: %v", llmhttp.ErrUnavailable, err)
		}
		return fmt.Errorf("%w: %v", llmhttp.ErrInvalidResponse, err)
	}
	return llmhttp.Classify(err)
}

var _ models.AIProvider = (*Provider)(nil)
