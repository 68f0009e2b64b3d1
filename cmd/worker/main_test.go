package main

import (
	"context"
	"testing"
	"time"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/mock"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCache struct{}

func (nopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nopCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nopCache) Ping(context.Context) error                                { return nil }
func (nopCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}

func TestRun_FailsWithoutProviderCredentials(t *testing.T) {
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("GOOGLE_API_KEY", "")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid worker config")
}

func TestRun_FailsOnUnknownProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "watson")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_PROVIDER")
}

func TestNewRunner(t *testing.T) {
	cfg := &config.Config{
		Pipeline: config.PipelineConfig{PDFExtractor: "native", MaxDocumentChars: 1000},
	}
	r, err := newRunner(cfg, mock.NewMockProvider(), nopCache{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, r)

	cfg.Search = config.SearchConfig{SerperAPIKey: "key", BaseURL: "http://localhost", NumResults: 3, Timeout: time.Second}
	r, err = newRunner(cfg, mock.NewMockProvider(), nopCache{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestNewRunner_UnknownExtractor(t *testing.T) {
	cfg := &config.Config{Pipeline: config.PipelineConfig{PDFExtractor: "ocr"}}
	_, err := newRunner(cfg, mock.NewMockProvider(), nopCache{}, nil)
	assert.ErrorContains(t, err, "document reader")
}
