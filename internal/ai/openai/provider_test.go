package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/llmhttp"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/openai"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/vllm"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_SendsChatRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"content":"  Revenue grew 12%.  "}}]}`))
	}))
	defer srv.Close()

	p := openai.NewProvider(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1"},
		llmhttp.Options{Temperature: 0.3})

	out, err := p.Complete(context.Background(), models.Prompt{System: "You are an analyst.", User: "Analyze."})
	require.NoError(t, err)
	assert.Equal(t, "Revenue grew 12%.", out)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.3, got["temperature"], 0.0001)
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "Analyze.", msgs[1].(map[string]any)["content"])
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := openai.NewProvider(config.OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, llmhttp.Options{})
	_, err := p.Complete(context.Background(), models.Prompt{User: "x"})
	assert.ErrorIs(t, err, llmhttp.ErrInvalidResponse)
}

func TestComplete_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := openai.NewProvider(config.OpenAIConfig{APIKey: "k", BaseURL: srv.URL}, llmhttp.Options{})
	_, err := p.Complete(context.Background(), models.Prompt{User: "x"})
	assert.ErrorIs(t, err, llmhttp.ErrUnavailable)
}

func TestVLLM_NoAuthHeaderAndV1Suffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := vllm.NewProvider(config.VLLMConfig{BaseURL: srv.URL, Model: "mistral"}, llmhttp.Options{})
	assert.Equal(t, "vllm", p.Name())

	out, err := p.Complete(context.Background(), models.Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
