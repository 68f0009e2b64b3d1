package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai/mock"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- NewMockProvider ---

func TestNewMockProvider_Name(t *testing.T) {
	p := mock.NewMockProvider()
	assert.Equal(t, "mock", p.Name())
}

func TestNewMockProvider_Complete(t *testing.T) {
	p := mock.NewMockProvider()
	out, err := p.Complete(context.Background(), models.Prompt{User: "Analyze revenue"})

	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestNewMockProvider_VerificationVerdict(t *testing.T) {
	p := mock.NewMockProvider()
	out, err := p.Complete(context.Background(), models.Prompt{System: "You are a compliance-focused specialist.", User: "Verify."})

	require.NoError(t, err)
	assert.Contains(t, out, "VERDICT: VALID")
}

func TestMockProvider_RecordsPrompts(t *testing.T) {
	p := mock.NewMockProvider()
	_, _ = p.Complete(context.Background(), models.Prompt{System: "s1", User: "u1"})
	_, _ = p.Complete(context.Background(), models.Prompt{System: "s2", User: "u2"})

	assert.Equal(t, 2, p.Calls())
	prompts := p.Prompts()
	require.Len(t, prompts, 2)
	assert.Equal(t, "u1", prompts[0].User)
	assert.Equal(t, "s2", prompts[1].System)
}

// --- NewFailingProvider ---

func TestNewFailingProvider(t *testing.T) {
	expectedErr := errors.New("provider down")
	p := mock.NewFailingProvider(expectedErr)

	assert.Equal(t, "mock-failing", p.Name())
	_, err := p.Complete(context.Background(), models.Prompt{User: "x"})
	assert.ErrorIs(t, err, expectedErr)
}

func TestNewFailingProvider_WithSentinel(t *testing.T) {
	p := mock.NewFailingProvider(ai.ErrProviderUnavailable)

	_, err := p.Complete(context.Background(), models.Prompt{User: "x"})
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
}

// --- NewTimeoutProvider ---

func TestNewTimeoutProvider_BlocksUntilCancelled(t *testing.T) {
	p := mock.NewTimeoutProvider()
	assert.Equal(t, "mock-timeout", p.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Complete(ctx, models.Prompt{User: "x"})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ai.ErrInferenceTimeout)
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

// --- Custom CompleteFunc ---

func TestMockProvider_CustomFunc(t *testing.T) {
	p := &mock.MockProvider{
		Name_: "custom",
		CompleteFunc: func(_ context.Context, prompt models.Prompt) (string, error) {
			return "echo: " + prompt.User, nil
		},
	}

	out, err := p.Complete(context.Background(), models.Prompt{User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", out)
}

func TestMockProvider_NilFunc(t *testing.T) {
	p := &mock.MockProvider{Name_: "empty"}

	out, err := p.Complete(context.Background(), models.Prompt{User: "x"})
	require.NoError(t, err)
	assert.Empty(t, out)
}
