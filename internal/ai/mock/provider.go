package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/ai"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_        string
	CompleteFunc func(ctx context.Context, prompt models.Prompt) (string, error)

	mu      sync.Mutex
	prompts []models.Prompt
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Complete(ctx context.Context, prompt models.Prompt) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "", nil
}

// Prompts returns every prompt received so far, in call order.
func (m *MockProvider) Prompts() []models.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Prompt, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Calls returns the number of Complete invocations.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// NewMockProvider returns a MockProvider that answers every stage with a
// short canned section. The verification stage gets a VALID verdict.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		CompleteFunc: func(_ context.Context, p models.Prompt) (string, error) {
			if strings.Contains(p.System, "compliance") {
				return "Income statement, balance sheet and cash flow present.\nVERDICT: VALID", nil
			}
			return "Mock section for testing", nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		CompleteFunc: func(_ context.Context, _ models.Prompt) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		CompleteFunc: func(ctx context.Context, _ models.Prompt) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
