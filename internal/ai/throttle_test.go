package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ calls int }

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, p models.Prompt) (string, error) {
	s.calls++
	return "ok: " + p.User, nil
}

type memCache struct {
	mu      sync.Mutex
	counts  map[string]int64
	incrErr error
}

func newMemCache() *memCache { return &memCache{counts: map[string]int64{}} }

func (m *memCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (m *memCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (m *memCache) Ping(context.Context) error                                { return nil }

func (m *memCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	m.counts[key]++
	return m.counts[key], nil
}

func TestNewThrottled_DisabledReturnsInner(t *testing.T) {
	p := &stubProvider{}
	assert.Same(t, p, NewThrottled(p, newMemCache(), 0, nil))
}

func TestThrottled_UnderLimit(t *testing.T) {
	p := &stubProvider{}
	th := NewThrottled(p, newMemCache(), 5, nil)

	for i := 0; i < 5; i++ {
		out, err := th.Complete(context.Background(), models.Prompt{User: "x"})
		require.NoError(t, err)
		assert.Equal(t, "ok: x", out)
	}
	assert.Equal(t, 5, p.calls)
	assert.Equal(t, "stub", th.Name())
}

func TestThrottled_OverLimitWaitsForNextMinute(t *testing.T) {
	p := &stubProvider{}
	th := NewThrottled(p, newMemCache(), 1, nil).(*Throttled)

	base := time.Date(2026, 1, 1, 10, 0, 59, 950_000_000, time.UTC)
	calls := 0
	th.now = func() time.Time {
		calls++
		if calls <= 2 {
			return base
		}
		return base.Add(time.Minute)
	}

	_, err := th.Complete(context.Background(), models.Prompt{User: "first"})
	require.NoError(t, err)

	start := time.Now()
	_, err = th.Complete(context.Background(), models.Prompt{User: "second"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Equal(t, 2, p.calls)
}

func TestThrottled_OverLimitHonorsContext(t *testing.T) {
	p := &stubProvider{}
	th := NewThrottled(p, newMemCache(), 1, nil).(*Throttled)
	fixed := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return fixed }

	_, err := th.Complete(context.Background(), models.Prompt{User: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = th.Complete(ctx, models.Prompt{User: "second"})
	assert.ErrorIs(t, err, ErrInferenceTimeout)
	assert.Equal(t, 1, p.calls)
}

func TestThrottled_CounterErrorDoesNotBlock(t *testing.T) {
	p := &stubProvider{}
	c := newMemCache()
	c.incrErr = errors.New("redis down")
	th := NewThrottled(p, c, 1, nil)

	_, err := th.Complete(context.Background(), models.Prompt{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
}
