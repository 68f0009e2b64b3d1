package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── mocks ───────────────────────────────────────────────────────────────────

type testPinger struct {
	err error
}

func (p *testPinger) Ping(_ context.Context) error { return p.err }

type testQueue struct {
	length int64
	err    error
}

func (q *testQueue) Len(_ context.Context) (int64, error) { return q.length, q.err }

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ─── health handler tests ───────────────────────────────────────────────────

func TestHealthHandler_Healthy(t *testing.T) {
	h := healthHandler(&testPinger{}, &testQueue{length: 4}, nil)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["redis"])
	assert.Equal(t, float64(4), body["queue_length"])
	assert.Equal(t, "disabled", body["archive"])

	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestHealthHandler_RedisDown(t *testing.T) {
	h := healthHandler(&testPinger{err: errors.New("connection refused")}, &testQueue{}, nil)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Contains(t, body["error"], "connection refused")
}

func TestHealthHandler_QueueDown(t *testing.T) {
	h := healthHandler(&testPinger{}, &testQueue{err: errors.New("broker gone")}, nil)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decodeBody(t, w)["status"])
}

func TestHealthHandler_ArchiveDegradedStaysHealthy(t *testing.T) {
	h := healthHandler(&testPinger{}, &testQueue{}, &testPinger{err: errors.New("db down")})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "degraded", decodeBody(t, w)["archive"])
}

func TestHealthHandler_ArchiveConnected(t *testing.T) {
	h := healthHandler(&testPinger{}, &testQueue{}, &testPinger{})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, "connected", decodeBody(t, w)["archive"])
}

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnInvalidConfig(t *testing.T) {
	t.Setenv("API_PORT", "0")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnUnreachableRedis(t *testing.T) {
	t.Setenv("API_PORT", "8000")
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0")
	t.Setenv("DATABASE_URL", "")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}
