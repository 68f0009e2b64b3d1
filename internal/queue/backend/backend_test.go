package backend_test

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/config"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/queue/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Redis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	q, err := backend.Open(config.QueueConfig{Backend: "redis", Name: "default", PollTimeout: time.Second}, 2, client, nil)
	require.NoError(t, err)
	assert.IsType(t, &queue.RedisQueue{}, q)
}

func TestOpen_Unknown(t *testing.T) {
	_, err := backend.Open(config.QueueConfig{Backend: "kafka"}, 0, nil, nil)
	assert.ErrorContains(t, err, "kafka")
}
