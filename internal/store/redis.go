package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/cache"
	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/pkg/models"
)

// KEYS[1] record hash. ARGV[1..] field/value pairs. Returns the existing
// hash, or nil when this call created it. Queued records carry no TTL; the
// processing TTL starts at Claim.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return redis.call('HGETALL', KEYS[1])
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return false
`)

// KEYS[1] record hash. ARGV[1] processing TTL ms, ARGV[2] now.
var claimScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') ~= 'processing' then
  return 0
end
redis.call('HSETNX', KEYS[1], 'processing_started_at', ARGV[2])
local ttl = tonumber(ARGV[1])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// KEYS[1] record hash. ARGV[1] stage, ARGV[2] now.
var stageScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') ~= 'processing' then
  return 0
end
redis.call('HSET', KEYS[1], 'current_stage', ARGV[1])
redis.call('HSETNX', KEYS[1], 'processing_started_at', ARGV[2])
return 1
`)

// KEYS[1] record hash. ARGV[1] result TTL ms, ARGV[2] status, ARGV[3]
// timestamp field, ARGV[4] now, ARGV[5..] field/value pairs.
var terminalScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') ~= 'processing' then
  return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[2], unpack(ARGV, 5))
redis.call('HSETNX', KEYS[1], ARGV[3], ARGV[4])
local ttl = tonumber(ARGV[1])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
else
  redis.call('PERSIST', KEYS[1])
end
return 1
`)

// RedisStore implements Store as one Redis hash per fingerprint. Status
// transitions run as Lua scripts so concurrent writers see a single winner.
type RedisStore struct {
	client        redis.UniversalClient
	resultTTL     time.Duration
	processingTTL time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewRedisStore builds a store. A zero resultTTL keeps terminal records
// forever; a zero processingTTL never expires claimed ones.
func NewRedisStore(client redis.UniversalClient, resultTTL, processingTTL time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{
		client:        client,
		resultTTL:     resultTTL,
		processingTTL: processingTTL,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *RedisStore) CreateOrGet(ctx context.Context, rec models.NewRecord) (*models.Record, bool, error) {
	now := s.timestamp()
	args := []any{
		"fingerprint", rec.Fingerprint,
		"status", models.StatusProcessing,
		"message", MessageAccepted,
		"current_stage", models.StageInitializing,
		"file_name", rec.FileName,
		"query", rec.Query,
		"created_at", now,
		"started_at", now,
	}

	res, err := createScript.Run(ctx, s.client, []string{cache.ResultKey(rec.Fingerprint)}, args...).StringSlice()
	if errors.Is(err, redis.Nil) {
		created, err := s.Get(ctx, rec.Fingerprint)
		if err != nil {
			return nil, false, err
		}
		return created, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create record %s: %w", rec.Fingerprint, err)
	}

	fields := make(map[string]string, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		fields[res[i]] = res[i+1]
	}
	return parseRecord(rec.Fingerprint, fields), true, nil
}

func (s *RedisStore) Claim(ctx context.Context, fingerprint string) (bool, error) {
	applied, err := claimScript.Run(ctx, s.client, []string{cache.ResultKey(fingerprint)},
		s.processingTTL.Milliseconds(), s.timestamp()).Int()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", fingerprint, err)
	}
	return applied == 1, nil
}

func (s *RedisStore) SetStage(ctx context.Context, fingerprint, stage string) error {
	applied, err := stageScript.Run(ctx, s.client, []string{cache.ResultKey(fingerprint)}, stage, s.timestamp()).Int()
	if err != nil {
		return fmt.Errorf("set stage %s on %s: %w", stage, fingerprint, err)
	}
	if applied == 0 {
		s.logger.Debug("stage update ignored", "fingerprint", fingerprint, "stage", stage)
	}
	return nil
}

func (s *RedisStore) SetFinished(ctx context.Context, fingerprint, result string) error {
	return s.terminal(ctx, fingerprint, models.StatusFinished, "completed_at",
		"result", result,
		"message", MessageFinished,
		"current_stage", models.StageCompleted,
	)
}

func (s *RedisStore) SetFailed(ctx context.Context, fingerprint, message, detail string) error {
	return s.terminal(ctx, fingerprint, models.StatusFailed, "failed_at",
		"message", message,
		"error_details", detail,
		"result", "",
	)
}

func (s *RedisStore) terminal(ctx context.Context, fingerprint, status, tsField string, fields ...any) error {
	args := append([]any{s.resultTTL.Milliseconds(), status, tsField, s.timestamp()}, fields...)
	applied, err := terminalScript.Run(ctx, s.client, []string{cache.ResultKey(fingerprint)}, args...).Int()
	if err != nil {
		return fmt.Errorf("set %s on %s: %w", status, fingerprint, err)
	}
	if applied == 0 {
		s.logger.Debug("terminal update ignored", "fingerprint", fingerprint, "status", status)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*models.Record, error) {
	fields, err := s.client.HGetAll(ctx, cache.ResultKey(fingerprint)).Result()
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", fingerprint, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return parseRecord(fingerprint, fields), nil
}

func parseRecord(fingerprint string, f map[string]string) *models.Record {
	return &models.Record{
		Fingerprint:         fingerprint,
		Status:              f["status"],
		Stage:               f["current_stage"],
		Message:             f["message"],
		Result:              f["result"],
		ErrorDetails:        f["error_details"],
		FileName:            f["file_name"],
		Query:               f["query"],
		CreatedAt:           parseTime(f["created_at"]),
		StartedAt:           parseTime(f["started_at"]),
		ProcessingStartedAt: parseTime(f["processing_started_at"]),
		CompletedAt:         parseTime(f["completed_at"]),
		FailedAt:            parseTime(f["failed_at"]),
	}
}

func parseTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return nil
	}
	return &t
}

var _ Store = (*RedisStore)(nil)
