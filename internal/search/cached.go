package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/sandeepgoudmacha/Financial-Document-Analyzer/internal/cache"
)

const DefaultCacheTTL = 24 * time.Hour

// CachedSearcher memoizes another Searcher's results in the shared cache.
// Cache failures fall through to the live search.
type CachedSearcher struct {
	inner  Searcher
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedSearcher(inner Searcher, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedSearcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSearcher{inner: inner, cache: c, ttl: ttl, logger: logger}
}

func (s *CachedSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	key := cache.SearchResultKey(hashQuery(query))

	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("search cache read failed", "error", err)
	} else if ok {
		var results []Result
		if err := json.Unmarshal(raw, &results); err == nil {
			return results, nil
		}
	}

	results, err := s.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(results); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("search cache write failed", "error", err)
		}
	}
	return results, nil
}

func hashQuery(q string) string {
	sum := sha256.Sum256([]byte(strings.Join(strings.Fields(strings.ToLower(q)), " ")))
	return hex.EncodeToString(sum[:])
}
