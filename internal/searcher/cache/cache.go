// Package cache stores query results so repeated searches skip ranking.
// Results are keyed by the query's terms and the requested limit.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/logger"
	pkgredis "github.com/Adithya-Monish-Kumar-K/soorch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/resilience"
)

const keyPrefix = "soorch:search:"

// ComputeFunc produces a result on a cache miss.
type ComputeFunc func() (*executor.SearchResult, error)

// QueryCache is implemented by RedisCache and LRUCache.
type QueryCache interface {
	GetOrCompute(ctx context.Context, query string, limit int, computeFn ComputeFunc) (*executor.SearchResult, bool, error)
	Invalidate(ctx context.Context) error
	Stats() (hits, misses int64)
}

// RedisCache stores results in Redis with the configured TTL. Redis calls go
// through a circuit breaker; while it is open every lookup is a miss and
// results are not stored.
type RedisCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewRedis(client *pkgredis.Client, cfg config.RedisConfig) *RedisCache {
	return &RedisCache{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{}),
		logger:  logger.WithComponent("query-cache").With("backend", "redis"),
	}
}

func (c *RedisCache) Get(ctx context.Context, query string, limit int) (*executor.SearchResult, bool) {
	key := buildKey(query, limit)
	var data string
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.client.Get(ctx, key)
		return err
	}, pkgredis.IsNilError)
	if err != nil {
		if !pkgredis.IsNilError(err) && !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	result.Query = query
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, query string, limit int, result *executor.SearchResult) {
	key := buildKey(query, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, data, c.cfg.CacheTTL)
	}, nil)
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *RedisCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn ComputeFunc,
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, query, limit); ok {
		return result, true, nil
	}
	key := buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return forQuery(val.(*executor.SearchResult), query), false, nil
}

// Invalidate drops every cached result. The query service calls it at
// startup so results computed over an earlier index are never served.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

// BreakerState reports whether Redis calls are currently being skipped.
func (c *RedisCache) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *RedisCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// forQuery returns result as seen by a caller who asked for query. Queries
// that differ only outside their terms share an entry, so the stored Query
// may be another caller's text.
func forQuery(result *executor.SearchResult, query string) *executor.SearchResult {
	if result.Query == query {
		return result
	}
	cp := *result
	cp.Query = query
	return &cp
}

// buildKey hashes the query's terms and the limit. Case and repeated terms
// are kept because both change the scores.
func buildKey(query string, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d", normalizeQuery(query), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func normalizeQuery(query string) string {
	return strings.Join(tokenizer.Tokenize(query), " ")
}
