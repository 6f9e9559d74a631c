package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/logger"
)

// LRUCache keeps the most recently used results in process memory. It is
// used when Redis is disabled or unreachable.
type LRUCache struct {
	entries *lru.Cache[string, *executor.SearchResult]
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewLRU(size int) (*LRUCache, error) {
	entries, err := lru.New[string, *executor.SearchResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return &LRUCache{
		entries: entries,
		logger:  logger.WithComponent("query-cache").With("backend", "lru"),
	}, nil
}

func (c *LRUCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn ComputeFunc,
) (*executor.SearchResult, bool, error) {
	key := buildKey(query, limit)
	if result, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return forQuery(result, query), true, nil
	}
	c.misses.Add(1)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return forQuery(val.(*executor.SearchResult), query), false, nil
}

// Invalidate drops every cached result.
func (c *LRUCache) Invalidate(ctx context.Context) error {
	n := c.entries.Len()
	c.entries.Purge()
	c.logger.Info("cache invalidate", "keys_deleted", n)
	return nil
}

func (c *LRUCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len is the number of cached results.
func (c *LRUCache) Len() int {
	return c.entries.Len()
}
