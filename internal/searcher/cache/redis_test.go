package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/soorch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/resilience"
)

// skipIfNoRedis skips the test when Redis is unavailable.
func skipIfNoRedis(t *testing.T) (*pkgredis.Client, config.RedisConfig) {
	t.Helper()
	cfg := config.RedisConfig{
		Addr:     "localhost:6379",
		DB:       15,
		PoolSize: 2,
		CacheTTL: time.Minute,
	}
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	client, err := pkgredis.NewClient(cfg)
	if err != nil {
		t.Skipf("skipping: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, cfg
}

func TestRedisGetOrCompute(t *testing.T) {
	client, cfg := skipIfNoRedis(t)
	ctx := context.Background()
	c := NewRedis(client, cfg)
	require.NoError(t, c.Invalidate(ctx))

	want := &executor.SearchResult{
		Query:     "cat",
		TotalDocs: 2,
		TotalHits: 1,
		Results:   []ranker.ScoredDoc{{DocID: "a.txt", Score: 0.2}, {DocID: "b.txt", Score: 0}},
		TermStats: map[string]int{"cat": 1},
	}
	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return want, nil
	}

	_, hit, err := c.GetOrCompute(ctx, "cat", 10, compute)
	require.NoError(t, err)
	assert.False(t, hit)

	got, hit, err := c.GetOrCompute(ctx, "cat", 10, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)

	other, hit, err := c.GetOrCompute(ctx, " cat?", 10, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, " cat?", other.Query)
	assert.Equal(t, want.Results, other.Results)

	require.NoError(t, c.Invalidate(ctx))
	_, ok := c.Get(ctx, "cat", 10)
	assert.False(t, ok)
}

func TestRedisBreakerOpensWhenRedisFails(t *testing.T) {
	client, cfg := skipIfNoRedis(t)
	c := NewRedis(client, cfg)
	require.NoError(t, client.Close())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, ok := c.Get(ctx, "cat", 10)
		assert.False(t, ok)
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())

	result, hit, err := c.GetOrCompute(ctx, "cat", 10, func() (*executor.SearchResult, error) {
		return &executor.SearchResult{Query: "cat"}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "cat", result.Query)
}
