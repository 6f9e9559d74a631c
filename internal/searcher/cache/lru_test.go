package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/executor"
)

func TestLRUGetOrCompute(t *testing.T) {
	c, err := NewLRU(8)
	require.NoError(t, err)
	ctx := context.Background()

	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return &executor.SearchResult{Query: "cat", TotalDocs: 2}, nil
	}

	res, hit, err := c.GetOrCompute(ctx, "cat", 10, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, res.TotalDocs)

	res, hit, err = c.GetOrCompute(ctx, "  cat!!", 10, compute)
	require.NoError(t, err)
	assert.True(t, hit, "punctuation does not change the key")
	assert.Equal(t, 2, res.TotalDocs)
	assert.Equal(t, 1, calls)

	_, hit, err = c.GetOrCompute(ctx, "cat", 5, compute)
	require.NoError(t, err)
	assert.False(t, hit, "limit is part of the key")

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, 2, c.Len())
}

func TestLRUDoesNotCacheErrors(t *testing.T) {
	c, err := NewLRU(8)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, _, err = c.GetOrCompute(context.Background(), "cat", 0, func() (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestLRUCollapsesConcurrentMisses(t *testing.T) {
	c, err := NewLRU(8)
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return &executor.SearchResult{Query: "dog"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _, err := c.GetOrCompute(context.Background(), "dog", 0, compute)
			assert.NoError(t, err)
			assert.Equal(t, "dog", res.Query)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Equal(t, 1, c.Len())
}

func TestLRUHitKeepsCallerQuery(t *testing.T) {
	c, err := NewLRU(8)
	require.NoError(t, err)
	ctx := context.Background()
	compute := func() (*executor.SearchResult, error) {
		return &executor.SearchResult{Query: "cat", TotalHits: 1}, nil
	}

	first, _, err := c.GetOrCompute(ctx, "cat", 10, compute)
	require.NoError(t, err)

	second, hit, err := c.GetOrCompute(ctx, "cat!!", 10, compute)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "cat!!", second.Query)
	assert.Equal(t, 1, second.TotalHits)

	third, hit, err := c.GetOrCompute(ctx, "cat", 10, compute)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "cat", third.Query, "stored entry is not modified")
	assert.Equal(t, "cat", first.Query)
}

func TestLRUInvalidate(t *testing.T) {
	c, err := NewLRU(8)
	require.NoError(t, err)
	ctx := context.Background()
	compute := func() (*executor.SearchResult, error) {
		return &executor.SearchResult{Query: "cat"}, nil
	}

	_, _, err = c.GetOrCompute(ctx, "cat", 10, compute)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	require.NoError(t, c.Invalidate(ctx))
	assert.Equal(t, 0, c.Len())

	_, hit, err := c.GetOrCompute(ctx, "cat", 10, compute)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewLRURejectsBadSize(t *testing.T) {
	_, err := NewLRU(0)
	assert.Error(t, err)
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, buildKey("cat dog", 10), buildKey("<b>cat</b>, dog", 10))
	assert.NotEqual(t, buildKey("cat dog", 10), buildKey("dog cat", 10))
	assert.NotEqual(t, buildKey("Cat", 10), buildKey("cat", 10))
	assert.NotEqual(t, buildKey("cat", 10), buildKey("cat cat", 10))
	assert.Contains(t, buildKey("cat", 1), keyPrefix)
}
