package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
)

func testIndex() index.Index {
	return index.Index{
		"a.txt": {"cat": 2, "dog": 1},
		"b.txt": {"dog": 3},
		"c.txt": {"cat": 1, "bird": 5},
	}
}

func TestExecute(t *testing.T) {
	e := New(testIndex())

	res, err := e.Execute(context.Background(), "cat cat fish", 0)
	require.NoError(t, err)

	assert.Equal(t, "cat cat fish", res.Query)
	assert.Equal(t, 3, res.TotalDocs)
	assert.Equal(t, 2, res.TotalHits)
	assert.Len(t, res.Results, 3)
	assert.Equal(t, "a.txt", res.Results[0].DocID)
	assert.Equal(t, map[string]int{"cat": 2, "fish": 0}, res.TermStats)
}

func TestExecuteLimit(t *testing.T) {
	e := New(testIndex())

	res, err := e.Execute(context.Background(), "dog", 1)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "b.txt", res.Results[0].DocID)
	assert.Equal(t, 2, res.TotalHits)
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testIndex()).Execute(ctx, "cat", 0)
	assert.ErrorIs(t, err, context.Canceled)
}
