package ranker

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
)

func sampleIndex() index.Index {
	return index.Index{
		"a.txt": {"cat": 2, "dog": 1},
		"b.txt": {"dog": 3},
	}
}

func TestRankWorkedExample(t *testing.T) {
	ranked := Rank("cat", sampleIndex())

	require.Len(t, ranked, 2)
	assert.Equal(t, "a.txt", ranked[0].DocID)
	assert.InDelta(t, 2.0/3.0*math.Log10(2), ranked[0].Score, 1e-12)
	assert.InDelta(t, 0.2007, ranked[0].Score, 1e-4)
	assert.Equal(t, "b.txt", ranked[1].DocID)
	assert.Equal(t, 0.0, ranked[1].Score)
}

func TestRankUsesFloatingPointTF(t *testing.T) {
	idx := index.Index{
		"a.txt": {"go": 1, "rust": 3},
		"b.txt": {"rust": 1},
		"c.txt": {"zig": 1},
	}
	ranked := Rank("go", idx)
	require.Len(t, ranked, 3)
	assert.Equal(t, "a.txt", ranked[0].DocID)
	assert.InDelta(t, 0.25*math.Log10(3), ranked[0].Score, 1e-12)
}

func TestRankTermInEveryDocumentScoresZero(t *testing.T) {
	ranked := Rank("dog", sampleIndex())
	for _, doc := range ranked {
		assert.Equal(t, 0.0, doc.Score, doc.DocID)
	}
	assert.Equal(t, []string{"a.txt", "b.txt"}, docIDs(ranked))
}

func TestRankAbsentTermsKeepAllDocuments(t *testing.T) {
	ranked := Rank("unicorn <b>zebra</b>", sampleIndex())
	require.Len(t, ranked, 2)
	for _, doc := range ranked {
		assert.Equal(t, 0.0, doc.Score)
	}
}

func TestRankEmptyQuery(t *testing.T) {
	ranked := Rank("  ...  ", sampleIndex())
	assert.Equal(t, []string{"a.txt", "b.txt"}, docIDs(ranked))
}

func TestRankEmptyIndex(t *testing.T) {
	assert.Empty(t, Rank("cat", index.Index{}))
}

func TestRankSingleDocument(t *testing.T) {
	idx := index.Index{"only.txt": {"hello": 1, "world": 1}}
	for _, query := range []string{"hello", "missing", "hello hello world"} {
		ranked := Rank(query, idx)
		require.Len(t, ranked, 1, query)
		assert.False(t, math.IsNaN(ranked[0].Score) || math.IsInf(ranked[0].Score, 0), query)
		assert.GreaterOrEqual(t, ranked[0].Score, 0.0, query)
	}
}

func TestRankDocumentWithoutTerms(t *testing.T) {
	idx := index.Index{
		"empty.txt": {},
		"full.txt":  {"cat": 1},
		"other.txt": {"dog": 1},
	}
	ranked := Rank("cat", idx)
	assert.Equal(t, []string{"full.txt", "empty.txt", "other.txt"}, docIDs(ranked))
	assert.Equal(t, 0.0, ranked[1].Score)
}

func TestRankDuplicateQueryTermsAmplify(t *testing.T) {
	once := Rank("cat", sampleIndex())
	twice := Rank("cat cat", sampleIndex())
	assert.InDelta(t, 2*once[0].Score, twice[0].Score, 1e-12)
}

func TestRankOrdersByScoreThenDocID(t *testing.T) {
	idx := index.Index{
		"z.txt": {"cat": 1},
		"a.txt": {"dog": 1},
		"m.txt": {"cat": 1},
		"b.txt": {"cat": 1, "dog": 3},
	}
	ranked := Rank("cat", idx)
	assert.Equal(t, []string{"m.txt", "z.txt", "b.txt", "a.txt"}, docIDs(ranked))
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRankCaseSensitive(t *testing.T) {
	idx := index.Index{
		"upper.txt": {"Cat": 1},
		"lower.txt": {"cat": 1},
	}
	ranked := Rank("Cat", idx)
	assert.Equal(t, "upper.txt", ranked[0].DocID)
	assert.Greater(t, ranked[0].Score, 0.0)
	assert.Equal(t, 0.0, ranked[1].Score)
}

func TestRankConcurrentReaders(t *testing.T) {
	idx := make(index.Index)
	for i := 0; i < 50; i++ {
		idx[fmt.Sprintf("doc-%02d", i)] = index.TermCounts{fmt.Sprintf("t%d", i%5): i + 1, "common": 1}
	}
	want := Rank("t1 t3 common", idx)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Rank("t1 t3 common", idx))
		}()
	}
	wg.Wait()
}

func docIDs(docs []ScoredDoc) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.DocID
	}
	return ids
}
