package ranker

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
)

func benchIndex(numDocs, vocab int) index.Index {
	idx := make(index.Index, numDocs)
	for d := 0; d < numDocs; d++ {
		counts := make(index.TermCounts)
		for t := 0; t < 20; t++ {
			counts[fmt.Sprintf("term%d", (d*7+t)%vocab)] = (d+t)%5 + 1
		}
		idx[fmt.Sprintf("doc-%d", d)] = counts
	}
	return idx
}

// BenchmarkRank measures scoring and sorting for growing corpora.
func BenchmarkRank(b *testing.B) {
	for _, numDocs := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			idx := benchIndex(numDocs, 500)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = Rank("term3 term42", idx)
			}
		})
	}
}

// BenchmarkRankMultiTerm measures ranking as the query grows.
func BenchmarkRankMultiTerm(b *testing.B) {
	idx := benchIndex(1000, 500)
	for _, terms := range []int{1, 3, 5, 10} {
		query := ""
		for t := 0; t < terms; t++ {
			query += fmt.Sprintf("term%d ", t*11)
		}
		b.Run(fmt.Sprintf("terms_%d", terms), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Rank(query, idx)
			}
		})
	}
}

// BenchmarkRankParallel measures concurrent readers of one index.
func BenchmarkRankParallel(b *testing.B) {
	idx := benchIndex(5000, 500)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Rank("term3 term42", idx)
		}
	})
}
