// Package ranker scores the documents of an index against a query phrase
// with TF-IDF and orders them by relevance.
package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/tokenizer"
)

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Rank tokenizes phrase and scores every document in idx as the sum of
// TF*IDF over the query terms. Repeated query terms count once per
// occurrence. The result has one entry per document, including those that
// score zero, ordered by score descending and then by DocID.
func Rank(phrase string, idx index.Index) []ScoredDoc {
	terms := tokenizer.Tokenize(phrase)

	idf := make(map[string]float64, len(terms))
	for _, term := range terms {
		if _, ok := idf[term]; !ok {
			idf[term] = computeIDF(len(idx), idx.DocFreq(term))
		}
	}

	result := make([]ScoredDoc, 0, len(idx))
	for docID, counts := range idx {
		total := counts.Total()
		var score float64
		for _, term := range terms {
			score += computeTF(counts[term], total) * idf[term]
		}
		result = append(result, ScoredDoc{DocID: docID, Score: score})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocID < result[j].DocID
	})
	return result
}

// computeTF is the term's share of all term occurrences in a document.
func computeTF(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// computeIDF is log10(N/df) with df floored at 1.
func computeIDF(totalDocs, docFreq int) float64 {
	if docFreq < 1 {
		docFreq = 1
	}
	return math.Log10(float64(totalDocs) / float64(docFreq))
}
