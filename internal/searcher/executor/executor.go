// Package executor runs ranked queries against a built index.
package executor

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/logger"
)

type SearchResult struct {
	Query     string             `json:"query"`
	TotalDocs int                `json:"total_docs"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
	TermStats map[string]int     `json:"term_stats"`
}

// Executor ranks queries against one immutable index. It is safe for
// concurrent use.
type Executor struct {
	idx    index.Index
	logger *slog.Logger
}

func New(idx index.Index) *Executor {
	return &Executor{
		idx:    idx,
		logger: logger.WithComponent("query-executor"),
	}
}

// Execute ranks every document against query and keeps the first limit
// results; limit <= 0 keeps them all. TotalHits counts documents with a
// positive score and TermStats holds the document frequency of each
// distinct query term.
func (e *Executor) Execute(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ranked := ranker.Rank(query, e.idx)

	hits := 0
	for _, doc := range ranked {
		if doc.Score > 0 {
			hits++
		}
	}
	termStats := make(map[string]int)
	for _, term := range tokenizer.Tokenize(query) {
		if _, ok := termStats[term]; !ok {
			termStats[term] = e.idx.DocFreq(term)
		}
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	e.logger.Debug("query executed",
		"query", query,
		"terms", len(termStats),
		"hits", hits,
		"returned", len(ranked),
	)
	return &SearchResult{
		Query:     query,
		TotalDocs: len(e.idx),
		TotalHits: hits,
		Results:   ranked,
		TermStats: termStats,
	}, nil
}

// DocCount is the number of documents in the index.
func (e *Executor) DocCount() int {
	return len(e.idx)
}
