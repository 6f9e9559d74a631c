package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/postgres"
)

const createTermCounts = `
CREATE TABLE IF NOT EXISTS term_counts (
	doc_path TEXT    NOT NULL,
	term     TEXT    NOT NULL,
	count    INTEGER NOT NULL CHECK (count > 0),
	PRIMARY KEY (doc_path, term)
)`

const createDocuments = `
CREATE TABLE IF NOT EXISTS documents (
	doc_path TEXT PRIMARY KEY
)`

// Postgres mirrors an index into the term_counts and documents tables.
// documents keeps files that produced no terms, so the document count
// survives a round trip.
type Postgres struct {
	client *postgres.Client
	logger *slog.Logger
}

func NewPostgres(client *postgres.Client) *Postgres {
	return &Postgres{
		client: client,
		logger: logger.WithComponent("postgres-store"),
	}
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createDocuments, createTermCounts} {
		if _, err := p.client.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating index tables: %w", err)
		}
	}
	return nil
}

// Save replaces the stored index with idx in a single transaction.
func (p *Postgres) Save(ctx context.Context, idx index.Index) error {
	rows := 0
	err := p.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "TRUNCATE term_counts, documents"); err != nil {
			return fmt.Errorf("clearing index tables: %w", err)
		}

		docStmt, err := tx.PrepareContext(ctx, pq.CopyIn("documents", "doc_path"))
		if err != nil {
			return fmt.Errorf("preparing documents copy: %w", err)
		}
		for docID := range idx {
			if _, err := docStmt.ExecContext(ctx, docID); err != nil {
				docStmt.Close()
				return fmt.Errorf("copying document %s: %w", docID, err)
			}
		}
		if _, err := docStmt.ExecContext(ctx); err != nil {
			docStmt.Close()
			return fmt.Errorf("flushing documents copy: %w", err)
		}
		if err := docStmt.Close(); err != nil {
			return fmt.Errorf("closing documents copy: %w", err)
		}

		termStmt, err := tx.PrepareContext(ctx, pq.CopyIn("term_counts", "doc_path", "term", "count"))
		if err != nil {
			return fmt.Errorf("preparing term_counts copy: %w", err)
		}
		for docID, counts := range idx {
			for term, n := range counts {
				if _, err := termStmt.ExecContext(ctx, docID, term, n); err != nil {
					termStmt.Close()
					return fmt.Errorf("copying term %q of %s: %w", term, docID, err)
				}
				rows++
			}
		}
		if _, err := termStmt.ExecContext(ctx); err != nil {
			termStmt.Close()
			return fmt.Errorf("flushing term_counts copy: %w", err)
		}
		return termStmt.Close()
	})
	if err != nil {
		return err
	}
	p.logger.Info("index mirrored to postgres", "documents", len(idx), "rows", rows)
	return nil
}

// Load reads the stored index back.
func (p *Postgres) Load(ctx context.Context) (index.Index, error) {
	idx := make(index.Index)

	docRows, err := p.client.DB.QueryContext(ctx, "SELECT doc_path FROM documents")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer docRows.Close()
	for docRows.Next() {
		var docID string
		if err := docRows.Scan(&docID); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		idx[docID] = index.TermCounts{}
	}
	if err := docRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	termRows, err := p.client.DB.QueryContext(ctx, "SELECT doc_path, term, count FROM term_counts")
	if err != nil {
		return nil, fmt.Errorf("querying term_counts: %w", err)
	}
	defer termRows.Close()
	for termRows.Next() {
		var (
			docID, term string
			n           int
		)
		if err := termRows.Scan(&docID, &term, &n); err != nil {
			return nil, fmt.Errorf("scanning term count: %w", err)
		}
		counts, ok := idx[docID]
		if !ok {
			counts = index.TermCounts{}
			idx[docID] = counts
		}
		counts[term] = n
	}
	if err := termRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating term_counts: %w", err)
	}
	return idx, nil
}
