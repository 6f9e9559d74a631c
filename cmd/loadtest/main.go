// Command loadtest drives concurrent search traffic against a running
// soorch query service and reports latency percentiles.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg       Config
		indexPath string
		queries   string
		topTerms  int
	)

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Send concurrent search queries to a soorch query service",
		Long: `Send search queries from a fixed number of workers for a fixed duration
and print throughput, latency percentiles and status codes.

Queries come from --queries, or from the most widespread terms of an index
file written by "soorch index" (--index).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case queries != "":
				cfg.Queries = splitQueries(queries)
			case indexPath != "":
				idx, err := store.ReadFile(indexPath)
				if err != nil {
					return err
				}
				cfg.Queries = queriesFromIndex(idx, topTerms)
			}
			if len(cfg.Queries) == 0 {
				return fmt.Errorf("no queries: pass --queries or --index")
			}
			if cfg.Concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== soorch load test ===")
			fmt.Fprintf(out, "Target:      %s\n", cfg.BaseURL)
			fmt.Fprintf(out, "Concurrency: %d\n", cfg.Concurrency)
			fmt.Fprintf(out, "Duration:    %s\n", cfg.Duration)
			fmt.Fprintf(out, "Queries:     %d unique\n\n", len(cfg.Queries))

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Duration)
			defer cancel()
			stats := run(ctx, cfg)
			report := stats.Report(cfg.Duration)
			report.Print(out)
			if report.Total == 0 {
				return fmt.Errorf("no requests completed; is the service running at %s?", cfg.BaseURL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the query service")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 10, "number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 30*time.Second, "test duration")
	cmd.Flags().IntVar(&cfg.Limit, "limit", 10, "limit parameter sent with every query")
	cmd.Flags().StringVar(&queries, "queries", "", "comma-separated query phrases")
	cmd.Flags().StringVar(&indexPath, "index", "", "index file to draw query terms from")
	cmd.Flags().IntVar(&topTerms, "top", 50, "number of index terms to use as queries")
	return cmd
}

func splitQueries(raw string) []string {
	var out []string
	for _, q := range strings.Split(raw, ",") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
