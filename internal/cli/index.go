package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/store"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/postgres"
)

func (a *App) newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <dir> <index_path>",
		Short: "Index a directory into a JSON or YAML file",
		Long: `Index every file directly inside <dir> and write the per-document term
counts to <index_path>. The format is YAML when the path ends in .yaml or
.yml and JSON otherwise. Files that cannot be read as UTF-8 text are skipped.`,
		Args: verbArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.printUsage()
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.timed(func() error {
				return a.runIndex(cmd.Context(), cfg, args[0], args[1])
			})
		},
	}
}

func (a *App) runIndex(ctx context.Context, cfg *config.Config, dir, outPath string) error {
	log := logger.WithComponent("index-command")

	idx, stats, err := index.NewBuilder(nil).Build(dir)
	if err != nil {
		return err
	}
	if err := store.WriteFile(idx, outPath); err != nil {
		return err
	}
	log.Info("index written",
		"dir", dir,
		"output", outPath,
		"format", store.FormatFor(outPath),
		"indexed", stats.Indexed,
		"skipped", stats.Skipped,
	)

	if cfg.Postgres.Enabled {
		if err := mirrorToPostgres(ctx, cfg.Postgres, idx); err != nil {
			return err
		}
		log.Info("index mirrored to postgres", "documents", len(idx))
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		event := indexEvent(a.Now(), dir, outPath, stats)
		// The index file is already written; a lost notification is not fatal.
		if err := producer.Publish(ctx, kafka.Event{Key: dir, Value: event}); err != nil {
			log.Warn("failed to publish index event", "topic", cfg.Kafka.Topics.IndexComplete, "error", err)
		}
	}
	return nil
}

// indexEvent describes a finished build for the index-complete topic.
func indexEvent(now time.Time, dir, outPath string, stats index.BuildStats) analytics.IndexEvent {
	return analytics.IndexEvent{
		Type:       analytics.EventIndexComplete,
		Dir:        dir,
		OutputPath: outPath,
		Scanned:    stats.Scanned,
		Indexed:    stats.Indexed,
		Skipped:    stats.Skipped,
		DurationMs: stats.Duration.Milliseconds(),
		Timestamp:  now.UTC(),
	}
}

func mirrorToPostgres(ctx context.Context, cfg config.PostgresConfig, idx index.Index) error {
	client, err := postgres.New(cfg)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer client.Close()

	pg := store.NewPostgres(client)
	if err := pg.Migrate(ctx); err != nil {
		return err
	}
	return pg.Save(ctx, idx)
}
