package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/soorch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/resilience"
)

func (a *App) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve <dir> <address:port>",
		Short: "Index a directory and serve ranked queries over HTTP",
		Long: `Build the index for <dir> in memory and serve it on <address:port>.

  GET  /api/v1/search?q=<phrase>&limit=<n>
  GET  /api/v1/cache/stats
  POST /api/v1/cache/invalidate
  GET  /api/v1/index/stats
  GET  /api/v1/analytics
  GET  /health/live
  GET  /health/ready

The server stops on SIGINT or SIGTERM.`,
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
				return a.runServe(cmd.Context(), cfg, args[0], args[1])
			})
		},
	}
}

func (a *App) runServe(ctx context.Context, cfg *config.Config, dir, addr string) error {
	log := logger.WithComponent("serve-command")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	idx, stats, err := index.NewBuilder(m).Build(dir)
	if err != nil {
		return err
	}
	exec := executor.New(idx)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", exec.DocCount())}
	})

	queryCache, closeCache, err := openCache(ctx, cfg, checker)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	aggregator := analytics.NewAggregator()
	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, nil, 0)

		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, aggregator.HandleMessage)
		g.Go(func() error {
			if err := consumer.Start(gctx); err != nil {
				log.Error("analytics consumer stopped", "error", err)
			}
			return nil
		})
	} else {
		collector = analytics.NewCollector(nil, aggregator, 0)
	}
	collector.Start(gctx)

	searchHandler := handler.New(exec, cfg.Search.DefaultLimit, cfg.Search.MaxResults, handler.Options{
		Cache:      queryCache,
		Collector:  collector,
		Metrics:    m,
		BuildStats: stats,
		Dir:        dir,
	})

	mux := http.NewServeMux()
	searchHandler.Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var stopMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		stopMetrics = m.StartServer(cfg.Metrics.Port)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		stop()
		_ = g.Wait()
		collector.Close()
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	log.Info("query service listening",
		"addr", ln.Addr().String(),
		"dir", dir,
		"documents", stats.Indexed,
		"skipped", stats.Skipped,
	)
	if a.onListen != nil {
		a.onListen(ln.Addr().String())
	}

	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down query service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
		if stopMetrics != nil {
			if err := stopMetrics(shutdownCtx); err != nil {
				log.Error("metrics server shutdown error", "error", err)
			}
		}
		return nil
	})

	err = g.Wait()
	collector.Close()
	log.Info("query service stopped")
	return err
}

// openCache returns the Redis cache when it is enabled and reachable,
// otherwise an in-process LRU. A cache size of 0 disables the fallback.
func openCache(ctx context.Context, cfg *config.Config, checker *health.Checker) (cache.QueryCache, func(), error) {
	log := logger.WithComponent("serve-command")
	noop := func() {}

	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err == nil {
			rc := cache.NewRedis(client, cfg.Redis)
			if err := rc.Invalidate(ctx); err != nil {
				log.Warn("could not clear stale cached results", "error", err)
			}
			checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
				start := time.Now()
				if err := client.Ping(ctx); err != nil {
					return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
				}
				if state := rc.BreakerState(); state != resilience.StateClosed {
					return health.ComponentHealth{Status: health.StatusDegraded, Message: "circuit " + state.String()}
				}
				return health.ComponentHealth{Status: health.StatusUp, Latency: time.Since(start).String()}
			})
			log.Info("search cache enabled", "backend", "redis", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
			return rc, func() { client.Close() }, nil
		}
		log.Warn("redis unavailable, falling back to in-process cache", "error", err)
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "unreachable at startup, using in-process cache"}
		})
	}

	if cfg.Search.CacheSize == 0 {
		log.Info("search cache disabled")
		return nil, noop, nil
	}
	lc, err := cache.NewLRU(cfg.Search.CacheSize)
	if err != nil {
		return nil, noop, err
	}
	log.Info("search cache enabled", "backend", "lru", "size", cfg.Search.CacheSize)
	return lc, noop, nil
}
