// Package handler exposes the query service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/soorch/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/soorch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/middleware"
)

type SearchExecutor interface {
	Execute(ctx context.Context, query string, limit int) (*executor.SearchResult, error)
}

// Options holds the optional collaborators of a Handler. Nil fields are
// skipped.
type Options struct {
	Cache      cache.QueryCache
	Collector  *analytics.Collector
	Metrics    *metrics.Metrics
	BuildStats index.BuildStats
	Dir        string
}

type Handler struct {
	executor     SearchExecutor
	opts         Options
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New returns a Handler. defaultLimit applies when the request has no limit
// parameter; maxResults caps every limit. Zero means no limit.
func New(exec SearchExecutor, defaultLimit, maxResults int, opts Options) *Handler {
	return &Handler{
		executor:     exec,
		opts:         opts,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       logger.WithComponent("search-handler"),
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	limit, err := h.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var result *executor.SearchResult
	cacheHit := false
	cacheStatus := "none"
	if h.opts.Cache != nil {
		result, cacheHit, err = h.opts.Cache.GetOrCompute(ctx, query, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, query, limit)
		})
		cacheStatus = "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
	} else {
		result, err = h.executor.Execute(ctx, query, limit)
	}

	if err != nil {
		log.Error("search execution failed", "query", query, "error", err)
		h.observe("error", cacheStatus, start, 0)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError, "search failed"))
		return
	}

	latency := time.Since(start)
	resultType := "hit"
	eventType := analytics.EventSearch
	if result.TotalHits == 0 {
		resultType = "zero_result"
		eventType = analytics.EventZeroResult
	}
	h.observe(resultType, cacheStatus, start, len(result.Results))

	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.opts.Collector != nil {
		h.opts.Collector.Track(analytics.SearchEvent{
			Type:      eventType,
			Query:     query,
			Terms:     tokenizer.Tokenize(query),
			TotalHits: result.TotalHits,
			Returned:  len(result.Results),
			LatencyMs: latency.Milliseconds(),
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.opts.Cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.opts.Cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	if err := h.opts.Cache.Invalidate(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError, "cache invalidation failed"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// IndexStats reports how the served index was built.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	s := h.opts.BuildStats
	h.writeJSON(w, http.StatusOK, map[string]any{
		"dir":         h.opts.Dir,
		"scanned":     s.Scanned,
		"indexed":     s.Indexed,
		"skipped":     s.Skipped,
		"duration_ms": s.Duration.Milliseconds(),
	})
}

func (h *Handler) parseLimit(raw string) (int, error) {
	limit := h.defaultLimit
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return 0, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"limit must be a positive integer, got %q", raw)
		}
		limit = parsed
	}
	if h.maxResults > 0 && (limit <= 0 || limit > h.maxResults) {
		limit = h.maxResults
	}
	return limit, nil
}

func (h *Handler) observe(resultType, cacheStatus string, start time.Time, returned int) {
	m := h.opts.Metrics
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	m.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	if resultType == "error" {
		return
	}
	m.SearchResultsCount.Observe(float64(returned))
	switch cacheStatus {
	case "hit":
		m.CacheHitsTotal.Inc()
	case "miss":
		m.CacheMissesTotal.Inc()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": apperrors.Message(err)})
}
