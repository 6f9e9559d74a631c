package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/soorch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/metrics"
)

// BuildStats describes one indexing run.
type BuildStats struct {
	Scanned  int           `json:"scanned"`
	Indexed  int           `json:"indexed"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Builder indexes every regular file directly inside a directory.
type Builder struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewBuilder returns a Builder. m may be nil.
func NewBuilder(m *metrics.Metrics) *Builder {
	return &Builder{
		metrics: m,
		logger:  logger.WithComponent("index-builder"),
	}
}

// Build indexes dir with a default Builder.
func Build(dir string) (Index, error) {
	idx, _, err := NewBuilder(nil).Build(dir)
	return idx, err
}

// Build reads every non-directory entry of dir in its own goroutine and
// returns the resulting Index. Subdirectories are not descended into.
//
// Only a failure to list dir is returned. A file that cannot be read, or
// whose contents are not valid UTF-8, is left out of the Index and counted
// in BuildStats.Skipped.
func (b *Builder) Build(dir string) (Index, BuildStats, error) {
	start := time.Now()
	paths, err := listFiles(dir)
	if err != nil {
		return nil, BuildStats{}, err
	}

	idx := make(Index, len(paths))
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		skipped atomic.Int64
	)
	for _, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counts, err := countFile(path)
			if err != nil {
				skipped.Add(1)
				b.logger.Warn("skipping unreadable file", "path", path, "error", err)
				return
			}
			mu.Lock()
			idx[path] = counts
			mu.Unlock()
		}()
	}
	wg.Wait()

	stats := BuildStats{
		Scanned:  len(paths),
		Indexed:  len(idx),
		Skipped:  int(skipped.Load()),
		Duration: time.Since(start),
	}
	if b.metrics != nil {
		b.metrics.IndexDocuments.Set(float64(stats.Indexed))
		b.metrics.IndexFilesSkipped.Add(float64(stats.Skipped))
		b.metrics.IndexBuildDuration.Observe(stats.Duration.Seconds())
	}
	b.logger.Info("index built",
		"dir", dir,
		"scanned", stats.Scanned,
		"indexed", stats.Indexed,
		"skipped", stats.Skipped,
		"duration", stats.Duration,
	)
	return idx, stats, nil
}

// listFiles returns the paths of the direct entries of dir that are not
// directories. Symlinks are followed; an entry that cannot be stat'ed is
// kept so that its read failure is counted later.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				continue
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func countFile(path string) (TermCounts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", path)
	}
	return TermCounts(tokenizer.CountTerms(string(data))), nil
}
