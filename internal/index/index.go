package index

import (
	"os"
	"strings"
	"sync"
	"time"

	"masmnav/internal/core/errors"
	"masmnav/internal/shared/observability"
)

// Indexer memoizes file summaries per absolute path. The watcher invalidates
// entries from its own goroutine, hence the lock.
type Indexer struct {
	mu        sync.RWMutex
	summaries map[string]Summary
	lines     map[string][]string
}

func NewIndexer() *Indexer {
	return &Indexer{
		summaries: make(map[string]Summary),
		lines:     make(map[string][]string),
	}
}

// Summary returns the declaration snapshot for path. Read failure yields an
// empty summary and a READ_ERROR-tagged error; callers treat both as "no
// information available".
func (ix *Indexer) Summary(path string) (Summary, error) {
	ix.mu.RLock()
	cached, ok := ix.summaries[path]
	ix.mu.RUnlock()
	if ok {
		observability.CacheEventsTotal.WithLabelValues("summary", "hit").Inc()
		return cached, nil
	}
	observability.CacheEventsTotal.WithLabelValues("summary", "miss").Inc()

	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return emptySummary(), errors.Wrap(err, errors.CodeReadError, "read module file")
	}

	content := string(data)
	summary := ParseSummary(content)
	observability.IndexBuildsTotal.Inc()
	observability.IndexBuildDuration.Observe(time.Since(start).Seconds())

	ix.mu.Lock()
	ix.summaries[path] = summary
	ix.lines[path] = strings.Split(content, "\n")
	ix.mu.Unlock()

	return summary, nil
}

// Lines returns the raw lines of path, reading through the same cache as
// Summary.
func (ix *Indexer) Lines(path string) ([]string, error) {
	ix.mu.RLock()
	cached, ok := ix.lines[path]
	ix.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if _, err := ix.Summary(path); err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.lines[path], nil
}

// Invalidate drops the cached summary for one path.
func (ix *Indexer) Invalidate(path string) {
	ix.mu.Lock()
	delete(ix.summaries, path)
	delete(ix.lines, path)
	ix.mu.Unlock()
	observability.CacheEventsTotal.WithLabelValues("summary", "invalidate").Inc()
}

// Reset drops every cached summary.
func (ix *Indexer) Reset() {
	ix.mu.Lock()
	ix.summaries = make(map[string]Summary)
	ix.lines = make(map[string][]string)
	ix.mu.Unlock()
	observability.CacheEventsTotal.WithLabelValues("summary", "reset").Inc()
}
