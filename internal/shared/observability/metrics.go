package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	IndexBuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "masmnav_index_builds_total",
		Help: "Total number of file summaries built from disk.",
	})

	IndexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "masmnav_index_build_seconds",
		Help:    "Time spent scanning a source file into a summary.",
		Buckets: prometheus.DefBuckets,
	})

	CacheEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "masmnav_cache_events_total",
		Help: "Cache hits, misses and invalidations, per cache.",
	}, []string{"cache", "event"})

	ResolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "masmnav_resolve_seconds",
		Help:    "Time spent resolving an import expression to a file path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"rule"})

	LookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "masmnav_lookups_total",
		Help: "Definition and hover lookups, by outcome.",
	}, []string{"op", "outcome"})

	RegistryScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "masmnav_registry_scans_total",
		Help: "Total number of external registry searches.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "masmnav_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
