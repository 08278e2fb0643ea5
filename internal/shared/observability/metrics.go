package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pathres_parsing_seconds",
		Help:    "Time spent extracting the syntax model of a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	SnapshotDecls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pathres_snapshot_decls_total",
		Help: "Number of declarations in the current snapshot.",
	})

	SnapshotReferences = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pathres_snapshot_references_total",
		Help: "Number of references in the current snapshot.",
	})

	WorkspaceReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathres_workspace_reloads_total",
		Help: "Workspace reloads by kind of change (local or structural).",
	}, []string{"kind"})

	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathres_resolve_seconds",
		Help:    "Latency of a single reference resolution, cache lookups included.",
		Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
	})

	CandidatesPerResolve = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathres_resolve_candidates",
		Help:    "Number of candidates a computed resolution produced.",
		Buckets: []float64{0, 1, 2, 3, 5, 8},
	})

	ResolveCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathres_resolve_cache_hits_total",
		Help: "Resolutions served from the cache.",
	})

	ResolveCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathres_resolve_cache_misses_total",
		Help: "Resolutions computed because no current cache entry existed.",
	})

	ResolveCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathres_resolve_cache_evictions_total",
		Help: "Cache entries dropped to stay within capacity.",
	})

	ResolveCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathres_resolve_cache_invalidations_total",
		Help: "Number of times the whole resolution cache was dropped.",
	})

	CyclicAliases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathres_cyclic_aliases_total",
		Help: "Alias chases that ended in a cycle.",
	})

	MalformedArguments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathres_malformed_arguments_total",
		Help: "Generic argument lists with more arguments than parameters.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathres_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	CrateIndexImports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathres_crate_index_imported_versions_total",
		Help: "Crate versions imported into the local crate index.",
	})
)
