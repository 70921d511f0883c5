package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// IndexedConfigs tracks the number of configs held by the index
	IndexedConfigs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelcfg_index_configs",
			Help: "Number of configuration files held by the index",
		},
	)

	// IndexedArtifacts tracks the number of artifacts with at least one config
	IndexedArtifacts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelcfg_index_artifacts",
			Help: "Number of artifacts referenced by at least one configuration",
		},
	)

	// IndexLinks tracks the number of artifact to config links
	IndexLinks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelcfg_index_links",
			Help: "Number of artifact to configuration links",
		},
	)

	// ChangesTotal counts filesystem changes applied to the index
	ChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelcfg_changes_total",
			Help: "Total number of filesystem changes applied to the index",
		},
		[]string{"change", "node_kind"}, // change: created, changed, deleted, renamed
	)

	// ResetsTotal counts full index rebuilds
	ResetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelcfg_resets_total",
			Help: "Total number of full index rebuilds",
		},
		[]string{"trigger"}, // trigger: open, schedule, directory, manual
	)

	// ResetDuration measures how long a full rebuild takes
	ResetDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelcfg_reset_duration_seconds",
			Help:    "Time taken to rebuild the index",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	// StaleUpdatesTotal counts updates discarded because a rebuild superseded them
	StaleUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelcfg_stale_updates_total",
			Help: "Total number of updates discarded after a concurrent rebuild",
		},
	)

	// LayerCacheHits tracks layer cache hits
	LayerCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelcfg_layer_cache_hits_total",
			Help: "Total number of layer list cache hits",
		},
		[]string{"backend"},
	)

	// LayerCacheMisses tracks layer cache misses
	LayerCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelcfg_layer_cache_misses_total",
			Help: "Total number of layer list cache misses",
		},
		[]string{"backend"},
	)

	// EnumerationDuration measures layer enumeration tool runs
	EnumerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelcfg_enumeration_duration_seconds",
			Help:    "Layer enumeration tool execution time",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"status"}, // status: success, error
	)

	// ErrorsTotal counts total number of errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelcfg_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// SetIndexSize publishes the index dimensions
func SetIndexSize(configs, artifacts, links int) {
	IndexedConfigs.Set(float64(configs))
	IndexedArtifacts.Set(float64(artifacts))
	IndexLinks.Set(float64(links))
}

// RecordChange records an applied filesystem change
func RecordChange(change, nodeKind string) {
	ChangesTotal.WithLabelValues(change, nodeKind).Inc()
}

// RecordReset records a full rebuild
func RecordReset(trigger string, duration float64) {
	ResetsTotal.WithLabelValues(trigger).Inc()
	ResetDuration.Observe(duration)
}

// RecordStaleUpdate records a discarded update
func RecordStaleUpdate() {
	StaleUpdatesTotal.Inc()
}

// RecordLayerCacheHit records a layer cache hit
func RecordLayerCacheHit(backend string) {
	LayerCacheHits.WithLabelValues(backend).Inc()
}

// RecordLayerCacheMiss records a layer cache miss
func RecordLayerCacheMiss(backend string) {
	LayerCacheMisses.WithLabelValues(backend).Inc()
}

// RecordEnumeration records a layer enumeration run
func RecordEnumeration(status string, duration float64) {
	EnumerationDuration.WithLabelValues(status).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
