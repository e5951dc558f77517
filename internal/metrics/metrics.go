// Package metrics provides Prometheus metrics for the forge server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cache metrics
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_cache_lookups_total",
			Help: "Total entry cache lookups by result",
		},
		[]string{"result"},
	)

	cacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forge_cache_evictions_total",
			Help: "Total LRU evictions across all store instances",
		},
	)

	// Fetch metrics
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forge_fetch_duration_seconds",
			Help:    "Time spent resolving a fetch, including lock wait and disk read",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	fetchBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forge_fetch_bytes_total",
			Help: "Total bytes returned by successful file fetches",
		},
	)

	// Tree metrics
	reloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_reloads_total",
			Help: "Total tree reloads by result",
		},
		[]string{"result"},
	)

	reloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forge_reload_duration_seconds",
			Help:    "Time to rebuild one instance tree from disk",
			Buckets: prometheus.DefBuckets,
		},
	)

	indexedEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forge_indexed_entries",
			Help: "Number of directories/files in the most recently built tree",
		},
		[]string{"kind"},
	)

	// Watcher metrics
	watchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_watch_events_total",
			Help: "Filesystem change events received by the watcher",
		},
		[]string{"op"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCacheLookup records an entry cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordEviction records one LRU eviction.
func RecordEviction() {
	cacheEvictionsTotal.Inc()
}

// RecordFetch records the outcome of a fetch (file, directory, not_found, error).
func RecordFetch(outcome string, bytes int, duration time.Duration) {
	fetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if bytes > 0 {
		fetchBytesTotal.Add(float64(bytes))
	}
}

// RecordReload records a tree rebuild.
func RecordReload(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	reloadsTotal.WithLabelValues(result).Inc()
	reloadDuration.Observe(duration.Seconds())
}

// SetIndexedEntries sets the tree size gauges.
func SetIndexedEntries(dirs, files int) {
	indexedEntries.WithLabelValues("dirs").Set(float64(dirs))
	indexedEntries.WithLabelValues("files").Set(float64(files))
}

// RecordWatchEvent records a filesystem event by operation.
func RecordWatchEvent(op string) {
	watchEventsTotal.WithLabelValues(op).Inc()
}
