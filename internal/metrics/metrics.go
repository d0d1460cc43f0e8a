// Package metrics exposes Prometheus collectors for the scan pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notescan",
			Name:      "scans_total",
			Help:      "Total scan dispatches by trigger",
		},
		[]string{"trigger"},
	)

	RelationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "notescan",
			Name:      "relations_total",
			Help:      "Total relations applied to the registry",
		},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notescan",
			Name:      "errors_total",
			Help:      "Total contained failures",
		},
		[]string{"stage"}, // "extract" / "registry" / "cache"
	)

	StaleResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "notescan",
			Name:      "stale_results_total",
			Help:      "Scan results discarded because a fresher generation superseded them",
		},
	)

	SpansDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notescan",
			Name:      "spans_dropped_total",
			Help:      "Spans dropped during realignment or offset mapping",
		},
		[]string{"reason"}, // "not_found" / "out_of_bounds" / "crossed"
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notescan",
			Name:      "span_cache_total",
			Help:      "Span cache lookups by result",
		},
		[]string{"result"}, // "hit" / "stale" / "miss"
	)
)

func init() {
	prometheus.MustRegister(ScansTotal)
	prometheus.MustRegister(RelationsTotal)
	prometheus.MustRegister(ErrorsTotal)
	prometheus.MustRegister(StaleResultsTotal)
	prometheus.MustRegister(SpansDroppedTotal)
	prometheus.MustRegister(CacheTotal)
}
