package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels on the resolution counter.
const (
	outcomeCached    = "cache_hit"
	outcomeCatalog   = "catalog_hit"
	outcomeExternal  = "external_hit"
	outcomeNotFound  = "not_found"
	outcomeInvalid   = "invalid"
	outcomeThrottled = "throttled"
	outcomeError     = "error"
)

var (
	resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_resolutions_total",
			Help: "Barcode resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	resolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pos_resolve_duration_seconds",
			Help:    "End-to-end resolution latency including provider calls.",
			Buckets: prometheus.DefBuckets,
		},
	)
)
