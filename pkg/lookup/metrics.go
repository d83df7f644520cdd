package lookup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// providerRequests tracks provider call outcomes by status class
	// (success, rate_limited, invalid_query, malformed, server_error,
	// network_error, timeout)
	providerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_provider_requests_total",
			Help: "Total number of external provider requests",
		},
		[]string{"status"},
	)

	// providerDuration tracks per-attempt call latency
	providerDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pos_provider_request_duration_seconds",
			Help:    "External provider request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// providerRetries counts backoff retries
	providerRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_provider_retries_total",
			Help: "Total number of provider call retries",
		},
	)

	// retriesExhausted counts Fetch calls that spent the whole budget
	retriesExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_provider_retries_exhausted_total",
			Help: "Total number of provider lookups that exhausted retries",
		},
	)
)
