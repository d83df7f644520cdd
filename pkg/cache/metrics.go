package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pool label values.
const (
	poolResponse = "response"
	poolCatalog  = "catalog"
	poolShared   = "shared"
)

var (
	// poolHits tracks cache hits by pool (response, catalog, shared)
	poolHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_cache_hits_total",
			Help: "Total number of result cache hits",
		},
		[]string{"pool"},
	)

	// poolMisses tracks cache misses by pool
	poolMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_cache_misses_total",
			Help: "Total number of result cache misses",
		},
		[]string{"pool"},
	)

	// poolEvictions tracks LRU evictions from the response pool
	poolEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_cache_evictions_total",
			Help: "Total number of response pool LRU evictions",
		},
	)

	// sharedErrors tracks shared-tier operation failures
	sharedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_cache_shared_errors_total",
			Help: "Total number of shared cache tier errors",
		},
		[]string{"operation"}, // "get", "set"
	)
)
