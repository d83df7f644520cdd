// Package metrics provides the centralized Prometheus registry handle for
// the resolver service. All collectors are defined in their respective
// packages (cache, ratelimit, lookup, resolve, server) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All collectors are automatically registered via promauto in their
// respective packages and served on /metrics.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Resolution Metrics (pkg/resolve):
//   - pos_resolutions_total{outcome} (Counter): Resolutions by outcome
//     (cache_hit, catalog_hit, external_hit, not_found, invalid, throttled, error)
//   - pos_resolve_duration_seconds (Histogram): End-to-end resolution latency
//
// Cache Metrics (pkg/cache):
//   - pos_cache_hits_total{pool} (Counter): Hits by pool (response, catalog, shared)
//   - pos_cache_misses_total{pool} (Counter): Misses by pool
//   - pos_cache_evictions_total (Counter): Response pool LRU evictions
//   - pos_cache_shared_errors_total{operation} (Counter): Shared tier errors (get, set)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - pos_rate_limit_denials_total{reason} (Counter): Denied admissions by reason
//     (local_window, cooldown, error_streak, provider_quota)
//   - pos_provider_quota_remaining (Gauge): Last quota remaining the provider reported
//
// Provider Metrics (pkg/lookup):
//   - pos_provider_requests_total{status} (Counter): Provider call attempts by outcome
//     (success, rate_limited, invalid_query, server_error, network_error, timeout, malformed)
//   - pos_provider_request_duration_seconds (Histogram): Per-attempt call latency
//   - pos_provider_retries_total (Counter): Backoff retries
//   - pos_provider_retries_exhausted_total (Counter): Lookups that spent the whole retry budget
//
// HTTP Metrics (internal/server):
//   - pos_http_requests_total{method, route, status} (Counter): Requests by route pattern
//   - pos_http_request_duration_seconds{route} (Histogram): Request latency by route pattern
//
// Example Prometheus Queries:
//
//   # Local Answer Rate (no external call burned)
//   sum(rate(pos_resolutions_total{outcome=~"cache_hit|catalog_hit"}[5m])) /
//   sum(rate(pos_resolutions_total[5m]))
//
//   # Provider Quota Running Low
//   pos_provider_quota_remaining < 20
//
//   # Throttled Resolution Rate
//   rate(pos_rate_limit_denials_total[5m])
//
//   # P95 Resolution Latency
//   histogram_quantile(0.95, rate(pos_resolve_duration_seconds_bucket[5m]))
//
//   # Response Pool Hit Rate
//   sum(rate(pos_cache_hits_total{pool="response"}[5m])) /
//   (sum(rate(pos_cache_hits_total{pool="response"}[5m])) + sum(rate(pos_cache_misses_total{pool="response"}[5m])))
