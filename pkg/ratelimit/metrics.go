package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// denials tracks admission denials by reason (local_window, cooldown,
	// error_streak, provider_quota)
	denials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_rate_limit_denials_total",
			Help: "Total number of external-call admissions denied",
		},
		[]string{"reason"},
	)

	// quotaRemaining mirrors the provider's last reported remaining quota
	quotaRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pos_provider_quota_remaining",
			Help: "Remaining provider lookup quota from the last response",
		},
	)
)
