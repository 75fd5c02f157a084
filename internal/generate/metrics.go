package generate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	llmCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "generation_calls_total",
			Help:      "Generation model calls by status",
		},
		[]string{"model", "status"},
	)

	llmDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "autopost",
			Name:      "generation_duration_seconds",
			Help:      "Duration of generation calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~8.5m
		},
		[]string{"model"},
	)

	recoveryTierTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "recovery_tier_total",
			Help:      "Structured output recoveries by the tier that succeeded",
		},
		[]string{"tier"}, // "parse", "repair", "extract", "none"
	)
)
