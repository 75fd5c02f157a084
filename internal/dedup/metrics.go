package dedup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dedupHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "dedup_hits_total",
			Help:      "Feed items skipped as already covered, by heuristic",
		},
		[]string{"check"},
	)

	dedupLookupErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "dedup_lookup_errors_total",
			Help:      "Store lookups that failed during duplicate detection",
		},
		[]string{"check"},
	)
)
