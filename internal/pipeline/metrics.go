package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "pipeline_items_total",
			Help:      "Candidate items by pipeline and outcome",
		},
		[]string{"pipeline", "outcome"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by result",
		},
		[]string{"pipeline", "result"}, // "produced", "empty"
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "autopost",
			Name:      "pipeline_run_duration_seconds",
			Help:      "Wall time of a pipeline run",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 2400},
		},
		[]string{"pipeline"},
	)

	lastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "autopost",
			Name:      "pipeline_last_run_timestamp_seconds",
			Help:      "Unix time the last run of each pipeline finished",
		},
		[]string{"pipeline"},
	)
)
