package feeds

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "feed_fetches_total",
			Help:      "Feed fetch attempts by source and result",
		},
		[]string{"source", "result"}, // "ok", "error"
	)

	feedItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "feed_items_total",
			Help:      "Feed items seen and kept after filtering",
		},
		[]string{"source", "stage"}, // "fetched", "kept"
	)
)
