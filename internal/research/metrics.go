package research

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	researchSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "research_searches_total",
			Help:      "Search calls made while researching items",
		},
		[]string{"result"},
	)

	researchSourcesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "research_sources_total",
			Help:      "Supplementary pages collected for generation",
		},
	)

	pageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "page_fetches_total",
			Help:      "Page fetches by result",
		},
		[]string{"result"},
	)
)
