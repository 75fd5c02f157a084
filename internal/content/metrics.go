package content

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var draftsPersistedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "autopost",
		Name:      "drafts_persisted_total",
		Help:      "Drafts stored unpublished awaiting approval",
	},
)
