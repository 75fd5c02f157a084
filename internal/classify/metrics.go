package classify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var classificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "autopost",
		Name:      "classifications_total",
		Help:      "Classifier verdicts by result",
	},
	[]string{"result"}, // "approved", "rejected", "error"
)
