package breaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// breakerState tracks the current state of each breaker.
	// Values: 0=closed, 1=half-open, 2=open
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "autopost",
			Name:      "circuit_breaker_state",
			Help:      "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	breakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "circuit_breaker_state_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

func recordState(name string, state State) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

func recordTransition(name string, from, to State) {
	breakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	recordState(name, to)
}
