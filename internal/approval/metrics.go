package approval

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "approval_transitions_total",
			Help:      "Approval transitions by action, actor kind and result",
		},
		[]string{"action", "actor", "result"},
	)

	webhookUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autopost",
			Name:      "webhook_updates_total",
			Help:      "Telegram webhook updates by kind and result",
		},
		[]string{"kind", "result"},
	)
)
