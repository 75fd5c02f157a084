package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "autopost",
		Name:      "notifications_total",
		Help:      "Moderator notifications by channel, kind and result",
	},
	[]string{"channel", "kind", "result"},
)
