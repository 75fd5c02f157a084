package monitoring

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushMetrics sends everything in gatherer to a Pushgateway under job,
// replacing the previous push for the same grouping. Batch commands call it
// once before exiting. A nil gatherer pushes the default registry.
func PushMetrics(ctx context.Context, gatewayURL, job string, grouping map[string]string, gatherer prometheus.Gatherer) error {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	pusher := push.New(gatewayURL, job).Gatherer(gatherer)
	for name, value := range grouping {
		pusher = pusher.Grouping(name, value)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
