package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// getTestMetrics creates metrics on an isolated registry so tests do not
// collide on the default registerer
func getTestMetrics() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry(), nil)
}
