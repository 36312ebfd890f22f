package lifecycle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcpdeck_lifecycle_operations_total",
			Help: "Lifecycle operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcpdeck_lifecycle_operation_duration_seconds",
			Help:    "Duration of lifecycle operations including verification",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	rollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcpdeck_lifecycle_rollbacks_total",
			Help: "Optimistic status updates reverted after failed verification",
		},
		[]string{"operation"},
	)
)

// recordMetrics records the outcome of one lifecycle operation.
func recordMetrics(operation string, started time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
