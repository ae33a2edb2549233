package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation durations as a Prometheus
// histogram partitioned by operation and status.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder constructs a recorder and registers its
// collectors. A nil registerer uses the default registry.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "retreatcore",
		Subsystem: "service",
		Name:      "operation_duration_seconds",
		Help:      "Duration of document service operations by operation and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
	reg.MustRegister(durations)
	return &PrometheusMetricsRecorder{durations: durations}
}

// Observe records a service operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation, status).Observe(duration.Seconds())
}
