package core

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"festivalcore/internal/safeupdate"
)

// PrometheusMetricsRecorder exports operation latency and safe update
// outcomes on its own registry.
type PrometheusMetricsRecorder struct {
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the festivalcore collectors on a
// fresh registry. A nil registry creates one.
func NewPrometheusMetricsRecorder(registry *prometheus.Registry) *PrometheusMetricsRecorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	r := &PrometheusMetricsRecorder{
		registry: registry,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "festivalcore",
			Name:      "operation_duration_seconds",
			Help:      "Latency of service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "festivalcore",
			Name:      "safe_update_outcomes_total",
			Help:      "Safe update outcomes by entity kind.",
		}, []string{"entity", "outcome"}),
	}
	registry.MustRegister(r.duration, r.outcomes)
	return r
}

// Registry exposes the registry the collectors live on.
func (r *PrometheusMetricsRecorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusMetricsRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	status := "error"
	if success {
		status = "success"
	}
	r.duration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// ObserveOutcome implements OutcomeRecorder.
func (r *PrometheusMetricsRecorder) ObserveOutcome(_ context.Context, entity EntityType, outcome safeupdate.Outcome) {
	r.outcomes.WithLabelValues(string(entity), string(outcome)).Inc()
}
