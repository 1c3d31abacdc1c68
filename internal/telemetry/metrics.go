// Package telemetry exposes Prometheus metrics for evaluations.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chaoscope/chaoscope/pkg/health"
)

// Outcome labels for chaoscope_evaluations_total.
const (
	OutcomeSuccess = "success"
	OutcomeNoData  = "no_data"
)

// Metrics holds the evaluation collectors on a private registry so several
// instances can coexist in tests.
type Metrics struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	duration    prometheus.Histogram
	skipped     *prometheus.CounterVec
}

// New creates and registers the evaluation collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chaoscope_evaluations_total",
			Help: "Evaluations run, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chaoscope_evaluation_duration_seconds",
			Help:    "Wall time of a single repository evaluation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chaoscope_skipped_months_total",
			Help: "Months excluded from evaluations, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(m.evaluations, m.duration, m.skipped)
	return m
}

// ObserveEvaluation records one evaluation. A nil Metrics is a no-op.
func (m *Metrics) ObserveEvaluation(result *health.EvaluationResult, took time.Duration) {
	if m == nil || result == nil {
		return
	}
	outcome := OutcomeSuccess
	if result.Failed() {
		outcome = OutcomeNoData
	}
	m.evaluations.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
	for _, s := range result.SkippedMonths {
		m.skipped.WithLabelValues(string(s.Reason)).Inc()
	}
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
