// Package metrics holds the Prometheus collectors for the extraction service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcomes recorded on workorder_backend_attempts_total.
const (
	OutcomeSuccess      = "success"
	OutcomeTransport    = "transport_error"
	OutcomeTerminal     = "terminal_error"
	OutcomeInvalidReply = "invalid_reply"
	OutcomeCancelled    = "cancelled"
)

// Metrics holds Prometheus metrics for backend calls and extraction results.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	BackendAttempts *prometheus.CounterVec
	BackendRetries  *prometheus.CounterVec
	Extractions     *prometheus.CounterVec
	Confidence      *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
//
// Metrics:
//   - workorder_backend_attempts_total{backend,outcome}
//   - workorder_backend_retries_total{backend}
//   - workorder_extractions_total{source}
//   - workorder_extraction_confidence{source}
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BackendAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workorder_backend_attempts_total",
				Help: "Extraction backend attempts by outcome",
			},
			[]string{"backend", "outcome"},
		),
		BackendRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workorder_backend_retries_total",
				Help: "Retries issued against extraction backends after transient failures",
			},
			[]string{"backend"},
		),
		Extractions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workorder_extractions_total",
				Help: "Completed extractions by winning source",
			},
			[]string{"source"},
		),
		Confidence: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workorder_extraction_confidence",
				Help:    "Overall confidence of completed extractions",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"source"},
		),
	}
}

// RecordAttempt counts one backend attempt and its outcome.
func (m *Metrics) RecordAttempt(backend, outcome string) {
	if m == nil {
		return
	}
	m.BackendAttempts.WithLabelValues(backend, outcome).Inc()
}

// RecordRetry counts one retry against backend.
func (m *Metrics) RecordRetry(backend string) {
	if m == nil {
		return
	}
	m.BackendRetries.WithLabelValues(backend).Inc()
}

// RecordExtraction counts a finished extraction and observes its confidence.
func (m *Metrics) RecordExtraction(source string, confidence float64) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(source).Inc()
	m.Confidence.WithLabelValues(source).Observe(confidence)
}
