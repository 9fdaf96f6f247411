// Package monitor exposes the service's Prometheus metrics.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MonitorService struct {
	registry *prometheus.Registry

	verificationOutcomes *prometheus.CounterVec
	submissionOutcomes   *prometheus.CounterVec
	uploadFailures       prometheus.Counter
}

func NewMonitorService() *MonitorService {
	registry := prometheus.NewRegistry()

	verificationOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Name:      "verification_outcomes_total",
		Help:      "Verification attempts by entity kind and outcome.",
	}, []string{"kind", "outcome"})

	submissionOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Name:      "submission_outcomes_total",
		Help:      "Record submissions by classified outcome.",
	}, []string{"outcome"})

	uploadFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "intake",
		Name:      "upload_failures_total",
		Help:      "Asset upload pipeline runs that failed before finalize.",
	})

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		verificationOutcomes,
		submissionOutcomes,
		uploadFailures,
	)

	return &MonitorService{
		registry:             registry,
		verificationOutcomes: verificationOutcomes,
		submissionOutcomes:   submissionOutcomes,
		uploadFailures:       uploadFailures,
	}
}

func (m *MonitorService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MonitorService) TrackVerification(kind, outcome string) {
	m.verificationOutcomes.WithLabelValues(kind, outcome).Inc()
}

func (m *MonitorService) TrackSubmission(outcome string) {
	m.submissionOutcomes.WithLabelValues(outcome).Inc()
}

func (m *MonitorService) TrackUploadFailure() {
	m.uploadFailures.Inc()
}
