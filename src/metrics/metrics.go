// Package metrics exposes the Prometheus collectors of the API. Every
// recording method is safe on a nil *Metrics so services can run without it.
package metrics

import (
	"strconv"
	"time"

	"feedback-api/src/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "feedback"

type Metrics struct {
	Registry *prometheus.Registry

	feedbackSubmitted *prometheus.CounterVec
	feedbackDeleted   *prometheus.CounterVec
	formsCreated      *prometheus.CounterVec
	formActivations   *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		feedbackSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submitted_total",
			Help:      "Feedback entries stored, by form type.",
		}, []string{"form_type"}),
		feedbackDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_total",
			Help:      "Feedback entries removed, by delete scope.",
		}, []string{"scope"}),
		formsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forms_created_total",
			Help:      "Forms created, by form type.",
		}, []string{"form_type"}),
		formActivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_activations_total",
			Help:      "Activation toggles, by resulting flag.",
		}, []string{"is_active"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.feedbackSubmitted,
		m.feedbackDeleted,
		m.formsCreated,
		m.formActivations,
		m.requestDuration,
	)
	return m
}

func (m *Metrics) FeedbackSubmitted(t models.FormType) {
	if m == nil {
		return
	}
	m.feedbackSubmitted.WithLabelValues(string(t)).Inc()
}

// FeedbackDeleted scope is one of "single", "form" or "package".
func (m *Metrics) FeedbackDeleted(scope string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.feedbackDeleted.WithLabelValues(scope).Add(float64(n))
}

func (m *Metrics) FormCreated(t models.FormType) {
	if m == nil {
		return
	}
	m.formsCreated.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) FormActivated(active bool) {
	if m == nil {
		return
	}
	m.formActivations.WithLabelValues(strconv.FormatBool(active)).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
