// Package metrics exposes Prometheus counters for the auth flows and the HTTP surface.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/st-angelo/webarena-auth/internal/model"
)

// Outcome labels for auth flow metrics.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics owns a registry and the collectors registered on it.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	authFlows    *prometheus.CounterVec
	flowDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New creates a registry with Go and process collectors plus the service metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authFlows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authd_auth_flow_total",
				Help: "Total number of auth flow executions",
			},
			[]string{"flow", "outcome"},
		),
		flowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authd_auth_flow_duration_seconds",
				Help:    "Auth flow duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"flow"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.authFlows,
		m.flowDuration,
		m.httpRequests,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFlow records one execution of flow. The outcome label is the
// error code of a classified error, "error" for any other error and
// "success" otherwise.
func (m *Metrics) ObserveFlow(flow string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.authFlows.WithLabelValues(flow, Outcome(err)).Inc()
	m.flowDuration.WithLabelValues(flow).Observe(time.Since(started).Seconds())
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Outcome maps err to a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var e *model.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return OutcomeError
}
