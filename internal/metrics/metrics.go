// Package metrics exposes request counters of the CRUD routes to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives one observation per dispatched operation.
type Recorder interface {
	Observe(model, operation string, status int, elapsed time.Duration)
}

// Nop discards observations.
type Nop struct{}

func (Nop) Observe(string, string, int, time.Duration) {}

type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New builds a private registry with the CRUD collectors plus the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crud_requests_total",
			Help: "CRUD operations by model, operation and HTTP status.",
		}, []string{"model", "operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crud_request_duration_seconds",
			Help:    "Latency of CRUD operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"model", "operation"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Observe(model, operation string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(model, operation, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(model, operation).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
