// Package metrics exposes prometheus counters for the ledger and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mamadbah2/palmier/internal/service/ledger"
)

const namespace = "palmier"

// Ledger outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Registry owns the application's collectors. It uses its own registry so
// tests can build as many as they like.
type Registry struct {
	registry *prometheus.Registry

	ledgerOps      *prometheus.CounterVec
	ledgerDuration *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New creates a registry with the Go and process collectors attached.
func New() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Sale writes by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ledgerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of sale write transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ledgerOps, r.ledgerDuration, r.httpRequests, r.httpDuration,
	)
	return r
}

// ObserveLedger implements ledger.Recorder.
func (r *Registry) ObserveLedger(operation string, err error, elapsed time.Duration) {
	outcome := OutcomeOK
	switch {
	case err == nil:
	case ledger.IsClientError(err):
		outcome = OutcomeRejected
	default:
		outcome = OutcomeError
	}
	r.ledgerOps.WithLabelValues(operation, outcome).Inc()
	r.ledgerDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path.
func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

var _ ledger.Recorder = (*Registry)(nil)
