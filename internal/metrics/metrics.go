package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects dashboard counters on a private registry.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	remoteRequests *prometheus.CounterVec
	remoteLatency  *prometheus.HistogramVec
	staleFetches   prometheus.Counter
	sends          *prometheus.CounterVec
}

// New registers the dashboard collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirechat_admin",
			Name:      "remote_requests_total",
			Help:      "Requests issued to the message store by operation and outcome.",
		}, []string{"op", "outcome"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wirechat_admin",
			Name:      "remote_request_duration_seconds",
			Help:      "Latency of message store requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		staleFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wirechat_admin",
			Name:      "stale_fetches_total",
			Help:      "History fetches discarded because a newer fetch for the same conversation started.",
		}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirechat_admin",
			Name:      "optimistic_sends_total",
			Help:      "Locally appended messages by final delivery state.",
		}, []string{"delivery"}),
	}

	m.registry.MustRegister(
		m.remoteRequests,
		m.remoteLatency,
		m.staleFetches,
		m.sends,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one remote call.
func (m *Metrics) ObserveRequest(op string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.remoteRequests.WithLabelValues(op, outcome).Inc()
	m.remoteLatency.WithLabelValues(op).Observe(took.Seconds())
}

// StaleFetch counts a discarded history fetch.
func (m *Metrics) StaleFetch() {
	if m == nil {
		return
	}
	m.staleFetches.Inc()
}

// SendSettled counts an optimistic send reaching its final delivery state.
func (m *Metrics) SendSettled(delivery string) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(delivery).Inc()
}
