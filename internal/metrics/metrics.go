package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics, or one
// built with a nil registerer, records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	roles       *prometheus.GaugeVec
	pending     prometheus.Gauge
}

// New registers the collectors on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_transitions_total",
		Help: "Administrative membership actions by action and outcome.",
	}, []string{"action", "outcome"})
	roles := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "membership_profiles",
		Help: "Profiles by effective role at the last roster sample.",
	}, []string{"role"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "membership_pending_requests",
		Help: "Profiles whose requested role has not been granted at the last roster sample.",
	})
	reg.MustRegister(requests, duration, transitions, roles, pending)
	return &Metrics{
		requests:    requests,
		duration:    duration,
		transitions: transitions,
		roles:       roles,
		pending:     pending,
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncTransition counts an administrative action such as approve or delete.
func (m *Metrics) IncTransition(action, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(action, outcome).Inc()
}

// SetRoster replaces the per-role profile counts and the pending request count.
// Roles missing from counts are reset to zero.
func (m *Metrics) SetRoster(counts map[string]int, pending int) {
	if m == nil || m.roles == nil {
		return
	}
	m.roles.Reset()
	for role, n := range counts {
		m.roles.WithLabelValues(role).Set(float64(n))
	}
	m.pending.Set(float64(pending))
}
