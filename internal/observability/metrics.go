package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics registers and exposes the service's prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec
	ticketsCreated  prometheus.Counter
	slaBreaches     *prometheus.CounterVec
	slaPausesActive prometheus.Gauge
}

// NewMetrics builds and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "HTTP requests by path, method and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_request_errors_total",
			Help: "Failed requests by path, method and error code.",
		}, []string{"path", "method", "code"}),
		ticketsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_tickets_created_total",
			Help: "Tickets created since process start.",
		}),
		slaBreaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_sla_breaches_total",
			Help: "SLA breach stamps by kind (response, resolution).",
		}, []string{"kind"}),
		slaPausesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helpdesk_sla_paused_tickets",
			Help: "Tickets currently in a pause-inducing status.",
		}),
	}

	registry.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.errorCount,
		m.ticketsCreated,
		m.slaBreaches,
		m.slaPausesActive,
	)
	return m
}

// RecordRequest observes one completed HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError counts a request that failed with a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// TicketCreated counts a new ticket.
func (m *Metrics) TicketCreated() {
	if m == nil {
		return
	}
	m.ticketsCreated.Inc()
}

// SLABreach counts a breach stamp of the given kind.
func (m *Metrics) SLABreach(kind string) {
	if m == nil {
		return
	}
	m.slaBreaches.WithLabelValues(kind).Inc()
}

// SetPausedTickets reports how many tickets currently hold the SLA clock.
func (m *Metrics) SetPausedTickets(n int) {
	if m == nil {
		return
	}
	m.slaPausesActive.Set(float64(n))
}
