package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics records per-route HTTP request counts and latencies.
type RequestMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	orders   prometheus.Counter
}

// NewRequestMetrics registers the request metrics on the provided registerer.
func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	if reg == nil {
		return &RequestMetrics{}
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders placed across every settlement path.",
	})
	reg.MustRegister(total, duration, orders)
	return &RequestMetrics{total: total, duration: duration, orders: orders}
}

// ObserveRequest records one served request.
func (m *RequestMetrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	m.total.WithLabelValues(method, normalizeLabel(route), status).Inc()
	m.duration.WithLabelValues(method, normalizeLabel(route)).Observe(duration.Seconds())
}

// IncOrdersPlaced counts a placed order.
func (m *RequestMetrics) IncOrdersPlaced() {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.Inc()
}

func normalizeLabel(route string) string {
	if route == "" {
		return "unknown"
	}
	return route
}
