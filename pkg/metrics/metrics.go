package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimitedTotal    *prometheus.CounterVec

	// alert lifecycle metrics
	alertsCreatedTotal    prometheus.Counter
	alertTransitionsTotal *prometheus.CounterVec
	activeAlerts          prometheus.Gauge

	// change feed metrics
	feedEventsTotal *prometheus.CounterVec

	// realtime fanout metrics
	websocketConnections prometheus.Gauge
	sseClients           prometheus.Gauge
}

// NewMetrics registers and returns the collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		rateLimitedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Total number of rate limited requests",
			},
			[]string{"path"},
		),
		alertsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "alerts_created_total",
				Help: "Total number of panic alerts submitted",
			},
		),
		alertTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_transitions_total",
				Help: "Total number of alert status transitions",
			},
			[]string{"status"},
		),
		activeAlerts: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "alerts_active",
				Help: "Number of alerts currently in active status",
			},
		),
		feedEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_events_total",
				Help: "Total number of change feed events published",
			},
			[]string{"table", "type"},
		),
		websocketConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "websocket_connections",
				Help: "Number of open websocket connections",
			},
		),
		sseClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sse_clients",
				Help: "Number of connected SSE clients",
			},
		),
	}
}

// RecordHTTPRequest records one handled request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRateLimited records one rejected request.
func (m *Metrics) RecordRateLimited(path string) {
	m.rateLimitedTotal.WithLabelValues(path).Inc()
}

// RecordAlertCreated records one submitted alert.
func (m *Metrics) RecordAlertCreated() {
	m.alertsCreatedTotal.Inc()
}

// RecordAlertTransition records one status transition by target status.
func (m *Metrics) RecordAlertTransition(status string) {
	m.alertTransitionsTotal.WithLabelValues(status).Inc()
}

// SetActiveAlerts sets the active-alert gauge.
func (m *Metrics) SetActiveAlerts(count int) {
	m.activeAlerts.Set(float64(count))
}

// RecordFeedEvent records one published change feed event.
func (m *Metrics) RecordFeedEvent(table, eventType string) {
	m.feedEventsTotal.WithLabelValues(table, eventType).Inc()
}

// SetWebsocketConnections sets the websocket connection gauge.
func (m *Metrics) SetWebsocketConnections(count int64) {
	m.websocketConnections.Set(float64(count))
}

// SetSSEClients sets the SSE client gauge.
func (m *Metrics) SetSSEClients(count int) {
	m.sseClients.Set(float64(count))
}
