package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

// Metrics groups the Prometheus collectors of the service.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without instrumentation in tests.
type Metrics struct {
	// ExportsTotal counts finished exports.
	// Labels: format (pdf|images|pptx), status (success|partial|error)
	ExportsTotal *prometheus.CounterVec

	// ExportDuration measures whole-export latency in seconds.
	// Labels: format
	ExportDuration *prometheus.HistogramVec

	// SlidesCaptured counts per-slide capture outcomes.
	// Labels: capturer (raster|browser), status (success|error)
	SlidesCaptured *prometheus.CounterVec

	// GatewayRequests counts backend calls after retries settled.
	// Labels: endpoint, status (success|client_error|server_error|network_error)
	GatewayRequests *prometheus.CounterVec

	// GatewayRetries counts retry attempts beyond the first.
	// Labels: endpoint
	GatewayRetries *prometheus.CounterVec

	// GatewayDuration measures backend call latency including retries.
	// Labels: endpoint
	GatewayDuration *prometheus.HistogramVec

	// StoreActions counts dispatched store actions.
	// Labels: action
	StoreActions *prometheus.CounterVec

	// HTTPRequests counts API requests.
	// Labels: method, route, status_code
	HTTPRequests *prometheus.CounterVec

	// WebSocketClients is the number of connected event stream clients.
	WebSocketClients prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ExportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slidecraft_exports_total",
				Help: "Total number of exports by format and status",
			},
			[]string{"format", "status"},
		),
		ExportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slidecraft_export_duration_seconds",
				Help:    "Duration of exports in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"format"},
		),
		SlidesCaptured: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slidecraft_slides_captured_total",
				Help: "Total number of slide captures by capturer and status",
			},
			[]string{"capturer", "status"},
		),
		GatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slidecraft_gateway_requests_total",
				Help: "Total number of backend requests by endpoint and outcome",
			},
			[]string{"endpoint", "status"},
		),
		GatewayRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slidecraft_gateway_retries_total",
				Help: "Total number of backend retry attempts by endpoint",
			},
			[]string{"endpoint"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slidecraft_gateway_request_duration_seconds",
				Help:    "Duration of backend requests in seconds, retries included",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"endpoint"},
		),
		StoreActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slidecraft_store_actions_total",
				Help: "Total number of store actions by type",
			},
			[]string{"action"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slidecraft_http_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "route", "status_code"},
		),
		WebSocketClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "slidecraft_websocket_clients",
			Help: "Current number of connected event stream clients",
		}),
	}
}

// ExportFinished records one export.
func (m *Metrics) ExportFinished(format, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(format, status).Inc()
	m.ExportDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// SlideCaptured records one capture attempt.
func (m *Metrics) SlideCaptured(capturer string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SlidesCaptured.WithLabelValues(capturer, status).Inc()
}

// GatewayRequest records one settled backend call.
func (m *Metrics) GatewayRequest(endpoint, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(endpoint, status).Inc()
	m.GatewayDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// GatewayRetry records a retry attempt.
func (m *Metrics) GatewayRetry(endpoint string) {
	if m == nil {
		return
	}
	m.GatewayRetries.WithLabelValues(endpoint).Inc()
}

// HTTPRequest records one API request.
func (m *Metrics) HTTPRequest(method, route, statusCode string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusCode).Inc()
}

// ClientConnected tracks an event stream connection.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.WebSocketClients.Inc()
}

// ClientDisconnected tracks an event stream disconnection.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.WebSocketClients.Dec()
}

// WatchStore counts store actions until ctx is done.
func (m *Metrics) WatchStore(ctx context.Context, store *services.Store) {
	if m == nil {
		return
	}
	const subscriber = "monitoring"
	events := store.Subscribe(subscriber)
	go func() {
		defer store.Unsubscribe(subscriber)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				m.StoreActions.WithLabelValues(ev.Type).Inc()
			}
		}
	}()
}
