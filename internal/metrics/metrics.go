package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics holds the Prometheus instruments for the ordering service.
type ServerMetrics struct {
	Requests            *prometheus.CounterVec
	LatencyMS           *prometheus.HistogramVec
	OrdersCreated       prometheus.Counter
	Transitions         *prometheus.CounterVec
	AdmissionRejections prometheus.Counter
}

// New registers and returns the service metrics. Call once per process.
func New(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fgc",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fgc",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fgc",
		Subsystem: service,
		Name:      "orders_created_total",
		Help:      "Total number of orders created.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fgc",
		Subsystem: service,
		Name:      "order_transitions_total",
		Help:      "Total number of applied order status transitions.",
	}, []string{"from", "to"})
	rejections := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fgc",
		Subsystem: service,
		Name:      "admission_rejections_total",
		Help:      "Orders refused acceptance because an item was out of stock.",
	})

	prometheus.MustRegister(requests, latency, created, transitions, rejections)
	return &ServerMetrics{
		Requests:            requests,
		LatencyMS:           latency,
		OrdersCreated:       created,
		Transitions:         transitions,
		AdmissionRejections: rejections,
	}
}

// ObserveRequest records one served HTTP request.
func (m *ServerMetrics) ObserveRequest(handler, status string, durationMS float64) {
	m.Requests.WithLabelValues(handler, status).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(durationMS)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
