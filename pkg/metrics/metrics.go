package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests     *prometheus.CounterVec
	LatencyMS    *prometheus.HistogramVec
	OrdersPlaced prometheus.Counter
	OrderValue   prometheus.Histogram
	CartChanged  prometheus.Counter
}

// NewServerMetrics registers the storefront collectors on reg.
func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "orders_placed_total",
		Help:      "Orders persisted with status pending.",
	})
	value := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "order_total_dollars",
		Help:      "Grand total of placed orders.",
		Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	changed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "checkout_cart_changed_total",
		Help:      "Order placements refused because the cart changed during checkout.",
	})

	reg.MustRegister(requests, latency, orders, value, changed)
	return &ServerMetrics{
		Requests:     requests,
		LatencyMS:    latency,
		OrdersPlaced: orders,
		OrderValue:   value,
		CartChanged:  changed,
	}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
