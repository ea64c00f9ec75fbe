package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Namespace prefixes every collector exported by the service.
const Namespace = "storefront"

// Calculation outcomes.
const (
	OutcomeDiscounted  = "discounted"
	OutcomeNoDiscount  = "no_discount"
	OutcomePassthrough = "passthrough"
)

// Order outcomes.
const (
	OrderCreated   = "created"
	OrderExhausted = "exhausted"
	OrderFailed    = "failed"
)

// Metrics holds the Prometheus collectors for HTTP traffic and discount
// activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	rateLimited      prometheus.Counter

	calculations    *prometheus.CounterVec
	discountAmount  prometheus.Histogram
	skippedRules    prometheus.Counter
	rejectedItems   prometheus.Counter
	sourceFallbacks prometheus.Counter
	orders          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		requestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_rate_limited_total",
				Help:      "Requests rejected by the per-client rate limiter",
			},
		),
		calculations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "discount_calculations_total",
				Help:      "Discount calculations by outcome",
			},
			[]string{"outcome"},
		),
		discountAmount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "discount_amount",
				Help:      "Total discount granted per calculation, in currency units",
				Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
		),
		skippedRules: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "discount_rules_skipped_total",
				Help:      "Malformed rules skipped during evaluation",
			},
		),
		rejectedItems: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cart_items_rejected_total",
				Help:      "Cart lines rejected as invalid during evaluation",
			},
		),
		sourceFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rule_source_fallbacks_total",
				Help:      "Rule documents read from local disk after object storage failed",
			},
		),
		orders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "orders_total",
				Help:      "Checkout attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RequestStarted increments the in-flight gauge and returns the matching
// decrement.
func (m *Metrics) RequestStarted() func() {
	if m == nil {
		return func() {}
	}
	m.requestsInFlight.Inc()
	return m.requestsInFlight.Dec
}

// RateLimited counts one rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// ObserveCalculation records the result of one discount calculation.
func (m *Metrics) ObserveCalculation(outcome string, discount decimal.Decimal, skipped, rejected int) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeDiscounted {
		m.discountAmount.Observe(discount.InexactFloat64())
	}
	m.skippedRules.Add(float64(skipped))
	m.rejectedItems.Add(float64(rejected))
}

// SourceFallback counts one read served by the local rule file.
func (m *Metrics) SourceFallback() {
	if m == nil {
		return
	}
	m.sourceFallbacks.Inc()
}

// ObserveOrder records one checkout attempt.
func (m *Metrics) ObserveOrder(outcome string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(outcome).Inc()
}
