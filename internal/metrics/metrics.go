package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for quoting, issuance and the HTTP layer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Quotes computed by insurance type
	QuotesComputed *prometheus.CounterVec

	// Refused quote requests by error code
	QuotesRejected *prometheus.CounterVec

	// Engine latency
	QuoteLatency prometheus.Histogram

	// Payments committed by vehicle type and method
	PaymentsRecorded *prometheus.CounterVec

	// Premium committed, in table currency units
	PremiumCollected *prometheus.CounterVec

	// Event publishing failures
	EventPublishFailures prometheus.Counter

	// HTTP requests by method, route pattern and status
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QuotesComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motor_insurance_quotes_computed_total",
			Help: "Total quotes computed by insurance type",
		}, []string{"insurance_type"}),

		QuotesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motor_insurance_quotes_rejected_total",
			Help: "Total quote requests refused by error code",
		}, []string{"code"}),

		QuoteLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "motor_insurance_quote_duration_seconds",
			Help:    "Duration of quote computation",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),

		PaymentsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motor_insurance_payments_recorded_total",
			Help: "Total payments committed by vehicle type and payment method",
		}, []string{"vehicle_type", "method"}),

		PremiumCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motor_insurance_premium_collected_total",
			Help: "Premium committed with payments, by currency",
		}, []string{"currency"}),

		EventPublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "motor_insurance_event_publish_failures_total",
			Help: "Total policy events that could not be published",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "motor_insurance_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "motor_insurance_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveQuote records a computed quote.
func (m *Metrics) ObserveQuote(insuranceType string, d time.Duration) {
	if m != nil {
		m.QuotesComputed.WithLabelValues(insuranceType).Inc()
		m.QuoteLatency.Observe(d.Seconds())
	}
}

// IncrementQuoteRejected records a refused quote request.
func (m *Metrics) IncrementQuoteRejected(code string) {
	if m != nil {
		m.QuotesRejected.WithLabelValues(code).Inc()
	}
}

// ObservePayment records a committed payment and its amount.
func (m *Metrics) ObservePayment(vehicleType, method, currency string, amount float64) {
	if m != nil {
		m.PaymentsRecorded.WithLabelValues(vehicleType, method).Inc()
		m.PremiumCollected.WithLabelValues(currency).Add(amount)
	}
}

// IncrementEventPublishFailure records an event that was not delivered.
func (m *Metrics) IncrementEventPublishFailure() {
	if m != nil {
		m.EventPublishFailures.Inc()
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, route, status).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
	}
}
