// Package metrics exposes the Prometheus instruments used across the pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trend_sentinel"

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Provider metrics
	ProviderRequestsTotal *prometheus.CounterVec
	ProviderDuration      *prometheus.HistogramVec
	ProviderBars          *prometheus.GaugeVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Pipeline metrics
	FetchCyclesTotal *prometheus.CounterVec
	CanonicalBars    *prometheus.GaugeVec
	TrendLabelsTotal *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// New creates and registers all metrics on reg, or on the default registerer
// when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Provider fetches by outcome (ok, empty, failed)",
			},
			[]string{"provider", "outcome"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "duration_seconds",
				Help:      "Duration of a provider fetch including normalization",
				Buckets:   defaultBuckets,
			},
			[]string{"provider"},
		),
		ProviderBars: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "bars",
				Help:      "Bars returned by the last fetch of each provider",
			},
			[]string{"provider"},
		),

		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of outbound HTTP requests",
			},
			[]string{"host"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of failed outbound HTTP requests",
			},
			[]string{"host", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of outbound HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"host"},
		),

		FetchCyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "fetch_cycles_total",
				Help:      "Fetch cycles by status (ok, no_data)",
			},
			[]string{"symbol", "status"},
		),
		CanonicalBars: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "canonical_bars",
				Help:      "Bars in the current canonical series",
			},
			[]string{"symbol"},
		),
		TrendLabelsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "trend_reports_total",
				Help:      "Trend reports produced, by label",
			},
			[]string{"symbol", "label"},
		),

		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}
}

// RecordProviderFetch records one provider fetch.
func (m *Metrics) RecordProviderFetch(provider, outcome string, bars int, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
	m.ProviderBars.WithLabelValues(provider).Set(float64(bars))
}

// RecordExternalAPIRequest records an outbound request and its duration.
func (m *Metrics) RecordExternalAPIRequest(host string, d time.Duration) {
	if m == nil {
		return
	}
	m.ExternalAPIRequestsTotal.WithLabelValues(host).Inc()
	m.ExternalAPIDuration.WithLabelValues(host).Observe(d.Seconds())
}

// RecordExternalAPIError records a failed outbound request.
func (m *Metrics) RecordExternalAPIError(host, errorType string) {
	if m == nil {
		return
	}
	m.ExternalAPIErrorsTotal.WithLabelValues(host, errorType).Inc()
}

// RecordFetchCycle records the end of a fetch cycle.
func (m *Metrics) RecordFetchCycle(symbol, status string, bars int) {
	if m == nil {
		return
	}
	m.FetchCyclesTotal.WithLabelValues(symbol, status).Inc()
	if status == "ok" {
		m.CanonicalBars.WithLabelValues(symbol).Set(float64(bars))
	}
}

// RecordTrendReport records the label of a produced report.
func (m *Metrics) RecordTrendReport(symbol, label string) {
	if m == nil {
		return
	}
	m.TrendLabelsTotal.WithLabelValues(symbol, label).Inc()
}

// SetCircuitBreakerState sets the current state of a circuit breaker.
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip.
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	if m == nil {
		return
	}
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}
