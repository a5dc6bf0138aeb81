package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heatrisk"

// Metrics holds the Prometheus collectors for upstream calls and aggregation.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec   // labels: upstream, outcome={success,error,circuit_open}
	UpstreamDuration *prometheus.HistogramVec // labels: upstream
	UpstreamUp       *prometheus.GaugeVec     // labels: upstream; set by the health probe
	BreakerState     *prometheus.GaugeVec     // labels: upstream; 0 closed, 1 half-open, 2 open

	SkippedLocations prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound requests to the weather provider and ML service by outcome.",
		}, []string{"upstream", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outbound request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
		UpstreamUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_up",
			Help:      "1 when the last health probe of the upstream succeeded, 0 otherwise.",
		}, []string{"upstream"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open).",
		}, []string{"upstream"}),
		SkippedLocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_locations_total",
			Help:      "Locations left out of a risk map because weather was missing.",
		}),
	}
}

// NewMetrics creates the collectors and registers them with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.UpstreamUp,
		m.BreakerState,
		m.SkippedLocations,
	)
	return m
}

// NewMetricsForTesting returns unregistered collectors so tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
