package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_alerts"

// Metrics holds the Prometheus collectors for alert scanning.
type Metrics struct {
	ScansTotal       prometheus.Counter
	ScanDuration     prometheus.Histogram
	AlertsGenerated  *prometheus.CounterVec // labels: type
	LocationFailures prometheus.Counter
	AlertsExpired    prometheus.Counter
	AlertsSuppressed prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed batch scans over enabled alert preferences.",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of a full batch scan.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		AlertsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_total",
			Help:      "Alert events recorded, by alert type.",
		}, []string{"type"}),
		LocationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_failures_total",
			Help:      "Preference locations skipped because fetch or normalization failed.",
		}),
		AlertsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_total",
			Help:      "Alerts deactivated because their end time passed.",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suppressed_total",
			Help:      "Alert events dropped by deduplication.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ScansTotal,
		m.ScanDuration,
		m.AlertsGenerated,
		m.LocationFailures,
		m.AlertsExpired,
		m.AlertsSuppressed,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
