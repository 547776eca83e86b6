package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lepto_analytics"

// Metrics holds the Prometheus counters, histograms, and gauges for the analytics service.
type Metrics struct {
	DatasetRows   prometheus.Gauge
	DatasetCities prometheus.Gauge

	// Query metrics.
	QueriesTotal  *prometheus.CounterVec   // labels: operation={yearly,monthly,peaks,presence,overlay,report,summary}, outcome={success,error}
	QueryDuration *prometheus.HistogramVec // labels: operation
	OverlayCache  *prometheus.CounterVec   // labels: result={hit,miss}

	// Report publishing metrics.
	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DatasetRows,
		m.DatasetCities,
		m.QueriesTotal,
		m.QueryDuration,
		m.OverlayCache,
		m.ReportsPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Number of case records in the loaded dataset.",
		}),
		DatasetCities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_cities",
			Help:      "Number of distinct cities in the loaded dataset.",
		}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Analytics queries by operation and outcome.",
		}, []string{"operation", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of analytics queries in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		OverlayCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlay_cache_total",
			Help:      "Overlay cache lookups by result.",
		}, []string{"result"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Total city reports written to the report topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total failed report publish attempts.",
		}),
	}
}
