package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the dashboard API.
type Metrics struct {
	// Request latency by route pattern and status code
	RequestLatency *prometheus.HistogramVec

	// Engine recompute latency (filter + analytics + insights + summary)
	ExecuteLatency prometheus.Histogram

	// Records surviving the filter per recompute
	FilteredRecords prometheus.Histogram

	// Provider loads by outcome: loaded, fallback, failed
	Loads *prometheus.CounterVec
}

// NewMetrics registers the API metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civiclens_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "status"}),

		ExecuteLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "civiclens_engine_execute_duration_seconds",
			Help:    "Duration of one dashboard recompute",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),

		FilteredRecords: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "civiclens_engine_filtered_records",
			Help:    "Records remaining after filtering",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),

		Loads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "civiclens_dataset_loads_total",
			Help: "Dataset bundle loads by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
	}
}

// ObserveExecute records one engine recompute.
func (m *Metrics) ObserveExecute(d time.Duration, records int) {
	if m != nil {
		m.ExecuteLatency.Observe(d.Seconds())
		m.FilteredRecords.Observe(float64(records))
	}
}

// ObserveLoad records a provider load; it matches source.LoadObserver.
func (m *Metrics) ObserveLoad(outcome string, _ time.Duration) {
	if m != nil {
		m.Loads.WithLabelValues(outcome).Inc()
	}
}
