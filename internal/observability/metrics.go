package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// report analysis service.
type Metrics struct {
	ReportsIngested   prometheus.Counter
	IngestErrors      prometheus.Counter
	MappingConfirmed  prometheus.Counter
	MappingRejections prometheus.Counter
	ActiveSessions    prometheus.Gauge
	SessionsExpired   prometheus.Counter

	RowsPerReport       prometheus.Histogram
	AggregationRequests *prometheus.CounterVec // labels: view, metric
	AggregationDuration prometheus.Histogram
	ExportsServed       prometheus.Counter

	SinkRecordsPublished prometheus.Counter
	SinkErrors           prometheus.Counter
	SinkEnabled          prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReportsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "reports_ingested_total",
			Help:      "Total report files successfully parsed.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "ingest_errors_total",
			Help:      "Total report uploads rejected as unreadable or empty.",
		}),
		MappingConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "mapping_confirmed_total",
			Help:      "Total field mappings confirmed and projected.",
		}),
		MappingRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "mapping_rejections_total",
			Help:      "Total mapping confirmations rejected for missing or duplicate fields.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "royalty",
			Name:      "active_sessions",
			Help:      "Number of live report analysis sessions.",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "sessions_expired_total",
			Help:      "Total sessions dropped by idle-TTL expiry.",
		}),
		RowsPerReport: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "royalty",
			Name:      "rows_per_report",
			Help:      "Data rows per ingested report.",
			Buckets:   []float64{10, 100, 1000, 10000, 50000, 100000, 500000, 1000000},
		}),
		AggregationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "aggregation_requests_total",
			Help:      "Ranked-view requests by view and metric.",
		}, []string{"view", "metric"}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "royalty",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of one filter-aggregate-rank cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		ExportsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "exports_served_total",
			Help:      "Total CSV exports rendered.",
		}),
		SinkRecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "sink_records_published_total",
			Help:      "Canonical records published to the Kafka sink.",
		}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "royalty",
			Name:      "sink_errors_total",
			Help:      "Failed Kafka sink publishes.",
		}),
		SinkEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "royalty",
			Name:      "sink_enabled",
			Help:      "1 when the Kafka sink is configured, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ReportsIngested,
		m.IngestErrors,
		m.MappingConfirmed,
		m.MappingRejections,
		m.ActiveSessions,
		m.SessionsExpired,
		m.RowsPerReport,
		m.AggregationRequests,
		m.AggregationDuration,
		m.ExportsServed,
		m.SinkRecordsPublished,
		m.SinkErrors,
		m.SinkEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding duplicate-registration panics across tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReportsIngested:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "royalty", Name: "reports_ingested_total"}),
		IngestErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "royalty", Name: "ingest_errors_total"}),
		MappingConfirmed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "royalty", Name: "mapping_confirmed_total"}),
		MappingRejections:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "royalty", Name: "mapping_rejections_total"}),
		ActiveSessions:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "royalty", Name: "active_sessions"}),
		SessionsExpired:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "royalty", Name: "sessions_expired_total"}),
		RowsPerReport:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "royalty", Name: "rows_per_report"}),
		AggregationRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "royalty", Name: "aggregation_requests_total"}, []string{"view", "metric"}),
		AggregationDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "royalty", Name: "aggregation_duration_seconds"}),
		ExportsServed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "royalty", Name: "exports_served_total"}),
		SinkRecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "royalty", Name: "sink_records_published_total"}),
		SinkErrors:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "royalty", Name: "sink_errors_total"}),
		SinkEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "royalty", Name: "sink_enabled"}),
	}
}
