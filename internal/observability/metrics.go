package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// triage pipeline.
type Metrics struct {
	BulletinsIngested *prometheus.CounterVec // labels: source
	RecordsInserted   *prometheus.CounterVec // labels: stage={ingest,clean,extract}
	DuplicatesSkipped *prometheus.CounterVec // labels: stage={ingest,clean,extract}
	RecordFailures    *prometheus.CounterVec // labels: stage={ingest,clean,extract,dedup}
	GroupsCreated     prometheus.Counter
	CardsPublished    prometheus.Counter
	PipelineRunning   prometheus.Gauge

	StageDuration *prometheus.HistogramVec // labels: stage
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		BulletinsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hurricane_triage",
			Name:      "bulletins_ingested_total",
			Help:      "Total bulletins fetched from each source.",
		}, []string{"source"}),
		RecordsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hurricane_triage",
			Name:      "records_inserted_total",
			Help:      "Total new records written per pipeline stage.",
		}, []string{"stage"}),
		DuplicatesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hurricane_triage",
			Name:      "duplicates_skipped_total",
			Help:      "Total records skipped per stage because they already existed.",
		}, []string{"stage"}),
		RecordFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hurricane_triage",
			Name:      "record_failures_total",
			Help:      "Total per-record processing failures per stage.",
		}, []string{"stage"}),
		GroupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hurricane_triage",
			Name:      "duplicate_groups_created_total",
			Help:      "Total duplicate groups created.",
		}),
		CardsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hurricane_triage",
			Name:      "cards_published_total",
			Help:      "Total cards published to the downstream topic.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hurricane_triage",
			Name:      "pipeline_running",
			Help:      "1 when a pipeline run is active, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hurricane_triage",
			Name:      "stage_duration_seconds",
			Help:      "Duration of one pipeline stage pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}

	prometheus.MustRegister(
		m.BulletinsIngested,
		m.RecordsInserted,
		m.DuplicatesSkipped,
		m.RecordFailures,
		m.GroupsCreated,
		m.CardsPublished,
		m.PipelineRunning,
		m.StageDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		BulletinsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hurricane_triage", Name: "bulletins_ingested_total"}, []string{"source"}),
		RecordsInserted:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hurricane_triage", Name: "records_inserted_total"}, []string{"stage"}),
		DuplicatesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hurricane_triage", Name: "duplicates_skipped_total"}, []string{"stage"}),
		RecordFailures:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hurricane_triage", Name: "record_failures_total"}, []string{"stage"}),
		GroupsCreated:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hurricane_triage", Name: "duplicate_groups_created_total"}),
		CardsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hurricane_triage", Name: "cards_published_total"}),
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hurricane_triage", Name: "pipeline_running"}),
		StageDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "hurricane_triage", Name: "stage_duration_seconds"}, []string{"stage"}),
	}
}
