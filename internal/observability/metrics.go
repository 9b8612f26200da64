package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// extraction pipeline.
type Metrics struct {
	FilesScanned     prometheus.Counter
	FilesSkipped     *prometheus.CounterVec // label: reason={scan_error,format_error,resource_limit}
	RowsNormalized   prometheus.Counter
	RecordsValid     prometheus.Counter
	RecordsInvalid   *prometheus.CounterVec // label: reason
	RecordsDuplicate prometheus.Counter
	PipelineRunning  prometheus.Gauge

	FileProcessingDuration prometheus.Histogram
	RunDuration            prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flight_etl",
			Name:      "files_scanned_total",
			Help:      "Total source files emitted by the scanner.",
		}),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_etl",
			Name:      "files_skipped_total",
			Help:      "Files skipped during scanning, by reason.",
		}, []string{"reason"}),
		RowsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flight_etl",
			Name:      "rows_normalized_total",
			Help:      "Total raw rows mapped onto the canonical schema.",
		}),
		RecordsValid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flight_etl",
			Name:      "records_valid_total",
			Help:      "Records that passed all invariants.",
		}),
		RecordsInvalid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_etl",
			Name:      "records_invalid_total",
			Help:      "Records rejected by the validator, by reason.",
		}, []string{"reason"}),
		RecordsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flight_etl",
			Name:      "records_duplicate_total",
			Help:      "Records dropped as duplicates in the merge stage.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		FileProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flight_etl",
			Name:      "file_processing_duration_seconds",
			Help:      "Duration of normalize+validate for one source file.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flight_etl",
			Name:      "run_duration_seconds",
			Help:      "End-to-end duration of a pipeline run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		}),
	}

	prometheus.MustRegister(
		m.FilesScanned,
		m.FilesSkipped,
		m.RowsNormalized,
		m.RecordsValid,
		m.RecordsInvalid,
		m.RecordsDuplicate,
		m.PipelineRunning,
		m.FileProcessingDuration,
		m.RunDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilesScanned:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flight_etl", Name: "files_scanned_total"}),
		FilesSkipped:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flight_etl", Name: "files_skipped_total"}, []string{"reason"}),
		RowsNormalized:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flight_etl", Name: "rows_normalized_total"}),
		RecordsValid:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flight_etl", Name: "records_valid_total"}),
		RecordsInvalid:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flight_etl", Name: "records_invalid_total"}, []string{"reason"}),
		RecordsDuplicate:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flight_etl", Name: "records_duplicate_total"}),
		PipelineRunning:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "flight_etl", Name: "pipeline_running"}),
		FileProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flight_etl", Name: "file_processing_duration_seconds"}),
		RunDuration:            prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flight_etl", Name: "run_duration_seconds"}),
	}
}
