package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	FilesConsumed     prometheus.Counter
	DocumentsProduced prometheus.Counter
	ConvertErrors     prometheus.Counter
	PipelineRunning   prometheus.Gauge

	// Conversion metrics.
	FilesByKind       *prometheus.CounterVec // label: kind
	RoundTripFailures prometheus.Counter
	Diagnostics       *prometheus.CounterVec // label: level={info,warning}

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gssha_etl",
			Name:      "files_consumed_total",
			Help:      "Total model files picked up from the drop directory.",
		}),
		DocumentsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gssha_etl",
			Name:      "documents_produced_total",
			Help:      "Total converted documents written to the sink topic.",
		}),
		ConvertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gssha_etl",
			Name:      "convert_errors_total",
			Help:      "Total conversion failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gssha_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		FilesByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gssha_etl",
			Name:      "files_by_kind_total",
			Help:      "Converted files by detected grammar kind.",
		}, []string{"kind"}),
		RoundTripFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gssha_etl",
			Name:      "round_trip_failures_total",
			Help:      "Conversions whose canonical output failed to reproduce itself.",
		}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gssha_etl",
			Name:      "diagnostics_total",
			Help:      "Non-fatal parse findings by level.",
		}, []string{"level"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gssha_etl",
			Name:      "batch_size",
			Help:      "Number of files per batch extracted from the drop directory.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gssha_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-convert-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.FilesConsumed,
		m.DocumentsProduced,
		m.ConvertErrors,
		m.PipelineRunning,
		m.FilesByKind,
		m.RoundTripFailures,
		m.Diagnostics,
		m.BatchSize,
		m.BatchProcessingDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilesConsumed:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gssha_etl", Name: "files_consumed_total"}),
		DocumentsProduced:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gssha_etl", Name: "documents_produced_total"}),
		ConvertErrors:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gssha_etl", Name: "convert_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "gssha_etl", Name: "pipeline_running"}),
		FilesByKind:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gssha_etl", Name: "files_by_kind_total"}, []string{"kind"}),
		RoundTripFailures:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "gssha_etl", Name: "round_trip_failures_total"}),
		Diagnostics:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "gssha_etl", Name: "diagnostics_total"}, []string{"level"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "gssha_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "gssha_etl", Name: "batch_processing_duration_seconds"}),
	}
}
