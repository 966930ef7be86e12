package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the simulation pipeline.
type Metrics struct {
	RecordsGenerated prometheus.Counter
	RecordsPublished prometheus.Counter
	PipelineRunning  prometheus.Gauge
	AnomaliesFlagged prometheus.Gauge
	ModelMSE         prometheus.Gauge

	FeatureImportance *prometheus.GaugeVec     // label: feature
	StageDuration     *prometheus.HistogramVec // label: stage={generate,features,train,detect}
	StageErrors       *prometheus.CounterVec   // label: stage
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsGenerated,
		m.RecordsPublished,
		m.PipelineRunning,
		m.AnomaliesFlagged,
		m.ModelMSE,
		m.FeatureImportance,
		m.StageDuration,
		m.StageErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "insar_sim",
			Name:      "records_generated_total",
			Help:      "Total synthetic measurement records generated.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "insar_sim",
			Name:      "records_published_total",
			Help:      "Total final records published to the sink topic.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "insar_sim",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress, 0 otherwise.",
		}),
		AnomaliesFlagged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "insar_sim",
			Name:      "anomalies_flagged",
			Help:      "Anomalous records flagged by the most recent run.",
		}),
		ModelMSE: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "insar_sim",
			Name:      "model_mse",
			Help:      "Held-out mean squared error of the most recent model.",
		}),
		FeatureImportance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "insar_sim",
			Name:      "feature_importance",
			Help:      "Relative feature importance of the most recent model.",
		}, []string{"feature"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insar_sim",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insar_sim",
			Name:      "stage_errors_total",
			Help:      "Stage failures by stage name.",
		}, []string{"stage"}),
	}
}
