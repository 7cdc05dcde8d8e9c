package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricTrainingRuns      = "revscore_training_runs_total"
	MetricTrainingErrors    = "revscore_training_errors_total"
	MetricTrainingDuration  = "revscore_training_duration_seconds"
	MetricTrainingLastLoss  = "revscore_training_last_loss"
	MetricTrainingExamples  = "revscore_training_examples"
	MetricModelVersion      = "revscore_model_version"
	MetricEvaluations       = "revscore_evaluations_total"
	MetricPredictions       = "revscore_predictions_total"
	MetricEvaluationErrors  = "revscore_evaluation_errors_total"
	MetricLastEvaluationRun = "revscore_last_evaluation_timestamp"
)

// Metrics contains Prometheus metrics for training and evaluation.
// All operations are thread-safe.
type Metrics struct {
	trainingRuns      prometheus.Counter
	trainingErrors    prometheus.Counter
	trainingDuration  prometheus.Histogram
	trainingLastLoss  prometheus.Gauge
	trainingExamples  prometheus.Gauge
	modelVersion      prometheus.Gauge
	evaluations       prometheus.Counter
	predictions       prometheus.Counter
	evaluationErrors  prometheus.Counter
	lastEvaluationRun prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		trainingRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTrainingRuns,
			Help: "Total number of calibration training runs",
		}),
		trainingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTrainingErrors,
			Help: "Total number of failed calibration training runs",
		}),
		trainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricTrainingDuration,
			Help:    "Histogram of calibration training duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		trainingLastLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrainingLastLoss,
			Help: "Final training loss of the last successful run",
		}),
		trainingExamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricTrainingExamples,
			Help: "Number of training examples used by the last successful run",
		}),
		modelVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricModelVersion,
			Help: "Version of the most recently saved calibration model",
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEvaluations,
			Help: "Total number of evaluation runs",
		}),
		predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPredictions,
			Help: "Total number of calibrated predictions produced",
		}),
		evaluationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEvaluationErrors,
			Help: "Total number of failed evaluation runs",
		}),
		lastEvaluationRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastEvaluationRun,
			Help: "Unix timestamp of the last successful evaluation",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveTraining records the outcome of one training run.
func (m *Metrics) ObserveTraining(res TrainResult, err error) {
	m.trainingRuns.Inc()
	m.trainingDuration.Observe(res.Duration.Seconds())
	if err != nil {
		m.trainingErrors.Inc()
		return
	}
	m.trainingLastLoss.Set(res.FinalLoss)
	m.trainingExamples.Set(float64(res.TrainExamples))
	m.modelVersion.Set(float64(res.Version.Version))
}

// ObserveEvaluation records the outcome of one evaluation run.
func (m *Metrics) ObserveEvaluation(predictions int, timestamp float64, err error) {
	m.evaluations.Inc()
	if err != nil {
		m.evaluationErrors.Inc()
		return
	}
	m.predictions.Add(float64(predictions))
	m.lastEvaluationRun.Set(timestamp)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.trainingRuns,
		m.trainingErrors,
		m.trainingDuration,
		m.trainingLastLoss,
		m.trainingExamples,
		m.modelVersion,
		m.evaluations,
		m.predictions,
		m.evaluationErrors,
		m.lastEvaluationRun,
	}
}
