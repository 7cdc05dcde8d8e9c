package core

import (
	"errors"
	"testing"
	"time"

	"github.com/huangsam/revscore/schema"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegister(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	for _, name := range []string{MetricTrainingRuns, MetricTrainingErrors, MetricTrainingDuration, MetricTrainingLastLoss, MetricEvaluations, MetricPredictions} {
		assert.True(t, names[name], "metric %s not gathered", name)
	}

	assert.Error(t, NewMetrics().Register(reg), "duplicate registration fails")
}

func TestMetricsObserve(t *testing.T) {
	m := NewMetrics()
	m.ObserveTraining(TrainResult{FinalLoss: 0.25, TrainExamples: 16, Duration: time.Second, Version: schema.ModelVersion{Version: 3}}, nil)
	m.ObserveTraining(TrainResult{}, errors.New("boom"))
	m.ObserveEvaluation(5, 1700000000, nil)
	m.ObserveEvaluation(0, 0, errors.New("boom"))

	assert.Equal(t, 2.0, counterValue(t, m.trainingRuns))
	assert.Equal(t, 1.0, counterValue(t, m.trainingErrors))
	assert.Equal(t, 0.25, gaugeValue(t, m.trainingLastLoss))
	assert.Equal(t, 3.0, gaugeValue(t, m.modelVersion))
	assert.Equal(t, 2.0, counterValue(t, m.evaluations))
	assert.Equal(t, 5.0, counterValue(t, m.predictions))
	assert.Equal(t, 1.0, counterValue(t, m.evaluationErrors))
}

func TestTrainerRecordsMetrics(t *testing.T) {
	m := NewMetrics()
	_, err := NewTrainer(testTrainingConfig(), nil, m).Train(t.Context(), &Dataset{}, nil, "calibration")
	require.Error(t, err)
	assert.Equal(t, 1.0, counterValue(t, m.trainingErrors))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, g.Write(&metric))
	return metric.GetGauge().GetValue()
}
