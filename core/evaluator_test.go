package core

import (
	"context"
	"testing"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/internal/iocache"
	"github.com/huangsam/revscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadModelBeforeTraining(t *testing.T) {
	store, err := iocache.NewFileModelStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = LoadModel(context.Background(), store, "calibration", 0)
	assert.ErrorIs(t, err, contract.ErrModelNotFound)

	_, _, err = LoadModel(context.Background(), store, "calibration", 3)
	assert.ErrorIs(t, err, contract.ErrModelNotFound)
}

func TestEvaluate(t *testing.T) {
	scorer := NewScorer(testLexicon(t), neutral(), 0)
	model := NewModel(4)
	model.Standardizer = Standardizer{Mean: [2]float64{2.5, 3}, Std: [2]float64{1, 1}}
	ev := NewEvaluator(scorer, nil, nil)

	comments := sampleComments()
	preds, err := ev.Evaluate(context.Background(), model, comments)
	require.NoError(t, err)
	require.Len(t, preds, len(comments))

	for i, p := range preds {
		assert.Equal(t, comments[i].Text, p.Comment, "order is preserved")
		assert.Equal(t, p.PredictedImportance, Round2(p.PredictedImportance))
		assert.Equal(t, p.PredictedQuality, Round2(p.PredictedQuality))
		assert.GreaterOrEqual(t, p.PredictedQuality, 1.0)
		assert.LessOrEqual(t, p.PredictedImportance, 5.0)
	}

	// Statistics come from the model, so a prediction does not depend on the rest of the batch.
	single, err := ev.Evaluate(context.Background(), model, comments[1:2])
	require.NoError(t, err)
	assert.Equal(t, preds[1], single[0])

	h, err := scorer.Score(context.Background(), comments[1].Text, comments[1].WebsiteRating)
	require.NoError(t, err)
	want := model.Predict([2]float64{h.Importance, h.Quality})
	assert.Equal(t, Round2(want[0]), preds[1].PredictedImportance)
	assert.Equal(t, Round2(h.Quality), preds[1].HeuristicQuality)
}

func TestEvaluateEmpty(t *testing.T) {
	ev := NewEvaluator(NewScorer(testLexicon(t), neutral(), 0), nil, nil)
	_, err := ev.Evaluate(context.Background(), NewModel(1), nil)
	assert.ErrorIs(t, err, contract.ErrEmptyDataset)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.1, Round2(3.1000000000000001))
	assert.Equal(t, 2.35, Round2(2.345000001))
	assert.Equal(t, -1.0, Round2(-0.999))
	assert.Equal(t, 0.0, Round2(0.004))
}

func TestEvaluateUsesStoredModelOnly(t *testing.T) {
	scorer := NewScorer(testLexicon(t), neutral(), 0)
	comments := []schema.CommentRecord{{Text: "fast"}, {Text: "excellent"}}
	a := NewModel(1)
	a.Standardizer = Standardizer{Mean: [2]float64{0, 0}, Std: [2]float64{1, 1}}
	b := NewModel(1)
	b.Standardizer = Standardizer{Mean: [2]float64{4, 4}, Std: [2]float64{2, 2}}

	pa, err := NewEvaluator(scorer, nil, nil).Evaluate(context.Background(), a, comments)
	require.NoError(t, err)
	pb, err := NewEvaluator(scorer, nil, nil).Evaluate(context.Background(), b, comments)
	require.NoError(t, err)
	assert.NotEqual(t, pa, pb, "different stored statistics give different inputs")
}
