package core

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleComments() []schema.CommentRecord {
	return []schema.CommentRecord{
		{ID: 1, Text: "fast and excellent", WebsiteRating: ptr(5.0)},
		{ID: 2, Text: "slow refund, broken"},
		{ID: 3, Text: "excellent", WebsiteRating: ptr(2.0)},
		{ID: 4, Text: "nothing useful"},
		{ID: 5, Text: "slow", WebsiteRating: ptr(3.0)},
	}
}

func TestBuildDatasetEmpty(t *testing.T) {
	scorer := NewScorer(testLexicon(t), neutral(), 0)
	feedback := []schema.FeedbackRecord{{CommentID: 1, Text: "fast", TrueImportance: 3, TrueQuality: 4}}

	ds, err := scorer.BuildDataset(context.Background(), nil, feedback)
	assert.Nil(t, ds)
	assert.ErrorIs(t, err, contract.ErrEmptyDataset)
}

func TestBuildDataset(t *testing.T) {
	scorer := NewScorer(testLexicon(t), neutral(), 0)
	feedback := []schema.FeedbackRecord{
		{CommentID: 3, Text: "excellent", TrueImportance: 0.5, TrueQuality: 4.5},
	}

	ds, err := scorer.BuildDataset(context.Background(), sampleComments(), feedback)
	require.NoError(t, err)
	require.Equal(t, 6, ds.Len())
	assert.Equal(t, 5, ds.CountSource(schema.CommentSource))
	assert.Equal(t, 1, ds.CountSource(schema.FeedbackSource))

	for _, ex := range ds.Examples[:5] {
		assert.Equal(t, ex.Features, ex.Target, "comment targets are their own heuristic")
	}

	fb := ds.Examples[5]
	assert.Equal(t, [2]float64{0.5, 4.5}, fb.Target)
	// Feedback never blends the rating: "excellent" stays at (1, 5).
	assert.Equal(t, [2]float64{1, 5}, fb.Features)
	// The comment with the same text and a rating of 2 was blended.
	assert.Less(t, ds.Examples[2].Features[1], 5.0)
}

func TestBuildDatasetStandardizes(t *testing.T) {
	scorer := NewScorer(testLexicon(t), neutral(), 0)
	ds, err := scorer.BuildDataset(context.Background(), sampleComments(), nil)
	require.NoError(t, err)

	inputs := ds.Inputs()
	for j := range 2 {
		var mean, sq float64
		for _, x := range inputs {
			mean += x[j]
		}
		mean /= float64(len(inputs))
		for _, x := range inputs {
			sq += (x[j] - mean) * (x[j] - mean)
		}
		assert.InDelta(t, 0, mean, 1e-9, "column %d mean", j)
		assert.InDelta(t, 1, math.Sqrt(sq/float64(len(inputs))), 1e-9, "column %d std", j)
	}
}

func TestBuildDatasetPropagatesSentimentFailure(t *testing.T) {
	cls := &stubClassifier{err: fmt.Errorf("503")}
	_, err := NewScorer(testLexicon(t), cls, 0).BuildDataset(context.Background(), sampleComments(), nil)
	assert.ErrorIs(t, err, contract.ErrUpstreamService)
	assert.Equal(t, int32(1), cls.calls.Load(), "no retries")
}

func TestStandardizer(t *testing.T) {
	st := FitStandardizer([][2]float64{{1, 3}, {3, 3}})
	assert.Equal(t, [2]float64{2, 3}, st.Mean)
	assert.Equal(t, [2]float64{1, 0}, st.Std)
	// Zero spread only centers.
	assert.Equal(t, [2]float64{1, 2}, st.Apply([2]float64{3, 5}))

	empty := FitStandardizer(nil)
	assert.Equal(t, [2]float64{4, 5}, empty.Apply([2]float64{4, 5}))
}

func TestDatasetSplit(t *testing.T) {
	examples := make([]Example, 10)
	for i := range examples {
		examples[i] = Example{Comment: fmt.Sprint(i), Features: [2]float64{float64(i), 1}}
	}
	ds := &Dataset{Examples: examples, Standardizer: FitStandardizer([][2]float64{{0, 1}, {9, 1}})}

	train, val := ds.Split(0.2, 42)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, val.Len())
	assert.Equal(t, ds.Standardizer, train.Standardizer)
	assert.Equal(t, ds.Standardizer, val.Standardizer)

	seen := map[string]bool{}
	for _, ex := range append(train.Examples, val.Examples...) {
		seen[ex.Comment] = true
	}
	assert.Len(t, seen, 10, "split is a partition")

	train2, val2 := ds.Split(0.2, 42)
	assert.Equal(t, train.Examples, train2.Examples, "same seed, same split")
	assert.Equal(t, val.Examples, val2.Examples)

	t.Run("held-out count rounds up", func(t *testing.T) {
		_, v := (&Dataset{Examples: examples[:6]}).Split(0.2, 1)
		assert.Equal(t, 2, v.Len())
	})

	t.Run("tiny dataset keeps everything for training", func(t *testing.T) {
		tr, v := (&Dataset{Examples: examples[:1]}).Split(0.2, 1)
		assert.Equal(t, 1, tr.Len())
		assert.Equal(t, 0, v.Len())
	})

	t.Run("zero ratio", func(t *testing.T) {
		tr, v := ds.Split(0, 1)
		assert.Equal(t, 10, tr.Len())
		assert.Equal(t, 0, v.Len())
	})
}
