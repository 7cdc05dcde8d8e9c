package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorerEndToEndExample(t *testing.T) {
	lex, err := NewLexicon(map[string]Weight{"fast": {Importance: 4, Quality: 1}})
	require.NoError(t, err)
	cls := &stubClassifier{verdict: schema.SentimentVerdict{Label: schema.Positive, Confidence: 0.9}}
	scorer := NewScorer(lex, cls, time.Second)

	bd, err := scorer.Explain(context.Background(), "Great product, fast delivery!", nil)
	require.NoError(t, err)
	assert.Equal(t, 4.0, bd.RawImportance)
	assert.Equal(t, 1.0, bd.RawQuality)
	assert.InDelta(t, 3.1, bd.Heuristic.Importance, 1e-9)
	assert.InDelta(t, 2.8, bd.Heuristic.Quality, 1e-9)
	assert.Equal(t, int32(1), cls.calls.Load())
}

func TestScorerRatingBlend(t *testing.T) {
	scorer := NewScorer(testLexicon(t), neutral(), 0)
	ctx := context.Background()

	// "excellent" gives (1, 5); a rating of 1 pulls quality down by 4*0.95*0.15.
	plain, err := scorer.Score(ctx, "excellent", nil)
	require.NoError(t, err)
	assert.Equal(t, schema.HeuristicScore{Importance: 1, Quality: 5}, plain)

	rated, err := scorer.Score(ctx, "excellent", ptr(1.0))
	require.NoError(t, err)
	assert.InDelta(t, 4.43, rated.Quality, 1e-12)
	assert.Equal(t, 1.0, rated.Importance)
}

func TestScorerClampsQualityFloor(t *testing.T) {
	scorer := NewScorer(testLexicon(t), neutral(), 0)
	h, err := scorer.Score(context.Background(), "no keywords at all", nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, h.Importance)
	assert.Equal(t, 1.0, h.Quality, "raw quality 0 is floored")
}

func TestScorerClassifierFailure(t *testing.T) {
	t.Run("plain error becomes upstream error", func(t *testing.T) {
		cls := &stubClassifier{err: errors.New("connection reset")}
		_, err := NewScorer(testLexicon(t), cls, time.Second).Score(context.Background(), "fast", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, contract.ErrUpstreamService)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("upstream error is kept as is", func(t *testing.T) {
		upstream := contract.NewUpstreamServiceError("model overloaded", nil)
		cls := &stubClassifier{err: upstream}
		_, err := NewScorer(testLexicon(t), cls, time.Second).Score(context.Background(), "fast", nil)
		assert.Same(t, upstream, err)
	})

	t.Run("timeout", func(t *testing.T) {
		slow := classifierFunc(func(ctx context.Context, _ string) (schema.SentimentVerdict, error) {
			<-ctx.Done()
			return schema.SentimentVerdict{}, ctx.Err()
		})
		_, err := NewScorer(testLexicon(t), slow, 10*time.Millisecond).Score(context.Background(), "fast", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, contract.ErrUpstreamService)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
