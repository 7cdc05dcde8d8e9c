package core

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/huangsam/revscore/schema"
	"github.com/stretchr/testify/require"
)

// stubClassifier returns a fixed verdict and counts calls.
type stubClassifier struct {
	verdict schema.SentimentVerdict
	err     error
	calls   atomic.Int32
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (schema.SentimentVerdict, error) {
	s.calls.Add(1)
	return s.verdict, s.err
}

// classifierFunc adapts a function to the classifier interface.
type classifierFunc func(ctx context.Context, text string) (schema.SentimentVerdict, error)

func (f classifierFunc) Classify(ctx context.Context, text string) (schema.SentimentVerdict, error) {
	return f(ctx, text)
}

func neutral() *stubClassifier {
	return &stubClassifier{verdict: schema.SentimentVerdict{Label: schema.Neutral}}
}

func testLexicon(t testing.TB) *Lexicon {
	t.Helper()
	lex, err := LoadLexicon("testdata/lexicon.json")
	require.NoError(t, err)
	return lex
}

func ptr[T any](v T) *T {
	return &v
}
