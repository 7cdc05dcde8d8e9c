package core

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// Scorer runs the heuristic pipeline: keywords, sentiment, rating blend, clamp.
type Scorer struct {
	lexicon    *Lexicon
	classifier contract.SentimentClassifier
	timeout    time.Duration
}

// NewScorer wires a lexicon and a sentiment classifier together.
// A zero timeout leaves sentiment calls bounded only by the caller's context.
func NewScorer(lexicon *Lexicon, classifier contract.SentimentClassifier, timeout time.Duration) *Scorer {
	return &Scorer{lexicon: lexicon, classifier: classifier, timeout: timeout}
}

// Lexicon returns the lexicon used by the scorer.
func (s *Scorer) Lexicon() *Lexicon {
	return s.lexicon
}

// Score computes the clamped heuristic pair for text. A nil rating skips the blend.
func (s *Scorer) Score(ctx context.Context, text string, rating *float64) (schema.HeuristicScore, error) {
	bd, err := s.Explain(ctx, text, rating)
	if err != nil {
		return schema.HeuristicScore{}, err
	}
	return bd.Heuristic, nil
}

// Explain is Score with every intermediate value kept.
func (s *Scorer) Explain(ctx context.Context, text string, rating *float64) (schema.ScoreBreakdown, error) {
	ks := s.lexicon.ScoreKeywords(text)

	verdict, err := s.classify(ctx, text)
	if err != nil {
		return schema.ScoreBreakdown{}, err
	}

	imp, qual := AdjustForSentiment(ks.RawImportance, ks.RawQuality, verdict)
	if rating != nil {
		qual = BlendRating(qual, *rating)
	}
	imp, qual = Clamp(imp, qual)

	return schema.ScoreBreakdown{
		Text:          text,
		Tokens:        ks.Matched,
		RawImportance: ks.RawImportance,
		RawQuality:    ks.RawQuality,
		Sentiment:     verdict,
		WebsiteRating: rating,
		Heuristic:     schema.HeuristicScore{Importance: imp, Quality: qual},
	}, nil
}

// classify calls the classifier under the scorer's timeout. Failures are never
// replaced by a default verdict.
func (s *Scorer) classify(ctx context.Context, text string) (schema.SentimentVerdict, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	verdict, err := s.classifier.Classify(ctx, text)
	if err == nil {
		return verdict, nil
	}
	if errors.Is(err, contract.ErrUpstreamService) {
		return schema.SentimentVerdict{}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = errors.Join(err, ctxErr)
	}
	return schema.SentimentVerdict{}, contract.NewUpstreamServiceError("sentiment classification failed", err)
}
