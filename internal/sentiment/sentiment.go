// Package sentiment provides the sentiment classifiers used by the heuristic scorer.
package sentiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// Static always answers with the same verdict. It is meant for tests and dry runs.
type Static schema.SentimentVerdict

// Classify returns the fixed verdict.
func (s Static) Classify(ctx context.Context, _ string) (schema.SentimentVerdict, error) {
	if err := ctx.Err(); err != nil {
		return schema.SentimentVerdict{}, err
	}
	return schema.SentimentVerdict(s), nil
}

// New builds the classifier selected by cfg. When cache is non-nil, verdicts
// are memoized in it.
func New(cfg *contract.Config, cache contract.CacheStore, logger *slog.Logger) (contract.SentimentClassifier, error) {
	var classifier contract.SentimentClassifier
	switch cfg.SentimentProvider {
	case schema.LexiconSentiment, "":
		classifier = NewLexiconClassifier()
	case schema.HTTPSentiment:
		hc, err := NewHTTPClassifier(cfg.SentimentEndpoint, cfg.SentimentToken, nil)
		if err != nil {
			return nil, err
		}
		classifier = hc
	default:
		return nil, contract.NewConfigurationError(fmt.Sprintf("unsupported sentiment provider %q", cfg.SentimentProvider), nil)
	}

	if cache == nil {
		return classifier, nil
	}
	provider := string(cfg.SentimentProvider)
	if cfg.SentimentProvider == schema.HTTPSentiment {
		provider += ":" + cfg.SentimentEndpoint
	}
	return NewCachedClassifier(classifier, cache, provider, cfg.CacheTTL, logger), nil
}
