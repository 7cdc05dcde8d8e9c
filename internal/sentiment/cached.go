package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// currentCacheVersion defines the version of the cached verdict schema
const currentCacheVersion = 1

// CachedClassifier memoizes verdicts of another classifier in a CacheStore.
// Only successful verdicts are stored.
type CachedClassifier struct {
	inner    contract.SentimentClassifier
	cache    contract.CacheStore
	provider string
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

var _ contract.SentimentClassifier = &CachedClassifier{} // Compile-time check

// NewCachedClassifier wraps inner. The provider name is part of every key so
// switching providers never serves stale verdicts. A zero ttl never expires.
func NewCachedClassifier(inner contract.SentimentClassifier, cache contract.CacheStore, provider string, ttl time.Duration, logger *slog.Logger) *CachedClassifier {
	if logger == nil {
		logger = contract.NopLogger()
	}
	return &CachedClassifier{inner: inner, cache: cache, provider: provider, ttl: ttl, logger: logger, now: time.Now}
}

// Classify returns the cached verdict for text or asks the inner classifier.
func (cc *CachedClassifier) Classify(ctx context.Context, text string) (schema.SentimentVerdict, error) {
	key := cc.cacheKey(text)

	// Check for cache hit
	if verdict, ok := cc.checkCacheHit(key); ok {
		return verdict, nil
	}

	// Cache miss: compute and store
	verdict, err := cc.inner.Classify(ctx, text)
	if err != nil {
		return verdict, err
	}
	if data, err := json.Marshal(verdict); err == nil {
		if err := cc.cache.Set(key, data, currentCacheVersion, cc.now().Unix()); err != nil {
			cc.logger.Warn("failed to cache sentiment verdict", "error", err)
		}
	}
	return verdict, nil
}

// checkCacheHit attempts to retrieve and validate a cached verdict
func (cc *CachedClassifier) checkCacheHit(key string) (schema.SentimentVerdict, bool) {
	data, version, ts, err := cc.cache.Get(key)
	if err != nil || version != currentCacheVersion {
		return schema.SentimentVerdict{}, false
	}
	if cc.ttl > 0 && cc.now().Sub(time.Unix(ts, 0)) > cc.ttl {
		return schema.SentimentVerdict{}, false
	}
	var verdict schema.SentimentVerdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return schema.SentimentVerdict{}, false
	}
	return verdict, true
}

// cacheKey hashes provider and text into a 64 character hex key.
func (cc *CachedClassifier) cacheKey(text string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(cc.provider+"\x00"+text)))
}
