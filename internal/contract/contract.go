// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/revscore/schema"
)

// CommentSource yields every stored comment with its optional site rating.
type CommentSource interface {
	FetchComments(ctx context.Context) ([]schema.CommentRecord, error)
}

// FeedbackSource yields every human label joined to its comment text.
type FeedbackSource interface {
	FetchFeedback(ctx context.Context) ([]schema.FeedbackRecord, error)
}

// ReviewStore defines the interface for the comment and feedback tables.
// This allows the data source to be mocked for testing.
type ReviewStore interface {
	CommentSource
	FeedbackSource

	// AddComment inserts a comment and returns its generated ID.
	AddComment(ctx context.Context, text string, rating *float64, userID *int64) (int64, error)

	// AddFeedback attaches a human label to an existing comment.
	AddFeedback(ctx context.Context, commentID int64, importance, quality float64) error

	// GetStatus returns status information about the review store
	GetStatus() (schema.ReviewStatus, error)

	// Close closes the underlying connection
	Close() error
}

// SentimentClassifier labels a text as positive or negative with a confidence.
// Implementations must be safe for concurrent use.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (schema.SentimentVerdict, error)
}

// ModelStore defines the interface for versioned calibration model artifacts.
//
// Save must never expose a partially written artifact: a reader either sees
// the previous latest version or the complete new one.
type ModelStore interface {
	// Save persists payload as the next version of name.
	Save(ctx context.Context, name string, payload []byte) (schema.ModelVersion, error)

	// Load returns the latest version of name.
	Load(ctx context.Context, name string) ([]byte, schema.ModelVersion, error)

	// LoadVersion returns one specific version of name.
	LoadVersion(ctx context.Context, name string, version int) ([]byte, schema.ModelVersion, error)

	// List returns all versions of name, oldest first.
	List(ctx context.Context, name string) ([]schema.ModelVersion, error)

	// Prune deletes all but the newest keep versions and reports how many were removed.
	Prune(ctx context.Context, name string, keep int) (int, error)

	// GetStatus returns status information about the model store
	GetStatus(ctx context.Context, name string) (schema.ModelStoreStatus, error)

	// Close releases the underlying resources
	Close() error
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// StoreManager defines the interface for managing stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetReviewStore() ReviewStore
	GetModelStore() ModelStore
	GetVerdictCache() CacheStore
}
