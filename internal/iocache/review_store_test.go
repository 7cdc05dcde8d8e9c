package iocache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryReviewStore(t *testing.T) *ReviewStoreImpl {
	t.Helper()
	store, err := NewReviewStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	return store
}

func TestReviewStore_Comments(t *testing.T) {
	ctx := context.Background()
	store := newMemoryReviewStore(t)

	comments, err := store.FetchComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, comments, "fresh store has no comments")

	rating := 4.0
	user := int64(42)
	id1, err := store.AddComment(ctx, "Great product, fast delivery!", &rating, &user)
	require.NoError(t, err)
	id2, err := store.AddComment(ctx, "arrived broken", nil, nil)
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	comments, err = store.FetchComments(ctx)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, id1, comments[0].ID)
	assert.Equal(t, "Great product, fast delivery!", comments[0].Text)
	require.NotNil(t, comments[0].WebsiteRating)
	assert.InDelta(t, 4.0, *comments[0].WebsiteRating, 1e-9)
	require.NotNil(t, comments[0].UserID)
	assert.Equal(t, int64(42), *comments[0].UserID)
	assert.Equal(t, int64(1700000000), comments[0].CreatedAt.Unix())

	assert.Nil(t, comments[1].WebsiteRating, "missing rating stays nil")
	assert.Nil(t, comments[1].UserID)
}

func TestReviewStore_AddCommentValidation(t *testing.T) {
	ctx := context.Background()
	store := newMemoryReviewStore(t)

	_, err := store.AddComment(ctx, "   ", nil, nil)
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
}

func TestReviewStore_Feedback(t *testing.T) {
	ctx := context.Background()
	store := newMemoryReviewStore(t)

	id, err := store.AddComment(ctx, "slow refund", nil, nil)
	require.NoError(t, err)

	require.NoError(t, store.AddFeedback(ctx, id, 4.5, 2))

	feedback, err := store.FetchFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, feedback, 1)
	assert.Equal(t, schema.FeedbackRecord{CommentID: id, Text: "slow refund", TrueImportance: 4.5, TrueQuality: 2}, feedback[0])
}

func TestReviewStore_AddFeedbackValidation(t *testing.T) {
	ctx := context.Background()
	store := newMemoryReviewStore(t)
	id, err := store.AddComment(ctx, "ok", nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name       string
		commentID  int64
		importance float64
		quality    float64
	}{
		{"zero comment id", 0, 2, 3},
		{"unknown comment", id + 100, 2, 3},
		{"importance below range", id, -0.1, 3},
		{"importance above range", id, 5.1, 3},
		{"quality below range", id, 2, 0.5},
		{"quality above range", id, 2, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.AddFeedback(ctx, tt.commentID, tt.importance, tt.quality)
			assert.ErrorIs(t, err, contract.ErrInvalidInput)
		})
	}

	feedback, err := store.FetchFeedback(ctx)
	require.NoError(t, err)
	assert.Empty(t, feedback, "rejected labels are not stored")
}

func TestReviewStore_GetStatus(t *testing.T) {
	ctx := context.Background()
	store := newMemoryReviewStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.Comments)
	assert.True(t, status.LastComment.IsZero())

	rating := 3.0
	id, err := store.AddComment(ctx, "fine", &rating, nil)
	require.NoError(t, err)
	_, err = store.AddComment(ctx, "meh", nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.AddFeedback(ctx, id, 1, 3))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 2, status.Comments)
	assert.Equal(t, 1, status.RatedComments)
	assert.Equal(t, 1, status.Feedback)
	assert.Equal(t, int64(1700000000), status.LastComment.Unix())
}

func TestReviewStore_ClosedDatabase(t *testing.T) {
	store, err := NewReviewStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.FetchComments(context.Background())
	assert.ErrorIs(t, err, contract.ErrDataSource)
}

func TestNewReviewStoreErrors(t *testing.T) {
	_, err := NewReviewStore(schema.NoneBackend, "")
	assert.Error(t, err)

	_, err = NewReviewStore(schema.RedisBackend, "redis://localhost:6379")
	assert.Error(t, err)
}

func TestStoresUnreachableDataSource(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	tests := []struct {
		name string
		open func() error
	}{
		{"mysql review store", func() error {
			_, err := NewReviewStore(schema.MySQLBackend, "u:p@tcp(127.0.0.1:1)/db?timeout=1s")
			return err
		}},
		{"postgresql review store", func() error {
			_, err := NewReviewStore(schema.PostgreSQLBackend, "host=127.0.0.1 port=1 user=u dbname=db sslmode=disable connect_timeout=1")
			return err
		}},
		{"sqlite directory not creatable", func() error {
			_, err := NewReviewStore(schema.SQLiteBackend, filepath.Join(blocker, "reviews.db"))
			return err
		}},
		{"mysql model store", func() error {
			_, err := NewSQLModelStore(schema.MySQLBackend, "u:p@tcp(127.0.0.1:1)/db?timeout=1s")
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.open()
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrDataSource)
			assert.Equal(t, contract.KindDataSource, contract.KindOf(err))
		})
	}
}

func TestMigrateReviews_NoneBackend(t *testing.T) {
	assert.Error(t, MigrateReviews(schema.NoneBackend, "", -1))
}

func TestMigrateReviews_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reviews.db")

	// Up to latest, then again as a no-op
	require.NoError(t, MigrateReviews(schema.SQLiteBackend, dbPath, -1))
	require.NoError(t, MigrateReviews(schema.SQLiteBackend, dbPath, -1))

	assert.True(t, tableExists(t, dbPath, "COMMENTS"))
	assert.True(t, tableExists(t, dbPath, "FEEDBACK"))

	// Step back to the first migration
	require.NoError(t, MigrateReviews(schema.SQLiteBackend, dbPath, 1))
	assert.True(t, tableExists(t, dbPath, "COMMENTS"))
	assert.False(t, tableExists(t, dbPath, "FEEDBACK"))

	// Roll everything back
	require.NoError(t, MigrateReviews(schema.SQLiteBackend, dbPath, 0))
	assert.False(t, tableExists(t, dbPath, "COMMENTS"))

	// Opening the store migrates forward again
	store, err := NewReviewStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.True(t, tableExists(t, dbPath, "FEEDBACK"))
}

func tableExists(t *testing.T, dbPath, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count)
	require.NoError(t, err)
	return count > 0
}
