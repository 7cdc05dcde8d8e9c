package iocache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteReviewExport(t *testing.T) {
	ctx := context.Background()
	store := newMemoryReviewStore(t)
	out := filepath.Join(t.TempDir(), "reviews")

	t.Run("requires an output file", func(t *testing.T) {
		assert.Error(t, ExecuteReviewExport(ctx, store, ""))
	})

	t.Run("refuses an empty store", func(t *testing.T) {
		assert.Error(t, ExecuteReviewExport(ctx, store, out))
	})

	t.Run("writes both files", func(t *testing.T) {
		id, err := store.AddComment(ctx, "too expensive", nil, nil)
		require.NoError(t, err)
		require.NoError(t, store.AddFeedback(ctx, id, 3, 2))

		require.NoError(t, ExecuteReviewExport(ctx, store, out))
		for _, suffix := range []string{".comments.parquet", ".feedback.parquet"} {
			info, err := os.Stat(out + suffix)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		}
	})
}
