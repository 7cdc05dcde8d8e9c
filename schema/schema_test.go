package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestModelBackendDatabaseBackend(t *testing.T) {
	tests := []struct {
		in   ModelBackend
		want DatabaseBackend
	}{
		{FileModels, NoneBackend},
		{S3Models, NoneBackend},
		{SQLiteModels, SQLiteBackend},
		{MySQLModels, MySQLBackend},
		{PostgreSQLModels, PostgreSQLBackend},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.DatabaseBackend())
		})
	}
}

func TestModelStoreStatusLatest(t *testing.T) {
	_, ok := ModelStoreStatus{}.Latest()
	assert.False(t, ok)

	now := time.Now()
	status := ModelStoreStatus{Versions: []ModelVersion{
		{Version: 1, CreatedAt: now.Add(-time.Hour)},
		{Version: 2, CreatedAt: now},
	}}
	latest, ok := status.Latest()
	assert.True(t, ok)
	assert.Equal(t, 2, latest.Version)
}

func TestValidBackends(t *testing.T) {
	_, ok := ValidReviewBackends[RedisBackend]
	assert.False(t, ok, "redis cannot hold reviews")
	_, ok = ValidCacheBackends[RedisBackend]
	assert.True(t, ok)
	_, ok = ValidModelBackends[S3Models]
	assert.True(t, ok)
}
