package iocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/huangsam/revscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoneBackendOperations(t *testing.T) {
	store, err := NewCacheStore("test_table", schema.NoneBackend, "")
	require.NoError(t, err, "Failed to create none backend store")

	_, _, _, err = store.Get("test_key")
	assert.ErrorIs(t, err, sql.ErrNoRows, "Expected a miss from Get on none backend")

	err = store.Set("test_key", []byte("test_value"), 1, 123456789)
	assert.NoError(t, err, "Set should not error on none backend")

	_, _, _, err = store.Get("test_key")
	assert.Error(t, err, "Expected error from Get after Set on none backend")

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close(), "Close should not error on none backend")
}

func TestSQLiteBackendOperations(t *testing.T) {
	store, err := NewCacheStore(verdictTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	t.Run("miss", func(t *testing.T) {
		_, _, _, err := store.Get("absent")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte(`{"label":"POSITIVE"}`), 1, 1000))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, `{"label":"POSITIVE"}`, string(value))
		assert.Equal(t, 1, version)
		assert.Equal(t, int64(1000), ts)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		require.NoError(t, store.Set("k1", []byte("v2"), 2, 2000))
		value, version, ts, err := store.Get("k1")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(value))
		assert.Equal(t, 2, version)
		assert.Equal(t, int64(2000), ts)
	})

	t.Run("status", func(t *testing.T) {
		require.NoError(t, store.Set("k2", []byte("v"), 1, 500))
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Equal(t, 2, status.TotalEntries)
		assert.Equal(t, int64(2000), status.LastEntryTime.Unix())
		assert.Equal(t, int64(500), status.OldestEntryTime.Unix())
		assert.Positive(t, status.TableSizeBytes)
	})
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{"valid simple name", "verdict_cache", false},
		{"valid name with numbers", "cache_123", false},
		{"valid name starting with underscore", "_cache", false},
		{"valid uppercase name", "COMMENTS", false},
		{"empty name", "", true},
		{"starts with number", "1cache", true},
		{"contains hyphen", "verdict-cache", true},
		{"contains space", "verdict cache", true},
		{"sql injection attempt", "cache; DROP TABLE COMMENTS;--", true},
		{"contains quote", `cache"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"verdict_cache"`, quoteTableName("verdict_cache", schema.SQLiteBackend))
	assert.Equal(t, "`verdict_cache`", quoteTableName("verdict_cache", schema.MySQLBackend))
	assert.Equal(t, `"verdict_cache"`, quoteTableName("verdict_cache", schema.PostgreSQLBackend))
}

func TestRebind(t *testing.T) {
	query := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, query, rebind(schema.SQLiteBackend, query))
	assert.Equal(t, query, rebind(schema.MySQLBackend, query))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", rebind(schema.PostgreSQLBackend, query))
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key) DO UPDATE"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store := &CacheStoreImpl{tableName: verdictTable, backend: tt.backend}
			query := store.getUpsertQuery()
			assert.Contains(t, query, tt.want)
			assert.Contains(t, query, quoteTableName(verdictTable, tt.backend))
		})
	}
}

func TestGetCreateTableQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains []string
	}{
		{schema.SQLiteBackend, []string{"cache_value BLOB", "cache_timestamp INTEGER"}},
		{schema.MySQLBackend, []string{"cache_key CHAR(64)", "cache_timestamp BIGINT"}},
		{schema.PostgreSQLBackend, []string{"cache_value BYTEA", "cache_timestamp BIGINT"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			query := getCreateTableQuery(verdictTable, tt.backend)
			assert.True(t, strings.Contains(query, "CREATE TABLE IF NOT EXISTS"))
			for _, s := range tt.contains {
				assert.Contains(t, query, s)
			}
		})
	}
}

func TestNewCacheStoreErrors(t *testing.T) {
	t.Run("invalid table name", func(t *testing.T) {
		_, err := NewCacheStore("invalid-name", schema.SQLiteBackend, ":memory:")
		assert.Error(t, err)
	})

	t.Run("empty table name", func(t *testing.T) {
		_, err := NewCacheStore("", schema.SQLiteBackend, ":memory:")
		assert.Error(t, err)
	})

	t.Run("unsupported backend", func(t *testing.T) {
		_, err := NewCacheStore(verdictTable, "unsupported", "")
		assert.Error(t, err)
	})

	t.Run("redis is not a SQL backend", func(t *testing.T) {
		_, err := NewCacheStore(verdictTable, schema.RedisBackend, "redis://localhost:6379/0")
		assert.Error(t, err)
	})
}

func TestClearCache(t *testing.T) {
	t.Run("SQLite backend", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "verdicts.db")
		store, err := NewCacheStore(verdictTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Set("k", []byte("v"), 1, 1))
		require.NoError(t, store.Close())

		_, err = os.Stat(dbPath)
		require.NoError(t, err, "Database file should exist before ClearCache")

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))

		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err), "Database file should be removed after ClearCache")
	})

	t.Run("SQLite backend - non-existent file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "non_existent.db")
		assert.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
	})

	t.Run("NoneBackend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	})

	t.Run("empty dbFilePath for SQLite", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearCache("unsupported", "", ""))
	})
}

func TestStoresConcurrency(t *testing.T) {
	store, err := NewCacheStore(verdictTable, schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	mgr := NewStores(nil, nil, store)
	defer mgr.Close()

	const numGoroutines = 10
	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Go(func() {
			cache := mgr.GetVerdictCache()
			if cache == nil {
				t.Errorf("Goroutine %d: GetVerdictCache returned nil", i)
				return
			}
			if err := cache.Set("concurrent_key", []byte("value"), 1, int64(1000+i)); err != nil {
				t.Errorf("Goroutine %d: Set failed: %v", i, err)
			}
		})
	}
	wg.Wait()

	_, _, ts, err := mgr.GetVerdictCache().Get("concurrent_key")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ts, int64(1000))
}

func TestCacheStoreImplWithNilDB(t *testing.T) {
	store := &CacheStoreImpl{tableName: "test", backend: schema.NoneBackend}
	assert.NoError(t, store.Close(), "Close on nil db should not error")
	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err := store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
