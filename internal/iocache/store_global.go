package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// verdictTable is the name of the table for sentiment verdict caching.
const verdictTable = "verdict_cache"

// Global Manager instance for main logic.
var (
	Manager   = &Stores{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the review store, the model
// store and the verdict cache described by cfg.
func InitStores(cfg *contract.Config) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		reviews, err := NewReviewStore(cfg.ReviewBackend, cfg.ReviewDBConnect)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize review store: %w", err)
			return
		}

		models, err := NewModelStore(cfg)
		if err != nil {
			_ = reviews.Close()
			initErr = fmt.Errorf("failed to initialize model store: %w", err)
			return
		}

		verdicts, err := NewVerdictCache(cfg)
		if err != nil {
			_ = reviews.Close()
			_ = models.Close()
			initErr = fmt.Errorf("failed to initialize verdict cache: %w", err)
			return
		}

		// Assign to global manager
		Manager.Lock()
		Manager.reviews = reviews
		Manager.models = models
		Manager.verdicts = verdicts
		Manager.Unlock()
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(Manager.Close)
}

// NewModelStore opens the model artifact backend selected by cfg.
func NewModelStore(cfg *contract.Config) (contract.ModelStore, error) {
	switch cfg.ModelBackend {
	case schema.FileModels, "":
		return NewFileModelStore(cfg.ModelDir)
	case schema.SQLiteModels, schema.MySQLModels, schema.PostgreSQLModels:
		return NewSQLModelStore(cfg.ModelBackend.DatabaseBackend(), cfg.ModelDBConnect)
	case schema.S3Models:
		return NewS3ModelStore(cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported model backend: %s. Must be file, sqlite, mysql, postgresql, or s3", cfg.ModelBackend)
	}
}

// NewVerdictCache opens the verdict cache backend selected by cfg.
func NewVerdictCache(cfg *contract.Config) (contract.CacheStore, error) {
	if cfg.CacheBackend == schema.RedisBackend {
		return NewRedisCacheStore(cfg.CacheDBConnect, cfg.CacheTTL)
	}
	backend := cfg.CacheBackend
	if backend == "" {
		backend = schema.NoneBackend
	}
	return NewCacheStore(verdictTable, backend, cfg.CacheDBConnect)
}

// ClearCache clears the verdict cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For Redis, it deletes the verdict keys.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return clearSQLTable(backend, connStr, verdictTable)

	case schema.RedisBackend:
		store, err := NewRedisCacheStore(connStr, 0)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		_, err = store.Clear()
		return err

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(backend schema.DatabaseBackend, connStr, tableName string) error {
	driverName := driverFor(backend)
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}
