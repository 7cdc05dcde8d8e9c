package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// modelTable is the name of the table holding model artifacts.
const modelTable = "model_artifacts"

// SQLModelStore keeps model versions as rows keyed by (name, version).
// The primary key makes version claims atomic across processes.
type SQLModelStore struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
	now     func() time.Time
}

var _ contract.ModelStore = &SQLModelStore{} // Compile-time check

// NewSQLModelStore opens a SQL model store and creates its table.
func NewSQLModelStore(backend schema.DatabaseBackend, connStr string) (*SQLModelStore, error) {
	if _, ok := schema.ValidReviewBackends[backend]; !ok {
		return nil, fmt.Errorf("unsupported model database backend: %s. Must be sqlite, mysql, or postgresql", backend)
	}

	db, err := openDB(backend, connStr, contract.GetModelDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateModelTableQuery(backend)); err != nil {
		_ = db.Close()
		return nil, contract.NewDataSourceError(fmt.Sprintf("failed to create table %s", modelTable), err)
	}

	return &SQLModelStore{db: db, backend: backend, connStr: connStr, now: time.Now}, nil
}

// getCreateModelTableQuery returns the CREATE TABLE query for the given backend.
func getCreateModelTableQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(modelTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				model_name VARCHAR(128) NOT NULL,
				model_version INT NOT NULL,
				artifact_id CHAR(36) NOT NULL,
				payload LONGBLOB NOT NULL,
				checksum CHAR(64) NOT NULL,
				size_bytes BIGINT NOT NULL,
				created_at BIGINT NOT NULL,
				PRIMARY KEY (model_name, model_version)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				model_name TEXT NOT NULL,
				model_version INTEGER NOT NULL,
				artifact_id TEXT NOT NULL,
				payload BYTEA NOT NULL,
				checksum TEXT NOT NULL,
				size_bytes BIGINT NOT NULL,
				created_at BIGINT NOT NULL,
				PRIMARY KEY (model_name, model_version)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				model_name TEXT NOT NULL,
				model_version INTEGER NOT NULL,
				artifact_id TEXT NOT NULL,
				payload BLOB NOT NULL,
				checksum TEXT NOT NULL,
				size_bytes INTEGER NOT NULL,
				created_at INTEGER NOT NULL,
				PRIMARY KEY (model_name, model_version)
			);
		`, quotedTableName)
	}
}

func (ms *SQLModelStore) query(q string) string {
	return rebind(ms.backend, fmt.Sprintf(q, quoteTableName(modelTable, ms.backend)))
}

// Save inserts payload as the next version of name. Losing a race against
// another writer retries with a fresh version number.
func (ms *SQLModelStore) Save(ctx context.Context, name string, payload []byte) (schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return schema.ModelVersion{}, err
	}

	meta := schema.ModelVersion{
		Name:      name,
		ID:        uuid.NewString(),
		CreatedAt: time.UnixMilli(ms.now().UnixMilli()),
		SizeBytes: int64(len(payload)),
		Checksum:  checksum(payload),
	}

	var lastErr error
	for range maxSaveAttempts {
		version, err := ms.insertNext(ctx, meta, payload)
		if err == nil {
			meta.Version = version
			return meta, nil
		}
		if ctx.Err() != nil {
			return schema.ModelVersion{}, ctx.Err()
		}
		lastErr = err
	}
	return schema.ModelVersion{}, contract.NewDataSourceError(fmt.Sprintf("failed to save model %q", name), lastErr)
}

// insertNext claims MAX(version)+1 inside one transaction.
func (ms *SQLModelStore) insertNext(ctx context.Context, meta schema.ModelVersion, payload []byte) (int, error) {
	tx, err := ms.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var latest int
	row := tx.QueryRowContext(ctx, ms.query(`SELECT COALESCE(MAX(model_version), 0) FROM %s WHERE model_name = ?`), meta.Name)
	if err := row.Scan(&latest); err != nil {
		return 0, err
	}

	next := latest + 1
	_, err = tx.ExecContext(ctx,
		ms.query(`INSERT INTO %s (model_name, model_version, artifact_id, payload, checksum, size_bytes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		meta.Name, next, meta.ID, payload, meta.Checksum, meta.SizeBytes, meta.CreatedAt.UnixMilli())
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

// Load returns the latest version of name.
func (ms *SQLModelStore) Load(ctx context.Context, name string) ([]byte, schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return nil, schema.ModelVersion{}, err
	}
	row := ms.db.QueryRowContext(ctx,
		ms.query(`SELECT model_version, artifact_id, payload, checksum, size_bytes, created_at FROM %s WHERE model_name = ? ORDER BY model_version DESC LIMIT 1`),
		name)
	return ms.scanArtifact(row, name, 0)
}

// LoadVersion returns one specific version of name.
func (ms *SQLModelStore) LoadVersion(ctx context.Context, name string, version int) ([]byte, schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return nil, schema.ModelVersion{}, err
	}
	row := ms.db.QueryRowContext(ctx,
		ms.query(`SELECT model_version, artifact_id, payload, checksum, size_bytes, created_at FROM %s WHERE model_name = ? AND model_version = ?`),
		name, version)
	return ms.scanArtifact(row, name, version)
}

func (ms *SQLModelStore) scanArtifact(row *sql.Row, name string, version int) ([]byte, schema.ModelVersion, error) {
	meta := schema.ModelVersion{Name: name}
	var payload []byte
	var created int64
	err := row.Scan(&meta.Version, &meta.ID, &payload, &meta.Checksum, &meta.SizeBytes, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, schema.ModelVersion{}, contract.NewModelNotFoundError(name, version)
	}
	if err != nil {
		return nil, schema.ModelVersion{}, contract.NewDataSourceError("failed to read model artifact", err)
	}
	meta.CreatedAt = time.UnixMilli(created)
	return payload, meta, nil
}

// List returns all versions of name, oldest first.
func (ms *SQLModelStore) List(ctx context.Context, name string) ([]schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return nil, err
	}
	rows, err := ms.db.QueryContext(ctx,
		ms.query(`SELECT model_version, artifact_id, checksum, size_bytes, created_at FROM %s WHERE model_name = ? ORDER BY model_version ASC`),
		name)
	if err != nil {
		return nil, contract.NewDataSourceError("failed to list model versions", err)
	}
	defer func() { _ = rows.Close() }()

	versions := []schema.ModelVersion{}
	for rows.Next() {
		meta := schema.ModelVersion{Name: name}
		var created int64
		if err := rows.Scan(&meta.Version, &meta.ID, &meta.Checksum, &meta.SizeBytes, &created); err != nil {
			return nil, contract.NewDataSourceError("failed to scan model version", err)
		}
		meta.CreatedAt = time.UnixMilli(created)
		versions = append(versions, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, contract.NewDataSourceError("failed to list model versions", err)
	}
	return versions, nil
}

// Prune deletes all but the newest keep versions. keep <= 0 keeps everything.
func (ms *SQLModelStore) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := validateModelName(name); err != nil {
		return 0, err
	}
	if keep <= 0 {
		return 0, nil
	}
	versions, err := ms.List(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(versions) <= keep {
		return 0, nil
	}
	cutoff := versions[len(versions)-keep-1].Version

	res, err := ms.db.ExecContext(ctx, ms.query(`DELETE FROM %s WHERE model_name = ? AND model_version <= ?`), name, cutoff)
	if err != nil {
		return 0, contract.NewDataSourceError("failed to prune model versions", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, contract.NewDataSourceError("failed to prune model versions", err)
	}
	return int(removed), nil
}

// GetStatus returns status information about the model store.
func (ms *SQLModelStore) GetStatus(ctx context.Context, name string) (schema.ModelStoreStatus, error) {
	versions, err := ms.List(ctx, name)
	if err != nil {
		return schema.ModelStoreStatus{}, err
	}
	return schema.ModelStoreStatus{
		Backend:  string(ms.backend),
		Location: describeDSN(ms.backend, ms.connStr, contract.GetModelDBFilePath()),
		Name:     name,
		Versions: versions,
	}, nil
}

// Close closes the underlying DB connection.
func (ms *SQLModelStore) Close() error {
	if ms.db != nil {
		return ms.db.Close()
	}
	return nil
}
