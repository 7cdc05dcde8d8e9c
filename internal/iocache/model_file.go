package iocache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
)

// FileModelStore keeps each model version as root/<name>/vNNNNNN.json.
//
// A version is claimed by hard-linking a fully written temp file to its final
// name, so readers never observe a partial artifact and two writers can never
// claim the same version.
type FileModelStore struct {
	mu   sync.Mutex
	root string
}

var _ contract.ModelStore = &FileModelStore{} // Compile-time check

// NewFileModelStore opens (and creates) a file model store rooted at root.
// An empty root uses the default model directory.
func NewFileModelStore(root string) (*FileModelStore, error) {
	if root == "" {
		root = contract.GetModelDirPath()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, contract.NewDataSourceError(fmt.Sprintf("failed to create model directory %s", root), err)
	}
	return &FileModelStore{root: root}, nil
}

// Root returns the directory holding all models.
func (s *FileModelStore) Root() string {
	return s.root
}

func (s *FileModelStore) modelDir(name string) string {
	return filepath.Join(s.root, name)
}

// versions returns the sorted versions present on disk for name.
func (s *FileModelStore) versions(name string) ([]int, error) {
	entries, err := os.ReadDir(s.modelDir(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, contract.NewDataSourceError("failed to list model versions", err)
	}
	var out []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if v, ok := parseVersionFileName(entry.Name()); ok {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Save writes payload as the next version of name.
func (s *FileModelStore) Save(ctx context.Context, name string, payload []byte) (schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return schema.ModelVersion{}, err
	}
	if err := ctx.Err(); err != nil {
		return schema.ModelVersion{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.modelDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return schema.ModelVersion{}, contract.NewDataSourceError("failed to create model directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return schema.ModelVersion{}, contract.NewDataSourceError("failed to create temp artifact", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return schema.ModelVersion{}, contract.NewDataSourceError("failed to write artifact", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return schema.ModelVersion{}, contract.NewDataSourceError("failed to sync artifact", err)
	}
	if err := tmp.Close(); err != nil {
		return schema.ModelVersion{}, contract.NewDataSourceError("failed to close artifact", err)
	}

	for range maxSaveAttempts {
		existing, err := s.versions(name)
		if err != nil {
			return schema.ModelVersion{}, err
		}
		next := 1
		if len(existing) > 0 {
			next = existing[len(existing)-1] + 1
		}

		final := filepath.Join(dir, versionFileName(next))
		err = os.Link(tmpPath, final)
		if errors.Is(err, fs.ErrExist) {
			continue // another process claimed this version
		}
		if err != nil {
			return schema.ModelVersion{}, contract.NewDataSourceError("failed to publish artifact", err)
		}
		return s.describe(name, next, payload)
	}
	return schema.ModelVersion{}, contract.NewDataSourceError(
		fmt.Sprintf("failed to claim a version for %q after %d attempts", name, maxSaveAttempts), nil)
}

// describe builds the version record of an artifact already on disk.
func (s *FileModelStore) describe(name string, version int, payload []byte) (schema.ModelVersion, error) {
	info, err := os.Stat(filepath.Join(s.modelDir(name), versionFileName(version)))
	if err != nil {
		return schema.ModelVersion{}, contract.NewDataSourceError("failed to stat artifact", err)
	}
	return schema.ModelVersion{
		Name:      name,
		Version:   version,
		CreatedAt: info.ModTime(),
		SizeBytes: info.Size(),
		Checksum:  checksum(payload),
	}, nil
}

// Load returns the latest version of name.
func (s *FileModelStore) Load(ctx context.Context, name string) ([]byte, schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return nil, schema.ModelVersion{}, err
	}
	versions, err := s.versions(name)
	if err != nil {
		return nil, schema.ModelVersion{}, err
	}
	if len(versions) == 0 {
		return nil, schema.ModelVersion{}, contract.NewModelNotFoundError(name, 0)
	}
	return s.LoadVersion(ctx, name, versions[len(versions)-1])
}

// LoadVersion returns one specific version of name.
func (s *FileModelStore) LoadVersion(ctx context.Context, name string, version int) ([]byte, schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return nil, schema.ModelVersion{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, schema.ModelVersion{}, err
	}
	payload, err := os.ReadFile(filepath.Join(s.modelDir(name), versionFileName(version)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, schema.ModelVersion{}, contract.NewModelNotFoundError(name, version)
	}
	if err != nil {
		return nil, schema.ModelVersion{}, contract.NewDataSourceError("failed to read artifact", err)
	}
	meta, err := s.describe(name, version, payload)
	if err != nil {
		return nil, schema.ModelVersion{}, err
	}
	return payload, meta, nil
}

// List returns all versions of name, oldest first.
func (s *FileModelStore) List(ctx context.Context, name string) ([]schema.ModelVersion, error) {
	if err := validateModelName(name); err != nil {
		return nil, err
	}
	versions, err := s.versions(name)
	if err != nil {
		return nil, err
	}
	out := make([]schema.ModelVersion, 0, len(versions))
	for _, v := range versions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		payload, err := os.ReadFile(filepath.Join(s.modelDir(name), versionFileName(v)))
		if errors.Is(err, fs.ErrNotExist) {
			continue // pruned concurrently
		}
		if err != nil {
			return nil, contract.NewDataSourceError("failed to read artifact", err)
		}
		meta, err := s.describe(name, v, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

// Prune deletes all but the newest keep versions. keep <= 0 keeps everything.
func (s *FileModelStore) Prune(ctx context.Context, name string, keep int) (int, error) {
	if err := validateModelName(name); err != nil {
		return 0, err
	}
	if keep <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.versions(name)
	if err != nil {
		return 0, err
	}
	if len(versions) <= keep {
		return 0, nil
	}

	removed := 0
	for _, v := range versions[:len(versions)-keep] {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		err := os.Remove(filepath.Join(s.modelDir(name), versionFileName(v)))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, contract.NewDataSourceError("failed to remove artifact", err)
		}
		removed++
	}
	return removed, nil
}

// GetStatus returns status information about the model store.
func (s *FileModelStore) GetStatus(ctx context.Context, name string) (schema.ModelStoreStatus, error) {
	versions, err := s.List(ctx, name)
	if err != nil {
		return schema.ModelStoreStatus{}, err
	}
	return schema.ModelStoreStatus{
		Backend:  string(schema.FileModels),
		Location: s.root,
		Name:     name,
		Versions: versions,
	}, nil
}

// Close is a no-op for the file store.
func (s *FileModelStore) Close() error {
	return nil
}
