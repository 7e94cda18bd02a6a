package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
)

// fileFormatVersion is written into every favorites file.
const fileFormatVersion = 1

// lockRetryDelay is how often a blocked lock attempt is retried.
const lockRetryDelay = 20 * time.Millisecond

// FileStore keeps favorites in a JSON file. A sidecar lock file serializes
// readers and writers across processes, so a CLI toggle and a running MCP
// server can share one file.
type FileStore struct {
	path string
	lock *flock.Flock
}

type favoritesFile struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Favorites []string  `json:"favorites"`
}

// NewFileStore returns a store for the JSON file at path. The file is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the favorites file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the file under a shared lock. A missing file is an empty set.
func (f *FileStore) Load(ctx context.Context) ([]string, error) {
	if err := f.ensureDir(); err != nil {
		return nil, err
	}

	locked, err := f.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, perrors.New(perrors.ErrCodeStoreLocked, "lock favorites file", err)
	}
	if !locked {
		return nil, perrors.New(perrors.ErrCodeStoreLocked, "favorites file is locked", nil)
	}
	defer func() { _ = f.lock.Unlock() }()

	return f.read()
}

// Save writes ids under an exclusive lock, replacing the file atomically.
func (f *FileStore) Save(ctx context.Context, ids []string) error {
	unlock, err := f.lockExclusive(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return f.write(ids)
}

// Update reads the file, applies fn and writes the result while holding the
// exclusive lock, so writers in other processes are never overwritten.
func (f *FileStore) Update(ctx context.Context, fn UpdateFunc) ([]string, error) {
	unlock, err := f.lockExclusive(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := f.read()
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := f.write(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (f *FileStore) lockExclusive(ctx context.Context) (func(), error) {
	if err := f.ensureDir(); err != nil {
		return nil, err
	}

	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, perrors.New(perrors.ErrCodeStoreLocked, "lock favorites file", err)
	}
	if !locked {
		return nil, perrors.New(perrors.ErrCodeStoreLocked, "favorites file is locked", nil)
	}
	return func() { _ = f.lock.Unlock() }, nil
}

// read expects the caller to hold the lock.
func (f *FileStore) read() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, perrors.IOError("read favorites file", err).WithDetail("path", f.path)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var ff favoritesFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, perrors.New(perrors.ErrCodeStoreCorrupt, "favorites file is not valid JSON", err).
			WithDetail("path", f.path).
			WithSuggestion(fmt.Sprintf("Fix or delete %s", f.path))
	}
	return ff.Favorites, nil
}

// write expects the caller to hold the exclusive lock.
func (f *FileStore) write(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.MarshalIndent(favoritesFile{
		Version:   fileFormatVersion,
		UpdatedAt: time.Now().UTC(),
		Favorites: ids,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".favorites-*.tmp")
	if err != nil {
		return perrors.IOError("create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return perrors.IOError("write favorites", err)
	}
	if err := tmp.Close(); err != nil {
		return perrors.IOError("close favorites", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return perrors.IOError("replace favorites file", err)
	}
	return nil
}

// Close is a no-op; locks are released after every operation.
func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return perrors.IOError("create favorites directory", err)
	}
	return nil
}
