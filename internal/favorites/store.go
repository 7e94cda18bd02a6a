// Package favorites keeps the session's set of favorited recipe ids and
// persists it through a pluggable key-value Store.
package favorites

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// UpdateFunc maps the stored ids to the ids to store.
type UpdateFunc func(current []string) ([]string, error)

// Store loads and saves the full list of favorited ids. Update is an atomic
// read-modify-write against whatever other processes share the store.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
	Update(ctx context.Context, fn UpdateFunc) ([]string, error)
	Close() error
}

// Open returns the store for backend at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(path)
	case BackendFile:
		return NewFileStore(path), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown favorites backend %q", backend)
	}
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu    sync.Mutex
	ids   []string
	saves int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(ids ...string) *MemoryStore {
	return &MemoryStore{ids: append([]string(nil), ids...)}
}

// Load returns the stored ids.
func (m *MemoryStore) Load(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ids...), nil
}

// Save replaces the stored ids.
func (m *MemoryStore) Save(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append([]string(nil), ids...)
	sort.Strings(m.ids)
	m.saves++
	return nil
}

// Update applies fn to the stored ids.
func (m *MemoryStore) Update(_ context.Context, fn UpdateFunc) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(append([]string(nil), m.ids...))
	if err != nil {
		return nil, err
	}
	m.ids = append([]string(nil), next...)
	sort.Strings(m.ids)
	m.saves++
	return append([]string(nil), m.ids...), nil
}

// Saves returns how many writes have happened.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
