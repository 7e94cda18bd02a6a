package favorites

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
)

// Set is the in-memory favorites set. Membership changes only through
// Toggle or a reload from the store; ids are never pruned.
type Set struct {
	mu    sync.RWMutex
	ids   map[string]struct{}
	store Store
	log   *slog.Logger
}

// NewSet returns an empty set backed by store. A nil store keeps favorites
// in memory only.
func NewSet(store Store, logger *slog.Logger) *Set {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{
		ids:   make(map[string]struct{}),
		store: store,
		log:   logger,
	}
}

// Load replaces the set with the store's contents.
func (s *Set) Load(ctx context.Context) error {
	ids, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.Replace(ids)
	s.log.Debug("favorites_loaded", slog.Int("count", len(ids)))
	return nil
}

// Replace swaps the in-memory contents without touching the store.
func (s *Set) Replace(ids []string) {
	s.mu.Lock()
	s.replaceLocked(ids)
	s.mu.Unlock()
}

func (s *Set) replaceLocked(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			next[id] = struct{}{}
		}
	}
	s.ids = next
}

// Toggle flips id against the store's current contents, not the possibly
// stale in-memory copy, and returns the new membership. The set is then
// refreshed from what was written. On failure nothing changes.
func (s *Set) Toggle(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, perrors.InvalidInput("recipe id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var on bool
	ids, err := s.store.Update(ctx, func(current []string) ([]string, error) {
		next := make([]string, 0, len(current)+1)
		on = true
		for _, c := range current {
			if strings.TrimSpace(c) == id {
				on = false
				continue
			}
			next = append(next, c)
		}
		if on {
			next = append(next, id)
		}
		return next, nil
	})
	if err != nil {
		_, was := s.ids[id]
		return was, perrors.New(perrors.ErrCodeStoreWrite, "save favorites", err)
	}

	s.replaceLocked(ids)
	s.log.Debug("favorite_toggled", slog.String("id", id), slog.Bool("favorited", on))
	return on, nil
}

// IsFavorited reports membership.
func (s *Set) IsFavorited(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[strings.TrimSpace(id)]
	return ok
}

// IDs returns the favorited ids in sorted order.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// Len returns the number of favorites.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Set) sortedLocked() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
