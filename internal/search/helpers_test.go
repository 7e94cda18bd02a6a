package search

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/pantry/internal/recipe"
)

// fakeIndex is an in-memory recipe.Index.
type fakeIndex struct {
	mu        sync.Mutex
	filters   map[string][]recipe.Summary
	details   map[string]*recipe.Detail
	random    *recipe.Detail
	filterErr map[string]error
	lookupErr error

	filterCalls atomic.Int32
	lookupCalls atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	// filtersDone counts completed filter calls; lookups record it so tests
	// can prove verification never starts before candidates are complete.
	filtersDone      atomic.Int32
	lookupSawFilters []int32
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		filters:   map[string][]recipe.Summary{},
		details:   map[string]*recipe.Detail{},
		filterErr: map[string]error{},
	}
}

func (f *fakeIndex) withFilter(term string, ids ...string) *fakeIndex {
	for _, id := range ids {
		f.filters[term] = append(f.filters[term], recipe.Summary{ID: id, Name: "Recipe " + id})
	}
	return f
}

func (f *fakeIndex) withDetail(id string, ingredients ...string) *fakeIndex {
	d := &recipe.Detail{Summary: recipe.Summary{ID: id, Name: "Recipe " + id}}
	for _, ing := range ingredients {
		d.Ingredients = append(d.Ingredients, recipe.IngredientLine{Name: ing, Measure: "1"})
	}
	f.details[id] = d
	return f
}

func (f *fakeIndex) FilterByIngredient(_ context.Context, term string) ([]recipe.Summary, error) {
	f.filterCalls.Add(1)
	defer f.filtersDone.Add(1)
	if err := f.filterErr[term]; err != nil {
		return nil, err
	}
	out := f.filters[term]
	if out == nil {
		out = []recipe.Summary{}
	}
	return out, nil
}

func (f *fakeIndex) LookupByID(_ context.Context, id string) (*recipe.Detail, error) {
	f.lookupCalls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.lookupSawFilters = append(f.lookupSawFilters, f.filtersDone.Load())
	f.mu.Unlock()

	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.details[id], nil
}

func (f *fakeIndex) Random(_ context.Context) (*recipe.Detail, error) {
	return f.random, nil
}

func newTestEngine(t *testing.T, idx recipe.Index, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	e, err := New(idx, opts...)
	require.NoError(t, err)
	return e
}

func ids(summaries []recipe.Summary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.ID
	}
	return out
}
