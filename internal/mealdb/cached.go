package mealdb

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/pantry/internal/recipe"
)

// DefaultCacheSize is the default number of entries kept per cache.
const DefaultCacheSize = 256

// CachedCatalog wraps a Catalog with LRU caches for filter and lookup
// results. Repeated multi-ingredient searches share most of their per-term
// filters and detail lookups, so both are cached. Random is never cached.
//
// Cached slices and records are shared between callers and must be treated
// as read-only.
type CachedCatalog struct {
	inner   recipe.Catalog
	filters *lru.Cache[string, []recipe.Summary]
	details *lru.Cache[string, *recipe.Detail]
}

var _ recipe.Catalog = (*CachedCatalog)(nil)

// NewCachedCatalog creates a caching wrapper. size applies to each cache.
func NewCachedCatalog(inner recipe.Catalog, size int) *CachedCatalog {
	if size <= 0 {
		size = DefaultCacheSize
	}
	filters, _ := lru.New[string, []recipe.Summary](size)
	details, _ := lru.New[string, *recipe.Detail](size)
	return &CachedCatalog{
		inner:   inner,
		filters: filters,
		details: details,
	}
}

// FilterByIngredient returns the cached filter result for the normalized
// term, or queries the inner catalogue.
func (c *CachedCatalog) FilterByIngredient(ctx context.Context, term string) ([]recipe.Summary, error) {
	return c.filter(ctx, "i:"+recipe.NormalizeTerm(term), func() ([]recipe.Summary, error) {
		return c.inner.FilterByIngredient(ctx, term)
	})
}

// FilterByCategory caches like FilterByIngredient under its own key space.
func (c *CachedCatalog) FilterByCategory(ctx context.Context, category string) ([]recipe.Summary, error) {
	return c.filter(ctx, "c:"+recipe.NormalizeTerm(category), func() ([]recipe.Summary, error) {
		return c.inner.FilterByCategory(ctx, category)
	})
}

func (c *CachedCatalog) filter(ctx context.Context, key string, fetch func() ([]recipe.Summary, error)) ([]recipe.Summary, error) {
	if v, ok := c.filters.Get(key); ok {
		return v, nil
	}
	v, err := fetch()
	if err != nil {
		return nil, err
	}
	c.filters.Add(key, v)
	return v, nil
}

// LookupByID caches found records only, so an id that later appears upstream
// is not hidden by a stale miss.
func (c *CachedCatalog) LookupByID(ctx context.Context, id string) (*recipe.Detail, error) {
	if d, ok := c.details.Get(id); ok {
		return d, nil
	}
	d, err := c.inner.LookupByID(ctx, id)
	if err != nil || d == nil {
		return d, err
	}
	c.details.Add(id, d)
	return d, nil
}

// Random always queries the inner catalogue; the result seeds the detail cache.
func (c *CachedCatalog) Random(ctx context.Context) (*recipe.Detail, error) {
	d, err := c.inner.Random(ctx)
	if err == nil && d != nil && d.ID != "" {
		c.details.Add(d.ID, d)
	}
	return d, err
}

// SearchByName is not cached.
func (c *CachedCatalog) SearchByName(ctx context.Context, name string) ([]*recipe.Detail, error) {
	return c.inner.SearchByName(ctx, name)
}

// Categories is not cached.
func (c *CachedCatalog) Categories(ctx context.Context) ([]recipe.Category, error) {
	return c.inner.Categories(ctx)
}

// Len returns the number of cached filter and detail entries.
func (c *CachedCatalog) Len() (filters, details int) {
	return c.filters.Len(), c.details.Len()
}

// Purge drops every cached entry.
func (c *CachedCatalog) Purge() {
	c.filters.Purge()
	c.details.Purge()
}
