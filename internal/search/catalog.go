package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/recipe"
)

// Detail fetches one full recipe.
func (e *Engine) Detail(ctx context.Context, id string) (*recipe.Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, perrors.InvalidInput("recipe id is required")
	}

	d, err := e.index.LookupByID(ctx, id)
	if err != nil {
		return nil, transportError("lookup recipe", err).WithDetail("id", id)
	}
	if d == nil {
		return nil, perrors.NoResults("Recipe details not found").WithDetail("id", id)
	}
	return d, nil
}

// Random fetches one arbitrary recipe.
func (e *Engine) Random(ctx context.Context) (*recipe.Detail, error) {
	d, err := e.index.Random(ctx)
	if err != nil {
		return nil, transportError("random recipe", err)
	}
	if d == nil {
		return nil, perrors.NoResults("Could not fetch a random recipe. Try again!")
	}
	return d, nil
}

// SearchByName returns full records whose name matches query.
func (e *Engine) SearchByName(ctx context.Context, query string) ([]*recipe.Detail, error) {
	if e.catalog == nil {
		return nil, ErrCatalogUnsupported
	}
	q := recipe.NormalizeTerm(query)
	if q == "" {
		return nil, perrors.InvalidInput("Please enter a recipe name")
	}

	details, err := e.catalog.SearchByName(ctx, q)
	if err != nil {
		return nil, transportError("search by name", err).WithDetail("query", q)
	}
	if len(details) == 0 {
		return nil, perrors.NoResults(fmt.Sprintf("no recipes named %q", q))
	}
	return details, nil
}

// ByCategory lists the recipes in a category.
func (e *Engine) ByCategory(ctx context.Context, category string) ([]recipe.Summary, error) {
	if e.catalog == nil {
		return nil, ErrCatalogUnsupported
	}
	if recipe.NormalizeTerm(category) == "" {
		return nil, perrors.InvalidInput("Please choose a category")
	}

	summaries, err := e.catalog.FilterByCategory(ctx, category)
	if err != nil {
		return nil, transportError("filter by category", err).WithDetail("category", category)
	}
	if len(summaries) == 0 {
		return nil, perrors.NoResults(fmt.Sprintf("no recipes in category %q", category))
	}
	return summaries, nil
}

// Categories lists every category the catalogue knows.
func (e *Engine) Categories(ctx context.Context) ([]recipe.Category, error) {
	if e.catalog == nil {
		return nil, ErrCatalogUnsupported
	}
	cats, err := e.catalog.Categories(ctx)
	if err != nil {
		return nil, transportError("list categories", err)
	}
	if len(cats) == 0 {
		return nil, perrors.NoResults("no categories available")
	}
	return cats, nil
}

func asPantryError(err error) (*perrors.PantryError, bool) {
	var pe *perrors.PantryError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
