package recipe

import "context"

// Index is the recipe catalogue port used by the search engine.
//
// Implementations report transport failures as errors. "No matches" is never
// an error: FilterByIngredient returns an empty slice, and LookupByID and
// Random return (nil, nil) when no record exists.
type Index interface {
	// FilterByIngredient returns every recipe the catalogue associates with
	// the term. Results are unverified and may include false positives.
	FilterByIngredient(ctx context.Context, term string) ([]Summary, error)

	// LookupByID returns the full record for id, or nil if absent.
	LookupByID(ctx context.Context, id string) (*Detail, error)

	// Random returns one arbitrary recipe, or nil if the catalogue is empty.
	Random(ctx context.Context) (*Detail, error)
}

// Catalog extends Index with the browsing queries the catalogue also offers.
type Catalog interface {
	Index

	// SearchByName returns full records whose name matches the query.
	SearchByName(ctx context.Context, name string) ([]*Detail, error)

	// FilterByCategory returns summaries of recipes in the category.
	FilterByCategory(ctx context.Context, category string) ([]Summary, error)

	// Categories lists every category.
	Categories(ctx context.Context) ([]Category, error)
}
