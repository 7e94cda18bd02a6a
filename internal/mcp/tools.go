package mcp

import "github.com/Aman-CERP/pantry/internal/recipe"

// SearchRecipesInput defines the input schema for search_recipes.
type SearchRecipesInput struct {
	Ingredients []string `json:"ingredients,omitempty" jsonschema:"ingredients the recipe must use, e.g. [\"chicken\", \"rice\"]"`
	Query       string   `json:"query,omitempty" jsonschema:"alternative to ingredients: one ingredient or a comma separated list"`
}

// SearchRecipesOutput defines the output schema for search_recipes.
type SearchRecipesOutput struct {
	Terms   []string       `json:"terms" jsonschema:"normalized ingredient terms that were searched"`
	Stage   string         `json:"stage,omitempty" jsonschema:"how the answer was produced: degenerate, fallback or verified"`
	Warning string         `json:"warning,omitempty" jsonschema:"set when results fall back to a single ingredient"`
	Results []RecipeOutput `json:"results" jsonschema:"matching recipes"`
}

// RecipeOutput is one recipe in a result list.
type RecipeOutput struct {
	ID           string `json:"id" jsonschema:"recipe id, usable with get_recipe"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Favorited    bool   `json:"favorited"`
}

// GetRecipeInput defines the input schema for get_recipe.
type GetRecipeInput struct {
	ID string `json:"id" jsonschema:"recipe id from search_recipes"`
}

// RandomRecipeInput defines the input schema for random_recipe (no parameters).
type RandomRecipeInput struct{}

// RecipeDetailOutput defines the output schema for get_recipe and random_recipe.
type RecipeDetailOutput struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Category     string             `json:"category,omitempty"`
	Area         string             `json:"area,omitempty" jsonschema:"cuisine"`
	Tags         []string           `json:"tags,omitempty"`
	Ingredients  []IngredientOutput `json:"ingredients"`
	Steps        []string           `json:"steps" jsonschema:"instructions split into steps"`
	ThumbnailURL string             `json:"thumbnail_url,omitempty"`
	VideoURL     string             `json:"video_url,omitempty"`
	SourceURL    string             `json:"source_url,omitempty"`
	Favorited    bool               `json:"favorited"`
}

// IngredientOutput is one ingredient line.
type IngredientOutput struct {
	Name    string `json:"name"`
	Measure string `json:"measure,omitempty"`
}

func toDetailOutput(d *recipe.Detail, favorited bool) RecipeDetailOutput {
	out := RecipeDetailOutput{
		ID:           d.ID,
		Name:         d.Name,
		Category:     d.Category,
		Area:         d.Area,
		Tags:         d.Tags,
		Ingredients:  make([]IngredientOutput, 0, len(d.Ingredients)),
		Steps:        d.Steps(),
		ThumbnailURL: d.ThumbnailURL,
		VideoURL:     d.VideoURL,
		SourceURL:    d.SourceURL,
		Favorited:    favorited,
	}
	for _, line := range d.Ingredients {
		out.Ingredients = append(out.Ingredients, IngredientOutput{Name: line.Name, Measure: line.Measure})
	}
	return out
}

// ToggleFavoriteInput defines the input schema for toggle_favorite.
type ToggleFavoriteInput struct {
	ID string `json:"id" jsonschema:"recipe id to add to or remove from favorites"`
}

// ToggleFavoriteOutput defines the output schema for toggle_favorite.
type ToggleFavoriteOutput struct {
	ID        string `json:"id"`
	Favorited bool   `json:"favorited" jsonschema:"membership after the toggle"`
	Count     int    `json:"count" jsonschema:"number of favorites after the toggle"`
}

// ListFavoritesInput defines the input schema for list_favorites (no parameters).
type ListFavoritesInput struct{}

// ListFavoritesOutput defines the output schema for list_favorites.
type ListFavoritesOutput struct {
	IDs []string `json:"ids" jsonschema:"favorite recipe ids, sorted"`
}
