// Package session owns the state a presenter renders: the current result
// list, the selected recipe, the loading flag, and the user-facing error or
// warning message. A Coordinator runs engine operations, converts their
// errors into messages, and applies only the newest result for each slot.
package session

import (
	"context"

	"github.com/Aman-CERP/pantry/internal/recipe"
	"github.com/Aman-CERP/pantry/internal/search"
)

// Engine is the search surface the coordinator drives.
type Engine interface {
	SearchSingle(ctx context.Context, term string) ([]recipe.Summary, error)
	SearchMultiple(ctx context.Context, terms []string) (*search.Outcome, error)
	Detail(ctx context.Context, id string) (*recipe.Detail, error)
	Random(ctx context.Context) (*recipe.Detail, error)
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	SessionID string           `json:"session_id"`
	Terms     []string         `json:"terms,omitempty"`
	Results   []recipe.Summary `json:"results"`
	Selected  *recipe.Detail   `json:"selected,omitempty"`
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
	ErrorCode string           `json:"error_code,omitempty"`
	Warning   string           `json:"warning,omitempty"`
	Stage     string           `json:"stage,omitempty"`
	// Seq increases with every state change. A presenter can ignore a
	// snapshot whose Seq is lower than one it already rendered.
	Seq       uint64           `json:"seq"`
}

// Observer is called after state changes, outside the coordinator's state
// lock, in Seq order. A snapshot overtaken by a newer delivery is skipped.
// It must not block.
type Observer func(Snapshot)

// User-facing messages.
const (
	MsgEnterIngredient   = "Please enter an ingredient"
	MsgAddIngredient     = "Please add at least one ingredient"
	MsgNoCandidates      = "No recipes found with the selected ingredients. Try different combinations!"
	MsgConnection        = "Oops! Something went wrong. Please check your connection and try again."
	MsgRandomEmpty       = "Could not fetch a random recipe. Try again!"
	MsgRandomFailed      = "Oops! Failed to get a random recipe. Please try again."
	MsgDetailNotFound    = "Recipe details not found"
	MsgDetailFailed      = "Failed to load recipe details"
	MsgChooseRecipe      = "Please choose a recipe"
	MsgFavoritesFailed   = "Could not save your favorites. Please try again."
	msgNoResultsTemplate = "No recipes found with %q. Try another ingredient!"
	msgFallbackTemplate  = "No recipes found with ALL %d ingredients. Showing recipes with %q instead."
	msgNoVerifiedFormat  = "None of the matching recipes really use all of: %s. Try different combinations!"
)
