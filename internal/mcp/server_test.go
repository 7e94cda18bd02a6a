package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/favorites"
	"github.com/Aman-CERP/pantry/internal/recipe"
	"github.com/Aman-CERP/pantry/internal/search"
	"github.com/Aman-CERP/pantry/internal/session"
)

type fakeEngine struct {
	single    map[string][]recipe.Summary
	singleErr error
	outcome   *search.Outcome
	multErr   error
	details   map[string]*recipe.Detail
	random    *recipe.Detail
	lastTerms []string
}

func (f *fakeEngine) SearchSingle(_ context.Context, term string) ([]recipe.Summary, error) {
	if f.singleErr != nil {
		return nil, f.singleErr
	}
	return f.single[recipe.NormalizeTerm(term)], nil
}

func (f *fakeEngine) SearchMultiple(_ context.Context, terms []string) (*search.Outcome, error) {
	f.lastTerms = terms
	return f.outcome, f.multErr
}

func (f *fakeEngine) Detail(_ context.Context, id string) (*recipe.Detail, error) {
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, perrors.NoResults("recipe not found")
}

func (f *fakeEngine) Random(_ context.Context) (*recipe.Detail, error) {
	if f.random == nil {
		return nil, perrors.NoResults("no random recipe")
	}
	return f.random, nil
}

var curry = &recipe.Detail{
	Summary:      recipe.Summary{ID: "52795", Name: "Chicken Handi"},
	Category:     "Chicken",
	Area:         "Indian",
	Instructions: "Heat oil.\r\nAdd chicken.",
	Ingredients:  []recipe.IngredientLine{{Name: "chicken", Measure: "1.2 kg"}, {Name: "onion", Measure: "5 thinly sliced"}},
}

func newTestServer(t *testing.T, eng *fakeEngine, ids ...string) (*Server, *favorites.Set) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	favs := favorites.NewSet(favorites.NewMemoryStore(ids...), logger)
	require.NoError(t, favs.Load(context.Background()))
	s, err := NewServer(eng, favs, logger)
	require.NoError(t, err)
	return s, favs
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	favs := favorites.NewSet(favorites.NewMemoryStore(), nil)

	_, err := NewServer(nil, favs, nil)
	assert.Error(t, err)

	_, err = NewServer(&fakeEngine{}, nil, nil)
	assert.Error(t, err)
}

func TestServer_ListTools(t *testing.T) {
	s, _ := newTestServer(t, &fakeEngine{})

	var names []string
	for _, tool := range s.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}

	assert.Equal(t, []string{ToolSearchRecipes, ToolGetRecipe, ToolRandomRecipe, ToolToggleFavorite, ToolListFavorites}, names)
}

func TestCallTool_SearchSingleIngredient(t *testing.T) {
	// Given: one recipe with chicken, already a favorite
	eng := &fakeEngine{single: map[string][]recipe.Summary{"chicken": {curry.Summary}}}
	s, _ := newTestServer(t, eng, "52795")

	// When: searching with a query string
	got, err := s.CallTool(context.Background(), ToolSearchRecipes, map[string]any{"query": " Chicken "})

	// Then: the normalized term and the favorited recipe come back
	require.NoError(t, err)
	out := got.(SearchRecipesOutput)
	assert.Equal(t, []string{"chicken"}, out.Terms)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "52795", out.Results[0].ID)
	assert.True(t, out.Results[0].Favorited)
}

func TestCallTool_SearchMultipleFallbackWarns(t *testing.T) {
	// Given: no recipe has both ingredients
	eng := &fakeEngine{
		outcome: &search.Outcome{
			Terms:   []string{"chicken", "quinoa"},
			Results: []recipe.Summary{curry.Summary},
			Stage:   search.StageFallback,
		},
		multErr: perrors.NoCommonCandidates([]string{"chicken", "quinoa"}),
	}
	s, _ := newTestServer(t, eng)

	// When
	got, err := s.CallTool(context.Background(), ToolSearchRecipes, map[string]any{"ingredients": []string{"Chicken", "quinoa", "chicken"}})

	// Then: fallback results with a warning, not an error
	require.NoError(t, err)
	out := got.(SearchRecipesOutput)
	assert.Equal(t, []string{"chicken", "quinoa"}, eng.lastTerms)
	assert.Equal(t, "fallback", out.Stage)
	assert.Contains(t, out.Warning, "ALL 2 ingredients")
	assert.Len(t, out.Results, 1)
}

func TestCallTool_SearchNoCandidatesIsError(t *testing.T) {
	eng := &fakeEngine{multErr: perrors.NoCandidates([]string{"foo", "bar"})}
	s, _ := newTestServer(t, eng)

	_, err := s.CallTool(context.Background(), ToolSearchRecipes, map[string]any{"query": "foo, bar"})

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrCodeNoRecipes, mcpErr.Code)
	assert.Equal(t, session.MsgNoCandidates, mcpErr.Message)
	assert.Equal(t, perrors.ErrCodeNoCandidates, mcpErr.Reason)
}

func TestCallTool_SearchTransportFailure(t *testing.T) {
	eng := &fakeEngine{singleErr: perrors.TransportError("dial failed", errors.New("refused"))}
	s, _ := newTestServer(t, eng)

	_, err := s.CallTool(context.Background(), ToolSearchRecipes, map[string]any{"query": "rice"})

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrCodeUpstream, mcpErr.Code)
}

func TestCallTool_GetRecipe(t *testing.T) {
	eng := &fakeEngine{details: map[string]*recipe.Detail{"52795": curry}}
	s, _ := newTestServer(t, eng)

	got, err := s.CallTool(context.Background(), ToolGetRecipe, map[string]any{"id": "52795"})

	require.NoError(t, err)
	out := got.(RecipeDetailOutput)
	assert.Equal(t, "Chicken Handi", out.Name)
	assert.Equal(t, []string{"Heat oil.", "Add chicken."}, out.Steps)
	assert.Equal(t, IngredientOutput{Name: "chicken", Measure: "1.2 kg"}, out.Ingredients[0])
	assert.False(t, out.Favorited)
}

func TestCallTool_GetRecipeNotFound(t *testing.T) {
	s, _ := newTestServer(t, &fakeEngine{})

	_, err := s.CallTool(context.Background(), ToolGetRecipe, map[string]any{"id": "0"})

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrCodeNoRecipes, mcpErr.Code)
	assert.Equal(t, session.MsgDetailNotFound, mcpErr.Message)
}

func TestCallTool_RandomRecipe(t *testing.T) {
	s, _ := newTestServer(t, &fakeEngine{random: curry})

	got, err := s.CallTool(context.Background(), ToolRandomRecipe, nil)

	require.NoError(t, err)
	assert.Equal(t, "52795", got.(RecipeDetailOutput).ID)
}

func TestCallTool_ToggleAndListFavorites(t *testing.T) {
	s, favs := newTestServer(t, &fakeEngine{}, "1")
	ctx := context.Background()

	// When: toggling a new id on
	got, err := s.CallTool(ctx, ToolToggleFavorite, map[string]any{"id": "2"})
	require.NoError(t, err)
	assert.Equal(t, ToggleFavoriteOutput{ID: "2", Favorited: true, Count: 2}, got)

	// And: toggling an existing id off
	got, err = s.CallTool(ctx, ToolToggleFavorite, map[string]any{"id": "1"})
	require.NoError(t, err)
	assert.Equal(t, ToggleFavoriteOutput{ID: "1", Favorited: false, Count: 1}, got)

	// Then: list reflects the set
	got, err = s.CallTool(ctx, ToolListFavorites, nil)
	require.NoError(t, err)
	assert.Equal(t, ListFavoritesOutput{IDs: []string{"2"}}, got)
	assert.True(t, favs.IsFavorited("2"))
}

func TestCallTool_ToggleEmptyIDIsInvalid(t *testing.T) {
	s, _ := newTestServer(t, &fakeEngine{})

	_, err := s.CallTool(context.Background(), ToolToggleFavorite, map[string]any{"id": "  "})

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestCallTool_ListFavoritesEmptyIsNotNil(t *testing.T) {
	s, _ := newTestServer(t, &fakeEngine{})

	got, err := s.CallTool(context.Background(), ToolListFavorites, nil)

	require.NoError(t, err)
	assert.NotNil(t, got.(ListFavoritesOutput).IDs)
}

func TestCallTool_UnknownTool(t *testing.T) {
	s, _ := newTestServer(t, &fakeEngine{})

	_, err := s.CallTool(context.Background(), "search_code", nil)

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrCodeMethodNotFound, mcpErr.Code)
}

func TestCallTool_BadArguments(t *testing.T) {
	s, _ := newTestServer(t, &fakeEngine{})

	_, err := s.CallTool(context.Background(), ToolGetRecipe, map[string]any{"id": 42})

	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestServer_InMemoryClient(t *testing.T) {
	// Given: a server and client joined by in-memory transports
	eng := &fakeEngine{details: map[string]*recipe.Detail{"52795": curry}}
	s, _ := newTestServer(t, eng)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverT, clientT := mcp.NewInMemoryTransports()
	serverSession, err := s.MCPServer().Connect(ctx, serverT, nil)
	require.NoError(t, err)
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	defer func() { _ = cs.Close() }()

	// When: listing and calling tools
	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, tools.Tools, 5)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: ToolGetRecipe, Arguments: map[string]any{"id": "52795"}})

	// Then: markdown content describes the recipe
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "## Chicken Handi")
	assert.Contains(t, text.Text, "- 1.2 kg chicken")
}
