package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/pantry/internal/favorites"
	"github.com/Aman-CERP/pantry/internal/search"
	"github.com/Aman-CERP/pantry/internal/session"
	"github.com/Aman-CERP/pantry/pkg/version"
)

// Tool names.
const (
	ToolSearchRecipes  = "search_recipes"
	ToolGetRecipe      = "get_recipe"
	ToolRandomRecipe   = "random_recipe"
	ToolToggleFavorite = "toggle_favorite"
	ToolListFavorites  = "list_favorites"
)

// ServerName is reported to MCP clients.
const ServerName = "pantry"

// Server bridges MCP clients with the recipe engine. Each tool call runs in
// its own coordinator session, so concurrent calls never supersede one another.
type Server struct {
	mcp       *mcp.Server
	engine    session.Engine
	favorites *favorites.Set
	logger    *slog.Logger
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        ToolSearchRecipes,
		Description: "Find recipes that use all of the given ingredients. One ingredient returns every recipe containing it. Several ingredients are intersected and verified against full recipes; when no recipe has all of them the result falls back to the first ingredient and carries a warning.",
	},
	{
		Name:        ToolGetRecipe,
		Description: "Get a recipe's ingredients with measures, step-by-step instructions and video link by id.",
	},
	{
		Name:        ToolRandomRecipe,
		Description: "Get one random recipe with full details.",
	},
	{
		Name:        ToolToggleFavorite,
		Description: "Add a recipe id to favorites, or remove it if already there. Returns the new state.",
	},
	{
		Name:        ToolListFavorites,
		Description: "List favorite recipe ids.",
	},
}

// NewServer creates the MCP server and registers its tools.
func NewServer(engine session.Engine, favs *favorites.Set, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("recipe engine is required")
	}
	if favs == nil {
		return nil, errors.New("favorites set is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:    engine,
		favorites: favs,
		logger:    logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns the registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

func describe(name string) string {
	for _, t := range tools {
		if t.Name == name {
			return t.Description
		}
	}
	return ""
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolSearchRecipes, Description: describe(ToolSearchRecipes)},
		sdkHandler(ToolSearchRecipes, s.searchRecipes, FormatSearchResults, s.logger))
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolGetRecipe, Description: describe(ToolGetRecipe)},
		sdkHandler(ToolGetRecipe, s.getRecipe, FormatRecipe, s.logger))
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolRandomRecipe, Description: describe(ToolRandomRecipe)},
		sdkHandler(ToolRandomRecipe, s.randomRecipe, FormatRecipe, s.logger))
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolToggleFavorite, Description: describe(ToolToggleFavorite)},
		sdkHandler(ToolToggleFavorite, s.toggleFavorite, formatToggle, s.logger))
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolListFavorites, Description: describe(ToolListFavorites)},
		sdkHandler(ToolListFavorites, s.listFavorites, func(o ListFavoritesOutput) string { return FormatFavorites(o.IDs) }, s.logger))

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

// sdkHandler adapts a typed handler to the SDK: markdown text content plus
// the structured output.
func sdkHandler[In, Out any](name string, h func(context.Context, In) (Out, error), format func(Out) string, logger *slog.Logger) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		start := time.Now()
		out, err := h(ctx, in)
		if err != nil {
			mapped := MapError(err)
			logger.Info("tool_failed",
				slog.String("tool", name),
				slog.Int("code", mapped.Code),
				slog.String("reason", mapped.Reason),
				slog.Duration("duration", time.Since(start)))
			var zero Out
			return nil, zero, mapped
		}
		logger.Debug("tool_completed",
			slog.String("tool", name),
			slog.Duration("duration", time.Since(start)))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: format(out)}},
		}, out, nil
	}
}

// CallTool invokes a tool by name with JSON-style arguments, bypassing the
// transport.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolSearchRecipes:
		return invoke(ctx, args, s.searchRecipes)
	case ToolGetRecipe:
		return invoke(ctx, args, s.getRecipe)
	case ToolRandomRecipe:
		return invoke(ctx, args, s.randomRecipe)
	case ToolToggleFavorite:
		return invoke(ctx, args, s.toggleFavorite)
	case ToolListFavorites:
		return invoke(ctx, args, s.listFavorites)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func invoke[In, Out any](ctx context.Context, args map[string]any, h func(context.Context, In) (Out, error)) (any, error) {
	var in In
	if len(args) > 0 {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
		}
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
		}
	}
	out, err := h(ctx, in)
	if err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

func (s *Server) newSession() *session.Coordinator {
	return session.New(s.engine, s.favorites, session.WithLogger(s.logger))
}

func (s *Server) searchRecipes(ctx context.Context, in SearchRecipesInput) (SearchRecipesOutput, error) {
	set := search.NewIngredientSet(in.Ingredients...)
	if set.Len() == 0 {
		set = search.ParseTerms(in.Query)
	}

	sess := s.newSession()
	snap := sess.Search(ctx, set, in.Query)
	if err := snapshotError(snap); err != nil {
		return SearchRecipesOutput{}, err
	}

	out := SearchRecipesOutput{
		Terms:   snap.Terms,
		Stage:   snap.Stage,
		Warning: snap.Warning,
		Results: make([]RecipeOutput, 0, len(snap.Results)),
	}
	if out.Terms == nil {
		out.Terms = []string{}
	}
	for _, r := range snap.Results {
		out.Results = append(out.Results, RecipeOutput{
			ID:           r.ID,
			Name:         r.Name,
			ThumbnailURL: r.ThumbnailURL,
			Favorited:    sess.IsFavorited(r.ID),
		})
	}
	return out, nil
}

func (s *Server) getRecipe(ctx context.Context, in GetRecipeInput) (RecipeDetailOutput, error) {
	sess := s.newSession()
	return s.detailOutput(sess, sess.FetchDetail(ctx, in.ID))
}

func (s *Server) randomRecipe(ctx context.Context, _ RandomRecipeInput) (RecipeDetailOutput, error) {
	sess := s.newSession()
	return s.detailOutput(sess, sess.FetchRandom(ctx))
}

func (s *Server) detailOutput(sess *session.Coordinator, snap session.Snapshot) (RecipeDetailOutput, error) {
	if err := snapshotError(snap); err != nil {
		return RecipeDetailOutput{}, err
	}
	if snap.Selected == nil {
		return RecipeDetailOutput{}, &MCPError{Code: ErrCodeNoRecipes, Message: session.MsgDetailNotFound}
	}
	return toDetailOutput(snap.Selected, sess.IsFavorited(snap.Selected.ID)), nil
}

func (s *Server) toggleFavorite(ctx context.Context, in ToggleFavoriteInput) (ToggleFavoriteOutput, error) {
	on, snap := s.newSession().ToggleFavorite(ctx, in.ID)
	if err := snapshotError(snap); err != nil {
		return ToggleFavoriteOutput{}, err
	}
	return ToggleFavoriteOutput{ID: in.ID, Favorited: on, Count: s.favorites.Len()}, nil
}

func (s *Server) listFavorites(_ context.Context, _ ListFavoritesInput) (ListFavoritesOutput, error) {
	ids := s.favorites.IDs()
	if ids == nil {
		ids = []string{}
	}
	return ListFavoritesOutput{IDs: ids}, nil
}

func formatToggle(o ToggleFavoriteOutput) string {
	if o.Favorited {
		return fmt.Sprintf("Added `%s` to favorites (%d total).\n", o.ID, o.Count)
	}
	return fmt.Sprintf("Removed `%s` from favorites (%d total).\n", o.ID, o.Count)
}

// Serve runs the server over stdio until ctx is canceled or the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeTransport(ctx, &mcp.StdioTransport{})
}

// ServeTransport runs the server over t.
func (s *Server) ServeTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("mcp_server_starting", slog.String("version", version.Version))
	err := s.mcp.Run(ctx, t)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}
