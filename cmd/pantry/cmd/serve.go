package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/pantry/internal/favorites"
	"github.com/Aman-CERP/pantry/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol server on stdin/stdout.

Tools: search_recipes, get_recipe, random_recipe, toggle_favorite and
list_favorites. Stdout carries only JSON-RPC; logs go to the log file.
With the file favorites backend, changes made by other pantry processes
are picked up while the server runs.`,
		Example: `  # MCP client configuration
  {"command": "pantry", "args": ["serve"]}`,
		Annotations: map[string]string{annotationServe: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, runServe)
		},
	}
}

// telemetryFlushInterval bounds how many statistics a killed server loses.
const telemetryFlushInterval = time.Minute

func runServe(ctx context.Context, a *app) error {
	server, err := mcp.NewServer(a.searcher, a.favs, a.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if fs, ok := a.store.(*favorites.FileStore); ok {
		watcher := favorites.NewWatcher(fs, a.favs, a.logger)
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil {
				// The server still works without live reload.
				a.logger.Warn("favorites_watch_failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if a.metrics != nil {
		g.Go(func() error {
			if err := a.metrics.Run(gctx, telemetryFlushInterval); err != nil {
				a.logger.Warn("telemetry_flush_failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		return server.Serve(gctx)
	})

	return g.Wait()
}
