package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aman-CERP/pantry/internal/config"
	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/favorites"
	"github.com/Aman-CERP/pantry/internal/mealdb"
	"github.com/Aman-CERP/pantry/internal/recipe"
	"github.com/Aman-CERP/pantry/internal/search"
	"github.com/Aman-CERP/pantry/internal/session"
	"github.com/Aman-CERP/pantry/internal/telemetry"
)

// app is the wired dependency graph shared by the commands: config, the
// recipe index client with its cache, the search engine and favorites.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *mealdb.Client
	index  recipe.Catalog
	engine *search.Engine
	store  favorites.Store
	favs   *favorites.Set

	// searcher is engine, instrumented when telemetry is on.
	searcher session.Engine
	metrics  *telemetry.Metrics
	stats    *telemetry.SQLiteStore
}

// newApp builds the graph from cfg and loads favorites.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := slog.Default()

	client, index := newCatalog(cfg, logger)

	engine, err := search.New(index,
		search.WithConfig(search.EngineConfig{
			VerifyParallelism: cfg.Search.VerifyParallelism,
			MaxTerms:          cfg.Search.MaxTerms,
		}),
		search.WithLogger(logger),
	)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	store, err := favorites.Open(cfg.Favorites.Backend, cfg.Favorites.Path)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("open favorites: %w", err)
	}
	favs := favorites.NewSet(store, logger)
	if err := favs.Load(ctx); err != nil {
		_ = store.Close()
		_ = client.Close()
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		index:    index,
		engine:   engine,
		store:    store,
		favs:     favs,
		searcher: engine,
	}
	if cfg.Telemetry.IsEnabled() {
		stats, err := telemetry.OpenSQLite(cfg.Telemetry.Path)
		if err != nil {
			// Statistics are optional; searching must still work.
			logger.Warn("telemetry_disabled", slog.String("error", err.Error()))
		} else {
			a.stats = stats
			a.metrics = telemetry.New(stats, telemetry.DefaultConfig())
			a.searcher = telemetry.Instrument(engine, a.metrics)
		}
	}

	logger.Debug("app_ready",
		slog.String("base_url", cfg.Index.BaseURL),
		slog.String("favorites_backend", cfg.Favorites.Backend),
		slog.Int("cache_size", cfg.Cache.Size),
		slog.Int("favorites", favs.Len()),
		slog.Bool("telemetry", a.metrics != nil))

	return a, nil
}

// newCatalog builds the index client and, when enabled, its cache.
func newCatalog(cfg *config.Config, logger *slog.Logger) (*mealdb.Client, recipe.Catalog) {
	retry := perrors.DefaultRetryConfig()
	retry.MaxRetries = cfg.Index.MaxRetries
	retry.InitialDelay = cfg.Index.RetryDelayDuration()

	client := mealdb.New(mealdb.Config{
		BaseURL:            cfg.Index.BaseURL,
		Timeout:            cfg.Index.TimeoutDuration(),
		PoolSize:           cfg.Search.VerifyParallelism,
		Retry:              retry,
		CircuitMaxFailures: cfg.Index.CircuitMaxFailures,
		CircuitReset:       cfg.Index.CircuitResetDuration(),
		Logger:             logger,
	})

	var index recipe.Catalog = client
	if cfg.Cache.Size > 0 {
		index = mealdb.NewCachedCatalog(client, cfg.Cache.Size)
	}
	return client, index
}

// session starts a coordinator over the shared engine and favorites.
func (a *app) session(opts ...session.Option) *session.Coordinator {
	return session.New(a.searcher, a.favs, append([]session.Option{session.WithLogger(a.logger)}, opts...)...)
}

// Close flushes statistics and releases the stores and idle connections.
func (a *app) Close() error {
	if a.metrics != nil {
		if err := a.metrics.Flush(context.Background()); err != nil {
			a.logger.Warn("telemetry_flush_failed", slog.String("error", err.Error()))
		}
		_ = a.stats.Close()
	}
	err := a.store.Close()
	if cerr := a.client.Close(); err == nil {
		err = cerr
	}
	return err
}
