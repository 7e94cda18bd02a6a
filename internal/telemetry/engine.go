package telemetry

import (
	"context"
	"errors"
	"time"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/recipe"
	"github.com/Aman-CERP/pantry/internal/search"
)

// Searcher is the engine surface a coordinator drives.
type Searcher interface {
	SearchSingle(ctx context.Context, term string) ([]recipe.Summary, error)
	SearchMultiple(ctx context.Context, terms []string) (*search.Outcome, error)
	Detail(ctx context.Context, id string) (*recipe.Detail, error)
	Random(ctx context.Context) (*recipe.Detail, error)
}

// Engine records every search that passes through it. Lookups are not
// recorded.
type Engine struct {
	Searcher
	metrics *Metrics
}

// Instrument wraps inner so its searches are recorded in m.
func Instrument(inner Searcher, m *Metrics) *Engine {
	return &Engine{Searcher: inner, metrics: m}
}

// SearchSingle records a one-ingredient search.
func (e *Engine) SearchSingle(ctx context.Context, term string) ([]recipe.Summary, error) {
	start := time.Now()
	results, err := e.Searcher.SearchSingle(ctx, term)
	e.record([]string{term}, StageSingle, len(results), start, err)
	return results, err
}

// SearchMultiple records the stage a multi-ingredient search ended at.
func (e *Engine) SearchMultiple(ctx context.Context, terms []string) (*search.Outcome, error) {
	start := time.Now()
	out, err := e.Searcher.SearchMultiple(ctx, terms)

	stage, n := search.StageNone.String(), 0
	if out != nil {
		stage, n = out.Stage.String(), len(out.Results)
	}
	e.record(terms, stage, n, start, err)
	return out, err
}

func (e *Engine) record(terms []string, stage string, n int, start time.Time, err error) {
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		// Superseded searches say nothing about the catalogue.
		return
	case perrors.GetCategory(err) == perrors.CategoryValidation:
		return
	case !perrors.IsOutcome(err):
		stage = StageFailed
	}
	e.metrics.Record(SearchEvent{
		Terms:       terms,
		Stage:       stage,
		ResultCount: n,
		Latency:     time.Since(start),
	})
}
