// Package search turns one or more ingredient terms into a recipe list using
// a catalogue that can only filter by a single ingredient.
//
// Multi-term searches run in two barrier-separated stages: every term is
// filtered concurrently and the results are intersected by id, then every
// surviving id is looked up concurrently and checked against its full
// ingredient list. An empty intersection degrades to the first term's
// candidates; an intersection that fails verification does not.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/recipe"
)

// Default engine settings.
const (
	DefaultVerifyParallelism = 8
	DefaultMaxTerms          = 10
)

// ErrNilDependency is returned when the engine is built without an index.
var ErrNilDependency = perrors.New(perrors.ErrCodeNilDependency, "nil recipe index", nil)

// ErrCatalogUnsupported is returned by browsing queries when the index does
// not implement recipe.Catalog.
var ErrCatalogUnsupported = perrors.New(perrors.ErrCodeNotImplemented, "recipe index does not support browsing", nil)

// EngineConfig tunes the engine.
type EngineConfig struct {
	// VerifyParallelism bounds concurrent detail lookups during verification.
	VerifyParallelism int
	// MaxTerms caps the number of terms in one multi-term search.
	MaxTerms int
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		VerifyParallelism: DefaultVerifyParallelism,
		MaxTerms:          DefaultMaxTerms,
	}
}

// Engine runs searches against a recipe index. It holds no per-search state
// and is safe for concurrent use.
type Engine struct {
	index   recipe.Index
	catalog recipe.Catalog
	config  EngineConfig
	log     *slog.Logger
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithConfig replaces the engine configuration. Non-positive fields keep
// their defaults.
func WithConfig(cfg EngineConfig) EngineOption {
	return func(e *Engine) {
		if cfg.VerifyParallelism > 0 {
			e.config.VerifyParallelism = cfg.VerifyParallelism
		}
		if cfg.MaxTerms > 0 {
			e.config.MaxTerms = cfg.MaxTerms
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an engine over index. If index also implements
// recipe.Catalog, the browsing queries are enabled.
func New(index recipe.Index, opts ...EngineOption) (*Engine, error) {
	if index == nil {
		return nil, ErrNilDependency
	}

	e := &Engine{
		index:  index,
		config: DefaultEngineConfig(),
		log:    slog.Default(),
	}
	if c, ok := index.(recipe.Catalog); ok {
		e.catalog = c
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the active configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// SearchSingle filters by one term and returns the index's answer verbatim.
// A single filter is authoritative for its own term, so nothing is verified.
func (e *Engine) SearchSingle(ctx context.Context, term string) ([]recipe.Summary, error) {
	n := recipe.NormalizeTerm(term)
	if n == "" {
		return nil, perrors.InvalidInput("Please enter an ingredient")
	}

	summaries, err := e.index.FilterByIngredient(ctx, n)
	if err != nil {
		return nil, transportError("filter by ingredient", err).WithDetail("term", n)
	}
	if len(summaries) == 0 {
		return nil, perrors.NoResults(fmt.Sprintf("no recipes found with %q", n)).WithDetail("term", n)
	}

	e.log.Debug("single_term_search_complete",
		slog.String("term", n),
		slog.Int("results", len(summaries)))
	return summaries, nil
}

// SearchMultiple runs the staged multi-term search. Terms are normalized and
// deduplicated first; the first remaining term drives fallback.
//
// A non-nil Outcome is returned with the outcome errors (NoCandidates,
// NoCommonCandidates, NoVerifiedCandidates). With NoCommonCandidates the
// Outcome's Results hold the fallback list.
func (e *Engine) SearchMultiple(ctx context.Context, terms []string) (*Outcome, error) {
	terms = NewIngredientSet(terms...).Terms()
	if len(terms) == 0 {
		return nil, perrors.InvalidInput("Please add at least one ingredient")
	}
	if len(terms) > e.config.MaxTerms {
		return nil, perrors.New(perrors.ErrCodeTooManyTerms,
			fmt.Sprintf("too many ingredients: %d (max %d)", len(terms), e.config.MaxTerms), nil)
	}

	start := time.Now()
	out := &Outcome{Terms: terms, Results: []recipe.Summary{}}

	// Barrier 1: candidates for every term.
	candidates, err := e.fetchCandidates(ctx, terms)
	if err != nil {
		return nil, err
	}
	out.Candidates = candidates

	nonEmpty := 0
	contributor := -1
	for i, cs := range candidates {
		if cs.Len() > 0 {
			nonEmpty++
			if contributor < 0 {
				contributor = i
			}
		}
	}

	if nonEmpty == 0 {
		return out, perrors.NoCandidates(terms)
	}

	if len(terms) == 1 || nonEmpty == 1 {
		out.Results = candidates[contributor].Summaries()
		out.Stage = StageDegenerate
		e.logOutcome(out, start)
		return out, nil
	}

	out.Intersection = Intersect(candidates)
	if len(out.Intersection) == 0 {
		fallback := candidates[0]
		if fallback.Len() == 0 {
			fallback = candidates[contributor]
		}
		out.Results = fallback.Summaries()
		out.Stage = StageFallback
		e.logOutcome(out, start)
		return out, perrors.NoCommonCandidates(terms).WithDetail("fallback_term", fallback.Term)
	}

	// Barrier 2: verify the completed intersection.
	details, err := e.fetchDetails(ctx, out.Intersection)
	if err != nil {
		return nil, err
	}

	out.Stage = StageVerified
	out.Verified = make([]string, 0, len(details))
	for i, d := range details {
		if d == nil {
			e.log.Debug("verify_detail_absent", slog.String("id", out.Intersection[i]))
			continue
		}
		if Verify(d, terms) {
			id := out.Intersection[i]
			out.Verified = append(out.Verified, id)
			out.Results = append(out.Results, candidates[0].ByID[id])
		}
	}

	e.logOutcome(out, start)
	if len(out.Verified) == 0 {
		return out, perrors.NoVerifiedCandidates(terms)
	}
	return out, nil
}

// fetchCandidates filters every term concurrently and waits for all of them.
// Any failure aborts the whole search.
func (e *Engine) fetchCandidates(ctx context.Context, terms []string) ([]CandidateSet, error) {
	results := make([][]recipe.Summary, len(terms))

	g, gctx := errgroup.WithContext(ctx)
	for i, term := range terms {
		g.Go(func() error {
			summaries, err := e.index.FilterByIngredient(gctx, term)
			if err != nil {
				return transportError("filter by ingredient", err).WithDetail("term", term)
			}
			results[i] = summaries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sets := make([]CandidateSet, len(terms))
	for i, term := range terms {
		sets[i] = newCandidateSet(term, results[i])
	}
	return sets, nil
}

// fetchDetails looks up every id with bounded parallelism. The returned
// slice is index-aligned with ids; absent records are nil.
func (e *Engine) fetchDetails(ctx context.Context, ids []string) ([]*recipe.Detail, error) {
	details := make([]*recipe.Detail, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.VerifyParallelism)
	for i, id := range ids {
		g.Go(func() error {
			d, err := e.index.LookupByID(gctx, id)
			if err != nil {
				return transportError("lookup recipe", err).WithDetail("id", id)
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

func (e *Engine) logOutcome(out *Outcome, start time.Time) {
	sizes := make([]int, len(out.Candidates))
	for i, cs := range out.Candidates {
		sizes[i] = cs.Len()
	}
	e.log.Debug("multi_term_search_complete",
		slog.String("terms", strings.Join(out.Terms, ",")),
		slog.Any("candidates", sizes),
		slog.Int("intersection", len(out.Intersection)),
		slog.Int("verified", len(out.Verified)),
		slog.Int("results", len(out.Results)),
		slog.String("stage", out.Stage.String()),
		slog.Duration("duration", time.Since(start)))
}

// Intersect returns the ids present in every candidate set, in the order of
// the first set. Any empty set makes the intersection empty.
func Intersect(sets []CandidateSet) []string {
	if len(sets) == 0 {
		return nil
	}
	out := make([]string, 0, sets[0].Len())
	for _, id := range sets[0].Order {
		inAll := true
		for _, cs := range sets[1:] {
			if !cs.Has(id) {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, id)
		}
	}
	return out
}

// Verify reports whether every term matches at least one of the recipe's
// ingredient names. A term matches a name when either contains the other.
func Verify(d *recipe.Detail, terms []string) bool {
	names := d.IngredientNames()
	for _, term := range terms {
		t := recipe.NormalizeTerm(term)
		if !matchesAny(t, names) {
			return false
		}
	}
	return true
}

func matchesAny(term string, names []string) bool {
	if term == "" {
		return false
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if strings.Contains(name, term) || strings.Contains(term, name) {
			return true
		}
	}
	return false
}

// transportError classifies an index failure. Errors that already carry a
// code keep it; anything else becomes a transport error. The result is
// always a fresh value so callers may attach details to it.
func transportError(op string, err error) *perrors.PantryError {
	if pe, ok := asPantryError(err); ok {
		cp := *pe
		cp.Details = make(map[string]string, len(pe.Details)+1)
		for k, v := range pe.Details {
			cp.Details[k] = v
		}
		return &cp
	}
	return perrors.TransportError(op+" failed", err)
}
