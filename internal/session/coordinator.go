package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/favorites"
	"github.com/Aman-CERP/pantry/internal/recipe"
	"github.com/Aman-CERP/pantry/internal/search"
)

// slot identifies a piece of state that operations compete to write.
type slot int

const (
	slotResults slot = iota
	slotSelection
	slotFavorites
	slotCount
)

// Coordinator serializes state changes for one user session.
//
// Each operation takes a generation number for its slot when issued. When it
// settles, its result is applied only if no newer operation for the same slot
// was issued meanwhile; otherwise it is dropped. In-flight calls are not
// cancelled.
type Coordinator struct {
	engine    Engine
	favorites *favorites.Set
	observer  Observer
	log       *slog.Logger

	mu       sync.Mutex
	gen      [slotCount]uint64
	inFlight int
	state    Snapshot

	deliverMu sync.Mutex
	delivered uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver registers a state-change callback.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithLogger sets the logger. The session id is attached to every record.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a coordinator. A nil favorites set keeps favorites in memory.
func New(engine Engine, favs *favorites.Set, opts ...Option) *Coordinator {
	if favs == nil {
		favs = favorites.NewSet(nil, nil)
	}
	c := &Coordinator{
		engine:    engine,
		favorites: favs,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.state.SessionID = uuid.NewString()
	c.state.Results = []recipe.Summary{}
	c.log = c.log.With(slog.String("session_id", c.state.SessionID))
	return c
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Favorites returns the session's favorites set.
func (c *Coordinator) Favorites() *favorites.Set {
	return c.favorites
}

// Search picks the search path from the ingredient set: no terms searches
// the raw text, one term searches it alone, more run the multi-term search.
func (c *Coordinator) Search(ctx context.Context, set *search.IngredientSet, raw string) Snapshot {
	switch {
	case set == nil || set.Len() == 0:
		return c.SearchSingle(ctx, raw)
	case set.Len() == 1:
		return c.SearchSingle(ctx, set.Terms()[0])
	default:
		return c.SearchMultiple(ctx, set)
	}
}

// SearchSingle runs a one-ingredient search.
func (c *Coordinator) SearchSingle(ctx context.Context, term string) Snapshot {
	gen := c.begin(slotResults)
	results, err := c.engine.SearchSingle(ctx, term)
	n := recipe.NormalizeTerm(term)

	return c.finish(slotResults, gen, "search_single", func(s *Snapshot) {
		s.Terms = nil
		if n != "" {
			s.Terms = []string{n}
		}
		s.Stage = ""
		if err != nil {
			c.fail(s, err, singleMessage(n, err))
			return
		}
		c.succeed(s, results)
	})
}

// SearchMultiple runs the multi-ingredient search over the set's terms.
func (c *Coordinator) SearchMultiple(ctx context.Context, set *search.IngredientSet) Snapshot {
	var terms []string
	if set != nil {
		terms = set.Terms()
	}

	gen := c.begin(slotResults)
	out, err := c.engine.SearchMultiple(ctx, terms)

	return c.finish(slotResults, gen, "search_multiple", func(s *Snapshot) {
		s.Terms = terms
		s.Stage = ""
		if out != nil {
			s.Stage = out.Stage.String()
		}

		switch {
		case err == nil:
			c.succeed(s, out.Results)
		case perrors.GetCode(err) == perrors.ErrCodeNoCommonCandidates:
			// Degraded service: keep the fallback list and warn.
			c.succeed(s, out.Results)
			s.Warning = fmt.Sprintf(msgFallbackTemplate, len(out.Terms), fallbackTerm(out, err))
			s.ErrorCode = perrors.ErrCodeNoCommonCandidates
		default:
			c.fail(s, err, multiMessage(terms, err))
		}
	})
}

// FetchDetail selects a recipe by id.
func (c *Coordinator) FetchDetail(ctx context.Context, id string) Snapshot {
	gen := c.begin(slotSelection)
	d, err := c.engine.Detail(ctx, id)

	return c.finish(slotSelection, gen, "fetch_detail", func(s *Snapshot) {
		if err != nil {
			c.setError(s, err, detailMessage(err))
			return
		}
		s.Selected = d
		c.clearMessages(s)
	})
}

// FetchRandom selects an arbitrary recipe.
func (c *Coordinator) FetchRandom(ctx context.Context) Snapshot {
	gen := c.begin(slotSelection)
	d, err := c.engine.Random(ctx)

	return c.finish(slotSelection, gen, "fetch_random", func(s *Snapshot) {
		if err != nil {
			msg := MsgRandomFailed
			if perrors.GetCode(err) == perrors.ErrCodeNoResults {
				msg = MsgRandomEmpty
			}
			c.setError(s, err, msg)
			return
		}
		s.Selected = d
		c.clearMessages(s)
	})
}

// ToggleFavorite flips id's membership and reports the new state.
func (c *Coordinator) ToggleFavorite(ctx context.Context, id string) (bool, Snapshot) {
	gen := c.begin(slotFavorites)
	on, err := c.favorites.Toggle(ctx, id)

	snap := c.finish(slotFavorites, gen, "toggle_favorite", func(s *Snapshot) {
		if err != nil {
			msg := MsgFavoritesFailed
			if perrors.GetCode(err) == perrors.ErrCodeInvalidInput {
				msg = MsgChooseRecipe
			}
			c.setError(s, err, msg)
		}
	})
	return on, snap
}

// IsFavorited reports whether id is a favorite.
func (c *Coordinator) IsFavorited(id string) bool {
	return c.favorites.IsFavorited(id)
}

// ClearSelection drops the selected recipe.
func (c *Coordinator) ClearSelection() Snapshot {
	return c.mutate(func(s *Snapshot) { s.Selected = nil })
}

// ClearError drops the error and warning messages.
func (c *Coordinator) ClearError() Snapshot {
	return c.mutate(c.clearMessages)
}

// begin issues a new generation for the slot and marks the session busy.
func (c *Coordinator) begin(sl slot) uint64 {
	c.mu.Lock()
	c.gen[sl]++
	gen := c.gen[sl]
	c.inFlight++
	c.state.Loading = true
	snap := c.publishLocked()
	c.mu.Unlock()

	c.notify(snap)
	return gen
}

// finish applies the result if gen is still the newest for the slot and
// clears the loading flag once nothing is in flight.
func (c *Coordinator) finish(sl slot, gen uint64, op string, apply func(*Snapshot)) Snapshot {
	c.mu.Lock()
	c.inFlight--
	if gen == c.gen[sl] {
		apply(&c.state)
		c.log.Debug("operation_settled",
			slog.String("op", op),
			slog.Uint64("generation", gen),
			slog.Int("results", len(c.state.Results)))
	} else {
		c.log.Debug("stale_result_dropped",
			slog.String("op", op),
			slog.Uint64("generation", gen),
			slog.Uint64("latest", c.gen[sl]))
	}
	c.state.Loading = c.inFlight > 0
	snap := c.publishLocked()
	c.mu.Unlock()

	c.notify(snap)
	return snap
}

func (c *Coordinator) mutate(apply func(*Snapshot)) Snapshot {
	c.mu.Lock()
	apply(&c.state)
	snap := c.publishLocked()
	c.mu.Unlock()

	c.notify(snap)
	return snap
}

func (c *Coordinator) succeed(s *Snapshot, results []recipe.Summary) {
	if results == nil {
		results = []recipe.Summary{}
	}
	s.Results = results
	c.clearMessages(s)
}

// fail clears the result list and records the message.
func (c *Coordinator) fail(s *Snapshot, err error, msg string) {
	s.Results = []recipe.Summary{}
	c.setError(s, err, msg)
}

func (c *Coordinator) setError(s *Snapshot, err error, msg string) {
	s.Error = msg
	s.ErrorCode = perrors.GetCode(err)
	s.Warning = ""

	level := slog.LevelInfo
	if perrors.IsTransport(err) || perrors.GetCategory(err) == perrors.CategoryInternal {
		level = slog.LevelWarn
	}
	c.log.Log(context.Background(), level, "operation_failed", perrors.LogAttr(err))
}

func (c *Coordinator) clearMessages(s *Snapshot) {
	s.Error = ""
	s.ErrorCode = ""
	s.Warning = ""
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := c.state
	snap.Terms = append([]string(nil), c.state.Terms...)
	snap.Results = append([]recipe.Summary{}, c.state.Results...)
	return snap
}

// publishLocked stamps the next sequence number on the state.
func (c *Coordinator) publishLocked() Snapshot {
	c.state.Seq++
	return c.snapshotLocked()
}

// notify delivers snap unless a newer snapshot already went out. Snapshots
// are built under mu but delivered after it is released, so two settling
// operations can reach here in either order.
func (c *Coordinator) notify(snap Snapshot) {
	if c.observer == nil {
		return
	}
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	if snap.Seq <= c.delivered {
		c.log.Debug("superseded_snapshot_skipped",
			slog.Uint64("seq", snap.Seq),
			slog.Uint64("delivered", c.delivered))
		return
	}
	c.delivered = snap.Seq
	c.observer(snap)
}

func singleMessage(term string, err error) string {
	switch perrors.GetCode(err) {
	case perrors.ErrCodeInvalidInput:
		return MsgEnterIngredient
	case perrors.ErrCodeNoResults:
		return fmt.Sprintf(msgNoResultsTemplate, term)
	}
	if perrors.IsTransport(err) {
		return MsgConnection
	}
	return userMessage(err)
}

func multiMessage(terms []string, err error) string {
	switch perrors.GetCode(err) {
	case perrors.ErrCodeInvalidInput:
		return MsgAddIngredient
	case perrors.ErrCodeNoCandidates:
		return MsgNoCandidates
	case perrors.ErrCodeNoVerifiedCandidates:
		return fmt.Sprintf(msgNoVerifiedFormat, strings.Join(terms, ", "))
	}
	if perrors.IsTransport(err) {
		return MsgConnection
	}
	return userMessage(err)
}

func detailMessage(err error) string {
	switch perrors.GetCode(err) {
	case perrors.ErrCodeInvalidInput:
		return MsgChooseRecipe
	case perrors.ErrCodeNoResults:
		return MsgDetailNotFound
	}
	return MsgDetailFailed
}

// userMessage falls back to the error's own message, without its code.
func userMessage(err error) string {
	var pe *perrors.PantryError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return MsgConnection
}

func fallbackTerm(out *search.Outcome, err error) string {
	var pe *perrors.PantryError
	if errors.As(err, &pe) && pe.Details["fallback_term"] != "" {
		return pe.Details["fallback_term"]
	}
	return out.Terms[0]
}
