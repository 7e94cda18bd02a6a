package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/recipe"
)

func TestNew_NilIndex(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilDependency)
	assert.NotErrorIs(t, err, ErrCatalogUnsupported)
}

func TestInternalSentinels_AreDistinct(t *testing.T) {
	decode := perrors.New(perrors.ErrCodeDecodeFailed, "decode lookup.php response", nil)

	assert.NotErrorIs(t, ErrCatalogUnsupported, ErrNilDependency)
	assert.NotErrorIs(t, decode, ErrNilDependency)
	assert.NotErrorIs(t, decode, ErrCatalogUnsupported)
	assert.Equal(t, perrors.CategoryInternal, perrors.GetCategory(ErrNilDependency))
	assert.Equal(t, perrors.CategoryInternal, perrors.GetCategory(ErrCatalogUnsupported))
}

func TestNew_ConfigOptions(t *testing.T) {
	e := newTestEngine(t, newFakeIndex(), WithConfig(EngineConfig{VerifyParallelism: 2}))
	assert.Equal(t, 2, e.Config().VerifyParallelism)
	assert.Equal(t, DefaultMaxTerms, e.Config().MaxTerms)
}

func TestSearchSingle(t *testing.T) {
	idx := newFakeIndex().withFilter("chicken", "1", "2")
	e := newTestEngine(t, idx)
	ctx := context.Background()

	t.Run("returns index results verbatim", func(t *testing.T) {
		got, err := e.SearchSingle(ctx, "  Chicken ")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, ids(got))
	})

	t.Run("blank term never reaches the index", func(t *testing.T) {
		before := idx.filterCalls.Load()
		_, err := e.SearchSingle(ctx, "   ")
		assert.ErrorIs(t, err, perrors.ErrInvalidInput)
		assert.Equal(t, before, idx.filterCalls.Load())
	})

	t.Run("empty result is NoResults", func(t *testing.T) {
		_, err := e.SearchSingle(ctx, "kale")
		assert.ErrorIs(t, err, perrors.ErrNoResults)
	})

	t.Run("index failure is transport", func(t *testing.T) {
		idx.filterErr["rice"] = errors.New("connection reset")
		_, err := e.SearchSingle(ctx, "rice")
		assert.ErrorIs(t, err, perrors.ErrTransport)
		assert.True(t, perrors.IsTransport(err))
	})
}

// Scenario A: one term returns its five candidates unverified.
func TestSearchMultiple_SingleTermIsUnverified(t *testing.T) {
	idx := newFakeIndex().withFilter("chicken", "1", "2", "3", "4", "5")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"chicken"})

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(out.Results))
	assert.Equal(t, StageDegenerate, out.Stage)
	assert.Zero(t, idx.lookupCalls.Load(), "no verification for a single term")

	single, err := e.SearchSingle(context.Background(), "chicken")
	require.NoError(t, err)
	assert.Equal(t, single, out.Results)
}

// Scenario B: recipe 3 only has "chicken breast" and "basmati", so it fails
// the "rice" check.
func TestSearchMultiple_VerificationFiltersFalsePositives(t *testing.T) {
	idx := newFakeIndex().
		withFilter("chicken", "1", "2", "3").
		withFilter("rice", "2", "3", "4").
		withDetail("2", "Chicken", "Rice", "Soy Sauce").
		withDetail("3", "Chicken Breast", "Basmati")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"chicken", "rice"})

	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, out.Intersection)
	assert.Equal(t, []string{"2"}, out.Verified)
	assert.Equal(t, []string{"2"}, ids(out.Results))
	assert.Equal(t, "Recipe 2", out.Results[0].Name)
	assert.Equal(t, StageVerified, out.Stage)
	assert.Equal(t, int32(2), idx.lookupCalls.Load())
}

// Scenario C: disjoint candidates fall back to the first term's list.
func TestSearchMultiple_DisjointFallsBackToFirstTerm(t *testing.T) {
	idx := newFakeIndex().
		withFilter("chicken", "1", "2").
		withFilter("kale", "7", "8")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"chicken", "kale"})

	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrNoCommonCandidates)
	require.NotNil(t, out)
	assert.Equal(t, []string{"1", "2"}, ids(out.Results))
	assert.Equal(t, StageFallback, out.Stage)
	assert.Empty(t, out.Intersection)
	assert.Zero(t, idx.lookupCalls.Load())

	var pe *perrors.PantryError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"chicken", "kale"}, pe.Terms())
	assert.Equal(t, "chicken", pe.Details["fallback_term"])
}

// Scenario D: the only common recipe matches neither term on inspection.
func TestSearchMultiple_NothingVerifiedIsTerminal(t *testing.T) {
	idx := newFakeIndex().
		withFilter("chicken", "5", "6").
		withFilter("rice", "5").
		withDetail("5", "Chickpea", "Barley")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"chicken", "rice"})

	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrNoVerifiedCandidates)
	assert.False(t, errors.Is(err, perrors.ErrNoCommonCandidates))
	require.NotNil(t, out)
	assert.Empty(t, out.Results)
	assert.Equal(t, []string{"5"}, out.Intersection)
	assert.Empty(t, out.Verified)

	var pe *perrors.PantryError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"chicken", "rice"}, pe.Terms())
}

func TestSearchMultiple_EmptyInput(t *testing.T) {
	idx := newFakeIndex()
	e := newTestEngine(t, idx)

	for _, terms := range [][]string{nil, {}, {"", "  "}} {
		_, err := e.SearchMultiple(context.Background(), terms)
		assert.ErrorIs(t, err, perrors.ErrInvalidInput)
	}
	assert.Zero(t, idx.filterCalls.Load())
}

func TestSearchMultiple_TooManyTerms(t *testing.T) {
	e := newTestEngine(t, newFakeIndex(), WithConfig(EngineConfig{MaxTerms: 2}))

	_, err := e.SearchMultiple(context.Background(), []string{"a", "b", "c"})
	assert.Equal(t, perrors.ErrCodeTooManyTerms, perrors.GetCode(err))
}

func TestSearchMultiple_AllEmptyIsNoCandidates(t *testing.T) {
	e := newTestEngine(t, newFakeIndex())

	out, err := e.SearchMultiple(context.Background(), []string{"unobtainium", "mithril"})

	assert.ErrorIs(t, err, perrors.ErrNoCandidates)
	require.NotNil(t, out)
	assert.Empty(t, out.Results)
	assert.Len(t, out.Candidates, 2)
}

func TestSearchMultiple_OnlyOneContributorIsDegenerate(t *testing.T) {
	idx := newFakeIndex().withFilter("rice", "3", "4")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"unobtainium", "rice"})

	require.NoError(t, err)
	assert.Equal(t, StageDegenerate, out.Stage)
	assert.Equal(t, []string{"3", "4"}, ids(out.Results))
	assert.Zero(t, idx.lookupCalls.Load())
}

func TestSearchMultiple_EmptyFirstTermFallsBackToFirstNonEmpty(t *testing.T) {
	idx := newFakeIndex().
		withFilter("rice", "3", "4").
		withFilter("kale", "8")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"unobtainium", "rice", "kale"})

	assert.ErrorIs(t, err, perrors.ErrNoCommonCandidates)
	assert.Equal(t, []string{"3", "4"}, ids(out.Results))
}

func TestSearchMultiple_EmptyTermForcesEmptyIntersection(t *testing.T) {
	idx := newFakeIndex().
		withFilter("chicken", "1", "2").
		withFilter("rice", "1", "2")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"chicken", "rice", "unobtainium"})

	assert.ErrorIs(t, err, perrors.ErrNoCommonCandidates)
	assert.Empty(t, out.Intersection)
	assert.Equal(t, []string{"1", "2"}, ids(out.Results))
}

func TestSearchMultiple_FilterFailureAbortsSearch(t *testing.T) {
	idx := newFakeIndex().withFilter("chicken", "1")
	idx.filterErr["rice"] = perrors.TransportError("connection refused", nil)
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"chicken", "rice"})

	assert.Nil(t, out)
	assert.ErrorIs(t, err, perrors.ErrTransport)
	assert.Zero(t, idx.lookupCalls.Load())
}

func TestSearchMultiple_LookupFailureAbortsSearch(t *testing.T) {
	idx := newFakeIndex().
		withFilter("chicken", "1").
		withFilter("rice", "1")
	idx.lookupErr = errors.New("timeout")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"chicken", "rice"})

	assert.Nil(t, out)
	assert.True(t, perrors.IsTransport(err))
}

func TestSearchMultiple_CircuitOpenKeepsCode(t *testing.T) {
	idx := newFakeIndex()
	idx.filterErr["chicken"] = perrors.ErrCircuitOpen
	e := newTestEngine(t, idx)

	_, err := e.SearchMultiple(context.Background(), []string{"chicken", "rice"})

	assert.ErrorIs(t, err, perrors.ErrCircuitOpen)
	assert.Empty(t, perrors.ErrCircuitOpen.Details, "shared sentinel must not be mutated")
}

func TestSearchMultiple_AbsentDetailIsUnverified(t *testing.T) {
	idx := newFakeIndex().
		withFilter("chicken", "1", "2").
		withFilter("rice", "1", "2").
		withDetail("2", "chicken thighs", "jasmine rice")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"chicken", "rice"})

	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, out.Verified)
}

func TestSearchMultiple_VerificationWaitsForAllCandidates(t *testing.T) {
	idx := newFakeIndex().
		withFilter("chicken", "1", "2", "3").
		withFilter("rice", "1", "2", "3").
		withFilter("garlic", "1", "2", "3").
		withDetail("1", "chicken", "rice", "garlic").
		withDetail("2", "chicken", "rice", "garlic").
		withDetail("3", "chicken", "rice", "garlic")
	e := newTestEngine(t, idx)

	_, err := e.SearchMultiple(context.Background(), []string{"chicken", "rice", "garlic"})
	require.NoError(t, err)

	require.Len(t, idx.lookupSawFilters, 3)
	for _, seen := range idx.lookupSawFilters {
		assert.Equal(t, int32(3), seen, "lookup started before every filter completed")
	}
}

func TestSearchMultiple_VerifyParallelismIsBounded(t *testing.T) {
	idx := newFakeIndex()
	var all []string
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		all = append(all, id)
		idx.withDetail(id, "chicken", "rice")
	}
	idx.withFilter("chicken", all...).withFilter("rice", all...)
	e := newTestEngine(t, idx, WithConfig(EngineConfig{VerifyParallelism: 3}))

	out, err := e.SearchMultiple(context.Background(), []string{"chicken", "rice"})

	require.NoError(t, err)
	assert.Len(t, out.Verified, 20)
	assert.LessOrEqual(t, idx.maxInFlight.Load(), int32(3))
}

func TestSearchMultiple_DuplicateTermsCollapse(t *testing.T) {
	idx := newFakeIndex().withFilter("chicken", "1", "2")
	e := newTestEngine(t, idx)

	out, err := e.SearchMultiple(context.Background(), []string{"Chicken", "chicken "})

	require.NoError(t, err)
	assert.Equal(t, []string{"chicken"}, out.Terms)
	assert.Equal(t, StageDegenerate, out.Stage)
	assert.Equal(t, int32(1), idx.filterCalls.Load())
}

func TestVerify_BidirectionalContainment(t *testing.T) {
	tests := []struct {
		name        string
		ingredients []string
		terms       []string
		want        bool
	}{
		{"name contains term", []string{"Chicken Breast"}, []string{"chicken"}, true},
		{"term contains name", []string{"Rice"}, []string{"basmati rice"}, true},
		{"no overlap", []string{"Basmati"}, []string{"rice"}, false},
		{"every term must match", []string{"chicken", "garlic"}, []string{"chicken", "rice"}, false},
		{"plural needs literal substring", []string{"Tomato"}, []string{"tomatoes"}, true},
		{"singular term, plural name", []string{"Tomatoes"}, []string{"tomato"}, true},
		{"empty names never match", []string{"", "  "}, []string{"salt"}, false},
		{"no terms is vacuous", []string{"salt"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &recipe.Detail{}
			for _, ing := range tt.ingredients {
				d.Ingredients = append(d.Ingredients, recipe.IngredientLine{Name: ing})
			}
			assert.Equal(t, tt.want, Verify(d, tt.terms))
		})
	}
}

func TestIntersect(t *testing.T) {
	a := newCandidateSet("a", []recipe.Summary{{ID: "3"}, {ID: "1"}, {ID: "2"}})
	b := newCandidateSet("b", []recipe.Summary{{ID: "2"}, {ID: "3"}, {ID: "9"}})
	empty := newCandidateSet("c", nil)

	assert.Equal(t, []string{"3", "2"}, Intersect([]CandidateSet{a, b}))
	assert.Empty(t, Intersect([]CandidateSet{a, b, empty}))
	assert.Nil(t, Intersect(nil))
}

func TestCandidateSet_DropsDuplicateIDs(t *testing.T) {
	cs := newCandidateSet("x", []recipe.Summary{{ID: "1", Name: "first"}, {ID: "1", Name: "second"}})
	assert.Equal(t, 1, cs.Len())
	assert.Equal(t, "first", cs.ByID["1"].Name)
}

func TestEngine_DetailAndRandom(t *testing.T) {
	idx := newFakeIndex().withDetail("52772", "soy sauce")
	e := newTestEngine(t, idx)
	ctx := context.Background()

	d, err := e.Detail(ctx, " 52772 ")
	require.NoError(t, err)
	assert.Equal(t, "52772", d.ID)

	_, err = e.Detail(ctx, "")
	assert.ErrorIs(t, err, perrors.ErrInvalidInput)

	_, err = e.Detail(ctx, "0")
	assert.ErrorIs(t, err, perrors.ErrNoResults)

	_, err = e.Random(ctx)
	assert.ErrorIs(t, err, perrors.ErrNoResults)

	idx.random = idx.details["52772"]
	d, err = e.Random(ctx)
	require.NoError(t, err)
	assert.Equal(t, "52772", d.ID)
}

func TestEngine_BrowsingNeedsCatalog(t *testing.T) {
	e := newTestEngine(t, newFakeIndex())
	ctx := context.Background()

	_, err := e.SearchByName(ctx, "teriyaki")
	assert.ErrorIs(t, err, ErrCatalogUnsupported)
	_, err = e.ByCategory(ctx, "Beef")
	assert.ErrorIs(t, err, ErrCatalogUnsupported)
	_, err = e.Categories(ctx)
	assert.ErrorIs(t, err, ErrCatalogUnsupported)
}
