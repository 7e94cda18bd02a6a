package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/pantry/internal/recipe"
	"github.com/Aman-CERP/pantry/internal/session"
	"github.com/Aman-CERP/pantry/internal/telemetry"
)

func plainWriter(opts ...Option) (*Writer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(buf, append([]Option{WithColor(false)}, opts...)...), buf
}

func sampleDetail() *recipe.Detail {
	return &recipe.Detail{
		Summary:      recipe.Summary{ID: "52772", Name: "Teriyaki Chicken Casserole"},
		Category:     "Chicken",
		Area:         "Japanese",
		Tags:         []string{"Meat", "Casserole"},
		Instructions: "Preheat oven.\r\nCombine soy sauce.\r\n\r\nBake.",
		Ingredients: []recipe.IngredientLine{
			{Name: "soy sauce", Measure: "3/4 cup"},
			{Name: "chicken breasts", Measure: "2"},
		},
		VideoURL: "https://www.youtube.com/watch?v=4aZr5hZXP_s",
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestWriter_StatusLines(t *testing.T) {
	w, buf := plainWriter()

	w.Success("saved")
	w.Warning("careful")
	w.Error("broken")
	w.Status("", "indented")

	assert.Equal(t, "✓ saved\n! careful\n✗ broken\n   indented\n", buf.String())
}

func TestWriter_SnapshotResults(t *testing.T) {
	// Given: a fallback outcome with a warning
	w, buf := plainWriter()
	snap := session.Snapshot{
		Terms:   []string{"chicken", "quinoa"},
		Results: []recipe.Summary{{ID: "1", Name: "Chicken Curry"}, {ID: "2", Name: "Roast Chicken"}},
		Warning: "No recipes found with ALL 2 ingredients. Showing recipes with \"chicken\" instead.",
	}

	// When: rendering with recipe 2 favorited
	require.NoError(t, w.Snapshot(snap, func(id string) bool { return id == "2" }))

	// Then: warning, heading and rows with the marker
	out := buf.String()
	assert.Contains(t, out, "! No recipes found with ALL 2 ingredients.")
	assert.Contains(t, out, "recipes with chicken, quinoa (2)")
	assert.Contains(t, out, "Chicken Curry\n")
	assert.Contains(t, out, "Roast Chicken ♥")
}

func TestWriter_SnapshotErrorHidesEmptyList(t *testing.T) {
	w, buf := plainWriter()

	require.NoError(t, w.Snapshot(session.Snapshot{Error: session.MsgNoCandidates}, nil))

	assert.Equal(t, "✗ "+session.MsgNoCandidates+"\n", buf.String())
}

func TestWriter_DetailText(t *testing.T) {
	w, buf := plainWriter()

	require.NoError(t, w.Detail(sampleDetail(), nil))

	out := buf.String()
	assert.Contains(t, out, "Teriyaki Chicken Casserole  #52772")
	assert.Contains(t, out, "Chicken · Japanese · Meat · Casserole")
	assert.Contains(t, out, "• 3/4 cup soy sauce")
	assert.Contains(t, out, "3. Bake.")
	assert.Contains(t, out, "Video: https://www.youtube.com/watch?v=4aZr5hZXP_s")
}

func TestWriter_DetailWithoutSteps(t *testing.T) {
	w, buf := plainWriter(WithSteps(false))

	require.NoError(t, w.Detail(sampleDetail(), nil))

	assert.NotContains(t, buf.String(), "Steps")
	assert.Contains(t, buf.String(), "Ingredients")
}

func TestWriter_JSON(t *testing.T) {
	w, buf := plainWriter(WithFormat(FormatJSON))
	snap := session.Snapshot{SessionID: "abc", Results: []recipe.Summary{{ID: "1", Name: "Stew"}}}

	require.NoError(t, w.Snapshot(snap, nil))

	var got session.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, snap.Results, got.Results)
	assert.Equal(t, "abc", got.SessionID)
}

func TestWriter_IDsJSONNeverNull(t *testing.T) {
	w, buf := plainWriter(WithFormat(FormatJSON))

	require.NoError(t, w.IDs("favorites", nil))

	assert.JSONEq(t, `{"ids": []}`, buf.String())
}

func TestWriter_Categories(t *testing.T) {
	w, buf := plainWriter()

	require.NoError(t, w.Categories([]recipe.Category{{ID: "1", Name: "Beef"}, {ID: "2", Name: "Dessert"}}))

	assert.Equal(t, "categories (2)\n  Beef\n  Dessert\n", buf.String())
}

func TestWriter_Stats(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, WithColor(false))

	err := w.Stats(&telemetry.Report{
		Since:       "2026-10-13",
		Total:       4,
		Stages:      map[string]int64{"verified": 3, "none": 1},
		TopTerms:    []telemetry.TermCount{{Term: "chicken", Count: 4}},
		ZeroResults: []telemetry.ZeroResult{{Terms: "unobtainium, rice", Timestamp: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)}},
		Latencies:   map[telemetry.LatencyBucket]int64{telemetry.BucketP250: 4},
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "searches since 2026-10-13 (4)")
	assert.Contains(t, out, "verified")
	assert.Contains(t, out, "75%")
	assert.Contains(t, out, "lt250ms")
	assert.Contains(t, out, "chicken")
	assert.Contains(t, out, "2026-10-18 09:30  unobtainium, rice")
}

func TestWriter_StatsEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, WithColor(false))

	require.NoError(t, w.Stats(&telemetry.Report{Since: "2026-10-13"}))
	assert.Contains(t, buf.String(), "nothing recorded yet")
}
