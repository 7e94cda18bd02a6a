package ui

import (
	"context"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/pantry/internal/recipe"
	"github.com/Aman-CERP/pantry/internal/search"
	"github.com/Aman-CERP/pantry/internal/session"
)

type fakeSession struct {
	mu       sync.Mutex
	searched [][]string
	details  []string
	toggled  []string
	randoms  int
	cleared  int
	favs     map[string]bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{favs: map[string]bool{}}
}

func (f *fakeSession) Search(_ context.Context, set *search.IngredientSet, _ string) session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, set.Terms())
	return session.Snapshot{}
}

func (f *fakeSession) FetchDetail(_ context.Context, id string) session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details = append(f.details, id)
	return session.Snapshot{}
}

func (f *fakeSession) FetchRandom(context.Context) session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.randoms++
	return session.Snapshot{}
}

func (f *fakeSession) ToggleFavorite(_ context.Context, id string) (bool, session.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggled = append(f.toggled, id)
	f.favs[id] = !f.favs[id]
	return f.favs[id], session.Snapshot{}
}

func (f *fakeSession) IsFavorited(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favs[id]
}

func (f *fakeSession) ClearSelection() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return session.Snapshot{}
}

func (f *fakeSession) Snapshot() session.Snapshot { return session.Snapshot{SessionID: "test"} }

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send applies msg and runs any coordinator command it returns.
func send(t *testing.T, m *Picker, msg tea.Msg) tea.Cmd {
	t.Helper()
	_, cmd := m.Update(msg)
	return cmd
}

func runOp(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	assert.Equal(t, opDoneMsg{}, cmd())
}

func typeText(m *Picker, text string) {
	m.input.SetValue(text)
}

func newTestPicker() (*Picker, *fakeSession) {
	sess := newFakeSession()
	return NewPicker(context.Background(), sess, NoColorStyles()), sess
}

func TestPicker_EnterAddsTermsThenSearches(t *testing.T) {
	// Given: a picker with two ingredients typed in
	m, sess := newTestPicker()
	typeText(m, "Chicken, rice")
	assert.Nil(t, send(t, m, key("enter")))
	typeText(m, "chicken")
	send(t, m, key("enter"))

	// Then: chips are deduplicated and normalized
	assert.Equal(t, []string{"chicken", "rice"}, m.set.Terms())
	assert.Empty(t, m.input.Value())

	// When: enter on an empty input
	runOp(t, send(t, m, key("enter")))

	// Then: the set is searched
	assert.Equal(t, [][]string{{"chicken", "rice"}}, sess.searched)
}

func TestPicker_BackspaceOnEmptyInputRemovesLastChip(t *testing.T) {
	m, _ := newTestPicker()
	typeText(m, "egg,flour")
	send(t, m, key("enter"))

	send(t, m, key("backspace"))

	assert.Equal(t, []string{"egg"}, m.set.Terms())
}

func TestPicker_SpinnerFollowsLoading(t *testing.T) {
	m, _ := newTestPicker()

	// Idle to busy starts the spinner.
	cmd := send(t, m, snapshotMsg{Loading: true})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Loading...")

	// Ticks keep going while busy.
	assert.NotNil(t, send(t, m, spinner.TickMsg{}))

	// Busy to idle stops it.
	assert.Nil(t, send(t, m, snapshotMsg{Results: []recipe.Summary{{ID: "1", Name: "Stew"}}}))
	assert.Nil(t, send(t, m, spinner.TickMsg{}))
	assert.NotContains(t, m.View(), "Loading...")
	assert.Contains(t, m.View(), "Stew")
}

func TestPicker_IgnoresOlderSnapshot(t *testing.T) {
	m, _ := newTestPicker()
	send(t, m, snapshotMsg{Seq: 4, Results: []recipe.Summary{{ID: "2", Name: "Pilaf"}}})

	// A busy snapshot from before the results arrives late.
	assert.Nil(t, send(t, m, snapshotMsg{Seq: 3, Loading: true}))

	assert.NotContains(t, m.View(), "Loading...")
	assert.Contains(t, m.View(), "Pilaf")
}

func TestPicker_ResultsNavigationAndDetail(t *testing.T) {
	m, sess := newTestPicker()
	send(t, m, snapshotMsg{Results: []recipe.Summary{{ID: "1", Name: "Stew"}, {ID: "2", Name: "Pilaf"}}})

	send(t, m, key("tab"))
	send(t, m, key("down"))
	send(t, m, key("down"))
	assert.Equal(t, 1, m.cursor, "cursor stops at the last row")

	runOp(t, send(t, m, key("enter")))
	assert.Equal(t, []string{"2"}, sess.details)
}

func TestPicker_FavoriteToggleAndMarker(t *testing.T) {
	m, sess := newTestPicker()
	send(t, m, snapshotMsg{Results: []recipe.Summary{{ID: "7", Name: "Curry"}}})
	send(t, m, key("tab"))

	runOp(t, send(t, m, key("f")))

	assert.Equal(t, []string{"7"}, sess.toggled)
	assert.Contains(t, m.View(), "Curry ♥")
}

func TestPicker_DetailViewAndEscClears(t *testing.T) {
	m, sess := newTestPicker()
	detail := &recipe.Detail{
		Summary:      recipe.Summary{ID: "9", Name: "Shakshuka"},
		Category:     "Vegetarian",
		Ingredients:  []recipe.IngredientLine{{Name: "Eggs", Measure: "4"}},
		Instructions: "Fry onions.\r\nAdd eggs.",
	}
	send(t, m, snapshotMsg{Selected: detail})
	send(t, m, key("tab"))

	view := m.View()
	assert.Contains(t, view, "Shakshuka")
	assert.Contains(t, view, "4 Eggs")
	assert.Contains(t, view, "Vegetarian")

	// f toggles the selected recipe, not the list row.
	runOp(t, send(t, m, key("f")))
	assert.Equal(t, []string{"9"}, sess.toggled)

	runOp(t, send(t, m, key("esc")))
	assert.Equal(t, 1, sess.cleared)
}

func TestPicker_RandomFromAnyFocus(t *testing.T) {
	m, sess := newTestPicker()
	runOp(t, send(t, m, key("ctrl+r")))
	send(t, m, key("tab"))
	runOp(t, send(t, m, key("ctrl+r")))

	assert.Equal(t, 2, sess.randoms)
}

func TestPicker_MessagesShown(t *testing.T) {
	m, _ := newTestPicker()

	send(t, m, snapshotMsg{Warning: "No recipes found with ALL 2 ingredients."})
	assert.Contains(t, m.View(), "No recipes found with ALL 2 ingredients.")

	send(t, m, snapshotMsg{Error: session.MsgConnection})
	assert.Contains(t, m.View(), session.MsgConnection)
}

func TestPicker_EscQuitsFromInput(t *testing.T) {
	m, _ := newTestPicker()

	cmd := send(t, m, key("esc"))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}

func TestBridge_DropsWhenDetached(t *testing.T) {
	b := NewBridge()
	assert.NotPanics(t, func() { b.Observe(session.Snapshot{}) })
}
