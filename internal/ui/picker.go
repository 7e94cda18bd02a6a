package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Aman-CERP/pantry/internal/recipe"
	"github.com/Aman-CERP/pantry/internal/search"
	"github.com/Aman-CERP/pantry/internal/session"
)

// Session is the part of the coordinator the picker drives.
type Session interface {
	Search(ctx context.Context, set *search.IngredientSet, raw string) session.Snapshot
	FetchDetail(ctx context.Context, id string) session.Snapshot
	FetchRandom(ctx context.Context) session.Snapshot
	ToggleFavorite(ctx context.Context, id string) (bool, session.Snapshot)
	IsFavorited(id string) bool
	ClearSelection() session.Snapshot
	Snapshot() session.Snapshot
}

// Bridge forwards coordinator snapshots into a running picker. Pass
// Bridge.Observe to session.WithObserver before the picker starts.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewBridge returns an unattached bridge; snapshots are dropped until RunPicker attaches it.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Observe implements session.Observer.
func (b *Bridge) Observe(snap session.Snapshot) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		p.Send(snapshotMsg(snap))
	}
}

func (b *Bridge) attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

// RunPicker runs the interactive picker until the user quits or ctx ends.
func RunPicker(ctx context.Context, sess Session, bridge *Bridge, styles Styles, opts ...tea.ProgramOption) error {
	m := NewPicker(ctx, sess, styles)
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)...)
	bridge.attach(p)
	defer bridge.attach(nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type focusArea int

const (
	focusInput focusArea = iota
	focusResults
)

type snapshotMsg session.Snapshot

// opDoneMsg ends a coordinator call. State arrives through the bridge.
type opDoneMsg struct{}

// Picker is the bubbletea model: an ingredient chip list, a text input,
// the result list and the selected recipe. The spinner runs while the
// coordinator reports Loading.
type Picker struct {
	ctx    context.Context
	sess   Session
	set    *search.IngredientSet
	input  textinput.Model
	spin   spinner.Model
	snap   session.Snapshot
	cursor int
	focus  focusArea
	styles Styles
	width  int
	quit   bool
}

// NewPicker builds the model.
func NewPicker(ctx context.Context, sess Session, styles Styles) *Picker {
	in := textinput.New()
	in.Placeholder = "add an ingredient (comma separates several)"
	in.Prompt = "> "
	in.CharLimit = 120
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Active

	return &Picker{
		ctx:    ctx,
		sess:   sess,
		set:    search.NewIngredientSet(),
		input:  in,
		spin:   sp,
		snap:   sess.Snapshot(),
		styles: styles,
		width:  80,
	}
}

// Init implements tea.Model.
func (m *Picker) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-4)
		return m, nil

	case snapshotMsg:
		if msg.Seq < m.snap.Seq {
			return m, nil
		}
		wasLoading := m.snap.Loading
		m.snap = session.Snapshot(msg)
		if m.cursor >= len(m.snap.Results) {
			m.cursor = max(0, len(m.snap.Results)-1)
		}
		if m.snap.Loading && !wasLoading {
			return m, m.spin.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snap.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case opDoneMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Picker) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quit = true
		return m, tea.Quit
	case "ctrl+r":
		return m, m.run(func(ctx context.Context) { m.sess.FetchRandom(ctx) })
	case "tab":
		m.toggleFocus()
		return m, nil
	}

	if m.focus == focusResults {
		return m.handleResultsKey(msg)
	}

	switch msg.String() {
	case "esc":
		m.quit = true
		return m, tea.Quit
	case "enter":
		raw := strings.TrimSpace(m.input.Value())
		if raw != "" {
			for _, t := range search.ParseTerms(raw).Terms() {
				m.set.Add(t)
			}
			m.input.SetValue("")
			return m, nil
		}
		set := search.NewIngredientSet(m.set.Terms()...)
		return m, m.run(func(ctx context.Context) { m.sess.Search(ctx, set, "") })
	case "backspace":
		if m.input.Value() == "" {
			if terms := m.set.Terms(); len(terms) > 0 {
				m.set.Remove(terms[len(terms)-1])
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Picker) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quit = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Results)-1 {
			m.cursor++
		}
	case "enter":
		if id := m.currentID(); id != "" {
			return m, m.run(func(ctx context.Context) { m.sess.FetchDetail(ctx, id) })
		}
	case "f":
		id := m.currentID()
		if m.snap.Selected != nil {
			id = m.snap.Selected.ID
		}
		if id != "" {
			return m, m.run(func(ctx context.Context) { m.sess.ToggleFavorite(ctx, id) })
		}
	case "esc":
		if m.snap.Selected != nil {
			return m, m.run(func(context.Context) { m.sess.ClearSelection() })
		}
		m.toggleFocus()
	}
	return m, nil
}

// run executes a coordinator call off the event loop.
func (m *Picker) run(call func(ctx context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		call(ctx)
		return opDoneMsg{}
	}
}

func (m *Picker) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusResults
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

func (m *Picker) currentID() string {
	if m.cursor < 0 || m.cursor >= len(m.snap.Results) {
		return ""
	}
	return m.snap.Results[m.cursor].ID
}

// View implements tea.Model.
func (m *Picker) View() string {
	if m.quit {
		return ""
	}
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Header.Render("pantry"))
	b.WriteString(s.Dim.Render("  find recipes by what you have"))
	b.WriteString("\n\n")

	if m.set.Len() == 0 {
		b.WriteString(s.Dim.Render("no ingredients yet"))
	} else {
		chips := make([]string, 0, m.set.Len())
		for _, t := range m.set.Terms() {
			chips = append(chips, s.Chip.Render(t))
		}
		b.WriteString(strings.Join(chips, " "))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.snap.Loading:
		b.WriteString(m.spin.View() + " " + s.Label.Render("Loading..."))
		b.WriteString("\n\n")
	case m.snap.Error != "":
		b.WriteString(s.Error.Render(m.snap.Error))
		b.WriteString("\n\n")
	case m.snap.Warning != "":
		b.WriteString(s.Warning.Render(m.snap.Warning))
		b.WriteString("\n\n")
	}

	if m.snap.Selected != nil {
		b.WriteString(m.detailView(m.snap.Selected))
	} else {
		b.WriteString(m.resultsView())
	}

	b.WriteString("\n")
	b.WriteString(s.Dim.Render(m.help()))
	return b.String()
}

func (m *Picker) resultsView() string {
	s := m.styles
	if len(m.snap.Results) == 0 {
		return s.Dim.Render("no results") + "\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Label.Render(fmt.Sprintf("%d recipes", len(m.snap.Results))))
	for i, r := range m.snap.Results {
		marker := "  "
		name := r.Name
		if i == m.cursor && m.focus == focusResults {
			marker = s.Active.Render("> ")
			name = s.Active.Render(name)
		}
		fav := ""
		if m.sess.IsFavorited(r.ID) {
			fav = " " + s.Favorite.Render("♥")
		}
		fmt.Fprintf(&b, "%s%s%s\n", marker, name, fav)
	}
	return b.String()
}

func (m *Picker) detailView(d *recipe.Detail) string {
	s := m.styles
	var b strings.Builder
	title := d.Name
	if m.sess.IsFavorited(d.ID) {
		title += " " + s.Favorite.Render("♥")
	}
	b.WriteString(s.Title.Render(title))
	if meta := strings.Join(nonEmpty(d.Category, d.Area), " · "); meta != "" {
		b.WriteString("  " + s.Label.Render(meta))
	}
	b.WriteString("\n\n")
	for _, line := range d.Ingredients {
		fmt.Fprintf(&b, "• %s\n", line.String())
	}
	if steps := d.Steps(); len(steps) > 0 {
		b.WriteString("\n")
		for i, step := range steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}
	if d.VideoURL != "" {
		b.WriteString("\n" + s.Label.Render("video: ") + d.VideoURL + "\n")
	}
	width := max(20, m.width-2)
	return s.Panel.Width(width).Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

func (m *Picker) help() string {
	if m.focus == focusResults {
		if m.snap.Selected != nil {
			return "f favorite · esc back · ctrl+r random · q quit"
		}
		return "↑/↓ move · enter open · f favorite · tab edit · ctrl+r random · q quit"
	}
	return "enter add / search · backspace remove last · tab results · ctrl+r random · esc quit"
}

func nonEmpty(vals ...string) []string {
	out := vals[:0:0]
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
