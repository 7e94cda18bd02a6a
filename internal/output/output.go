// Package output renders pantry results for the CLI as styled text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/pantry/internal/recipe"
	"github.com/Aman-CERP/pantry/internal/session"
	"github.com/Aman-CERP/pantry/internal/ui"
)

// Format selects the rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (use text or json)", s)
	}
}

// Writer renders results. Write errors are ignored for console output.
type Writer struct {
	out       io.Writer
	format    Format
	styles    ui.Styles
	showSteps bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithFormat sets the output format.
func WithFormat(f Format) Option {
	return func(w *Writer) { w.format = f }
}

// WithColor forces colour on or off.
func WithColor(on bool) Option {
	return func(w *Writer) { w.styles = ui.GetStyles(!on) }
}

// WithSteps includes instructions when rendering a recipe.
func WithSteps(on bool) Option {
	return func(w *Writer) { w.showSteps = on }
}

// New creates a Writer. Colour is on only for terminals without NO_COLOR.
func New(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		out:       out,
		format:    FormatText,
		styles:    ui.GetStyles(!ui.ColorEnabled(out)),
		showSteps: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Format returns the writer's format.
func (w *Writer) Format() Format { return w.format }

// Status prints a message with an icon.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status(w.styles.Success.Render("✓"), msg)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.styles.Warning.Render("!"), w.styles.Warning.Render(msg))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.styles.Error.Render("✗"), w.styles.Error.Render(msg))
}

// IsFavorite reports favorite membership for markers.
type IsFavorite func(id string) bool

// Snapshot renders the outcome of a coordinator call: its selected recipe
// if any, otherwise its result list. Error and warning lines come first.
func (w *Writer) Snapshot(snap session.Snapshot, fav IsFavorite) error {
	if w.format == FormatJSON {
		return w.json(snap)
	}

	if snap.Error != "" {
		w.Error(snap.Error)
	}
	if snap.Warning != "" {
		w.Warning(snap.Warning)
	}
	if snap.Selected != nil {
		w.detail(snap.Selected, fav)
		return nil
	}
	if snap.Error == "" {
		w.results(snap.Terms, snap.Results, fav)
	}
	return nil
}

// Results renders a plain list of summaries under a heading.
func (w *Writer) Results(heading string, results []recipe.Summary, fav IsFavorite) error {
	if w.format == FormatJSON {
		return w.json(results)
	}
	w.heading(heading, len(results))
	w.list(results, fav)
	return nil
}

// Detail renders one recipe.
func (w *Writer) Detail(d *recipe.Detail, fav IsFavorite) error {
	if w.format == FormatJSON {
		return w.json(d)
	}
	w.detail(d, fav)
	return nil
}

// Categories renders the category list.
func (w *Writer) Categories(cats []recipe.Category) error {
	if w.format == FormatJSON {
		return w.json(cats)
	}
	w.heading("categories", len(cats))
	for _, c := range cats {
		_, _ = fmt.Fprintf(w.out, "  %s\n", w.styles.Title.Render(c.Name))
	}
	return nil
}

// IDs renders a list of recipe ids, used for favorites.
func (w *Writer) IDs(heading string, ids []string) error {
	if w.format == FormatJSON {
		if ids == nil {
			ids = []string{}
		}
		return w.json(map[string][]string{"ids": ids})
	}
	w.heading(heading, len(ids))
	for _, id := range ids {
		_, _ = fmt.Fprintf(w.out, "  %s\n", id)
	}
	return nil
}

// Value renders an arbitrary value: JSON as is, text via fmt.
func (w *Writer) Value(v any) error {
	if w.format == FormatJSON {
		return w.json(v)
	}
	_, _ = fmt.Fprintln(w.out, v)
	return nil
}

func (w *Writer) results(terms []string, results []recipe.Summary, fav IsFavorite) {
	heading := "recipes"
	if len(terms) > 0 {
		heading = "recipes with " + strings.Join(terms, ", ")
	}
	w.heading(heading, len(results))
	w.list(results, fav)
}

func (w *Writer) heading(title string, n int) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n",
		w.styles.Header.Render(title),
		w.styles.Label.Render(fmt.Sprintf("(%d)", n)))
}

func (w *Writer) list(results []recipe.Summary, fav IsFavorite) {
	for _, r := range results {
		_, _ = fmt.Fprintf(w.out, "  %s  %s%s\n",
			w.styles.Dim.Render(fmt.Sprintf("%-6s", r.ID)),
			w.styles.Title.Render(r.Name),
			w.favMarker(r.ID, fav))
	}
}

func (w *Writer) detail(d *recipe.Detail, fav IsFavorite) {
	s := w.styles
	_, _ = fmt.Fprintf(w.out, "%s%s  %s\n", s.Title.Render(d.Name), w.favMarker(d.ID, fav), s.Dim.Render("#"+d.ID))

	var meta []string
	for _, v := range []string{d.Category, d.Area} {
		if v != "" {
			meta = append(meta, v)
		}
	}
	meta = append(meta, d.Tags...)
	if len(meta) > 0 {
		_, _ = fmt.Fprintf(w.out, "%s\n", s.Label.Render(strings.Join(meta, " · ")))
	}

	_, _ = fmt.Fprintf(w.out, "\n%s\n", s.Header.Render("Ingredients"))
	for _, line := range d.Ingredients {
		_, _ = fmt.Fprintf(w.out, "  • %s\n", line.String())
	}

	if steps := d.Steps(); w.showSteps && len(steps) > 0 {
		_, _ = fmt.Fprintf(w.out, "\n%s\n", s.Header.Render("Steps"))
		for i, step := range steps {
			_, _ = fmt.Fprintf(w.out, "  %d. %s\n", i+1, step)
		}
	}

	if d.VideoURL != "" {
		_, _ = fmt.Fprintf(w.out, "\n%s %s\n", s.Label.Render("Video:"), d.VideoURL)
	}
	if d.SourceURL != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", s.Label.Render("Source:"), d.SourceURL)
	}
}

func (w *Writer) favMarker(id string, fav IsFavorite) string {
	if fav != nil && fav(id) {
		return " " + w.styles.Favorite.Render("♥")
	}
	return ""
}

func (w *Writer) json(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
