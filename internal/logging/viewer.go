package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
)

// LogEntry is one parsed JSON log line.
type LogEntry struct {
	Time      time.Time
	Level     string
	Msg       string
	SessionID string
	Attrs     map[string]any
	Raw       string
	IsValid   bool
}

// ViewerConfig filters and formats entries.
type ViewerConfig struct {
	Level     string         // minimum level
	Pattern   *regexp.Regexp // matched against the raw line
	SessionID string         // only entries from this coordinator session
	NoColor   bool
}

// Viewer reads pantry log files back for display.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
	levels map[string]lipgloss.Style
	dim    lipgloss.Style
}

// NewViewer creates a viewer writing formatted entries to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	v := &Viewer{config: cfg, out: out, levels: map[string]lipgloss.Style{}, dim: lipgloss.NewStyle()}
	if !cfg.NoColor {
		v.levels["debug"] = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
		v.levels["info"] = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
		v.levels["warn"] = lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308"))
		v.levels["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
		v.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	}
	return v
}

const maxLineBytes = 1024 * 1024

// Tail returns the matching entries among the last n lines of path.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Ring of the last n lines.
	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if n > 0 && len(lines) == n {
			lines = lines[1:]
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []LogEntry
	for _, line := range lines {
		if entry := v.parseLine(line); v.matches(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Follow sends entries appended to path until ctx is done. Growth is
// observed through fsnotify; rotation reopens the new file from its start.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)

	var pending string
	drain := func() bool {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				// Partial line; completed by a later write.
				pending += line
				return true
			}
			line, pending = pending+line, ""
			entry := v.parseLine(strings.TrimSuffix(line, "\n"))
			if entry.Raw == "" || !v.matches(entry) {
				continue
			}
			select {
			case entries <- entry:
			case <-ctx.Done():
				return false
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("log watcher: %w", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Has(fsnotify.Write):
				if !drain() {
					return nil
				}
			case event.Has(fsnotify.Rename), event.Has(fsnotify.Remove):
				if !drain() {
					return nil
				}
				reopened, err := v.reopen(ctx, watcher, path)
				if err != nil {
					return err
				}
				if reopened == nil {
					return nil
				}
				_ = file.Close()
				file = reopened
				reader = bufio.NewReaderSize(file, 64*1024)
				pending = ""
			}
		}
	}
}

// reopen waits for the writer to recreate path after rotation.
func (v *Viewer) reopen(ctx context.Context, watcher *fsnotify.Watcher, path string) (*os.File, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if f, err := os.Open(path); err == nil {
			_ = watcher.Add(path)
			return f, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil
		case <-ticker.C:
		}
	}
}

// FormatEntry renders an entry as "15:04:05.000 LEVEL msg k=v ...".
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]string, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, fmt.Sprintf("%s=%v", k, entry.Attrs[k]))
	}

	var b strings.Builder
	b.WriteString(v.dim.Render(entry.Time.Format("15:04:05.000")))
	b.WriteByte(' ')
	b.WriteString(v.formatLevel(entry.Level))
	b.WriteByte(' ')
	b.WriteString(entry.Msg)
	if len(attrs) > 0 {
		b.WriteByte(' ')
		b.WriteString(v.dim.Render(strings.Join(attrs, " ")))
	}
	return b.String()
}

// Print writes entries to the viewer's output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

func (v *Viewer) parseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return entry
	}
	entry.IsValid = true

	if t, ok := data["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			entry.Time = parsed
		}
	}
	entry.Level, _ = data["level"].(string)
	entry.Msg, _ = data["msg"].(string)
	entry.SessionID, _ = data["session_id"].(string)

	entry.Attrs = make(map[string]any, len(data))
	for k, val := range data {
		switch k {
		case "time", "level", "msg":
		default:
			entry.Attrs[k] = val
		}
	}
	return entry
}

func (v *Viewer) matches(entry LogEntry) bool {
	if v.config.Level != "" && entry.IsValid {
		if LevelFromString(entry.Level) < LevelFromString(v.config.Level) {
			return false
		}
	}
	if v.config.SessionID != "" && entry.SessionID != v.config.SessionID {
		return false
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(entry.Raw) {
		return false
	}
	return true
}

func (v *Viewer) formatLevel(level string) string {
	label := strings.ToUpper(level)
	if len(label) > 5 {
		label = label[:5]
	}
	label = fmt.Sprintf("%-5s", label)

	style, ok := v.levels[strings.ToLower(level)]
	if !ok {
		return label
	}
	return style.Render(label)
}
