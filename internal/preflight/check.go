package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Aman-CERP/pantry/internal/config"
	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/favorites"
	"github.com/Aman-CERP/pantry/internal/logging"
	"github.com/Aman-CERP/pantry/internal/recipe"
)

// CheckStatus is the outcome of one check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText parses a name written by MarshalText.
func (s *CheckStatus) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "PASS":
		*s = StatusPass
	case "WARN":
		*s = StatusWarn
	case "FAIL":
		*s = StatusFail
	default:
		return fmt.Errorf("unknown check status %q", text)
	}
	return nil
}

// CheckResult holds the result of a single check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// DefaultIndexTimeout bounds the reachability probe.
const DefaultIndexTimeout = 5 * time.Second

// Checker performs the doctor checks.
type Checker struct {
	verbose      bool
	offline      bool
	indexTimeout time.Duration
	output       io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints check details under each line.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOffline skips the recipe index probe.
func WithOffline(offline bool) Option {
	return func(c *Checker) {
		c.offline = offline
	}
}

// WithIndexTimeout overrides DefaultIndexTimeout.
func WithIndexTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.indexTimeout = d
		}
	}
}

// WithOutput sets the writer PrintResults uses.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		indexTimeout: DefaultIndexTimeout,
		output:       os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check in display order. index may be nil when the
// graph could not be wired; the probe then fails.
func (c *Checker) RunAll(ctx context.Context, cfg *config.Config, index recipe.Catalog) []CheckResult {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logFile := cfg.Logging.File
	if logFile == "" {
		logFile = logging.DefaultLogPath()
	}

	results := []CheckResult{
		c.CheckConfig(cfg),
		c.CheckWritable("favorites_dir", filepath.Dir(cfg.Favorites.Path), true),
		c.CheckWritable("log_dir", filepath.Dir(logFile), false),
		c.CheckFavorites(ctx, cfg.Favorites.Backend, cfg.Favorites.Path),
		c.CheckFileDescriptors(cfg.Search.VerifyParallelism),
	}
	if !c.offline {
		results = append(results, c.CheckIndex(ctx, index))
	}
	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns "failed", "ready_with_warnings" or "ready".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status != StatusPass {
			hasWarnings = true
		}
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "pantry doctor")
	_, _ = fmt.Fprintln(c.output, "=============")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	var problems []string
	for _, r := range results {
		if r.Status == StatusPass {
			continue
		}
		line := r.Name + ": " + r.Message
		if r.Details != "" {
			line += " (" + r.Details + ")"
		}
		problems = append(problems, line)
	}
	if len(problems) > 0 {
		_, _ = fmt.Fprintln(c.output)
		for _, p := range problems {
			_, _ = fmt.Fprintf(c.output, "  - %s\n", p)
		}
	}
}

// CheckConfig validates the merged configuration.
func (c *Checker) CheckConfig(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "config", Required: true}
	if err := cfg.Validate(); err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		result.Details = "Run 'pantry config show' to inspect the merged values"
		return result
	}
	result.Status = StatusPass
	result.Message = "OK"
	if config.UserConfigExists() {
		result.Details = "user config: " + config.GetUserConfigPath()
	} else {
		result.Details = "no user config, defaults in use"
	}
	return result
}

// CheckWritable creates and removes a probe file in dir, creating dir first.
func (c *Checker) CheckWritable(name, dir string, required bool) CheckResult {
	result := CheckResult{Name: name, Required: required, Details: dir}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = c.failOrWarn(required)
		result.Message = fmt.Sprintf("cannot create directory: %v", err)
		return result
	}
	f, err := os.CreateTemp(dir, ".pantry-doctor-*")
	if err != nil {
		result.Status = c.failOrWarn(required)
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

// CheckFavorites opens the configured store and loads it without saving.
func (c *Checker) CheckFavorites(ctx context.Context, backend, path string) CheckResult {
	result := CheckResult{Name: "favorites", Required: true, Details: backend + ": " + path}

	store, err := favorites.Open(backend, path)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}
	defer func() { _ = store.Close() }()

	ids, err := store.Load(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		if perrors.IsFatal(err) {
			result.Details = "Move the file aside to start with an empty list: " + path
		}
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d saved", len(ids))
	return result
}

// CheckIndex lists categories as a cheap reachability probe. A failure is a
// warning: favorites and config commands still work offline.
func (c *Checker) CheckIndex(ctx context.Context, index recipe.Catalog) CheckResult {
	result := CheckResult{Name: "recipe_index"}
	if index == nil {
		result.Status = StatusWarn
		result.Message = "not configured"
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, c.indexTimeout)
	defer cancel()

	start := time.Now()
	cats, err := index.Categories(ctx)
	if err != nil {
		result.Status = StatusWarn
		result.Message = "unreachable"
		result.Details = err.Error()
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d categories in %s", len(cats), time.Since(start).Round(time.Millisecond))
	return result
}

func (c *Checker) failOrWarn(required bool) CheckStatus {
	if required {
		return StatusFail
	}
	return StatusWarn
}
