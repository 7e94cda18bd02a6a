package cmd

import (
	"context"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pantry/internal/config"
	"github.com/Aman-CERP/pantry/internal/logging"
	"github.com/Aman-CERP/pantry/internal/ui"
)

type logsOptions struct {
	follow    bool
	lines     int
	level     string
	filter    string
	sessionID string
	logFile   string
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View pantry logs",
		Long: `View and tail the pantry log file.

By default, shows the last 50 entries. Use -f to follow new entries.
Every coordinator call logs its session_id; --session narrows the view
to one picker run or one MCP tool call.`,
		Example: `  pantry logs
  pantry logs -n 100 --level warn
  pantry logs -f --filter search_multiple
  pantry logs --session 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
		Annotations: map[string]string{annotationNoSetup: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only lines matching this regular expression")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "Only entries from this session id")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Log file path (default: configured or ~/.pantry/logs/pantry.log)")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	explicit := opts.logFile
	if explicit == "" {
		if cfg, err := config.Load(configDir); err == nil {
			explicit = cfg.Logging.File
		}
	}
	path, err := logging.FindLogFile(explicit)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:     opts.level,
		Pattern:   pattern,
		SessionID: opts.sessionID,
		NoColor:   noColorFlag || !ui.ColorEnabled(out),
	}, out)

	errOut := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(errOut, "Log file: %s\n", path)

	if !opts.follow {
		entries, err := viewer.Tail(path, opts.lines)
		if err != nil {
			return err
		}
		viewer.Print(entries)
		return nil
	}

	_, _ = fmt.Fprintln(errOut, "Following... (Ctrl+C to stop)")
	return follow(cmd.Context(), viewer, path, func(line string) {
		_, _ = fmt.Fprintln(out, line)
	})
}

// follow prints formatted entries until ctx is done or the viewer fails.
func follow(ctx context.Context, viewer *logging.Viewer, path string, emit func(string)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)
	go func() {
		errCh <- viewer.Follow(ctx, path, entries)
	}()

	for {
		select {
		case entry := <-entries:
			emit(viewer.FormatEntry(entry))
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
