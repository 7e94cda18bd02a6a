// Package cmd provides the CLI commands for pantry.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pantry/internal/config"
	perrors "github.com/Aman-CERP/pantry/internal/errors"
	"github.com/Aman-CERP/pantry/internal/logging"
	"github.com/Aman-CERP/pantry/internal/output"
	"github.com/Aman-CERP/pantry/internal/profiling"
	"github.com/Aman-CERP/pantry/pkg/version"
)

// Command annotations read by the root hooks.
const (
	// annotationNoSetup skips config loading and logging setup.
	annotationNoSetup = "pantry/no-setup"
	// annotationServe keeps logging off stdout and stderr.
	annotationServe = "pantry/serve"
)

// Global flags
var (
	debugMode   bool
	formatFlag  string
	configDir   string
	noColorFlag bool
	profileOpts profiling.Options
)

// Per-run state set by the root hooks.
var (
	loadedConfig   *config.Config
	loggingCleanup func()
	profiler       *profiling.Session
)

// NewRootCmd creates the root command for the pantry CLI.
func NewRootCmd() *cobra.Command {
	loadedConfig = nil
	debugMode, noColorFlag = false, false
	formatFlag, configDir = "text", ""
	profileOpts = profiling.Options{}

	cmd := &cobra.Command{
		Use:   "pantry",
		Short: "Find recipes that use what is in your pantry",
		Long: `pantry finds recipes that use all of the ingredients you have.

One ingredient lists every recipe containing it. Several ingredients are
searched concurrently, intersected, and checked against each recipe's full
ingredient list. When no recipe has all of them, pantry falls back to the
first ingredient and says so.

Run 'pantry pick' for the interactive picker, or 'pantry serve' to expose
the same operations to MCP clients.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("pantry version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging (file and stderr)")
	cmd.PersistentFlags().StringVar(&formatFlag, "format", "text", "Output format: text, json")
	cmd.PersistentFlags().StringVar(&configDir, "dir", "", "Directory holding .pantry.yaml (default: current directory)")
	cmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable coloured output")
	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write heap profile to file on exit")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Goroutine, "profile-goroutine", "", "Write goroutine stacks to file on exit")

	cmd.PersistentPreRunE = setup
	cmd.PersistentPostRunE = teardown

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newRecipeCmd())
	cmd.AddCommand(newRandomCmd())
	cmd.AddCommand(newNameCmd())
	cmd.AddCommand(newCategoryCmd())
	cmd.AddCommand(newFavoritesCmd())
	cmd.AddCommand(newPickCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads configuration and starts file logging.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNoSetup] != "" {
		return nil
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	loadedConfig = cfg

	logCfg := logging.Config{
		Level:     cfg.Logging.Level,
		FilePath:  cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}
	if debugMode {
		logCfg.Level = "debug"
		logCfg.WriteToStderr = cmd.Annotations[annotationServe] == ""
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		// An unwritable home must not break the CLI.
		slog.SetDefault(logging.Discard())
		if debugMode {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: file logging disabled: %v\n", err)
		}
	} else {
		loggingCleanup = cleanup
	}
	slog.Debug("command_started", slog.String("command", cmd.CommandPath()))

	if profileOpts.Enabled() {
		profiler, err = profiling.Start(profileOpts, slog.Default())
		if err != nil {
			return err
		}
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}
	if loggingCleanup != nil {
		slog.Debug("command_finished", slog.String("command", cmd.CommandPath()))
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// currentConfig returns the configuration loaded by setup, loading it
// directly for commands that skipped setup.
func currentConfig() (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	return config.Load(configDir)
}

// newWriter builds the output writer for the global format and colour flags.
func newWriter(cmd *cobra.Command, opts ...output.Option) (*output.Writer, error) {
	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return nil, err
	}
	base := []output.Option{output.WithFormat(format)}
	if noColorFlag {
		base = append(base, output.WithColor(false))
	}
	return output.New(cmd.OutOrStdout(), append(base, opts...)...), nil
}

// withApp wires the application graph, runs fn and closes the graph.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(cmd.Context(), a)
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	// Post-run hooks are skipped when a command fails.
	_ = teardown(root, nil)
	if err != nil && !errors.Is(err, errReported) {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), formatError(err))
	}
	return err
}

func formatError(err error) string {
	return strings.TrimRight(perrors.FormatForCLI(err), "\n")
}
