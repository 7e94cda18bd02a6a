package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pantry/internal/config"
	"github.com/Aman-CERP/pantry/internal/output"
	"github.com/Aman-CERP/pantry/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, storage and the recipe index",
		Long: `Run diagnostics to ensure pantry can operate correctly.

Checks:
  - Configuration loads and validates
  - Favorites and log directories are writable
  - The favorites store opens and parses
  - The file descriptor limit covers the verification pool
  - The recipe index answers (skipped with --offline)

An unreachable index is a warning; the other failures are fatal.`,
		Example: `  pantry doctor
  pantry doctor --verbose
  pantry doctor --offline --format json`,
		Annotations: map[string]string{annotationNoSetup: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, verbose, offline)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the recipe index probe")

	return cmd
}

func runDoctor(cmd *cobra.Command, verbose, offline bool) error {
	out, err := newWriter(cmd)
	if err != nil {
		return err
	}

	checker := preflight.New(
		preflight.WithOutput(cmd.OutOrStdout()),
		preflight.WithVerbose(verbose),
		preflight.WithOffline(offline),
	)

	var results []preflight.CheckResult
	cfg, loadErr := config.Load(configDir)
	if loadErr != nil {
		// Keep checking the rest against defaults.
		results = append(results, preflight.CheckResult{
			Name:     "config",
			Status:   preflight.StatusFail,
			Message:  loadErr.Error(),
			Required: true,
		})
		cfg = config.NewConfig()
	}

	client, index := newCatalog(cfg, slog.Default())
	defer func() { _ = client.Close() }()

	all := checker.RunAll(cmd.Context(), cfg, index)
	if loadErr != nil {
		// RunAll's first entry validated the defaults.
		all = all[1:]
	}
	results = append(results, all...)

	if out.Format() == output.FormatJSON {
		if err := out.Value(doctorReport{Status: checker.SummaryStatus(results), Checks: results}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return errReported
	}
	return nil
}

type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}
