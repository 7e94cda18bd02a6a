package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pantry/internal/telemetry"
)

func newStatsCmd() *cobra.Command {
	var (
		days int
		top  int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show local search statistics",
		Long: `Show statistics recorded by searches on this machine.

Counts searches by the stage that answered them (single, verified,
degenerate, fallback, none, failed), the latency distribution, the most
searched ingredients and recent searches that found no recipes.
Disable recording with telemetry.enabled: false or PANTRY_TELEMETRY=false.`,
		Example: `  pantry stats
  pantry stats --days 30 --top 20
  pantry stats --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, days, top)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Days of history to include")
	cmd.Flags().IntVar(&top, "top", 10, "Number of ingredients and empty searches to list")
	return cmd
}

func runStats(cmd *cobra.Command, days, top int) error {
	if days < 1 {
		return errors.New("--days must be at least 1")
	}
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	out, err := newWriter(cmd)
	if err != nil {
		return err
	}
	if !cfg.Telemetry.IsEnabled() {
		out.Warning("Telemetry is disabled")
		return nil
	}

	store, err := telemetry.OpenSQLite(cfg.Telemetry.Path)
	if err != nil {
		return fmt.Errorf("open statistics: %w", err)
	}
	defer func() { _ = store.Close() }()

	now := time.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	report, err := store.Report(cmd.Context(), since, top)
	if err != nil {
		return err
	}
	return out.Stats(report)
}
