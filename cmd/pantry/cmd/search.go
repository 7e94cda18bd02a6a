package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pantry/internal/output"
	"github.com/Aman-CERP/pantry/internal/search"
	"github.com/Aman-CERP/pantry/internal/session"
)

// errReported marks a failure whose message was already rendered.
var errReported = errors.New("reported")

// searchOptions holds CLI flags for search.
type searchOptions struct {
	open      int  // 1-based result to open after searching
	showSteps bool // include instructions when opening a result
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <ingredient>[,<ingredient>...]",
		Short: "Find recipes that use all of the given ingredients",
		Long: `Find recipes that use all of the given ingredients.

With one ingredient every recipe containing it is listed. With several,
each is looked up concurrently, the results are intersected, and every
recipe in the intersection is checked against its full ingredient list.
If no recipe has all of them, the first ingredient's recipes are shown
with a warning.

Ingredients may be comma separated or given as separate arguments.`,
		Example: `  pantry search chicken
  pantry search chicken,rice,garlic
  pantry search "soy sauce" ginger --open 1
  pantry search beef --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, ","), opts)
		},
	}

	cmd.Flags().IntVar(&opts.open, "open", 0, "Show the details of the n-th result")
	cmd.Flags().BoolVar(&opts.showSteps, "show-steps", true, "Include instructions when opening a result")

	return cmd
}

func runSearch(cmd *cobra.Command, raw string, opts searchOptions) error {
	out, err := newWriter(cmd, output.WithSteps(opts.showSteps))
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		set := search.ParseTerms(raw)
		slog.Info("search_started", slog.String("terms", set.String()))

		sess := a.session()
		snap := sess.Search(ctx, set, raw)

		if opts.open > 0 && snap.Error == "" {
			if opts.open > len(snap.Results) {
				return fmt.Errorf("--open %d: only %d results", opts.open, len(snap.Results))
			}
			if snap.Warning != "" && out.Format() == output.FormatText {
				out.Warning(snap.Warning)
			}
			snap = sess.FetchDetail(ctx, snap.Results[opts.open-1].ID)
		}

		return render(out, snap, sess.IsFavorited)
	})
}

// render writes a coordinator snapshot and turns its error message into
// a non-zero exit.
func render(out *output.Writer, snap session.Snapshot, fav output.IsFavorite) error {
	if err := out.Snapshot(snap, fav); err != nil {
		return err
	}
	if snap.Error != "" {
		return errReported
	}
	return nil
}
