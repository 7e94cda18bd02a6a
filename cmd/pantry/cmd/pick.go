package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pantry/internal/session"
	"github.com/Aman-CERP/pantry/internal/ui"
)

func newPickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Pick ingredients interactively",
		Long: `Pick ingredients interactively.

Type an ingredient and press enter to add it, enter again on an empty
input to search. Tab moves between the input and the results; enter on a
result opens it, f toggles it as a favorite, ctrl+r shows a random recipe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !ui.Interactive(cmd.InOrStdin(), cmd.OutOrStdout()) {
				return errors.New("pick needs an interactive terminal; use 'pantry search' instead")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				bridge := ui.NewBridge()
				sess := a.session(session.WithObserver(bridge.Observe))
				slog.Info("picker_started", slog.String("session_id", sess.Snapshot().SessionID))

				styles := ui.GetStyles(noColorFlag || !ui.ColorEnabled(cmd.OutOrStdout()))
				return ui.RunPicker(ctx, sess, bridge, styles)
			})
		},
	}
}
