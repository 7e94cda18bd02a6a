package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pantry/internal/output"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite recipes",
		Long: `Manage favorite recipes.

Favorites are stored according to the favorites section of the
configuration: a SQLite database (default) or a JSON file under ~/.pantry.`,
		Example: `  pantry favorites list
  pantry favorites toggle 52772
  pantry favorites check 52772`,
	}

	cmd.AddCommand(newFavoritesListCmd())
	cmd.AddCommand(newFavoritesToggleCmd())
	cmd.AddCommand(newFavoritesCheckCmd())

	return cmd
}

func newFavoritesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorite recipe ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := newWriter(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(_ context.Context, a *app) error {
				return out.IDs("favorites", a.favs.IDs())
			})
		},
	}
}

// favoriteState is the JSON shape of toggle and check.
type favoriteState struct {
	ID        string `json:"id"`
	Favorited bool   `json:"favorited"`
}

func newFavoritesToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Add a recipe to favorites, or remove it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newWriter(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				on, snap := a.session().ToggleFavorite(ctx, args[0])
				if snap.Error != "" {
					return render(out, snap, nil)
				}
				if out.Format() == output.FormatJSON {
					return out.Value(favoriteState{ID: args[0], Favorited: on})
				}
				if on {
					out.Success(fmt.Sprintf("Added %s to favorites", args[0]))
				} else {
					out.Success(fmt.Sprintf("Removed %s from favorites", args[0]))
				}
				return nil
			})
		},
	}
}

func newFavoritesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Report whether a recipe is a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newWriter(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(_ context.Context, a *app) error {
				on := a.favs.IsFavorited(args[0])
				if out.Format() == output.FormatJSON {
					return out.Value(favoriteState{ID: args[0], Favorited: on})
				}
				if on {
					return out.Value(args[0] + " is a favorite")
				}
				return out.Value(args[0] + " is not a favorite")
			})
		},
	}
}
