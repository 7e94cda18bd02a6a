package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/pantry/internal/output"
	"github.com/Aman-CERP/pantry/internal/recipe"
)

func newRecipeCmd() *cobra.Command {
	var showSteps bool

	cmd := &cobra.Command{
		Use:   "recipe <id>",
		Short: "Show a recipe's ingredients, steps and video",
		Example: `  pantry recipe 52772
  pantry recipe 52772 --show-steps=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newWriter(cmd, output.WithSteps(showSteps))
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				sess := a.session()
				return render(out, sess.FetchDetail(ctx, args[0]), sess.IsFavorited)
			})
		},
	}

	cmd.Flags().BoolVar(&showSteps, "show-steps", true, "Include instructions")
	return cmd
}

func newRandomCmd() *cobra.Command {
	var showSteps bool

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random recipe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := newWriter(cmd, output.WithSteps(showSteps))
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				sess := a.session()
				return render(out, sess.FetchRandom(ctx), sess.IsFavorited)
			})
		},
	}

	cmd.Flags().BoolVar(&showSteps, "show-steps", true, "Include instructions")
	return cmd
}

func newNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "name <query>",
		Short:   "Find recipes by name",
		Example: `  pantry name arrabiata`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newWriter(cmd)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				details, err := a.engine.SearchByName(ctx, query)
				if err != nil {
					return err
				}
				return out.Results("recipes named "+query, recipe.Summaries(details), a.favs.IsFavorited)
			})
		},
	}
}

func newCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category [name]",
		Short: "List categories, or the recipes in one",
		Example: `  pantry category
  pantry category Seafood`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newWriter(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if len(args) == 0 {
					cats, err := a.engine.Categories(ctx)
					if err != nil {
						return err
					}
					return out.Categories(cats)
				}
				results, err := a.engine.ByCategory(ctx, args[0])
				if err != nil {
					return err
				}
				return out.Results(args[0]+" recipes", results, a.favs.IsFavorited)
			})
		},
	}
}
