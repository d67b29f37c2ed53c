package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewCategoryCommand creates the category command group.
func NewCategoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "List and manage categories",
	}
	cmd.AddCommand(
		newCategoryListCommand(rootOpts),
		newCategoryAddCommand(rootOpts),
		newCategoryRenameCommand(rootOpts),
		newCategoryDeleteCommand(rootOpts),
	)
	return cmd
}

func newCategoryListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			categories, err := a.picker.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, cat := range categories {
				marker := ""
				if cat.IsDefault() {
					marker = " (default)"
				}
				fmt.Fprintf(out, "%d\t%s\t%s%s\n", cat.ID, cat.Color, cat.Name, marker)
			}
			return nil
		},
	}
}

func newCategoryAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category with a random color",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			category, err := a.cats.CreateCategory(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created category %d %q\n", category.ID, category.Name)
			return nil
		},
	}
}

func newCategoryRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			category, err := a.cats.RenameCategory(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "category %d is now %q\n", category.ID, category.Name)
			return nil
		},
	}
}

func newCategoryDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category, moving its notes to the default category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if !yes {
				plan, err := a.cats.PlanDeleteCategory(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "deleting %q moves %d note(s) to the default category; re-run with --yes to confirm\n",
					plan.Category.Name, plan.AffectedNotes)
				return nil
			}

			moved, err := a.cats.DeleteCategory(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "deleted category %d, moved %d note(s)\n", id, moved)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}
