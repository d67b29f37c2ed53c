package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewDigestCommand creates the command printing the to-do digest.
func NewDigestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print open to-dos grouped by due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			digest, err := a.digest.Build(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest.Plain())
			return nil
		},
	}
}
