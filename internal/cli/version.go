package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/version"
)

// NewVersionCmd prints the compiled version details.
func NewVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show errcoach version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version.Version)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the semantic version")
	return cmd
}
