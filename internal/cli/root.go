package cli

import (
	"github.com/spf13/cobra"
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rapidfire",
		Short: "Real-time rapid fire match server",
	}
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewCreateCmd())
	cmd.AddCommand(NewHistoryCmd())
	return cmd
}
