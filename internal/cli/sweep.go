package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeclash-vn/rapidfire/internal/app/server"
)

// NewSweepCmd builds the one-shot reconciliation subcommand for operators:
// it settles matches left ongoing past their deadline and exits.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Settle matches stranded in the ongoing state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.NewConfig()
			settled, err := runSweep(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Printf("settled %d stranded matches\n", settled)
			return nil
		},
	}
}
