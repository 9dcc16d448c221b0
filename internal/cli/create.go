package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeclash-vn/rapidfire/internal/app/server"
	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
)

// NewCreateCmd builds the subcommand that pairs two players into a waiting
// match. Matchmaking normally does this through the same storage layer; the
// command exists for operators and local testing.
func NewCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <player1> <player2>",
		Short: "Pair two players into a new waiting match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == args[1] {
				return fmt.Errorf("a player cannot be paired against themselves")
			}
			cfg := server.NewConfig()
			match := entities.NewMatch(args[0], args[1])
			storageClient := newStorageClient(cmd.Context(), cfg)
			if err := storageClient.PutMatch(cmd.Context(), match); err != nil {
				return err
			}
			fmt.Println(match.MatchId)
			return nil
		},
	}
}
