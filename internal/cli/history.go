package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeclash-vn/rapidfire/internal/app/server"
)

// NewHistoryCmd builds the subcommand that lists a player's recent match
// records, newest first.
func NewHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <player>",
		Short: "List a player's recent rapid fire matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.NewConfig()
			storageClient := newStorageClient(cmd.Context(), cfg)
			entries, err := storageClient.FetchMatchHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no matches on record")
				return nil
			}
			for _, entry := range entries {
				fmt.Printf("%s  %s  vs %-20s  score %.2f  rating %+d\n",
					entry.PlayedAt.Format("2006-01-02 15:04"),
					entry.Outcome,
					entry.OpponentId,
					entry.Score,
					entry.RatingChange,
				)
			}
			return nil
		},
	}
}
