package cli

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codeclash-vn/rapidfire/internal/app/server"
	"github.com/codeclash-vn/rapidfire/internal/aws/storage"
	"github.com/codeclash-vn/rapidfire/internal/reconcile"
	"github.com/codeclash-vn/rapidfire/pkg/logging"
)

// NewServeCmd builds the subcommand that runs the match server. A
// reconciliation pass runs first so matches stranded by a previous process
// are settled before new traffic arrives.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the rapid fire match server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.NewConfig()
			if _, err := runSweep(cmd.Context(), cfg); err != nil {
				logging.Error("startup reconciliation failed", zap.Error(err))
			}
			return server.NewServer().Start()
		},
	}
}

func runSweep(ctx context.Context, cfg server.Config) (int, error) {
	reconciler := reconcile.New(
		newStorageClient(ctx, cfg),
		cfg.KFactor,
		time.Minute,
	)
	return reconciler.Run(ctx)
}

func newStorageClient(ctx context.Context, cfg server.Config) *storage.Client {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		panic(err)
	}
	return storage.NewClient(
		dynamodb.NewFromConfig(awsCfg),
		storage.ConfigFromTableNames(
			cfg.MatchesTableName,
			cfg.ProfilesTableName,
			cfg.QuestionsTableName,
		),
	)
}
