package main

import (
	"go.uber.org/zap"

	"github.com/codeclash-vn/rapidfire/internal/cli"
	"github.com/codeclash-vn/rapidfire/pkg/logging"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Fatal("Rapid fire server exited: ", zap.Error(err))
	}
}
