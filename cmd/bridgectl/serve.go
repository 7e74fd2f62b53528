package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"nft-bridge/internal/app"
	"nft-bridge/internal/config"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := app.NewLogger()
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return app.RunServer(ctx, cfg, logger)
	},
}
