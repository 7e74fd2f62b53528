package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nft-bridge/internal/app"
	"nft-bridge/internal/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bridge-server",
	Short: "NFT bridge API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := app.NewLogger()
		logger.Info("🚀 Starting NFT bridge server...")

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := app.RunServer(ctx, cfg, logger); err != nil {
			return err
		}
		logger.Info("✅ Graceful shutdown completed")
		return nil
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default config.local.yaml, then config.yaml)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
