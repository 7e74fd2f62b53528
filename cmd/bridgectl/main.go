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

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "bridgectl",
	Short:        "Operator CLI for the NFT bridge",
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.local.yaml, then config.yaml)")
	rootCmd.AddCommand(inventoryCmd, pausedCmd, bridgeCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withContainer loads config, builds the container and runs fn with an interruptible context
func withContainer(fn func(ctx context.Context, c *app.ServiceContainer) error) error {
	logger := app.NewLogger()
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.NewServiceContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(ctx, container)
}
