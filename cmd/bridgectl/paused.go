package main

import (
	"context"
	"fmt"

	"nft-bridge/internal/app"
	"nft-bridge/internal/contracts"

	"github.com/spf13/cobra"
)

var pausedChain string

var pausedCmd = &cobra.Command{
	Use:   "paused",
	Short: "Read the bridge contract's pause flag",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *app.ServiceContainer) error {
			chain, ok := c.Registry.Descriptor(pausedChain)
			if !ok {
				return fmt.Errorf("unknown chain %q", pausedChain)
			}
			if chain.BridgeContract == nil {
				return fmt.Errorf("bridge contract not configured on %s", pausedChain)
			}
			client, ok := c.ChainClients[pausedChain]
			if !ok {
				return fmt.Errorf("no rpc client for %s", pausedChain)
			}

			values, err := client.CallContract(ctx, *chain.BridgeContract, contracts.BridgeABI(), contracts.MethodPaused)
			if err != nil {
				return fmt.Errorf("paused() failed: %w", err)
			}
			if len(values) == 0 {
				return fmt.Errorf("paused() returned nothing")
			}
			paused, _ := values[0].(bool)
			fmt.Printf("%s bridge %s paused: %t\n", chain.Label, chain.BridgeContract.Hex(), paused)
			return nil
		})
	},
}

func init() {
	pausedCmd.Flags().StringVar(&pausedChain, "chain", "base", "chain key")
}
