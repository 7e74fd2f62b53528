package main

import (
	"context"
	"fmt"
	"strings"

	"nft-bridge/internal/app"
	"nft-bridge/internal/models"
	"nft-bridge/internal/services"
	"nft-bridge/internal/utils"

	"github.com/spf13/cobra"
)

var (
	bridgeFrom   string
	bridgeTokens []string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Bridge tokens to the other chain and wait for confirmation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]uint64, 0, len(bridgeTokens))
		for _, raw := range bridgeTokens {
			id, ok := services.ParseTokenID(raw)
			if !ok {
				return fmt.Errorf("invalid token id %q", raw)
			}
			ids = append(ids, id)
		}

		return withContainer(func(ctx context.Context, c *app.ServiceContainer) error {
			dir := utils.Direction{From: c.Config.Bridge.SourceChain, To: c.Config.Bridge.DestinationChain}
			switch bridgeFrom {
			case "", dir.From:
			case dir.To:
				dir = dir.Swap()
			default:
				return fmt.Errorf("unknown chain %q", bridgeFrom)
			}

			op, err := c.BridgeOrchestrator.Run(ctx, services.BridgeRequest{Direction: dir, TokenIDs: ids}, printPhase)
			if err != nil {
				return fmt.Errorf("bridge failed: %s", op.Error)
			}
			fmt.Printf("tx: %s\n", op.TxHash)
			return nil
		})
	},
}

func printPhase(op models.BridgeOperation) {
	line := string(op.Phase)
	if op.Status != "" {
		line += "  " + op.Status
	}
	switch {
	case op.Phase == models.PhaseApproving && op.ApprovalTxHash != "":
		line += "  " + utils.ShortenHash(op.ApprovalTxHash)
	case op.Phase == models.PhaseConfirming:
		line += "  " + utils.ShortenHash(op.TxHash)
	case op.Phase == models.PhaseError:
		line += "  " + op.Error
	}
	fmt.Println(strings.TrimSpace(line))
}

func init() {
	bridgeCmd.Flags().StringVar(&bridgeFrom, "from", "", "source chain key (default bridge.sourceChain)")
	bridgeCmd.Flags().StringSliceVar(&bridgeTokens, "tokens", nil, "comma separated token ids")
	_ = bridgeCmd.MarkFlagRequired("tokens")
}
