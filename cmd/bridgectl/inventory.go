package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"nft-bridge/internal/app"
	"nft-bridge/internal/utils"

	"github.com/spf13/cobra"
)

var (
	inventoryChain string
	inventoryOwner string
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "List the NFTs an address holds on a chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *app.ServiceContainer) error {
			owner, ok := c.InventoryService.DisplayOwner(c.Wallet.Address())
			if inventoryOwner != "" {
				parsed, err := utils.ParseEVMAddress(inventoryOwner)
				if err != nil {
					return err
				}
				owner, ok = parsed, true
			}
			if !ok {
				return fmt.Errorf("no owner: pass --owner or configure a wallet")
			}

			items, err := c.InventoryService.ListOwnedNfts(ctx, owner, inventoryChain)
			if err != nil {
				return err
			}

			fmt.Printf("%s holds %d token(s) on %s\n", owner.Hex(), len(items), inventoryChain)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TOKEN\tNAME\tIMAGE")
			for _, item := range items {
				fmt.Fprintf(w, "%d\t%s\t%s\n", item.TokenID, item.Name, item.Image)
			}
			return w.Flush()
		})
	},
}

func init() {
	inventoryCmd.Flags().StringVar(&inventoryChain, "chain", "base", "chain key")
	inventoryCmd.Flags().StringVar(&inventoryOwner, "owner", "", "owner address (default: wallet or test owner)")
}
