package handlers

import (
	"net/http"

	"nft-bridge/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// DirectionSource active bridge direction
type DirectionSource interface {
	Direction() utils.Direction
}

// ChainView public part of a descriptor; rpc urls may embed api keys and stay server-side
type ChainView struct {
	Key               string          `json:"key"`
	ChainID           int64           `json:"chain_id"`
	Label             string          `json:"label"`
	SubLabel          string          `json:"sub_label,omitempty"`
	NFTContract       *common.Address `json:"nft_contract,omitempty"`
	BridgeContract    *common.Address `json:"bridge_contract,omitempty"`
	InventoryStrategy string          `json:"inventory_strategy"`
	NFTConfigured     bool            `json:"nft_configured"`
	BridgeConfigured  bool            `json:"bridge_configured"`
}

// ChainConfigHandler read-only chain registry
type ChainConfigHandler struct {
	registry  *utils.ChainRegistry
	direction DirectionSource
	projectID string
}

// NewChainConfigHandler creates a ChainConfigHandler
func NewChainConfigHandler(registry *utils.ChainRegistry, direction DirectionSource, walletConnectProjectID string) *ChainConfigHandler {
	return &ChainConfigHandler{
		registry:  registry,
		direction: direction,
		projectID: walletConnectProjectID,
	}
}

// ListChainsHandler lists configured chains
// GET /api/chains
func (h *ChainConfigHandler) ListChainsHandler(c *gin.Context) {
	descriptors := h.registry.All()
	chains := make([]ChainView, 0, len(descriptors))
	for _, d := range descriptors {
		chains = append(chains, ChainView{
			Key:               d.Key,
			ChainID:           d.ChainID,
			Label:             d.Label,
			SubLabel:          d.SubLabel,
			NFTContract:       d.NFTContract,
			BridgeContract:    d.BridgeContract,
			InventoryStrategy: d.InventoryStrategy,
			NFTConfigured:     d.NFTConfigured(),
			BridgeConfigured:  d.BridgeConfigured(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"chains":                    chains,
		"total":                     len(chains),
		"direction":                 h.direction.Direction(),
		"wallet_connect_project_id": h.projectID,
	})
}
