package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InventoryHandler owned-token listing per chain
type InventoryHandler struct {
	session BridgeSession
	logger  *logrus.Logger
}

// NewInventoryHandler creates an InventoryHandler
func NewInventoryHandler(session BridgeSession, logger *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{session: session, logger: logger}
}

// GetInventoryHandler cached inventory, fetched on first use or with refresh=true
// GET /api/inventory/:chain
func (h *InventoryHandler) GetInventoryHandler(c *gin.Context) {
	chainKey := c.Param("chain")

	items, cached := h.session.Inventory(chainKey)
	if !cached || c.Query("refresh") == "true" {
		var err error
		items, err = h.session.RefreshInventory(c.Request.Context(), chainKey)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				status = http.StatusBadGateway
			}
			h.logger.WithError(err).WithField("chain", chainKey).Warn("⚠️ Inventory request failed")
			c.JSON(status, gin.H{"error": "Failed to load inventory", "details": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"chain": chainKey,
		"items": items,
		"total": len(items),
	})
}
