package handlers

import (
	"context"
	"errors"
	"net/http"

	"nft-bridge/internal/models"
	"nft-bridge/internal/services"
	"nft-bridge/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BridgeSession operations the HTTP surface drives
type BridgeSession interface {
	Status(ctx context.Context) services.SessionView
	RefreshInventory(ctx context.Context, chainKey string) ([]models.NftItem, error)
	Inventory(chainKey string) ([]models.NftItem, bool)
	Toggle(tokenID uint64) ([]uint64, error)
	SelectAll() []uint64
	SwapDirection() (utils.Direction, error)
	StartBridge(ctx context.Context) (*models.BridgeOperation, error)
}

// BridgeHandler session, selection and bridge routes
type BridgeHandler struct {
	session BridgeSession
	logger  *logrus.Logger
}

// NewBridgeHandler creates a BridgeHandler
func NewBridgeHandler(session BridgeSession, logger *logrus.Logger) *BridgeHandler {
	return &BridgeHandler{session: session, logger: logger}
}

// GetSessionHandler current session view
// GET /api/session
func (h *BridgeHandler) GetSessionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Status(c.Request.Context()))
}

type toggleRequest struct {
	TokenID *uint64 `json:"token_id" binding:"required"`
}

// ToggleHandler flips one token
// POST /api/selection/toggle
func (h *BridgeHandler) ToggleHandler(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	selection, err := h.session.Toggle(*req.TokenID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": services.ReadableError(err), "selection": selection})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": selection})
}

// SelectAllHandler selects the capped inventory or clears it
// POST /api/selection/all
func (h *BridgeHandler) SelectAllHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"selection": h.session.SelectAll()})
}

// SwapDirectionHandler flips the bridge direction
// POST /api/direction/swap
func (h *BridgeHandler) SwapDirectionHandler(c *gin.Context) {
	dir, err := h.session.SwapDirection()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": services.ReadableError(err), "direction": dir})
		return
	}
	c.JSON(http.StatusOK, gin.H{"direction": dir})
}

// StartBridgeHandler starts a bridge of the current selection; progress arrives on /ws and /api/session
// POST /api/bridge
func (h *BridgeHandler) StartBridgeHandler(c *gin.Context) {
	op, err := h.session.StartBridge(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Warn("⚠️ Bridge start rejected")
		c.JSON(statusFor(err), gin.H{"error": services.ReadableError(err)})
		return
	}
	h.logger.WithFields(logrus.Fields{
		"operation_id": op.ID.String(),
		"from":         op.FromChain,
		"to":           op.ToChain,
		"tokens":       len(op.TokenIDs),
	}).Info("🌉 Bridge started")
	c.JSON(http.StatusAccepted, gin.H{"operation": op})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownChain):
		return http.StatusNotFound
	case errors.Is(err, services.ErrBridgeInFlight):
		return http.StatusConflict
	case errors.Is(err, services.ErrWalletNotConnected),
		errors.Is(err, services.ErrTokenNotOwned),
		errors.Is(err, services.ErrEmptySelection),
		errors.Is(err, services.ErrBatchTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
