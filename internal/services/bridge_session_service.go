package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nft-bridge/internal/models"
	"nft-bridge/internal/utils"
	"nft-bridge/internal/wallet"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionOptions timing of the session
type SessionOptions struct {
	BannerDuration   time.Duration // completion banner lifetime
	OperationTimeout time.Duration // upper bound for one background operation
	RefreshTimeout   time.Duration
}

// SessionView everything a front-end needs to render the bridge panel
type SessionView struct {
	Wallet           string                  `json:"wallet,omitempty"`
	DisplayOwner     string                  `json:"display_owner,omitempty"`
	Direction        utils.Direction         `json:"direction"`
	Selection        []uint64                `json:"selection"`
	MaxBatchSize     int                     `json:"max_batch_size"`
	BridgeConfigured bool                    `json:"bridge_configured"`
	OnRequiredChain  bool                    `json:"on_required_chain"`
	Operation        *models.BridgeOperation `json:"operation,omitempty"`
	ActionLabel      string                  `json:"action_label"`
	ActionDisabled   bool                    `json:"action_disabled"`
}

// BridgeSessionService the single bridge session: selection, inventories and the current operation
type BridgeSessionService struct {
	registry     *utils.ChainRegistry
	inventory    *InventoryService
	orchestrator *BridgeOrchestrator
	wallet       wallet.Wallet
	controller   *SelectionController
	publisher    StatusPublisher
	opts         SessionOptions
	logger       *logrus.Logger

	mu          sync.Mutex
	current     *models.BridgeOperation
	inventories map[string][]models.NftItem
	bannerTimer *time.Timer

	wg sync.WaitGroup
}

// NewBridgeSessionService creates the session; publisher may be nil
func NewBridgeSessionService(
	registry *utils.ChainRegistry,
	inventory *InventoryService,
	orchestrator *BridgeOrchestrator,
	w wallet.Wallet,
	controller *SelectionController,
	publisher StatusPublisher,
	opts SessionOptions,
	logger *logrus.Logger,
) *BridgeSessionService {
	if opts.BannerDuration <= 0 {
		opts.BannerDuration = 5 * time.Second
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = 10 * time.Minute
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = time.Minute
	}
	return &BridgeSessionService{
		registry:     registry,
		inventory:    inventory,
		orchestrator: orchestrator,
		wallet:       w,
		controller:   controller,
		publisher:    publisher,
		opts:         opts,
		logger:       logger,
		inventories:  make(map[string][]models.NftItem),
	}
}

// RefreshInventory fetches the owner's tokens on chainKey; the source chain also reconciles the selection
func (s *BridgeSessionService) RefreshInventory(ctx context.Context, chainKey string) ([]models.NftItem, error) {
	owner, ok := s.inventory.DisplayOwner(s.wallet.Address())
	if !ok {
		return nil, ErrWalletNotConnected
	}
	items, err := s.inventory.ListOwnedNfts(ctx, owner, chainKey)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.inventories[chainKey] = items
	s.mu.Unlock()

	if chainKey == s.controller.Direction().From {
		s.controller.Reconcile(items)
	}
	return items, nil
}

// Inventory last fetched inventory of chainKey
func (s *BridgeSessionService) Inventory(chainKey string) ([]models.NftItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.inventories[chainKey]
	return items, ok
}

// Toggle flips one token in the selection
func (s *BridgeSessionService) Toggle(tokenID uint64) ([]uint64, error) {
	return s.controller.Toggle(tokenID)
}

// SelectAll selects the capped inventory or clears it
func (s *BridgeSessionService) SelectAll() []uint64 {
	return s.controller.SelectAll()
}

// SwapDirection flips the direction and re-seeds the source inventory from cache
func (s *BridgeSessionService) SwapDirection() (utils.Direction, error) {
	dir, err := s.controller.SwapDirection()
	if err != nil {
		return dir, err
	}
	if items, ok := s.Inventory(dir.From); ok {
		s.controller.Reconcile(items)
	}
	s.logger.WithField("direction", dir.String()).Info("🔀 Bridge direction swapped")
	return dir, nil
}

// StartBridge validates gating and runs the orchestrator in the background.
// The returned record is the initial Validating state.
func (s *BridgeSessionService) StartBridge(ctx context.Context) (*models.BridgeOperation, error) {
	if !s.controller.TryBegin() {
		return nil, ErrBridgeInFlight
	}
	snapshot := s.controller.Snapshot()

	op := models.NewBridgeOperation(snapshot.Direction.From, snapshot.Direction.To, snapshot.Selection)
	op.Submitting = true
	op.Transition(models.PhaseValidating, time.Now())

	s.mu.Lock()
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
	s.current = op
	initial := op.Clone()
	s.mu.Unlock()
	s.publish(initial)

	req := BridgeRequest{OperationID: op.ID, Direction: snapshot.Direction, TokenIDs: snapshot.Selection}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.controller.End()

		runCtx, cancel := context.WithTimeout(context.Background(), s.opts.OperationTimeout)
		defer cancel()

		result, err := s.orchestrator.Run(runCtx, req, s.onReport)
		if err != nil || result.Phase != models.PhaseComplete {
			return
		}
		s.onComplete(*result)
	}()

	return &initial, nil
}

// Status current session view
func (s *BridgeSessionService) Status(ctx context.Context) SessionView {
	snapshot := s.controller.Snapshot()
	view := SessionView{
		Direction:    snapshot.Direction,
		Selection:    snapshot.Selection,
		MaxBatchSize: snapshot.MaxBatchSize,
	}

	address, connected := s.wallet.Address()
	if connected {
		view.Wallet = address.Hex()
	}
	if owner, ok := s.inventory.DisplayOwner(address, connected); ok {
		view.DisplayOwner = owner.Hex()
	}

	from, fromOK := s.registry.Descriptor(snapshot.Direction.From)
	view.BridgeConfigured = fromOK && from.BridgeConfigured()
	view.OnRequiredChain = true
	if connected && fromOK {
		if chainID, err := s.wallet.ChainID(ctx); err == nil && chainID != 0 {
			view.OnRequiredChain = chainID == from.ChainID
		}
	}

	s.mu.Lock()
	if s.current != nil {
		c := s.current.Clone()
		view.Operation = &c
	}
	s.mu.Unlock()

	view.ActionLabel, view.ActionDisabled = actionState(view, connected, from.Label)
	return view
}

// actionState label and enabled state of the bridge button
func actionState(view SessionView, connected bool, fromLabel string) (string, bool) {
	submitting := view.Operation != nil && view.Operation.Submitting
	disabled := !connected || len(view.Selection) == 0 || submitting || !view.BridgeConfigured

	switch {
	case !connected:
		return "Connect wallet", disabled
	case !view.BridgeConfigured:
		return "Contracts not configured", disabled
	case len(view.Selection) == 0:
		return "Select NFTs to bridge", disabled
	case !view.OnRequiredChain:
		return fmt.Sprintf("Switch to %s", fromLabel), disabled
	case view.Operation != nil && view.Operation.Status != "":
		return view.Operation.Status, disabled
	default:
		return fmt.Sprintf("Bridge %d selected", len(view.Selection)), disabled
	}
}

// Wait blocks until background operations and refreshes have finished
func (s *BridgeSessionService) Wait() {
	s.wg.Wait()
}

// Close stops the banner timer and waits for background work
func (s *BridgeSessionService) Close() {
	s.mu.Lock()
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *BridgeSessionService) onReport(op models.BridgeOperation) {
	s.mu.Lock()
	if s.current != nil && s.current.ID != op.ID {
		s.mu.Unlock()
		return
	}
	c := op.Clone()
	s.current = &c
	s.mu.Unlock()
	s.publish(op)
}

func (s *BridgeSessionService) onComplete(op models.BridgeOperation) {
	s.controller.Clear()

	for _, chainKey := range []string{op.FromChain, op.ToChain} {
		chainKey := chainKey
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.RefreshTimeout)
			defer cancel()
			if _, err := s.RefreshInventory(ctx, chainKey); err != nil {
				s.logger.WithError(err).WithField("chain", chainKey).Warn("⚠️ Post-bridge inventory refresh failed")
			}
		}()
	}

	s.mu.Lock()
	s.bannerTimer = time.AfterFunc(s.opts.BannerDuration, func() { s.dismissBanner(op.ID) })
	s.mu.Unlock()
}

// dismissBanner returns a completed record to Idle unless another operation started
func (s *BridgeSessionService) dismissBanner(id uuid.UUID) {
	s.mu.Lock()
	if s.current == nil || s.current.ID != id || s.current.Phase != models.PhaseComplete {
		s.mu.Unlock()
		return
	}
	s.current.Transition(models.PhaseIdle, time.Now())
	s.current.InitiatedAt = nil
	idle := s.current.Clone()
	s.bannerTimer = nil
	s.mu.Unlock()
	s.publish(idle)
}

func (s *BridgeSessionService) publish(op models.BridgeOperation) {
	if s.publisher != nil {
		s.publisher.PublishBridgeStatus(op)
	}
}
