package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"nft-bridge/internal/clients"
	"nft-bridge/internal/contracts"
	"nft-bridge/internal/metrics"
	"nft-bridge/internal/models"
	"nft-bridge/internal/utils"
	"nft-bridge/internal/wallet"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BridgeRequest one bridge invocation
type BridgeRequest struct {
	OperationID uuid.UUID // optional, generated when zero
	Direction   utils.Direction
	TokenIDs    []uint64
}

// OrchestratorOptions tunables of the bridge workflow
type OrchestratorOptions struct {
	SourceChain    string // chain whose lock entry points are lockNFT/batchLockNFT
	MaxBatchSize   int
	ConfirmTimeout time.Duration
	Now            func() time.Time
}

// BridgeOrchestrator drives one bridge operation through its phases.
// It never retries a step; a retry is a new Run.
type BridgeOrchestrator struct {
	registry *utils.ChainRegistry
	clients  ChainClients
	wallet   wallet.Wallet
	opts     OrchestratorOptions
	logger   *logrus.Logger
}

// NewBridgeOrchestrator creates the orchestrator
func NewBridgeOrchestrator(registry *utils.ChainRegistry, chainClients ChainClients, w wallet.Wallet, opts OrchestratorOptions, logger *logrus.Logger) *BridgeOrchestrator {
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 3 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BridgeOrchestrator{
		registry: registry,
		clients:  chainClients,
		wallet:   w,
		opts:     opts,
		logger:   logger,
	}
}

// operationRun mutable state of one Run
type operationRun struct {
	o         *BridgeOrchestrator
	op        *models.BridgeOperation
	report    func(models.BridgeOperation)
	direction string
	log       *logrus.Entry
}

func (r *operationRun) transition(phase models.Phase) {
	r.op.Transition(phase, r.o.opts.Now())
	r.emit()
	metrics.BridgePhaseTransitions.WithLabelValues(string(phase)).Inc()
	r.log.WithField("phase", phase).Debug("bridge phase")
}

func (r *operationRun) emit() {
	if r.report != nil {
		r.report(r.op.Clone())
	}
}

// fail moves the record to Error and returns the cause
func (r *operationRun) fail(err error) (*models.BridgeOperation, error) {
	r.op.Error = ReadableError(err)
	r.op.Submitting = false
	r.transition(models.PhaseError)
	metrics.BridgeOperationsTotal.WithLabelValues(r.direction, "error").Inc()
	r.log.WithError(err).Warn("❌ Bridge operation failed")
	return r.op, err
}

// Run executes the workflow. report, when set, receives a copy of the record on every change.
// The returned record ends in Complete or Error; the error is the underlying cause.
func (o *BridgeOrchestrator) Run(ctx context.Context, req BridgeRequest, report func(models.BridgeOperation)) (*models.BridgeOperation, error) {
	op := models.NewBridgeOperation(req.Direction.From, req.Direction.To, req.TokenIDs)
	if req.OperationID != uuid.Nil {
		op.ID = req.OperationID
	}
	op.Submitting = true
	r := &operationRun{
		o:         o,
		op:        op,
		report:    report,
		direction: req.Direction.String(),
		log: o.logger.WithFields(logrus.Fields{
			"operation_id": op.ID.String(),
			"direction":    req.Direction.String(),
			"tokens":       len(req.TokenIDs),
		}),
	}

	metrics.BridgeInFlight.Inc()
	defer metrics.BridgeInFlight.Dec()

	// Validating
	r.transition(models.PhaseValidating)
	owner, connected := o.wallet.Address()
	if !connected {
		return r.fail(newBridgeError(ErrWalletNotConnected, "Connect your wallet to bridge."))
	}
	if len(req.TokenIDs) == 0 {
		return r.fail(newBridgeError(ErrEmptySelection, "Select at least one NFT to bridge."))
	}
	if o.opts.MaxBatchSize > 0 && len(req.TokenIDs) > o.opts.MaxBatchSize {
		return r.fail(newBridgeError(ErrBatchTooLarge, fmt.Sprintf("Select at most %d NFTs per bridge.", o.opts.MaxBatchSize)))
	}
	from, _, err := o.registry.Resolve(req.Direction)
	if err != nil {
		return r.fail(newBridgeError(ErrUnknownChain, err.Error()))
	}
	if !from.BridgeConfigured() {
		return r.fail(newBridgeError(ErrBridgeNotConfigured, "Contract addresses missing for this route."))
	}
	client, ok := o.clients[from.Key]
	if !ok {
		return r.fail(newBridgeError(ErrUnknownChain, fmt.Sprintf("No RPC client for %s.", from.Label)))
	}
	bridge, nft := *from.BridgeContract, *from.NFTContract
	r.log = r.log.WithField("owner", owner.Hex())

	// SwitchingChain
	if err := o.ensureChain(ctx, r, from); err != nil {
		return r.fail(err)
	}

	// CheckingPause
	r.transition(models.PhaseCheckingPause)
	paused, err := readBool(ctx, client, bridge, contracts.BridgeABI(), contracts.MethodPaused)
	if err != nil {
		// unreadable flag counts as not paused
		r.log.WithError(err).Warn("⚠️ Pause check failed, treating bridge as not paused")
	} else if paused {
		return r.fail(newBridgeError(ErrBridgePaused, "Bridge is currently paused. Please try again later."))
	}

	// CheckingApproval
	r.transition(models.PhaseCheckingApproval)
	approved := o.isApproved(ctx, r, client, owner, nft, bridge)

	// Approving
	if !approved {
		r.transition(models.PhaseApproving)
		hash, err := o.wallet.WriteContract(ctx, wallet.WriteRequest{
			ChainID:  from.ChainID,
			Contract: nft,
			ABI:      contracts.NFTABI(),
			Method:   contracts.MethodSetApprovalForAll,
			Args:     []interface{}{bridge, true},
		})
		if err != nil {
			return r.fail(err)
		}
		r.op.ApprovalTxHash = hash.Hex()
		r.emit()
		if err := o.waitConfirmed(ctx, client, hash); err != nil {
			return r.fail(err)
		}
		r.transition(models.PhaseApprovalConfirmed)
	}

	// Submitting
	batch := len(req.TokenIDs) > 1
	method := contracts.LockMethod(from.Key == o.opts.SourceChain, batch)
	r.op.Method = method
	r.transition(models.PhaseSubmitting)
	hash, err := o.wallet.WriteContract(ctx, wallet.WriteRequest{
		ChainID:  from.ChainID,
		Contract: bridge,
		ABI:      contracts.BridgeABI(),
		Method:   method,
		Args:     lockArgs(req.TokenIDs, owner),
	})
	if err != nil {
		return r.fail(err)
	}
	r.op.TxHash = hash.Hex()
	r.log = r.log.WithField("tx_hash", r.op.TxHash)

	// Confirming
	r.transition(models.PhaseConfirming)
	if err := o.waitConfirmed(ctx, client, hash); err != nil {
		return r.fail(err)
	}

	// Complete
	now := o.opts.Now()
	r.op.Submitting = false
	r.op.InitiatedAt = &now
	r.transition(models.PhaseComplete)
	metrics.BridgeOperationsTotal.WithLabelValues(r.direction, "complete").Inc()
	r.log.WithField("method", method).Info("✅ Bridge complete")
	return r.op, nil
}

// ensureChain re-reads the wallet network and switches when it differs from the source chain
func (o *BridgeOrchestrator) ensureChain(ctx context.Context, r *operationRun, from utils.ChainDescriptor) error {
	current, err := o.wallet.ChainID(ctx)
	if err != nil {
		return err
	}
	if current == from.ChainID {
		return nil
	}

	manual := newBridgeError(ErrManualSwitchRequired, fmt.Sprintf("Please switch to %s to continue.", from.Label))
	switcher, ok := o.wallet.(wallet.ChainSwitcher)
	if !ok {
		return manual
	}

	r.op.Transition(models.PhaseSwitchingChain, o.opts.Now())
	r.op.Status = fmt.Sprintf("Switching to %s…", from.Label)
	r.emit()
	metrics.BridgePhaseTransitions.WithLabelValues(string(models.PhaseSwitchingChain)).Inc()

	if err := switcher.SwitchChain(ctx, from.ChainID); err != nil {
		return err
	}
	if current, err = o.wallet.ChainID(ctx); err != nil {
		return err
	}
	if current != from.ChainID {
		return manual
	}
	return nil
}

// isApproved bridge-side accessor first, NFT contract second; unreadable counts as not approved
func (o *BridgeOrchestrator) isApproved(ctx context.Context, r *operationRun, client clients.ChainClient, owner, nft, bridge common.Address) bool {
	approved, err := readBool(ctx, client, bridge, contracts.BridgeABI(), contracts.MethodIsApprovedForAll, owner)
	if err == nil {
		return approved
	}
	r.log.WithError(err).Debug("bridge isApprovedForAll unavailable, reading NFT contract")

	approved, err = readBool(ctx, client, nft, contracts.NFTABI(), contracts.MethodIsApprovedForAll, owner, bridge)
	if err != nil {
		r.log.WithError(err).Warn("⚠️ Approval status unreadable, requesting approval")
		return false
	}
	return approved
}

// waitConfirmed blocks until hash is mined; a failed receipt is terminal
func (o *BridgeOrchestrator) waitConfirmed(ctx context.Context, client clients.ChainClient, hash common.Hash) error {
	waitCtx, cancel := context.WithTimeout(ctx, o.opts.ConfirmTimeout)
	defer cancel()

	receipt, err := client.WaitForReceipt(waitCtx, hash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return newBridgeError(err, fmt.Sprintf("Transaction %s was not confirmed in time.", utils.ShortenHash(hash.Hex())))
		}
		return err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return newBridgeError(ErrTransactionReverted, fmt.Sprintf("Transaction %s reverted.", utils.ShortenHash(hash.Hex())))
	}
	return nil
}

func lockArgs(tokenIDs []uint64, recipient common.Address) []interface{} {
	if len(tokenIDs) == 1 {
		return []interface{}{new(big.Int).SetUint64(tokenIDs[0]), recipient}
	}
	ids := make([]*big.Int, len(tokenIDs))
	for i, id := range tokenIDs {
		ids[i] = new(big.Int).SetUint64(id)
	}
	return []interface{}{ids, recipient}
}

func readBool(ctx context.Context, client clients.ChainClient, to common.Address, contractABI *abi.ABI, method string, args ...interface{}) (bool, error) {
	values, err := client.CallContract(ctx, to, contractABI, method, args...)
	if err != nil {
		return false, err
	}
	v, ok := firstValue[bool](values)
	if !ok {
		return false, fmt.Errorf("%s returned an unexpected type", method)
	}
	return v, nil
}
