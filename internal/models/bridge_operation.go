package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase bridge operation phase
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseValidating        Phase = "validating"
	PhaseSwitchingChain    Phase = "switching_chain"
	PhaseCheckingPause     Phase = "checking_pause"
	PhaseCheckingApproval  Phase = "checking_approval"
	PhaseApproving         Phase = "approving"
	PhaseApprovalConfirmed Phase = "approval_confirmed"
	PhaseSubmitting        Phase = "submitting"
	PhaseConfirming        Phase = "confirming"
	PhaseComplete          Phase = "complete"
	PhaseError             Phase = "error"
)

var phaseLabels = map[Phase]string{
	PhaseValidating:        "Preparing transaction…",
	PhaseCheckingPause:     "Checking bridge status…",
	PhaseCheckingApproval:  "Checking approval…",
	PhaseApproving:         "Approving bridge contract…",
	PhaseApprovalConfirmed: "Approval confirmed ✓",
	PhaseSubmitting:        "Submitting bridge transaction…",
	PhaseConfirming:        "Waiting for confirmation…",
	PhaseComplete:          "Bridge complete ✅",
}

// Label human readable status; empty for Idle and Error
func (p Phase) Label() string {
	return phaseLabels[p]
}

// Terminal reports whether no further transition follows
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// InFlight reports whether an operation is between Validating and Confirming
func (p Phase) InFlight() bool {
	return p != PhaseIdle && !p.Terminal()
}

// BridgeOperation transient record of one bridge invocation, never persisted
type BridgeOperation struct {
	ID             uuid.UUID  `json:"id"`
	Phase          Phase      `json:"phase"`
	Status         string     `json:"status,omitempty"`
	FromChain      string     `json:"from_chain"`
	ToChain        string     `json:"to_chain"`
	TokenIDs       []uint64   `json:"token_ids"`
	Method         string     `json:"method,omitempty"`
	ApprovalTxHash string     `json:"approval_tx_hash,omitempty"`
	TxHash         string     `json:"tx_hash,omitempty"`
	Error          string     `json:"error,omitempty"`
	Submitting     bool       `json:"submitting"`
	InitiatedAt    *time.Time `json:"initiated_at,omitempty"` // set on completion, drives the banner
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewBridgeOperation creates a record in Idle
func NewBridgeOperation(from, to string, tokenIDs []uint64) *BridgeOperation {
	ids := make([]uint64, len(tokenIDs))
	copy(ids, tokenIDs)
	return &BridgeOperation{
		ID:        uuid.New(),
		Phase:     PhaseIdle,
		FromChain: from,
		ToChain:   to,
		TokenIDs:  ids,
		UpdatedAt: time.Now(),
	}
}

// Transition moves the record to phase and refreshes the status label
func (op *BridgeOperation) Transition(phase Phase, now time.Time) {
	op.Phase = phase
	op.Status = phase.Label()
	op.UpdatedAt = now
}

// Clone returns a copy safe to hand to other goroutines
func (op *BridgeOperation) Clone() BridgeOperation {
	c := *op
	c.TokenIDs = append([]uint64(nil), op.TokenIDs...)
	if op.InitiatedAt != nil {
		t := *op.InitiatedAt
		c.InitiatedAt = &t
	}
	return c
}
