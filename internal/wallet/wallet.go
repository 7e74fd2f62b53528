package wallet

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Wallet connected signer. Address, chain and writes may change or fail at any time.
type Wallet interface {
	// Address connected account; false when nothing is connected
	Address() (common.Address, bool)
	// ChainID network the wallet currently signs for
	ChainID(ctx context.Context) (int64, error)
	// WriteContract signs and submits a contract call, returning the tx hash
	WriteContract(ctx context.Context, req WriteRequest) (common.Hash, error)
}

// ChainSwitcher optional capability: programmatic network switch
type ChainSwitcher interface {
	SwitchChain(ctx context.Context, chainID int64) error
}

// WriteRequest one contract write
type WriteRequest struct {
	ChainID  int64
	Contract common.Address
	ABI      *abi.ABI
	Method   string
	Args     []interface{}
}

// Error wallet-level failure with a message suitable for end users
type Error struct {
	ShortMessage string
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.ShortMessage + ": " + e.Err.Error()
	}
	return e.ShortMessage
}

func (e *Error) Unwrap() error {
	return e.Err
}

// shortMessage condenses a node/RPC error into one line
func shortMessage(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "insufficient funds"):
		return "Insufficient funds for gas."
	case strings.Contains(lower, "nonce too low"):
		return "Nonce too low. Please retry."
	case strings.Contains(lower, "execution reverted"):
		idx := strings.Index(lower, "execution reverted")
		reason := strings.TrimSpace(strings.TrimPrefix(msg[idx+len("execution reverted"):], ":"))
		if reason == "" {
			return "Transaction reverted."
		}
		return "Transaction reverted: " + reason
	}
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
