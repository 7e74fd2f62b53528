package services

import (
	"errors"

	"nft-bridge/internal/wallet"
)

var (
	ErrWalletNotConnected   = errors.New("wallet not connected")
	ErrEmptySelection       = errors.New("empty selection")
	ErrBatchTooLarge        = errors.New("selection exceeds batch cap")
	ErrBridgeNotConfigured  = errors.New("bridge contracts not configured")
	ErrBridgePaused         = errors.New("bridge paused")
	ErrManualSwitchRequired = errors.New("manual chain switch required")
	ErrBridgeInFlight       = errors.New("bridge operation in flight")
	ErrUnknownChain         = errors.New("unknown chain")
	ErrTokenNotOwned        = errors.New("token not in source inventory")
	ErrTransactionReverted  = errors.New("transaction reverted")
)

// genericErrorMessage shown when an error carries no usable text
const genericErrorMessage = "Unexpected error. Please try again."

// BridgeError user facing failure of a bridge step; Kind is one of the sentinels above
type BridgeError struct {
	Kind    error
	Message string
}

func (e *BridgeError) Error() string {
	return e.Message
}

func (e *BridgeError) Unwrap() error {
	return e.Kind
}

func newBridgeError(kind error, message string) *BridgeError {
	return &BridgeError{Kind: kind, Message: message}
}

// ReadableError picks the message shown to the user: the wallet short message first,
// then the error text, then a generic fallback
func ReadableError(err error) string {
	if err == nil {
		return ""
	}
	var walletErr *wallet.Error
	if errors.As(err, &walletErr) && walletErr.ShortMessage != "" {
		return walletErr.ShortMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericErrorMessage
}
