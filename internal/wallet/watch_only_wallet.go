package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// WatchOnlyWallet a connected address that cannot sign or switch networks
type WatchOnlyWallet struct {
	address common.Address
	chainID int64
}

// NewWatchOnlyWallet address may be the zero address, meaning not connected
func NewWatchOnlyWallet(address common.Address, chainID int64) *WatchOnlyWallet {
	return &WatchOnlyWallet{address: address, chainID: chainID}
}

func (w *WatchOnlyWallet) Address() (common.Address, bool) {
	return w.address, w.address != (common.Address{})
}

func (w *WatchOnlyWallet) ChainID(ctx context.Context) (int64, error) {
	return w.chainID, nil
}

func (w *WatchOnlyWallet) WriteContract(ctx context.Context, req WriteRequest) (common.Hash, error) {
	return common.Hash{}, &Error{ShortMessage: "Wallet is read-only. Configure a signing key to bridge."}
}
