package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// KeyedWallet signs with a local private key against one backend per chain
type KeyedWallet struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	backends map[int64]bind.ContractBackend
	logger   *logrus.Logger

	mu     sync.RWMutex
	active int64
}

// NewKeyedWallet parses hexKey (with or without 0x) and starts on initialChain
func NewKeyedWallet(hexKey string, backends map[int64]bind.ContractBackend, initialChain int64, logger *logrus.Logger) (*KeyedWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if _, ok := backends[initialChain]; !ok {
		return nil, fmt.Errorf("no backend for initial chain %d", initialChain)
	}
	return &KeyedWallet{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		backends: backends,
		logger:   logger,
		active:   initialChain,
	}, nil
}

// Address signing address
func (w *KeyedWallet) Address() (common.Address, bool) {
	return w.address, true
}

// ChainID active chain
func (w *KeyedWallet) ChainID(ctx context.Context) (int64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active, nil
}

// SwitchChain makes chainID the active chain
func (w *KeyedWallet) SwitchChain(ctx context.Context, chainID int64) error {
	if _, ok := w.backends[chainID]; !ok {
		return &Error{ShortMessage: fmt.Sprintf("Chain %d is not available in this wallet.", chainID)}
	}
	w.mu.Lock()
	prev := w.active
	w.active = chainID
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{"from": prev, "to": chainID}).Info("🔀 Wallet switched chain")
	return nil
}

// WriteContract signs req with the local key and submits it
func (w *KeyedWallet) WriteContract(ctx context.Context, req WriteRequest) (common.Hash, error) {
	active, _ := w.ChainID(ctx)
	if req.ChainID != active {
		return common.Hash{}, &Error{ShortMessage: fmt.Sprintf("Wallet is connected to chain %d, expected %d.", active, req.ChainID)}
	}
	backend := w.backends[active]

	auth, err := bind.NewKeyedTransactorWithChainID(w.key, big.NewInt(active))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	contract := bind.NewBoundContract(req.Contract, *req.ABI, backend, backend, backend)
	tx, err := contract.Transact(auth, req.Method, req.Args...)
	if err != nil {
		return common.Hash{}, &Error{ShortMessage: shortMessage(err), Err: err}
	}

	w.logger.WithFields(logrus.Fields{
		"chain_id": active,
		"contract": req.Contract.Hex(),
		"method":   req.Method,
		"tx_hash":  tx.Hash().Hex(),
		"nonce":    tx.Nonce(),
	}).Info("📤 Transaction submitted")
	return tx.Hash(), nil
}
