package wallet

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat's first development key
const devKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestKeyedWallet_AddressAndSwitch(t *testing.T) {
	backends := map[int64]bind.ContractBackend{84532: nil, 6343: nil}
	w, err := NewKeyedWallet("0x"+devKey, backends, 84532, quietLogger())
	require.NoError(t, err)

	addr, ok := w.Address()
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), addr)

	id, err := w.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(84532), id)

	require.NoError(t, w.SwitchChain(context.Background(), 6343))
	id, _ = w.ChainID(context.Background())
	assert.Equal(t, int64(6343), id)

	err = w.SwitchChain(context.Background(), 1)
	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.Contains(t, werr.ShortMessage, "not available")
}

func TestKeyedWallet_WrongChainWrite(t *testing.T) {
	w, err := NewKeyedWallet(devKey, map[int64]bind.ContractBackend{84532: nil}, 84532, quietLogger())
	require.NoError(t, err)

	_, err = w.WriteContract(context.Background(), WriteRequest{ChainID: 6343})
	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.Contains(t, werr.ShortMessage, "expected 6343")
}

func TestNewKeyedWallet_Rejects(t *testing.T) {
	_, err := NewKeyedWallet("zz", map[int64]bind.ContractBackend{1: nil}, 1, quietLogger())
	assert.Error(t, err)

	_, err = NewKeyedWallet(devKey, map[int64]bind.ContractBackend{1: nil}, 2, quietLogger())
	assert.Error(t, err)
}

func TestWatchOnlyWallet(t *testing.T) {
	w := NewWatchOnlyWallet(common.Address{}, 1)
	_, ok := w.Address()
	assert.False(t, ok)

	w = NewWatchOnlyWallet(common.HexToAddress("0x742d35Cc6634C0532925a3b0F26750C66d78EB66"), 1)
	_, ok = w.Address()
	assert.True(t, ok)

	_, err := w.WriteContract(context.Background(), WriteRequest{})
	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.NotEmpty(t, werr.ShortMessage)
}

func TestShortMessage(t *testing.T) {
	assert.Equal(t, "Transaction reverted: Bridge: not owner", shortMessage(errors.New("execution reverted: Bridge: not owner")))
	assert.Equal(t, "Transaction reverted.", shortMessage(errors.New("execution reverted")))
	assert.Equal(t, "Insufficient funds for gas.", shortMessage(errors.New("insufficient funds for gas * price + value")))
	assert.Equal(t, "first", shortMessage(errors.New("first\nsecond")))

	e := &Error{ShortMessage: "short", Err: errors.New("long")}
	assert.Equal(t, "short: long", e.Error())
	assert.Equal(t, "long", errors.Unwrap(e).Error())
}
