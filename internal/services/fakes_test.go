package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"nft-bridge/internal/clients"
	"nft-bridge/internal/config"
	"nft-bridge/internal/models"
	"nft-bridge/internal/utils"
	"nft-bridge/internal/wallet"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

var (
	baseNFT    = common.HexToAddress("0xcCc5D02de05A490D949A19be3685F371CB0F8543")
	baseBridge = common.HexToAddress("0x713E2060eF942C3681225abf5e176fc1E5AFE31F")
	megaNFT    = common.HexToAddress("0xefE87bdC8A9eEBA823d530c6328E2A2E318fb41b")
	megaBridge = common.HexToAddress("0x849F736Dfe0385E7c0EC429Cf89e23c316b48f51")
	ownerAddr  = common.HexToAddress("0x742d35Cc6634C0532925a3b0F26750C66d78EB66")
)

const (
	baseChainID int64 = 84532
	megaChainID int64 = 6343
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testRegistry(mutate func(map[string]config.NetworkConfig)) *utils.ChainRegistry {
	networks := map[string]config.NetworkConfig{
		"base": {
			ChainID:           baseChainID,
			Name:              "Base Sepolia",
			NFTContract:       baseNFT.Hex(),
			BridgeContract:    baseBridge.Hex(),
			InventoryStrategy: StrategyDirect,
		},
		"mega": {
			ChainID:           megaChainID,
			Name:              "MegaETH",
			NFTContract:       megaNFT.Hex(),
			BridgeContract:    megaBridge.Hex(),
			InventoryStrategy: StrategyDirect,
		},
	}
	if mutate != nil {
		mutate(networks)
	}
	return utils.NewChainRegistry(networks)
}

type contractCall struct {
	To     common.Address
	Method string
	Args   []interface{}
}

type callHandler func(to common.Address, method string, args []interface{}) ([]interface{}, error)

// fakeChainClient answers contract reads from handler; receipts succeed unless listed in failed
type fakeChainClient struct {
	mu      sync.Mutex
	chainID int64
	handler callHandler
	calls   []contractCall
	failed  map[common.Hash]bool
	block   chan struct{} // when set, WaitForReceipt waits for it to close
}

var _ clients.ChainClient = (*fakeChainClient)(nil)

func (f *fakeChainClient) ChainID() int64 { return f.chainID }

func (f *fakeChainClient) CallContract(ctx context.Context, to common.Address, contractABI *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	f.mu.Lock()
	f.calls = append(f.calls, contractCall{To: to, Method: method, Args: args})
	handler := f.handler
	f.mu.Unlock()
	if handler == nil {
		return nil, errors.New("no handler")
	}
	return handler(to, method, args)
}

func (f *fakeChainClient) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	status := types.ReceiptStatusSuccessful
	if f.failed[hash] {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{Status: status, TxHash: hash}, nil
}

func (f *fakeChainClient) Calls() []contractCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contractCall(nil), f.calls...)
}

// fakeWallet cannot switch networks
type fakeWallet struct {
	mu        sync.Mutex
	address   common.Address
	connected bool
	chainID   int64
	writes    []wallet.WriteRequest
	writeErrs map[string]error
}

func newFakeWallet(chainID int64) *fakeWallet {
	return &fakeWallet{address: ownerAddr, connected: true, chainID: chainID}
}

func (w *fakeWallet) Address() (common.Address, bool) {
	return w.address, w.connected
}

func (w *fakeWallet) ChainID(ctx context.Context) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID, nil
}

func (w *fakeWallet) WriteContract(ctx context.Context, req wallet.WriteRequest) (common.Hash, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, req)
	if err := w.writeErrs[req.Method]; err != nil {
		return common.Hash{}, err
	}
	return txHashFor(req.Method), nil
}

func (w *fakeWallet) Writes() []wallet.WriteRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]wallet.WriteRequest(nil), w.writes...)
}

// switchingWallet adds the chain switch capability
type switchingWallet struct {
	*fakeWallet
	switchErr error
}

func (w *switchingWallet) SwitchChain(ctx context.Context, chainID int64) error {
	if w.switchErr != nil {
		return w.switchErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chainID = chainID
	return nil
}

func txHashFor(method string) common.Hash {
	return common.BytesToHash([]byte(method))
}

// fakeMetadata serves documents by uri
type fakeMetadata struct {
	docs map[string]models.TokenMetadata
}

func (f *fakeMetadata) Fetch(ctx context.Context, uri string) (*models.TokenMetadata, error) {
	doc, ok := f.docs[uri]
	if !ok {
		return nil, errors.New("metadata fetch failed")
	}
	return &doc, nil
}

func (f *fakeMetadata) Gateway() string { return "https://ipfs.io/ipfs/" }

// fakeIndexer returns fixed records
type fakeIndexer struct {
	records []clients.IndexedNFT
	err     error
}

func (f *fakeIndexer) GetNFTsForOwner(ctx context.Context, owner, contract common.Address) ([]clients.IndexedNFT, error) {
	return f.records, f.err
}

// fakeStrategy per-chain items with scripted failures
type fakeStrategy struct {
	mu       sync.Mutex
	name     string
	items    map[string][]models.NftItem
	failures int
	calls    int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) ListOwnedNfts(ctx context.Context, owner common.Address, chain utils.ChainDescriptor) ([]models.NftItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("rpc hiccup")
	}
	return append([]models.NftItem(nil), f.items[chain.Key]...), nil
}

func (f *fakeStrategy) set(chainKey string, items []models.NftItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[chainKey] = items
}

func (f *fakeStrategy) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingPublisher collects published records
type recordingPublisher struct {
	mu  sync.Mutex
	ops []models.BridgeOperation
}

func (p *recordingPublisher) PublishBridgeStatus(op models.BridgeOperation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, op)
}

func (p *recordingPublisher) Phases() []models.Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Phase, 0, len(p.ops))
	for _, op := range p.ops {
		out = append(out, op.Phase)
	}
	return out
}

func items(ids ...uint64) []models.NftItem {
	out := make([]models.NftItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.NftItem{TokenID: id, Name: placeholderName("Bad Bunnz", id)})
	}
	return out
}
