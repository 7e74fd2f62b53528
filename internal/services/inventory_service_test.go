package services

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"nft-bridge/internal/clients"
	"nft-bridge/internal/config"
	"nft-bridge/internal/contracts"
	"nft-bridge/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enumeratingClient(ids []*big.Int) *fakeChainClient {
	return &fakeChainClient{
		chainID: megaChainID,
		handler: func(to common.Address, method string, args []interface{}) ([]interface{}, error) {
			switch method {
			case contracts.MethodTokensOfOwner:
				return []interface{}{ids}, nil
			case contracts.MethodTokenURI:
				id := args[0].(*big.Int)
				return []interface{}{"ipfs://QmMeta/" + id.String() + ".json"}, nil
			}
			return nil, errors.New("unexpected method " + method)
		},
	}
}

func TestDirectEnumeration_SortedWithPlaceholders(t *testing.T) {
	client := enumeratingClient([]*big.Int{big.NewInt(3), big.NewInt(1), big.NewInt(2)})
	metadata := &fakeMetadata{docs: map[string]models.TokenMetadata{
		"ipfs://QmMeta/1.json": {Name: "Bunny 1", Image: "ipfs://QmImg/1.png"},
		"ipfs://QmMeta/3.json": {Name: "Bunny 3", Image: "https://cdn.example/3.png"},
	}}
	strategy := NewDirectEnumerationStrategy(ChainClients{"mega": client}, metadata, 4, "Bad Bunnz", quietLogger())

	chain, _ := testRegistry(nil).Descriptor("mega")
	got, err := strategy.ListOwnedNfts(context.Background(), ownerAddr, chain)
	require.NoError(t, err)

	assert.Equal(t, []models.NftItem{
		{TokenID: 1, Name: "Bunny 1", Image: "https://ipfs.io/ipfs/QmImg/1.png"},
		{TokenID: 2, Name: "Bad Bunnz #2"},
		{TokenID: 3, Name: "Bunny 3", Image: "https://cdn.example/3.png"},
	}, got)
}

func TestDirectEnumeration_EnumerationFailureIsEmpty(t *testing.T) {
	client := &fakeChainClient{handler: func(common.Address, string, []interface{}) ([]interface{}, error) {
		return nil, errors.New("execution reverted")
	}}
	strategy := NewDirectEnumerationStrategy(ChainClients{"mega": client}, &fakeMetadata{}, 4, "Bad Bunnz", quietLogger())

	chain, _ := testRegistry(nil).Descriptor("mega")
	got, err := strategy.ListOwnedNfts(context.Background(), ownerAddr, chain)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDirectEnumeration_SkipsOversizedIDs(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 70)
	client := enumeratingClient([]*big.Int{huge, big.NewInt(5)})
	strategy := NewDirectEnumerationStrategy(ChainClients{"mega": client}, &fakeMetadata{}, 2, "Bad Bunnz", quietLogger())

	chain, _ := testRegistry(nil).Descriptor("mega")
	got, err := strategy.ListOwnedNfts(context.Background(), ownerAddr, chain)
	require.NoError(t, err)
	assert.Equal(t, []models.NftItem{{TokenID: 5, Name: "Bad Bunnz #5"}}, got)
}

func TestIndexedLookup_MapsAndSkipsUnparsable(t *testing.T) {
	indexer := &fakeIndexer{records: []clients.IndexedNFT{
		{TokenID: "0x0a", Name: "Ten", Image: "ipfs://QmTen"},
		{TokenID: "abc", Name: "Broken"},
		{TokenID: "3"},
		{TokenID: ""},
		{TokenID: "1.5"},
	}}
	strategy := NewIndexedLookupStrategy(indexer, "https://ipfs.io/ipfs/", "Bad Bunnz", quietLogger())

	chain, _ := testRegistry(nil).Descriptor("base")
	got, err := strategy.ListOwnedNfts(context.Background(), ownerAddr, chain)
	require.NoError(t, err)
	assert.Equal(t, []models.NftItem{
		{TokenID: 3, Name: "Bad Bunnz #3"},
		{TokenID: 10, Name: "Ten", Image: "https://ipfs.io/ipfs/QmTen"},
	}, got)

	indexer.err = errors.New("Alchemy API error (status 500)")
	_, err = strategy.ListOwnedNfts(context.Background(), ownerAddr, chain)
	assert.Error(t, err)
}

func TestParseTokenID(t *testing.T) {
	id, ok := ParseTokenID("0xff")
	assert.True(t, ok)
	assert.Equal(t, uint64(255), id)

	id, ok = ParseTokenID("42")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	for _, raw := range []string{"", "0x", "-1", "twelve", "18446744073709551616"} {
		_, ok = ParseTokenID(raw)
		assert.False(t, ok, raw)
	}
}

func newTestInventoryService(registryMutate func(map[string]config.NetworkConfig), strategies ...InventoryStrategy) *InventoryService {
	svc := NewInventoryService(testRegistry(registryMutate), strategies, 2, "", quietLogger())
	svc.retryInterval = time.Millisecond
	return svc
}

func TestInventoryService_SortsAndRetries(t *testing.T) {
	direct := &fakeStrategy{name: StrategyDirect, failures: 2, items: map[string][]models.NftItem{
		"base": items(9, 4, 7),
	}}
	svc := newTestInventoryService(nil, direct)

	got, err := svc.ListOwnedNfts(context.Background(), ownerAddr, "base")
	require.NoError(t, err)
	assert.Equal(t, items(4, 7, 9), got)
	assert.Equal(t, 3, direct.Calls(), "two retries after the first failure")
}

func TestInventoryService_GivesUpAfterRetries(t *testing.T) {
	direct := &fakeStrategy{name: StrategyDirect, failures: 10, items: map[string][]models.NftItem{}}
	svc := newTestInventoryService(nil, direct)

	_, err := svc.ListOwnedNfts(context.Background(), ownerAddr, "base")
	require.Error(t, err)
	assert.Equal(t, 3, direct.Calls())
}

func TestInventoryService_UnknownAndUnconfiguredChains(t *testing.T) {
	direct := &fakeStrategy{name: StrategyDirect, items: map[string][]models.NftItem{"mega": items(1)}}
	svc := newTestInventoryService(func(n map[string]config.NetworkConfig) {
		mega := n["mega"]
		mega.NFTContract = ""
		n["mega"] = mega
	}, direct)

	_, err := svc.ListOwnedNfts(context.Background(), ownerAddr, "solana")
	assert.ErrorIs(t, err, ErrUnknownChain)

	got, err := svc.ListOwnedNfts(context.Background(), ownerAddr, "mega")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, direct.Calls(), "no network access without an NFT contract")
}

func TestInventoryService_FallsBackToIndexed(t *testing.T) {
	direct := &fakeStrategy{name: StrategyDirect, items: map[string][]models.NftItem{}}
	indexed := &fakeStrategy{name: StrategyIndexed, items: map[string][]models.NftItem{"base": items(2, 1)}}
	svc := newTestInventoryService(func(n map[string]config.NetworkConfig) {
		base := n["base"]
		base.FallbackToIndexed = true
		n["base"] = base
	}, direct, indexed)

	got, err := svc.ListOwnedNfts(context.Background(), ownerAddr, "base")
	require.NoError(t, err)
	assert.Equal(t, items(1, 2), got)
	assert.Equal(t, 1, indexed.Calls())

	// without the flag an empty direct result stands
	svc = newTestInventoryService(nil, direct, indexed)
	got, err = svc.ListOwnedNfts(context.Background(), ownerAddr, "base")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, indexed.Calls())
}

func TestInventoryService_DisplayOwner(t *testing.T) {
	svc := newTestInventoryService(nil)
	addr, ok := svc.DisplayOwner(common.Address{}, false)
	assert.False(t, ok)
	assert.Equal(t, common.Address{}, addr)

	override := "0x000000000000000000000000000000000000dEaD"
	svc = NewInventoryService(testRegistry(nil), nil, 0, override, quietLogger())
	addr, ok = svc.DisplayOwner(ownerAddr, true)
	assert.True(t, ok)
	assert.Equal(t, common.HexToAddress(override), addr)
}
