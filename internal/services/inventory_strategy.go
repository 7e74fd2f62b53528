package services

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"nft-bridge/internal/clients"
	"nft-bridge/internal/contracts"
	"nft-bridge/internal/models"
	"nft-bridge/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	StrategyDirect  = "direct"
	StrategyIndexed = "indexed"
)

// InventoryStrategy lists the tokens owner holds on chain's NFT contract
type InventoryStrategy interface {
	Name() string
	ListOwnedNfts(ctx context.Context, owner common.Address, chain utils.ChainDescriptor) ([]models.NftItem, error)
}

// MetadataFetcher dereferences token URIs
type MetadataFetcher interface {
	Fetch(ctx context.Context, uri string) (*models.TokenMetadata, error)
	Gateway() string
}

// IndexerAPI owner/contract lookup on an indexing service
type IndexerAPI interface {
	GetNFTsForOwner(ctx context.Context, owner, contract common.Address) ([]clients.IndexedNFT, error)
}

// ChainClients read clients keyed by chain key
type ChainClients map[string]clients.ChainClient

// placeholderName "<prefix> #<id>"
func placeholderName(prefix string, tokenID uint64) string {
	return fmt.Sprintf("%s #%d", prefix, tokenID)
}

func sortByTokenID(items []models.NftItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].TokenID < items[j].TokenID })
}

// DirectEnumerationStrategy tokensOfOwner + tokenURI + metadata document per token
type DirectEnumerationStrategy struct {
	clients           ChainClients
	metadata          MetadataFetcher
	concurrency       int
	placeholderPrefix string
	logger            *logrus.Logger
}

// NewDirectEnumerationStrategy creates the direct strategy
func NewDirectEnumerationStrategy(chainClients ChainClients, metadata MetadataFetcher, concurrency int, placeholderPrefix string, logger *logrus.Logger) *DirectEnumerationStrategy {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DirectEnumerationStrategy{
		clients:           chainClients,
		metadata:          metadata,
		concurrency:       concurrency,
		placeholderPrefix: placeholderPrefix,
		logger:            logger,
	}
}

func (s *DirectEnumerationStrategy) Name() string { return StrategyDirect }

// ListOwnedNfts returns an empty list when the contract cannot enumerate
func (s *DirectEnumerationStrategy) ListOwnedNfts(ctx context.Context, owner common.Address, chain utils.ChainDescriptor) ([]models.NftItem, error) {
	if chain.NFTContract == nil {
		return []models.NftItem{}, nil
	}
	client, ok := s.clients[chain.Key]
	if !ok {
		return nil, fmt.Errorf("%w: no rpc client for %s", ErrUnknownChain, chain.Key)
	}
	nft := *chain.NFTContract

	values, err := client.CallContract(ctx, nft, contracts.NFTABI(), contracts.MethodTokensOfOwner, owner)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"chain": chain.Key,
			"owner": owner.Hex(),
		}).Debug("tokensOfOwner unavailable, returning empty inventory")
		return []models.NftItem{}, nil
	}
	rawIDs, ok := firstValue[[]*big.Int](values)
	if !ok {
		s.logger.WithField("chain", chain.Key).Warn("⚠️ tokensOfOwner returned an unexpected type")
		return []models.NftItem{}, nil
	}

	ids := make([]uint64, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if raw == nil || !raw.IsUint64() {
			s.logger.WithField("token_id", raw).Debug("skipping token id outside uint64 range")
			continue
		}
		ids = append(ids, raw.Uint64())
	}

	items := make([]models.NftItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			items[i] = s.enrich(gctx, client, nft, id)
			return nil
		})
	}
	_ = g.Wait()

	sortByTokenID(items)
	return items, nil
}

// enrich never fails: missing metadata degrades to the placeholder name and no image
func (s *DirectEnumerationStrategy) enrich(ctx context.Context, client clients.ChainClient, nft common.Address, id uint64) models.NftItem {
	item := models.NftItem{TokenID: id, Name: placeholderName(s.placeholderPrefix, id)}

	values, err := client.CallContract(ctx, nft, contracts.NFTABI(), contracts.MethodTokenURI, new(big.Int).SetUint64(id))
	if err != nil {
		s.logger.WithError(err).WithField("token_id", id).Debug("tokenURI failed")
		return item
	}
	uri, _ := firstValue[string](values)
	meta, err := s.metadata.Fetch(ctx, uri)
	if err != nil {
		s.logger.WithError(err).WithField("token_id", id).Debug("metadata fetch failed")
		return item
	}
	if meta.Name != "" {
		item.Name = meta.Name
	}
	if meta.Image != "" {
		item.Image = clients.IPFSToHTTP(meta.Image, s.metadata.Gateway())
	}
	return item
}

func firstValue[T any](values []interface{}) (T, bool) {
	var zero T
	if len(values) == 0 {
		return zero, false
	}
	v, ok := values[0].(T)
	return v, ok
}

// IndexedLookupStrategy owner lookup through the indexing API
type IndexedLookupStrategy struct {
	indexer           IndexerAPI
	gateway           string
	placeholderPrefix string
	logger            *logrus.Logger
}

// NewIndexedLookupStrategy creates the indexed strategy
func NewIndexedLookupStrategy(indexer IndexerAPI, gateway, placeholderPrefix string, logger *logrus.Logger) *IndexedLookupStrategy {
	return &IndexedLookupStrategy{
		indexer:           indexer,
		gateway:           gateway,
		placeholderPrefix: placeholderPrefix,
		logger:            logger,
	}
}

func (s *IndexedLookupStrategy) Name() string { return StrategyIndexed }

// ListOwnedNfts records whose token id does not parse are skipped
func (s *IndexedLookupStrategy) ListOwnedNfts(ctx context.Context, owner common.Address, chain utils.ChainDescriptor) ([]models.NftItem, error) {
	if chain.NFTContract == nil {
		return []models.NftItem{}, nil
	}
	records, err := s.indexer.GetNFTsForOwner(ctx, owner, *chain.NFTContract)
	if err != nil {
		return nil, err
	}

	items := make([]models.NftItem, 0, len(records))
	for _, record := range records {
		id, ok := ParseTokenID(record.TokenID)
		if !ok {
			s.logger.WithField("token_id", record.TokenID).Debug("skipping indexed record with unparsable token id")
			continue
		}
		item := models.NftItem{TokenID: id, Name: record.Name}
		if item.Name == "" {
			item.Name = placeholderName(s.placeholderPrefix, id)
		}
		if record.Image != "" {
			item.Image = clients.IPFSToHTTP(record.Image, s.gateway)
		}
		items = append(items, item)
	}

	sortByTokenID(items)
	return items, nil
}

// ParseTokenID accepts decimal or 0x-prefixed hex ids that fit in uint64
func ParseTokenID(raw string) (uint64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	var (
		id  uint64
		err error
	)
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		id, err = strconv.ParseUint(raw[2:], 16, 64)
	} else {
		id, err = strconv.ParseUint(raw, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	return id, true
}
