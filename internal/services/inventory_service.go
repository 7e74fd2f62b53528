package services

import (
	"context"
	"fmt"
	"time"

	"nft-bridge/internal/metrics"
	"nft-bridge/internal/models"
	"nft-bridge/internal/utils"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const defaultRetryInterval = 500 * time.Millisecond

// InventoryService resolves owned tokens per chain through the configured strategy
type InventoryService struct {
	registry      *utils.ChainRegistry
	strategies    map[string]InventoryStrategy
	retries       int
	retryInterval time.Duration
	testOwner     *common.Address
	logger        *logrus.Logger
}

// NewInventoryService strategies are looked up by Name()
func NewInventoryService(registry *utils.ChainRegistry, strategies []InventoryStrategy, retries int, testOwner string, logger *logrus.Logger) *InventoryService {
	byName := make(map[string]InventoryStrategy, len(strategies))
	for _, strategy := range strategies {
		if strategy != nil {
			byName[strategy.Name()] = strategy
		}
	}
	s := &InventoryService{
		registry:      registry,
		strategies:    byName,
		retries:       retries,
		retryInterval: defaultRetryInterval,
		logger:        logger,
	}
	if addr, err := utils.ParseEVMAddress(testOwner); err == nil {
		s.testOwner = &addr
		logger.WithField("owner", addr.Hex()).Warn("⚠️ Test owner override active, inventory shows this address")
	}
	return s
}

// DisplayOwner address whose inventory is shown. The test override never affects signing.
func (s *InventoryService) DisplayOwner(connected common.Address, ok bool) (common.Address, bool) {
	if s.testOwner != nil {
		return *s.testOwner, true
	}
	return connected, ok
}

// ListOwnedNfts current on-chain truth for owner on chainKey, sorted by token id
func (s *InventoryService) ListOwnedNfts(ctx context.Context, owner common.Address, chainKey string) ([]models.NftItem, error) {
	chain, ok := s.registry.Descriptor(chainKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, chainKey)
	}
	if !chain.NFTConfigured() {
		return []models.NftItem{}, nil
	}

	strategy, ok := s.strategies[chain.InventoryStrategy]
	if !ok {
		return nil, fmt.Errorf("inventory strategy %q not available for %s", chain.InventoryStrategy, chainKey)
	}

	items, err := s.fetch(ctx, strategy, owner, chain)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 && strategy.Name() == StrategyDirect && chain.FallbackToIndexed {
		if indexed, ok := s.strategies[StrategyIndexed]; ok {
			s.logger.WithFields(logrus.Fields{"chain": chainKey, "owner": owner.Hex()}).
				Debug("direct enumeration empty, falling back to indexed lookup")
			items, err = s.fetch(ctx, indexed, owner, chain)
			if err != nil {
				return nil, err
			}
		}
	}

	if items == nil {
		items = []models.NftItem{}
	}
	sortByTokenID(items)
	return items, nil
}

func (s *InventoryService) fetch(ctx context.Context, strategy InventoryStrategy, owner common.Address, chain utils.ChainDescriptor) ([]models.NftItem, error) {
	start := time.Now()
	var items []models.NftItem

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryInterval
	retry := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.retries)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		items, err = strategy.ListOwnedNfts(ctx, owner, chain)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"chain":    chain.Key,
				"strategy": strategy.Name(),
				"attempt":  attempt,
			}).Warn("⚠️ Inventory fetch failed")
		}
		return err
	}, retry)

	metrics.InventoryFetchDuration.WithLabelValues(chain.Key, strategy.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.InventoryFetchTotal.WithLabelValues(chain.Key, strategy.Name(), "error").Inc()
		return nil, fmt.Errorf("failed to list inventory on %s: %w", chain.Key, err)
	}
	metrics.InventoryFetchTotal.WithLabelValues(chain.Key, strategy.Name(), "ok").Inc()

	s.logger.WithFields(logrus.Fields{
		"chain":    chain.Key,
		"strategy": strategy.Name(),
		"owner":    owner.Hex(),
		"count":    len(items),
	}).Info("📋 Inventory resolved")
	return items, nil
}
