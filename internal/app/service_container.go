package app

import (
	"context"
	"fmt"
	"time"

	"nft-bridge/internal/clients"
	"nft-bridge/internal/config"
	"nft-bridge/internal/handlers"
	"nft-bridge/internal/middleware"
	"nft-bridge/internal/router"
	"nft-bridge/internal/services"
	"nft-bridge/internal/utils"
	"nft-bridge/internal/wallet"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ServiceContainer wires every component of the bridge service
type ServiceContainer struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Registry *utils.ChainRegistry

	// Clients
	EVMClients     map[string]*clients.EVMClient
	ChainClients   services.ChainClients
	MetadataClient *clients.MetadataClient
	IndexerClient  *clients.IndexerClient
	StatsClient    *clients.StatsBackendClient
	NATSPublisher  *clients.NATSPublisher

	// Core Services
	Wallet              wallet.Wallet
	InventoryService    *services.InventoryService
	BridgeOrchestrator  *services.BridgeOrchestrator
	SelectionController *services.SelectionController
	StatusPushService   *services.StatusPushService
	SessionService      *services.BridgeSessionService
}

// NewServiceContainer builds the container. Chains whose RPC cannot be reached are
// logged and left without a client; NATS is optional.
func NewServiceContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*ServiceContainer, error) {
	logger.Info("🚀 Initializing Service Container...")

	c := &ServiceContainer{
		Config:       cfg,
		Logger:       logger,
		Registry:     utils.NewChainRegistry(cfg.Networks),
		EVMClients:   make(map[string]*clients.EVMClient),
		ChainClients: make(services.ChainClients),
	}

	c.initChainClients(ctx)

	if err := c.initInventory(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize inventory: %w", err)
	}
	if err := c.initWallet(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize wallet: %w", err)
	}
	c.initBridge()

	logger.Info("✅ Service Container initialized successfully")
	return c, nil
}

// initChainClients one rate-limited RPC client per configured chain
func (c *ServiceContainer) initChainClients(ctx context.Context) {
	for _, d := range c.Registry.All() {
		limiter := clients.NewLimiter(c.Config.RPC.RequestsPerSecond, c.Config.RPC.Burst, d.Key)
		client, err := clients.NewEVMClient(ctx, d.Key, d.ChainID, d.RPCURL, limiter, c.Logger)
		if err != nil {
			c.Logger.WithError(err).WithField("chain", d.Key).Error("❌ RPC client unavailable, chain disabled")
			continue
		}
		c.EVMClients[d.Key] = client
		c.ChainClients[d.Key] = client
	}
}

func (c *ServiceContainer) initInventory() error {
	inv := c.Config.Inventory

	metadata, err := clients.NewMetadataClient(inv.IPFSGateway, time.Duration(inv.MetadataTimeoutSeconds)*time.Second, inv.MetadataCacheSize)
	if err != nil {
		return err
	}
	c.MetadataClient = metadata

	strategies := []services.InventoryStrategy{
		services.NewDirectEnumerationStrategy(c.ChainClients, metadata, inv.MetadataConcurrency, inv.PlaceholderPrefix, c.Logger),
	}

	idx := c.Config.Indexer
	c.IndexerClient = clients.NewIndexerClient(idx.BaseURL, idx.APIKey, time.Duration(idx.TimeoutSeconds)*time.Second,
		clients.NewLimiter(idx.RequestsPerSecond, 1, "indexer"))
	if c.IndexerClient.Configured() {
		strategies = append(strategies, services.NewIndexedLookupStrategy(c.IndexerClient, inv.IPFSGateway, inv.PlaceholderPrefix, c.Logger))
	} else {
		c.Logger.Info("📋 Indexer API key not set, indexed inventory lookup disabled")
	}

	c.InventoryService = services.NewInventoryService(c.Registry, strategies, inv.Retries, inv.TestOwnerAddress, c.Logger)
	return nil
}

// initWallet keyed wallet when a signing key is configured, watch-only otherwise
func (c *ServiceContainer) initWallet() error {
	source, _ := c.Registry.Descriptor(c.Config.Bridge.SourceChain)

	privateKey := ""
	if network, ok := c.Config.Networks[source.Key]; ok {
		privateKey = network.PrivateKey
	}
	for _, key := range c.Config.NetworkKeys() {
		if privateKey != "" {
			break
		}
		privateKey = c.Config.Networks[key].PrivateKey
	}

	if privateKey == "" {
		owner := common.Address{}
		if parsed, err := utils.ParseEVMAddress(c.Config.Inventory.TestOwnerAddress); err == nil {
			owner = parsed
		}
		c.Wallet = wallet.NewWatchOnlyWallet(owner, source.ChainID)
		c.Logger.WithField("address", owner.Hex()).Warn("⚠️ No signing key configured, wallet is watch-only")
		return nil
	}

	backends := make(map[int64]bind.ContractBackend, len(c.EVMClients))
	initial := int64(0)
	for key, client := range c.EVMClients {
		backends[client.ChainID()] = client.Backend()
		if key == source.Key || initial == 0 {
			initial = client.ChainID()
		}
	}
	if len(backends) == 0 {
		return fmt.Errorf("signing key configured but no chain is reachable")
	}

	keyed, err := wallet.NewKeyedWallet(privateKey, backends, initial, c.Logger)
	if err != nil {
		return err
	}
	address, _ := keyed.Address()
	c.Logger.WithFields(logrus.Fields{"address": address.Hex(), "chain_id": initial}).Info("🔑 Signing wallet loaded")
	c.Wallet = keyed
	return nil
}

func (c *ServiceContainer) initBridge() {
	b := c.Config.Bridge

	c.BridgeOrchestrator = services.NewBridgeOrchestrator(c.Registry, c.ChainClients, c.Wallet, services.OrchestratorOptions{
		SourceChain:    b.SourceChain,
		MaxBatchSize:   b.MaxBatchSize,
		ConfirmTimeout: time.Duration(b.ConfirmTimeoutSeconds) * time.Second,
	}, c.Logger)

	c.SelectionController = services.NewSelectionController(utils.Direction{From: b.SourceChain, To: b.DestinationChain}, b.MaxBatchSize)
	c.StatusPushService = services.NewStatusPushService(c.Logger)

	publishers := services.StatusPublishers{c.StatusPushService}
	if c.Config.NATS.URL != "" {
		pub, err := clients.NewNATSPublisher(c.Config.NATS.URL, c.Config.NATS.SubjectPrefix, time.Duration(c.Config.NATS.Timeout)*time.Second, c.Logger)
		if err != nil {
			c.Logger.WithError(err).Warn("⚠️ NATS unavailable, bridge events stay local")
		} else {
			c.NATSPublisher = pub
			publishers = append(publishers, services.NewNATSStatusPublisher(pub, c.Logger))
		}
	}

	c.SessionService = services.NewBridgeSessionService(c.Registry, c.InventoryService, c.BridgeOrchestrator, c.Wallet,
		c.SelectionController, publishers, services.SessionOptions{
			BannerDuration:   time.Duration(b.BannerSeconds) * time.Second,
			OperationTimeout: time.Duration(b.OperationTimeoutSeconds) * time.Second,
		}, c.Logger)

	s := c.Config.Stats
	c.StatsClient = clients.NewStatsBackendClient(s.BackendURL, s.APIKey, time.Duration(s.TimeoutSeconds)*time.Second)
	if !c.StatsClient.Configured() {
		c.Logger.Info("📊 Stats backend not configured, /api/stats answers 503")
	}
}

// Router builds the HTTP engine over the container's services
func (c *ServiceContainer) Router() *gin.Engine {
	return router.SetupRouter(c.Config, router.Handlers{
		Stats:     handlers.NewStatsProxyHandler(c.StatsClient, c.Logger),
		Chains:    handlers.NewChainConfigHandler(c.Registry, c.SelectionController, c.Config.WalletConnect.ProjectID),
		Inventory: handlers.NewInventoryHandler(c.SessionService, c.Logger),
		Bridge:    handlers.NewBridgeHandler(c.SessionService, c.Logger),
		WebSocket: handlers.NewWebSocketHandler(c.StatusPushService, c.Logger),
		Auth:      middleware.NewAuthMiddleware(c.Config.Auth.JWTSecret, c.Config.Auth.Issuer, c.Logger),
	}, c.Logger)
}

// Close waits for background bridge work and releases connections
func (c *ServiceContainer) Close() {
	if c.SessionService != nil {
		c.SessionService.Close()
	}
	if c.NATSPublisher != nil {
		c.NATSPublisher.Close()
	}
	for _, client := range c.EVMClients {
		client.Close()
	}
	c.Logger.Info("👋 Service Container closed")
}
