package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

var evmAddressPattern = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// Config application configuration structure
type Config struct {
	Server        ServerConfig             `yaml:"server"`
	Networks      map[string]NetworkConfig `yaml:"networks"`
	Bridge        BridgeConfig             `yaml:"bridge"`
	Inventory     InventoryConfig          `yaml:"inventory"`
	Indexer       IndexerConfig            `yaml:"indexer"`
	Stats         StatsConfig              `yaml:"stats"`
	WalletConnect WalletConnectConfig      `yaml:"walletConnect"`
	NATS          NATSConfig               `yaml:"nats"`
	Auth          AuthConfig               `yaml:"auth"`
	CORS          CORSConfig               `yaml:"cors"`
	RPC           RPCConfig                `yaml:"rpc"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// NetworkConfig one bridgeable chain
type NetworkConfig struct {
	ChainID           int64  `yaml:"chainId"`
	Name              string `yaml:"name"`
	SubLabel          string `yaml:"subLabel"`
	RPCURL            string `yaml:"rpcUrl"`
	NFTContract       string `yaml:"nftContract"`       // empty means not configured
	BridgeContract    string `yaml:"bridgeContract"`    // empty means not configured
	InventoryStrategy string `yaml:"inventoryStrategy"` // direct | indexed
	FallbackToIndexed bool   `yaml:"fallbackToIndexed"`
	PrivateKey        string `yaml:"privateKey"` // hex, without 0x prefix; usually from env
}

// BridgeConfig orchestration settings
type BridgeConfig struct {
	SourceChain             string `yaml:"sourceChain"`      // chain whose lock entry points are lockNFT/batchLockNFT
	DestinationChain        string `yaml:"destinationChain"` // chain whose lock entry points are *ForEthereum
	MaxBatchSize            int    `yaml:"maxBatchSize"`
	BannerSeconds           int    `yaml:"bannerSeconds"`
	ConfirmTimeoutSeconds   int    `yaml:"confirmTimeoutSeconds"`
	OperationTimeoutSeconds int    `yaml:"operationTimeoutSeconds"`
}

// InventoryConfig inventory resolution settings
type InventoryConfig struct {
	IPFSGateway            string `yaml:"ipfsGateway"`
	MetadataTimeoutSeconds int    `yaml:"metadataTimeoutSeconds"`
	MetadataConcurrency    int    `yaml:"metadataConcurrency"`
	MetadataCacheSize      int    `yaml:"metadataCacheSize"`
	Retries                int    `yaml:"retries"`
	PlaceholderPrefix      string `yaml:"placeholderPrefix"`
	TestOwnerAddress       string `yaml:"testOwnerAddress"` // display only, never used for signing
}

// IndexerConfig Alchemy NFT API configuration
type IndexerConfig struct {
	BaseURL           string  `yaml:"baseUrl"`
	APIKey            string  `yaml:"apiKey"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	TimeoutSeconds    int     `yaml:"timeoutSeconds"`
}

// StatsConfig stats backend proxied by /api/stats
type StatsConfig struct {
	BackendURL     string `yaml:"backendUrl"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// WalletConnectConfig wallet-connect project settings handed to front-ends
type WalletConnectConfig struct {
	ProjectID string `yaml:"projectId"`
}

// NATSConfig optional bridge event publishing
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
	Timeout       int    `yaml:"timeout"`
}

// AuthConfig JWT settings for mutating routes
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

// RPCConfig client-side RPC throttling
type RPCConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// LoadConfig loads the configuration file, applies environment overrides and defaults.
// An empty path falls back to config.local.yaml, then config.yaml; neither has to exist.
func LoadConfig(configPath string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			logrus.Infof("🔧 Using local configuration file: %s", configPath)
		}
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		logrus.WithField("path", configPath).Info("✅ Loaded configuration file")
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		logrus.Info("📋 No configuration file found, using environment only")
	}

	cfg.seedDefaultNetworks()
	overrideFromEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// seedDefaultNetworks installs the Base Sepolia / MegaETH testnet pair when none are configured.
func (c *Config) seedDefaultNetworks() {
	if len(c.Networks) > 0 {
		return
	}
	c.Networks = map[string]NetworkConfig{
		"base": {
			ChainID:           0x14a34,
			Name:              "Base Sepolia",
			SubLabel:          "Base testnet",
			RPCURL:            "https://base-sepolia.drpc.org",
			InventoryStrategy: "direct",
		},
		"mega": {
			ChainID:           0x18c7,
			Name:              "MegaETH",
			SubLabel:          "Permissioned",
			RPCURL:            "https://carrot.megaeth.com/rpc",
			InventoryStrategy: "direct",
		},
	}
}

// overrideFromEnv environment variables take precedence over the file
func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	for key, network := range cfg.Networks {
		prefix := strings.ToUpper(key)
		if rpcURL := os.Getenv(prefix + "_RPC_URL"); rpcURL != "" {
			network.RPCURL = rpcURL
		}
		if chainID := os.Getenv(prefix + "_CHAIN_ID"); chainID != "" {
			if id, err := ParseChainID(chainID); err == nil {
				network.ChainID = id
			} else {
				logrus.WithError(err).Warnf("⚠️ Ignoring %s_CHAIN_ID", prefix)
			}
		}
		if nft := os.Getenv(prefix + "_NFT_CONTRACT"); nft != "" {
			network.NFTContract = nft
		}
		if bridge := os.Getenv(prefix + "_BRIDGE_CONTRACT"); bridge != "" {
			network.BridgeContract = bridge
		}
		if strategy := os.Getenv(prefix + "_INVENTORY_STRATEGY"); strategy != "" {
			network.InventoryStrategy = strategy
		}
		// Try network-specific private key first (e.g., BASE_PRIVATE_KEY)
		if privateKey := os.Getenv(prefix + "_PRIVATE_KEY"); privateKey != "" {
			network.PrivateKey = privateKey
		} else if privateKey := os.Getenv("PRIVATE_KEY"); privateKey != "" {
			network.PrivateKey = privateKey
		}
		cfg.Networks[key] = network
	}

	if backend := os.Getenv("API_BASE_URL"); backend != "" {
		cfg.Stats.BackendURL = backend
	} else if backend := os.Getenv("NEXT_PUBLIC_API_BASE_URL"); backend != "" {
		cfg.Stats.BackendURL = backend
	}
	if apiKey := os.Getenv("API_KEY"); apiKey != "" {
		cfg.Stats.APIKey = apiKey
	}
	if projectID := os.Getenv("WALLETCONNECT_PROJECT_ID"); projectID != "" {
		cfg.WalletConnect.ProjectID = projectID
	}
	if owner := os.Getenv("TEST_OWNER_ADDRESS"); owner != "" {
		cfg.Inventory.TestOwnerAddress = owner
	}
	if alchemyKey := os.Getenv("ALCHEMY_API_KEY"); alchemyKey != "" {
		cfg.Indexer.APIKey = alchemyKey
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		cfg.NATS.URL = natsURL
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		origins := strings.Split(corsOrigins, ",")
		cfg.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, trimmed)
			}
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	for key, network := range c.Networks {
		network.NFTContract = normalizeOptionalAddress(network.NFTContract)
		network.BridgeContract = normalizeOptionalAddress(network.BridgeContract)
		if network.InventoryStrategy == "" {
			network.InventoryStrategy = "direct"
		}
		if network.Name == "" {
			network.Name = key
		}
		c.Networks[key] = network
	}

	if c.Bridge.SourceChain == "" || c.Bridge.DestinationChain == "" {
		keys := c.NetworkKeys()
		if c.Bridge.SourceChain == "" {
			if _, ok := c.Networks["base"]; ok {
				c.Bridge.SourceChain = "base"
			} else if len(keys) > 0 {
				c.Bridge.SourceChain = keys[0]
			}
		}
		if c.Bridge.DestinationChain == "" {
			for _, key := range keys {
				if key != c.Bridge.SourceChain {
					c.Bridge.DestinationChain = key
					break
				}
			}
		}
	}
	if c.Bridge.MaxBatchSize == 0 {
		c.Bridge.MaxBatchSize = 20
	}
	if c.Bridge.BannerSeconds <= 0 {
		c.Bridge.BannerSeconds = 5
	}
	if c.Bridge.ConfirmTimeoutSeconds <= 0 {
		c.Bridge.ConfirmTimeoutSeconds = 180
	}
	if c.Bridge.OperationTimeoutSeconds <= 0 {
		c.Bridge.OperationTimeoutSeconds = 600
	}

	if c.Inventory.IPFSGateway == "" {
		c.Inventory.IPFSGateway = "https://ipfs.io/ipfs/"
	}
	if c.Inventory.MetadataTimeoutSeconds <= 0 {
		c.Inventory.MetadataTimeoutSeconds = 10
	}
	if c.Inventory.MetadataConcurrency <= 0 {
		c.Inventory.MetadataConcurrency = 8
	}
	if c.Inventory.MetadataCacheSize <= 0 {
		c.Inventory.MetadataCacheSize = 1024
	}
	if c.Inventory.Retries < 0 {
		c.Inventory.Retries = 0
	} else if c.Inventory.Retries == 0 {
		c.Inventory.Retries = 2
	}
	if c.Inventory.PlaceholderPrefix == "" {
		c.Inventory.PlaceholderPrefix = "Bad Bunnz"
	}

	if c.Indexer.BaseURL == "" {
		c.Indexer.BaseURL = "https://eth-mainnet.g.alchemy.com/nft/v3"
	}
	if c.Indexer.APIKey == "" {
		// Same key as the Alchemy RPC endpoint, when one is used
		for _, key := range c.NetworkKeys() {
			if apiKey := AlchemyAPIKeyFromRPC(c.Networks[key].RPCURL); apiKey != "" {
				c.Indexer.APIKey = apiKey
				break
			}
		}
	}
	if c.Indexer.RequestsPerSecond <= 0 {
		c.Indexer.RequestsPerSecond = 5
	}
	if c.Indexer.TimeoutSeconds <= 0 {
		c.Indexer.TimeoutSeconds = 15
	}

	c.Stats.BackendURL = strings.TrimRight(strings.TrimSpace(c.Stats.BackendURL), "/")
	if c.Stats.TimeoutSeconds <= 0 {
		c.Stats.TimeoutSeconds = 15
	}

	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "bridge"
	}
	if c.NATS.Timeout <= 0 {
		c.NATS.Timeout = 10
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "nft-bridge"
	}
	if c.CORS.MaxAge <= 0 {
		c.CORS.MaxAge = 3600
	}
	if c.RPC.RequestsPerSecond <= 0 {
		c.RPC.RequestsPerSecond = 20
	}
	if c.RPC.Burst <= 0 {
		c.RPC.Burst = 10
	}
}

// Validate rejects configurations the service cannot start with.
// Missing contract addresses are allowed: those chains simply cannot bridge.
func (c *Config) Validate() error {
	if len(c.Networks) < 2 {
		return fmt.Errorf("at least two networks must be configured, got %d", len(c.Networks))
	}
	if _, ok := c.Networks[c.Bridge.SourceChain]; !ok {
		return fmt.Errorf("bridge.sourceChain %q is not a configured network", c.Bridge.SourceChain)
	}
	if _, ok := c.Networks[c.Bridge.DestinationChain]; !ok {
		return fmt.Errorf("bridge.destinationChain %q is not a configured network", c.Bridge.DestinationChain)
	}
	if c.Bridge.SourceChain == c.Bridge.DestinationChain {
		return fmt.Errorf("bridge.sourceChain and bridge.destinationChain must differ (both %q)", c.Bridge.SourceChain)
	}
	if c.Bridge.MaxBatchSize < 1 {
		return fmt.Errorf("bridge.maxBatchSize must be at least 1, got %d", c.Bridge.MaxBatchSize)
	}
	for key, network := range c.Networks {
		if network.ChainID <= 0 {
			return fmt.Errorf("network %s: chainId must be positive", key)
		}
		for field, addr := range map[string]string{"nftContract": network.NFTContract, "bridgeContract": network.BridgeContract} {
			if addr != "" && !evmAddressPattern.MatchString(addr) {
				return fmt.Errorf("network %s: %s %q is not an EVM address", key, field, addr)
			}
		}
		switch network.InventoryStrategy {
		case "direct", "indexed":
		default:
			return fmt.Errorf("network %s: unknown inventoryStrategy %q", key, network.InventoryStrategy)
		}
	}
	if owner := c.Inventory.TestOwnerAddress; owner != "" && !evmAddressPattern.MatchString(owner) {
		return fmt.Errorf("inventory.testOwnerAddress %q is not an EVM address", owner)
	}
	return nil
}

// NetworkKeys returns the configured chain keys in a stable order
func (c *Config) NetworkKeys() []string {
	keys := make([]string, 0, len(c.Networks))
	for key := range c.Networks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ParseChainID accepts decimal ("84532") or hex ("0x14a34") chain ids
func ParseChainID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(raw), "0x") {
		return strconv.ParseInt(raw[2:], 16, 64)
	}
	return strconv.ParseInt(raw, 10, 64)
}

var alchemyKeyPattern = regexp.MustCompile(`alchemy\.com/v2/([^/?]+)`)

// AlchemyAPIKeyFromRPC extracts the key from an Alchemy RPC URL (https://eth-mainnet.g.alchemy.com/v2/KEY)
func AlchemyAPIKeyFromRPC(rpcURL string) string {
	m := alchemyKeyPattern.FindStringSubmatch(rpcURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func normalizeOptionalAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" || strings.EqualFold(addr, zeroAddress) {
		return ""
	}
	return addr
}
