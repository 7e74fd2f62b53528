package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// ChainClient read side of one network: contract calls and receipt waits
type ChainClient interface {
	ChainID() int64
	CallContract(ctx context.Context, to common.Address, contractABI *abi.ABI, method string, args ...interface{}) ([]interface{}, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

const defaultReceiptPollInterval = 2 * time.Second

// EVMClient ChainClient backed by ethclient
type EVMClient struct {
	key          string
	chainID      int64
	client       *ethclient.Client
	limiter      *Limiter
	pollInterval time.Duration
	logger       *logrus.Logger
}

// NewEVMClient dials rpcURL and verifies the endpoint answers
func NewEVMClient(ctx context.Context, key string, chainID int64, rpcURL string, limiter *Limiter, logger *logrus.Logger) (*EVMClient, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url not configured for %s", key)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s rpc: %w", key, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	remoteID, err := client.ChainID(probeCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to verify %s rpc: %w", key, err)
	}
	if remoteID.Int64() != chainID {
		logger.WithFields(logrus.Fields{
			"chain":      key,
			"configured": chainID,
			"remote":     remoteID.Int64(),
		}).Warn("⚠️ RPC endpoint reports a different chain id")
	}
	logger.WithFields(logrus.Fields{"chain": key, "chain_id": chainID}).Info("✅ RPC connection verified")

	return &EVMClient{
		key:          key,
		chainID:      chainID,
		client:       client,
		limiter:      limiter,
		pollInterval: defaultReceiptPollInterval,
		logger:       logger,
	}, nil
}

// ChainID configured chain id
func (c *EVMClient) ChainID() int64 {
	return c.chainID
}

// Backend underlying client, used for signing and gas estimation
func (c *EVMClient) Backend() *ethclient.Client {
	return c.client
}

// CallContract packs method, performs eth_call and unpacks the outputs
func (c *EVMClient) CallContract(ctx context.Context, to common.Address, contractABI *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	result, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	RecordRPCCall(c.key, method, err)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	values, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return values, nil
}

// WaitForReceipt polls until the transaction is mined or ctx is done
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	polls := 0
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("transaction %s not confirmed: %w", hash.Hex(), err)
		}
		receipt, err := c.client.TransactionReceipt(ctx, hash)
		polls++
		if err == nil && receipt != nil {
			RecordRPCCall(c.key, "eth_getTransactionReceipt", nil)
			c.logger.WithFields(logrus.Fields{
				"chain":   c.key,
				"tx_hash": hash.Hex(),
				"block":   receipt.BlockNumber,
				"status":  receipt.Status,
				"polls":   polls,
			}).Info("📦 Transaction mined")
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			RecordRPCCall(c.key, "eth_getTransactionReceipt", err)
			c.logger.WithError(err).WithField("tx_hash", hash.Hex()).Warn("⚠️ Error querying receipt, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not confirmed: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close closes the RPC connection
func (c *EVMClient) Close() {
	c.client.Close()
}
