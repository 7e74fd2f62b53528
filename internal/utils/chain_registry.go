package utils

import (
	"fmt"
	"sort"

	"nft-bridge/internal/config"

	"github.com/ethereum/go-ethereum/common"
)

// ChainDescriptor 链描述（不可变）
type ChainDescriptor struct {
	Key               string          `json:"key"`
	ChainID           int64           `json:"chain_id"`
	RPCURL            string          `json:"rpc_url"`
	NFTContract       *common.Address `json:"nft_contract,omitempty"`    // nil: chain not configured
	BridgeContract    *common.Address `json:"bridge_contract,omitempty"` // nil: bridging unavailable
	Label             string          `json:"label"`
	SubLabel          string          `json:"sub_label,omitempty"`
	InventoryStrategy string          `json:"inventory_strategy"`
	FallbackToIndexed bool            `json:"fallback_to_indexed"`
}

// NFTConfigured reports whether inventory can be listed on this chain
func (d ChainDescriptor) NFTConfigured() bool {
	return d.NFTContract != nil
}

// BridgeConfigured reports whether both contracts needed for a lock are known
func (d ChainDescriptor) BridgeConfigured() bool {
	return d.NFTContract != nil && d.BridgeContract != nil
}

// Direction from/to pair of chain keys; a runtime toggle, not part of the descriptors
type Direction struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Swap returns the reversed direction
func (d Direction) Swap() Direction {
	return Direction{From: d.To, To: d.From}
}

func (d Direction) String() string {
	return d.From + "->" + d.To
}

// ChainRegistry 链注册表
type ChainRegistry struct {
	byKey     map[string]ChainDescriptor
	byChainID map[int64]string
}

// NewChainRegistry builds the registry from the configured networks
func NewChainRegistry(networks map[string]config.NetworkConfig) *ChainRegistry {
	r := &ChainRegistry{
		byKey:     make(map[string]ChainDescriptor, len(networks)),
		byChainID: make(map[int64]string, len(networks)),
	}
	for key, network := range networks {
		r.byKey[key] = ChainDescriptor{
			Key:               key,
			ChainID:           network.ChainID,
			RPCURL:            network.RPCURL,
			NFTContract:       optionalAddress(network.NFTContract),
			BridgeContract:    optionalAddress(network.BridgeContract),
			Label:             network.Name,
			SubLabel:          network.SubLabel,
			InventoryStrategy: network.InventoryStrategy,
			FallbackToIndexed: network.FallbackToIndexed,
		}
		r.byChainID[network.ChainID] = key
	}
	return r
}

// Descriptor 通过 chain key 查询
func (r *ChainRegistry) Descriptor(key string) (ChainDescriptor, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// ByChainID 通过 native chain id 查询
func (r *ChainRegistry) ByChainID(chainID int64) (ChainDescriptor, bool) {
	key, ok := r.byChainID[chainID]
	if !ok {
		return ChainDescriptor{}, false
	}
	return r.byKey[key], true
}

// Resolve returns the source and destination descriptors of a direction
func (r *ChainRegistry) Resolve(dir Direction) (ChainDescriptor, ChainDescriptor, error) {
	from, ok := r.byKey[dir.From]
	if !ok {
		return ChainDescriptor{}, ChainDescriptor{}, fmt.Errorf("unknown chain key: %s", dir.From)
	}
	to, ok := r.byKey[dir.To]
	if !ok {
		return ChainDescriptor{}, ChainDescriptor{}, fmt.Errorf("unknown chain key: %s", dir.To)
	}
	return from, to, nil
}

// Keys 获取所有 chain key（有序）
func (r *ChainRegistry) Keys() []string {
	keys := make([]string, 0, len(r.byKey))
	for key := range r.byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// All 获取所有链描述（按 key 排序）
func (r *ChainRegistry) All() []ChainDescriptor {
	keys := r.Keys()
	out := make([]ChainDescriptor, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.byKey[key])
	}
	return out
}

func optionalAddress(addr string) *common.Address {
	if addr == "" || !common.IsHexAddress(addr) {
		return nil
	}
	a := common.HexToAddress(addr)
	if a == (common.Address{}) {
		return nil
	}
	return &a
}

// ShortenHash renders 0x1234…abcd
func ShortenHash(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return hash[:6] + "…" + hash[len(hash)-4:]
}
