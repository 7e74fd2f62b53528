package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Method names used against the NFT and bridge contracts
const (
	MethodTokensOfOwner     = "tokensOfOwner"
	MethodTokenURI          = "tokenURI"
	MethodIsApprovedForAll  = "isApprovedForAll"
	MethodSetApprovalForAll = "setApprovalForAll"
	MethodPaused            = "paused"
	MethodIsTokenApproved   = "isTokenApproved"

	MethodLockNFT                 = "lockNFT"
	MethodBatchLockNFT            = "batchLockNFT"
	MethodLockNFTForEthereum      = "lockNFTForEthereum"
	MethodBatchLockNFTForEthereum = "batchLockNFTForEthereum"
)

// NFT contract: enumerable ERC-721 (tokensOfOwner) plus the approval pair
const nftABIJSON = `[
	{
		"type": "function",
		"name": "tokensOfOwner",
		"stateMutability": "view",
		"inputs": [{"name": "owner", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256[]"}]
	},
	{
		"type": "function",
		"name": "tokenURI",
		"stateMutability": "view",
		"inputs": [{"name": "tokenId", "type": "uint256"}],
		"outputs": [{"name": "", "type": "string"}]
	},
	{
		"type": "function",
		"name": "isApprovedForAll",
		"stateMutability": "view",
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "operator", "type": "address"}
		],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "function",
		"name": "setApprovalForAll",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "operator", "type": "address"},
			{"name": "approved", "type": "bool"}
		],
		"outputs": []
	}
]`

// Bridge contract: four lock entry points plus the advisory reads
const bridgeABIJSON = `[
	{
		"type": "function",
		"name": "lockNFT",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "recipient", "type": "address"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "batchLockNFT",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "tokenIds", "type": "uint256[]"},
			{"name": "recipient", "type": "address"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "lockNFTForEthereum",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "recipient", "type": "address"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "batchLockNFTForEthereum",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "tokenIds", "type": "uint256[]"},
			{"name": "recipient", "type": "address"}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "isApprovedForAll",
		"stateMutability": "view",
		"inputs": [{"name": "user", "type": "address"}],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "function",
		"name": "isTokenApproved",
		"stateMutability": "view",
		"inputs": [
			{"name": "tokenId", "type": "uint256"},
			{"name": "owner", "type": "address"}
		],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "function",
		"name": "paused",
		"stateMutability": "view",
		"inputs": [],
		"outputs": [{"name": "", "type": "bool"}]
	}
]`

var (
	nftABI    = mustParseABI("nft", nftABIJSON)
	bridgeABI = mustParseABI("bridge", bridgeABIJSON)
)

func mustParseABI(name, raw string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse %s ABI: %v", name, err))
	}
	return &parsed
}

// NFTABI parsed NFT contract ABI
func NFTABI() *abi.ABI { return nftABI }

// BridgeABI parsed bridge contract ABI
func BridgeABI() *abi.ABI { return bridgeABI }

// LockMethod picks the bridge entry point.
// Locks leaving the source chain use lockNFT/batchLockNFT, the reverse direction the *ForEthereum pair.
func LockMethod(fromSourceChain bool, batch bool) string {
	switch {
	case fromSourceChain && batch:
		return MethodBatchLockNFT
	case fromSourceChain:
		return MethodLockNFT
	case batch:
		return MethodBatchLockNFTForEthereum
	default:
		return MethodLockNFTForEthereum
	}
}
