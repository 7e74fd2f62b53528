package models

// NftItem one owned token, built fresh on every inventory fetch
type NftItem struct {
	TokenID uint64 `json:"token_id"`
	Name    string `json:"name"`
	Image   string `json:"image,omitempty"` // http(s) URL, ipfs:// already rewritten
}

// TokenMetadata the subset of an ERC-721 metadata document that is displayed
type TokenMetadata struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}
