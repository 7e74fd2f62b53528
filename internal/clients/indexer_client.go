package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tidwall/gjson"
)

// maxIndexerPages bounds pagination for a single owner
const maxIndexerPages = 50

// IndexedNFT one record of the indexing API, fields taken from whichever alias is present
type IndexedNFT struct {
	TokenID string // decimal or 0x hex, unparsed
	Name    string
	Image   string
}

// IndexerClient Alchemy NFT API v3 client
type IndexerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *Limiter
}

// NewIndexerClient creates an indexer client; baseURL is the .../nft/v3 root
func NewIndexerClient(baseURL, apiKey string, timeout time.Duration, limiter *Limiter) *IndexerClient {
	return &IndexerClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// Configured reports whether an API key is available
func (c *IndexerClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// GetNFTsForOwner lists every record owned by owner on contract, following pageKey
func (c *IndexerClient) GetNFTsForOwner(ctx context.Context, owner, contract common.Address) ([]IndexedNFT, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("indexer API key not configured")
	}

	var (
		out     []IndexedNFT
		pageKey string
	)
	for page := 0; page < maxIndexerPages; page++ {
		body, err := c.getPage(ctx, owner, contract, pageKey)
		if err != nil {
			return nil, err
		}

		doc := gjson.ParseBytes(body)
		doc.Get("ownedNfts").ForEach(func(_, record gjson.Result) bool {
			out = append(out, mapIndexedRecord(record))
			return true
		})

		pageKey = doc.Get("pageKey").String()
		if pageKey == "" {
			return out, nil
		}
	}
	return out, nil
}

func (c *IndexerClient) getPage(ctx context.Context, owner, contract common.Address, pageKey string) ([]byte, error) {
	params := url.Values{}
	params.Set("owner", owner.Hex())
	params.Set("contractAddresses[]", contract.Hex())
	if pageKey != "" {
		params.Set("pageKey", pageKey)
	}
	reqURL := fmt.Sprintf("%s/%s/getNFTsForOwner?%s", c.baseURL, c.apiKey, params.Encode())

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Alchemy API error (status %d): %s", resp.StatusCode, string(body))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("Alchemy API returned invalid JSON")
	}
	return body, nil
}

// mapIndexedRecord title -> name, media[0].gateway -> image.cachedUrl -> image.gateway
func mapIndexedRecord(record gjson.Result) IndexedNFT {
	return IndexedNFT{
		TokenID: record.Get("tokenId").String(),
		Name:    firstNonEmpty(record, "title", "name"),
		Image:   firstNonEmpty(record, "media.0.gateway", "image.cachedUrl", "image.gateway"),
	}
}

func firstNonEmpty(record gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := record.Get(path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
