package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nft-bridge/internal/metrics"
	"nft-bridge/internal/models"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tidwall/gjson"
)

const ipfsScheme = "ipfs://"

// IPFSToHTTP rewrites ipfs://<cid>/<path> onto gateway; any other uri is returned unchanged
func IPFSToHTTP(uri, gateway string) string {
	if !strings.HasPrefix(uri, ipfsScheme) {
		return uri
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + strings.TrimPrefix(uri, ipfsScheme)
}

// MetadataClient fetches token metadata documents
type MetadataClient struct {
	httpClient *http.Client
	gateway    string
	cache      *lru.Cache // ipfs documents only: content addressed, never change
}

// NewMetadataClient creates a metadata client
func NewMetadataClient(gateway string, timeout time.Duration, cacheSize int) (*MetadataClient, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}
	return &MetadataClient{
		httpClient: &http.Client{Timeout: timeout},
		gateway:    gateway,
		cache:      cache,
	}, nil
}

// Gateway configured ipfs gateway prefix
func (c *MetadataClient) Gateway() string {
	return c.gateway
}

// Fetch dereferences a tokenURI. name and image are optional in the document.
func (c *MetadataClient) Fetch(ctx context.Context, uri string) (*models.TokenMetadata, error) {
	if uri == "" {
		return nil, fmt.Errorf("empty token uri")
	}
	cacheable := strings.HasPrefix(uri, ipfsScheme)
	if cacheable {
		if cached, ok := c.cache.Get(uri); ok {
			metrics.MetadataFetchTotal.WithLabelValues("cache_hit").Inc()
			meta := cached.(models.TokenMetadata)
			return &meta, nil
		}
	}

	meta, err := c.fetch(ctx, IPFSToHTTP(uri, c.gateway))
	if err != nil {
		metrics.MetadataFetchTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.MetadataFetchTotal.WithLabelValues("ok").Inc()
	if cacheable {
		c.cache.Add(uri, *meta)
	}
	return meta, nil
}

func (c *MetadataClient) fetch(ctx context.Context, url string) (*models.TokenMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("metadata fetch failed (status %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("metadata is not valid JSON")
	}

	doc := gjson.ParseBytes(body)
	return &models.TokenMetadata{
		Name:  doc.Get("name").String(),
		Image: doc.Get("image").String(),
	}, nil
}
