package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StatsBackendClient forwards read requests to the external stats service
type StatsBackendClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewStatsBackendClient baseURL may be empty, in which case Configured reports false
func NewStatsBackendClient(baseURL, apiKey string, timeout time.Duration) *StatsBackendClient {
	return &StatsBackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a backend base URL is set
func (c *StatsBackendClient) Configured() bool {
	return c.baseURL != ""
}

// TargetURL backend URL for path (always starting with /api/stats) and the raw query
func (c *StatsBackendClient) TargetURL(path, rawQuery string) string {
	target := c.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// Forward performs the GET and returns the upstream status and body untouched
func (c *StatsBackendClient) Forward(ctx context.Context, path, rawQuery string) (int, []byte, error) {
	if !c.Configured() {
		return 0, nil, fmt.Errorf("stats backend not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TargetURL(path, rawQuery), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
