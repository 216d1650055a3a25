// Package websearch provides the built-in web and image search
// collaborator, backed by RapidAPI search hosts.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dashweave/internal/logging"
)

const (
	// DefaultWebHost serves Brave-backed web search over RapidAPI.
	DefaultWebHost = "brave-api12.p.rapidapi.com"
	// DefaultImageHost serves real-time image search over RapidAPI.
	DefaultImageHost = "real-time-image-search.p.rapidapi.com"

	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20
)

// Config configures a search Client.
type Config struct {
	// APIKey is the RapidAPI key sent with every request.
	APIKey string
	// WebHost overrides the web search host.
	WebHost string
	// ImageHost overrides the image search host.
	ImageHost string
	// Timeout bounds each request. Zero means 30s.
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client performs web and image searches against RapidAPI hosts.
type Client struct {
	apiKey    string
	webHost   string
	imageHost string
	timeout   time.Duration
	http      *http.Client
	scheme    string // tests swap this for plain http
}

// NewClient returns a search client. APIKey is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("search API key is required")
	}
	c := &Client{
		apiKey:    cfg.APIKey,
		webHost:   cfg.WebHost,
		imageHost: cfg.ImageHost,
		timeout:   cfg.Timeout,
		http:      cfg.HTTPClient,
	}
	if c.webHost == "" {
		c.webHost = DefaultWebHost
	}
	if c.imageHost == "" {
		c.imageHost = DefaultImageHost
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	c.scheme = "https"
	return c, nil
}

// WebSearch runs a web search and returns the provider's decoded JSON
// response.
func (c *Client) WebSearch(ctx context.Context, query string, count int) (map[string]any, error) {
	if count <= 0 {
		count = 10
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	return c.get(ctx, c.webHost, "/web/search", params)
}

// ImageSearch runs a real-time image search and returns the provider's
// decoded JSON response.
func (c *Client) ImageSearch(ctx context.Context, query string, limit int) (map[string]any, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("region", "us")
	params.Set("safe_search", "off")
	return c.get(ctx, c.imageHost, "/search", params)
}

func (c *Client) get(ctx context.Context, host, endpoint string, params url.Values) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s://%s%s?%s", c.scheme, host, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", host)
	req.Header.Set("Content-Type", "application/json")

	logging.SearchDebug("GET %s%s q=%q", host, endpoint, params.Get("q")+params.Get("query"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, host, truncate(string(body), 200))
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", host, err)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
