// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

// Client is an upstream API client that paces requests with a token bucket
// and retries 429 responses. One Client is shared by every worker talking to
// the same upstream, so the pacing holds across concurrent items.
// It is safe for concurrent use.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	userAgent  string
	maxRetries int
}

// NewClient builds a Client from shared HTTP settings. A zero
// RequestsPerSecond disables pacing.
func NewClient(hc *http.Client, cfg types.HTTPConfig) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		http:       hc,
		limiter:    rate.NewLimiter(limit, 1),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// HTTP returns the underlying *http.Client.
func (c *Client) HTTP() *http.Client { return c.http }

// UserAgent returns the User-Agent header value sent with each request.
func (c *Client) UserAgent() string { return c.userAgent }

// Get waits for a pacing token and issues a GET for rawURL with the given
// Accept header. The caller owns the response body.
func (c *Client) Get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return DoWithRetry(ctx, c.http, req, c.maxRetries)
}
