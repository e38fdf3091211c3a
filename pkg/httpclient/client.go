// Package httpclient provides the configured HTTP client used for direct
// (non-browser) requests.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Config defines the client setup.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	// Transport can carry a uTLS fingerprint; nil means the default.
	Transport http.RoundTripper
}

// Client wraps http.Client with a bounded redirect policy and per-request
// header injection.
type Client struct {
	inner *http.Client
}

// New builds a client. A negative MaxRedirects disables redirect following.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := &http.Client{Timeout: cfg.Timeout}

	if cfg.MaxRedirects >= 0 {
		limit := cfg.MaxRedirects
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{inner: c}
}

// Get issues a GET with the provided headers. The caller owns the response
// body.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return resp, nil
}
