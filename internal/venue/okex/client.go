// Package okex implements the venue adapter for the OKEx v1 REST API.
//
// Private endpoints take form-encoded parameters signed with an MD5 digest
// over the alphabetically sorted parameters plus the secret key. The order
// "amount" field is denominated in the base asset for limit orders on both
// sides; pairs are lowercase.
package okex

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/driftline/market-surfer/internal/venue"
)

// Client provides access to the OKEx REST API.
type Client struct {
	baseURL    string
	apiKey     string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger

	retry venue.RetryConfig
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new OKEx REST API client.
func NewClient(baseURL, apiKey, secret string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
		retry:  venue.DefaultRetryConfig(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retry = venue.RetryConfig{MaxRetries: max, Backoff: backoff}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Name identifies the venue.
func (c *Client) Name() string { return "okex" }
