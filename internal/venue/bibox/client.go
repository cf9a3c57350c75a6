// Package bibox implements the venue adapter for the Bibox v1 REST API.
//
// Private endpoints take a JSON "cmds" batch signed with HMAC-MD5 of the
// batch body. Amounts are always denominated base-first: "amount" is the
// base asset, "money" is the quote asset, regardless of order side.
package bibox

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/driftline/market-surfer/internal/venue"
)

// Client provides access to the Bibox REST API.
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

// NewClient creates a new Bibox REST API client.
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
func (c *Client) Name() string { return "bibox" }
