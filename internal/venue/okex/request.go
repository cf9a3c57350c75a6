package okex

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/driftline/market-surfer/internal/venue"
)

// sign computes the OKEx v1 signature: MD5 over the alphabetically sorted
// "k=v" parameters joined by "&", with "&secret_key=..." appended,
// upper-case hex.
func sign(params url.Values, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params.Get(k))
	}
	payload := strings.Join(parts, "&") + "&secret_key=" + secret

	digest := md5.Sum([]byte(payload))
	return strings.ToUpper(hex.EncodeToString(digest[:]))
}

// doSigned POSTs a signed form to a private endpoint.
func (c *Client) doSigned(ctx context.Context, path string, params url.Values, result any) error {
	params.Set("api_key", c.apiKey)
	params.Set("sign", sign(params, c.secret))

	return venue.WithRetry(ctx, c.logger, c.retry, path, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
			strings.NewReader(params.Encode()))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		body, err := c.do(req)
		if err != nil {
			return err
		}
		if err := c.checkVenueError(body); err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	})
}

// doPublic GETs an unsigned market-data endpoint.
func (c *Client) doPublic(ctx context.Context, path string, query url.Values, result any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	return venue.WithRetry(ctx, c.logger, c.retry, path, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		body, err := c.do(req)
		if err != nil {
			return err
		}
		if err := c.checkVenueError(body); err != nil {
			return err
		}
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	})
}

// checkVenueError surfaces OKEx error_code payloads as APIError.
func (c *Client) checkVenueError(body []byte) error {
	var probe struct {
		ErrorCode int `json:"error_code"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.ErrorCode == 0 {
		return nil
	}
	return &venue.APIError{
		Venue:      "okex",
		StatusCode: http.StatusOK,
		Code:       strconv.Itoa(probe.ErrorCode),
		Message:    errorMessage(probe.ErrorCode),
		Body:       body,
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &venue.APIError{
			Venue:      "okex",
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// errorMessage maps the error codes the surfer actually runs into; anything
// else is reported numerically.
func errorMessage(code int) string {
	switch code {
	case 1002:
		return "insufficient balance"
	case 1008:
		return "order quantity below minimum"
	case 1050:
		return "order already cancelled or in cancelling"
	case 10000:
		return "required parameter missing"
	case 10007:
		return "signature mismatch"
	default:
		return fmt.Sprintf("error code %d", code)
	}
}
