package bibox

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/driftline/market-surfer/internal/venue"
)

// command is one entry of a signed cmds batch.
type command struct {
	Cmd  string `json:"cmd"`
	Body any    `json:"body"`
}

// sign computes the HMAC-MD5 hex digest of the serialized cmds batch.
func sign(cmds string, secret string) string {
	mac := hmac.New(md5.New, []byte(secret))
	mac.Write([]byte(cmds))
	return hex.EncodeToString(mac.Sum(nil))
}

// doSigned POSTs a cmds batch to a private endpoint and returns the first
// command's result payload.
func (c *Client) doSigned(ctx context.Context, path string, cmds []command, result any) error {
	payload, err := json.Marshal(cmds)
	if err != nil {
		return fmt.Errorf("marshal cmds: %w", err)
	}

	form := url.Values{}
	form.Set("cmds", string(payload))
	form.Set("apikey", c.apiKey)
	form.Set("sign", sign(string(payload), c.secret))

	return venue.WithRetry(ctx, c.logger, c.retry, path, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
			strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		body, err := c.do(req)
		if err != nil {
			return err
		}

		var envelope struct {
			Error  *apiError         `json:"error"`
			Result []json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if envelope.Error != nil {
			return &venue.APIError{
				Venue:      "bibox",
				StatusCode: http.StatusOK,
				Code:       envelope.Error.Code,
				Message:    envelope.Error.Msg,
				Body:       body,
			}
		}
		if len(envelope.Result) == 0 {
			return fmt.Errorf("empty result batch")
		}

		// Per-command errors come back inside the batch item.
		var item struct {
			Error  *apiError       `json:"error"`
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(envelope.Result[0], &item); err != nil {
			return fmt.Errorf("unmarshal result item: %w", err)
		}
		if item.Error != nil {
			return &venue.APIError{
				Venue:      "bibox",
				StatusCode: http.StatusOK,
				Code:       item.Error.Code,
				Message:    item.Error.Msg,
				Body:       body,
			}
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(item.Result, result); err != nil {
			return fmt.Errorf("unmarshal result payload: %w", err)
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

		var envelope struct {
			Error  *apiError       `json:"error"`
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if envelope.Error != nil {
			return &venue.APIError{
				Venue:      "bibox",
				StatusCode: http.StatusOK,
				Code:       envelope.Error.Code,
				Message:    envelope.Error.Msg,
				Body:       body,
			}
		}
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("unmarshal result payload: %w", err)
		}
		return nil
	})
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
			Venue:      "bibox",
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}
