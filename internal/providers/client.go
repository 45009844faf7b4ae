package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
)

const maxBodyBytes = 8 << 20

// Client performs the outbound requests shared by every source strategy.
type Client struct {
	httpClient *http.Client
	userAgent  string
	headers    map[string]string
}

// NewClient creates a client with a fixed per-request timeout and the
// browser-like headers most Vietnamese sites expect.
func NewClient(timeout time.Duration, userAgent string, headers map[string]string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		headers:    headers,
	}
}

// GetPage fetches a page with the full browser header set.
func (c *Client) GetPage(ctx context.Context, source, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.do(source, req)
}

// GetJSON fetches an API endpoint with only the user agent set and decodes
// the body into out.
func (c *Client) GetJSON(ctx context.Context, source, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	body, err := c.do(source, req)
	if err != nil {
		return err
	}
	return decodeJSON(source, body, out)
}

// PostForm submits a urlencoded form and decodes the JSON reply.
func (c *Client) PostForm(ctx context.Context, source, rawURL string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, err := c.do(source, req)
	if err != nil {
		return err
	}
	return decodeJSON(source, body, out)
}

func (c *Client) do(source string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.ErrSourceUnavailable{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.ErrSourceUnavailable{
			Source: source,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &apperrors.ErrSourceUnavailable{Source: source, Err: err}
	}
	return body, nil
}

func decodeJSON(source string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &apperrors.ErrParseFailure{Source: source, Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// withQuery appends extra query parameters to a configured URL that may
// already carry some.
func withQuery(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
