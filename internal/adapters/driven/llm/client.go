package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 8 << 20

// Client sends JSON requests to one provider's HTTP API.
type Client struct {
	provider string
	baseURL  string
	header   http.Header
	http     *http.Client
}

// NewClient returns a client for provider rooted at baseURL.
// header is sent with every request.
func NewClient(provider, baseURL string, timeout time.Duration, header http.Header) *Client {
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		header:   header,
		http:     &http.Client{Timeout: timeout},
	}
}

// Provider returns the name used to prefix errors.
func (c *Client) Provider() string {
	return c.provider
}

// Post marshals in, sends it to path and decodes a 200 response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}

	body, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return DecodeError(c.provider, err)
	}
	return nil
}

// Get sends a GET to path and discards the body. Adapters use it as a
// cheap reachability and credential check.
func (c *Client) Get(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodGet, path, http.NoBody)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, TransportError(c.provider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, TransportError(c.provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, StatusError(c.provider, resp.StatusCode, data)
	}
	return data, nil
}

// ProviderError reports an error object embedded in a 200 response.
func ProviderError(provider, message string) error {
	return fmt.Errorf("%s: API error: %s", provider, message)
}
