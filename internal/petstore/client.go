package petstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const DefaultBaseURL = "https://petstore.swagger.io/v2"

// Client is a Backend that issues real HTTP calls against a pet store
// service. Non-2xx answers are returned as Responses, not errors.
type Client struct {
	*http.Client
	baseURL string
	logger  *slog.Logger
}

var _ Backend = (*Client)(nil)

func NewClient(c *http.Client, baseURL string, logger *slog.Logger) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		Client:  c,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// BaseURL returns the service root all paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*Response, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Info("Making request.", "method", method, "url", reqURL)
	res, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	c.logger.Info("Response status.", "status", res.StatusCode)

	return RawResponse(res.StatusCode, data), nil
}

func (c *Client) callJSON(ctx context.Context, method, path string, payload any) (*Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return c.Call(ctx, method, path, nil, bytes.NewReader(data), "application/json")
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Call(ctx, http.MethodGet, path, query, nil, "")
}

func (c *Client) delete(ctx context.Context, path string) (*Response, error) {
	return c.Call(ctx, http.MethodDelete, path, nil, nil, "")
}
