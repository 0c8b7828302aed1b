// Package registry provides an HTTP client for a remote concept
// dictionary service, used as a fallback source of numeric-range metadata
// when the local dictionary has no entry for a concept.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/openobs/validator/service"
)

const (
	// DefaultTimeout for HTTP requests.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryMax bounds the retry attempts per request.
	DefaultRetryMax = 3
)

// Client is a concept dictionary REST client. It implements
// service.ConceptRangeResolver.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets the dictionary service base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithRetryMax sets the maximum number of retries per request.
func WithRetryMax(n int) ClientOption {
	return func(c *Client) {
		c.httpClient.RetryMax = n
	}
}

// NewClient creates a new dictionary client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = DefaultRetryMax
	retryClient.HTTPClient.Timeout = DefaultTimeout
	retryClient.Logger = nil

	c := &Client{
		httpClient: retryClient,
		baseURL:    baseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// numericRangePayload is the wire form of a numeric range lookup.
type numericRangePayload struct {
	Precise     bool     `json:"precise"`
	LowAbsolute *float64 `json:"lowAbsolute"`
	HiAbsolute  *float64 `json:"hiAbsolute"`
}

// ResolveNumericRange fetches the numeric metadata for a concept from
// GET {base}/ws/rest/concept/{id}/numeric. A 404 maps to
// service.ErrNotFound so chains can fall through.
func (c *Client) ResolveNumericRange(ctx context.Context, conceptID int) (*service.NumericRange, error) {
	url := fmt.Sprintf("%s/ws/rest/concept/%d/numeric", c.baseURL, conceptID)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch numeric range: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("numeric concept %d: %w", conceptID, service.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("numeric range lookup for concept %d: status %d", conceptID, resp.StatusCode)
	}

	var payload numericRangePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode numeric range: %w", err)
	}

	return payload.toRange(), nil
}
