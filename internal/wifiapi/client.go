package wifiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/muurk/wifipanel/internal/logging"
)

const (
	// Endpoint is the fixed namespace of the device WiFi API
	Endpoint = "/api/wifi"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// ContentType is sent with every request, bodies or not
	ContentType = "application/json"
)

// Method is an HTTP method supported by the wrapper.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodDelete Method = http.MethodDelete
)

// Client talks to one device's WiFi API
type Client struct {
	// BaseURL is the device origin (e.g., "http://192.168.4.1")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.HTTPClient.Timeout = d
	}
}

// NewClient creates a client for the device at baseURL.
// A bare host ("192.168.4.1" or "host:8081") gets an http:// scheme.
func NewClient(baseURL string, opts ...Option) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the absolute URL of an API path (e.g., "/scan").
func (c *Client) URL(path string) string {
	return c.BaseURL + Endpoint + path
}

// Request performs one JSON request against url and decodes the response
// into out. An empty method means GET; a nil body sends no body; a nil out
// discards the response. Non-2xx responses fail with a *RequestError and are
// never retried.
func (c *Client) Request(ctx context.Context, url string, method Method, body any, out any) error {
	if method == "" {
		method = MethodGet
	}
	m := string(method)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, m, url, reader)
	if err != nil {
		return newNetworkError(m, url, err)
	}
	req.Header.Set("Content-Type", ContentType)
	req.Header.Set("Accept", ContentType)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		reqErr := newNetworkError(m, url, err)
		logging.LogAPICall(m, url, 0, time.Since(start), reqErr)
		return reqErr
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := newHTTPError(m, url, resp)
		logging.LogAPICall(m, url, resp.StatusCode, time.Since(start), reqErr)
		return reqErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		reqErr := newNetworkError(m, url, err)
		logging.LogAPICall(m, url, resp.StatusCode, time.Since(start), reqErr)
		return reqErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			reqErr := newParseError(m, url, err)
			logging.LogAPICall(m, url, resp.StatusCode, time.Since(start), reqErr)
			return reqErr
		}
	}

	logging.LogAPICall(m, url, resp.StatusCode, time.Since(start), nil)
	return nil
}
