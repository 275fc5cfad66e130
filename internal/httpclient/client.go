// Package httpclient is the small JSON-over-HTTP layer used to talk to the
// GitHub REST API and the OAuth token endpoint.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout applies when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// MaxBodyBytes caps how much of a response body is read. Copilot quota and
// user payloads are a few kilobytes.
const MaxBodyBytes = 1 << 20

// Client sends GitHub API requests and buffers their responses.
type Client struct {
	http *http.Client
}

// New creates a Client with DefaultTimeout.
func New() *Client {
	return NewWithTimeout(DefaultTimeout)
}

// NewWithTimeout creates a Client with the given timeout. Zero or negative
// values fall back to DefaultTimeout.
func NewWithTimeout(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// NewWithHTTPClient wraps an existing http.Client, typically one produced by
// httptest.Server.Client in tests.
func NewWithHTTPClient(c *http.Client) *Client {
	return &Client{http: c}
}

// RequestOption configures an http.Request before it is sent.
type RequestOption func(*http.Request)

// Do sends one request and buffers at most MaxBodyBytes of the reply. The
// error covers transport failures and cancellation only: a 401 from GitHub
// still comes back as a Response.
func (c *Client) Do(ctx context.Context, method, rawURL string, body io.Reader, opts ...RequestOption) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: payload}, nil
}

// GetJSON fetches rawURL and decodes a successful reply into out. Decode
// failures land in Response.JSONErr.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any, opts ...RequestOption) (*Response, error) {
	resp, err := c.Do(ctx, http.MethodGet, rawURL, nil, opts...)
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		resp.decode(out)
	}
	return resp, nil
}

// PostJSON sends in as a JSON body and decodes the reply into out whatever
// the status. The OAuth token endpoint reports failures as a 200 with an
// error field, so the body always matters there.
func (c *Client) PostJSON(ctx context.Context, rawURL string, in, out any, opts ...RequestOption) (*Response, error) {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	opts = append([]RequestOption{WithHeader("Content-Type", "application/json")}, opts...)
	resp, err := c.Do(ctx, http.MethodPost, rawURL, body, opts...)
	if err != nil {
		return nil, err
	}
	resp.decode(out)
	return resp, nil
}
