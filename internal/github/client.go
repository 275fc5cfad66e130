// Package github fetches the signed-in user and their Copilot quota from the
// GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshuadavidthomas/copilotstatus/internal/httpclient"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

const (
	DefaultBaseURL = "https://api.github.com"
	userAgent      = "copilotstatus"
	apiVersion     = "2022-11-28"
)

var errMissingPremium = errors.New("no quota snapshot in Copilot response")

// Client calls the GitHub API. It never retries; retries belong to the
// query cache.
type Client struct {
	http    *httpclient.Client
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *httpclient.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(opts ...Option) *Client {
	c := &Client{http: httpclient.New(), baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	resp, err := c.http.GetJSON(ctx, c.baseURL+path, out,
		httpclient.WithBearer(token),
		httpclient.WithAcceptJSON(),
		httpclient.WithUserAgent(userAgent),
		httpclient.WithHeader("X-GitHub-Api-Version", apiVersion),
	)
	if err != nil {
		return &NetworkError{Op: "GET " + path, Err: err}
	}
	if !resp.OK() {
		return newAPIError(resp)
	}
	if resp.JSONErr != nil {
		return fmt.Errorf("decoding %s response: %w", path, resp.JSONErr)
	}
	return nil
}

// FetchUser returns the authenticated user's profile.
func (c *Client) FetchUser(ctx context.Context, token string) (UserResponse, error) {
	var user UserResponse
	if err := c.get(ctx, "/user", token, &user); err != nil {
		return UserResponse{}, err
	}
	return user, nil
}

// FetchQuota returns the account's Copilot quotas.
func (c *Client) FetchQuota(ctx context.Context, token string) (models.Quotas, error) {
	var resp CopilotUserResponse
	if err := c.get(ctx, "/copilot_internal/user", token, &resp); err != nil {
		return models.Quotas{}, err
	}
	return Normalize(resp)
}
