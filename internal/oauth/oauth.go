// Package oauth signs the user in to GitHub with the authorization-code flow
// and exchanges the returned code for an access token.
package oauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/joshuadavidthomas/copilotstatus/internal/config"
	"github.com/joshuadavidthomas/copilotstatus/internal/httpclient"
)

// Scopes requested during sign-in.
var Scopes = []string{"read:org", "read:user"}

// AuthExchangeError is returned when the token endpoint answers with an OAuth
// error instead of a token.
type AuthExchangeError struct {
	Code        string
	Description string
}

func (e *AuthExchangeError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

// ErrNoToken is returned when the token endpoint answers without an error
// and without a token.
var ErrNoToken = errors.New("token endpoint returned no access token")

type exchangeRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier,omitempty"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Client talks to the GitHub OAuth endpoints.
type Client struct {
	cfg      config.OAuthConfig
	http     *httpclient.Client
	authURL  string
	tokenURL string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the authorization and token URLs.
func WithEndpoint(authURL, tokenURL string) Option {
	return func(c *Client) {
		c.authURL = authURL
		c.tokenURL = tokenURL
	}
}

// WithHTTPClient replaces the HTTP client used for the exchange.
func WithHTTPClient(h *httpclient.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg config.OAuthConfig, opts ...Option) *Client {
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = config.DefaultRedirectURI
	}
	c := &Client{
		cfg:      cfg,
		http:     httpclient.New(),
		authURL:  github.Endpoint.AuthURL,
		tokenURL: github.Endpoint.TokenURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RedirectURI returns the callback URL registered with the OAuth app.
func (c *Client) RedirectURI() string {
	return c.cfg.RedirectURI
}

func (c *Client) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		RedirectURL:  c.cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.authURL,
			TokenURL: c.tokenURL,
		},
	}
}

// AuthCodeURL builds the authorization URL. A non-empty verifier adds an
// S256 PKCE challenge.
func (c *Client) AuthCodeURL(state, verifier string) string {
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	return c.oauth2Config().AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for an access token. The code is
// single-use, so the request is never retried. Transport errors are returned
// as-is.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier string) (string, error) {
	body := exchangeRequest{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Code:         code,
		RedirectURI:  c.cfg.RedirectURI,
		CodeVerifier: codeVerifier,
	}

	var tok tokenResponse
	resp, err := c.http.PostJSON(ctx, c.tokenURL, body, &tok, httpclient.WithAcceptJSON())
	if err != nil {
		return "", err
	}
	if resp.JSONErr != nil {
		return "", fmt.Errorf("decoding token response (HTTP %d): %w", resp.StatusCode, resp.JSONErr)
	}
	if tok.Error != "" {
		return "", &AuthExchangeError{Code: tok.Error, Description: tok.ErrorDescription}
	}
	if tok.AccessToken == "" {
		return "", ErrNoToken
	}
	return tok.AccessToken, nil
}
