package github

import (
	"errors"
	"fmt"

	"github.com/joshuadavidthomas/copilotstatus/internal/httpclient"
)

// ErrUnauthorized is wrapped by APIError for HTTP 401 responses.
var ErrUnauthorized = errors.New("github token rejected")

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode  int
	Body        string
	RateLimited bool
}

func (e *APIError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("GitHub API rate limit exceeded (%d); wait for the limit to reset", e.StatusCode)
	}
	switch e.StatusCode {
	case 401:
		return "GitHub rejected the token (401). Run `copilotstatus auth login` to sign in again."
	case 403:
		return "not authorized (403): the account may not have a Copilot subscription"
	case 404:
		return "Copilot API not found (404): the account may not have Copilot access"
	}
	if e.Body != "" {
		return fmt.Sprintf("GitHub API returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("GitHub API returned %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == 401 {
		return ErrUnauthorized
	}
	return nil
}

// IsClientError reports whether the response was a 4xx.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func newAPIError(resp *httpclient.Response) *APIError {
	return &APIError{
		StatusCode:  resp.StatusCode,
		Body:        httpclient.SummarizeBody(resp.Body),
		RateLimited: resp.RateLimited(),
	}
}

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
