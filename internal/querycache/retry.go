package querycache

import (
	"context"
	"errors"
	"time"

	"github.com/joshuadavidthomas/copilotstatus/internal/github"
	"github.com/joshuadavidthomas/copilotstatus/internal/quota"
)

const (
	// DefaultRetries is the number of retries after the first failed attempt.
	DefaultRetries = 2

	retryBase = time.Second
	retryCap  = 30 * time.Second
)

// RetryDelay returns the wait before retry number attempt (zero-based):
// 1s, 2s, 4s, ... capped at 30s.
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return retryCap
	}
	return min(retryBase<<attempt, retryCap)
}

// ShouldRetry reports whether a failed fetch is worth repeating. Missing or
// replaced credentials, cancellation, and 4xx responses are final.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, quota.ErrNotAuthenticated) ||
		errors.Is(err, quota.ErrTokenChanged) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *github.APIError
	if errors.As(err, &apiErr) && apiErr.IsClientError() {
		return false
	}
	return true
}
