// Package background refreshes the quota mirror outside the interactive
// app: a one-shot task, the long-running agent, and its OS service
// registration.
package background

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/quota"
)

// Result is what a task run reports to its scheduler.
type Result int

const (
	ResultSuccess Result = iota
	ResultFailed
)

func (r Result) String() string {
	if r == ResultSuccess {
		return "success"
	}
	return "failed"
}

// Fetcher is the authenticated fetch the task drives. quota.Service
// satisfies it; it writes the mirror and syncs widgets on success.
type Fetcher interface {
	Fetch(ctx context.Context) (quota.Result, error)
}

// Task performs one background refresh. It bypasses the in-memory cache
// because it usually runs in a different process.
type Task struct {
	Fetcher Fetcher
}

// Run never panics; every failure, including a missing token, is
// ResultFailed.
func (t *Task) Run(ctx context.Context) (res Result) {
	logger := logging.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("background refresh panicked", "panic", fmt.Sprint(r))
			res = ResultFailed
		}
	}()

	out, err := t.Fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, quota.ErrNotAuthenticated) {
			logger.Warn("background refresh skipped: not signed in")
		} else {
			logger.Error("background refresh failed", "err", err)
		}
		return ResultFailed
	}

	p := out.Quotas.Primary()
	logger.Info("quota refreshed", "used", p.UsedQuota, "total", p.TotalQuota, "unlimited", p.Unlimited)
	return ResultSuccess
}
