package widget

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

// StatusStore remembers the last level the notifier saw, so a level is
// announced once per transition even across processes.
type StatusStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// NotifyFunc shows a desktop notification.
type NotifyFunc func(title, message string) error

func beeepNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// NotifyRenderer raises a desktop notification when usage enters the
// critical band and again when it drops back to good after a reset.
type NotifyRenderer struct {
	Store  StatusStore
	Key    string
	Notify NotifyFunc
}

func NewNotifyRenderer(s StatusStore, key string) *NotifyRenderer {
	return &NotifyRenderer{Store: s, Key: key, Notify: beeepNotify}
}

func (r *NotifyRenderer) Name() string { return "notify" }

func (r *NotifyRenderer) Render(ctx context.Context, v View) error {
	if !v.SignedIn {
		return nil
	}
	level := v.Level()
	prev, _, err := r.Store.Get(ctx, r.Key)
	if err != nil {
		return fmt.Errorf("reading last widget status: %w", err)
	}
	if prev == string(level) {
		return nil
	}

	if err := r.Store.Set(ctx, r.Key, string(level)); err != nil {
		return fmt.Errorf("saving widget status: %w", err)
	}

	switch {
	case level == models.StatusCritical:
		return r.Notify("Copilot quota almost used",
			fmt.Sprintf("%.0f%% of premium requests used (%.0f left).", v.PercentUsed, v.Remaining()))
	case level == models.StatusGood && prev == string(models.StatusCritical):
		return r.Notify("Copilot quota reset",
			fmt.Sprintf("%.0f premium requests available.", v.Remaining()))
	}
	return nil
}

func (r *NotifyRenderer) Clear(ctx context.Context) error {
	return r.Store.Delete(ctx, r.Key)
}
