package widget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshuadavidthomas/copilotstatus/internal/credstore"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
	"github.com/joshuadavidthomas/copilotstatus/internal/store"
)

// Renderer is one widget surface.
type Renderer interface {
	Name() string
	Render(ctx context.Context, v View) error
	Clear(ctx context.Context) error
}

// MirrorReader is the read side of the persisted mirror.
type MirrorReader interface {
	LoadQuota(ctx context.Context) (*models.Quotas, time.Time, error)
	Username(ctx context.Context) (string, error)
	ThemePreference(ctx context.Context) (store.Theme, error)
}

// Syncer pushes views to every renderer. Renderer failures are logged and
// never reach the caller of Sync or SyncFromMirror.
type Syncer struct {
	Mirror    MirrorReader
	Tokens    credstore.TokenStore
	Renderers []Renderer
}

// Sync renders q, fetched at fetchedAt, using the mirror only for the
// username and theme.
func (s *Syncer) Sync(ctx context.Context, q models.Quotas, fetchedAt time.Time) {
	username, theme := s.profile(ctx)
	s.render(ctx, PrepareWidgetData(&q, username, fetchedAt, theme))
}

// SyncFromMirror renders whatever the mirror holds without fetching. With no
// quota or no token the signed-out view is rendered.
func (s *Syncer) SyncFromMirror(ctx context.Context) {
	s.render(ctx, s.CurrentView(ctx))
}

// CurrentView builds the view from the mirror.
func (s *Syncer) CurrentView(ctx context.Context) View {
	logger := logging.FromContext(ctx)
	username, theme := s.profile(ctx)

	if s.Tokens != nil {
		token, err := s.Tokens.Get(ctx)
		if err != nil {
			logger.Debug("widget: reading token failed", "err", err)
		}
		if token == "" {
			return PrepareWidgetData(nil, username, time.Time{}, theme)
		}
	}

	q, lastFetch, err := s.Mirror.LoadQuota(ctx)
	if err != nil {
		logger.Debug("widget: reading mirror failed", "err", err)
		return PrepareWidgetData(nil, username, time.Time{}, theme)
	}
	return PrepareWidgetData(q, username, lastFetch, theme)
}

func (s *Syncer) profile(ctx context.Context) (string, store.Theme) {
	if s.Mirror == nil {
		return "", store.ThemeSystem
	}
	logger := logging.FromContext(ctx)
	username, err := s.Mirror.Username(ctx)
	if err != nil {
		logger.Debug("widget: reading username failed", "err", err)
	}
	theme, err := s.Mirror.ThemePreference(ctx)
	if err != nil {
		logger.Debug("widget: reading theme failed", "err", err)
	}
	return username, theme
}

func (s *Syncer) render(ctx context.Context, v View) {
	logger := logging.FromContext(ctx)
	for _, r := range s.Renderers {
		if err := safeCall(func() error { return r.Render(ctx, v) }); err != nil {
			logger.Warn("widget render failed", "widget", r.Name(), "err", err)
		}
	}
}

// Clear resets every renderer to the signed-out state. It visits all
// renderers and returns their joined errors for callers that report them.
func (s *Syncer) Clear(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	var errs []error
	for _, r := range s.Renderers {
		if err := safeCall(func() error { return r.Clear(ctx) }); err != nil {
			logger.Debug("widget clear failed", "widget", r.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// safeCall turns a renderer panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
