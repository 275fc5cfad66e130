// Package quota runs one authenticated quota fetch and fans the result out to
// the persisted mirror, the usage history, and the widgets.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/joshuadavidthomas/copilotstatus/internal/credstore"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

// ErrNotAuthenticated is returned when no token is stored.
var ErrNotAuthenticated = errors.New("not signed in: run `copilotstatus auth login`")

// ErrTokenChanged is returned when the stored token was cleared or replaced
// while the fetch was in flight. Nothing is recorded.
var ErrTokenChanged = errors.New("signed out or switched accounts during the quota fetch")

// Fetcher retrieves quotas for a token.
type Fetcher interface {
	FetchQuota(ctx context.Context, token string) (models.Quotas, error)
}

// Mirror persists the latest quotas for processes that do not share the
// in-memory cache.
type Mirror interface {
	SaveQuota(ctx context.Context, q models.Quotas, fetchedAt time.Time) error
	AppendHistory(ctx context.Context, q models.Quotas, fetchedAt time.Time) error
}

// WidgetSyncer pushes quotas to the widgets. It reports nothing back.
type WidgetSyncer interface {
	Sync(ctx context.Context, q models.Quotas, fetchedAt time.Time)
}

// Result is a successful fetch.
type Result struct {
	Quotas    models.Quotas
	FetchedAt time.Time
}

// Service is the authenticated fetch path shared by the foreground cache and
// the background agent. Mirror and Widgets are optional.
type Service struct {
	Tokens  credstore.TokenStore
	Fetcher Fetcher
	Mirror  Mirror
	Widgets WidgetSyncer
	Clock   clockwork.Clock
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

// Token returns the stored token or ErrNotAuthenticated.
func (s *Service) Token(ctx context.Context) (string, error) {
	token, err := s.Tokens.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// Fetch reads the token, fetches quotas, and records them. Only the token
// read and the fetch itself can fail; mirror, history, and widget problems
// are logged.
func (s *Service) Fetch(ctx context.Context) (Result, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return Result{}, err
	}

	q, err := s.Fetcher.FetchQuota(ctx, token)
	if err != nil {
		return Result{}, err
	}

	// A sign-out or account switch during the request must not resurrect
	// the mirror or the widgets.
	if current, err := s.Tokens.Get(ctx); err != nil || current != token {
		logging.FromContext(ctx).Debug("token changed during quota fetch, dropping result")
		return Result{}, ErrTokenChanged
	}

	res := Result{Quotas: q, FetchedAt: s.now()}
	s.record(ctx, res)
	return res, nil
}

func (s *Service) record(ctx context.Context, res Result) {
	logger := logging.FromContext(ctx)

	if s.Mirror != nil {
		if err := s.Mirror.SaveQuota(ctx, res.Quotas, res.FetchedAt); err != nil {
			logger.Warn("saving quota mirror failed", "err", err)
		}
		if err := s.Mirror.AppendHistory(ctx, res.Quotas, res.FetchedAt); err != nil {
			logger.Debug("recording quota history failed", "err", err)
		}
	}
	if s.Widgets != nil {
		s.Widgets.Sync(ctx, res.Quotas, res.FetchedAt)
	}
}

// FetchQuotas is Fetch shaped for the query cache.
func (s *Service) FetchQuotas(ctx context.Context) (models.Quotas, error) {
	res, err := s.Fetch(ctx)
	if err != nil {
		return models.Quotas{}, err
	}
	return res.Quotas, nil
}
