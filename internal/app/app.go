// Package app wires the token store, fetcher, cache, mirror, and widgets
// into one object owned by the command being run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/joshuadavidthomas/copilotstatus/internal/background"
	"github.com/joshuadavidthomas/copilotstatus/internal/config"
	"github.com/joshuadavidthomas/copilotstatus/internal/credstore"
	"github.com/joshuadavidthomas/copilotstatus/internal/github"
	"github.com/joshuadavidthomas/copilotstatus/internal/httpclient"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/oauth"
	"github.com/joshuadavidthomas/copilotstatus/internal/querycache"
	"github.com/joshuadavidthomas/copilotstatus/internal/quota"
	"github.com/joshuadavidthomas/copilotstatus/internal/store"
	"github.com/joshuadavidthomas/copilotstatus/internal/widget"
)

// Authenticator exchanges authorization codes and runs the browser login.
type Authenticator interface {
	Exchange(ctx context.Context, code, codeVerifier string) (string, error)
	Login(ctx context.Context, w io.Writer, open oauth.BrowserOpener) (string, error)
}

// UserFetcher looks up the signed-in user.
type UserFetcher interface {
	FetchUser(ctx context.Context, token string) (github.UserResponse, error)
}

// Mirror is the part of the store the app writes directly.
type Mirror interface {
	ClearQuota(ctx context.Context) error
	ClearHistory(ctx context.Context) error
	SetUsername(ctx context.Context, username string) error
	SetThemePreference(ctx context.Context, t store.Theme) error
	SetFetchIntervalMinutes(ctx context.Context, minutes int) error
}

// Widgets is the widget fan-out.
type Widgets interface {
	SyncFromMirror(ctx context.Context)
	Clear(ctx context.Context) error
}

// Registrar installs and removes the background agent.
type Registrar interface {
	Register(interval background.Interval) error
	Unregister() error
	Status() (background.Status, error)
}

type App struct {
	Config config.Config
	Logger *log.Logger

	Tokens    credstore.TokenStore
	Store     *store.Store
	Auth      Authenticator
	Users     UserFetcher
	Quota     *quota.Service
	Cache     *querycache.Cache
	Mirror    Mirror
	Widgets   Widgets
	Syncer    *widget.Syncer
	Agent     *background.Agent
	Registrar Registrar
}

// New opens the store and builds every collaborator from cfg.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, error) {
	st, err := store.Open(ctx, config.StoreFile())
	if err != nil {
		return nil, err
	}

	hc := httpclient.NewWithTimeout(cfg.FetchTimeout())
	gh := github.NewClient(github.WithHTTPClient(hc))
	tokens := credstore.New(cfg)

	syncer := &widget.Syncer{
		Mirror:    st,
		Tokens:    tokens,
		Renderers: Renderers(cfg, st),
	}

	svc := &quota.Service{
		Tokens:  tokens,
		Fetcher: gh,
		Mirror:  st,
		Widgets: syncer,
	}

	cache := querycache.New(svc.FetchQuotas, querycache.Options{
		StaleTime: cfg.StaleTime(),
		Retries:   cfg.Cache.Retries,
		Persister: store.CachePersister{Store: st},
	})
	if err := cache.Restore(logging.WithLogger(ctx, logger)); err != nil {
		logger.Debug("restoring query cache failed", "err", err)
	}

	agent := &background.Agent{Task: &background.Task{Fetcher: svc}, Logger: logger}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Store:     st,
		Auth:      oauth.NewClient(cfg.OAuth, oauth.WithHTTPClient(hc)),
		Users:     gh,
		Quota:     svc,
		Cache:     cache,
		Mirror:    st,
		Widgets:   syncer,
		Syncer:    syncer,
		Agent:     agent,
		Registrar: background.NewRegistrar(agent),
	}, nil
}

// Renderers builds the widget surfaces enabled in cfg.
func Renderers(cfg config.Config, st *store.Store) []widget.Renderer {
	var rs []widget.Renderer
	if cfg.Widget.File != "" {
		rs = append(rs, &widget.FileRenderer{Path: cfg.Widget.File})
	}
	if cfg.Widget.Notify {
		rs = append(rs, widget.NewNotifyRenderer(st, store.KeyWidgetStatus))
	}
	return rs
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// CheckAuth reports whether a token is stored.
func (a *App) CheckAuth(ctx context.Context) (bool, error) {
	return credstore.IsAuthenticated(ctx, a.Tokens)
}

// SignIn exchanges an authorization code and stores the resulting token.
// It returns the GitHub login when the profile lookup succeeds.
func (a *App) SignIn(ctx context.Context, code, codeVerifier string) (string, error) {
	token, err := a.Auth.Exchange(ctx, code, codeVerifier)
	if err != nil {
		return "", err
	}
	return a.completeSignIn(ctx, token)
}

// Login runs the browser flow and stores the resulting token.
func (a *App) Login(ctx context.Context, w io.Writer, open oauth.BrowserOpener) (string, error) {
	token, err := a.Auth.Login(ctx, w, open)
	if err != nil {
		return "", err
	}
	return a.completeSignIn(ctx, token)
}

func (a *App) completeSignIn(ctx context.Context, token string) (string, error) {
	if err := a.Tokens.Store(ctx, token); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	logger := logging.FromContext(ctx)
	user, err := a.Users.FetchUser(ctx, token)
	if err != nil {
		logger.Warn("signed in, but fetching the GitHub profile failed", "err", err)
		return "", nil
	}
	if err := a.Tokens.StoreUsername(ctx, user.Login); err != nil {
		logger.Warn("storing username failed", "err", err)
	}
	if a.Mirror != nil {
		if err := a.Mirror.SetUsername(ctx, user.Login); err != nil {
			logger.Debug("mirroring username failed", "err", err)
		}
	}
	return user.Login, nil
}

// SignOut removes the token, every cached copy of the quota and the recorded
// usage history. Store failures are reported; widget failures are only logged.
func (a *App) SignOut(ctx context.Context) error {
	var errs []error
	if err := a.Tokens.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clearing token: %w", err))
	}
	if a.Cache != nil {
		if err := a.Cache.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clearing cache: %w", err))
		}
	}
	if a.Mirror != nil {
		if err := a.Mirror.ClearQuota(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clearing mirror: %w", err))
		}
		if err := a.Mirror.ClearHistory(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clearing history: %w", err))
		}
	}
	a.clearWidgets(ctx)
	return errors.Join(errs...)
}

func (a *App) clearWidgets(ctx context.Context) {
	if a.Widgets == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Debug("widget clear panicked", "panic", r)
		}
	}()
	if err := a.Widgets.Clear(ctx); err != nil {
		logging.FromContext(ctx).Debug("widget clear failed", "err", err)
	}
}

// SetTheme saves the theme and re-renders the widgets with it.
func (a *App) SetTheme(ctx context.Context, t store.Theme) error {
	if err := a.Mirror.SetThemePreference(ctx, t); err != nil {
		return err
	}
	if a.Widgets != nil {
		a.Widgets.SyncFromMirror(ctx)
	}
	return nil
}

// SetFetchInterval saves the interval and (re)registers the agent.
func (a *App) SetFetchInterval(ctx context.Context, i background.Interval) error {
	if !i.Valid() {
		return fmt.Errorf("invalid interval %d", int(i))
	}
	if err := a.Mirror.SetFetchIntervalMinutes(ctx, int(i)); err != nil {
		return err
	}
	if a.Registrar == nil {
		return nil
	}
	if err := a.Registrar.Register(i); err != nil {
		return fmt.Errorf("interval saved, but updating the background agent failed: %w", err)
	}
	return nil
}

// LastUpdated returns the mirror's last fetch time, zero if none.
func (a *App) LastUpdated(ctx context.Context) time.Time {
	if a.Store == nil {
		return time.Time{}
	}
	t, _ := a.Store.LastFetch(ctx)
	return t
}
