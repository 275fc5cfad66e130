package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/joshuadavidthomas/copilotstatus/internal/background"
	"github.com/joshuadavidthomas/copilotstatus/internal/credstore"
	"github.com/joshuadavidthomas/copilotstatus/internal/github"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
	"github.com/joshuadavidthomas/copilotstatus/internal/oauth"
	"github.com/joshuadavidthomas/copilotstatus/internal/querycache"
	"github.com/joshuadavidthomas/copilotstatus/internal/store"
)

type fakeAuth struct {
	token string
	err   error
	code  string
}

func (f *fakeAuth) Exchange(_ context.Context, code, _ string) (string, error) {
	f.code = code
	return f.token, f.err
}

func (f *fakeAuth) Login(context.Context, io.Writer, oauth.BrowserOpener) (string, error) {
	return f.token, f.err
}

type fakeUsers struct {
	login string
	err   error
}

func (f fakeUsers) FetchUser(context.Context, string) (github.UserResponse, error) {
	return github.UserResponse{Login: f.login}, f.err
}

type fakeMirror struct {
	cleared        int
	historyCleared int
	username       string
	theme          store.Theme
	interval       int
	err            error
}

func (m *fakeMirror) ClearQuota(context.Context) error {
	m.cleared++
	return m.err
}

func (m *fakeMirror) ClearHistory(context.Context) error {
	m.historyCleared++
	return m.err
}

func (m *fakeMirror) SetUsername(_ context.Context, u string) error {
	m.username = u
	return nil
}

func (m *fakeMirror) SetThemePreference(_ context.Context, t store.Theme) error {
	m.theme = t
	return m.err
}

func (m *fakeMirror) SetFetchIntervalMinutes(_ context.Context, n int) error {
	m.interval = n
	return m.err
}

type fakeWidgets struct {
	err     error
	panics  bool
	cleared int
	synced  int
}

func (w *fakeWidgets) SyncFromMirror(context.Context) { w.synced++ }

func (w *fakeWidgets) Clear(context.Context) error {
	w.cleared++
	if w.panics {
		panic("widget bridge gone")
	}
	return w.err
}

type fakeRegistrar struct {
	registered []background.Interval
	err        error
}

func (r *fakeRegistrar) Register(i background.Interval) error {
	r.registered = append(r.registered, i)
	return r.err
}

func (r *fakeRegistrar) Unregister() error                  { return nil }
func (r *fakeRegistrar) Status() (background.Status, error) { return background.StatusNotInstalled, nil }

func newCache(t *testing.T) *querycache.Cache {
	t.Helper()
	c := querycache.New(func(context.Context) (models.Quotas, error) {
		return models.Quotas{}, errors.New("unused")
	}, querycache.Options{})
	c.SetData(context.Background(), models.Quotas{Premium: models.QuotaInfo{TotalQuota: 100}}, time.Now())
	return c
}

func TestSignOut_ClearsTokenAndCacheWhenWidgetClearFails(t *testing.T) {
	tests := []struct {
		name    string
		widgets *fakeWidgets
	}{
		{"error", &fakeWidgets{err: errors.New("bridge rejected")}},
		{"panic", &fakeWidgets{panics: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := logging.NewTestContext(logging.Flags{})
			tokens := &credstore.MemoryStore{}
			_ = tokens.Store(ctx, "gho_abc")
			mirror := &fakeMirror{}
			a := &App{Tokens: tokens, Cache: newCache(t), Mirror: mirror, Widgets: tt.widgets}

			if err := a.SignOut(ctx); err != nil {
				t.Fatalf("SignOut() error = %v", err)
			}
			if tokens.ClearCalls != 1 {
				t.Errorf("token clear calls = %d, want 1", tokens.ClearCalls)
			}
			if a.Cache.Snapshot().Data != nil {
				t.Error("cache still holds data after sign-out")
			}
			if mirror.cleared != 1 {
				t.Errorf("mirror clears = %d, want 1", mirror.cleared)
			}
			if mirror.historyCleared != 1 {
				t.Errorf("history clears = %d, want 1", mirror.historyCleared)
			}
			if tt.widgets.cleared != 1 {
				t.Errorf("widget clears = %d, want 1", tt.widgets.cleared)
			}
		})
	}
}

func TestSignOut_ReportsTokenClearFailure(t *testing.T) {
	ctx, _ := logging.NewTestContext(logging.Flags{})
	tokens := &credstore.MemoryStore{Err: errors.New("keychain locked")}
	a := &App{Tokens: tokens, Cache: newCache(t), Widgets: &fakeWidgets{}}

	err := a.SignOut(ctx)
	if err == nil {
		t.Fatal("expected an error")
	}
	if a.Cache.Snapshot().Data != nil {
		t.Error("cache should be cleared even when the token clear fails")
	}
}

func TestSignOut_ReportsHistoryClearFailure(t *testing.T) {
	ctx, _ := logging.NewTestContext(logging.Flags{})
	tokens := &credstore.MemoryStore{}
	mirror := &fakeMirror{err: errors.New("database is locked")}
	a := &App{Tokens: tokens, Mirror: mirror}

	err := a.SignOut(ctx)
	if err == nil || !strings.Contains(err.Error(), "clearing history") {
		t.Fatalf("SignOut() error = %v, want a history clear failure", err)
	}
	if mirror.historyCleared != 1 {
		t.Errorf("history clears = %d, want 1", mirror.historyCleared)
	}
}

func TestSignIn_StoresTokenAndUsername(t *testing.T) {
	ctx, _ := logging.NewTestContext(logging.Flags{})
	tokens := &credstore.MemoryStore{}
	mirror := &fakeMirror{}
	auth := &fakeAuth{token: "gho_new"}
	a := &App{Tokens: tokens, Auth: auth, Users: fakeUsers{login: "octocat"}, Mirror: mirror}

	login, err := a.SignIn(ctx, "the-code", "verifier")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if login != "octocat" {
		t.Errorf("login = %q, want octocat", login)
	}
	if auth.code != "the-code" {
		t.Errorf("exchanged code = %q", auth.code)
	}
	if tok, _ := tokens.Get(ctx); tok != "gho_new" {
		t.Errorf("stored token = %q", tok)
	}
	if u, _ := tokens.GetUsername(ctx); u != "octocat" {
		t.Errorf("stored username = %q", u)
	}
	if mirror.username != "octocat" {
		t.Errorf("mirrored username = %q", mirror.username)
	}

	ok, err := a.CheckAuth(ctx)
	if err != nil || !ok {
		t.Errorf("CheckAuth() = %v, %v; want true", ok, err)
	}
}

func TestSignIn_ProfileFailureStillSignsIn(t *testing.T) {
	ctx, buf := logging.NewTestContext(logging.Flags{})
	tokens := &credstore.MemoryStore{}
	a := &App{Tokens: tokens, Auth: &fakeAuth{token: "gho_new"}, Users: fakeUsers{err: errors.New("503")}}

	login, err := a.SignIn(ctx, "code", "")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if login != "" {
		t.Errorf("login = %q, want empty", login)
	}
	if tok, _ := tokens.Get(ctx); tok != "gho_new" {
		t.Errorf("stored token = %q", tok)
	}
	if buf.Len() == 0 {
		t.Error("expected a warning about the profile lookup")
	}
}

func TestSignIn_ExchangeFailureStoresNothing(t *testing.T) {
	ctx, _ := logging.NewTestContext(logging.Flags{})
	tokens := &credstore.MemoryStore{}
	want := &oauth.AuthExchangeError{Code: "bad_verification_code", Description: "The code is invalid"}
	a := &App{Tokens: tokens, Auth: &fakeAuth{err: want}, Users: fakeUsers{}}

	_, err := a.SignIn(ctx, "code", "")
	var ae *oauth.AuthExchangeError
	if !errors.As(err, &ae) {
		t.Fatalf("error = %v, want *oauth.AuthExchangeError", err)
	}
	if tok, _ := tokens.Get(ctx); tok != "" {
		t.Errorf("token stored after failed exchange: %q", tok)
	}
}

func TestSetFetchInterval(t *testing.T) {
	ctx, _ := logging.NewTestContext(logging.Flags{})
	mirror := &fakeMirror{}
	reg := &fakeRegistrar{}
	a := &App{Mirror: mirror, Registrar: reg}

	if err := a.SetFetchInterval(ctx, background.Every30); err != nil {
		t.Fatalf("SetFetchInterval() error = %v", err)
	}
	if mirror.interval != 30 {
		t.Errorf("saved interval = %d, want 30", mirror.interval)
	}
	if len(reg.registered) != 1 || reg.registered[0] != background.Every30 {
		t.Errorf("registered = %v", reg.registered)
	}

	if err := a.SetFetchInterval(ctx, background.Interval(7)); err == nil {
		t.Error("expected an error for an unsupported interval")
	}

	reg.err = errors.New("launchctl failed")
	if err := a.SetFetchInterval(ctx, background.Never); err == nil {
		t.Error("expected the registrar error to surface")
	}
	if mirror.interval != 0 {
		t.Errorf("interval should be saved before registering, got %d", mirror.interval)
	}
}

func TestSetTheme_Resyncs(t *testing.T) {
	ctx, _ := logging.NewTestContext(logging.Flags{})
	mirror := &fakeMirror{}
	w := &fakeWidgets{}
	a := &App{Mirror: mirror, Widgets: w}

	if err := a.SetTheme(ctx, store.ThemeLight); err != nil {
		t.Fatalf("SetTheme() error = %v", err)
	}
	if mirror.theme != store.ThemeLight {
		t.Errorf("theme = %q", mirror.theme)
	}
	if w.synced != 1 {
		t.Errorf("widget syncs = %d, want 1", w.synced)
	}
}
