package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/joshuadavidthomas/copilotstatus/internal/app"
	"github.com/joshuadavidthomas/copilotstatus/internal/config"
	"github.com/joshuadavidthomas/copilotstatus/internal/credstore"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
	"github.com/joshuadavidthomas/copilotstatus/internal/querycache"
	"github.com/joshuadavidthomas/copilotstatus/internal/quota"
	"github.com/joshuadavidthomas/copilotstatus/internal/store"
	"github.com/joshuadavidthomas/copilotstatus/internal/testenv"
	"github.com/joshuadavidthomas/copilotstatus/internal/widget"
)

type fakeFetcher struct {
	quotas models.Quotas
	err    error
	calls  int
}

func (f *fakeFetcher) FetchQuota(context.Context, string) (models.Quotas, error) {
	f.calls++
	return f.quotas, f.err
}

// newTestApp builds an app around a temporary store and an in-memory token
// store, and installs a copy of it as the app every command opens. The
// returned app shares the token store, cache, and database with those copies.
func newTestApp(t *testing.T, token string, fetcher quota.Fetcher) *app.App {
	t.Helper()
	dirs := testenv.Apply(t.Setenv, t.TempDir())

	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(dirs.Data, "copilotstatus.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	tokens := &credstore.MemoryStore{}
	if token != "" {
		_ = tokens.Store(ctx, token)
	}

	cfg := config.DefaultConfig()
	cfg.Widget.File = filepath.Join(dirs.Data, "widget.json")
	cfg.Widget.Notify = false
	config.Override(t, cfg)

	syncer := &widget.Syncer{Mirror: st, Tokens: tokens, Renderers: app.Renderers(cfg, st)}
	svc := &quota.Service{Tokens: tokens, Fetcher: fetcher, Mirror: st, Widgets: syncer}

	a := &app.App{
		Config:  cfg,
		Logger:  log.New(&bytes.Buffer{}),
		Tokens:  tokens,
		Store:   st,
		Quota:   svc,
		Cache:   querycache.New(svc.FetchQuotas, querycache.Options{Retries: -1}),
		Mirror:  st,
		Widgets: syncer,
		Syncer:  syncer,
	}

	// Every command closes the app it opened, so each call gets its own
	// store connection on the shared database file.
	dbPath := st.Path()
	opened := []*store.Store{st}
	prev := newApp
	newApp = func(ctx context.Context, _ config.Config, _ *log.Logger) (*app.App, error) {
		conn, err := store.Open(ctx, dbPath)
		if err != nil {
			return nil, err
		}
		opened = append(opened, conn)
		clone := *a
		clone.Store = conn
		clone.Mirror = conn
		return &clone, nil
	}
	t.Cleanup(func() {
		newApp = prev
		for _, s := range opened {
			_ = s.Close()
		}
	})
	return a
}

// captureOutput redirects command output for the duration of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	outWriter = &buf
	t.Cleanup(func() { outWriter = os.Stdout })
	return &buf
}

// withJSON turns on --json for the duration of the test.
func withJSON(t *testing.T) {
	t.Helper()
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
}

func newTestContext() context.Context {
	ctx, _ := logging.NewTestContext(logging.Flags{})
	return ctx
}
