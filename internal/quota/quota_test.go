package quota

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/joshuadavidthomas/copilotstatus/internal/credstore"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

type stubFetcher struct {
	q      models.Quotas
	err    error
	tokens []string
	// during runs while the request is in flight.
	during func()
}

func (f *stubFetcher) FetchQuota(_ context.Context, token string) (models.Quotas, error) {
	f.tokens = append(f.tokens, token)
	if f.during != nil {
		f.during()
	}
	return f.q, f.err
}

type stubMirror struct {
	saveErr, historyErr error
	saved               []time.Time
	history             int
}

func (m *stubMirror) SaveQuota(_ context.Context, _ models.Quotas, at time.Time) error {
	m.saved = append(m.saved, at)
	return m.saveErr
}

func (m *stubMirror) AppendHistory(context.Context, models.Quotas, time.Time) error {
	m.history++
	return m.historyErr
}

type stubWidgets struct{ synced int }

func (w *stubWidgets) Sync(context.Context, models.Quotas, time.Time) { w.synced++ }

func signedIn(t *testing.T) *credstore.MemoryStore {
	t.Helper()
	s := &credstore.MemoryStore{}
	if err := s.Store(context.Background(), "gho_tok"); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFetch_NotAuthenticated(t *testing.T) {
	f := &stubFetcher{}
	svc := &Service{Tokens: &credstore.MemoryStore{}, Fetcher: f}

	_, err := svc.Fetch(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
	if len(f.tokens) != 0 {
		t.Error("fetcher must not be called without a token")
	}
}

func TestFetch_TokenStoreErrorSurfaces(t *testing.T) {
	boom := errors.New("keychain locked")
	svc := &Service{Tokens: &credstore.MemoryStore{Err: boom}, Fetcher: &stubFetcher{}}

	_, err := svc.Fetch(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if errors.Is(err, ErrNotAuthenticated) {
		t.Error("store failure must not look like a missing token")
	}
}

func TestFetch_Success(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC))
	f := &stubFetcher{q: models.Quotas{Plan: "pro"}}
	m := &stubMirror{}
	w := &stubWidgets{}
	svc := &Service{Tokens: signedIn(t), Fetcher: f, Mirror: m, Widgets: w, Clock: clock}

	res, err := svc.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Quotas.Plan != "pro" {
		t.Errorf("Plan = %q", res.Quotas.Plan)
	}
	if !res.FetchedAt.Equal(clock.Now()) {
		t.Errorf("FetchedAt = %v", res.FetchedAt)
	}
	if f.tokens[0] != "gho_tok" {
		t.Errorf("token = %q", f.tokens[0])
	}
	if len(m.saved) != 1 || m.history != 1 || w.synced != 1 {
		t.Errorf("saved=%d history=%d synced=%d", len(m.saved), m.history, w.synced)
	}
}

func TestFetch_SideEffectFailuresIgnored(t *testing.T) {
	ctx, buf := logging.NewTestContext(logging.Flags{Verbose: true})
	m := &stubMirror{saveErr: errors.New("disk full"), historyErr: errors.New("locked")}
	w := &stubWidgets{}
	svc := &Service{Tokens: signedIn(t), Fetcher: &stubFetcher{}, Mirror: m, Widgets: w}

	if _, err := svc.Fetch(ctx); err != nil {
		t.Fatalf("Fetch() error = %v, want nil", err)
	}
	if w.synced != 1 {
		t.Error("widgets should still sync after a mirror failure")
	}
	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("mirror failure not logged: %q", buf.String())
	}
}

func TestFetch_FetchErrorSkipsSideEffects(t *testing.T) {
	boom := errors.New("offline")
	m := &stubMirror{}
	w := &stubWidgets{}
	svc := &Service{Tokens: signedIn(t), Fetcher: &stubFetcher{err: boom}, Mirror: m, Widgets: w}

	_, err := svc.Fetch(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
	if len(m.saved) != 0 || w.synced != 0 {
		t.Error("side effects must not run after a failed fetch")
	}
}

func TestFetch_SignOutDuringRequestRecordsNothing(t *testing.T) {
	tests := []struct {
		name   string
		change func(s *credstore.MemoryStore)
	}{
		{"cleared", func(s *credstore.MemoryStore) { _ = s.Clear(context.Background()) }},
		{"replaced", func(s *credstore.MemoryStore) { _ = s.Store(context.Background(), "gho_other") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := signedIn(t)
			m := &stubMirror{}
			w := &stubWidgets{}
			f := &stubFetcher{q: models.Quotas{Plan: "pro"}, during: func() { tt.change(tokens) }}
			svc := &Service{Tokens: tokens, Fetcher: f, Mirror: m, Widgets: w}

			_, err := svc.Fetch(context.Background())
			if !errors.Is(err, ErrTokenChanged) {
				t.Fatalf("error = %v, want ErrTokenChanged", err)
			}
			if len(m.saved) != 0 || m.history != 0 || w.synced != 0 {
				t.Errorf("saved=%d history=%d synced=%d; want nothing recorded", len(m.saved), m.history, w.synced)
			}
		})
	}
}
