package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/joshuadavidthomas/copilotstatus/internal/github"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
	"github.com/joshuadavidthomas/copilotstatus/internal/quota"
)

type memPersister struct {
	mu      sync.Mutex
	data    []byte
	removed int
}

func (p *memPersister) Persist(_ context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = append([]byte(nil), data...)
	return nil
}

func (p *memPersister) Restore(context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data, nil
}

func (p *memPersister) Remove(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
	p.removed++
	return nil
}

func noDelay(int) time.Duration { return 0 }

func quotas(used float64) models.Quotas {
	return models.Quotas{Premium: models.QuotaInfo{Category: models.CategoryPremium, TotalQuota: 300, UsedQuota: used}}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{-1, time.Second},
	}
	for _, tt := range tests {
		if got := RetryDelay(tt.attempt); got != tt.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", &github.NetworkError{Op: "GET", Err: errors.New("reset")}, true},
		{"server error", &github.APIError{StatusCode: 502}, true},
		{"unauthorized", &github.APIError{StatusCode: 401}, false},
		{"not signed in", quota.ErrNotAuthenticated, false},
		{"signed out mid-fetch", quota.ErrTokenChanged, false},
		{"cancelled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Errorf("ShouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaleness(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(func(context.Context) (models.Quotas, error) { return quotas(10), nil },
		Options{Clock: clock, StaleTime: 2 * time.Minute})

	snap := c.Snapshot()
	if !snap.IsStale || snap.IsCached || snap.Data != nil {
		t.Fatalf("empty cache snapshot = %+v", snap)
	}

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap = c.Snapshot()
	if snap.IsStale || snap.IsCached || snap.Data == nil {
		t.Fatalf("fresh snapshot = %+v", snap)
	}

	clock.Advance(time.Minute)
	if c.Snapshot().IsStale {
		t.Error("stale after one minute")
	}

	clock.Advance(time.Minute)
	snap = c.Snapshot()
	if !snap.IsStale || !snap.IsCached {
		t.Errorf("expected stale cached data, got %+v", snap)
	}
	if snap.Data == nil {
		t.Error("stale data must remain servable")
	}
}

func TestRevalidate_Triggers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	c := New(func(context.Context) (models.Quotas, error) {
		calls.Add(1)
		return quotas(1), nil
	}, Options{Clock: clock})
	ctx := context.Background()

	if _, ran, _ := c.Revalidate(ctx, TriggerMount); !ran {
		t.Error("mount should always fetch")
	}
	for _, tr := range []Trigger{TriggerFocus, TriggerReconnect, TriggerInterval} {
		if _, ran, _ := c.Revalidate(ctx, tr); ran {
			t.Errorf("%s refetched fresh data", tr)
		}
	}
	if _, ran, _ := c.Revalidate(ctx, TriggerMount); !ran {
		t.Error("mount should refetch even when fresh")
	}
	if _, ran, _ := c.Revalidate(ctx, TriggerManual); !ran {
		t.Error("manual refresh should always fetch")
	}

	clock.Advance(DefaultStaleTime)
	if _, ran, _ := c.Revalidate(ctx, TriggerReconnect); !ran {
		t.Error("reconnect should refetch stale data")
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("fetch calls = %d, want 4", got)
	}
}

func TestFetch_FailureKeepsData(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fail := false
	boom := errors.New("offline")
	c := New(func(context.Context) (models.Quotas, error) {
		if fail {
			return models.Quotas{}, boom
		}
		return quotas(42), nil
	}, Options{Clock: clock, RetryDelay: noDelay})
	ctx := context.Background()

	if _, err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	fetchedAt := c.Snapshot().FetchedAt

	clock.Advance(5 * time.Minute)
	fail = true
	snap, err := c.Fetch(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
	if snap.Data == nil || snap.Data.Premium.UsedQuota != 42 {
		t.Errorf("data = %+v, want previous data", snap.Data)
	}
	if !snap.FetchedAt.Equal(fetchedAt) {
		t.Error("FetchedAt should not move on failure")
	}
	if !snap.IsStale || !snap.IsCached || !errors.Is(snap.Err, boom) {
		t.Errorf("snapshot = %+v", snap)
	}

	fail = false
	snap, err = c.Fetch(ctx)
	if err != nil || snap.Err != nil || snap.IsStale {
		t.Errorf("recovery snapshot = %+v, err = %v", snap, err)
	}
}

func TestFetch_FailureWhenEmpty(t *testing.T) {
	boom := errors.New("offline")
	c := New(func(context.Context) (models.Quotas, error) { return models.Quotas{}, boom },
		Options{RetryDelay: noDelay})

	snap, err := c.Fetch(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}
	if snap.Data != nil || snap.IsCached {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestFetch_Retries(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retries   int
		wantCalls int32
	}{
		{"network retried twice", &github.NetworkError{Op: "GET", Err: errors.New("reset")}, 0, 3},
		{"custom retry count", errors.New("flaky"), 4, 5},
		{"retries disabled", errors.New("flaky"), -1, 1},
		{"client error not retried", &github.APIError{StatusCode: 403}, 0, 1},
		{"missing token not retried", quota.ErrNotAuthenticated, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := New(func(context.Context) (models.Quotas, error) {
				calls.Add(1)
				return models.Quotas{}, tt.err
			}, Options{Retries: tt.retries, RetryDelay: noDelay})

			if _, err := c.Fetch(context.Background()); err == nil {
				t.Fatal("expected error")
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestFetch_RetryEventuallySucceeds(t *testing.T) {
	var calls atomic.Int32
	c := New(func(context.Context) (models.Quotas, error) {
		if calls.Add(1) < 3 {
			return models.Quotas{}, errors.New("flaky")
		}
		return quotas(7), nil
	}, Options{RetryDelay: noDelay})

	snap, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if snap.Data == nil || snap.Data.Premium.UsedQuota != 7 {
		t.Errorf("data = %+v", snap.Data)
	}
}

func TestFetch_RetryWaitsOnClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	c := New(func(context.Context) (models.Quotas, error) {
		if calls.Add(1) == 1 {
			return models.Quotas{}, errors.New("flaky")
		}
		return quotas(1), nil
	}, Options{Clock: clock})

	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(context.Background())
		done <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("retry never waited: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls before delay elapsed = %d", got)
	}
	clock.Advance(time.Second)

	if err := <-done; err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestFetch_CoalescesConcurrentCallers(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(func(context.Context) (models.Quotas, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return quotas(5), nil
	}, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.Fetch(ctx)
	}()
	<-started

	if !c.Snapshot().IsFetching {
		t.Error("IsFetching should be true while a request is in flight")
	}

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.Revalidate(ctx, TriggerManual)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
	if c.Snapshot().IsFetching {
		t.Error("IsFetching should reset after the fetch")
	}
}

func TestPersistAndRestore(t *testing.T) {
	p := &memPersister{}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))
	c := New(func(context.Context) (models.Quotas, error) { return quotas(99), nil },
		Options{Clock: clock, Persister: p})
	ctx := context.Background()

	if _, err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	var entry map[string]any
	if err := json.Unmarshal(p.data, &entry); err != nil {
		t.Fatalf("persisted entry is not JSON: %v", err)
	}
	if entry["key"] != Key {
		t.Errorf("key = %v", entry["key"])
	}

	clock.Advance(time.Hour)
	restored := New(func(context.Context) (models.Quotas, error) { return models.Quotas{}, errors.New("unused") },
		Options{Clock: clock, Persister: p})
	if err := restored.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	snap := restored.Snapshot()
	if snap.Data == nil || snap.Data.Premium.UsedQuota != 99 {
		t.Fatalf("restored data = %+v", snap.Data)
	}
	if !snap.FetchedAt.Equal(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("FetchedAt = %v", snap.FetchedAt)
	}
	if !snap.IsCached {
		t.Error("hour-old restored data should be flagged as cached")
	}
}

func TestRestore_IgnoresGarbage(t *testing.T) {
	p := &memPersister{data: []byte("{broken")}
	c := New(func(context.Context) (models.Quotas, error) { return models.Quotas{}, nil }, Options{Persister: p})
	if err := c.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if c.Snapshot().Data != nil {
		t.Error("garbage should not produce data")
	}
}

func TestClear(t *testing.T) {
	p := &memPersister{}
	c := New(func(context.Context) (models.Quotas, error) { return quotas(1), nil }, Options{Persister: p})
	ctx := context.Background()
	if _, err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	snap := c.Snapshot()
	if snap.Data != nil || !snap.FetchedAt.IsZero() {
		t.Errorf("snapshot after Clear = %+v", snap)
	}
	if p.data != nil || p.removed != 1 {
		t.Error("persisted entry not removed")
	}
}

func TestSetData(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var changes atomic.Int32
	c := New(func(context.Context) (models.Quotas, error) { return quotas(1), nil },
		Options{Clock: clock, OnChange: func(Snapshot) { changes.Add(1) }})
	ctx := context.Background()

	if _, err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	before := changes.Load()

	if c.SetData(ctx, quotas(50), clock.Now().Add(-time.Minute)) {
		t.Error("older data should be ignored")
	}
	if !c.SetData(ctx, quotas(50), clock.Now().Add(time.Second)) {
		t.Fatal("newer data should be adopted")
	}
	if got := c.Snapshot().Data.Premium.UsedQuota; got != 50 {
		t.Errorf("UsedQuota = %v", got)
	}
	if changes.Load() <= before {
		t.Error("OnChange not called")
	}
}

func TestClear_DropsInFlightFetch(t *testing.T) {
	p := &memPersister{}
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(func(context.Context) (models.Quotas, error) {
		close(started)
		<-release
		return quotas(12), nil
	}, Options{Persister: p})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx)
		done <- err
	}()
	<-started

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrCleared) {
		t.Errorf("Fetch() error = %v, want ErrCleared", err)
	}
	if snap := c.Snapshot(); snap.Data != nil || snap.IsFetching {
		t.Errorf("snapshot after cleared fetch = %+v", snap)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data != nil {
		t.Errorf("cleared fetch was persisted: %s", p.data)
	}
}

func TestFetch_CallerCancelDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	c := New(func(context.Context) (models.Quotas, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return quotas(3), nil
	}, Options{})

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := c.Fetch(first)
		firstDone <- err
	}()
	<-started

	secondDone := make(chan error, 1)
	go func() {
		_, err := c.Fetch(context.Background())
		secondDone <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	if err := <-firstDone; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller error = %v", err)
	}
	close(release)

	if err := <-secondDone; err != nil {
		t.Errorf("live caller error = %v", err)
	}
	snap := c.Snapshot()
	if snap.Err != nil || snap.Data == nil {
		t.Errorf("snapshot = %+v", snap)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestFetch_FailureOnFreshDataMarksStale(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fail := false
	c := New(func(context.Context) (models.Quotas, error) {
		if fail {
			return models.Quotas{}, errors.New("offline")
		}
		return quotas(8), nil
	}, Options{Clock: clock, Retries: -1})
	ctx := context.Background()

	if _, err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	fail = true
	if _, err := c.Fetch(ctx); err == nil {
		t.Fatal("expected error")
	}
	snap := c.Snapshot()
	if !snap.IsStale || !snap.IsCached || snap.Data == nil {
		t.Errorf("snapshot after failed refetch = %+v", snap)
	}
	if _, ran, _ := c.Revalidate(ctx, TriggerFocus); !ran {
		t.Error("focus should refetch after a failure")
	}

	fail = false
	if _, err := c.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Snapshot().IsStale {
		t.Error("successful refetch should clear the failure")
	}
}
