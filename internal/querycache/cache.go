// Package querycache is the single-entry, stale-aware read-through cache in
// front of the quota fetch.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

// Key identifies the one query this cache holds.
const Key = "github/copilot/quota"

// DefaultStaleTime is how long fetched data counts as fresh.
const DefaultStaleTime = 2 * time.Minute

// ErrCleared is returned to callers whose fetch finished after Clear. The
// result is discarded.
var ErrCleared = errors.New("quota cache was cleared during the fetch")

// FetchFunc loads fresh quotas.
type FetchFunc func(ctx context.Context) (models.Quotas, error)

// Persister stores the serialized entry across restarts.
type Persister interface {
	Persist(ctx context.Context, data []byte) error
	Restore(ctx context.Context) ([]byte, error)
	Remove(ctx context.Context) error
}

// Trigger names what asked for a revalidation.
type Trigger string

const (
	TriggerMount     Trigger = "mount"
	TriggerFocus     Trigger = "focus"
	TriggerReconnect Trigger = "reconnect"
	TriggerInterval  Trigger = "interval"
	TriggerManual    Trigger = "manual"
)

// Snapshot is a consistent view of the cache. IsCached is true exactly when
// the data is stale but present, which drives the "using cached data" banner.
type Snapshot struct {
	Data       *models.Quotas
	FetchedAt  time.Time
	IsStale    bool
	IsCached   bool
	IsFetching bool
	Err        error
}

// Options tunes a Cache. Zero values pick the defaults.
type Options struct {
	StaleTime  time.Duration
	Retries    int
	Clock      clockwork.Clock
	Persister  Persister
	RetryDelay func(attempt int) time.Duration
	Retryable  func(error) bool
	// OnChange is called after every state change with the new snapshot.
	OnChange func(Snapshot)
}

type Cache struct {
	fetch FetchFunc
	opts  Options
	group singleflight.Group

	mu        sync.RWMutex
	data      *models.Quotas
	fetchedAt time.Time
	err       error
	fetching  int
	// failed marks the data stale after a refetch failed, whatever its age.
	failed bool
	// gen is bumped by Clear; fetches started under an older gen are dropped.
	gen uint64

	persistMu sync.Mutex
}

// New builds a cache around fetch. Negative Retries disables retrying.
func New(fetch FetchFunc, opts Options) *Cache {
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.RetryDelay == nil {
		opts.RetryDelay = RetryDelay
	}
	if opts.Retryable == nil {
		opts.Retryable = ShouldRetry
	}
	return &Cache{fetch: fetch, opts: opts}
}

// Snapshot returns the current state.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Cache) snapshotLocked() Snapshot {
	stale := c.isStaleLocked()
	return Snapshot{
		Data:       c.data,
		FetchedAt:  c.fetchedAt,
		IsStale:    stale,
		IsCached:   stale && c.data != nil,
		IsFetching: c.fetching > 0,
		Err:        c.err,
	}
}

func (c *Cache) isStaleLocked() bool {
	if c.data == nil || c.failed {
		return true
	}
	return c.opts.Clock.Since(c.fetchedAt) >= c.opts.StaleTime
}

// IsStale reports whether a revalidation would refetch.
func (c *Cache) IsStale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isStaleLocked()
}

func (c *Cache) notify() {
	if c.opts.OnChange == nil {
		return
	}
	c.opts.OnChange(c.Snapshot())
}

// Fetch refetches unconditionally. Concurrent callers share one in-flight
// request, which outlives any single caller's cancellation. On failure prior
// data is kept, marked stale, and the error is recorded.
func (c *Cache) Fetch(ctx context.Context) (Snapshot, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(Key, func() (any, error) {
		return nil, c.run(shared)
	})
	select {
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	case res := <-ch:
		return c.Snapshot(), res.Err
	}
}

// Revalidate refetches when the trigger calls for it: mount and manual
// always do, the others only when the data is stale. It reports whether a
// fetch ran.
func (c *Cache) Revalidate(ctx context.Context, trigger Trigger) (Snapshot, bool, error) {
	switch trigger {
	case TriggerMount, TriggerManual:
	default:
		if !c.IsStale() {
			return c.Snapshot(), false, nil
		}
	}
	ctx = logging.With(ctx, "trigger", string(trigger))
	logging.FromContext(ctx).Debug("revalidating quota")
	snap, err := c.Fetch(ctx)
	return snap, true, err
}

func (c *Cache) run(ctx context.Context) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	c.addFetching(1)
	defer c.addFetching(-1)

	logger := logging.FromContext(ctx)
	var (
		q   models.Quotas
		err error
	)
	for attempt := 0; ; attempt++ {
		q, err = c.fetch(ctx)
		if err == nil || attempt >= c.opts.Retries || !c.opts.Retryable(err) || c.cleared(gen) {
			break
		}
		delay := c.opts.RetryDelay(attempt)
		logger.Debug("quota fetch failed, retrying", "attempt", attempt+1, "delay", delay, "err", err)
		if werr := c.wait(ctx, delay); werr != nil {
			err = werr
			break
		}
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		logger.Debug("dropping quota fetch that finished after a clear")
		return ErrCleared
	}
	if err != nil {
		c.err = err
		c.failed = true
		c.mu.Unlock()
		return err
	}
	c.data = &q
	c.fetchedAt = c.opts.Clock.Now().UTC()
	c.err = nil
	c.failed = false
	c.mu.Unlock()

	c.persist(ctx, gen)
	return nil
}

func (c *Cache) cleared(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen != gen
}

func (c *Cache) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.opts.Clock.After(d):
		return nil
	}
}

func (c *Cache) addFetching(n int) {
	c.mu.Lock()
	c.fetching += n
	c.mu.Unlock()
	c.notify()
}

// SetData installs quotas fetched elsewhere, typically by the background
// agent. Data older than what the cache holds is ignored.
func (c *Cache) SetData(ctx context.Context, q models.Quotas, fetchedAt time.Time) bool {
	c.mu.Lock()
	if c.data != nil && !fetchedAt.After(c.fetchedAt) {
		c.mu.Unlock()
		return false
	}
	c.data = &q
	c.fetchedAt = fetchedAt.UTC()
	c.err = nil
	c.failed = false
	gen := c.gen
	c.mu.Unlock()

	c.persist(ctx, gen)
	c.notify()
	return true
}

// Clear drops the entry and its persisted copy.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.data = nil
	c.fetchedAt = time.Time{}
	c.err = nil
	c.failed = false
	c.mu.Unlock()
	c.group.Forget(Key)
	c.notify()

	if c.opts.Persister == nil {
		return nil
	}
	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	return c.opts.Persister.Remove(ctx)
}

type persistedEntry struct {
	Key       string        `json:"key"`
	Data      models.Quotas `json:"data"`
	FetchedAt int64         `json:"fetchedAt"`
}

// persist writes the entry unless a Clear has happened since gen was read.
func (c *Cache) persist(ctx context.Context, gen uint64) {
	if c.opts.Persister == nil {
		return
	}
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.RLock()
	if c.data == nil || c.gen != gen {
		c.mu.RUnlock()
		return
	}
	entry := persistedEntry{Key: Key, Data: *c.data, FetchedAt: c.fetchedAt.UnixMilli()}
	c.mu.RUnlock()

	raw, err := json.Marshal(entry)
	if err == nil {
		err = c.opts.Persister.Persist(ctx, raw)
	}
	if err != nil {
		logging.FromContext(ctx).Warn("persisting query cache failed", "err", err)
	}
}

// Restore loads the persisted entry, if any. Restored data keeps its
// original fetch time, so it is usually stale and renders with the cached
// banner until the mount revalidation lands.
func (c *Cache) Restore(ctx context.Context) error {
	if c.opts.Persister == nil {
		return nil
	}
	raw, err := c.opts.Persister.Restore(ctx)
	if err != nil || len(raw) == 0 {
		return err
	}

	var entry persistedEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Key != Key {
		logging.FromContext(ctx).Debug("discarding unreadable query cache", "err", err)
		return nil
	}

	c.mu.Lock()
	if c.data == nil {
		c.data = &entry.Data
		c.fetchedAt = models.UnixMilli(entry.FetchedAt)
	}
	c.mu.Unlock()
	c.notify()
	return nil
}
