package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

// Theme is the user's colour scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark, ThemeSystem:
		return Theme(s), nil
	default:
		return "", fmt.Errorf("invalid theme %q: must be light, dark, or system", s)
	}
}

// DefaultFetchIntervalMinutes is used when no interval was ever saved.
const DefaultFetchIntervalMinutes = 15

// SaveQuota writes the latest quota and its fetch time in one transaction so
// readers never see a new quota paired with an old timestamp.
func (s *Store) SaveQuota(ctx context.Context, q models.Quotas, fetchedAt time.Time) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encoding quota: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving quota: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, upsert, KeyQuotaData, string(data)); err != nil {
		return fmt.Errorf("saving quota: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, KeyLastFetch, fmt.Sprint(fetchedAt.UnixMilli())); err != nil {
		return fmt.Errorf("saving quota: %w", err)
	}
	return tx.Commit()
}

// LoadQuota returns the mirrored quota and its fetch time. A missing or
// unreadable snapshot yields nil without an error.
func (s *Store) LoadQuota(ctx context.Context) (*models.Quotas, time.Time, error) {
	raw, ok, err := s.Get(ctx, KeyQuotaData)
	if err != nil || !ok {
		return nil, time.Time{}, err
	}
	var q models.Quotas
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, time.Time{}, nil
	}
	ms, err := s.GetInt(ctx, KeyLastFetch, 0)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &q, models.UnixMilli(ms), nil
}

// LastFetch returns the time of the last successful fetch, zero if none.
func (s *Store) LastFetch(ctx context.Context) (time.Time, error) {
	ms, err := s.GetInt(ctx, KeyLastFetch, 0)
	return models.UnixMilli(ms), err
}

// ClearQuota removes the mirrored quota, its timestamp, and the username.
func (s *Store) ClearQuota(ctx context.Context) error {
	return s.Delete(ctx, KeyQuotaData, KeyLastFetch, KeyUsername, KeyWidgetStatus)
}

func (s *Store) Username(ctx context.Context) (string, error) {
	v, _, err := s.Get(ctx, KeyUsername)
	return v, err
}

func (s *Store) SetUsername(ctx context.Context, username string) error {
	return s.Set(ctx, KeyUsername, username)
}

// ThemePreference returns the saved theme, defaulting to system.
func (s *Store) ThemePreference(ctx context.Context) (Theme, error) {
	raw, ok, err := s.Get(ctx, KeyThemePreference)
	if err != nil || !ok {
		return ThemeSystem, err
	}
	t, perr := ParseTheme(raw)
	if perr != nil {
		return ThemeSystem, nil
	}
	return t, nil
}

func (s *Store) SetThemePreference(ctx context.Context, t Theme) error {
	return s.Set(ctx, KeyThemePreference, string(t))
}

// FetchIntervalMinutes returns the saved background interval in minutes.
func (s *Store) FetchIntervalMinutes(ctx context.Context) (int, error) {
	n, err := s.GetInt(ctx, KeyFetchInterval, DefaultFetchIntervalMinutes)
	return int(n), err
}

func (s *Store) SetFetchIntervalMinutes(ctx context.Context, minutes int) error {
	return s.SetInt(ctx, KeyFetchInterval, int64(minutes))
}

// CachePersister adapts the store to the query cache's persistence hook.
type CachePersister struct {
	Store *Store
}

func (p CachePersister) Persist(ctx context.Context, data []byte) error {
	return p.Store.Set(ctx, KeyQueryCache, string(data))
}

func (p CachePersister) Restore(ctx context.Context) ([]byte, error) {
	raw, ok, err := p.Store.Get(ctx, KeyQueryCache)
	if err != nil || !ok {
		return nil, err
	}
	return []byte(raw), nil
}

func (p CachePersister) Remove(ctx context.Context) error {
	return p.Store.Delete(ctx, KeyQueryCache)
}
