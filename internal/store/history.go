package store

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

// HistoryRetention bounds how long quota_history rows are kept.
const HistoryRetention = 90 * 24 * time.Hour

// HistoryPoint is one recorded fetch for a category.
type HistoryPoint struct {
	FetchedAt        time.Time
	Category         models.Category
	Total            float64
	Used             float64
	RemainingPercent float64
}

// AppendHistory records every category of q at fetchedAt and prunes rows
// older than HistoryRetention.
func (s *Store) AppendHistory(ctx context.Context, q models.Quotas, fetchedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, info := range q.All() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO quota_history (fetched_at, category, total, used, remaining_percent)
			VALUES (?, ?, ?, ?, ?)
		`, fetchedAt.UnixMilli(), string(info.Category), info.TotalQuota, info.UsedQuota, models.GetPercentRemaining(info))
		if err != nil {
			return fmt.Errorf("appending history: %w", err)
		}
	}

	cutoff := fetchedAt.Add(-HistoryRetention).UnixMilli()
	if _, err := tx.ExecContext(ctx, `DELETE FROM quota_history WHERE fetched_at < ?`, cutoff); err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	return tx.Commit()
}

// History returns the points for category recorded at or after since,
// oldest first.
func (s *Store) History(ctx context.Context, category models.Category, since time.Time) ([]HistoryPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fetched_at, category, total, used, remaining_percent
		FROM quota_history
		WHERE category = ? AND fetched_at >= ?
		ORDER BY fetched_at ASC
	`, string(category), since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var points []HistoryPoint
	for rows.Next() {
		var (
			p   HistoryPoint
			ms  int64
			cat string
		)
		if err := rows.Scan(&ms, &cat, &p.Total, &p.Used, &p.RemainingPercent); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		p.FetchedAt = models.UnixMilli(ms)
		p.Category = models.Category(cat)
		points = append(points, p)
	}
	return points, rows.Err()
}

// ClearHistory removes every history row.
func (s *Store) ClearHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM quota_history`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
