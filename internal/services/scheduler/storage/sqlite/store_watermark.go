package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/storage"
)

// GetWatermark returns the watermark for an aggregate.
// Returns storage.ErrNotFound if no watermark exists.
func (s *Store) GetWatermark(ctx context.Context, aggregateID string) (storage.Watermark, error) {
	if err := ctx.Err(); err != nil {
		return storage.Watermark{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Watermark{}, fmt.Errorf("storage is not configured")
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return storage.Watermark{}, fmt.Errorf("aggregate id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT aggregate_id, applied_seq, expected_next_seq, updated_at
		 FROM projection_watermarks
		 WHERE aggregate_id = ?`,
		aggregateID,
	)
	var (
		wm              storage.Watermark
		updatedAtMillis int64
	)
	err := row.Scan(&wm.AggregateID, &wm.AppliedSeq, &wm.ExpectedNextSeq, &updatedAtMillis)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Watermark{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Watermark{}, fmt.Errorf("get projection watermark: %w", err)
	}
	wm.UpdatedAt = fromMillis(updatedAtMillis)
	return wm, nil
}

// SaveWatermark upserts the watermark for an aggregate.
func (s *Store) SaveWatermark(ctx context.Context, wm storage.Watermark) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	wm.AggregateID = strings.TrimSpace(wm.AggregateID)
	if wm.AggregateID == "" {
		return fmt.Errorf("aggregate id is required")
	}
	if wm.UpdatedAt.IsZero() {
		wm.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO projection_watermarks (aggregate_id, applied_seq, expected_next_seq, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (aggregate_id) DO UPDATE SET
		     applied_seq = excluded.applied_seq,
		     expected_next_seq = excluded.expected_next_seq,
		     updated_at = excluded.updated_at`,
		wm.AggregateID,
		int64(wm.AppliedSeq),
		int64(wm.ExpectedNextSeq),
		toMillis(wm.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save projection watermark: %w", err)
	}
	return nil
}

// ListWatermarks returns all watermarks ordered by aggregate id.
func (s *Store) ListWatermarks(ctx context.Context) ([]storage.Watermark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT aggregate_id, applied_seq, expected_next_seq, updated_at
		 FROM projection_watermarks
		 ORDER BY aggregate_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list projection watermarks: %w", err)
	}
	defer rows.Close()

	watermarks := make([]storage.Watermark, 0)
	for rows.Next() {
		var (
			wm              storage.Watermark
			updatedAtMillis int64
		)
		if err := rows.Scan(&wm.AggregateID, &wm.AppliedSeq, &wm.ExpectedNextSeq, &updatedAtMillis); err != nil {
			return nil, fmt.Errorf("scan projection watermark: %w", err)
		}
		wm.UpdatedAt = fromMillis(updatedAtMillis)
		watermarks = append(watermarks, wm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projection watermarks: %w", err)
	}
	return watermarks, nil
}
