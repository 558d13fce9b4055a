package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
	"github.com/flightbay/flightbay/internal/services/scheduler/storage"
)

type relayOutboxRow struct {
	AggregateID  string
	Seq          uint64
	EventType    string
	AttemptCount int
}

const (
	outboxDeadLetterThreshold = 8
	outboxProcessingLease     = 2 * time.Minute
)

func enqueueRelayOutboxTx(ctx context.Context, tx *sql.Tx, evt event.Event) error {
	enqueuedAt := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO relay_outbox (
		    aggregate_id, seq, event_type, status, attempt_count, next_attempt_at, last_error, updated_at
		 ) VALUES (?, ?, ?, 'pending', 0, ?, '', ?)
		 ON CONFLICT (aggregate_id, seq) DO NOTHING`,
		evt.AggregateID,
		int64(evt.Seq),
		string(evt.Type),
		toMillis(enqueuedAt),
		toMillis(enqueuedAt),
	); err != nil {
		return fmt.Errorf("enqueue relay outbox: %w", err)
	}
	return nil
}

// ProcessOutbox claims due outbox rows and delivers their journal events
// through the provided callback. Successful rows are removed from the outbox;
// failed rows are retried with exponential backoff and dead-lettered after
// the attempt threshold.
//
// Rows whose aggregate still has an earlier row queued are never claimed, so
// delivery preserves per-aggregate commit order even across retries.
func (s *Store) ProcessOutbox(
	ctx context.Context,
	now time.Time,
	limit int,
	apply func(context.Context, event.Event) error,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if apply == nil {
		return 0, fmt.Errorf("outbox apply callback is required")
	}
	if limit <= 0 {
		return 0, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rows, err := s.claimRelayOutboxDue(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, row := range rows {
		storedEvent, loadErr := s.GetEventBySeq(ctx, row.AggregateID, row.Seq)
		if loadErr != nil {
			attempt := row.AttemptCount + 1
			nextAttempt := now.Add(outboxRetryBackoff(attempt))
			if err := s.markRelayOutboxRetry(ctx, row, now, attempt, nextAttempt, fmt.Sprintf("load event: %v", loadErr)); err != nil {
				return processed, err
			}
			processed++
			continue
		}

		if applyErr := apply(ctx, storedEvent); applyErr != nil {
			attempt := row.AttemptCount + 1
			nextAttempt := now.Add(outboxRetryBackoff(attempt))
			if err := s.markRelayOutboxRetry(ctx, row, now, attempt, nextAttempt, fmt.Sprintf("apply event: %v", applyErr)); err != nil {
				return processed, err
			}
			processed++
			continue
		}

		if err := s.completeRelayOutboxRow(ctx, row); err != nil {
			return processed, err
		}
		processed++
	}

	return processed, nil
}

func (s *Store) claimRelayOutboxDue(ctx context.Context, now time.Time, limit int) ([]relayOutboxRow, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin outbox claim tx: %w", err)
	}
	defer tx.Rollback()

	staleBefore := now.Add(-outboxProcessingLease)
	rows, err := tx.QueryContext(ctx,
		`SELECT o.aggregate_id, o.seq, o.event_type, o.attempt_count
		 FROM relay_outbox o
		 WHERE (
		     (o.status IN ('pending', 'failed') AND o.next_attempt_at <= ?)
		     OR (o.status = 'processing' AND o.updated_at <= ?)
		 )
		 AND NOT EXISTS (
		     SELECT 1 FROM relay_outbox e
		     WHERE e.aggregate_id = o.aggregate_id AND e.seq < o.seq
		 )
		 ORDER BY o.next_attempt_at, o.seq
		 LIMIT ?`,
		toMillis(now),
		toMillis(staleBefore),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due outbox rows: %w", err)
	}
	defer rows.Close()

	candidates := make([]relayOutboxRow, 0, limit)
	for rows.Next() {
		var row relayOutboxRow
		var seq int64
		if err := rows.Scan(&row.AggregateID, &seq, &row.EventType, &row.AttemptCount); err != nil {
			return nil, fmt.Errorf("scan due outbox row: %w", err)
		}
		row.Seq = uint64(seq)
		candidates = append(candidates, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due outbox rows: %w", err)
	}

	claimed := make([]relayOutboxRow, 0, len(candidates))
	for _, candidate := range candidates {
		result, err := tx.ExecContext(ctx,
			`UPDATE relay_outbox
			 SET status = 'processing', updated_at = ?
			 WHERE aggregate_id = ? AND seq = ?
			   AND (
			       (status IN ('pending', 'failed') AND next_attempt_at <= ?)
			       OR (status = 'processing' AND updated_at <= ?)
			   )`,
			toMillis(now),
			candidate.AggregateID,
			int64(candidate.Seq),
			toMillis(now),
			toMillis(staleBefore),
		)
		if err != nil {
			return nil, fmt.Errorf("claim outbox row %s/%d: %w", candidate.AggregateID, candidate.Seq, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("claim outbox row rows affected %s/%d: %w", candidate.AggregateID, candidate.Seq, err)
		}
		if affected == 1 {
			claimed = append(claimed, candidate)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit outbox claim tx: %w", err)
	}
	return claimed, nil
}

func (s *Store) markRelayOutboxRetry(ctx context.Context, row relayOutboxRow, now time.Time, attempt int, nextAttempt time.Time, lastError string) error {
	status := "failed"
	if attempt >= outboxDeadLetterThreshold {
		status = "dead"
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE relay_outbox
		 SET status = ?,
		     attempt_count = ?,
		     next_attempt_at = ?,
		     last_error = ?,
		     updated_at = ?
		 WHERE aggregate_id = ? AND seq = ? AND status = 'processing'`,
		status,
		attempt,
		toMillis(nextAttempt),
		lastError,
		toMillis(now),
		row.AggregateID,
		int64(row.Seq),
	)
	if err != nil {
		return fmt.Errorf("mark outbox retry for row %s/%d: %w", row.AggregateID, row.Seq, err)
	}
	return ensureRelayOutboxSingleRow(result, row, "mark outbox retry for row", "updated")
}

func (s *Store) completeRelayOutboxRow(ctx context.Context, row relayOutboxRow) error {
	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM relay_outbox
		 WHERE aggregate_id = ? AND seq = ? AND status = 'processing'`,
		row.AggregateID,
		int64(row.Seq),
	)
	if err != nil {
		return fmt.Errorf("complete outbox row %s/%d: %w", row.AggregateID, row.Seq, err)
	}
	return ensureRelayOutboxSingleRow(result, row, "complete outbox row", "deleted")
}

func ensureRelayOutboxSingleRow(result sql.Result, row relayOutboxRow, operation, verb string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected %s/%d: %w", operation, row.AggregateID, row.Seq, err)
	}
	if affected != 1 {
		return fmt.Errorf("%s %s/%d: expected 1 row %s, got %d", operation, row.AggregateID, row.Seq, verb, affected)
	}
	return nil
}

// OutboxSummary returns queue depth by status and the oldest pending/failed
// row metadata.
func (s *Store) OutboxSummary(ctx context.Context) (storage.OutboxSummary, error) {
	if err := ctx.Err(); err != nil {
		return storage.OutboxSummary{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.OutboxSummary{}, fmt.Errorf("storage is not configured")
	}

	summary := storage.OutboxSummary{}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT status, COUNT(*)
		 FROM relay_outbox
		 GROUP BY status`,
	)
	if err != nil {
		return storage.OutboxSummary{}, fmt.Errorf("query outbox summary counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return storage.OutboxSummary{}, fmt.Errorf("scan outbox summary count: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(status)) {
		case "pending":
			summary.PendingCount = count
		case "processing":
			summary.ProcessingCount = count
		case "failed":
			summary.FailedCount = count
		case "dead":
			summary.DeadCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return storage.OutboxSummary{}, fmt.Errorf("iterate outbox summary counts: %w", err)
	}

	var (
		aggregateID string
		seq         int64
		nextAttempt int64
	)
	err = s.sqlDB.QueryRowContext(ctx,
		`SELECT aggregate_id, seq, next_attempt_at
		 FROM relay_outbox
		 WHERE status IN ('pending', 'failed')
		 ORDER BY next_attempt_at ASC, seq ASC
		 LIMIT 1`,
	).Scan(&aggregateID, &seq, &nextAttempt)
	if err == nil {
		summary.OldestPendingAggregateID = aggregateID
		summary.OldestPendingSeq = uint64(seq)
		summary.OldestPendingAt = fromMillis(nextAttempt)
		return summary, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return summary, nil
	}
	return storage.OutboxSummary{}, fmt.Errorf("query oldest pending outbox row: %w", err)
}

// RequeueDeadOutboxRows transitions up to limit dead outbox rows back to
// pending in deterministic retry order.
func (s *Store) RequeueDeadOutboxRows(ctx context.Context, limit int, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return 0, fmt.Errorf("outbox requeue limit must be greater than zero")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`WITH to_requeue AS (
			SELECT aggregate_id, seq
			FROM relay_outbox
			WHERE status = 'dead'
			ORDER BY next_attempt_at ASC, seq ASC
			LIMIT ?
		)
		UPDATE relay_outbox
		SET status = 'pending',
		    attempt_count = 0,
		    next_attempt_at = ?,
		    last_error = '',
		    updated_at = ?
		WHERE status = 'dead'
		  AND EXISTS (
			  SELECT 1
			  FROM to_requeue
			  WHERE to_requeue.aggregate_id = relay_outbox.aggregate_id
			    AND to_requeue.seq = relay_outbox.seq
		  )`,
		limit,
		toMillis(now),
		toMillis(now),
	)
	if err != nil {
		return 0, fmt.Errorf("requeue dead outbox rows: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("requeue dead outbox rows affected: %w", err)
	}
	return int(affected), nil
}

func outboxRetryBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	backoff := time.Second << (attempt - 1)
	if backoff > 5*time.Minute {
		return 5 * time.Minute
	}
	return backoff
}
