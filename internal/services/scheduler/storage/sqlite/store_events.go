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

// AppendEvents atomically appends a batch of events and returns them with
// sequence numbers assigned. Each event is enqueued on the relay outbox in
// the same transaction, so delivery work is never lost between the journal
// write and the relay pickup.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if len(events) == 0 {
		return nil, nil
	}

	const (
		maxBusyRetries = 8
		retryBaseDelay = 10 * time.Millisecond
	)

	waitForRetry := func(attempt int) error {
		delay := time.Duration(attempt+1) * retryBaseDelay
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}

	for attempt := 0; ; attempt++ {
		appended, err := s.appendEventsOnce(ctx, events)
		if err == nil {
			return appended, nil
		}
		if isSQLiteBusyError(err) && attempt < maxBusyRetries {
			if waitErr := waitForRetry(attempt); waitErr != nil {
				return nil, waitErr
			}
			continue
		}
		return nil, err
	}
}

func (s *Store) appendEventsOnce(ctx context.Context, events []event.Event) ([]event.Event, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback()

	appended := make([]event.Event, 0, len(events))
	for _, evt := range events {
		stored, err := appendEventTx(ctx, tx, evt)
		if err != nil {
			return nil, err
		}
		appended = append(appended, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append tx: %w", err)
	}
	return appended, nil
}

func appendEventTx(ctx context.Context, tx *sql.Tx, evt event.Event) (event.Event, error) {
	if err := evt.Validate(); err != nil {
		return event.Event{}, err
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_seqs (aggregate_id, next_seq) VALUES (?, 1)
		 ON CONFLICT (aggregate_id) DO NOTHING`,
		evt.AggregateID,
	); err != nil {
		return event.Event{}, fmt.Errorf("init event seq: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT next_seq FROM event_seqs WHERE aggregate_id = ?`,
		evt.AggregateID,
	).Scan(&seq); err != nil {
		return event.Event{}, fmt.Errorf("get event seq: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE event_seqs SET next_seq = next_seq + 1 WHERE aggregate_id = ?`,
		evt.AggregateID,
	); err != nil {
		return event.Event{}, fmt.Errorf("increment event seq: %w", err)
	}
	if seq <= 0 {
		return event.Event{}, fmt.Errorf("event seq is required")
	}
	evt.Seq = uint64(seq)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (
		    aggregate_id, seq, timestamp, event_type, slot_id, participant_id, role, booking_id
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		evt.AggregateID,
		seq,
		toMillis(evt.Timestamp),
		string(evt.Type),
		evt.SlotID,
		evt.ParticipantID,
		evt.Role,
		evt.BookingID,
	); err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}

	if err := enqueueRelayOutboxTx(ctx, tx, evt); err != nil {
		return event.Event{}, err
	}

	return evt, nil
}

// ListEvents returns events for an aggregate after the given sequence in
// ascending order.
func (s *Store) ListEvents(ctx context.Context, aggregateID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return nil, fmt.Errorf("aggregate id is required")
	}
	if limit <= 0 {
		return []event.Event{}, nil
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT aggregate_id, seq, timestamp, event_type, slot_id, participant_id, role, booking_id
		 FROM events
		 WHERE aggregate_id = ? AND seq > ?
		 ORDER BY seq ASC
		 LIMIT ?`,
		aggregateID,
		int64(afterSeq),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0, limit)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// GetEventBySeq fetches one event. Returns storage.ErrNotFound if absent.
func (s *Store) GetEventBySeq(ctx context.Context, aggregateID string, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return event.Event{}, fmt.Errorf("aggregate id is required")
	}
	if seq == 0 {
		return event.Event{}, fmt.Errorf("event sequence must be greater than zero")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT aggregate_id, seq, timestamp, event_type, slot_id, participant_id, role, booking_id
		 FROM events
		 WHERE aggregate_id = ? AND seq = ?`,
		aggregateID,
		int64(seq),
	)
	evt, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, storage.ErrNotFound
	}
	if err != nil {
		return event.Event{}, err
	}
	return evt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt             event.Event
		seq             int64
		timestampMillis int64
		eventType       string
	)
	if err := row.Scan(
		&evt.AggregateID,
		&seq,
		&timestampMillis,
		&eventType,
		&evt.SlotID,
		&evt.ParticipantID,
		&evt.Role,
		&evt.BookingID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	evt.Seq = uint64(seq)
	evt.Timestamp = fromMillis(timestampMillis)
	evt.Type = event.Type(eventType)
	return evt, nil
}
