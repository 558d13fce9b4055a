// Package storage defines the persistence contracts for the scheduler: the
// append-only journal, the relay outbox, projection rows, watermarks, and
// operational telemetry.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// EventStore persists the append-only journal, strictly ordered per
// aggregate id.
type EventStore interface {
	// AppendEvents appends events atomically and returns them with sequence
	// numbers assigned. A multi-event append is all-or-nothing.
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
	// ListEvents returns events for an aggregate after the given sequence.
	ListEvents(ctx context.Context, aggregateID string, afterSeq uint64, limit int) ([]event.Event, error)
	// GetEventBySeq fetches one event. Returns ErrNotFound if absent.
	GetEventBySeq(ctx context.Context, aggregateID string, seq uint64) (event.Event, error)
}

// OutboxSummary reports queue depth and the oldest retry-eligible row.
type OutboxSummary struct {
	PendingCount             int
	ProcessingCount          int
	FailedCount              int
	DeadCount                int
	OldestPendingAggregateID string
	OldestPendingSeq         uint64
	OldestPendingAt          time.Time
}

// OutboxStore drives at-least-once delivery of journal events to consumers.
type OutboxStore interface {
	// ProcessOutbox claims due rows in per-aggregate commit order and applies
	// them. Rows whose aggregate has an earlier row still queued are skipped.
	// A nil apply result completes the row; an error schedules a retry with
	// backoff, dead-lettering after the attempt threshold.
	ProcessOutbox(ctx context.Context, now time.Time, limit int, apply func(context.Context, event.Event) error) (int, error)
	// OutboxSummary reports queue depth by status.
	OutboxSummary(ctx context.Context) (OutboxSummary, error)
	// RequeueDeadOutboxRows moves up to limit dead rows back to pending.
	RequeueDeadOutboxRows(ctx context.Context, limit int, now time.Time) (int, error)
}

// ParticipantSlotRow is one materialized participant-status row,
// last-event-wins per (slot, participant).
type ParticipantSlotRow struct {
	SlotID        string
	ParticipantID string
	Role          string
	BookingID     string
	Status        string
	UpdatedAt     time.Time
}

// ParticipantSlotStore materializes and queries participant status rows.
type ParticipantSlotStore interface {
	UpsertParticipantSlotRow(ctx context.Context, row ParticipantSlotRow) error
	ListSlotsByParticipant(ctx context.Context, participantID string) ([]ParticipantSlotRow, error)
	ListSlotsByParticipantAndStatus(ctx context.Context, participantID, status string) ([]ParticipantSlotRow, error)
}

// Watermark records projection progress for one aggregate.
type Watermark struct {
	AggregateID     string
	AppliedSeq      uint64
	ExpectedNextSeq uint64
	UpdatedAt       time.Time
}

// WatermarkStore persists projection watermarks.
type WatermarkStore interface {
	// GetWatermark returns the watermark for an aggregate.
	// Returns ErrNotFound if no watermark exists.
	GetWatermark(ctx context.Context, aggregateID string) (Watermark, error)
	SaveWatermark(ctx context.Context, wm Watermark) error
	ListWatermarks(ctx context.Context) ([]Watermark, error)
}

// TelemetryEvent is one operational telemetry record.
type TelemetryEvent struct {
	Timestamp   time.Time
	EventName   string
	Severity    string
	AggregateID string
	Seq         uint64
	Attributes  map[string]string
}

// TelemetryStore records operational telemetry (dead letters, swallowed
// stale redeliveries, relay restarts).
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
	ListTelemetryEvents(ctx context.Context, limit int) ([]TelemetryEvent, error)
}
