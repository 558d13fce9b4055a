// Package projection materializes participant status events into queryable
// per-participant rows. Applies are last-event-wins per (slot, participant)
// pair and tracked by a per-aggregate watermark so redeliveries are cheap
// no-ops.
package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/participantslot"
	"github.com/flightbay/flightbay/internal/services/scheduler/storage"
)

// Applier folds participant status events into participant slot rows.
type Applier struct {
	rows       storage.ParticipantSlotStore
	watermarks storage.WatermarkStore
	now        func() time.Time
}

// NewApplier creates a projection applier over the given stores.
func NewApplier(rows storage.ParticipantSlotStore, watermarks storage.WatermarkStore) (*Applier, error) {
	if rows == nil {
		return nil, fmt.Errorf("participant slot store is required")
	}
	if watermarks == nil {
		return nil, fmt.Errorf("watermark store is required")
	}
	return &Applier{rows: rows, watermarks: watermarks, now: time.Now}, nil
}

// Apply upserts the row for one participant status event and advances the
// aggregate's watermark. Events at or below the watermark were already
// applied and are skipped.
func (a *Applier) Apply(ctx context.Context, evt event.Event) error {
	if a == nil {
		return fmt.Errorf("projection applier is not configured")
	}
	if evt.Type.Domain() != event.DomainParticipantSlot {
		return fmt.Errorf("unexpected event domain %q", evt.Type.Domain())
	}
	if err := evt.Validate(); err != nil {
		return err
	}

	wm, err := a.watermarks.GetWatermark(ctx, evt.AggregateID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load watermark: %w", err)
	}
	if evt.Seq <= wm.AppliedSeq {
		return nil
	}

	row, err := rowForEvent(evt)
	if err != nil {
		return err
	}
	row.UpdatedAt = a.now().UTC()
	if err := a.rows.UpsertParticipantSlotRow(ctx, row); err != nil {
		return fmt.Errorf("upsert participant slot row: %w", err)
	}

	if err := a.watermarks.SaveWatermark(ctx, storage.Watermark{
		AggregateID:     evt.AggregateID,
		AppliedSeq:      evt.Seq,
		ExpectedNextSeq: evt.Seq + 1,
		UpdatedAt:       a.now().UTC(),
	}); err != nil {
		return fmt.Errorf("save watermark: %w", err)
	}
	return nil
}

func rowForEvent(evt event.Event) (storage.ParticipantSlotRow, error) {
	row := storage.ParticipantSlotRow{
		SlotID:        evt.SlotID,
		ParticipantID: evt.ParticipantID,
		Role:          evt.Role,
	}
	switch evt.Type {
	case event.TypeParticipantSlotMarkedAvailable:
		row.Status = string(participantslot.StatusAvailable)
	case event.TypeParticipantSlotUnmarkedAvailable:
		row.Status = string(participantslot.StatusUnavailable)
	case event.TypeParticipantSlotBooked:
		row.Status = string(participantslot.StatusBooked)
		row.BookingID = evt.BookingID
	case event.TypeParticipantSlotCanceled:
		// Cancellation returns the participant to the open pool.
		row.Status = string(participantslot.StatusAvailable)
	default:
		return storage.ParticipantSlotRow{}, fmt.Errorf("unsupported participant status event type %q", evt.Type)
	}
	return row, nil
}
