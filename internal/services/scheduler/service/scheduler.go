// Package service is the scheduling facade: it wires the slot and participant
// engines over one journal and exposes command, query, and operations
// endpoints with machine-readable error codes.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/flightbay/flightbay/internal/platform/errors"
	"github.com/flightbay/flightbay/internal/platform/id"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/command"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/engine"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/participant"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/participantslot"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/slot"
	"github.com/flightbay/flightbay/internal/services/scheduler/storage"
)

// Scheduler coordinates slot commands, record queries, and operations
// endpoints.
type Scheduler struct {
	slots        *engine.Handler
	participants *engine.Handler
	rows         storage.ParticipantSlotStore
	outbox       storage.OutboxStore
	telemetry    storage.TelemetryStore
}

// Stores bundles the persistence dependencies of the scheduler.
type Stores struct {
	Journal   engine.Journal
	Rows      storage.ParticipantSlotStore
	Outbox    storage.OutboxStore
	Telemetry storage.TelemetryStore
}

// New wires a scheduler over the provided stores.
func New(stores Stores) (*Scheduler, error) {
	if stores.Journal == nil {
		return nil, fmt.Errorf("journal is required")
	}
	if stores.Rows == nil {
		return nil, fmt.Errorf("participant slot store is required")
	}
	if stores.Outbox == nil {
		return nil, fmt.Errorf("outbox store is required")
	}

	slots := engine.New(engine.Config{
		Journal: stores.Journal,
		Empty:   func(string) any { return slot.Timeslot{} },
		Fold: func(state any, evt event.Event) (any, error) {
			current, ok := state.(slot.Timeslot)
			if !ok {
				return nil, fmt.Errorf("unexpected slot state type %T", state)
			}
			return slot.Fold(current, evt)
		},
		Decide: func(aggregateID string, state any, cmd any, now func() time.Time) command.Decision {
			current, ok := state.(slot.Timeslot)
			if !ok {
				return command.Reject(command.Rejection{
					Code:    slot.RejectionCodeUnsupportedCommand,
					Message: fmt.Sprintf("unexpected slot state type %T", state),
				})
			}
			slotCmd, ok := cmd.(slot.Command)
			if !ok {
				return command.Reject(command.Rejection{
					Code:    slot.RejectionCodeUnsupportedCommand,
					Message: fmt.Sprintf("unsupported slot command type %T", cmd),
				})
			}
			return slot.Decide(aggregateID, current, slotCmd, now)
		},
	})

	participants := engine.New(engine.Config{
		Journal: stores.Journal,
		Empty:   func(string) any { return participantslot.State{} },
		Fold: func(state any, evt event.Event) (any, error) {
			current, ok := state.(participantslot.State)
			if !ok {
				return nil, fmt.Errorf("unexpected participant record state type %T", state)
			}
			return participantslot.Fold(current, evt)
		},
		Decide: func(_ string, state any, cmd any, now func() time.Time) command.Decision {
			current, ok := state.(participantslot.State)
			if !ok {
				return command.Reject(command.Rejection{
					Code:    participantslot.RejectionCodeUnsupportedCommand,
					Message: fmt.Sprintf("unexpected participant record state type %T", state),
				})
			}
			recordCmd, ok := cmd.(participantslot.Command)
			if !ok {
				return command.Reject(command.Rejection{
					Code:    participantslot.RejectionCodeUnsupportedCommand,
					Message: fmt.Sprintf("unsupported participant record command type %T", cmd),
				})
			}
			return participantslot.Decide(current, recordCmd, now)
		},
	})

	return &Scheduler{
		slots:        slots,
		participants: participants,
		rows:         stores.Rows,
		outbox:       stores.Outbox,
		telemetry:    stores.Telemetry,
	}, nil
}

// ParticipantEngine exposes the participant record engine for relay wiring.
func (s *Scheduler) ParticipantEngine() *engine.Handler {
	return s.participants
}

// MarkAvailable offers a participant for a timeslot.
func (s *Scheduler) MarkAvailable(ctx context.Context, slotID, participantID, role string) error {
	parsed, err := parseRole(role)
	if err != nil {
		return err
	}
	decision, err := s.slots.Execute(ctx, slotID, slot.MarkAvailable{
		Participant: participant.Participant{ID: strings.TrimSpace(participantID), Role: parsed},
	})
	if err != nil {
		return wrapInfrastructure("mark available", err)
	}
	return rejectionError(decision)
}

// UnmarkAvailable withdraws a participant's offer for a timeslot.
func (s *Scheduler) UnmarkAvailable(ctx context.Context, slotID, participantID, role string) error {
	parsed, err := parseRole(role)
	if err != nil {
		return err
	}
	decision, err := s.slots.Execute(ctx, slotID, slot.UnmarkAvailable{
		Participant: participant.Participant{ID: strings.TrimSpace(participantID), Role: parsed},
	})
	if err != nil {
		return wrapInfrastructure("unmark available", err)
	}
	return rejectionError(decision)
}

// BookReservation reserves a timeslot for a student, an aircraft, and an
// instructor. A blank booking id is assigned by the scheduler. Returns the
// booking id of the reservation.
func (s *Scheduler) BookReservation(ctx context.Context, slotID, studentID, aircraftID, instructorID, bookingID string) (string, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		generated, err := id.NewID()
		if err != nil {
			return "", wrapInfrastructure("assign booking id", err)
		}
		bookingID = generated
	}

	decision, err := s.slots.Execute(ctx, slotID, slot.BookReservation{
		StudentID:    strings.TrimSpace(studentID),
		AircraftID:   strings.TrimSpace(aircraftID),
		InstructorID: strings.TrimSpace(instructorID),
		BookingID:    bookingID,
	})
	if err != nil {
		return "", wrapInfrastructure("book reservation", err)
	}
	if err := rejectionError(decision); err != nil {
		return "", err
	}
	return bookingID, nil
}

// CancelBooking releases every participant bound under the booking id.
func (s *Scheduler) CancelBooking(ctx context.Context, slotID, bookingID string) error {
	decision, err := s.slots.Execute(ctx, slotID, slot.CancelBooking{
		BookingID: strings.TrimSpace(bookingID),
	})
	if err != nil {
		return wrapInfrastructure("cancel booking", err)
	}
	return rejectionError(decision)
}

// GetTimeslot replays a timeslot's full state.
func (s *Scheduler) GetTimeslot(ctx context.Context, slotID string) (slot.Timeslot, error) {
	state, err := s.slots.Load(ctx, slotID)
	if err != nil {
		return slot.Timeslot{}, wrapInfrastructure("load timeslot", err)
	}
	current, ok := state.(slot.Timeslot)
	if !ok {
		return slot.Timeslot{}, apperrors.New(apperrors.CodeUnknown, fmt.Sprintf("unexpected slot state type %T", state))
	}
	return current, nil
}

// GetParticipantSlot replays one participant's own record for a timeslot.
func (s *Scheduler) GetParticipantSlot(ctx context.Context, slotID, participantID string) (participantslot.State, error) {
	key := participantslot.Key(slotID, participantID)
	if key == "" {
		return participantslot.State{}, apperrors.New(apperrors.CodeSlotIDRequired, "slot id and participant id are required")
	}
	state, err := s.participants.Load(ctx, key)
	if err != nil {
		return participantslot.State{}, wrapInfrastructure("load participant record", err)
	}
	current, ok := state.(participantslot.State)
	if !ok {
		return participantslot.State{}, apperrors.New(apperrors.CodeUnknown, fmt.Sprintf("unexpected participant record state type %T", state))
	}
	return current, nil
}

// ListSlotsByParticipant returns the participant's materialized status rows.
func (s *Scheduler) ListSlotsByParticipant(ctx context.Context, participantID string) ([]storage.ParticipantSlotRow, error) {
	rows, err := s.rows.ListSlotsByParticipant(ctx, strings.TrimSpace(participantID))
	if err != nil {
		return nil, wrapInfrastructure("list participant slots", err)
	}
	return rows, nil
}

// ListSlotsByParticipantAndStatus returns the participant's rows filtered to
// one status.
func (s *Scheduler) ListSlotsByParticipantAndStatus(ctx context.Context, participantID, status string) ([]storage.ParticipantSlotRow, error) {
	rows, err := s.rows.ListSlotsByParticipantAndStatus(ctx, strings.TrimSpace(participantID), strings.TrimSpace(status))
	if err != nil {
		return nil, wrapInfrastructure("list participant slots by status", err)
	}
	return rows, nil
}

// OutboxSummary reports relay queue depth for operations tooling.
func (s *Scheduler) OutboxSummary(ctx context.Context) (storage.OutboxSummary, error) {
	summary, err := s.outbox.OutboxSummary(ctx)
	if err != nil {
		return storage.OutboxSummary{}, wrapInfrastructure("outbox summary", err)
	}
	return summary, nil
}

// RequeueDeadOutboxRows returns dead-lettered relay rows to the queue.
func (s *Scheduler) RequeueDeadOutboxRows(ctx context.Context, limit int) (int, error) {
	requeued, err := s.outbox.RequeueDeadOutboxRows(ctx, limit, time.Now().UTC())
	if err != nil {
		return 0, wrapInfrastructure("requeue dead outbox rows", err)
	}
	return requeued, nil
}

// ListTelemetryEvents returns recent operational telemetry, newest first.
func (s *Scheduler) ListTelemetryEvents(ctx context.Context, limit int) ([]storage.TelemetryEvent, error) {
	if s.telemetry == nil {
		return nil, apperrors.New(apperrors.CodeUnknown, "telemetry store is not configured")
	}
	events, err := s.telemetry.ListTelemetryEvents(ctx, limit)
	if err != nil {
		return nil, wrapInfrastructure("list telemetry events", err)
	}
	return events, nil
}

func parseRole(role string) (participant.Role, error) {
	parsed, ok := participant.ParseRole(role)
	if !ok {
		return "", apperrors.New(apperrors.CodeParticipantInvalidRole, fmt.Sprintf("invalid participant role %q", role))
	}
	return parsed, nil
}

func rejectionError(decision command.Decision) error {
	if !decision.Rejected() {
		return nil
	}
	rejection := decision.Rejections[0]
	return apperrors.New(apperrors.Code(rejection.Code), rejection.Message)
}

func wrapInfrastructure(operation string, err error) error {
	return apperrors.Wrap(apperrors.CodeUnknown, operation, err)
}
