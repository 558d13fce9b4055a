package participantslot

import (
	"strings"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/command"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
)

// Rejection codes returned by the participant-slot decider. Each can surface
// either from a direct caller mistake or from a stale relayed command; the
// relay decides which interpretation applies.
const (
	RejectionCodeTargetRequired     = "PARTICIPANT_SLOT_TARGET_REQUIRED"
	RejectionCodeBookingIDRequired  = "BOOKING_ID_REQUIRED"
	RejectionCodeBookedCannotMark   = "PARTICIPANT_SLOT_BOOKED_CANNOT_MARK"
	RejectionCodeNotAvailable       = "PARTICIPANT_SLOT_NOT_AVAILABLE"
	RejectionCodeNotBooked          = "PARTICIPANT_SLOT_NOT_BOOKED"
	RejectionCodeUnsupportedCommand = "PARTICIPANT_SLOT_UNSUPPORTED_COMMAND"
)

// Decide returns the decision for a participant-slot command against the
// record's current status.
func Decide(state State, cmd Command, now func() time.Time) command.Decision {
	target := cmd.Target()
	if strings.TrimSpace(target.SlotID) == "" || strings.TrimSpace(target.ParticipantID) == "" {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeTargetRequired,
			Message: "slot id and participant id are required",
		})
	}
	if now == nil {
		now = time.Now
	}

	switch c := cmd.(type) {
	case MarkAvailable:
		if state.CurrentStatus() == StatusBooked {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeBookedCannotMark,
				Message: "cannot mark a booked record as available",
			})
		}
		return command.Accept(recordEvent(event.TypeParticipantSlotMarkedAvailable, target, "", now()))

	case UnmarkAvailable:
		if state.CurrentStatus() != StatusAvailable {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeNotAvailable,
				Message: "cannot unmark a record that is not available",
			})
		}
		return command.Accept(recordEvent(event.TypeParticipantSlotUnmarkedAvailable, target, "", now()))

	case Book:
		if strings.TrimSpace(c.BookingID) == "" {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeBookingIDRequired,
				Message: "booking id is required",
			})
		}
		if state.CurrentStatus() != StatusAvailable {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeNotAvailable,
				Message: "cannot book a record that is not available",
			})
		}
		return command.Accept(recordEvent(event.TypeParticipantSlotBooked, target, c.BookingID, now()))

	case Cancel:
		if strings.TrimSpace(c.BookingID) == "" {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeBookingIDRequired,
				Message: "booking id is required",
			})
		}
		if state.CurrentStatus() != StatusBooked {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeNotBooked,
				Message: "cannot cancel a record that is not booked",
			})
		}
		return command.Accept(recordEvent(event.TypeParticipantSlotCanceled, target, c.BookingID, now()))
	}

	return command.Reject(command.Rejection{
		Code:    RejectionCodeUnsupportedCommand,
		Message: "unsupported participant-slot command",
	})
}

func recordEvent(eventType event.Type, target Target, bookingID string, at time.Time) event.Event {
	return event.Event{
		AggregateID:   Key(target.SlotID, target.ParticipantID),
		Timestamp:     at,
		Type:          eventType,
		SlotID:        target.SlotID,
		ParticipantID: target.ParticipantID,
		Role:          target.Role,
		BookingID:     bookingID,
	}
}
