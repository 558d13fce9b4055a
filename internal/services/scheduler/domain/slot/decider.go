package slot

import (
	"strings"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/command"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/participant"
)

// Rejection codes returned by the slot decider.
const (
	RejectionCodeSlotIDRequired        = "SLOT_ID_REQUIRED"
	RejectionCodeParticipantIDRequired = "PARTICIPANT_ID_REQUIRED"
	RejectionCodeParticipantRole       = "PARTICIPANT_INVALID_ROLE"
	RejectionCodeBookingIDRequired     = "BOOKING_ID_REQUIRED"
	RejectionCodeAlreadyBooked         = "SLOT_PARTICIPANT_ALREADY_BOOKED"
	RejectionCodeBookingConflict       = "SLOT_HAS_BOOKING_CONFLICT"
	RejectionCodeResourcesUnavailable  = "SLOT_RESOURCES_UNAVAILABLE"
	RejectionCodeBookingNotFound       = "SLOT_BOOKING_NOT_FOUND"
	RejectionCodeUnsupportedCommand    = "SLOT_UNSUPPORTED_COMMAND"
)

// Decide returns the decision for a slot command against current state.
//
// Admission checks compare participants by id value. Accepting with zero
// events is the idempotent no-op path: repeating MarkAvailable for an offered
// participant, or UnmarkAvailable for an absent one, succeeds without
// persisting anything.
func Decide(slotID string, state Timeslot, cmd Command, now func() time.Time) command.Decision {
	if strings.TrimSpace(slotID) == "" {
		return command.Reject(command.Rejection{
			Code:    RejectionCodeSlotIDRequired,
			Message: "slot id is required",
		})
	}
	if now == nil {
		now = time.Now
	}

	switch c := cmd.(type) {
	case MarkAvailable:
		if rejection, ok := validateParticipant(c.Participant); !ok {
			return command.Reject(rejection)
		}
		if state.HasBooking(c.Participant.ID) {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeAlreadyBooked,
				Message: "participant already has a booking for this timeslot",
			})
		}
		if state.IsAvailable(c.Participant.ID) {
			return command.Accept()
		}
		return command.Accept(availabilityEvent(event.TypeSlotParticipantMarkedAvailable, slotID, c.Participant, now()))

	case UnmarkAvailable:
		if rejection, ok := validateParticipant(c.Participant); !ok {
			return command.Reject(rejection)
		}
		if state.HasBooking(c.Participant.ID) {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeBookingConflict,
				Message: "participant has a booking for this timeslot, cancel the booking first",
			})
		}
		if !state.IsAvailable(c.Participant.ID) {
			return command.Accept()
		}
		return command.Accept(availabilityEvent(event.TypeSlotParticipantUnmarkedAvailable, slotID, c.Participant, now()))

	case BookReservation:
		for _, pid := range []string{c.StudentID, c.AircraftID, c.InstructorID} {
			if strings.TrimSpace(pid) == "" {
				return command.Reject(command.Rejection{
					Code:    RejectionCodeParticipantIDRequired,
					Message: "student, aircraft and instructor ids are required",
				})
			}
		}
		if strings.TrimSpace(c.BookingID) == "" {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeBookingIDRequired,
				Message: "booking id is required",
			})
		}
		if !state.IsBookable(c.StudentID, c.AircraftID, c.InstructorID) {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeResourcesUnavailable,
				Message: "booking cannot be made, not all required participants are available",
			})
		}
		at := now()
		return command.Accept(
			bookingEvent(event.TypeSlotParticipantBooked, slotID, c.StudentID, participant.RoleStudent, c.BookingID, at),
			bookingEvent(event.TypeSlotParticipantBooked, slotID, c.InstructorID, participant.RoleInstructor, c.BookingID, at),
			bookingEvent(event.TypeSlotParticipantBooked, slotID, c.AircraftID, participant.RoleAircraft, c.BookingID, at),
		)

	case CancelBooking:
		if strings.TrimSpace(c.BookingID) == "" {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeBookingIDRequired,
				Message: "booking id is required",
			})
		}
		matched := state.BookingsFor(c.BookingID)
		if len(matched) == 0 {
			return command.Reject(command.Rejection{
				Code:    RejectionCodeBookingNotFound,
				Message: "booking does not exist",
			})
		}
		at := now()
		cancellations := make([]event.Event, 0, len(matched))
		for _, b := range matched {
			cancellations = append(cancellations, bookingEvent(
				event.TypeSlotParticipantCanceled, slotID, b.Participant.ID, b.Participant.Role, c.BookingID, at,
			))
		}
		return command.Accept(cancellations...)
	}

	return command.Reject(command.Rejection{
		Code:    RejectionCodeUnsupportedCommand,
		Message: "unsupported slot command",
	})
}

func validateParticipant(p participant.Participant) (command.Rejection, bool) {
	if strings.TrimSpace(p.ID) == "" {
		return command.Rejection{
			Code:    RejectionCodeParticipantIDRequired,
			Message: "participant id is required",
		}, false
	}
	if !p.Role.IsValid() {
		return command.Rejection{
			Code:    RejectionCodeParticipantRole,
			Message: "participant role is required",
		}, false
	}
	return command.Rejection{}, true
}

func availabilityEvent(eventType event.Type, slotID string, p participant.Participant, at time.Time) event.Event {
	return event.Event{
		AggregateID:   slotID,
		Timestamp:     at,
		Type:          eventType,
		SlotID:        slotID,
		ParticipantID: p.ID,
		Role:          string(p.Role),
	}
}

func bookingEvent(eventType event.Type, slotID, participantID string, role participant.Role, bookingID string, at time.Time) event.Event {
	return event.Event{
		AggregateID:   slotID,
		Timestamp:     at,
		Type:          eventType,
		SlotID:        slotID,
		ParticipantID: participantID,
		Role:          string(role),
		BookingID:     bookingID,
	}
}
