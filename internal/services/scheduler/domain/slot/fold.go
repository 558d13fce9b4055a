package slot

import (
	"fmt"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/participant"
)

// Fold applies a slot event to timeslot state. It is pure: the input state is
// never mutated, so replay behavior matches request-time behavior.
func Fold(state Timeslot, evt event.Event) (Timeslot, error) {
	switch evt.Type {
	case event.TypeSlotParticipantBooked:
		state.Bookings = appendBooking(state.Bookings, Booking{
			Participant: participant.Participant{ID: evt.ParticipantID, Role: participant.Role(evt.Role)},
			BookingID:   evt.BookingID,
		})
		state.Available = removeParticipant(state.Available, evt.ParticipantID)
		return state, nil

	case event.TypeSlotParticipantCanceled:
		// Not matching on the booking id: there is only one booking per
		// participant per timeslot. The participant is not restored to
		// Available; that takes a fresh MarkAvailable.
		state.Bookings = removeBookingsByParticipant(state.Bookings, evt.ParticipantID)
		return state, nil

	case event.TypeSlotParticipantMarkedAvailable:
		if !state.IsAvailable(evt.ParticipantID) {
			state.Available = appendParticipant(state.Available, participant.Participant{
				ID:   evt.ParticipantID,
				Role: participant.Role(evt.Role),
			})
		}
		return state, nil

	case event.TypeSlotParticipantUnmarkedAvailable:
		state.Available = removeParticipant(state.Available, evt.ParticipantID)
		return state, nil
	}

	return state, fmt.Errorf("slot fold: unhandled event type %s", evt.Type)
}

func appendBooking(bookings []Booking, b Booking) []Booking {
	next := make([]Booking, 0, len(bookings)+1)
	next = append(next, bookings...)
	return append(next, b)
}

func appendParticipant(available []participant.Participant, p participant.Participant) []participant.Participant {
	next := make([]participant.Participant, 0, len(available)+1)
	next = append(next, available...)
	return append(next, p)
}

func removeParticipant(available []participant.Participant, participantID string) []participant.Participant {
	var next []participant.Participant
	for _, p := range available {
		if p.ID != participantID {
			next = append(next, p)
		}
	}
	return next
}

func removeBookingsByParticipant(bookings []Booking, participantID string) []Booking {
	var next []Booking
	for _, b := range bookings {
		if b.Participant.ID != participantID {
			next = append(next, b)
		}
	}
	return next
}
