package participantslot

import (
	"fmt"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
)

// Fold applies a participant-slot event to record state.
//
// Canceled folds to available, not unavailable: at the participant's own
// record a cancellation reopens the offer, even though the slot aggregate
// never restores its available set. The asymmetry is deliberate.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case event.TypeParticipantSlotMarkedAvailable:
		state.Status = StatusAvailable
		state.BookingID = ""
	case event.TypeParticipantSlotUnmarkedAvailable:
		state.Status = StatusUnavailable
		state.BookingID = ""
	case event.TypeParticipantSlotBooked:
		state.Status = StatusBooked
		state.BookingID = evt.BookingID
	case event.TypeParticipantSlotCanceled:
		state.Status = StatusAvailable
		state.BookingID = ""
	default:
		return state, fmt.Errorf("participant-slot fold: unhandled event type %s", evt.Type)
	}

	state.SlotID = evt.SlotID
	state.ParticipantID = evt.ParticipantID
	if evt.Role != "" {
		state.Role = evt.Role
	}
	return state, nil
}
