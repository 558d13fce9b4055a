// Package participantslot implements the per (slot, participant) status
// aggregate. It answers availability and booking questions for one
// participant's own record, independent of the slot aggregate's bookkeeping.
package participantslot

import "strings"

// Status is a participant's standing for one timeslot.
type Status string

const (
	// StatusUnavailable is the default standing for a record with no history.
	StatusUnavailable Status = "unavailable"
	// StatusAvailable means the participant is offered for the slot.
	StatusAvailable Status = "available"
	// StatusBooked means the participant is bound into a reservation.
	StatusBooked Status = "booked"
)

// State captures a participant's record for one timeslot. The zero value is
// the absent record and reads as unavailable.
type State struct {
	SlotID        string
	ParticipantID string
	Role          string
	Status        Status
	BookingID     string
}

// CurrentStatus resolves the zero value to unavailable.
func (s State) CurrentStatus() Status {
	if s.Status == "" {
		return StatusUnavailable
	}
	return s.Status
}

// Key derives the aggregate key for a (slot, participant) pair. Participant
// ids are unique across roles, so the role is not part of the key.
func Key(slotID, participantID string) string {
	return strings.TrimSpace(slotID) + "-" + strings.TrimSpace(participantID)
}
