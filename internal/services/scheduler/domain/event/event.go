// Package event defines the journal envelope shared by the slot and
// participant-slot aggregates.
package event

import (
	"strings"
	"time"
)

// Type identifies the type of a scheduling event.
type Type string

// Slot aggregate events.
const (
	// TypeSlotParticipantMarkedAvailable records a participant offering a timeslot.
	TypeSlotParticipantMarkedAvailable Type = "slot.participant_marked_available"
	// TypeSlotParticipantUnmarkedAvailable records a participant withdrawing a timeslot offer.
	TypeSlotParticipantUnmarkedAvailable Type = "slot.participant_unmarked_available"
	// TypeSlotParticipantBooked records one participant being bound into a reservation.
	TypeSlotParticipantBooked Type = "slot.participant_booked"
	// TypeSlotParticipantCanceled records one participant being released from a reservation.
	TypeSlotParticipantCanceled Type = "slot.participant_canceled"
)

// Participant-slot aggregate events.
const (
	// TypeParticipantSlotMarkedAvailable records the participant's own record turning available.
	TypeParticipantSlotMarkedAvailable Type = "participantslot.marked_available"
	// TypeParticipantSlotUnmarkedAvailable records the participant's own record turning unavailable.
	TypeParticipantSlotUnmarkedAvailable Type = "participantslot.unmarked_available"
	// TypeParticipantSlotBooked records the participant's own record turning booked.
	TypeParticipantSlotBooked Type = "participantslot.booked"
	// TypeParticipantSlotCanceled records a cancellation at the participant's own record.
	TypeParticipantSlotCanceled Type = "participantslot.canceled"
)

// Event represents an immutable entry in the scheduling journal.
type Event struct {
	// AggregateID is the journal stream this event belongs to: the slot id for
	// slot events, the derived slot-participant key for participant-slot events.
	AggregateID string
	// Seq is the event sequence number within the aggregate (starts at 1).
	// Assigned by storage on append.
	Seq uint64
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Type identifies the kind of event.
	Type Type
	// SlotID is the timeslot the event concerns.
	SlotID string
	// ParticipantID is the participant the event concerns.
	ParticipantID string
	// Role is the participant's resource role (student, instructor, aircraft).
	Role string
	// BookingID correlates booked/canceled events across both aggregate
	// families. Empty for availability events.
	BookingID string
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	switch t {
	case TypeSlotParticipantMarkedAvailable,
		TypeSlotParticipantUnmarkedAvailable,
		TypeSlotParticipantBooked,
		TypeSlotParticipantCanceled,
		TypeParticipantSlotMarkedAvailable,
		TypeParticipantSlotUnmarkedAvailable,
		TypeParticipantSlotBooked,
		TypeParticipantSlotCanceled:
		return true
	}
	return false
}

// Domain returns the domain prefix of the event type (e.g. "slot",
// "participantslot"). The relay routes outbox rows by this prefix.
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}

// DomainSlot and DomainParticipantSlot are the journal's two event families.
const (
	DomainSlot            = "slot"
	DomainParticipantSlot = "participantslot"
)

// Validate checks the envelope fields every appended event must carry.
func (e Event) Validate() error {
	if !e.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(e.AggregateID) == "" {
		return ErrAggregateIDRequired
	}
	if strings.TrimSpace(e.SlotID) == "" {
		return ErrSlotIDRequired
	}
	if strings.TrimSpace(e.ParticipantID) == "" {
		return ErrParticipantIDRequired
	}
	switch e.Type {
	case TypeSlotParticipantBooked, TypeSlotParticipantCanceled,
		TypeParticipantSlotBooked, TypeParticipantSlotCanceled:
		if strings.TrimSpace(e.BookingID) == "" {
			return ErrBookingIDRequired
		}
	}
	return nil
}
