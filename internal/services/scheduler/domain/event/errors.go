package event

import "errors"

var (
	// ErrInvalidType indicates an event type outside the journal's closed set.
	ErrInvalidType = errors.New("invalid event type")
	// ErrAggregateIDRequired indicates a missing aggregate id.
	ErrAggregateIDRequired = errors.New("aggregate id is required")
	// ErrSlotIDRequired indicates a missing slot id.
	ErrSlotIDRequired = errors.New("slot id is required")
	// ErrParticipantIDRequired indicates a missing participant id.
	ErrParticipantIDRequired = errors.New("participant id is required")
	// ErrBookingIDRequired indicates a booked/canceled event without a booking id.
	ErrBookingIDRequired = errors.New("booking id is required")
)
