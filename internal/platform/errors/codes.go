package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Slot errors
	CodeSlotIDRequired               Code = "SLOT_ID_REQUIRED"
	CodeSlotParticipantAlreadyBooked Code = "SLOT_PARTICIPANT_ALREADY_BOOKED"
	CodeSlotHasBookingConflict       Code = "SLOT_HAS_BOOKING_CONFLICT"
	CodeSlotResourcesUnavailable     Code = "SLOT_RESOURCES_UNAVAILABLE"
	CodeSlotBookingNotFound          Code = "SLOT_BOOKING_NOT_FOUND"

	// Participant errors
	CodeParticipantIDRequired  Code = "PARTICIPANT_ID_REQUIRED"
	CodeParticipantInvalidRole Code = "PARTICIPANT_INVALID_ROLE"

	// Participant-slot errors
	CodeParticipantSlotBookedCannotMark Code = "PARTICIPANT_SLOT_BOOKED_CANNOT_MARK"
	CodeParticipantSlotNotAvailable     Code = "PARTICIPANT_SLOT_NOT_AVAILABLE"
	CodeParticipantSlotNotBooked        Code = "PARTICIPANT_SLOT_NOT_BOOKED"

	// Booking errors
	CodeBookingIDRequired Code = "BOOKING_ID_REQUIRED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)
