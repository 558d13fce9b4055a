package slot

import "github.com/flightbay/flightbay/internal/services/scheduler/domain/participant"

// Command is the closed set of slot aggregate commands.
type Command interface {
	isSlotCommand()
}

// MarkAvailable offers a participant for the timeslot.
type MarkAvailable struct {
	Participant participant.Participant
}

// UnmarkAvailable withdraws a participant's offer for the timeslot.
type UnmarkAvailable struct {
	Participant participant.Participant
}

// BookReservation reserves the timeslot for a student, an aircraft, and an
// instructor under a caller-assigned booking id.
type BookReservation struct {
	StudentID    string
	AircraftID   string
	InstructorID string
	BookingID    string
}

// CancelBooking releases every participant bound under the booking id.
type CancelBooking struct {
	BookingID string
}

func (MarkAvailable) isSlotCommand()   {}
func (UnmarkAvailable) isSlotCommand() {}
func (BookReservation) isSlotCommand() {}
func (CancelBooking) isSlotCommand()   {}
