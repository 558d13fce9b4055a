// Package slot implements the timeslot aggregate: availability markings and
// the three-role reservation admission rule.
package slot

import "github.com/flightbay/flightbay/internal/services/scheduler/domain/participant"

// Booking binds one participant into a reservation. All bookings created by a
// single reservation share a booking id.
type Booking struct {
	Participant participant.Participant
	BookingID   string
}

// Timeslot captures slot aggregate state derived from journal events.
//
// A participant id is a member of Available or of Bookings, never both:
// booking removes it from Available and cancellation does not restore it.
type Timeslot struct {
	Bookings  []Booking
	Available []participant.Participant
}

// IsAvailable reports whether the participant id is currently offered.
func (t Timeslot) IsAvailable(participantID string) bool {
	for _, p := range t.Available {
		if p.ID == participantID {
			return true
		}
	}
	return false
}

// HasBooking reports whether the participant id currently holds a booking.
func (t Timeslot) HasBooking(participantID string) bool {
	for _, b := range t.Bookings {
		if b.Participant.ID == participantID {
			return true
		}
	}
	return false
}

// BookingsFor returns the bookings carrying the given booking id.
func (t Timeslot) BookingsFor(bookingID string) []Booking {
	var matched []Booking
	for _, b := range t.Bookings {
		if b.BookingID == bookingID {
			matched = append(matched, b)
		}
	}
	return matched
}

// IsBookable reports whether all three required resources are currently
// offered, which is the admission rule for a reservation.
func (t Timeslot) IsBookable(studentID, aircraftID, instructorID string) bool {
	return t.IsAvailable(studentID) && t.IsAvailable(aircraftID) && t.IsAvailable(instructorID)
}
