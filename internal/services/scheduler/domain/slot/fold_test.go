package slot

import (
	"testing"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/participant"
)

func slotEvent(eventType event.Type, participantID string, role participant.Role, bookingID string) event.Event {
	return event.Event{
		AggregateID:   "S1",
		Timestamp:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Type:          eventType,
		SlotID:        "S1",
		ParticipantID: participantID,
		Role:          string(role),
		BookingID:     bookingID,
	}
}

func TestFoldBookedMovesParticipantOutOfAvailable(t *testing.T) {
	state, err := Fold(Timeslot{}, slotEvent(event.TypeSlotParticipantMarkedAvailable, "s1", participant.RoleStudent, ""))
	if err != nil {
		t.Fatalf("fold marked: %v", err)
	}
	state, err = Fold(state, slotEvent(event.TypeSlotParticipantBooked, "s1", participant.RoleStudent, "B1"))
	if err != nil {
		t.Fatalf("fold booked: %v", err)
	}

	if state.IsAvailable("s1") {
		t.Fatal("expected s1 removed from available")
	}
	if !state.HasBooking("s1") {
		t.Fatal("expected s1 booked")
	}
}

func TestFoldCanceledDoesNotRestoreAvailability(t *testing.T) {
	state, _ := Fold(Timeslot{}, slotEvent(event.TypeSlotParticipantMarkedAvailable, "s1", participant.RoleStudent, ""))
	state, _ = Fold(state, slotEvent(event.TypeSlotParticipantBooked, "s1", participant.RoleStudent, "B1"))

	state, err := Fold(state, slotEvent(event.TypeSlotParticipantCanceled, "s1", participant.RoleStudent, "B1"))
	if err != nil {
		t.Fatalf("fold canceled: %v", err)
	}

	if state.HasBooking("s1") {
		t.Fatal("expected booking removed")
	}
	if state.IsAvailable("s1") {
		t.Fatal("cancellation must not restore the slot's available set")
	}
}

func TestFoldAvailabilityXorBookingInvariant(t *testing.T) {
	events := []event.Event{
		slotEvent(event.TypeSlotParticipantMarkedAvailable, "s1", participant.RoleStudent, ""),
		slotEvent(event.TypeSlotParticipantMarkedAvailable, "i1", participant.RoleInstructor, ""),
		slotEvent(event.TypeSlotParticipantMarkedAvailable, "a1", participant.RoleAircraft, ""),
		slotEvent(event.TypeSlotParticipantBooked, "s1", participant.RoleStudent, "B1"),
		slotEvent(event.TypeSlotParticipantBooked, "i1", participant.RoleInstructor, "B1"),
		slotEvent(event.TypeSlotParticipantBooked, "a1", participant.RoleAircraft, "B1"),
		slotEvent(event.TypeSlotParticipantCanceled, "s1", participant.RoleStudent, "B1"),
		slotEvent(event.TypeSlotParticipantMarkedAvailable, "s1", participant.RoleStudent, ""),
		slotEvent(event.TypeSlotParticipantUnmarkedAvailable, "s1", participant.RoleStudent, ""),
	}

	state := Timeslot{}
	for _, evt := range events {
		next, err := Fold(state, evt)
		if err != nil {
			t.Fatalf("fold %s: %v", evt.Type, err)
		}
		state = next
		for _, pid := range []string{"s1", "i1", "a1"} {
			if state.IsAvailable(pid) && state.HasBooking(pid) {
				t.Fatalf("after %s: %s is both available and booked", evt.Type, pid)
			}
		}
	}

	if state.IsAvailable("s1") || state.HasBooking("s1") {
		t.Fatal("expected s1 in neither set at the end")
	}
	if !state.HasBooking("i1") || !state.HasBooking("a1") {
		t.Fatal("expected i1 and a1 still booked")
	}
}

func TestFoldMarkedAvailableIsReplaySafe(t *testing.T) {
	evt := slotEvent(event.TypeSlotParticipantMarkedAvailable, "s1", participant.RoleStudent, "")
	state, _ := Fold(Timeslot{}, evt)
	state, _ = Fold(state, evt)

	if len(state.Available) != 1 {
		t.Fatalf("expected a single available entry after replaying the same event, got %d", len(state.Available))
	}
}

func TestFoldDoesNotMutateInput(t *testing.T) {
	original, _ := Fold(Timeslot{}, slotEvent(event.TypeSlotParticipantMarkedAvailable, "s1", participant.RoleStudent, ""))

	if _, err := Fold(original, slotEvent(event.TypeSlotParticipantBooked, "s1", participant.RoleStudent, "B1")); err != nil {
		t.Fatalf("fold booked: %v", err)
	}
	if !original.IsAvailable("s1") {
		t.Fatal("expected input state to be untouched")
	}
	if original.HasBooking("s1") {
		t.Fatal("expected input bookings to be untouched")
	}
}

func TestFoldRejectsForeignEvent(t *testing.T) {
	if _, err := Fold(Timeslot{}, slotEvent(event.TypeParticipantSlotBooked, "s1", participant.RoleStudent, "B1")); err == nil {
		t.Fatal("expected error for participant-slot event in slot fold")
	}
}
