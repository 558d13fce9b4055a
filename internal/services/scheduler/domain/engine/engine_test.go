package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/command"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/participant"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/slot"
)

// memoryJournal is an in-memory Journal for engine tests.
type memoryJournal struct {
	mu     sync.Mutex
	events map[string][]event.Event
}

func newMemoryJournal() *memoryJournal {
	return &memoryJournal{events: make(map[string][]event.Event)}
}

func (j *memoryJournal) AppendEvents(_ context.Context, events []event.Event) ([]event.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		evt.Seq = uint64(len(j.events[evt.AggregateID]) + 1)
		j.events[evt.AggregateID] = append(j.events[evt.AggregateID], evt)
		stored = append(stored, evt)
	}
	return stored, nil
}

func (j *memoryJournal) ListEvents(_ context.Context, aggregateID string, afterSeq uint64, limit int) ([]event.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var page []event.Event
	for _, evt := range j.events[aggregateID] {
		if evt.Seq <= afterSeq {
			continue
		}
		page = append(page, evt)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func slotHandler(journal Journal) *Handler {
	return New(Config{
		Journal: journal,
		Empty:   func(string) any { return slot.Timeslot{} },
		Fold: func(state any, evt event.Event) (any, error) {
			return slot.Fold(state.(slot.Timeslot), evt)
		},
		Decide: func(aggregateID string, state any, cmd any, now func() time.Time) command.Decision {
			return slot.Decide(aggregateID, state.(slot.Timeslot), cmd.(slot.Command), now)
		},
		Now: func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) },
	})
}

func TestExecuteAppendsDecisionEvents(t *testing.T) {
	journal := newMemoryJournal()
	handler := slotHandler(journal)

	decision, err := handler.Execute(context.Background(), "S1", slot.MarkAvailable{
		Participant: participant.Participant{ID: "s1", Role: participant.RoleStudent},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if decision.Rejected() {
		t.Fatalf("unexpected rejection: %v", decision.Rejections)
	}
	if len(decision.Events) != 1 || decision.Events[0].Seq != 1 {
		t.Fatalf("expected stored event with seq 1, got %+v", decision.Events)
	}
}

func TestExecuteRejectionPersistsNothing(t *testing.T) {
	journal := newMemoryJournal()
	handler := slotHandler(journal)

	decision, err := handler.Execute(context.Background(), "S1", slot.BookReservation{
		StudentID: "s1", AircraftID: "a1", InstructorID: "i1", BookingID: "B1",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !decision.Rejected() {
		t.Fatal("expected rejection with nothing available")
	}
	if len(journal.events["S1"]) != 0 {
		t.Fatalf("expected empty journal, got %d events", len(journal.events["S1"]))
	}
}

func TestExecuteReplaysPriorState(t *testing.T) {
	journal := newMemoryJournal()
	handler := slotHandler(journal)
	ctx := context.Background()

	for _, p := range []participant.Participant{
		{ID: "s1", Role: participant.RoleStudent},
		{ID: "i1", Role: participant.RoleInstructor},
		{ID: "a1", Role: participant.RoleAircraft},
	} {
		if _, err := handler.Execute(ctx, "S1", slot.MarkAvailable{Participant: p}); err != nil {
			t.Fatalf("mark %s: %v", p.ID, err)
		}
	}

	decision, err := handler.Execute(ctx, "S1", slot.BookReservation{
		StudentID: "s1", AircraftID: "a1", InstructorID: "i1", BookingID: "B1",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if decision.Rejected() {
		t.Fatalf("unexpected rejection: %v", decision.Rejections)
	}
	if len(decision.Events) != 3 {
		t.Fatalf("expected 3 booked events, got %d", len(decision.Events))
	}

	state, err := handler.Load(ctx, "S1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	timeslot := state.(slot.Timeslot)
	if len(timeslot.Bookings) != 3 || len(timeslot.Available) != 0 {
		t.Fatalf("expected 3 bookings and empty available, got %+v", timeslot)
	}
}

func TestExecuteSerializesPerKey(t *testing.T) {
	journal := newMemoryJournal()
	handler := slotHandler(journal)
	ctx := context.Background()

	// Concurrent idempotent marks for the same participant: serialization
	// means exactly one event survives no matter the interleaving.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := handler.Execute(ctx, "S1", slot.MarkAvailable{
				Participant: participant.Participant{ID: "s1", Role: participant.RoleStudent},
			})
			if err != nil {
				t.Errorf("execute: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(journal.events["S1"]); got != 1 {
		t.Fatalf("expected exactly 1 persisted event, got %d", got)
	}
}

func TestExecuteValidatesConfiguration(t *testing.T) {
	var nilHandler *Handler
	if _, err := nilHandler.Execute(context.Background(), "S1", slot.CancelBooking{BookingID: "B1"}); err == nil {
		t.Fatal("expected configuration error")
	}

	handler := slotHandler(newMemoryJournal())
	if _, err := handler.Execute(context.Background(), "  ", slot.CancelBooking{BookingID: "B1"}); err != ErrAggregateIDRequired {
		t.Fatalf("expected ErrAggregateIDRequired, got %v", err)
	}
}
