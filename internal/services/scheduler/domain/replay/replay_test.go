package replay

import (
	"context"
	"errors"
	"testing"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
)

type fakeEventStore struct {
	events []event.Event
	calls  int
}

func (s *fakeEventStore) ListEvents(_ context.Context, aggregateID string, afterSeq uint64, limit int) ([]event.Event, error) {
	s.calls++
	var page []event.Event
	for _, evt := range s.events {
		if evt.AggregateID != aggregateID || evt.Seq <= afterSeq {
			continue
		}
		page = append(page, evt)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func countingFold(state any, _ event.Event) (any, error) {
	count, _ := state.(int)
	return count + 1, nil
}

func storeWithEvents(n int) *fakeEventStore {
	store := &fakeEventStore{}
	for i := 1; i <= n; i++ {
		store.events = append(store.events, event.Event{
			AggregateID: "S1",
			Seq:         uint64(i),
			Type:        event.TypeSlotParticipantMarkedAvailable,
		})
	}
	return store
}

func TestReplayFoldsAllEventsInOrder(t *testing.T) {
	store := storeWithEvents(5)

	result, err := Replay(context.Background(), store, countingFold, "S1", 0, Options{})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 5 || result.LastSeq != 5 {
		t.Fatalf("expected 5 applied up to seq 5, got %+v", result)
	}
	if result.State.(int) != 5 {
		t.Fatalf("expected folded state 5, got %v", result.State)
	}
}

func TestReplayPages(t *testing.T) {
	store := storeWithEvents(5)

	result, err := Replay(context.Background(), store, countingFold, "S1", 0, Options{PageSize: 2})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 5 {
		t.Fatalf("expected 5 applied, got %d", result.Applied)
	}
	if store.calls < 3 {
		t.Fatalf("expected multiple pages, got %d calls", store.calls)
	}
}

func TestReplayBounds(t *testing.T) {
	store := storeWithEvents(5)

	result, err := Replay(context.Background(), store, countingFold, "S1", 0, Options{AfterSeq: 2, UntilSeq: 4})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 2 || result.LastSeq != 4 {
		t.Fatalf("expected events 3..4 applied, got %+v", result)
	}
}

func TestReplayValidatesInput(t *testing.T) {
	store := storeWithEvents(1)

	if _, err := Replay(context.Background(), nil, countingFold, "S1", 0, Options{}); !errors.Is(err, ErrEventStoreRequired) {
		t.Fatalf("expected ErrEventStoreRequired, got %v", err)
	}
	if _, err := Replay(context.Background(), store, nil, "S1", 0, Options{}); !errors.Is(err, ErrFolderRequired) {
		t.Fatalf("expected ErrFolderRequired, got %v", err)
	}
	if _, err := Replay(context.Background(), store, countingFold, "  ", 0, Options{}); !errors.Is(err, ErrAggregateIDRequired) {
		t.Fatalf("expected ErrAggregateIDRequired, got %v", err)
	}
}

func TestReplayStopsOnFoldError(t *testing.T) {
	store := storeWithEvents(3)
	boom := errors.New("boom")
	failingFold := func(state any, evt event.Event) (any, error) {
		if evt.Seq == 2 {
			return state, boom
		}
		return countingFold(state, evt)
	}

	result, err := Replay(context.Background(), store, failingFold, "S1", 0, Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fold error, got %v", err)
	}
	if result.LastSeq != 1 {
		t.Fatalf("expected last seq 1 before failure, got %d", result.LastSeq)
	}
}
