package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "scheduler.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func markedAvailableEvent(slotID, participantID, role string) event.Event {
	return event.Event{
		AggregateID:   slotID,
		Timestamp:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Type:          event.TypeSlotParticipantMarkedAvailable,
		SlotID:        slotID,
		ParticipantID: participantID,
		Role:          role,
	}
}

func TestMillisHelpers(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	value := time.Date(2026, 3, 1, 9, 0, 0, 0, loc)
	if toMillis(value) != value.UTC().UnixMilli() {
		t.Fatalf("expected millis to match UTC unix millis")
	}

	round := fromMillis(toMillis(value))
	if !round.Equal(value.UTC()) {
		t.Fatalf("expected round trip UTC time, got %v", round)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank storage path")
	}
}

func TestCloseNilSafe(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("expected nil-safe close, got %v", err)
	}
}
