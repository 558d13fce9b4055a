// Package engine executes aggregate commands with per-key single-writer
// semantics: load-replay, decide, append, all under a lock scoped to the
// aggregate id. Commands against different keys proceed in parallel.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/command"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/replay"
)

var (
	// ErrJournalRequired indicates a missing event journal.
	ErrJournalRequired = errors.New("event journal is required")
	// ErrFoldRequired indicates a missing fold function.
	ErrFoldRequired = errors.New("fold function is required")
	// ErrDecideRequired indicates a missing decide function.
	ErrDecideRequired = errors.New("decide function is required")
	// ErrAggregateIDRequired indicates a missing aggregate id.
	ErrAggregateIDRequired = errors.New("aggregate id is required")
)

// Journal persists and lists aggregate events.
type Journal interface {
	replay.EventStore
	// AppendEvents appends a decision's events as one atomic, all-or-nothing
	// commit. Partial application of a multi-event decision is never stored.
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
}

// Decider returns the decision for a command against replayed state.
type Decider func(aggregateID string, state any, cmd any, now func() time.Time) command.Decision

// Config wires a handler for one aggregate family.
type Config struct {
	Journal Journal
	// Empty seeds state for an aggregate with no history.
	Empty  func(aggregateID string) any
	Fold   replay.Folder
	Decide Decider
	Now    func() time.Time
}

// Handler executes commands for one aggregate family.
type Handler struct {
	config Config
	locks  *keyedLocks
}

// New builds a handler. Configuration errors surface on first use rather than
// here so construction stays infallible for wiring code.
func New(config Config) *Handler {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Handler{config: config, locks: newKeyedLocks()}
}

// Execute runs one command through the load-decide-append pipeline while
// holding the aggregate's key lock. Rejections are returned inside the
// decision, not as errors; errors indicate infrastructure failure.
func (h *Handler) Execute(ctx context.Context, aggregateID string, cmd any) (command.Decision, error) {
	if err := h.validate(); err != nil {
		return command.Decision{}, err
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return command.Decision{}, ErrAggregateIDRequired
	}

	unlock := h.locks.lock(aggregateID)
	defer unlock()

	state, err := h.load(ctx, aggregateID)
	if err != nil {
		return command.Decision{}, err
	}

	decision := h.config.Decide(aggregateID, state, cmd, h.config.Now)
	if decision.Rejected() || len(decision.Events) == 0 {
		return decision, nil
	}

	for i, evt := range decision.Events {
		if err := evt.Validate(); err != nil {
			return command.Decision{}, fmt.Errorf("event %d: %w", i, err)
		}
	}

	stored, err := h.config.Journal.AppendEvents(ctx, decision.Events)
	if err != nil {
		return command.Decision{}, fmt.Errorf("append events: %w", err)
	}
	decision.Events = stored
	return decision, nil
}

// Load replays the aggregate's history into a state snapshot. The key lock is
// held so reads observe fully committed decisions only.
func (h *Handler) Load(ctx context.Context, aggregateID string) (any, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return nil, ErrAggregateIDRequired
	}

	unlock := h.locks.lock(aggregateID)
	defer unlock()

	return h.load(ctx, aggregateID)
}

func (h *Handler) load(ctx context.Context, aggregateID string) (any, error) {
	var state any
	if h.config.Empty != nil {
		state = h.config.Empty(aggregateID)
	}
	result, err := replay.Replay(ctx, h.config.Journal, h.config.Fold, aggregateID, state, replay.Options{})
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", aggregateID, err)
	}
	return result.State, nil
}

func (h *Handler) validate() error {
	if h == nil || h.config.Journal == nil {
		return ErrJournalRequired
	}
	if h.config.Fold == nil {
		return ErrFoldRequired
	}
	if h.config.Decide == nil {
		return ErrDecideRequired
	}
	return nil
}
