// Package replay rebuilds aggregate state by folding journal events in order.
package replay

import (
	"context"
	"errors"
	"strings"

	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrFolderRequired indicates a missing fold function.
	ErrFolderRequired = errors.New("folder is required")
	// ErrAggregateIDRequired indicates a missing aggregate id.
	ErrAggregateIDRequired = errors.New("aggregate id is required")
)

// EventStore lists events for replay.
type EventStore interface {
	ListEvents(ctx context.Context, aggregateID string, afterSeq uint64, limit int) ([]event.Event, error)
}

// Folder folds a single event into aggregate state.
type Folder func(state any, evt event.Event) (any, error)

// Options configures replay behavior.
type Options struct {
	AfterSeq uint64
	UntilSeq uint64
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	State   any
	LastSeq uint64
	Applied int
}

// Replay pages through an aggregate's events in order and folds them into the
// provided starting state.
func Replay(ctx context.Context, store EventStore, fold Folder, aggregateID string, state any, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	if fold == nil {
		return Result{}, ErrFolderRequired
	}
	aggregateID = strings.TrimSpace(aggregateID)
	if aggregateID == "" {
		return Result{}, ErrAggregateIDRequired
	}

	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	result := Result{State: state, LastSeq: options.AfterSeq}
	for {
		events, err := store.ListEvents(ctx, aggregateID, result.LastSeq, pageSize)
		if err != nil {
			return result, err
		}
		if len(events) == 0 {
			return result, nil
		}
		for _, evt := range events {
			if options.UntilSeq > 0 && evt.Seq > options.UntilSeq {
				return result, nil
			}
			next, err := fold(result.State, evt)
			if err != nil {
				return result, err
			}
			result.State = next
			result.LastSeq = evt.Seq
			result.Applied++
		}
	}
}
