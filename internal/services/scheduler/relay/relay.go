// Package relay moves committed slot events to their consumers: slot events
// become participant status commands, and participant status events become
// projection row updates. Delivery is at-least-once in per-aggregate commit
// order, so every consumer side effect must tolerate redelivery.
package relay

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flightbay/flightbay/internal/platform/telemetry"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/command"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/event"
	"github.com/flightbay/flightbay/internal/services/scheduler/domain/participantslot"
	"github.com/flightbay/flightbay/internal/services/scheduler/storage"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultBatchSize    = 32
)

// ParticipantExecutor executes a participant status command against the
// participant's own record.
type ParticipantExecutor interface {
	Execute(ctx context.Context, aggregateID string, cmd any) (command.Decision, error)
}

// RowApplier applies one participant status event to the projection.
type RowApplier interface {
	Apply(ctx context.Context, evt event.Event) error
}

// Config controls relay loop behavior.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
}

func (c Config) normalized() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	return c
}

// Relay drains the outbox and routes events to their consumers.
type Relay struct {
	outbox       storage.OutboxStore
	participants ParticipantExecutor
	applier      RowApplier
	emitter      *telemetry.Emitter
	config       Config
	tracer       trace.Tracer
	now          func() time.Time

	lastDeadCount int
}

// New creates a relay over the outbox and its two consumers.
func New(outbox storage.OutboxStore, participants ParticipantExecutor, applier RowApplier, emitter *telemetry.Emitter, config Config) (*Relay, error) {
	if outbox == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if participants == nil {
		return nil, fmt.Errorf("participant executor is required")
	}
	if applier == nil {
		return nil, fmt.Errorf("row applier is required")
	}
	return &Relay{
		outbox:       outbox,
		participants: participants,
		applier:      applier,
		emitter:      emitter,
		config:       config.normalized(),
		tracer:       otel.Tracer("flightbay/scheduler/relay"),
		now:          time.Now,
	}, nil
}

// Run drains the outbox on an interval until the context is canceled.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("relay is not configured")
	}

	_ = r.emitter.Emit(ctx, storage.TelemetryEvent{
		EventName: telemetry.EventRelayStarted,
		Severity:  string(telemetry.SeverityInfo),
	})

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Use a detached context: the loop context is already canceled.
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			_ = r.emitter.Emit(stopCtx, storage.TelemetryEvent{
				EventName: telemetry.EventRelayStopped,
				Severity:  string(telemetry.SeverityInfo),
			})
			cancel()
			return nil
		case <-ticker.C:
			if _, err := r.Tick(ctx); err != nil {
				log.Printf("relay tick: %v", err)
			}
		}
	}
}

// Tick processes one batch of due outbox rows and reports newly
// dead-lettered rows.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	if r == nil {
		return 0, fmt.Errorf("relay is not configured")
	}

	ctx, span := r.tracer.Start(ctx, "relay.tick")
	defer span.End()

	processed, err := r.outbox.ProcessOutbox(ctx, r.now().UTC(), r.config.BatchSize, r.Dispatch)
	span.SetAttributes(attribute.Int("relay.processed", processed))
	if err != nil {
		return processed, fmt.Errorf("process outbox: %w", err)
	}

	if err := r.reportDeadLetters(ctx); err != nil {
		log.Printf("relay dead letter report: %v", err)
	}
	return processed, nil
}

// Dispatch routes one journal event to its consumer. A returned error means
// the delivery must be retried; domain rejections on redelivery are benign
// and complete the row.
func (r *Relay) Dispatch(ctx context.Context, evt event.Event) error {
	switch evt.Type.Domain() {
	case event.DomainSlot:
		return r.dispatchSlotEvent(ctx, evt)
	case event.DomainParticipantSlot:
		return r.applier.Apply(ctx, evt)
	default:
		return fmt.Errorf("unsupported event domain %q", evt.Type.Domain())
	}
}

func (r *Relay) dispatchSlotEvent(ctx context.Context, evt event.Event) error {
	cmd, err := participantCommandForEvent(evt)
	if err != nil {
		return err
	}

	key := participantslot.Key(evt.SlotID, evt.ParticipantID)
	decision, err := r.participants.Execute(ctx, key, cmd)
	if err != nil {
		return err
	}
	if decision.Rejected() {
		// A redelivered event finds the participant record already moved past
		// the command's precondition. The journal stays authoritative, so the
		// rejection is swallowed and the row completes.
		rejection := decision.Rejections[0]
		log.Printf("relay: swallowed stale redelivery %s seq %d for %s: %s", evt.Type, evt.Seq, key, rejection.Code)
		_ = r.emitter.Emit(ctx, storage.TelemetryEvent{
			EventName:   telemetry.EventRedeliverySwallowed,
			Severity:    string(telemetry.SeverityWarn),
			AggregateID: evt.AggregateID,
			Seq:         evt.Seq,
			Attributes: map[string]string{
				"event_type":     string(evt.Type),
				"rejection_code": rejection.Code,
				"record_key":     key,
			},
		})
	}
	return nil
}

func participantCommandForEvent(evt event.Event) (participantslot.Command, error) {
	target := participantslot.Target{
		SlotID:        evt.SlotID,
		ParticipantID: evt.ParticipantID,
		Role:          evt.Role,
	}
	switch evt.Type {
	case event.TypeSlotParticipantMarkedAvailable:
		return participantslot.MarkAvailable{Record: target}, nil
	case event.TypeSlotParticipantUnmarkedAvailable:
		return participantslot.UnmarkAvailable{Record: target}, nil
	case event.TypeSlotParticipantBooked:
		return participantslot.Book{Record: target, BookingID: evt.BookingID}, nil
	case event.TypeSlotParticipantCanceled:
		return participantslot.Cancel{Record: target, BookingID: evt.BookingID}, nil
	default:
		return nil, fmt.Errorf("unsupported slot event type %q", evt.Type)
	}
}

func (r *Relay) reportDeadLetters(ctx context.Context) error {
	summary, err := r.outbox.OutboxSummary(ctx)
	if err != nil {
		return err
	}
	if summary.DeadCount > r.lastDeadCount {
		_ = r.emitter.Emit(ctx, storage.TelemetryEvent{
			EventName:   telemetry.EventRelayDeadLetter,
			Severity:    string(telemetry.SeverityError),
			AggregateID: summary.OldestPendingAggregateID,
			Attributes: map[string]string{
				"dead_count": fmt.Sprintf("%d", summary.DeadCount),
			},
		})
	}
	r.lastDeadCount = summary.DeadCount
	return nil
}
