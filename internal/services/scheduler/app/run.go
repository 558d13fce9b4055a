// Package app boots the scheduler runtime: SQLite storage, the scheduling
// facade, and the relay loop.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flightbay/flightbay/internal/platform/telemetry"
	"github.com/flightbay/flightbay/internal/services/scheduler/projection"
	"github.com/flightbay/flightbay/internal/services/scheduler/relay"
	"github.com/flightbay/flightbay/internal/services/scheduler/service"
	"github.com/flightbay/flightbay/internal/services/scheduler/storage/sqlite"
)

const (
	defaultSchedulerDB = "data/scheduler.db"
)

// RuntimeConfig controls scheduler startup and relay loop behavior.
type RuntimeConfig struct {
	DBPath       string
	PollInterval time.Duration
	BatchSize    int
}

// Runtime bundles the live scheduler components for callers that embed the
// service instead of running the standalone command.
type Runtime struct {
	Scheduler *service.Scheduler
	Relay     *relay.Relay
	store     *sqlite.Store
}

// Close releases the runtime's storage.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	return r.store.Close()
}

// NewRuntime opens storage and wires the scheduler and relay.
func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultSchedulerDB
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create scheduler storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open scheduler sqlite store: %w", err)
	}

	scheduler, err := service.New(service.Stores{
		Journal:   store,
		Rows:      store,
		Outbox:    store,
		Telemetry: store,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("wire scheduler: %w", err)
	}

	applier, err := projection.NewApplier(store, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("wire projection applier: %w", err)
	}

	relayLoop, err := relay.New(
		store,
		scheduler.ParticipantEngine(),
		applier,
		telemetry.NewEmitter(store),
		relay.Config{PollInterval: cfg.PollInterval, BatchSize: cfg.BatchSize},
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("wire relay: %w", err)
	}

	return &Runtime{Scheduler: scheduler, Relay: relayLoop, store: store}, nil
}

// Run starts scheduler runtime dependencies and the relay loop, blocking
// until the context is canceled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultSchedulerDB
	}

	runtime, err := NewRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := runtime.Close(); closeErr != nil {
			log.Printf("close scheduler sqlite store: %v", closeErr)
		}
	}()

	log.Printf("scheduler relay running against %s", cfg.DBPath)
	return runtime.Relay.Run(ctx)
}
