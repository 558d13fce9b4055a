// Package scheduler parses scheduler command flags and starts the runtime.
package scheduler

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/flightbay/flightbay/internal/platform/cmd"
	"github.com/flightbay/flightbay/internal/services/scheduler/app"
)

// Config holds scheduler command configuration.
type Config struct {
	DBPath       string        `env:"FLIGHTBAY_DB_PATH" envDefault:"data/scheduler.db"`
	PollInterval time.Duration `env:"FLIGHTBAY_RELAY_POLL_INTERVAL" envDefault:"250ms"`
	BatchSize    int           `env:"FLIGHTBAY_RELAY_BATCH_SIZE" envDefault:"32"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The scheduler database path")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "The relay poll interval")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "The relay batch size")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the scheduler runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScheduler, func(context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			DBPath:       cfg.DBPath,
			PollInterval: cfg.PollInterval,
			BatchSize:    cfg.BatchSize,
		})
	})
}
