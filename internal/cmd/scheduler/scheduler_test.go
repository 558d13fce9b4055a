package scheduler

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("scheduler", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/scheduler.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("expected default poll interval, got %v", cfg.PollInterval)
	}
	if cfg.BatchSize != 32 {
		t.Fatalf("expected default batch size, got %d", cfg.BatchSize)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	fs := flag.NewFlagSet("scheduler", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db", "/tmp/other.db", "-poll-interval", "1s", "-batch-size", "8"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Fatalf("expected db override, got %q", cfg.DBPath)
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("expected poll interval override, got %v", cfg.PollInterval)
	}
	if cfg.BatchSize != 8 {
		t.Fatalf("expected batch size override, got %d", cfg.BatchSize)
	}
}

func TestParseConfigEnv(t *testing.T) {
	t.Setenv("FLIGHTBAY_DB_PATH", "/tmp/env.db")
	fs := flag.NewFlagSet("scheduler", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("expected env db path, got %q", cfg.DBPath)
	}
}
