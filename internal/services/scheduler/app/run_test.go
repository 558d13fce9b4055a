package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestNewRuntimeWiresComponents(t *testing.T) {
	runtime, err := NewRuntime(RuntimeConfig{
		DBPath: filepath.Join(t.TempDir(), "scheduler.db"),
	})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer runtime.Close()

	if runtime.Scheduler == nil {
		t.Fatal("expected scheduler to be wired")
	}
	if runtime.Relay == nil {
		t.Fatal("expected relay to be wired")
	}
}

func TestNewRuntimeCreatesStorageDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "scheduler.db")
	runtime, err := NewRuntime(RuntimeConfig{DBPath: path})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	if err := runtime.Close(); err != nil {
		t.Fatalf("close runtime: %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dbPath := filepath.Join(t.TempDir(), "scheduler.db")

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, RuntimeConfig{
			DBPath:       dbPath,
			PollInterval: 10 * time.Millisecond,
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
