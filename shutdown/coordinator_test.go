package shutdown

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestShutdownRunsAllPhasesInOrder(t *testing.T) {
	statusPath := filepath.Join(t.TempDir(), "status.json")
	var order []string

	record := func(name string) func() error {
		return func() error {
			order = append(order, name)
			return nil
		}
	}

	cfg := DefaultConfig(statusPath)
	coord := New(cfg, Hooks{
		StopAcceptingConnections:   record("network_accept"),
		FinishInFlightTransactions: record("transaction_processing"),
		DrainLightningChannels:     record("lightning"),
		FlushUTXOSet:               record("utxo_set"),
		CloseNetwork:               record("network"),
		PersistMetrics:             record("metrics"),
	})

	if err := coord.Shutdown(SignalUser); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	want := []string{"network_accept", "transaction_processing", "lightning", "utxo_set", "network", "metrics"}
	if len(order) != len(want) {
		t.Fatalf("ran %d phases, want %d: %v", len(order), len(want), order)
	}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("phase %d = %q, want %q", i, order[i], name)
		}
	}

	status := coord.Status()
	if !status.Success {
		t.Fatalf("expected success, got %+v", status)
	}
	if status.Phase != PhaseComplete.String() {
		t.Fatalf("phase = %q, want complete", status.Phase)
	}
	if len(status.PendingComponents) != 0 {
		t.Fatalf("expected no pending components, got %v", status.PendingComponents)
	}
	if len(status.CompletedComponents) != 6 {
		t.Fatalf("expected 6 completed components, got %v", status.CompletedComponents)
	}
}

func TestShutdownRecordsPhaseFailureAndContinues(t *testing.T) {
	statusPath := filepath.Join(t.TempDir(), "status.json")
	ran := make(map[string]bool)

	cfg := DefaultConfig(statusPath)
	coord := New(cfg, Hooks{
		FinishInFlightTransactions: func() error { ran["transaction_processing"] = true; return errors.New("boom") },
		FlushUTXOSet:               func() error { ran["utxo_set"] = true; return nil },
	})

	err := coord.Shutdown(SignalSystem)
	if err == nil {
		t.Fatal("expected Shutdown to return the first phase error")
	}
	if !ran["transaction_processing"] || !ran["utxo_set"] {
		t.Fatalf("expected both phases to run despite the failure: %v", ran)
	}

	status := coord.Status()
	if status.Success {
		t.Fatal("expected status.Success = false")
	}
	if status.Error == "" {
		t.Fatal("expected status.Error to be set")
	}
}

func TestShutdownPersistsStatusFile(t *testing.T) {
	statusPath := filepath.Join(t.TempDir(), "status.json")
	cfg := DefaultConfig(statusPath)
	coord := New(cfg, Hooks{})

	if err := coord.Shutdown(SignalUpgrade); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	raw, err := os.ReadFile(statusPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if status.Signal != "upgrade" {
		t.Fatalf("signal = %q, want upgrade", status.Signal)
	}
}

func TestShutdownPhaseTimeoutIsRecordedNotFatal(t *testing.T) {
	statusPath := filepath.Join(t.TempDir(), "status.json")
	cfg := DefaultConfig(statusPath)
	cfg.PhaseTimeout = 10 * time.Millisecond

	ranAfter := false
	coord := New(cfg, Hooks{
		DrainLightningChannels: func() error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
		FlushUTXOSet: func() error { ranAfter = true; return nil },
	})

	err := coord.Shutdown(SignalError)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindPhaseTimeout {
		t.Fatalf("expected ErrKindPhaseTimeout, got %v", err)
	}
	if !ranAfter {
		t.Fatal("expected the phase after the timed-out one to still run")
	}
}

func TestRequestShutdownIsIdempotent(t *testing.T) {
	coord := New(DefaultConfig(""), Hooks{})
	if coord.ShutdownRequested() {
		t.Fatal("expected ShutdownRequested() == false initially")
	}
	coord.RequestShutdown(SignalUser)
	coord.RequestShutdown(SignalUser)
	if !coord.ShutdownRequested() {
		t.Fatal("expected ShutdownRequested() == true after RequestShutdown")
	}
}
