// Package shutdown implements the phased shutdown coordinator of C13
// (spec.md §4.13): an ordered, individually-bounded sequence of
// shutdown phases with a global deadline, status serialized to a JSON
// file at every phase transition for post-mortem (spec.md §6).
package shutdown

import "time"

// Signal names what triggered the shutdown.
type Signal int

const (
	SignalUser Signal = iota
	SignalSystem
	SignalError
	SignalUpgrade
)

func (s Signal) String() string {
	switch s {
	case SignalUser:
		return "user"
	case SignalSystem:
		return "system"
	case SignalError:
		return "error"
	case SignalUpgrade:
		return "upgrade"
	default:
		return "unknown"
	}
}

// Phase is the coordinator's coarse lifecycle stage, distinct from the
// six named components each phase transition runs.
type Phase int

const (
	PhasePreparing Phase = iota
	PhaseStopping
	PhaseFlushing
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhasePreparing:
		return "preparing"
	case PhaseStopping:
		return "stopping"
	case PhaseFlushing:
		return "flushing"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Hooks names the six ordered shutdown components (spec.md §4.13): "stop
// accepting new connections, finish in-flight transactions, drain
// Lightning HTLCs / close channels cooperatively, flush UTXO save + WAL
// truncation, close network, persist metrics". Any nil hook is treated
// as an immediate no-op success, so a caller that hasn't wired every
// component (e.g. a test harness) need not stub all six.
type Hooks struct {
	StopAcceptingConnections   func() error
	FinishInFlightTransactions func() error
	DrainLightningChannels     func() error
	FlushUTXOSet               func() error
	CloseNetwork               func() error
	PersistMetrics             func() error
}

// namedPhases returns the six hooks in spec.md order, paired with their
// component name for the status file.
func (h Hooks) namedPhases() []namedHook {
	return []namedHook{
		{"network_accept", h.StopAcceptingConnections},
		{"transaction_processing", h.FinishInFlightTransactions},
		{"lightning", h.DrainLightningChannels},
		{"utxo_set", h.FlushUTXOSet},
		{"network", h.CloseNetwork},
		{"metrics", h.PersistMetrics},
	}
}

type namedHook struct {
	name string
	run  func() error
}

// Config configures one ShutdownCoordinator.
type Config struct {
	// MaxShutdownTime bounds the entire shutdown sequence.
	MaxShutdownTime time.Duration
	// PhaseTimeout bounds each individual phase.
	PhaseTimeout time.Duration
	// StatusFilePath is where the JSON status is written at every phase
	// transition (spec.md §6's "Shutdown status file").
	StatusFilePath string
	// ForceAfterTimeout runs EmergencyFlush and Terminate if the global
	// deadline is exceeded (spec.md §4.13).
	ForceAfterTimeout bool
	// EmergencyFlush is attempted once, best-effort, on global timeout.
	EmergencyFlush func() error
	// Terminate ends the process after a forced emergency shutdown.
	// Defaults to os.Exit(1); overridable so tests never actually exit.
	Terminate func()
}

// DefaultConfig mirrors original_source's ShutdownConfig::default().
func DefaultConfig(statusFilePath string) Config {
	return Config{
		MaxShutdownTime:   30 * time.Second,
		PhaseTimeout:      5 * time.Second,
		StatusFilePath:    statusFilePath,
		ForceAfterTimeout: true,
	}
}

// Status is the JSON-serialized shutdown status (spec.md §6, bit-exact
// field names): `{ phase, signal, started_at, completed_components:
// [string], pending_components: [string], success: bool, error?: string }`.
type Status struct {
	Phase               string   `json:"phase"`
	Signal              string   `json:"signal"`
	StartedAt           int64    `json:"started_at"`
	CompletedComponents []string `json:"completed_components"`
	PendingComponents   []string `json:"pending_components"`
	Success             bool     `json:"success"`
	Error               string   `json:"error,omitempty"`
}
