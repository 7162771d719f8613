package shutdown

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Coordinator runs a single shutdown sequence to completion, serializing
// Status to disk at every phase transition (spec.md §4.13).
type Coordinator struct {
	cfg   Config
	hooks Hooks

	mu        sync.Mutex
	status    Status
	requested bool

	// runID correlates every log line of a single Shutdown call across
	// its phases. It is not part of Status: spec.md §6 fixes that
	// struct's JSON field set exactly, and a correlation ID belongs in
	// logs, not the on-disk post-mortem record.
	runID uuid.UUID
}

// New returns a Coordinator wired to hooks under cfg. Config.Terminate
// defaults to os.Exit(1) if unset.
func New(cfg Config, hooks Hooks) *Coordinator {
	if cfg.Terminate == nil {
		cfg.Terminate = func() { os.Exit(1) }
	}
	return &Coordinator{cfg: cfg, hooks: hooks}
}

// RequestShutdown marks shutdown as requested, idempotently. It does not
// itself run the shutdown sequence; callers poll ShutdownRequested from
// their main loop and then call Shutdown.
func (c *Coordinator) RequestShutdown(signal Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requested {
		return
	}
	c.requested = true
	log.Infof("shutdown requested: %s", signal)
}

// ShutdownRequested reports whether RequestShutdown has been called.
func (c *Coordinator) ShutdownRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested
}

// Shutdown runs every phase in spec.md §4.13 order under cfg's global
// deadline, persisting Status to cfg.StatusFilePath at each transition.
// A phase that errors or times out is recorded as failed; the remaining
// phases still run. If the global deadline itself is exceeded and
// ForceAfterTimeout is set, EmergencyFlush is attempted once and
// Terminate is called.
func (c *Coordinator) Shutdown(signal Signal) error {
	pending := make([]string, 0, 6)
	for _, h := range c.hooks.namedPhases() {
		pending = append(pending, h.name)
	}

	c.mu.Lock()
	c.runID = uuid.New()
	c.status = Status{
		Phase:             PhasePreparing.String(),
		Signal:            signal.String(),
		StartedAt:         time.Now().Unix(),
		PendingComponents: pending,
	}
	c.mu.Unlock()
	c.saveStatus()

	log.Infof("starting graceful shutdown (run %s, signal: %s)", c.runID, signal)

	done := make(chan error, 1)
	go func() { done <- c.runPhases() }()

	select {
	case err := <-done:
		c.mu.Lock()
		c.status.Phase = PhaseComplete.String()
		c.status.Success = err == nil
		if err != nil {
			c.status.Error = err.Error()
		}
		c.mu.Unlock()
		c.saveStatus()
		return err

	case <-time.After(c.cfg.MaxShutdownTime):
		log.Warnf("shutdown timeout after %s", c.cfg.MaxShutdownTime)
		if c.cfg.ForceAfterTimeout {
			c.forceShutdown()
		}
		c.mu.Lock()
		c.status.Success = false
		c.status.Error = "shutdown timeout"
		c.mu.Unlock()
		c.saveStatus()
		return errKind(ErrKindGlobalTimeout, "global", "shutdown timed out")
	}
}

// runPhases executes every hook in order, moving completed component
// names from pending to completed and persisting status after each.
// The first fatal error (there are none today; every phase's failure is
// recorded and absorbed) would abort the remaining phases, matching
// spec.md's "on the first error the operation's uncommitted mutations
// are reverted" for atomic operations elsewhere — phases here are not
// atomic with each other, so failures are recorded and forward progress
// continues, per spec.md §4.13's explicit phase-timeout semantics.
func (c *Coordinator) runPhases() error {
	c.setPhase(PhaseStopping)

	phases := c.hooks.namedPhases()
	var firstErr error
	for i, h := range phases {
		if i == len(phases)-1 {
			c.setPhase(PhaseFlushing)
		}
		if err := c.runPhase(h); err != nil {
			log.Errorf("shutdown phase %q failed (run %s): %s", h.name, c.runID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// runPhase runs one named hook under cfg.PhaseTimeout and updates the
// status file's pending/completed lists regardless of outcome.
func (c *Coordinator) runPhase(h namedHook) error {
	log.Infof("shutdown phase: %s (run %s)", h.name, c.runID)

	result := make(chan error, 1)
	go func() {
		if h.run == nil {
			result <- nil
			return
		}
		result <- h.run()
	}()

	var err error
	select {
	case err = <-result:
	case <-time.After(c.cfg.PhaseTimeout):
		err = errKind(ErrKindPhaseTimeout, h.name, "phase timed out")
	}

	c.mu.Lock()
	c.status.PendingComponents = removeName(c.status.PendingComponents, h.name)
	if err == nil {
		c.status.CompletedComponents = append(c.status.CompletedComponents, h.name)
	}
	c.mu.Unlock()
	c.saveStatus()

	return err
}

func removeName(names []string, target string) []string {
	out := names[:0]
	for _, n := range names {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

// forceShutdown attempts one best-effort emergency flush then
// terminates the process (spec.md §4.13: "an emergency UTXO flush is
// attempted and the process terminates").
func (c *Coordinator) forceShutdown() {
	log.Warnf("forcing shutdown after timeout")
	if c.cfg.EmergencyFlush != nil {
		if err := c.cfg.EmergencyFlush(); err != nil {
			log.Errorf("emergency flush failed: %s", err)
		}
	}
	c.cfg.Terminate()
}

func (c *Coordinator) setPhase(p Phase) {
	c.mu.Lock()
	c.status.Phase = p.String()
	c.mu.Unlock()
	c.saveStatus()
}

// saveStatus writes the current status to cfg.StatusFilePath. A write
// failure is logged, not propagated: the status file is diagnostic and
// must never block or fail the shutdown sequence it describes.
func (c *Coordinator) saveStatus() {
	if c.cfg.StatusFilePath == "" {
		return
	}
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		log.Errorf("marshal shutdown status: %s", err)
		return
	}
	if err := os.WriteFile(c.cfg.StatusFilePath, data, 0o644); err != nil {
		log.Errorf("write shutdown status file: %s", err)
	}
}

// Status returns a snapshot of the coordinator's current status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RunID returns the correlation ID of the most recently started Shutdown
// call, for a caller that wants to tie its own logging to a specific
// shutdown attempt. It is the zero UUID before Shutdown has been called.
func (c *Coordinator) RunID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}
