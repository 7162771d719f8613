package checkpoint

import (
	"fmt"
	"sync"

	"github.com/decred/slog"
	"github.com/supernova-labs/supernova/chainhash"
)

var log = slog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Config bounds automatic checkpoint creation (spec.md §4.8).
type Config struct {
	StrictMode             bool
	AutoCheckpointEnabled  bool
	AutoCheckpointDepth    uint64
	AutoCheckpointInterval uint64
}

// Manager is the thread-safe ordered height-to-Checkpoint map plus its
// latest-finalized cache.
type Manager struct {
	mu sync.RWMutex

	cfg             Config
	checkpoints     map[uint64]Checkpoint
	latestFinalized *Checkpoint
	lastAutoHeight  uint64
}

// New returns an empty Manager.
func New(cfg Config) *Manager {
	return &Manager{
		cfg:         cfg,
		checkpoints: make(map[uint64]Checkpoint),
	}
}

// Add inserts cp, applying the conflict rule: a higher-trust source
// replaces an existing checkpoint at the same height; otherwise the add
// fails with Conflict.
func (m *Manager) Add(cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.checkpoints[cp.Height]; ok {
		if cp.Source <= existing.Source {
			return errKind(ErrKindConflict, fmt.Sprintf("checkpoint at height %d already set by a source of equal or higher trust", cp.Height))
		}
		log.Warnf("checkpoint: replacing height %d checkpoint from %s with %s", cp.Height, existing.Source, cp.Source)
	}
	m.checkpoints[cp.Height] = cp
	if m.latestFinalized == nil || cp.Height >= m.latestFinalized.Height {
		m.latestFinalized = &cp
	}
	if cp.Source == SourceAutomatic && cp.Height > m.lastAutoHeight {
		m.lastAutoHeight = cp.Height
	}
	return nil
}

// MaybeAutoCreate implements spec.md §4.8's automatic creation rule: on
// acceptance of a block at tip height tipHeight, if auto checkpointing is
// enabled and the block at height h = tipHeight - auto_checkpoint_depth
// has not yet been checkpointed and h - last_auto_height >=
// auto_checkpoint_interval, an Automatic checkpoint is created for that
// block. hashAt resolves a height to the hash the caller's active chain
// has at that height.
func (m *Manager) MaybeAutoCreate(tipHeight uint64, hashAt func(height uint64) (chainhash.Hash, bool)) error {
	if !m.cfg.AutoCheckpointEnabled {
		return nil
	}
	if tipHeight < m.cfg.AutoCheckpointDepth {
		return nil
	}
	h := tipHeight - m.cfg.AutoCheckpointDepth

	m.mu.RLock()
	_, already := m.checkpoints[h]
	lastAuto := m.lastAutoHeight
	m.mu.RUnlock()
	if already {
		return nil
	}
	if h < lastAuto || h-lastAuto < m.cfg.AutoCheckpointInterval {
		return nil
	}

	hash, ok := hashAt(h)
	if !ok {
		return nil
	}
	return m.Add(Checkpoint{Height: h, Hash: hash, Source: SourceAutomatic})
}

// CheckReorgAllowed fails with ReorgBeyondCheckpoint if targetHeight is
// below the finalized height and strict mode is on.
func (m *Manager) CheckReorgAllowed(targetHeight uint64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.cfg.StrictMode || m.latestFinalized == nil {
		return nil
	}
	if targetHeight < m.latestFinalized.Height {
		return errKind(ErrKindReorgBeyondCheckpoint, fmt.Sprintf("target height %d is below finalized height %d", targetHeight, m.latestFinalized.Height))
	}
	return nil
}

// VerifyBlock fails with Conflict if a checkpoint at height exists with a
// different hash than hash.
func (m *Manager) VerifyBlock(height uint64, hash chainhash.Hash) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.checkpoints[height]
	if !ok {
		return nil
	}
	if cp.Hash != hash {
		return errKind(ErrKindConflict, fmt.Sprintf("block at height %d conflicts with checkpointed hash", height))
	}
	return nil
}

// LatestFinalized returns the highest-height checkpoint known, if any.
func (m *Manager) LatestFinalized() (Checkpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latestFinalized == nil {
		return Checkpoint{}, false
	}
	return *m.latestFinalized, true
}

// FinalizedHeight returns the latest finalized checkpoint's height, or 0
// if none exists, for callers that need a plain comparison value.
func (m *Manager) FinalizedHeight() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latestFinalized == nil {
		return 0
	}
	return m.latestFinalized.Height
}
