package utxo

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/decred/slog"
	"github.com/supernova-labs/supernova/wire"
)

var log = slog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Engine is the process-wide atomic UTXO store: an OutPoint-to-output map
// backed by a write-ahead log, mutated only through Apply's fixed
// five-step protocol (spec.md §4.4). The engine owns spent_outputs
// exclusively; no other component may observe or mutate it directly.
type Engine struct {
	mu           sync.Mutex
	utxos        map[wire.OutPoint]UnspentOutput
	spentOutputs map[wire.OutPoint]struct{}
	dataPath     string
	walPath      string
	wal          *walWriter
}

// Open constructs an Engine rooted at dir, loading any persisted state and
// replaying the write-ahead log left by a prior crash.
func Open(dir string) (*Engine, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errIO("create UTXO data directory", err)
	}
	e := &Engine{
		utxos:        make(map[wire.OutPoint]UnspentOutput),
		spentOutputs: make(map[wire.OutPoint]struct{}),
		dataPath:     filepath.Join(dir, "utxo.dat"),
		walPath:      filepath.Join(dir, "utxo.wal"),
	}
	if err := e.loadSnapshot(); err != nil {
		return nil, err
	}
	records, err := readWALRecords(e.walPath)
	if err != nil {
		return nil, err
	}
	e.replay(records)

	wal, err := openWAL(e.walPath)
	if err != nil {
		return nil, err
	}
	e.wal = wal
	if len(records) > 0 {
		// Snapshot the replayed state before the WAL records it came
		// from are dropped; Save truncates the WAL once the snapshot is
		// in place.
		if err := e.Save(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Close flushes and releases the WAL file handle.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.wal == nil {
		return nil
	}
	return e.wal.close()
}

// Apply mutates the UTXO set with tx following the five-step protocol:
// acquire the engine mutex, append+fsync the WAL record, validate every
// input, mutate the in-memory maps, then truncate the WAL. A validation
// failure leaves state untouched; the already-written WAL record is
// simply never replayed, since replay re-validates before mutating.
func (e *Engine) Apply(tx UtxoTransaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyLocked(tx)
}

func (e *Engine) applyLocked(tx UtxoTransaction) error {
	if err := e.wal.append(tx); err != nil {
		return err
	}
	if err := e.validateLocked(tx); err != nil {
		return err
	}
	e.mutateLocked(tx)
	return e.wal.truncate()
}

// validateLocked implements step 3: every input must exist in utxos and
// must not already be in spentOutputs.
func (e *Engine) validateLocked(tx UtxoTransaction) error {
	for _, in := range tx.Inputs {
		if _, spent := e.spentOutputs[in]; spent {
			return errAlreadySpent(in.String())
		}
		if _, ok := e.utxos[in]; !ok {
			return errNotFound(in.String())
		}
	}
	return nil
}

// mutateLocked implements step 4: inputs move from utxos to
// spentOutputs, outputs are inserted into utxos.
func (e *Engine) mutateLocked(tx UtxoTransaction) {
	for _, in := range tx.Inputs {
		delete(e.utxos, in)
		e.spentOutputs[in] = struct{}{}
	}
	for _, out := range tx.Outputs {
		e.utxos[out.OutPoint] = out.Output
	}
}

// CheckDoubleSpend is an O(inputs) read-only check: an input is a
// double-spend candidate if it is absent from utxos (already spent and
// pruned) or present in spentOutputs.
func (e *Engine) CheckDoubleSpend(tx UtxoTransaction) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, in := range tx.Inputs {
		if _, spent := e.spentOutputs[in]; spent {
			return true
		}
		if _, ok := e.utxos[in]; !ok {
			return true
		}
	}
	return false
}

// Get returns the UnspentOutput for op, if still unspent.
func (e *Engine) Get(op wire.OutPoint) (UnspentOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out, ok := e.utxos[op]
	if !ok {
		return UnspentOutput{}, errNotFound(op.String())
	}
	return out, nil
}

// Len returns the current number of unspent outputs, mainly for metrics
// and tests.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.utxos)
}

// replay runs the crash-recovery protocol: each WAL record is
// re-validated and, if still valid, mutated, exactly as Apply would.
// Invalid records (already applied before the crash, or superseded) are
// skipped rather than erroring, since replay must be idempotent.
func (e *Engine) replay(records []UtxoTransaction) {
	for _, tx := range records {
		if err := e.validateLocked(tx); err != nil {
			log.Debugf("utxo: skipping WAL record on replay: %v", err)
			continue
		}
		e.mutateLocked(tx)
	}
}

