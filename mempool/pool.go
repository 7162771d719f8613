package mempool

import (
	"math/bits"
	"sort"
	"sync"
	"time"

	"github.com/decred/dcrd/lru"
	"github.com/decred/slog"
	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/utxo"
	"github.com/supernova-labs/supernova/wire"
)

var log = slog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Pool is the process-wide mempool singleton (spec.md §4.5). A single
// modification mutex serializes admission, replacement, and eviction;
// reads of an individual entry are safe to call concurrently with those
// under the same mutex since Go maps are not otherwise safe for
// concurrent read/write, so every access here — not just mutation — goes
// through modMu, a plain map-plus-mutex rather than a lock-free structure.
type Pool struct {
	modMu sync.Mutex

	cfg    Config
	scorer EnvironmentalScorer

	entries      map[chainhash.Hash]*Entry
	spentOutputs map[wire.OutPoint]chainhash.Hash

	// recentlyEvicted tracks hashes dropped by EvictExpired so a
	// duplicate resubmission shortly afterward can be recognized
	// without holding the evicted entry itself. nil when
	// cfg.RecentlyEvictedSize is zero.
	recentlyEvicted *lru.Map[chainhash.Hash, struct{}]

	doubleSpendAttempts uint64
}

// New constructs an empty Pool. scorer may be nil, in which case
// ZeroScorer is used.
func New(cfg Config, scorer EnvironmentalScorer) *Pool {
	if scorer == nil {
		scorer = ZeroScorer{}
	}
	p := &Pool{
		cfg:          cfg,
		scorer:       scorer,
		entries:      make(map[chainhash.Hash]*Entry),
		spentOutputs: make(map[wire.OutPoint]chainhash.Hash),
	}
	if cfg.RecentlyEvictedSize > 0 {
		p.recentlyEvicted = lru.NewMap[chainhash.Hash, struct{}](cfg.RecentlyEvictedSize)
	}
	return p
}

// AddTransaction runs the admission protocol of spec.md §4.5.
func (p *Pool) AddTransaction(tx *wire.Transaction, feeRate uint64, lightningBoost bool) error {
	p.modMu.Lock()
	defer p.modMu.Unlock()

	hash := tx.TxHash()
	if _, exists := p.entries[hash]; exists {
		return errKind(ErrKindTransactionExists, "transaction already in pool")
	}
	if len(p.entries) >= p.cfg.MaxSize {
		return errKind(ErrKindMempoolFull, "pool at capacity")
	}
	if feeRate < p.cfg.MinFeeRate {
		return errKind(ErrKindFeeTooLow, "fee rate below minimum")
	}

	inputs := make([]wire.OutPoint, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = in.Prev
	}

	for _, in := range inputs {
		if conflict, ok := p.spentOutputs[in]; ok {
			p.doubleSpendAttempts++
			return errDoubleSpend(conflict)
		}
	}

	size, err := tx.SerializeSize()
	if err != nil {
		return errKind(ErrKindSerializationError, "transaction serialization failed")
	}
	entry := &Entry{
		Transaction:        tx,
		Hash:               hash,
		FeeRate:            feeRate,
		Size:               uint64(size),
		Timestamp:          time.Now(),
		Inputs:             inputs,
		EnvironmentalScore: p.scorer.Score(tx),
		LightningBoost:     lightningBoost,
	}
	p.insertLocked(entry)
	return nil
}

func (p *Pool) insertLocked(entry *Entry) {
	for _, in := range entry.Inputs {
		p.spentOutputs[in] = entry.Hash
	}
	p.entries[entry.Hash] = entry
}

func (p *Pool) removeLocked(hash chainhash.Hash) {
	entry, ok := p.entries[hash]
	if !ok {
		return
	}
	for _, in := range entry.Inputs {
		delete(p.spentOutputs, in)
	}
	delete(p.entries, hash)
}

// ReplaceTransaction implements replace-by-fee (spec.md §4.5). It is a
// no-op error if RBF is disabled. The new transaction's fee (feeRate *
// size) must be at least (1 + min_rbf_fee_increase/100) times the summed
// fee of every transaction it conflicts with (any transaction owning one
// of its inputs). Fee totals use checked multiplication; overflow fails
// with SerializationError rather than wrapping.
func (p *Pool) ReplaceTransaction(tx *wire.Transaction, feeRate uint64, lightningBoost bool) error {
	p.modMu.Lock()
	defer p.modMu.Unlock()

	if !p.cfg.EnableRBF {
		return errKind(ErrKindFeeTooLow, "replace-by-fee is disabled")
	}

	inputs := make([]wire.OutPoint, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = in.Prev
	}

	conflicts := make(map[chainhash.Hash]struct{})
	for _, in := range inputs {
		if h, ok := p.spentOutputs[in]; ok {
			conflicts[h] = struct{}{}
		}
	}
	if len(conflicts) == 0 {
		// Nothing to replace; fall back to ordinary admission.
		return p.addLocked(tx, feeRate, lightningBoost, inputs)
	}

	var existingFeeTotal uint64
	for h := range conflicts {
		entry := p.entries[h]
		fee, overflow := checkedMul(entry.FeeRate, entry.Size)
		if overflow {
			return errKind(ErrKindSerializationError, "existing fee total overflowed")
		}
		sum, overflow := checkedAdd(existingFeeTotal, fee)
		if overflow {
			return errKind(ErrKindSerializationError, "existing fee total overflowed")
		}
		existingFeeTotal = sum
	}

	txSize, err := tx.SerializeSize()
	if err != nil {
		return errKind(ErrKindSerializationError, "transaction serialization failed")
	}
	size := uint64(txSize)
	newFee, overflow := checkedMul(feeRate, size)
	if overflow {
		return errKind(ErrKindSerializationError, "replacement fee overflowed")
	}

	// required = existingFeeTotal * (100 + percent) / 100, computed with
	// checked intermediate multiplication.
	factor, overflow := checkedAdd(100, p.cfg.MinRBFFeeIncreasePercent)
	if overflow {
		return errKind(ErrKindSerializationError, "RBF fee increase factor overflowed")
	}
	scaled, overflow := checkedMul(existingFeeTotal, factor)
	if overflow {
		return errKind(ErrKindSerializationError, "required replacement fee overflowed")
	}
	required := scaled / 100

	if newFee < required {
		return errKind(ErrKindFeeTooLow, "replacement fee does not meet RBF minimum increase")
	}

	for h := range conflicts {
		p.removeLocked(h)
	}
	hash := tx.TxHash()
	entry := &Entry{
		Transaction:        tx,
		Hash:               hash,
		FeeRate:            feeRate,
		Size:               size,
		Timestamp:          time.Now(),
		Inputs:             inputs,
		EnvironmentalScore: p.scorer.Score(tx),
		LightningBoost:     lightningBoost,
	}
	p.insertLocked(entry)
	return nil
}

func (p *Pool) addLocked(tx *wire.Transaction, feeRate uint64, lightningBoost bool, inputs []wire.OutPoint) error {
	hash := tx.TxHash()
	if _, exists := p.entries[hash]; exists {
		return errKind(ErrKindTransactionExists, "transaction already in pool")
	}
	if len(p.entries) >= p.cfg.MaxSize {
		return errKind(ErrKindMempoolFull, "pool at capacity")
	}
	if feeRate < p.cfg.MinFeeRate {
		return errKind(ErrKindFeeTooLow, "fee rate below minimum")
	}
	size, err := tx.SerializeSize()
	if err != nil {
		return errKind(ErrKindSerializationError, "transaction serialization failed")
	}
	entry := &Entry{
		Transaction:        tx,
		Hash:               hash,
		FeeRate:            feeRate,
		Size:               uint64(size),
		Timestamp:          time.Now(),
		Inputs:             inputs,
		EnvironmentalScore: p.scorer.Score(tx),
		LightningBoost:     lightningBoost,
	}
	p.insertLocked(entry)
	return nil
}

// Remove deletes hash from the pool, if present, releasing its spent
// outputs. Used on block inclusion.
func (p *Pool) Remove(hash chainhash.Hash) {
	p.modMu.Lock()
	defer p.modMu.Unlock()
	p.removeLocked(hash)
}

// Contains reports whether hash is currently pool-resident.
func (p *Pool) Contains(hash chainhash.Hash) bool {
	p.modMu.Lock()
	defer p.modMu.Unlock()
	_, ok := p.entries[hash]
	return ok
}

// Len returns the number of pool-resident transactions.
func (p *Pool) Len() int {
	p.modMu.Lock()
	defer p.modMu.Unlock()
	return len(p.entries)
}

// CheckDoubleSpend reports whether any of the UTXO engine's outpoints
// referenced by the given inputs are already claimed by a pending
// mempool transaction.
func (p *Pool) CheckDoubleSpend(inputs []wire.OutPoint) (chainhash.Hash, bool) {
	p.modMu.Lock()
	defer p.modMu.Unlock()
	for _, in := range inputs {
		if h, ok := p.spentOutputs[in]; ok {
			return h, true
		}
	}
	return chainhash.ZeroHash, false
}

// Drain returns pool entries in descending priority-score order (spec.md
// §4.5's miner drain order), breaking ties toward smaller serialized
// size. It does not remove entries; the caller removes them via Remove
// once included in a block.
func (p *Pool) Drain() []*Entry {
	p.modMu.Lock()
	defer p.modMu.Unlock()

	now := time.Now()
	ordered := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		si, sj := score(ordered[i], now), score(ordered[j], now)
		if si != sj {
			return si > sj
		}
		return ordered[i].Size < ordered[j].Size
	})
	return ordered
}

// EvictExpired removes every entry older than MaxAgeSeconds, returning
// the hashes evicted.
func (p *Pool) EvictExpired() []chainhash.Hash {
	p.modMu.Lock()
	defer p.modMu.Unlock()

	cutoff := time.Now().Add(-time.Duration(p.cfg.MaxAgeSeconds) * time.Second)
	var evicted []chainhash.Hash
	for hash, entry := range p.entries {
		if entry.Timestamp.Before(cutoff) {
			evicted = append(evicted, hash)
		}
	}
	for _, hash := range evicted {
		p.removeLocked(hash)
		if p.recentlyEvicted != nil {
			p.recentlyEvicted.Put(hash, struct{}{})
		}
	}
	return evicted
}

// WasRecentlyEvicted reports whether hash was dropped by a recent
// EvictExpired sweep and not yet aged out of the recently-evicted LRU.
// Always false when Config.RecentlyEvictedSize is zero.
func (p *Pool) WasRecentlyEvicted(hash chainhash.Hash) bool {
	if p.recentlyEvicted == nil {
		return false
	}
	p.modMu.Lock()
	defer p.modMu.Unlock()
	_, ok := p.recentlyEvicted.Get(hash)
	return ok
}

// CheckAgainstUTXO reports whether every input still exists in the UTXO
// engine's unspent set, i.e. none is unknown to the chain or already
// spent. AddTransaction and ReplaceTransaction do not call it.
func (p *Pool) CheckAgainstUTXO(engine *utxo.Engine, inputs []wire.OutPoint) bool {
	for _, in := range inputs {
		if _, err := engine.Get(in); err != nil {
			return false
		}
	}
	return true
}

func checkedMul(a, b uint64) (result uint64, overflow bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(a, b)
	return lo, hi != 0
}

func checkedAdd(a, b uint64) (result uint64, overflow bool) {
	sum := a + b
	return sum, sum < a
}

