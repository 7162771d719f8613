package blockchain

import (
	"math/big"
	"sync"

	"github.com/decred/slog"
	"github.com/supernova-labs/supernova/checkpoint"
	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/mempool"
	"github.com/supernova-labs/supernova/txindex"
	"github.com/supernova-labs/supernova/utxo"
	"github.com/supernova-labs/supernova/wire"
)

var log = slog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Config parameterizes fork resolution.
type Config struct {
	Policy        Policy
	MaxForkLength uint64
}

// ChainState is the process-wide singleton owning the active tip, every
// known header/block, and fork-tip tracking. A single reorg mutex
// serializes every tip-mutating operation (spec.md §4.7); a lighter tip
// mutex guards only the currently-published TipInfo so readers never
// block on the reorg mutex.
type ChainState struct {
	reorgMu sync.Mutex

	tipMu sync.RWMutex
	tip   TipInfo

	cfg Config

	headers        map[chainhash.Hash]*wire.BlockHeader
	blocks         map[chainhash.Hash]*wire.Block
	parentOf       map[chainhash.Hash]chainhash.Hash
	cumulativeWork map[chainhash.Hash]*big.Int
	heightIndex    map[uint64]chainhash.Hash // active chain only
	applied        map[chainhash.Hash]*appliedBlock

	utxoEngine  *utxo.Engine
	indexer     *txindex.Indexer
	mempool     *mempool.Pool
	checkpoints *checkpoint.Manager
}

// New constructs a ChainState rooted at genesis, applying its
// transactions (the coinbase) as height 0.
func New(cfg Config, genesis *wire.Block, utxoEngine *utxo.Engine, indexer *txindex.Indexer, pool *mempool.Pool, checkpoints *checkpoint.Manager) (*ChainState, error) {
	cs := &ChainState{
		cfg:            cfg,
		headers:        make(map[chainhash.Hash]*wire.BlockHeader),
		blocks:         make(map[chainhash.Hash]*wire.Block),
		parentOf:       make(map[chainhash.Hash]chainhash.Hash),
		cumulativeWork: make(map[chainhash.Hash]*big.Int),
		heightIndex:    make(map[uint64]chainhash.Hash),
		applied:        make(map[chainhash.Hash]*appliedBlock),
		utxoEngine:     utxoEngine,
		indexer:        indexer,
		mempool:        pool,
		checkpoints:    checkpoints,
	}

	hash := genesis.Header.Hash()
	applied, err := cs.applyBlock(genesis, 0)
	if err != nil {
		return nil, errWrap(ErrKindChainStateError, "apply genesis block", err)
	}

	cs.headers[hash] = &genesis.Header
	cs.blocks[hash] = genesis
	cs.cumulativeWork[hash] = blockWork(genesis.Header.Bits)
	cs.heightIndex[0] = hash
	cs.applied[hash] = applied
	cs.tip = TipInfo{Hash: hash, Height: 0, CumulativeWork: cs.cumulativeWork[hash]}
	return cs, nil
}

// Tip returns the currently active tip. Safe for concurrent use.
func (cs *ChainState) Tip() TipInfo {
	cs.tipMu.RLock()
	defer cs.tipMu.RUnlock()
	return cs.tip
}

// HashAtHeight resolves a height on the active chain to its block hash.
func (cs *ChainState) HashAtHeight(height uint64) (chainhash.Hash, bool) {
	cs.reorgMu.Lock()
	defer cs.reorgMu.Unlock()
	h, ok := cs.heightIndex[height]
	return h, ok
}

// AcceptBlock records block (already fully validated by the Validator)
// and, if it extends or out-competes the active tip, updates chain state
// accordingly — possibly triggering a reorg. block must already be
// present with a known parent, or its hash equal to the configured
// genesis (handled by New).
func (cs *ChainState) AcceptBlock(block *wire.Block) error {
	cs.reorgMu.Lock()
	defer cs.reorgMu.Unlock()

	hash := block.Header.Hash()
	parentHash := block.Header.PrevHash

	parentWork, ok := cs.cumulativeWork[parentHash]
	if !ok {
		return errKind(ErrKindUnknownAncestor, parentHash.String())
	}

	work := new(big.Int).Add(parentWork, blockWork(block.Header.Bits))
	height := cs.heightOf(parentHash) + 1

	cs.headers[hash] = &block.Header
	cs.blocks[hash] = block
	cs.parentOf[hash] = parentHash
	cs.cumulativeWork[hash] = work

	if parentHash == cs.tip.Hash {
		applied, err := cs.applyBlock(block, height)
		if err != nil {
			delete(cs.headers, hash)
			delete(cs.blocks, hash)
			delete(cs.parentOf, hash)
			delete(cs.cumulativeWork, hash)
			return errWrap(ErrKindInvalidBlock, "apply block", err)
		}
		cs.heightIndex[height] = hash
		cs.applied[hash] = applied
		cs.setTip(TipInfo{Hash: hash, Height: height, CumulativeWork: work})
		if err := cs.checkpoints.MaybeAutoCreate(height, func(h uint64) (chainhash.Hash, bool) {
			hh, ok := cs.heightIndex[h]
			return hh, ok
		}); err != nil {
			log.Warnf("blockchain: automatic checkpoint creation failed: %v", err)
		}
		return nil
	}

	candidate := TipInfo{Hash: hash, Height: height, CumulativeWork: work}
	if !cs.beatsTip(candidate) {
		return nil // known, but not worth switching to: retained as a fork tip implicitly via parentOf/headers
	}
	return cs.reorganize(candidate)
}

func (cs *ChainState) heightOf(hash chainhash.Hash) uint64 {
	if hash == cs.tip.Hash {
		return cs.tip.Height
	}
	if parent, ok := cs.parentOf[hash]; ok {
		return cs.heightOf(parent) + 1
	}
	// hash has no recorded parent: it must be genesis.
	return 0
}

func (cs *ChainState) beatsTip(candidate TipInfo) bool {
	switch cs.cfg.Policy {
	case PolicyLongestChain:
		if candidate.Height != cs.tip.Height {
			return candidate.Height > cs.tip.Height
		}
		return candidate.Hash.CompareTo(cs.tip.Hash) < 0
	default: // PolicyMostWork
		return candidate.CumulativeWork.Cmp(cs.tip.CumulativeWork) > 0
	}
}

// reorganize implements spec.md §4.7's detach/attach protocol.
func (cs *ChainState) reorganize(candidate TipInfo) error {
	ancestor, err := cs.commonAncestor(candidate.Hash, cs.tip.Hash)
	if err != nil {
		return err
	}
	ancestorHeight := cs.heightOf(ancestor)

	reorgDepth := cs.tip.Height - ancestorHeight
	if reorgDepth > cs.cfg.MaxForkLength {
		return errKind(ErrKindForkTooDeep, "reorg exceeds max_fork_length")
	}
	if err := cs.checkpoints.CheckReorgAllowed(ancestorHeight); err != nil {
		return errWrap(ErrKindReorgBeyondCheckpoint, "reorg crosses finalized checkpoint", err)
	}

	detachedChain := cs.chainFrom(cs.tip.Hash, ancestor)
	attachChain := cs.chainFrom(candidate.Hash, ancestor)

	detachedApplied := make([]*appliedBlock, len(detachedChain))
	for i, h := range detachedChain {
		detachedApplied[i] = cs.applied[h]
	}

	// Detach from tip back to ancestor (reverse order).
	for i := len(detachedChain) - 1; i >= 0; i-- {
		cs.detachBlock(detachedChain[i], detachedApplied[i])
	}

	// Attach the new chain in height order.
	attachedSoFar := make([]chainhash.Hash, 0, len(attachChain))
	for i := len(attachChain) - 1; i >= 0; i-- {
		h := attachChain[i]
		block, ok := cs.blocks[h]
		if !ok {
			cs.rollbackFailedAttach(attachedSoFar, detachedChain, detachedApplied)
			return errKind(ErrKindUnknownAncestor, "attach chain block body missing")
		}
		height := ancestorHeight + uint64(len(attachChain)-i)
		applied, err := cs.applyBlock(block, height)
		if err != nil {
			cs.rollbackFailedAttach(attachedSoFar, detachedChain, detachedApplied)
			return errWrap(ErrKindInvalidBlock, "attach block", err)
		}
		cs.heightIndex[height] = h
		cs.applied[h] = applied
		attachedSoFar = append(attachedSoFar, h)
	}

	cs.setTip(candidate)
	return nil
}

// rollbackFailedAttach implements step 6: reverse whatever of the new
// chain was partially attached, then re-attach the original chain, which
// is guaranteed possible because its ancestor state was preserved.
func (cs *ChainState) rollbackFailedAttach(attachedSoFar []chainhash.Hash, detachedChain []chainhash.Hash, detachedApplied []*appliedBlock) {
	for i := len(attachedSoFar) - 1; i >= 0; i-- {
		h := attachedSoFar[i]
		cs.detachBlock(h, cs.applied[h])
	}
	ancestorHeight := cs.tip.Height - uint64(len(detachedChain))
	for i := len(detachedChain) - 1; i >= 0; i-- {
		h := detachedChain[i]
		block := cs.blocks[h]
		height := ancestorHeight + uint64(len(detachedChain)-i)
		applied, err := cs.applyBlock(block, height)
		if err != nil {
			log.Errorf("blockchain: catastrophic failure re-attaching original chain during rollback: %v", err)
			return
		}
		cs.heightIndex[height] = h
		cs.applied[h] = applied
	}
}

// detachBlock reverses one block's UTXO mutations, removes its index
// entries, restores its non-coinbase transactions to the mempool, and
// removes it from the active heightIndex.
func (cs *ChainState) detachBlock(hash chainhash.Hash, applied *appliedBlock) {
	for i := len(applied.batches) - 1; i >= 0; i-- {
		inverse := applied.batches[i].Inverse(applied.prevOutputs[i])
		if err := cs.utxoEngine.Apply(inverse); err != nil {
			log.Errorf("blockchain: failed to reverse UTXO batch on detach: %v", err)
		}
	}
	if block, ok := cs.blocks[hash]; ok {
		for i, tx := range block.Transactions {
			if i == 0 {
				continue // coinbase is never mempool-eligible
			}
			txHash := tx.TxHash()
			cs.indexer.Remove(txHash)
			_ = cs.mempool.AddTransaction(tx, 0, false) // best-effort restore; errors are non-fatal
		}
	}
	delete(cs.heightIndex, applied.height)
}

// applyBlock runs every transaction in block through the UTXO engine and
// indexer at height, returning the record needed to reverse it later.
func (cs *ChainState) applyBlock(block *wire.Block, height uint64) (*appliedBlock, error) {
	ab := &appliedBlock{hash: block.Header.Hash(), height: height}
	for _, tx := range block.Transactions {
		utxoTx, prevOutputs, err := buildUtxoTransaction(tx, height, cs.utxoEngine)
		if err != nil {
			return nil, err
		}
		if err := cs.utxoEngine.Apply(utxoTx); err != nil {
			return nil, err
		}
		ab.batches = append(ab.batches, utxoTx)
		ab.prevOutputs = append(ab.prevOutputs, prevOutputs)

		cs.indexer.Index(txindex.Record{Hash: tx.TxHash(), Height: height})
		cs.mempool.Remove(tx.TxHash())
	}
	return ab, nil
}

// commonAncestor walks back from both hashes via parentOf until they
// meet, bounded by MaxForkLength steps.
func (cs *ChainState) commonAncestor(a, b chainhash.Hash) (chainhash.Hash, error) {
	seen := map[chainhash.Hash]struct{}{a: {}}
	cur := a
	for i := uint64(0); i < cs.cfg.MaxForkLength+1; i++ {
		parent, ok := cs.parentOf[cur]
		if !ok {
			break
		}
		seen[parent] = struct{}{}
		cur = parent
	}

	cur = b
	if _, ok := seen[cur]; ok {
		return cur, nil
	}
	for i := uint64(0); i < cs.cfg.MaxForkLength+1; i++ {
		parent, ok := cs.parentOf[cur]
		if !ok {
			return chainhash.ZeroHash, errKind(ErrKindUnknownAncestor, "no common ancestor within max fork length")
		}
		if _, ok := seen[parent]; ok {
			return parent, nil
		}
		cur = parent
	}
	return chainhash.ZeroHash, errKind(ErrKindUnknownAncestor, "no common ancestor within max fork length")
}

// chainFrom returns the sequence of hashes from tip down to (but
// excluding) ancestor, ordered tip-first.
func (cs *ChainState) chainFrom(tip, ancestor chainhash.Hash) []chainhash.Hash {
	var chain []chainhash.Hash
	cur := tip
	for cur != ancestor {
		chain = append(chain, cur)
		parent, ok := cs.parentOf[cur]
		if !ok {
			break
		}
		cur = parent
	}
	return chain
}

func (cs *ChainState) setTip(tip TipInfo) {
	cs.tipMu.Lock()
	cs.tip = tip
	cs.tipMu.Unlock()
}
