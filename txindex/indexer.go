package txindex

import (
	"sync"

	"github.com/decred/slog"
	"github.com/supernova-labs/supernova/chainhash"
)

var log = slog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Indexer holds the five secondary indices named in spec.md §4.6, each
// behind its own RWMutex so a lookup in one index never blocks a write to
// another.
type Indexer struct {
	muTxHash sync.RWMutex
	byTxHash map[chainhash.Hash]Record

	muScriptHash sync.RWMutex
	byScriptHash map[ScriptHash]map[chainhash.Hash]struct{}

	muHeight sync.RWMutex
	byHeight map[uint64]map[chainhash.Hash]struct{}

	muScoreBucket sync.RWMutex
	byScoreBucket map[uint8]map[chainhash.Hash]struct{}

	muChannel sync.RWMutex
	byChannel map[ChannelID]map[chainhash.Hash]struct{}
}

// New returns an empty Indexer.
func New() *Indexer {
	return &Indexer{
		byTxHash:      make(map[chainhash.Hash]Record),
		byScriptHash:  make(map[ScriptHash]map[chainhash.Hash]struct{}),
		byHeight:      make(map[uint64]map[chainhash.Hash]struct{}),
		byScoreBucket: make(map[uint8]map[chainhash.Hash]struct{}),
		byChannel:     make(map[ChannelID]map[chainhash.Hash]struct{}),
	}
}

// Index populates every secondary index for a newly confirmed
// transaction. Callers invoke this only after chain state has confirmed
// the transaction at r.Height, never speculatively from the mempool.
func (idx *Indexer) Index(r Record) {
	idx.muTxHash.Lock()
	idx.byTxHash[r.Hash] = r
	idx.muTxHash.Unlock()

	idx.muScriptHash.Lock()
	for _, sh := range r.ScriptHashes {
		set, ok := idx.byScriptHash[sh]
		if !ok {
			set = make(map[chainhash.Hash]struct{})
			idx.byScriptHash[sh] = set
		}
		set[r.Hash] = struct{}{}
	}
	idx.muScriptHash.Unlock()

	idx.muHeight.Lock()
	set, ok := idx.byHeight[r.Height]
	if !ok {
		set = make(map[chainhash.Hash]struct{})
		idx.byHeight[r.Height] = set
	}
	set[r.Hash] = struct{}{}
	idx.muHeight.Unlock()

	idx.muScoreBucket.Lock()
	bucket := scoreBucket(r.EnvironmentalScore)
	bset, ok := idx.byScoreBucket[bucket]
	if !ok {
		bset = make(map[chainhash.Hash]struct{})
		idx.byScoreBucket[bucket] = bset
	}
	bset[r.Hash] = struct{}{}
	idx.muScoreBucket.Unlock()

	if r.ChannelID != nil {
		idx.muChannel.Lock()
		cset, ok := idx.byChannel[*r.ChannelID]
		if !ok {
			cset = make(map[chainhash.Hash]struct{})
			idx.byChannel[*r.ChannelID] = cset
		}
		cset[r.Hash] = struct{}{}
		idx.muChannel.Unlock()
	}
}

// Remove tears down every secondary index entry for hash, used when a
// reorg detaches the block that had confirmed it.
func (idx *Indexer) Remove(hash chainhash.Hash) {
	idx.muTxHash.Lock()
	r, ok := idx.byTxHash[hash]
	delete(idx.byTxHash, hash)
	idx.muTxHash.Unlock()
	if !ok {
		return
	}

	idx.muScriptHash.Lock()
	for _, sh := range r.ScriptHashes {
		if set, ok := idx.byScriptHash[sh]; ok {
			delete(set, hash)
			if len(set) == 0 {
				delete(idx.byScriptHash, sh)
			}
		}
	}
	idx.muScriptHash.Unlock()

	idx.muHeight.Lock()
	if set, ok := idx.byHeight[r.Height]; ok {
		delete(set, hash)
		if len(set) == 0 {
			delete(idx.byHeight, r.Height)
		}
	}
	idx.muHeight.Unlock()

	idx.muScoreBucket.Lock()
	bucket := scoreBucket(r.EnvironmentalScore)
	if set, ok := idx.byScoreBucket[bucket]; ok {
		delete(set, hash)
		if len(set) == 0 {
			delete(idx.byScoreBucket, bucket)
		}
	}
	idx.muScoreBucket.Unlock()

	if r.ChannelID != nil {
		idx.muChannel.Lock()
		if set, ok := idx.byChannel[*r.ChannelID]; ok {
			delete(set, hash)
			if len(set) == 0 {
				delete(idx.byChannel, *r.ChannelID)
			}
		}
		idx.muChannel.Unlock()
	}
}

// Prune removes every indexed record at or below tip - pruneThreshold.
func (idx *Indexer) Prune(tip, pruneThreshold uint64) {
	if tip < pruneThreshold {
		return
	}
	cutoff := tip - pruneThreshold

	idx.muHeight.RLock()
	var toRemove []chainhash.Hash
	for height, set := range idx.byHeight {
		if height <= cutoff {
			for hash := range set {
				toRemove = append(toRemove, hash)
			}
		}
	}
	idx.muHeight.RUnlock()

	for _, hash := range toRemove {
		idx.Remove(hash)
	}
}

// ByTxHash returns the record indexed under hash, if any.
func (idx *Indexer) ByTxHash(hash chainhash.Hash) (Record, bool) {
	idx.muTxHash.RLock()
	defer idx.muTxHash.RUnlock()
	r, ok := idx.byTxHash[hash]
	return r, ok
}

// ByScriptHash returns every confirmed transaction hash touching sh.
func (idx *Indexer) ByScriptHash(sh ScriptHash) []chainhash.Hash {
	idx.muScriptHash.RLock()
	defer idx.muScriptHash.RUnlock()
	return setToSlice(idx.byScriptHash[sh])
}

// ByHeight returns every confirmed transaction hash at height.
func (idx *Indexer) ByHeight(height uint64) []chainhash.Hash {
	idx.muHeight.RLock()
	defer idx.muHeight.RUnlock()
	return setToSlice(idx.byHeight[height])
}

// ByScoreBucket returns every confirmed transaction hash whose
// environmental score falls in bucket.
func (idx *Indexer) ByScoreBucket(bucket uint8) []chainhash.Hash {
	idx.muScoreBucket.RLock()
	defer idx.muScoreBucket.RUnlock()
	return setToSlice(idx.byScoreBucket[bucket])
}

// ByChannelID returns every confirmed transaction hash associated with
// channel.
func (idx *Indexer) ByChannelID(channel ChannelID) []chainhash.Hash {
	idx.muChannel.RLock()
	defer idx.muChannel.RUnlock()
	return setToSlice(idx.byChannel[channel])
}

func setToSlice(set map[chainhash.Hash]struct{}) []chainhash.Hash {
	if len(set) == 0 {
		return nil
	}
	out := make([]chainhash.Hash, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	return out
}
