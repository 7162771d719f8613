// Package mempool implements the concurrent, fee-prioritized transaction
// pool (C5): admission with replace-by-fee and double-spend rejection, a
// priority-queue drain order for miners, and an age-based eviction sweep.
package mempool

import (
	"time"

	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/wire"
)

// Config bounds pool admission and scoring, matching spec.md §4.5.
type Config struct {
	MaxSize                  int
	MinFeeRate               uint64
	MaxAgeSeconds            uint64
	EnableRBF                bool
	MinRBFFeeIncreasePercent uint64
	// RecentlyEvictedSize bounds the LRU of transaction hashes dropped by
	// EvictExpired. Zero disables the tracking (WasRecentlyEvicted
	// always reports false).
	RecentlyEvictedSize uint64
}

// Entry is a pool-resident transaction plus the bookkeeping the priority
// queue and eviction sweep need.
type Entry struct {
	Transaction        *wire.Transaction
	Hash               chainhash.Hash
	FeeRate            uint64
	Size               uint64
	Timestamp          time.Time
	Inputs             []wire.OutPoint
	EnvironmentalScore uint8 // 0..100
	LightningBoost     bool
}

// EnvironmentalScorer rates a transaction's environmental_score
// (spec.md §4.5's priority formula).
// The scoring oracle itself is out of scope; the pool only consumes this
// interface.
type EnvironmentalScorer interface {
	Score(tx *wire.Transaction) uint8
}

// ZeroScorer is the default EnvironmentalScorer: every transaction scores
// zero, so the term drops out of the priority formula when no oracle is
// configured.
type ZeroScorer struct{}

func (ZeroScorer) Score(*wire.Transaction) uint8 { return 0 }

// score implements spec.md §4.5's priority formula:
//
//	score = fee_rate*1000 + environmental_score*100 + age_minutes*10 + (lightning_boost ? 5000 : 0)
func score(e *Entry, now time.Time) uint64 {
	ageMinutes := uint64(now.Sub(e.Timestamp) / time.Minute)
	s := e.FeeRate*1000 + uint64(e.EnvironmentalScore)*100 + ageMinutes*10
	if e.LightningBoost {
		s += 5000
	}
	return s
}
