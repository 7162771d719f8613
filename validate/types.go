// Package validate implements end-to-end block and transaction validation
// (C9): the pure, UTXO-snapshot-only pipeline that every incoming
// transaction and assembled block must pass before chain state (C7) or
// the mempool (C5) will accept it. It depends only on the script
// interpreter (C3), the signature policy (C1), and the UTXO engine (C4)
// for read-only lookups — never on chain state or the checkpoint
// manager, so "validate" and "accept into chain state" remain separate
// concerns per spec.md's data-flow diagram.
package validate

import "github.com/supernova-labs/supernova/quantum"

// Config bounds validation with the policy knobs spec.md §4.9 defers to
// configuration: coinbase maturity, the median-time-past window, and the
// subsidy schedule.
type Config struct {
	CoinbaseMaturity uint64
	MedianTimeSpan   int // number of preceding timestamps to take the median of
	SubsidyAt        func(height uint64) uint64
	Policy           *quantum.AlgorithmPolicy
	SigCache         *quantum.SigCache // optional; nil verifies every signature from scratch
}

// medianTimestamp returns the median of the last MedianTimeSpan timestamps
// in recent (most-recent-last order). Fewer than MedianTimeSpan entries is
// tolerated (e.g. near genesis): the median is taken over however many are
// available.
func medianTimestamp(recent []uint64, span int) uint64 {
	if len(recent) == 0 {
		return 0
	}
	if len(recent) > span {
		recent = recent[len(recent)-span:]
	}
	sorted := append([]uint64(nil), recent...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted[len(sorted)/2]
}
