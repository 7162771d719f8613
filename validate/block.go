package validate

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/utxo"
	"github.com/supernova-labs/supernova/wire"
)

// ValidateBlock runs every block-level check from spec.md §4.9, in order,
// against the UTXO snapshot observed through utxoEngine. recentTimestamps
// holds the timestamps of the preceding blocks (oldest first) used for
// the median-time-past check; prevHashKnown reports whether a hash is a
// known, previously accepted header.
func ValidateBlock(block *wire.Block, height uint64, recentTimestamps []uint64, prevHashKnown func(chainhash.Hash) bool, utxoEngine *utxo.Engine, cfg Config) error {
	if !wire.MeetsTarget(block.Header.Hash(), block.Header.Bits) {
		return errKind(ErrKindBadProofOfWork, "header hash does not meet target derived from bits")
	}
	if !prevHashKnown(block.Header.PrevHash) {
		return errKind(ErrKindUnknownPrevBlock, "prev_hash does not resolve to a known header")
	}
	if cfg.MedianTimeSpan > 0 {
		median := medianTimestamp(recentTimestamps, cfg.MedianTimeSpan)
		if block.Header.Timestamp <= median {
			return errKind(ErrKindTimestampTooOld, "timestamp is not greater than the median of recent block times")
		}
	}
	if err := block.CheckSanity(); err != nil {
		// CheckSanity covers coinbase-is-first-and-only, merkle root
		// match, and per-transaction structural sanity in one pass.
		return errWrap(ErrKindStructural, "block sanity check failed", err)
	}

	fees, err := validateTransactions(block, height, utxoEngine, cfg)
	if err != nil {
		return err
	}

	var totalFees uint64
	for _, fee := range fees[1:] { // fees[0] is the coinbase, always 0
		sum, overflow := checkedAdd(totalFees, fee)
		if overflow {
			return errKind(ErrKindSubsidyExceeded, "total fees overflow u64")
		}
		totalFees = sum
	}

	var coinbaseOut uint64
	for _, out := range block.Transactions[0].Outputs {
		sum, overflow := checkedAdd(coinbaseOut, out.Value)
		if overflow {
			return errKind(ErrKindSubsidyExceeded, "coinbase output sum overflows u64")
		}
		coinbaseOut = sum
	}

	var subsidy uint64
	if cfg.SubsidyAt != nil {
		subsidy = cfg.SubsidyAt(height)
	}
	allowed, overflow := checkedAdd(subsidy, totalFees)
	if overflow {
		return errKind(ErrKindSubsidyExceeded, "subsidy + fees overflows u64")
	}
	if coinbaseOut > allowed {
		return errKind(ErrKindBadCoinbase, fmt.Sprintf("coinbase claims %d but only %d (subsidy + fees) is allowed", coinbaseOut, allowed))
	}
	return nil
}

// validateTransactions validates every transaction in block concurrently,
// bounded by an errgroup so the first failure cancels the rest, returning
// each transaction's fee in block order.
func validateTransactions(block *wire.Block, height uint64, utxoEngine *utxo.Engine, cfg Config) ([]uint64, error) {
	fees := make([]uint64, len(block.Transactions))

	var g errgroup.Group
	for i, tx := range block.Transactions {
		i, tx := i, tx
		g.Go(func() error {
			fee, err := ValidateTransaction(tx, height, utxoEngine, cfg)
			if err != nil {
				return fmt.Errorf("transaction %d (%s): %w", i, tx.TxHash(), err)
			}
			fees[i] = fee
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fees, nil
}
