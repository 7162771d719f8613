// Package txindex maintains secondary lookup indices over confirmed
// transactions (C6): by transaction hash, script hash, block height,
// environmental score bucket, and Lightning channel ID. Indices are
// populated only once chain state confirms a transaction at a height and
// are torn down on reorg; none of them ever takes the UTXO engine's
// mutex.
package txindex

import "github.com/supernova-labs/supernova/chainhash"

// ScriptHash is the HASH160 digest of a script_pubkey, used in place of a
// bech32m address (out of scope per spec.md) as the general-purpose
// ownership index, grounded on
// original_source/node/src/storage/transaction_index.rs.
type ScriptHash [20]byte

// ChannelID identifies a Lightning payment channel (funding outpoint
// hash), shared with the lightning/channel package.
type ChannelID chainhash.Hash

// Record is everything the indexer needs about one confirmed
// transaction to populate every secondary index at once.
type Record struct {
	Hash               chainhash.Hash
	Height             uint64
	ScriptHashes       []ScriptHash
	EnvironmentalScore uint8 // 0..100
	ChannelID          *ChannelID
}

// scoreBucket maps a 0..100 environmental score to its bucket key. Scores
// are already integers 0..=100 per spec.md, so the bucket is the score
// itself; this indirection exists so a future coarser bucketing scheme
// has a single place to change.
func scoreBucket(score uint8) uint8 {
	return score
}
