// Package checkpoint implements the checkpoint manager (C8): an ordered
// height-to-checkpoint map enforcing finality and guarding how deep a
// reorg may reach.
package checkpoint

import "github.com/supernova-labs/supernova/chainhash"

// Source identifies how a checkpoint was established; higher trust wins
// a conflict at the same height (spec.md §4.8).
type Source int

const (
	SourceAutomatic      Source = 40
	SourcePeerConsensus  Source = 50
	SourceUserConfigured Source = 70
	SourceDnsSeed        Source = 80
	SourceTrustedServer  Source = 90
	SourceHardcoded      Source = 100
)

func (s Source) String() string {
	switch s {
	case SourceHardcoded:
		return "hardcoded"
	case SourceTrustedServer:
		return "trusted-server"
	case SourceDnsSeed:
		return "dns-seed"
	case SourceUserConfigured:
		return "user-configured"
	case SourcePeerConsensus:
		return "peer-consensus"
	case SourceAutomatic:
		return "automatic"
	default:
		return "unknown"
	}
}

// Checkpoint pins a block hash to a height, trusted at Source's level.
type Checkpoint struct {
	Height uint64
	Hash   chainhash.Hash
	Source Source
}
