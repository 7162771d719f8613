// Package chaincfg defines the network parameters a Supernova node runs
// against: genesis block, proof-of-work limits, block-size and maturity
// constants. Trimmed to the pure-PoW UTXO model this spec describes (no
// stake/ticket fields, no address-encoding magics — those belong to the
// out-of-scope wallet/bech32m collaborators).
package chaincfg

import (
	"math/big"
	"time"

	"github.com/supernova-labs/supernova/wire"
)

// Params holds the consensus parameters for one Supernova network.
type Params struct {
	Name string

	// GenesisBlock is the network's first block.
	GenesisBlock *wire.Block
	GenesisHash  func() [32]byte

	// PowLimit is the highest proof-of-work target (lowest difficulty)
	// permitted on this network.
	PowLimit     *big.Int
	PowLimitBits uint32

	// CoinbaseMaturity is the number of confirmations a coinbase output
	// must accumulate before it is spendable (§4.9).
	CoinbaseMaturity uint64

	// MaxBlockSize bounds a block's total serialized size.
	MaxBlockSize int

	// TargetTimePerBlock is the desired interval between blocks, used by
	// callers that implement a difficulty retarget policy on top of the
	// chain-state component.
	TargetTimePerBlock time.Duration

	// SubsidyInitial is the block subsidy paid to the coinbase output at
	// height 0, before any halving schedule.
	SubsidyInitial uint64
	// SubsidyHalvingInterval is the number of blocks between subsidy
	// halvings. Zero disables halving.
	SubsidyHalvingInterval uint64
}

// bigOne is reused to avoid reallocating across Params constructors.
var bigOne = big.NewInt(1)

// CalcBlockSubsidy returns the block subsidy for the given height under a
// standard geometric halving schedule.
func (p *Params) CalcBlockSubsidy(height uint64) uint64 {
	if p.SubsidyHalvingInterval == 0 {
		return p.SubsidyInitial
	}
	halvings := height / p.SubsidyHalvingInterval
	if halvings >= 64 {
		return 0
	}
	return p.SubsidyInitial >> halvings
}
