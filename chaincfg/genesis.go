package chaincfg

import (
	"math/big"
	"time"

	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/wire"
)

// easyPowLimit is the highest (easiest) proof-of-work target used by
// regtest-style networks: 2^240 - 1.
var easyPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 240), bigOne)

// buildGenesisBlock constructs a network's genesis block: version 1,
// zero prev_hash, the supplied bits, nonce 0, and a single coinbase
// transaction carrying arbitrary data (spec.md §4.2).
func buildGenesisBlock(timestamp time.Time, bits uint32, coinbaseData []byte, subsidy uint64) *wire.Block {
	coinbase := &wire.Transaction{
		Version: 1,
		Inputs:  []*wire.Input{wire.NewCoinbaseInput(coinbaseData)},
		Outputs: []*wire.Output{{Value: subsidy, ScriptPubKey: []byte{}}},
	}
	root, _ := wire.MerkleRoot([]chainhash.Hash{coinbase.TxHash()})
	return &wire.Block{
		Header: wire.BlockHeader{
			Version:    1,
			PrevHash:   chainhash.ZeroHash,
			MerkleRoot: root,
			Timestamp:  uint64(timestamp.Unix()),
			Bits:       bits,
			Nonce:      0,
			Height:     0,
		},
		Transactions: []*wire.Transaction{coinbase},
	}
}

// MainNetParams returns the network parameters for the Supernova main
// network.
func MainNetParams() *Params {
	// mainPowLimit is the highest proof-of-work target a mainnet block may
	// have: 2^224 - 1, a conservative starting difficulty analogous to the
	// teacher's mainPowLimit derivation.
	mainPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)
	bits := wire.TargetToCompact(mainPowLimit)

	genesis := buildGenesisBlock(
		time.Unix(1_700_000_000, 0),
		bits,
		[]byte("supernova genesis: quantum-resistant proof-of-work, 2024"),
		50_00000000,
	)
	hash := genesis.Header.Hash()

	return &Params{
		Name:                   "mainnet",
		GenesisBlock:           genesis,
		GenesisHash:            func() [32]byte { return hash },
		PowLimit:               mainPowLimit,
		PowLimitBits:           bits,
		CoinbaseMaturity:       100,
		MaxBlockSize:           wire.MaxBlockSize,
		TargetTimePerBlock:     10 * time.Minute,
		SubsidyInitial:         50_00000000,
		SubsidyHalvingInterval: 210_000,
	}
}

// RegTestParams returns network parameters tuned for local integration
// tests: a trivially easy PoW limit, a genesis timestamp fixed at the Unix
// epoch for reproducibility, and a short coinbase maturity.
func RegTestParams() *Params {
	bits := wire.TargetToCompact(easyPowLimit)

	genesis := buildGenesisBlock(
		time.Unix(0, 0),
		bits,
		[]byte("supernova regtest genesis"),
		50_00000000,
	)
	hash := genesis.Header.Hash()

	return &Params{
		Name:                   "regtest",
		GenesisBlock:           genesis,
		GenesisHash:            func() [32]byte { return hash },
		PowLimit:               easyPowLimit,
		PowLimitBits:           bits,
		CoinbaseMaturity:       2,
		MaxBlockSize:           wire.MaxBlockSize,
		TargetTimePerBlock:     1 * time.Second,
		SubsidyInitial:         50_00000000,
		SubsidyHalvingInterval: 0,
	}
}
