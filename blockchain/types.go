// Package blockchain implements chain state and fork resolution (C7):
// the active tip, header and block stores, fork-tip tracking, and the
// reorg protocol that detaches the current chain back to a common
// ancestor and attaches the winning chain under a single reorg mutex.
package blockchain

import (
	"math/big"

	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/utxo"
	"github.com/supernova-labs/supernova/wire"
)

// TipInfo describes one candidate chain tip.
type TipInfo struct {
	Hash           chainhash.Hash
	Height         uint64
	CumulativeWork *big.Int
}

// appliedBlock records exactly what a block did to the UTXO set so a
// later reorg can construct its inverse without re-deriving prior state.
type appliedBlock struct {
	hash        chainhash.Hash
	height      uint64
	batches     []utxo.UtxoTransaction
	prevOutputs [][]utxo.UnspentOutput // parallel to batches[i].Inputs
}

// buildUtxoTransaction converts one wire.Transaction, confirmed at
// height, into the utxo.UtxoTransaction C4 expects, fetching the
// UnspentOutput each non-coinbase input currently references so the
// caller can later build the inverse for reorg rollback.
func buildUtxoTransaction(tx *wire.Transaction, height uint64, engine *utxo.Engine) (utxo.UtxoTransaction, []utxo.UnspentOutput, error) {
	var prevOutputs []utxo.UnspentOutput
	inputs := make([]wire.OutPoint, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if in.IsCoinbase() {
			continue
		}
		prev, err := engine.Get(in.Prev)
		if err != nil {
			return utxo.UtxoTransaction{}, nil, err
		}
		inputs = append(inputs, in.Prev)
		prevOutputs = append(prevOutputs, prev)
	}

	hash := tx.TxHash()
	outputs := make([]utxo.OutputEntry, len(tx.Outputs))
	for i, out := range tx.Outputs {
		outputs[i] = utxo.OutputEntry{
			OutPoint: wire.NewOutPoint(hash, uint32(i)),
			Output: utxo.UnspentOutput{
				Value:        out.Value,
				ScriptPubKey: out.ScriptPubKey,
				Height:       height,
				IsCoinbase:   tx.IsCoinbase(),
			},
		}
	}
	return utxo.UtxoTransaction{Inputs: inputs, Outputs: outputs}, prevOutputs, nil
}
