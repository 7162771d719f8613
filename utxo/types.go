// Package utxo implements the atomic UTXO engine (C4): an in-memory
// OutPoint-to-output map backed by a write-ahead log, mutated only
// through the fixed five-step protocol so a crash between any two steps
// leaves the on-disk state recoverable.
package utxo

import "github.com/supernova-labs/supernova/wire"

// UnspentOutput extends wire.Output with the chain-position metadata
// needed to enforce coinbase maturity.
type UnspentOutput struct {
	Value        uint64
	ScriptPubKey []byte
	Height       uint64
	IsCoinbase   bool
}

// OutputEntry pairs an OutPoint with the UnspentOutput it will become
// once a UtxoTransaction commits.
type OutputEntry struct {
	OutPoint wire.OutPoint
	Output   UnspentOutput
}

// UtxoTransaction is the atomic unit of mutation: a batch of consumed
// inputs and produced outputs applied together or not at all.
type UtxoTransaction struct {
	Inputs  []wire.OutPoint
	Outputs []OutputEntry
}

// Inverse builds the UtxoTransaction that undoes tx, used to roll back a
// detached block during a reorg. prevOutputs must supply, in the same
// order as tx.Inputs, the UnspentOutput each consumed input used to be;
// the engine does not retain spent entries, so the caller (chain state,
// replaying the block it is detaching) must have them on hand.
func (tx UtxoTransaction) Inverse(prevOutputs []UnspentOutput) UtxoTransaction {
	inv := UtxoTransaction{
		Inputs: make([]wire.OutPoint, 0, len(tx.Outputs)),
	}
	for _, out := range tx.Outputs {
		inv.Inputs = append(inv.Inputs, out.OutPoint)
	}
	for i, in := range tx.Inputs {
		inv.Outputs = append(inv.Outputs, OutputEntry{OutPoint: in, Output: prevOutputs[i]})
	}
	return inv
}
