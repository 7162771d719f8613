package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/supernova-labs/supernova/chainhash"
)

// SigningDigest computes the message an input's signature commits to: the
// double-SHA-256 of every field of tx except the signature scripts and
// QuantumSignatureData, so a valid signature binds the full set of inputs, outputs,
// and lock_time but not the unlocking scripts being assembled around it.
// spec.md does not define multiple sighash flags/types, so this is the
// single fixed digest every OP_CHECKSIG verifies against.
func SigningDigest(tx *Transaction) chainhash.Hash {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, tx.Version)
	binary.Write(&buf, binary.LittleEndian, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf.Write(in.Prev.Hash[:])
		binary.Write(&buf, binary.LittleEndian, in.Prev.Index)
		binary.Write(&buf, binary.LittleEndian, in.Sequence)
	}
	binary.Write(&buf, binary.LittleEndian, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		binary.Write(&buf, binary.LittleEndian, out.Value)
		binary.Write(&buf, binary.LittleEndian, uint32(len(out.ScriptPubKey)))
		buf.Write(out.ScriptPubKey)
	}
	binary.Write(&buf, binary.LittleEndian, tx.LockTime)
	return chainhash.HashFunc(buf.Bytes())
}
