package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/supernova-labs/supernova/chainhash"
)

// MaxScriptSize is the maximum serialized size, in bytes, of a
// script_pubkey or script_sig (§4.3's MAX_SCRIPT_SIZE, reused here as the
// wire-level bound referenced by §3's Output invariant).
const MaxScriptSize = 10_000

// MaxBlockSize bounds the serialized size of a block and, transitively, of
// any single transaction within it (§3's Transaction invariant).
const MaxBlockSize = 4_000_000

// Input is a transaction input: a reference to a previous output plus the
// unlocking script and sequence number.
type Input struct {
	Prev            OutPoint
	SignatureScript []byte
	Sequence        uint32
}

// IsCoinbase reports whether this input is the synthetic coinbase input.
func (in *Input) IsCoinbase() bool {
	return in.Prev.IsCoinbase()
}

// NewCoinbaseInput builds the synthetic first input of a coinbase
// transaction, carrying arbitrary data in its signature script.
func NewCoinbaseInput(data []byte) *Input {
	return &Input{
		Prev:            OutPoint{Hash: chainhash.ZeroHash, Index: CoinbaseIndex},
		SignatureScript: data,
		Sequence:        0xffffffff,
	}
}

// Output is a transaction output: a value in novas locked by a script.
type Output struct {
	Value        uint64
	ScriptPubKey []byte
}

// Transaction is the atomic unit of value transfer.
type Transaction struct {
	Version  uint32
	Inputs   []*Input
	Outputs  []*Output
	LockTime uint32

	// QuantumSignatureData carries the post-quantum (or hybrid) signature
	// envelope when the transaction's inputs are quantum-signed. It is
	// opaque to wire-level serialization beyond its length prefix; §4.1
	// (quantum package) interprets its contents.
	QuantumSignatureData []byte
}

// IsCoinbase reports whether tx is a coinbase transaction: input 0 is the
// synthetic coinbase input.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) > 0 && tx.Inputs[0].IsCoinbase()
}

// CheckSanity validates the structural invariants from spec.md §3,
// independent of any UTXO or script state.
func (tx *Transaction) CheckSanity() error {
	if len(tx.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrInvalidTransaction)
	}
	if len(tx.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrInvalidTransaction)
	}
	for i, in := range tx.Inputs {
		isCB := in.IsCoinbase()
		if isCB && i != 0 {
			return fmt.Errorf("%w: coinbase input at index %d, want 0", ErrInvalidTransaction, i)
		}
		if !isCB && i == 0 && tx.Inputs[0].IsCoinbase() {
			// unreachable given the loop order, kept for clarity of intent
			continue
		}
		if len(in.SignatureScript) > MaxScriptSize {
			return fmt.Errorf("%w: input %d script_sig too large (%d bytes)", ErrInvalidTransaction, i, len(in.SignatureScript))
		}
	}
	if tx.Inputs[0].IsCoinbase() {
		for i := 1; i < len(tx.Inputs); i++ {
			if tx.Inputs[i].IsCoinbase() {
				return fmt.Errorf("%w: multiple coinbase inputs", ErrInvalidTransaction)
			}
		}
	}
	seen := make(map[OutPoint]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if _, dup := seen[in.Prev]; dup {
			return fmt.Errorf("%w: duplicate input %s", ErrInvalidTransaction, in.Prev)
		}
		seen[in.Prev] = struct{}{}
	}
	for i, out := range tx.Outputs {
		if len(out.ScriptPubKey) > MaxScriptSize {
			return fmt.Errorf("%w: output %d script_pubkey too large (%d bytes)", ErrInvalidTransaction, i, len(out.ScriptPubKey))
		}
	}
	size, err := tx.SerializeSize()
	if err != nil {
		return err
	}
	if size > MaxBlockSize {
		return fmt.Errorf("%w: serialized size %d exceeds block size limit", ErrInvalidTransaction, size)
	}
	return nil
}

// ErrInvalidTransaction is returned by CheckSanity when a structural
// invariant is violated.
var ErrInvalidTransaction = fmt.Errorf("wire: invalid transaction")

// Serialize writes the wire encoding of spec.md §6:
// version(4 LE) ‖ varint(input_count) ‖ inputs ‖ varint(output_count) ‖
// outputs ‖ lock_time(4 LE), followed by
// varint(quantum_signature_data_len) ‖ quantum_signature_data (a single
// zero byte when the field is empty). Each input is prev_hash(32) ‖
// prev_index(4 LE) ‖ varint(script_sig_len) ‖ script_sig ‖ sequence(4 LE);
// each output is value(8 LE) ‖ varint(script_pubkey_len) ‖ script_pubkey.
func (tx *Transaction) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, tx.Version); err != nil {
		return err
	}
	if err := writeVarInt(w, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		if _, err := w.Write(in.Prev.Hash[:]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, in.Prev.Index); err != nil {
			return err
		}
		if err := writeVarBytes(w, in.SignatureScript); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, in.Sequence); err != nil {
			return err
		}
	}
	if err := writeVarInt(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		if err := binary.Write(w, binary.LittleEndian, out.Value); err != nil {
			return err
		}
		if err := writeVarBytes(w, out.ScriptPubKey); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, tx.LockTime); err != nil {
		return err
	}
	return writeVarBytes(w, tx.QuantumSignatureData)
}

// Deserialize parses a transaction previously written by Serialize.
func (tx *Transaction) Deserialize(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &tx.Version); err != nil {
		return err
	}
	inCount, err := readVarInt(r)
	if err != nil {
		return err
	}
	const maxInputs = MaxBlockSize / 41 // smallest possible input encoding
	if inCount > maxInputs {
		return fmt.Errorf("wire: input count %d too large", inCount)
	}
	tx.Inputs = make([]*Input, inCount)
	for i := range tx.Inputs {
		in := &Input{}
		if _, err := io.ReadFull(r, in.Prev.Hash[:]); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &in.Prev.Index); err != nil {
			return err
		}
		sig, err := readVarBytes(r, MaxScriptSize, "script_sig")
		if err != nil {
			return err
		}
		in.SignatureScript = sig
		if err := binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
			return err
		}
		tx.Inputs[i] = in
	}
	outCount, err := readVarInt(r)
	if err != nil {
		return err
	}
	const maxOutputs = MaxBlockSize / 9
	if outCount > maxOutputs {
		return fmt.Errorf("wire: output count %d too large", outCount)
	}
	tx.Outputs = make([]*Output, outCount)
	for i := range tx.Outputs {
		out := &Output{}
		if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
			return err
		}
		pk, err := readVarBytes(r, MaxScriptSize, "script_pubkey")
		if err != nil {
			return err
		}
		out.ScriptPubKey = pk
		tx.Outputs[i] = out
	}
	if err := binary.Read(r, binary.LittleEndian, &tx.LockTime); err != nil {
		return err
	}
	qsd, err := readVarBytes(r, MaxBlockSize, "quantum_signature_data")
	if err != nil {
		return err
	}
	tx.QuantumSignatureData = qsd
	return nil
}

// SerializeSize returns the length in bytes of tx's wire encoding.
func (tx *Transaction) SerializeSize() (int, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

// Bytes returns the serialized wire encoding of tx.
func (tx *Transaction) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TxHash returns the double-SHA-256 hash of tx's serialized form. This is
// the canonical transaction identifier used as the hash component of every
// OutPoint referencing one of its outputs.
func (tx *Transaction) TxHash() chainhash.Hash {
	b, err := tx.Bytes()
	if err != nil {
		// Serialize only fails on an io.Writer error; bytes.Buffer never
		// returns one, so this is unreachable in practice.
		return chainhash.ZeroHash
	}
	return chainhash.HashFunc(b)
}

// DeserializeTransaction parses a Transaction from a raw byte slice.
func DeserializeTransaction(b []byte) (*Transaction, error) {
	tx := &Transaction{}
	if err := tx.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return tx, nil
}
