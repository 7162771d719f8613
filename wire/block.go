package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/supernova-labs/supernova/chainhash"
)

// HeaderSize is the fixed size, in bytes, of a serialized BlockHeader's
// hash preimage: version(4) ‖ prev_hash(32) ‖ merkle_root(32) ‖
// timestamp(8) ‖ bits(4) ‖ nonce(4).
const HeaderSize = 4 + chainhash.HashSize + chainhash.HashSize + 8 + 4 + 4

// BlockHeader is the 84-byte-preimage block header. Height is chain-state
// metadata, not part of the hash preimage (spec.md §3).
type BlockHeader struct {
	Version    uint32
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint64
	Bits       uint32
	Nonce      uint32
	Height     uint64
}

// Serialize writes the bit-exact 84-byte preimage described in spec.md §6.
// Height is intentionally excluded.
func (h *BlockHeader) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, h.Version); err != nil {
		return err
	}
	if _, err := w.Write(h.PrevHash[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Timestamp); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Bits); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, h.Nonce)
}

// Deserialize parses the 84-byte preimage written by Serialize. Height is
// left at its zero value; callers restore it from chain-state metadata.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.PrevHash[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Timestamp); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Bits); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &h.Nonce)
}

// Bytes returns the serialized 84-byte preimage.
func (h *BlockHeader) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := h.Serialize(&buf); err != nil {
		// bytes.Buffer never fails to write.
		return nil
	}
	return buf.Bytes()
}

// Hash returns the double-SHA-256 of the header preimage.
func (h *BlockHeader) Hash() chainhash.Hash {
	return chainhash.HashFunc(h.Bytes())
}

// Block is a full block: header plus its transactions. transactions[0]
// must be coinbase; all others must not be (spec.md §3).
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

// CheckSanity validates the block-level structural invariants from
// spec.md §3 that don't require external chain state: transactions[0] is
// coinbase, no other transaction is, and the Merkle root matches.
func (b *Block) CheckSanity() error {
	if len(b.Transactions) == 0 {
		return fmt.Errorf("%w: block has no transactions", ErrInvalidBlock)
	}
	if !b.Transactions[0].IsCoinbase() {
		return fmt.Errorf("%w: first transaction is not coinbase", ErrInvalidBlock)
	}
	for i, tx := range b.Transactions[1:] {
		if tx.IsCoinbase() {
			return fmt.Errorf("%w: transaction %d is an unexpected coinbase", ErrInvalidBlock, i+1)
		}
	}
	for _, tx := range b.Transactions {
		if err := tx.CheckSanity(); err != nil {
			return err
		}
	}
	root, err := MerkleRoot(b.TransactionHashes())
	if err != nil {
		return err
	}
	if root != b.Header.MerkleRoot {
		return fmt.Errorf("%w: merkle root mismatch", ErrInvalidBlock)
	}
	return nil
}

// ErrInvalidBlock is returned by CheckSanity when a structural invariant
// is violated.
var ErrInvalidBlock = fmt.Errorf("wire: invalid block")

// TransactionHashes returns the TxHash of every transaction, in order.
func (b *Block) TransactionHashes() []chainhash.Hash {
	hashes := make([]chainhash.Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		hashes[i] = tx.TxHash()
	}
	return hashes
}

// MerkleRoot computes the double-SHA-256 Merkle root over a list of leaf
// hashes, duplicating the last element of any level with an odd count.
// An empty list yields the zero hash (spec.md §3, §6).
func MerkleRoot(leaves []chainhash.Hash) (chainhash.Hash, error) {
	if len(leaves) == 0 {
		return chainhash.ZeroHash, nil
	}
	level := make([]chainhash.Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := 0; i < len(next); i++ {
			var buf [2 * chainhash.HashSize]byte
			copy(buf[:chainhash.HashSize], level[2*i][:])
			copy(buf[chainhash.HashSize:], level[2*i+1][:])
			next[i] = chainhash.HashFunc(buf[:])
		}
		level = next
	}
	return level[0], nil
}
