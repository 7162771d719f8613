package watchtower

import (
	"bytes"
	"sync"

	"github.com/google/uuid"

	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/wire"
	"golang.org/x/crypto/chacha20poly1305"
)

// Watchtower holds one encrypted breach-protection envelope per
// monitored channel and reacts to observed chain activity (spec.md
// §4.12). All state is guarded by a single mutex; watchtower operations
// are not on any hot path, so a single RWMutex is sufficient.
type Watchtower struct {
	mu        sync.RWMutex
	leases    map[chainhash.Hash]Lease
	byHint    map[Hint][]chainhash.Hash
	byLeaseID map[uuid.UUID]chainhash.Hash
}

// New returns an empty Watchtower.
func New() *Watchtower {
	return &Watchtower{
		leases:    make(map[chainhash.Hash]Lease),
		byHint:    make(map[Hint][]chainhash.Hash),
		byLeaseID: make(map[uuid.UUID]chainhash.Hash),
	}
}

// Register stores or replaces channelID's breach-protection envelope and
// returns the lease ID assigned to it. state is opaque: the watchtower
// cannot decrypt it until it observes a transaction matching hint on
// chain.
func (w *Watchtower) Register(channelID chainhash.Hash, hint Hint, state EncryptedChannelState) (uuid.UUID, error) {
	if len(state.Nonce) != chacha20poly1305.NonceSize {
		return uuid.UUID{}, errKindf(ErrKindInvalidEnvelope, "nonce is %d bytes, want %d", len(state.Nonce), chacha20poly1305.NonceSize)
	}
	if len(state.Tag) != chacha20poly1305.Overhead {
		return uuid.UUID{}, errKindf(ErrKindInvalidEnvelope, "tag is %d bytes, want %d", len(state.Tag), chacha20poly1305.Overhead)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.leases[channelID]; ok {
		w.unindexHintLocked(old.Hint, channelID)
		delete(w.byLeaseID, old.ID)
	}
	id := uuid.New()
	lease := Lease{ID: id, ChannelID: channelID, Hint: hint, State: state}
	w.leases[channelID] = lease
	w.byHint[hint] = append(w.byHint[hint], channelID)
	w.byLeaseID[id] = channelID
	return id, nil
}

// Remove drops a channel's lease, used once it has closed cooperatively
// and no longer needs breach protection.
func (w *Watchtower) Remove(channelID chainhash.Hash) {
	w.mu.Lock()
	defer w.mu.Unlock()
	lease, ok := w.leases[channelID]
	if !ok {
		return
	}
	w.unindexHintLocked(lease.Hint, channelID)
	delete(w.byLeaseID, lease.ID)
	delete(w.leases, channelID)
}

// Lookup resolves a lease ID (as returned by Register) back to its
// lease, for a client that only recorded the ID rather than the channel
// ID it corresponds to.
func (w *Watchtower) Lookup(id uuid.UUID) (Lease, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	channelID, ok := w.byLeaseID[id]
	if !ok {
		return Lease{}, false
	}
	lease, ok := w.leases[channelID]
	return lease, ok
}

func (w *Watchtower) unindexHintLocked(hint Hint, channelID chainhash.Hash) {
	ids := w.byHint[hint]
	for i, id := range ids {
		if id == channelID {
			w.byHint[hint] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(w.byHint[hint]) == 0 {
		delete(w.byHint, hint)
	}
}

// Monitored reports how many channels currently have an active lease.
func (w *Watchtower) Monitored() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.leases)
}

// ObserveTransaction inspects a transaction seen via the external block
// feed (spec.md §4.12: "detected via external block feed"). If its txid
// matches a registered hint, the watchtower derives that lease's
// decryption key from the full txid — something only possible once the
// breaching commitment has actually been broadcast — and, on success,
// returns the decrypted breach-remedy transaction ready for broadcast.
// A hint collision whose derived key fails to authenticate is not an
// error: hints are a 16-byte prefix, so an unrelated transaction can
// share one by chance and is simply not a breach.
func (w *Watchtower) ObserveTransaction(tx *wire.Transaction) ([]BreachRemedy, error) {
	txHash := tx.TxHash()
	var hint Hint
	copy(hint[:], txHash[:HintSize])

	w.mu.RLock()
	candidates := append([]chainhash.Hash(nil), w.byHint[hint]...)
	leases := make([]Lease, 0, len(candidates))
	for _, channelID := range candidates {
		leases = append(leases, w.leases[channelID])
	}
	w.mu.RUnlock()

	var remedies []BreachRemedy
	for _, lease := range leases {
		remedy, ok, err := decryptRemedy(lease, txHash)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		log.Warnf("watchtower: breach detected on channel %s via commitment %s", lease.ChannelID, txHash)
		remedies = append(remedies, remedy)
	}
	return remedies, nil
}

// decryptRemedy attempts to open lease's envelope using the AEAD key
// derived from the breaching commitment's full txid. ok is false (with
// a nil error) when the key fails to authenticate the envelope, meaning
// this lease's hint collided by chance with an unrelated transaction.
func decryptRemedy(lease Lease, commitmentTxHash chainhash.Hash) (BreachRemedy, bool, error) {
	key := commitmentTxHash[:]
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return BreachRemedy{}, false, errKindf(ErrKindDecryptionFailed, "init AEAD: %v", err)
	}

	sealed := make([]byte, 0, len(lease.State.Ciphertext)+len(lease.State.Tag))
	sealed = append(sealed, lease.State.Ciphertext...)
	sealed = append(sealed, lease.State.Tag...)

	plaintext, err := aead.Open(nil, lease.State.Nonce, sealed, lease.ChannelID[:])
	if err != nil {
		return BreachRemedy{}, false, nil
	}

	remedyTx, err := wire.DeserializeTransaction(plaintext)
	if err != nil {
		return BreachRemedy{}, false, errKindf(ErrKindMalformedRemedy, "channel %s: %v", lease.ChannelID, err)
	}
	if err := remedyTx.CheckSanity(); err != nil {
		return BreachRemedy{}, false, errKindf(ErrKindMalformedRemedy, "channel %s: %v", lease.ChannelID, err)
	}

	return BreachRemedy{
		ChannelID:   lease.ChannelID,
		RemedyTx:    remedyTx,
		RemedyTxRaw: bytes.Clone(plaintext),
	}, true, nil
}

// Seal is a client-side helper (used by the channel owner, not the
// watchtower) that builds the EncryptedChannelState envelope for a
// breach-remedy transaction keyed on the commitment transaction it
// punishes, per the scheme ObserveTransaction expects.
func Seal(channelID chainhash.Hash, commitmentTxHash chainhash.Hash, nonce [chacha20poly1305.NonceSize]byte, remedyTxRaw []byte) (EncryptedChannelState, error) {
	aead, err := chacha20poly1305.New(commitmentTxHash[:])
	if err != nil {
		return EncryptedChannelState{}, errKindf(ErrKindInvalidEnvelope, "init AEAD: %v", err)
	}
	sealed := aead.Seal(nil, nonce[:], remedyTxRaw, channelID[:])
	ciphertext := sealed[:len(sealed)-chacha20poly1305.Overhead]
	tag := sealed[len(sealed)-chacha20poly1305.Overhead:]
	return EncryptedChannelState{
		Ciphertext: bytes.Clone(ciphertext),
		Nonce:      nonce[:],
		Tag:        bytes.Clone(tag),
	}, nil
}

// HintFor derives the breach hint for a commitment transaction's txid.
func HintFor(commitmentTxHash chainhash.Hash) Hint {
	var hint Hint
	copy(hint[:], commitmentTxHash[:HintSize])
	return hint
}
