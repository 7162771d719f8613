// Package watchtower implements C12 (spec.md §4.12): a third party that
// watches the chain on a channel's behalf and, on seeing a revoked
// commitment transaction broadcast, publishes a breach-remedy
// transaction claiming the channel's funds for the honest party. The
// monitored state is opaque to the watchtower — it is handed an
// AEAD-encrypted envelope it can never open unless the breach it
// guards against actually happens.
package watchtower

import (
	"github.com/google/uuid"

	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/wire"
)

// HintSize is the length of the breach hint: the leading bytes of a
// revoked commitment transaction's txid, used to index leases without
// revealing which exact commitment they correspond to.
const HintSize = 16

// Hint identifies a monitored revoked-commitment txid by its prefix.
type Hint [HintSize]byte

// EncryptedChannelState is the client-supplied, watchtower-opaque
// envelope: an AEAD ciphertext plus the nonce (IV) and authentication
// tag needed to open it (spec.md §4.12: "client-provided ciphertext +
// IV + tag"). The plaintext it protects is a pre-signed breach-remedy
// transaction; the key able to decrypt it is derived from the full
// txid of the commitment transaction it punishes, which only becomes
// known once that commitment is actually broadcast.
type EncryptedChannelState struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

// Lease is one channel's registered breach-protection envelope. ID is
// assigned by Register and is the handle a client uses to reference its
// lease (e.g. in logs or a cancellation request) without exposing the
// channel ID to whatever transport carries that reference.
type Lease struct {
	ID        uuid.UUID
	ChannelID chainhash.Hash
	Hint      Hint
	State     EncryptedChannelState
}

// BreachRemedy is the decrypted outcome of a detected breach: the
// channel it punishes and the serialized transaction that claims its
// funds for the honest party.
type BreachRemedy struct {
	ChannelID   chainhash.Hash
	RemedyTx    *wire.Transaction
	RemedyTxRaw []byte
}
