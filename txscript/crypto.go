package txscript

import (
	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/quantum"
)

// hash160 implements OP_HASH160: SHA-256 followed by RIPEMD-160, the
// address-digest construction used by script_pubkey P2PKH-style locks.
func hash160(data []byte) []byte {
	return chainhash.Hash160(data)
}

// hash256 implements OP_HASH256: double SHA-256, the same digest used for
// transaction and block hashing.
func hash256(data []byte) []byte {
	h := chainhash.HashFunc(data)
	return h[:]
}

// CheckSigParams carries the signature-verification context an OP_CHECKSIG
// needs but that a bare stack VM cannot derive on its own: the message
// digest being signed, the quantum algorithm policy in force at the
// validating height, and an optional signature cache shared across
// verifications.
type CheckSigParams struct {
	Digest   []byte
	Policy   *quantum.AlgorithmPolicy
	Height   uint64
	SigCache *quantum.SigCache
}

// sigParams is set by the caller before Execute runs a script containing
// OP_CHECKSIG. It is not part of Engine's exported surface because the
// signature context is fixed for the lifetime of a single script
// evaluation, not something a script can push onto the stack.
func (e *Engine) SetCheckSigParams(p CheckSigParams) {
	e.sigParams = &p
}

func (e *Engine) execCheckSig() error {
	if e.sigParams == nil {
		return errKind(ErrKindInvalidScript, "OP_CHECKSIG without signature context")
	}
	pubKeyRaw, err := e.pop()
	if err != nil {
		return err
	}
	sigRaw, err := e.pop()
	if err != nil {
		return err
	}

	pub := quantum.PublicKey{Scheme: quantum.SchemeHybrid, Raw: pubKeyRaw}
	sig := quantum.Signature{Params: quantum.SignatureParams{Scheme: quantum.SchemeHybrid}, Raw: sigRaw}

	if verr := quantum.VerifyWithPolicy(e.sigParams.Digest, sig, pub, e.sigParams.Policy, e.sigParams.Height, e.sigParams.SigCache); verr != nil {
		e.push(nil)
		return nil
	}
	e.push([]byte{1})
	return nil
}
