package validate

import (
	"fmt"
	"math/bits"

	"github.com/supernova-labs/supernova/quantum"
	"github.com/supernova-labs/supernova/txscript"
	"github.com/supernova-labs/supernova/utxo"
	"github.com/supernova-labs/supernova/wire"
)

// ValidateTransaction runs every transaction-level check from spec.md
// §4.9 against the UTXO snapshot observed through utxoEngine. It performs
// no mutation: a successful coinbase transaction returns a fee of 0 (its
// subsidy claim is checked at the block level instead); a successful
// non-coinbase transaction returns sum(inputs) - sum(outputs).
func ValidateTransaction(tx *wire.Transaction, height uint64, utxoEngine *utxo.Engine, cfg Config) (uint64, error) {
	if err := tx.CheckSanity(); err != nil {
		return 0, errWrap(ErrKindStructural, "transaction sanity check failed", err)
	}
	if tx.IsCoinbase() {
		return 0, nil
	}

	digest := wire.SigningDigest(tx)

	var inputSum, outputSum uint64
	for i, in := range tx.Inputs {
		prevOut, err := utxoEngine.Get(in.Prev)
		if err != nil {
			return 0, errWrap(ErrKindUTXOUnspendable, fmt.Sprintf("input %d references an unknown or already-spent output", i), err)
		}
		if prevOut.IsCoinbase && height < prevOut.Height+cfg.CoinbaseMaturity {
			return 0, errKind(ErrKindImmatureCoinbase, fmt.Sprintf("input %d spends a coinbase output before it has matured", i))
		}

		sum, overflow := checkedAdd(inputSum, prevOut.Value)
		if overflow {
			return 0, errKind(ErrKindInsufficientInput, "sum of input values overflows u64")
		}
		inputSum = sum

		if err := checkInputScript(in, prevOut, digest, height, cfg.Policy, cfg.SigCache); err != nil {
			return 0, errWrap(ErrKindScriptFailed, fmt.Sprintf("input %d", i), err)
		}
	}

	for _, out := range tx.Outputs {
		sum, overflow := checkedAdd(outputSum, out.Value)
		if overflow {
			return 0, errKind(ErrKindInsufficientInput, "sum of output values overflows u64")
		}
		outputSum = sum
	}

	if inputSum < outputSum {
		return 0, errKind(ErrKindInsufficientInput, "sum(inputs) < sum(outputs)")
	}
	return inputSum - outputSum, nil
}

// checkInputScript runs script_sig then script_pubkey through a fresh
// interpreter instance, the combined-script evaluation model spec.md
// §4.3 describes, under a bounded gas budget.
func checkInputScript(in *wire.Input, prevOut utxo.UnspentOutput, digest [32]byte, height uint64, policy *quantum.AlgorithmPolicy, cache *quantum.SigCache) error {
	engine := txscript.NewEngine()
	engine.SetCheckSigParams(txscript.CheckSigParams{Digest: digest[:], Policy: policy, Height: height, SigCache: cache})

	if err := engine.Execute(in.SignatureScript); err != nil {
		return fmt.Errorf("script_sig: %w", err)
	}
	if err := engine.Execute(prevOut.ScriptPubKey); err != nil {
		return fmt.Errorf("script_pubkey: %w", err)
	}
	return engine.Success()
}

func checkedAdd(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry != 0
}
