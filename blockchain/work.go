package blockchain

import (
	"math/big"

	"github.com/supernova-labs/supernova/wire"
)

// oneLsh256 is 2^256, used as the numerator of the standard work formula.
var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// blockWork computes a single header's contribution to cumulative
// proof-of-work: 2^256 / (target+1), the standard target-to-work formula
// used across proof-of-work chains built on a compact-bits target.
func blockWork(bits uint32) *big.Int {
	target := wire.CompactToTarget(bits)
	if target.Sign() == 0 {
		return big.NewInt(0)
	}
	denom := new(big.Int).Add(target, big.NewInt(1))
	return new(big.Int).Div(oneLsh256, denom)
}
