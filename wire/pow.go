package wire

import "math/big"

// CompactToTarget decodes the compact "bits" representation into a 256-bit
// target, per spec.md §6: exponent = bits >> 24, coefficient = bits &
// 0x00FFFFFF; target = coefficient << (8*(exponent-3)) for exponent >= 3,
// else coefficient >> (8*(3-exponent)).
func CompactToTarget(bits uint32) *big.Int {
	exponent := bits >> 24
	coefficient := big.NewInt(int64(bits & 0x00FFFFFF))

	if exponent <= 3 {
		shift := uint(8 * (3 - exponent))
		return new(big.Int).Rsh(coefficient, shift)
	}
	shift := uint(8 * (exponent - 3))
	return new(big.Int).Lsh(coefficient, shift)
}

// TargetToCompact encodes a 256-bit target back into the compact "bits"
// form. It is the inverse of CompactToTarget, used when constructing
// genesis blocks or test fixtures from a target value.
func TargetToCompact(target *big.Int) uint32 {
	if target.Sign() == 0 {
		return 0
	}
	bytesRepr := target.Bytes()
	exponent := len(bytesRepr)

	var coefficient uint32
	switch {
	case exponent <= 3:
		coefficient = uint32(new(big.Int).Lsh(target, uint(8*(3-exponent))).Uint64())
	default:
		coefficient = uint32(new(big.Int).Rsh(target, uint(8*(exponent-3))).Uint64())
	}

	// The coefficient's high bit is reserved as a sign flag in the classic
	// compact encoding; if it would be set, shift a byte into the exponent
	// instead of producing a negative-looking value.
	if coefficient&0x00800000 != 0 {
		coefficient >>= 8
		exponent++
	}
	return uint32(exponent)<<24 | coefficient
}

// MeetsTarget reports whether a header hash, interpreted as a 256-bit
// little-endian integer, is numerically <= the target decoded from bits
// (spec.md §3 Block invariant, §6).
func MeetsTarget(hash [32]byte, bits uint32) bool {
	hashInt := leBytesToBigInt(hash[:])
	target := CompactToTarget(bits)
	return hashInt.Cmp(target) <= 0
}

// leBytesToBigInt interprets b as a little-endian unsigned integer.
func leBytesToBigInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}
