package core

// helpers.go – small shared numeric/byte helpers used across the core
// package, kept in one place rather than duplicated per call site, the
// same grab-bag-of-small-utilities role a helpers.go file plays in most
// of this codebase's sibling packages.

import "math/big"

// uint64ToBigInt is a convenience wrapper for building VMInt payloads out of
// plain counters (gas, supplies, block heights).
func uint64ToBigInt(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// bigIntToUint64 truncates v to a uint64, clamping negative values to 0.
// Used when reading VMObject ints back out of storage for gas/supply
// counters that are conceptually unsigned.
func bigIntToUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}
