package core

// address.go – account identifiers.
//
// An Address is the 33-byte compressed secp256r1 public key of a user, or a
// deterministic system/contract address derived from a symbolic name. The
// two subspaces are distinguished by construction, not by a tag byte inside
// the address itself, except that DeriveSystemAddress always sets byte 0 to
// systemAddressPrefix so the two spaces cannot collide.

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Address is a 33-byte compressed elliptic-curve public key, or a
// domain-separated hash for system/contract accounts.
type Address [33]byte

// systemAddressPrefix marks an address as chain/contract-derived rather than
// a real secp256r1 public key. Compressed secp256r1 keys always start with
// 0x02 or 0x03, so 0x00 can never collide with a genuine user address.
const systemAddressPrefix = 0x00

// AddressZero is the sentinel "no address" value, used for burn sinks and
// escrow placeholders.
var AddressZero = Address{}

// DeriveSystemAddress derives the deterministic address of a native/system
// contract from its symbolic name (e.g. "token", "stake", "gas").
func DeriveSystemAddress(name string) Address {
	h := sha256.Sum256([]byte(name))
	var out Address
	out[0] = systemAddressPrefix
	copy(out[1:], h[:])
	return out
}

// IsSystem reports whether addr was produced by DeriveSystemAddress.
func (a Address) IsSystem() bool { return a[0] == systemAddressPrefix }

// IsZero reports whether addr is the all-zero sentinel.
func (a Address) IsZero() bool { return a == AddressZero }

// Bytes returns the raw 33 bytes backing the address.
func (a Address) Bytes() []byte { return a[:] }

// String renders the address as lowercase hex.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// ParseAddress decodes a hex-encoded 33-byte address.
func ParseAddress(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, err
	}
	if len(b) != len(Address{}) {
		return Address{}, errors.New("address: wrong length")
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// AddressFromBytes copies b into an Address, failing if the length is wrong.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != len(Address{}) {
		return Address{}, errors.New("address: wrong length")
	}
	var a Address
	copy(a[:], b)
	return a, nil
}
