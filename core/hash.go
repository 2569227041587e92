package core

// hash.go – 32-byte SHA-256 digests and timestamps.

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash is a 32-byte SHA-256 digest.
type Hash [32]byte

// HashBytes returns the SHA-256 digest of b.
func HashBytes(b []byte) Hash { return sha256.Sum256(b) }

// String renders the hash as lowercase hex.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the all-zero digest.
func (h Hash) IsZero() bool { return h == Hash{} }

// Timestamp is whole seconds since the Unix epoch.
type Timestamp uint64

// Sub returns t-u as a signed seconds difference.
func (t Timestamp) Sub(u Timestamp) int64 { return int64(t) - int64(u) }

// Before reports whether t is strictly earlier than u.
func (t Timestamp) Before(u Timestamp) bool { return t < u }
