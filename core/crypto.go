package core

// crypto.go – the Crypto collaborator hook (§6): Sha256, Ripemd160,
// Secp256r1 sign/verify/keygen.
//
// Grounded on the prior reliance on stdlib crypto/sha256 throughout
// (virtual_machine.go, contracts.go) and its golang.org/x/crypto import
// for Ripemd160; secp256r1 uses stdlib crypto/ecdsa + crypto/elliptic
// since the available elliptic-curve libraries all implement secp256k1,
// the wrong curve family for this chain's NIST P256 addresses.

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // spec-mandated hook, not a protocol choice
)

// Crypto bundles the primitive operations every chain needs, as an
// injectable collaborator rather than free functions, so tests can swap in
// deterministic randomness.
type Crypto struct{}

// NewCrypto returns the stdlib-backed Crypto hook.
func NewCrypto() *Crypto { return &Crypto{} }

// Sha256 returns the SHA-256 digest of data.
func (Crypto) Sha256(data []byte) Hash { return sha256.Sum256(data) }

// Ripemd160 returns the RIPEMD-160 digest of data.
func (Crypto) Ripemd160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}

// Secp256r1Verify checks sig (ASN.1 DER) over msg under the compressed
// public key pk.
func (Crypto) Secp256r1Verify(pk Address, msg, sig []byte) bool {
	pub, err := PublicKeyFromAddress(pk)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(msg)
	return ecdsa.VerifyASN1(pub, digest[:], sig)
}

// Secp256r1Sign signs msg with priv, returning an ASN.1 DER signature.
func (Crypto) Secp256r1Sign(priv *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	return ecdsa.SignASN1(rand.Reader, priv, digest[:])
}

// GenerateKeypair returns a fresh secp256r1 keypair and its Address.
func (Crypto) GenerateKeypair() (*ecdsa.PrivateKey, Address, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, Address{}, err
	}
	addr, err := AddressFromPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, Address{}, err
	}
	return priv, addr, nil
}

// WitnessOracle answers IsSignedBy(tx, address) for runtime witness checks.
type WitnessOracle struct{}

// IsSignedBy reports whether address appears as a verified witness of tx.
// Signature cryptographic validity is checked once by
// Transaction.VerifySignatures before a transaction is admitted to a
// block; IsSignedBy only checks structural presence thereafter.
func (WitnessOracle) IsSignedBy(tx *Transaction, address Address) bool {
	return tx.IsWitness(address)
}
