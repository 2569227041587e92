package core

// transactions.go – signed transactions (§3, §6).
//
// Grounded on the prior transactions.go field-by-field hash.Write and
// Sign/VerifySig pattern, but rebased onto secp256r1 (NIST P256) via
// stdlib crypto/ecdsa + crypto/elliptic instead of go-ethereum's
// secp256k1 helpers: every available elliptic-curve library implements
// secp256k1, the wrong curve family for this chain's addresses.

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
)

// TxSignature pairs a witnessing address with its ASN.1 DER-encoded
// ECDSA signature over the transaction's hash.
type TxSignature struct {
	Signer Address
	Sig    []byte
}

// Transaction is a signed script plus gas parameters (§3, §4.2).
type Transaction struct {
	Payer       Address
	TargetChain string
	Script      []byte
	GasPrice    uint64
	GasLimit    uint64
	Expiration  Timestamp
	Nonce       uint64
	Signatures  []TxSignature
}

// Hash returns the canonical hash covering every field except Signatures.
func (tx *Transaction) Hash() Hash {
	w := NewWriter()
	w.WriteAddress(tx.Payer)
	w.WriteString(tx.TargetChain)
	w.WriteBytes(tx.Script)
	w.WriteUint64(tx.GasPrice)
	w.WriteUint64(tx.GasLimit)
	w.WriteUint64(uint64(tx.Expiration))
	w.WriteUint64(tx.Nonce)
	return HashBytes(w.Bytes())
}

// Sign appends a signature over tx.Hash() by priv, recording signer as the
// compressed-public-key Address derived from priv.
func (tx *Transaction) Sign(priv *ecdsa.PrivateKey) error {
	if priv == nil {
		return errors.New("transaction: nil private key")
	}
	h := tx.Hash()
	sig, err := ecdsa.SignASN1(rand.Reader, priv, h[:])
	if err != nil {
		return err
	}
	signer, err := AddressFromPublicKey(&priv.PublicKey)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, TxSignature{Signer: signer, Sig: sig})
	return nil
}

// VerifySignatures reports whether every recorded signature verifies
// against tx.Hash() under its claimed signer's public key.
func (tx *Transaction) VerifySignatures() error {
	h := tx.Hash()
	for i, s := range tx.Signatures {
		pub, err := PublicKeyFromAddress(s.Signer)
		if err != nil {
			return err
		}
		if !ecdsa.VerifyASN1(pub, h[:], s.Sig) {
			return fmt.Errorf("transaction: invalid signature at index %d", i)
		}
	}
	return nil
}

// IsWitness reports whether addr produced a (structurally present)
// signature on this transaction. Cryptographic validity is checked once by
// VerifySignatures before execution begins, not per IsWitness call.
func (tx *Transaction) IsWitness(addr Address) bool {
	for _, s := range tx.Signatures {
		if s.Signer == addr {
			return true
		}
	}
	return false
}

// AddressFromPublicKey derives the 33-byte compressed-key Address for pub.
func AddressFromPublicKey(pub *ecdsa.PublicKey) (Address, error) {
	if pub == nil || pub.Curve != elliptic.P256() {
		return Address{}, errors.New("address: public key is not on secp256r1/P256")
	}
	compressed := elliptic.MarshalCompressed(elliptic.P256(), pub.X, pub.Y)
	return AddressFromBytes(compressed)
}

// PublicKeyFromAddress recovers the secp256r1 public key encoded in addr.
// System addresses (IsSystem) never decode to a valid point and return an
// error.
func PublicKeyFromAddress(addr Address) (*ecdsa.PublicKey, error) {
	if addr.IsSystem() {
		return nil, errors.New("address: system address has no public key")
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), addr[:])
	if x == nil {
		return nil, errors.New("address: invalid compressed secp256r1 point")
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}
