package core

// block.go – the immutable block container (§3).

// Block is an ordered, hashed batch of transactions chained to its parent
// by PreviousHash.
type Block struct {
	Height       uint64
	PreviousHash Hash
	Timestamp    Timestamp
	Transactions []*Transaction
}

// Hash returns the canonical SHA-256 digest of the block header and the
// ordered list of transaction hashes (not the full transaction bodies —
// those are already content-addressed by their own Hash).
func (b *Block) Hash() Hash {
	w := NewWriter()
	w.WriteUint64(b.Height)
	w.WriteHash(b.PreviousHash)
	w.WriteUint64(uint64(b.Timestamp))
	w.WriteVarLen(uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		w.WriteHash(tx.Hash())
	}
	return HashBytes(w.Bytes())
}
