package core

// ledger.go – Chain: block sequence, storage and contract registry owner
// (§4.3, §3 "Chain").
//
// Grounded on the prior Ledger (WAL-backed block append with replay,
// a logrus logger, block-index map) but narrowed to its simpler
// atomic-at-block-granularity model: no WAL/snapshotting (disk persistence
// is out of scope per §1), a MemStorage-backed ChangeSet fork/commit cycle
// replaces the prior replay-from-WAL recovery path.

import (
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"
)

// Chain owns one block sequence, its storage root and the contract
// registry every block's transactions execute against (§3, §4.3).
type Chain struct {
	Name     string
	Address  Address
	Parent   *Chain
	Children []*Chain

	blocks      []*Block
	blockEvents map[Hash][]Event

	storage   Storage
	contracts *ContractRegistry
	clock     Clock
	log       *log.Entry
}

// NewChain returns an empty chain named name, rooted under parent (nil for
// the nexus root chain), sharing contracts and clock with the rest of the
// nexus.
func NewChain(name string, parent *Chain, contracts *ContractRegistry, clock Clock) *Chain {
	c := &Chain{
		Name:        name,
		Address:     DeriveSystemAddress(name),
		Parent:      parent,
		blockEvents: make(map[Hash][]Event),
		storage:     NewMemStorage(),
		contracts:   contracts,
		clock:       clock,
		log:         log.WithField("chain", name),
	}
	if parent != nil {
		parent.Children = append(parent.Children, c)
	}
	return c
}

// Height returns the chain's current tip height, or -1 if empty.
func (c *Chain) Height() int64 {
	if len(c.blocks) == 0 {
		return -1
	}
	return int64(c.blocks[len(c.blocks)-1].Height)
}

// Tip returns the most recently appended block, or nil if the chain is
// empty.
func (c *Chain) Tip() *Block {
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1]
}

// BlockAt returns the block at height h, if present.
func (c *Chain) BlockAt(h uint64) (*Block, bool) {
	if h >= uint64(len(c.blocks)) {
		return nil, false
	}
	return c.blocks[h], true
}

// BlockFinalized reports whether hash h matches a committed block on this
// chain; every appended block is immediately final (§5: no reorg model).
func (c *Chain) BlockFinalized(h Hash) bool {
	for _, b := range c.blocks {
		if b.Hash() == h {
			return true
		}
	}
	return false
}

// AddBlock validates and applies b (§4.3): height must be tip+1, previous
// hash must chain correctly, every transaction must verify its signatures
// and run to Halt against a change-set forked from current storage; any
// transaction Fault rejects the whole block atomically. producer receives
// every transaction's settled gas fee.
func (c *Chain) AddBlock(b *Block, producer Address) error {
	wantHeight := uint64(c.Height() + 1)
	if b.Height != wantHeight {
		return fmt.Errorf("ledger: block height %d, want %d", b.Height, wantHeight)
	}
	if tip := c.Tip(); tip != nil {
		if b.PreviousHash != tip.Hash() {
			return fmt.Errorf("ledger: block previous-hash mismatch")
		}
	} else if !b.PreviousHash.IsZero() {
		return fmt.Errorf("ledger: genesis block must have zero previous-hash")
	}

	cs := c.storage.ForkChangeSet()
	events := make(map[Hash][]Event, len(b.Transactions))
	seen := make(map[Hash]bool, len(b.Transactions))
	blockClock := NewManualClock(b.Timestamp)

	for i, tx := range b.Transactions {
		if err := tx.VerifySignatures(); err != nil {
			return fmt.Errorf("ledger: tx %d: %w", i, err)
		}
		h := tx.Hash()
		if seen[h] {
			return fmt.Errorf("ledger: duplicate transaction %s in block", h)
		}
		seen[h] = true

		rt := NewRuntime(c.contracts, cs, b, tx, producer, blockClock, tx.GasLimit, false, c.Name)
		rt.Execute(c.Address)
		recordTxOutcome(c.Name, rt)
		if rt.State == Fault {
			recordBlockRejected(c.Name)
			return fmt.Errorf("ledger: tx %d faulted: %v", i, rt.FaultErr)
		}
		events[h] = rt.Events
	}

	c.storage.Commit(cs)
	c.blocks = append(c.blocks, b)
	for h, ev := range events {
		c.blockEvents[h] = ev
	}
	recordBlockCommitted(c.Name)
	c.log.WithField("height", b.Height).Info("block committed")
	return nil
}

// GetTokenBalance reads token's balance for address as currently committed
// on this chain (§4.3).
func (c *Chain) GetTokenBalance(token string, address Address) *big.Int {
	cs := c.storage.ForkChangeSet()
	return NewBalanceBook(cs, token).Get(address)
}

// GetTokenOwnerships returns a read handle to token's per-address NFT
// ownership map, namespaced the same way TokenContract.nftMap is (§4.3).
func (c *Chain) GetTokenOwnerships(token string) *Map {
	cs := c.storage.ForkChangeSet()
	return NewMap(cs, "nft:"+token)
}

// GetTransactionFee sums the gas-cost payments recorded against txHash's
// event list, derived from its GasPayment events (§4.3).
func (c *Chain) GetTransactionFee(txHash Hash) *big.Int {
	total := big.NewInt(0)
	for _, ev := range c.blockEvents[txHash] {
		if ev.Kind != EventGasPayment {
			continue
		}
		if v, ok := structField(ev.Payload.Fields, "amount"); ok && v.Int != nil {
			total.Add(total, v.Int)
		}
	}
	return total
}

// Events returns the recorded event list for txHash, or nil if unknown.
func (c *Chain) Events(txHash Hash) []Event { return c.blockEvents[txHash] }

// ProveTransaction returns a Merkle inclusion proof for the txIndex-th
// transaction of the block at height, together with the root of a Merkle
// tree built here over the block's transaction hashes (Block.Hash does not
// commit to this root), so light clients can verify a
// transaction was included without fetching the whole block (§3).
func (c *Chain) ProveTransaction(height uint64, txIndex uint32) ([][]byte, [32]byte, error) {
	b, ok := c.BlockAt(height)
	if !ok {
		return nil, [32]byte{}, fmt.Errorf("ledger: no block at height %d", height)
	}
	leaves := make([][]byte, len(b.Transactions))
	for i, tx := range b.Transactions {
		h := tx.Hash()
		leaves[i] = h[:]
	}
	return MerkleProof(leaves, txIndex)
}

// InvokeContract performs a read-only call against name's current
// committed state, through a throwaway change-set that is never committed
// (§4.3).
func (c *Chain) InvokeContract(name, method string, args []VMObject) (VMObject, error) {
	target, ok := c.contracts.ByName(name)
	if !ok {
		return VMObject{}, fmt.Errorf("ledger: unknown contract %q", name)
	}
	cs := c.storage.ForkChangeSet()
	rt := NewRuntime(c.contracts, cs, c.Tip(), nil, Address{}, c.clock, 0, true, c.Name)
	return target.Invoke(rt, method, args)
}
