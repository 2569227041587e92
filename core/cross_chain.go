package core

// cross_chain.go – the two-phase cross-chain transfer protocol (§4.5).
//
// Grounded on the prior cross_chain.go (a Bridge/relayer/SPV-proof
// model for bringing external Neo/Ethereum state onto this chain) but
// replaced entirely: §4.5's protocol is native chain-to-chain, inside one
// nexus's own chain tree, with no external relayer or SPV proof — the
// destination chain instead walks the nexus's own chain-parent pointers
// and reads the source chain's own committed block/event state directly.

import (
	"fmt"
	"math/big"
)

// ChainLookup is the nexus-level view the cross-chain contract needs: is
// target a direct ancestor/descendant of source in the chain tree, and has
// the block with a given hash been committed (finalized) on a chain. Implemented
// by Nexus; kept as an interface so this file does not import nexus.go.
type ChainLookup interface {
	RelatedChains(a, b string) bool
	BlockFinalized(chain string, h Hash) bool
}

// EscrowReceipt records one locked cross-chain transfer, keyed by
// (source block hash, destination address, target chain) per §4.5.
type EscrowReceipt struct {
	SourceChain string
	SourceBlock Hash
	TargetChain string
	Dest        Address
	Symbol      string
	Amount      *big.Int // nil for NFT transfers
	NFTID       string    // empty for fungible transfers
	Record      NFTRecord // zero value for fungible transfers
	Consumed    bool
}

// CrossChainContract implements the Send/Settle protocol. Its escrow book
// is held in its own nexus-global storage, not any single chain's
// ChangeSet, because settlement on chain T must read a receipt written by
// chain S and per-chain storage is otherwise disjoint (§5).
type CrossChainContract struct {
	BaseContract
	escrow *Map
	lookup ChainLookup
}

// NewCrossChainContract returns the contract, with its escrow book backed
// by escrowStorage (a dedicated nexus-level ChangeSet) and chain
// relationships resolved through lookup.
func NewCrossChainContract(escrowStorage *ChangeSet, lookup ChainLookup) *CrossChainContract {
	return &CrossChainContract{
		BaseContract: NewBaseContract("crosschain", map[string]uint64{
			"Settle":    25,
			"SettleNFT": 25,
		}),
		escrow: NewMap(escrowStorage, "escrow"),
		lookup: lookup,
	}
}

func (c *CrossChainContract) Invoke(rt *Runtime, method string, args []VMObject) (VMObject, error) {
	switch method {
	case "Settle":
		return c.settle(rt, args)
	case "SettleNFT":
		return c.settleNFT(rt, args)
	default:
		return VMObject{}, fmt.Errorf("crosschain: unknown method %q", method)
	}
}

func escrowKey(sourceChain string, sourceBlock Hash, dest Address, targetChain string) []byte {
	w := NewWriter()
	w.WriteString(sourceChain)
	w.WriteHash(sourceBlock)
	w.WriteAddress(dest)
	w.WriteString(targetChain)
	return w.Bytes()
}

func encodeReceipt(r EscrowReceipt) []byte {
	w := NewWriter()
	w.WriteString(r.SourceChain)
	w.WriteHash(r.SourceBlock)
	w.WriteString(r.TargetChain)
	w.WriteAddress(r.Dest)
	w.WriteString(r.Symbol)
	if r.Amount != nil {
		w.WriteBool(true)
		w.WriteBigInt(r.Amount)
	} else {
		w.WriteBool(false)
	}
	w.WriteString(r.NFTID)
	w.WriteBytes(encodeNFTRecord(r.Record))
	w.WriteBool(r.Consumed)
	return w.Bytes()
}

func decodeReceipt(raw []byte) (EscrowReceipt, error) {
	r := NewReader(raw)
	var out EscrowReceipt
	var err error
	if out.SourceChain, err = r.ReadString(); err != nil {
		return out, err
	}
	if out.SourceBlock, err = r.ReadHash(); err != nil {
		return out, err
	}
	if out.TargetChain, err = r.ReadString(); err != nil {
		return out, err
	}
	if out.Dest, err = r.ReadAddress(); err != nil {
		return out, err
	}
	if out.Symbol, err = r.ReadString(); err != nil {
		return out, err
	}
	hasAmount, err := r.ReadBool()
	if err != nil {
		return out, err
	}
	if hasAmount {
		if out.Amount, err = r.ReadBigInt(); err != nil {
			return out, err
		}
	}
	if out.NFTID, err = r.ReadString(); err != nil {
		return out, err
	}
	recRaw, err := r.ReadBytes()
	if err != nil {
		return out, err
	}
	if out.Record, err = decodeNFTRecord(recRaw); err != nil {
		return out, err
	}
	if out.Consumed, err = r.ReadBool(); err != nil {
		return out, err
	}
	return out, nil
}

// lockFungible is called by TokenContract.sideChainSend (already on chain
// S, having already debited the sender) to record the escrow. Returns the
// hex-encoded SHA-256 of the escrow key as a receipt id; Settle rebuilds
// the key itself from its own arguments.
func (c *CrossChainContract) lockFungible(rt *Runtime, symbol string, amount *big.Int, targetChain string, dest Address) string {
	key := escrowKey(rt.ChainName, rt.Block.Hash(), dest, targetChain)
	receipt := EscrowReceipt{
		SourceChain: rt.ChainName,
		SourceBlock: rt.Block.Hash(),
		TargetChain: targetChain,
		Dest:        dest,
		Symbol:      symbol,
		Amount:      new(big.Int).Set(amount),
	}
	c.escrow.Set(key, encodeReceipt(receipt))
	return HashBytes(key).String()
}

// lockNFT is the NFT analogue of lockFungible, carrying the full ROM/RAM
// record so Settle can recreate it atomically on the target chain.
func (c *CrossChainContract) lockNFT(rt *Runtime, symbol, tokenID string, rec NFTRecord, targetChain string, dest Address) string {
	key := escrowKey(rt.ChainName, rt.Block.Hash(), dest, targetChain)
	receipt := EscrowReceipt{
		SourceChain: rt.ChainName,
		SourceBlock: rt.Block.Hash(),
		TargetChain: targetChain,
		Dest:        dest,
		Symbol:      symbol,
		NFTID:       tokenID,
		Record:      rec,
	}
	c.escrow.Set(key, encodeReceipt(receipt))
	return HashBytes(key).String()
}

// settle(caller, sourceChain, sourceBlockHash), where caller is the
// destination address, is phase two (§4.5):
// verify the source block is finalized and the chains are related, look
// up the escrow by its natural key, check the destination and credit it.
func (c *CrossChainContract) settle(rt *Runtime, args []VMObject) (VMObject, error) {
	receipt, err := c.resolveAndConsume(rt, args)
	if err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(receipt.Amount != nil, "escrow is an NFT transfer, use SettleNFT"); err != nil {
		return VMObject{}, err
	}
	book := NewBalanceBook(rt.ChangeSet(), receipt.Symbol)
	book.Mint(receipt.Dest, receipt.Amount)
	rt.Notify(EventTokenReceive, receipt.Dest, VMInt(receipt.Amount))
	return VMBool(true), nil
}

// settleNFT is Settle's NFT counterpart: it atomically recreates the
// escrowed ROM+RAM record under the new owner on this chain.
func (c *CrossChainContract) settleNFT(rt *Runtime, args []VMObject) (VMObject, error) {
	receipt, err := c.resolveAndConsume(rt, args)
	if err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(receipt.NFTID != "", "escrow is a fungible transfer, use Settle"); err != nil {
		return VMObject{}, err
	}
	nftMap := NewMap(rt.ChangeSet(), "nft:"+receipt.Symbol)
	rec := receipt.Record
	rec.Owner = receipt.Dest
	nftMap.Set([]byte(receipt.NFTID), encodeNFTRecord(rec))
	rt.Notify(EventTokenReceive, receipt.Dest, VMString(receipt.NFTID))
	return VMBool(true), nil
}

// resolveAndConsume implements the checks common to Settle/SettleNFT:
// caller witness, ancestor relation, finalization, destination match and
// the double-settle guard via the receipt's Consumed flag.
func (c *CrossChainContract) resolveAndConsume(rt *Runtime, args []VMObject) (EscrowReceipt, error) {
	if len(args) != 3 {
		return EscrowReceipt{}, fmt.Errorf("crosschain: Settle wants 3 args")
	}
	caller, sourceChain, sourceBlockHash := args[0], args[1], args[2]
	if caller.Type != VTAddress || sourceChain.Type != VTString || sourceBlockHash.Type != VTBytes {
		return EscrowReceipt{}, fmt.Errorf("crosschain: Settle type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, caller.Addr), "caller did not witness Settle"); err != nil {
		return EscrowReceipt{}, err
	}
	var blockHash Hash
	if len(sourceBlockHash.Bytes) != len(blockHash) {
		return EscrowReceipt{}, fmt.Errorf("crosschain: malformed source block hash")
	}
	copy(blockHash[:], sourceBlockHash.Bytes)

	if err := rt.Expect(c.lookup.RelatedChains(sourceChain.Str, rt.ChainName), "target chain is not related to source chain"); err != nil {
		return EscrowReceipt{}, err
	}
	if err := rt.Expect(c.lookup.BlockFinalized(sourceChain.Str, blockHash), "source block is not finalized"); err != nil {
		return EscrowReceipt{}, err
	}

	key := escrowKey(sourceChain.Str, blockHash, caller.Addr, rt.ChainName)
	raw, found := c.escrow.Get(key)
	if !found {
		return EscrowReceipt{}, fmt.Errorf("crosschain: escrow not found")
	}
	receipt, err := decodeReceipt(raw)
	if err != nil {
		return EscrowReceipt{}, fmt.Errorf("crosschain: %w", err)
	}
	if err := rt.Expect(!receipt.Consumed, "escrow already settled"); err != nil {
		return EscrowReceipt{}, err
	}
	if err := rt.Expect(receipt.Dest == caller.Addr, "destination does not match escrow receipt"); err != nil {
		return EscrowReceipt{}, err
	}
	receipt.Consumed = true
	c.escrow.Set(key, encodeReceipt(receipt))
	return receipt, nil
}
