package core

// tokens.go – token metadata and the native token contract (§3 "Token",
// §4.4 "Token contract").
//
// Grounded on the prior tokens.go (a token registry keyed by symbol,
// a factory that stamps out new asset records, and Mint/Burn/Transfer
// gated by per-standard flags) but rebased onto the BalanceBook/ChangeSet
// storage layer instead of an in-memory map, and narrowed from a
// 50-entry canonical SYN-standard catalogue to a single
// flag-parameterized Token shape (§3).

import (
	"fmt"
	"math/big"
	"strconv"
)

// TokenFlags gates which operations a token supports (§3).
type TokenFlags struct {
	Fungible     bool
	Burnable     bool
	Tradable     bool
	Divisible    bool
	Transferable bool
}

// Token is the immutable-except-supply metadata record for one symbol,
// held once in the Nexus's token registry and shared by every chain.
type Token struct {
	Symbol        string
	Name          string
	Decimals      uint8
	MaxSupply     *big.Int
	CurrentSupply *big.Int
	Flags         TokenFlags
}

// TokenRegistry is the nexus-level, read-after-creation token metadata
// store the token contract consults for flags and supply bookkeeping.
// Implemented by Nexus; kept as an interface so this file does not import
// nexus.go.
type TokenRegistry interface {
	GetToken(symbol string) (*Token, bool)
	CreateToken(t *Token) error
	AdjustSupply(symbol string, delta *big.Int) error
}

// NFTRecord is one non-fungible token id's immutable ROM and mutable RAM
// payload, plus its current owner (§3).
type NFTRecord struct {
	ROM   []byte
	RAM   []byte
	Owner Address
}

func encodeNFTRecord(rec NFTRecord) []byte {
	w := NewWriter()
	w.WriteBytes(rec.ROM)
	w.WriteBytes(rec.RAM)
	w.WriteAddress(rec.Owner)
	return w.Bytes()
}

func decodeNFTRecord(raw []byte) (NFTRecord, error) {
	r := NewReader(raw)
	rom, err := r.ReadBytes()
	if err != nil {
		return NFTRecord{}, err
	}
	ram, err := r.ReadBytes()
	if err != nil {
		return NFTRecord{}, err
	}
	owner, err := r.ReadAddress()
	if err != nil {
		return NFTRecord{}, err
	}
	return NFTRecord{ROM: rom, RAM: ram, Owner: owner}, nil
}

// TokenContract implements Create/Mint/Burn/Transfer/SideChainSend (§4.4),
// covering both fungible balances and NFT ownership records.
type TokenContract struct {
	BaseContract
	registry TokenRegistry
	owner    Address // nexus owner, authorized to Create/Mint
	cross    *CrossChainContract
}

// NewTokenContract binds the contract to the nexus-level registry and
// owner address.
func NewTokenContract(registry TokenRegistry, owner Address) *TokenContract {
	return &TokenContract{
		BaseContract: NewBaseContract("token", map[string]uint64{
			"Create":           50,
			"Mint":             20,
			"Burn":             20,
			"Transfer":         10,
			"SideChainSend":    30,
			"SideChainSendNFT": 30,
		}),
		registry: registry,
		owner:    owner,
	}
}

// BindCrossChain wires the cross-chain contract used by SideChainSend. The
// two contracts are mutually referential (cross-chain settlement mints
// into token balances; SideChainSend locks through the escrow book) so
// construction order requires this late bind rather than a constructor
// cycle.
func (c *TokenContract) BindCrossChain(cc *CrossChainContract) { c.cross = cc }

func (c *TokenContract) Invoke(rt *Runtime, method string, args []VMObject) (VMObject, error) {
	switch method {
	case "Create":
		return c.create(rt, args)
	case "Mint":
		return c.mint(rt, args)
	case "Burn":
		return c.burn(rt, args)
	case "Transfer":
		return c.transfer(rt, args)
	case "SideChainSend":
		return c.sideChainSend(rt, args)
	case "SideChainSendNFT":
		return c.sideChainSendNFT(rt, args)
	default:
		return VMObject{}, fmt.Errorf("token: unknown method %q", method)
	}
}

// Balances returns the fungible BalanceBook for symbol on the chain whose
// storage cs belongs to.
func (c *TokenContract) Balances(cs *ChangeSet, symbol string) *BalanceBook {
	return NewBalanceBook(cs, symbol)
}

// nftMap returns the token-id -> NFTRecord map for symbol.
func (c *TokenContract) nftMap(cs *ChangeSet, symbol string) *Map {
	return NewMap(cs, "nft:"+symbol)
}

// nextTokenID returns the next unused decimal token id for symbol and
// advances the counter, the same sequential-id scheme as syn721's nextID.
func (c *TokenContract) nextTokenID(cs *ChangeSet, symbol string) uint64 {
	ctr := NewMap(cs, "nftctr:"+symbol)
	key := []byte("next")
	var id uint64
	if raw, ok := ctr.Get(key); ok {
		r := NewReader(raw)
		id, _ = r.ReadUint64()
	}
	w := NewWriter()
	w.WriteUint64(id + 1)
	ctr.Set(key, w.Bytes())
	return id
}

func (c *TokenContract) lookupToken(symbol string) (*Token, error) {
	t, ok := c.registry.GetToken(symbol)
	if !ok {
		return nil, fmt.Errorf("token: unknown symbol %q", symbol)
	}
	return t, nil
}

// create(caller, symbol, name, decimals, maxSupply, fungible, burnable,
// tradable, divisible, transferable) requires the caller to be the nexus
// owner (genesis bootstraps SOUL/KCAL directly through the registry, not
// through Invoke, so it is exempt from this check).
func (c *TokenContract) create(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 10 {
		return VMObject{}, fmt.Errorf("token: Create wants 10 args")
	}
	caller, symbol, name, decimals, maxSupply := args[0], args[1], args[2], args[3], args[4]
	fungible, burnable, tradable, divisible, transferable := args[5], args[6], args[7], args[8], args[9]
	if caller.Type != VTAddress || symbol.Type != VTString || name.Type != VTString ||
		decimals.Type != VTInt || maxSupply.Type != VTInt {
		return VMObject{}, fmt.Errorf("token: Create type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, caller.Addr), "caller did not witness Create"); err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(caller.Addr == c.owner, "only the nexus owner may create tokens"); err != nil {
		return VMObject{}, err
	}
	t := &Token{
		Symbol:        symbol.Str,
		Name:          name.Str,
		Decimals:      uint8(decimals.Int.Uint64()),
		MaxSupply:     new(big.Int).Set(maxSupply.Int),
		CurrentSupply: big.NewInt(0),
		Flags: TokenFlags{
			Fungible:     fungible.Truthy(),
			Burnable:     burnable.Truthy(),
			Tradable:     tradable.Truthy(),
			Divisible:    divisible.Truthy(),
			Transferable: transferable.Truthy(),
		},
	}
	if err := c.registry.CreateToken(t); err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	rt.Notify(EventTokenCreate, caller.Addr, VMString(symbol.Str))
	return VMBool(true), nil
}

// mint(caller, symbol, to, amount) mints fungible supply; for a
// non-fungible token (Flags.Fungible == false) it instead takes
// (caller, symbol, to, rom, ram) and mints one new id (§3 scenario 5).
// Restricted to the nexus owner either way, and respects MaxSupply.
func (c *TokenContract) mint(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) < 4 {
		return VMObject{}, fmt.Errorf("token: Mint wants at least 4 args")
	}
	caller, symbol := args[0], args[1]
	if caller.Type != VTAddress || symbol.Type != VTString {
		return VMObject{}, fmt.Errorf("token: Mint type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, caller.Addr), "caller did not witness Mint"); err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(caller.Addr == c.owner, "only the nexus owner may mint"); err != nil {
		return VMObject{}, err
	}
	t, err := c.lookupToken(symbol.Str)
	if err != nil {
		return VMObject{}, err
	}
	if !t.Flags.Fungible {
		return c.mintNFT(rt, t, args)
	}
	if len(args) != 4 || args[2].Type != VTAddress || args[3].Type != VTInt {
		return VMObject{}, fmt.Errorf("token: Mint wants 4 args for a fungible token")
	}
	to, amount := args[2], args[3]
	newSupply := new(big.Int).Add(t.CurrentSupply, amount.Int)
	if err := rt.Expect(newSupply.Cmp(t.MaxSupply) <= 0, "mint would exceed max supply"); err != nil {
		return VMObject{}, err
	}
	if err := c.registry.AdjustSupply(symbol.Str, amount.Int); err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	c.Balances(rt.ChangeSet(), symbol.Str).Mint(to.Addr, amount.Int)
	rt.Notify(EventTokenMint, to.Addr, VMInt(amount.Int))
	return VMBool(true), nil
}

// mintNFT mints a fresh sequential id under to, records its ROM/RAM, and
// bumps the token's current supply by one. Returns the new id as a string.
func (c *TokenContract) mintNFT(rt *Runtime, t *Token, args []VMObject) (VMObject, error) {
	if len(args) != 5 {
		return VMObject{}, fmt.Errorf("token: Mint wants 5 args for a non-fungible token")
	}
	to, rom, ram := args[2], args[3], args[4]
	if to.Type != VTAddress || rom.Type != VTBytes || ram.Type != VTBytes {
		return VMObject{}, fmt.Errorf("token: Mint type mismatch")
	}
	newSupply := new(big.Int).Add(t.CurrentSupply, big.NewInt(1))
	if err := rt.Expect(newSupply.Cmp(t.MaxSupply) <= 0, "mint would exceed max supply"); err != nil {
		return VMObject{}, err
	}
	id := c.nextTokenID(rt.ChangeSet(), t.Symbol)
	idStr := strconv.FormatUint(id, 10)
	rec := NFTRecord{ROM: rom.Bytes, RAM: ram.Bytes, Owner: to.Addr}
	c.nftMap(rt.ChangeSet(), t.Symbol).Set([]byte(idStr), encodeNFTRecord(rec))
	if err := c.registry.AdjustSupply(t.Symbol, big.NewInt(1)); err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	rt.Notify(EventTokenMint, to.Addr, VMString(idStr))
	return VMString(idStr), nil
}

// burn(caller, symbol, amount) requires Burnable and debits the caller; for
// a non-fungible token amount is instead the token id string, and the
// record's owner is cleared rather than the entry being deleted (§3
// scenario 5: "token still recorded").
func (c *TokenContract) burn(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 3 {
		return VMObject{}, fmt.Errorf("token: Burn wants 3 args")
	}
	caller, symbol, idOrAmount := args[0], args[1], args[2]
	if caller.Type != VTAddress || symbol.Type != VTString {
		return VMObject{}, fmt.Errorf("token: Burn type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, caller.Addr), "caller did not witness Burn"); err != nil {
		return VMObject{}, err
	}
	t, err := c.lookupToken(symbol.Str)
	if err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(t.Flags.Burnable, "token is not burnable"); err != nil {
		return VMObject{}, err
	}
	if !t.Flags.Fungible {
		return c.burnNFT(rt, t, caller.Addr, idOrAmount)
	}
	if idOrAmount.Type != VTInt {
		return VMObject{}, fmt.Errorf("token: Burn type mismatch")
	}
	if err := c.Balances(rt.ChangeSet(), symbol.Str).Burn(caller.Addr, idOrAmount.Int); err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	if err := c.registry.AdjustSupply(symbol.Str, new(big.Int).Neg(idOrAmount.Int)); err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	rt.Notify(EventTokenBurn, caller.Addr, VMInt(idOrAmount.Int))
	return VMBool(true), nil
}

func (c *TokenContract) burnNFT(rt *Runtime, t *Token, caller Address, idArg VMObject) (VMObject, error) {
	if idArg.Type != VTString {
		return VMObject{}, fmt.Errorf("token: Burn wants a token id string for a non-fungible token")
	}
	m := c.nftMap(rt.ChangeSet(), t.Symbol)
	raw, ok := m.Get([]byte(idArg.Str))
	if !ok {
		return VMObject{}, fmt.Errorf("token: unknown token id %q", idArg.Str)
	}
	rec, err := decodeNFTRecord(raw)
	if err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	if err := rt.Expect(rec.Owner == caller, "caller does not own this token id"); err != nil {
		return VMObject{}, err
	}
	rec.Owner = Address{}
	m.Set([]byte(idArg.Str), encodeNFTRecord(rec))
	if err := c.registry.AdjustSupply(t.Symbol, big.NewInt(-1)); err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	rt.Notify(EventTokenBurn, caller, VMString(idArg.Str))
	return VMBool(true), nil
}

// transfer(from, symbol, to, amount) requires Transferable and
// witness(from); for a non-fungible token amount is instead the token id
// string and ownership of that id's NFTRecord moves from from to to.
func (c *TokenContract) transfer(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 4 {
		return VMObject{}, fmt.Errorf("token: Transfer wants 4 args")
	}
	from, symbol, to, idOrAmount := args[0], args[1], args[2], args[3]
	if from.Type != VTAddress || symbol.Type != VTString || to.Type != VTAddress {
		return VMObject{}, fmt.Errorf("token: Transfer type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, from.Addr), "sender did not witness Transfer"); err != nil {
		return VMObject{}, err
	}
	t, err := c.lookupToken(symbol.Str)
	if err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(t.Flags.Transferable, "token is not transferable"); err != nil {
		return VMObject{}, err
	}
	if !t.Flags.Fungible {
		return c.transferNFT(rt, t, from.Addr, to.Addr, idOrAmount)
	}
	if idOrAmount.Type != VTInt {
		return VMObject{}, fmt.Errorf("token: Transfer type mismatch")
	}
	if err := c.Balances(rt.ChangeSet(), symbol.Str).Transfer(from.Addr, to.Addr, idOrAmount.Int); err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	rt.Notify(EventTokenSend, from.Addr, VMInt(idOrAmount.Int))
	rt.Notify(EventTokenReceive, to.Addr, VMInt(idOrAmount.Int))
	return VMBool(true), nil
}

func (c *TokenContract) transferNFT(rt *Runtime, t *Token, from, to Address, idArg VMObject) (VMObject, error) {
	if idArg.Type != VTString {
		return VMObject{}, fmt.Errorf("token: Transfer wants a token id string for a non-fungible token")
	}
	m := c.nftMap(rt.ChangeSet(), t.Symbol)
	raw, ok := m.Get([]byte(idArg.Str))
	if !ok {
		return VMObject{}, fmt.Errorf("token: unknown token id %q", idArg.Str)
	}
	rec, err := decodeNFTRecord(raw)
	if err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	if err := rt.Expect(rec.Owner == from, "sender does not own this token id"); err != nil {
		return VMObject{}, err
	}
	rec.Owner = to
	m.Set([]byte(idArg.Str), encodeNFTRecord(rec))
	rt.Notify(EventTokenSend, from, VMString(idArg.Str))
	rt.Notify(EventTokenReceive, to, VMString(idArg.Str))
	return VMBool(true), nil
}

// sideChainSend(from, symbol, amount, targetChain, dest) is phase one of
// the cross-chain protocol (§4.5): debit from's balance on this chain and
// lock the funds in a nexus-level escrow, keyed by this block's hash.
func (c *TokenContract) sideChainSend(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 5 {
		return VMObject{}, fmt.Errorf("token: SideChainSend wants 5 args")
	}
	from, symbol, amount, targetChain, dest := args[0], args[1], args[2], args[3], args[4]
	if from.Type != VTAddress || symbol.Type != VTString || amount.Type != VTInt ||
		targetChain.Type != VTString || dest.Type != VTAddress {
		return VMObject{}, fmt.Errorf("token: SideChainSend type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, from.Addr), "sender did not witness SideChainSend"); err != nil {
		return VMObject{}, err
	}
	if c.cross == nil {
		return VMObject{}, fmt.Errorf("token: cross-chain contract not bound")
	}
	if err := c.Balances(rt.ChangeSet(), symbol.Str).Burn(from.Addr, amount.Int); err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	key := c.cross.lockFungible(rt, symbol.Str, amount.Int, targetChain.Str, dest.Addr)
	rt.Notify(EventTokenEscrow, from.Addr, VMString(key))
	return VMString(key), nil
}

// sideChainSendNFT(from, symbol, tokenID, targetChain, dest) is the NFT
// analogue of sideChainSend: the id's record is removed from this chain's
// nftMap and locked whole (ROM+RAM+owner) in the nexus-level escrow, so
// SettleNFT on the target chain can atomically recreate it (§4.5:
// "the nft record (ROM+RAM) is atomically moved").
func (c *TokenContract) sideChainSendNFT(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 5 {
		return VMObject{}, fmt.Errorf("token: SideChainSendNFT wants 5 args")
	}
	from, symbol, tokenID, targetChain, dest := args[0], args[1], args[2], args[3], args[4]
	if from.Type != VTAddress || symbol.Type != VTString || tokenID.Type != VTString ||
		targetChain.Type != VTString || dest.Type != VTAddress {
		return VMObject{}, fmt.Errorf("token: SideChainSendNFT type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, from.Addr), "sender did not witness SideChainSendNFT"); err != nil {
		return VMObject{}, err
	}
	if c.cross == nil {
		return VMObject{}, fmt.Errorf("token: cross-chain contract not bound")
	}
	m := c.nftMap(rt.ChangeSet(), symbol.Str)
	raw, ok := m.Get([]byte(tokenID.Str))
	if !ok {
		return VMObject{}, fmt.Errorf("token: unknown token id %q", tokenID.Str)
	}
	rec, err := decodeNFTRecord(raw)
	if err != nil {
		return VMObject{}, fmt.Errorf("token: %w", err)
	}
	if err := rt.Expect(rec.Owner == from.Addr, "sender does not own this token id"); err != nil {
		return VMObject{}, err
	}
	m.Delete([]byte(tokenID.Str))
	key := c.cross.lockNFT(rt, symbol.Str, tokenID.Str, rec, targetChain.Str, dest.Addr)
	rt.Notify(EventTokenEscrow, from.Addr, VMString(key))
	return VMString(key), nil
}
