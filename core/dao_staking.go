package core

// dao_staking.go – the native staking/fuel contract (§4.4, detailed
// exemplar).
//
// Grounded on the prior DAOStaking (a prefix-namespaced ledger store
// with a Stake/total-locked model and a package-level singleton) but
// rebuilt around its exact accrual and proxy-delegation rules: a
// per-chain Maps of stake and claim entries plus a List of proxies per
// staker instead of raw ledger keys,
// and the contract takes a *Runtime per call instead of holding a ledger
// reference, matching every other native contract in this package.

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

// EnergyRatioDivisor converts unclaimed stake into KCAL fuel: Claim mints
// unclaimed/EnergyRatioDivisor KCAL. It is also the minimum Stake amount
// (§4.4).
const EnergyRatioDivisor = 500

// unstakeCooldownSeconds is the minimum dwell time before Unstake succeeds.
const unstakeCooldownSeconds = 86400

// StakeEntry is one address's current stake (§4.4 "_stakes").
type StakeEntry struct {
	Amount    *big.Int
	Timestamp Timestamp
}

// ProxyEntry is one delegate in an address's ordered proxy list.
type ProxyEntry struct {
	Address    Address
	Percentage uint8
}

// StakingContract implements Stake/Unstake/Claim/AddProxy/RemoveProxy/
// ClearProxies/GetProxies/GetStake against the chain it is invoked on,
// derived from rt.ChainName (one contract instance serves every chain in
// the nexus; "the chain address" §4.4 refers to is that chain's own
// system address).
type StakingContract struct {
	BaseContract
	stakeSymbol string // "SOUL"
	fuelSymbol  string // "KCAL"
}

// NewStakingContract binds the contract to the nexus's staking and fuel
// token symbols.
func NewStakingContract(stakeSymbol, fuelSymbol string) *StakingContract {
	return &StakingContract{
		BaseContract: NewBaseContract("stake", map[string]uint64{
			"Stake":         15,
			"Unstake":       15,
			"Claim":         20,
			"AddProxy":      10,
			"RemoveProxy":   10,
			"ClearProxies":  5,
			"GetProxies":    0,
			"GetStake":      0,
		}),
		stakeSymbol: stakeSymbol,
		fuelSymbol:  fuelSymbol,
	}
}

func (c *StakingContract) Invoke(rt *Runtime, method string, args []VMObject) (VMObject, error) {
	switch method {
	case "Stake":
		return c.stake(rt, args)
	case "Unstake":
		return c.unstake(rt, args)
	case "Claim":
		return c.claim(rt, args)
	case "AddProxy":
		return c.addProxy(rt, args)
	case "RemoveProxy":
		return c.removeProxy(rt, args)
	case "ClearProxies":
		return c.clearProxies(rt, args)
	case "GetProxies":
		return c.getProxies(rt, args)
	case "GetStake":
		return c.getStake(rt, args)
	default:
		return VMObject{}, fmt.Errorf("stake: unknown method %q", method)
	}
}

func (c *StakingContract) stakes(cs *ChangeSet) *Map { return NewMap(cs, "stake:stakes") }
func (c *StakingContract) claims(cs *ChangeSet) *Map { return NewMap(cs, "stake:claims") }

// proxyList is addr's ordered proxy list, one List per address so
// AddProxy/RemoveProxy/ClearProxies operate on individual entries instead
// of rewriting one encoded blob per call.
func (c *StakingContract) proxyList(cs *ChangeSet, addr Address) *List {
	return NewList(cs, "stake:proxies:"+hex.EncodeToString(addr.Bytes()))
}

func encodeStakeEntry(e StakeEntry) []byte {
	w := NewWriter()
	w.WriteBigInt(e.Amount)
	w.WriteUint64(uint64(e.Timestamp))
	return w.Bytes()
}

func decodeStakeEntry(raw []byte) (StakeEntry, error) {
	r := NewReader(raw)
	amt, err := r.ReadBigInt()
	if err != nil {
		return StakeEntry{}, err
	}
	ts, err := r.ReadUint64()
	if err != nil {
		return StakeEntry{}, err
	}
	return StakeEntry{Amount: amt, Timestamp: Timestamp(ts)}, nil
}

func (c *StakingContract) getStakeEntry(cs *ChangeSet, addr Address) (StakeEntry, bool) {
	raw, ok := c.stakes(cs).Get(addr.Bytes())
	if !ok {
		return StakeEntry{}, false
	}
	e, err := decodeStakeEntry(raw)
	if err != nil {
		return StakeEntry{}, false
	}
	return e, true
}

func encodeProxyEntry(p ProxyEntry) []byte {
	w := NewWriter()
	w.WriteAddress(p.Address)
	w.WriteUint8(p.Percentage)
	return w.Bytes()
}

func decodeProxyEntry(raw []byte) (ProxyEntry, error) {
	r := NewReader(raw)
	addr, err := r.ReadAddress()
	if err != nil {
		return ProxyEntry{}, err
	}
	pct, err := r.ReadUint8()
	if err != nil {
		return ProxyEntry{}, err
	}
	return ProxyEntry{Address: addr, Percentage: pct}, nil
}

func (c *StakingContract) getProxyList(cs *ChangeSet, addr Address) []ProxyEntry {
	items := c.proxyList(cs, addr).All()
	out := make([]ProxyEntry, 0, len(items))
	for _, raw := range items {
		p, err := decodeProxyEntry(raw)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// stake(from, amount): witness(from); amount >= EnergyRatioDivisor; debit
// from's SOUL balance, credit the chain address; replace _stakes[from].
func (c *StakingContract) stake(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 2 {
		return VMObject{}, fmt.Errorf("stake: Stake wants 2 args")
	}
	from, amount := args[0], args[1]
	if from.Type != VTAddress || amount.Type != VTInt {
		return VMObject{}, fmt.Errorf("stake: Stake type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, from.Addr), "staker did not witness Stake"); err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(amount.Int.Cmp(big.NewInt(EnergyRatioDivisor)) >= 0, "stake amount below minimum"); err != nil {
		return VMObject{}, err
	}
	chainAddr := DeriveSystemAddress(rt.ChainName)
	book := NewBalanceBook(rt.ChangeSet(), c.stakeSymbol)
	if err := book.Transfer(from.Addr, chainAddr, amount.Int); err != nil {
		return VMObject{}, fmt.Errorf("stake: %w", err)
	}
	c.stakes(rt.ChangeSet()).Set(from.Addr.Bytes(), encodeStakeEntry(StakeEntry{Amount: new(big.Int).Set(amount.Int), Timestamp: rt.Now()}))
	rt.Notify(EventTokenStake, from.Addr, VMInt(amount.Int))
	return VMBool(true), nil
}

// unstake(from): witness(from); entry must exist and be at least 24h old;
// credit from, debit the chain address; delete the entry.
func (c *StakingContract) unstake(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 1 {
		return VMObject{}, fmt.Errorf("stake: Unstake wants 1 arg")
	}
	from := args[0]
	if from.Type != VTAddress {
		return VMObject{}, fmt.Errorf("stake: Unstake type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, from.Addr), "staker did not witness Unstake"); err != nil {
		return VMObject{}, err
	}
	entry, ok := c.getStakeEntry(rt.ChangeSet(), from.Addr)
	if err := rt.Expect(ok, "no active stake"); err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(rt.Now().Sub(entry.Timestamp) >= unstakeCooldownSeconds, "stake is still within its cooldown period"); err != nil {
		return VMObject{}, err
	}
	chainAddr := DeriveSystemAddress(rt.ChainName)
	book := NewBalanceBook(rt.ChangeSet(), c.stakeSymbol)
	if err := book.Transfer(chainAddr, from.Addr, entry.Amount); err != nil {
		return VMObject{}, fmt.Errorf("stake: %w", err)
	}
	c.stakes(rt.ChangeSet()).Delete(from.Addr.Bytes())
	rt.Notify(EventTokenUnstake, from.Addr, VMInt(entry.Amount))
	return VMBool(true), nil
}

// claim(from, stakeAddress): the unclaimed amount is the staked amount,
// less the last claim's amount if that claim is under a day old; the fuel
// (unclaimed/EnergyRatioDivisor) is split across stakeAddress's proxies by
// percentage, with the residue going to stakeAddress itself.
func (c *StakingContract) claim(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 2 {
		return VMObject{}, fmt.Errorf("stake: Claim wants 2 args")
	}
	from, stakeAddr := args[0], args[1]
	if from.Type != VTAddress || stakeAddr.Type != VTAddress {
		return VMObject{}, fmt.Errorf("stake: Claim type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, from.Addr), "claimant did not witness Claim"); err != nil {
		return VMObject{}, err
	}

	stakeEntry, ok := c.getStakeEntry(rt.ChangeSet(), stakeAddr.Addr)
	if err := rt.Expect(ok, "no active stake for stakeAddress"); err != nil {
		return VMObject{}, err
	}

	var already *big.Int
	if lastRaw, ok := c.claims(rt.ChangeSet()).Get(stakeAddr.Addr.Bytes()); ok {
		last, err := decodeStakeEntry(lastRaw)
		if err == nil && rt.Now().Sub(last.Timestamp)/unstakeCooldownSeconds < 1 {
			already = last.Amount
		}
	}
	unclaimed := new(big.Int).Set(stakeEntry.Amount)
	if already != nil {
		unclaimed.Sub(unclaimed, already)
	}
	if err := rt.Expect(unclaimed.Sign() > 0, "nothing unclaimed"); err != nil {
		return VMObject{}, err
	}

	if from.Addr != stakeAddr.Addr {
		list := c.getProxyList(rt.ChangeSet(), stakeAddr.Addr)
		isProxy := false
		for _, p := range list {
			if p.Address == from.Addr {
				isProxy = true
				break
			}
		}
		if err := rt.Expect(isProxy, "caller is not a registered proxy of stakeAddress"); err != nil {
			return VMObject{}, err
		}
	}

	fuel := new(big.Int).Div(unclaimed, big.NewInt(EnergyRatioDivisor))
	fuelBook := NewBalanceBook(rt.ChangeSet(), c.fuelSymbol)

	distributed := big.NewInt(0)
	for _, p := range c.getProxyList(rt.ChangeSet(), stakeAddr.Addr) {
		share := new(big.Int).Mul(fuel, big.NewInt(int64(p.Percentage)))
		share.Div(share, big.NewInt(100))
		if share.Sign() <= 0 {
			continue
		}
		fuelBook.Mint(p.Address, share)
		distributed.Add(distributed, share)
		rt.Notify(EventTokenMint, p.Address, VMInt(share))
	}
	residue := new(big.Int).Sub(fuel, distributed)
	if residue.Sign() > 0 {
		fuelBook.Mint(stakeAddr.Addr, residue)
		rt.Notify(EventTokenMint, stakeAddr.Addr, VMInt(residue))
	}

	c.claims(rt.ChangeSet()).Set(stakeAddr.Addr.Bytes(), encodeStakeEntry(StakeEntry{Amount: new(big.Int).Set(stakeEntry.Amount), Timestamp: rt.Now()}))
	rt.Notify(EventTokenClaim, from.Addr, VMInt(fuel))
	return VMInt(fuel), nil
}

// addProxy(from, to, pct): 0<pct<=100, from != to, witness(from); the sum
// of percentages across from's proxy list (after this add/replace) must
// not exceed 100.
func (c *StakingContract) addProxy(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 3 {
		return VMObject{}, fmt.Errorf("stake: AddProxy wants 3 args")
	}
	from, to, pct := args[0], args[1], args[2]
	if from.Type != VTAddress || to.Type != VTAddress || pct.Type != VTInt {
		return VMObject{}, fmt.Errorf("stake: AddProxy type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, from.Addr), "from did not witness AddProxy"); err != nil {
		return VMObject{}, err
	}
	p := bigIntToUint64(pct.Int)
	if err := rt.Expect(p > 0 && p <= 100, "percentage must be in (0,100]"); err != nil {
		return VMObject{}, err
	}
	if err := rt.Expect(from.Addr != to.Addr, "cannot proxy to self"); err != nil {
		return VMObject{}, err
	}

	list := c.proxyList(rt.ChangeSet(), from.Addr)
	entries := list.All()
	sum := uint64(0)
	replacedIdx := -1
	for i, raw := range entries {
		existing, err := decodeProxyEntry(raw)
		if err != nil {
			continue
		}
		if existing.Address == to.Addr {
			replacedIdx = i
			continue
		}
		sum += uint64(existing.Percentage)
	}
	sum += p
	if err := rt.Expect(sum <= 100, "total proxy percentage would exceed 100"); err != nil {
		return VMObject{}, err
	}
	encoded := encodeProxyEntry(ProxyEntry{Address: to.Addr, Percentage: uint8(p)})
	if replacedIdx >= 0 {
		list.Replace(uint64(replacedIdx), encoded)
	} else {
		list.Add(encoded)
	}
	rt.Notify(EventAddressAdd, from.Addr, VMAddress(to.Addr))
	return VMBool(true), nil
}

// removeProxy(from, to): witness(from); removes to from from's proxy list.
func (c *StakingContract) removeProxy(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 2 {
		return VMObject{}, fmt.Errorf("stake: RemoveProxy wants 2 args")
	}
	from, to := args[0], args[1]
	if from.Type != VTAddress || to.Type != VTAddress {
		return VMObject{}, fmt.Errorf("stake: RemoveProxy type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, from.Addr), "from did not witness RemoveProxy"); err != nil {
		return VMObject{}, err
	}
	list := c.proxyList(rt.ChangeSet(), from.Addr)
	for i, raw := range list.All() {
		p, err := decodeProxyEntry(raw)
		if err == nil && p.Address == to.Addr {
			list.RemoveAt(uint64(i))
			break
		}
	}
	rt.Notify(EventAddressRemove, from.Addr, VMAddress(to.Addr))
	return VMBool(true), nil
}

// clearProxies(from): witness(from); empties from's proxy list.
func (c *StakingContract) clearProxies(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 1 {
		return VMObject{}, fmt.Errorf("stake: ClearProxies wants 1 arg")
	}
	from := args[0]
	if from.Type != VTAddress {
		return VMObject{}, fmt.Errorf("stake: ClearProxies type mismatch")
	}
	if err := rt.Expect(c.IsWitness(rt, from.Addr), "from did not witness ClearProxies"); err != nil {
		return VMObject{}, err
	}
	c.proxyList(rt.ChangeSet(), from.Addr).Clear()
	return VMBool(true), nil
}

// getProxies(addr): read-only, returns addr's proxy list as a struct list.
func (c *StakingContract) getProxies(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 1 || args[0].Type != VTAddress {
		return VMObject{}, fmt.Errorf("stake: GetProxies wants 1 address arg")
	}
	list := c.getProxyList(rt.ChangeSet(), args[0].Addr)
	fields := make([]StructField, 0, len(list))
	for _, p := range list {
		fields = append(fields, StructField{Key: p.Address.String(), Value: VMInt(big.NewInt(int64(p.Percentage)))})
	}
	return VMStruct(fields), nil
}

// getStake(addr): read-only, returns addr's current stake entry.
func (c *StakingContract) getStake(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 1 || args[0].Type != VTAddress {
		return VMObject{}, fmt.Errorf("stake: GetStake wants 1 address arg")
	}
	entry, ok := c.getStakeEntry(rt.ChangeSet(), args[0].Addr)
	if !ok {
		return VMNil(), nil
	}
	return VMStruct([]StructField{
		{Key: "amount", Value: VMInt(entry.Amount)},
		{Key: "timestamp", Value: VMInt(uint64ToBigInt(uint64(entry.Timestamp)))},
	}), nil
}
