package core

// account_and_balance_operations.go – per-token balance maps (§3 "Account
// balance": "mapping address -> non-negative BigInt").
//
// Grounded on the prior AccountManager (a thin, mutex-guarded wrapper
// around a ledger balance map with CreateAccount/Transfer/Balance), widened
// from a single coin ledger to one BalanceBook per token per chain, backed
// by the ChangeSet/Map storage layer instead of an in-memory map field.

import (
	"fmt"
	"math/big"
)

// BalanceBook is the address -> BigInt balance map for one token symbol on
// one chain, namespaced within that chain's ChangeSet.
type BalanceBook struct {
	store *Map
}

// NewBalanceBook returns the balance map for tokenSymbol within cs.
func NewBalanceBook(cs *ChangeSet, tokenSymbol string) *BalanceBook {
	return &BalanceBook{store: NewMap(cs, "balance:"+tokenSymbol)}
}

// Get returns addr's current balance, defaulting to zero.
func (b *BalanceBook) Get(addr Address) *big.Int {
	raw, ok := b.store.Get(addr.Bytes())
	if !ok {
		return big.NewInt(0)
	}
	r := NewReader(raw)
	v, err := r.ReadBigInt()
	if err != nil {
		return big.NewInt(0)
	}
	return v
}

// Set overwrites addr's balance.
func (b *BalanceBook) Set(addr Address, amount *big.Int) {
	w := NewWriter()
	w.WriteBigInt(amount)
	b.store.Set(addr.Bytes(), w.Bytes())
}

// Mint increases addr's balance by amount in place (supply-cap enforcement
// is the caller's responsibility — the token contract, not this map).
func (b *BalanceBook) Mint(addr Address, amount *big.Int) {
	b.Set(addr, new(big.Int).Add(b.Get(addr), amount))
}

// Burn decreases addr's balance by amount, failing if it would go negative.
func (b *BalanceBook) Burn(addr Address, amount *big.Int) error {
	bal := b.Get(addr)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("balance: insufficient funds: have %s, need %s", bal, amount)
	}
	b.Set(addr, new(big.Int).Sub(bal, amount))
	return nil
}

// Transfer moves amount from src to dst, failing without mutating either
// balance if src has insufficient funds.
func (b *BalanceBook) Transfer(src, dst Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("balance: transfer amount must be positive")
	}
	srcBal := b.Get(src)
	if srcBal.Cmp(amount) < 0 {
		return fmt.Errorf("balance: insufficient funds: have %s, need %s", srcBal, amount)
	}
	b.Set(src, new(big.Int).Sub(srcBal, amount))
	b.Set(dst, new(big.Int).Add(b.Get(dst), amount))
	return nil
}

// TotalBalance sums every recorded balance, used by tests to check the
// chain invariant "sum of balances == recorded supply" (§3, §8).
func (b *BalanceBook) TotalBalance(holders []Address) *big.Int {
	total := big.NewInt(0)
	for _, addr := range holders {
		total.Add(total, b.Get(addr))
	}
	return total
}
