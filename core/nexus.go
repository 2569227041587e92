package core

// nexus.go – Nexus: the chain tree, token registry and genesis bootstrap
// (§3 "Nexus", §6 "Genesis").
//
// Grounded on the prior Ledger-as-root-of-everything pattern (a single
// struct owning token balances, contracts and chain state) but split the
// way §3 calls for: a Nexus owns a tree of independent Chains plus the
// registry/state that must be shared across all of them (token metadata,
// the naming contract's account, the cross-chain escrow book) — things
// chain-local storage cannot hold because chain storage is disjoint (§5).

import (
	"fmt"
	"math/big"
	"sync"

	log "github.com/sirupsen/logrus"
)

// StakingTokenSymbol and FuelTokenSymbol are the two distinguished tokens
// every nexus creates at genesis (§3).
const (
	StakingTokenSymbol = "SOUL"
	FuelTokenSymbol    = "KCAL"
)

// Nexus owns the chain tree rooted at Root, the nexus-wide token registry,
// and the native contracts shared by every chain in the tree (§3).
type Nexus struct {
	mu sync.RWMutex

	Root   *Chain
	chains map[string]*Chain

	tokens map[string]*Token

	Owner      Address
	validators []Address
	genesisSet bool

	contracts  *ContractRegistry
	clock      Clock
	escrowBase *ChangeSet

	account *AccountContract
	token   *TokenContract
	stake   *StakingContract
	gas     *GasContract
	cross   *CrossChainContract
}

// NewNexus returns an empty, ungenesis'd Nexus. Genesis must be called
// once before any chain in it can process blocks.
func NewNexus(clock Clock) *Nexus {
	return &Nexus{
		chains:     make(map[string]*Chain),
		tokens:     make(map[string]*Token),
		contracts:  NewContractRegistry(),
		clock:      clock,
		escrowBase: NewMemStorage().ForkChangeSet(),
	}
}

// --- TokenRegistry ---------------------------------------------------

func (n *Nexus) GetToken(symbol string) (*Token, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	t, ok := n.tokens[symbol]
	return t, ok
}

func (n *Nexus) CreateToken(t *Token) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.tokens[t.Symbol]; exists {
		return fmt.Errorf("nexus: duplicate token symbol %q", t.Symbol)
	}
	n.tokens[t.Symbol] = t
	return nil
}

func (n *Nexus) AdjustSupply(symbol string, delta *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok := n.tokens[symbol]
	if !ok {
		return fmt.Errorf("nexus: unknown token %q", symbol)
	}
	t.CurrentSupply = new(big.Int).Add(t.CurrentSupply, delta)
	return nil
}

// --- ChainLookup -------------------------------------------------------

// RelatedChains reports whether a and b are the same chain or one is a
// parent-chain ancestor of the other, walking the chain tree's parent
// pointers (§4.5).
func (n *Nexus) RelatedChains(a, b string) bool {
	if a == b {
		return true
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	ca, cb := n.chains[a], n.chains[b]
	if ca == nil || cb == nil {
		return false
	}
	for cur := cb; cur != nil; cur = cur.Parent {
		if cur.Name == a {
			return true
		}
	}
	for cur := ca; cur != nil; cur = cur.Parent {
		if cur.Name == b {
			return true
		}
	}
	return false
}

func (n *Nexus) BlockFinalized(chain string, h Hash) bool {
	n.mu.RLock()
	c := n.chains[chain]
	n.mu.RUnlock()
	if c == nil {
		return false
	}
	return c.BlockFinalized(h)
}

// Chain returns the named chain, if present.
func (n *Nexus) Chain(name string) (*Chain, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.chains[name]
	return c, ok
}

// Genesis bootstraps the nexus (§6): creates the staking and fuel tokens
// with their initial supplies, the root chain and named child chains,
// installs native contracts, and registers owner as a validator. Any
// failure leaves the Nexus exactly as it was before the call — state is
// built up locally and only swapped in once every step has succeeded.
func (n *Nexus) Genesis(owner Address, childChainNames []string, soulSupply, kcalSupply *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.genesisSet {
		return fmt.Errorf("nexus: already genesis'd")
	}

	tokens := map[string]*Token{
		StakingTokenSymbol: {
			Symbol: StakingTokenSymbol, Name: "Soul", Decimals: 18,
			MaxSupply: new(big.Int).Set(soulSupply), CurrentSupply: new(big.Int).Set(soulSupply),
			Flags: TokenFlags{Fungible: true, Burnable: false, Tradable: true, Divisible: true, Transferable: true},
		},
		FuelTokenSymbol: {
			Symbol: FuelTokenSymbol, Name: "Kcal", Decimals: 18,
			MaxSupply: new(big.Int).Set(kcalSupply), CurrentSupply: big.NewInt(0),
			Flags: TokenFlags{Fungible: true, Burnable: true, Tradable: true, Divisible: true, Transferable: true},
		},
	}

	contracts := NewContractRegistry()
	account := NewAccountContract()
	tokenContract := NewTokenContract(n, owner)
	stake := NewStakingContract(StakingTokenSymbol, FuelTokenSymbol)
	gas := NewGasContract(func(cs *ChangeSet) *BalanceBook { return NewBalanceBook(cs, FuelTokenSymbol) })
	cross := NewCrossChainContract(n.escrowBase, n)
	tokenContract.BindCrossChain(cross)

	for _, c := range []Contract{account, tokenContract, stake, gas, cross} {
		if err := contracts.Install(c); err != nil {
			return fmt.Errorf("nexus: genesis: %w", err)
		}
	}

	root := NewChain("root", nil, contracts, n.clock)
	children := make(map[string]*Chain, len(childChainNames))
	for _, name := range childChainNames {
		children[name] = NewChain(name, root, contracts, n.clock)
	}

	book := NewBalanceBook(root.storage.ForkChangeSet(), StakingTokenSymbol)
	book.Mint(owner, soulSupply)
	root.storage.Commit(book.store.store)

	n.tokens = tokens
	n.contracts = contracts
	n.account, n.token, n.stake, n.gas, n.cross = account, tokenContract, stake, gas, cross
	n.Root = root
	n.chains = map[string]*Chain{"root": root}
	for name, c := range children {
		n.chains[name] = c
	}
	n.Owner = owner
	n.validators = []Address{owner}
	n.genesisSet = true

	log.WithFields(log.Fields{"owner": owner.String(), "children": childChainNames}).Info("nexus genesis complete")
	return nil
}

// IsValidator reports whether addr was registered as a validator at
// genesis.
func (n *Nexus) IsValidator(addr Address) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, v := range n.validators {
		if v == addr {
			return true
		}
	}
	return false
}
