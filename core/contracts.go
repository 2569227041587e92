package core

// contracts.go – the native contract framework and registry (§4.4).
//
// Grounded on the prior ContractRegistry (byAddr map, mutex-guarded
// Deploy/Invoke, a singleton accessed via InitContracts/GetContractRegistry)
// but narrowed from a WASM-deploy pipeline to its fixed set of
// native contracts: there is no user-deployed bytecode, every contract is
// installed once at genesis and addressed deterministically by name.

import (
	"fmt"
	"sync"
)

// Contract is a named, callable bundle of methods living on a chain (§4.4).
// Every native contract (token, account, staking, gas, cross-chain)
// implements Invoke by dispatching method to its own Go method set.
type Contract interface {
	Invokable
	Name() string
	Address() Address
	MethodGas(method string) uint64
}

// BaseContract supplies the identity and witness/gas-policy plumbing every
// native contract shares (§4.4: "Contracts share a base with IsWitness,
// Runtime.Expect, and Runtime.Notify").
type BaseContract struct {
	name   string
	addr   Address
	policy map[string]uint64
}

// NewBaseContract derives addr deterministically from name and records the
// per-method gas policy (methods absent from policy are free).
func NewBaseContract(name string, policy map[string]uint64) BaseContract {
	return BaseContract{name: name, addr: DeriveSystemAddress(name), policy: policy}
}

func (b BaseContract) Name() string    { return b.name }
func (b BaseContract) Address() Address { return b.addr }

// MethodGas returns the gas recorded for method in the contract's policy
// (0 for a method absent from it). The VM and Runtime do not charge it; a
// SWITCH dispatch costs only its flat gas_table.go price (§4.1).
func (b BaseContract) MethodGas(method string) uint64 {
	return b.policy[method]
}

// IsWitness reports whether addr signed the runtime's current transaction.
// Read-only invocations (rt.tx == nil) have no witnesses.
func (b BaseContract) IsWitness(rt *Runtime, addr Address) bool {
	if rt == nil || rt.tx == nil {
		return false
	}
	return rt.tx.IsWitness(addr)
}

// ContractRegistry maps native-contract names and addresses to their
// installed Contract instances, and implements ContextResolver so the VM's
// CTX/SWITCH opcodes can reach them without knowing about Chain/Nexus.
type ContractRegistry struct {
	mu     sync.RWMutex
	byAddr map[Address]Contract
	byName map[string]Contract
}

// NewContractRegistry returns an empty registry.
func NewContractRegistry() *ContractRegistry {
	return &ContractRegistry{
		byAddr: make(map[Address]Contract),
		byName: make(map[string]Contract),
	}
}

// Install registers a native contract, failing if its name or address
// collides with one already installed.
func (cr *ContractRegistry) Install(c Contract) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	if _, exists := cr.byName[c.Name()]; exists {
		return fmt.Errorf("contracts: %q already installed", c.Name())
	}
	if _, exists := cr.byAddr[c.Address()]; exists {
		return fmt.Errorf("contracts: address %s already installed", c.Address())
	}
	cr.byName[c.Name()] = c
	cr.byAddr[c.Address()] = c
	return nil
}

// ResolveContext implements ContextResolver for the VM's CTX opcode.
func (cr *ContractRegistry) ResolveContext(addr Address) (Invokable, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	c, ok := cr.byAddr[addr]
	if !ok {
		return nil, fmt.Errorf("contracts: no contract at address %s", addr)
	}
	return c, nil
}

// ByName looks up an installed contract by its symbolic name, used by
// Runtime.LoadContext.
func (cr *ContractRegistry) ByName(name string) (Contract, bool) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	c, ok := cr.byName[name]
	return c, ok
}

// All returns every installed contract, used by explorer/debug tooling.
func (cr *ContractRegistry) All() []Contract {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	out := make([]Contract, 0, len(cr.byAddr))
	for _, c := range cr.byAddr {
		out = append(out, c)
	}
	return out
}
