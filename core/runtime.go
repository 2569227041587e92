package core

// runtime.go – the per-transaction Runtime VM (§4.2).
//
// Grounded on the prior virtual_machine.go Execute/Receipt flow (one VM
// instance per transaction, events collected onto a receipt, gas tallied
// against a limit) but split from it: VM stays a bare interpreter, Runtime
// layers chain/block/transaction context, the event log and the gas-escrow
// bookkeeping described in §4.2 on top, and is what native contracts
// actually see as their *Runtime argument.

import "fmt"

// Runtime extends VM with the chain, block and transaction context a native
// contract invocation needs, plus the event log and gas-escrow counters
// §4.2 requires.
type Runtime struct {
	*VM

	contracts *ContractRegistry
	cs        *ChangeSet
	Block     *Block
	tx        *Transaction
	Producer  Address
	clock     Clock
	ChainName string

	Events []Event

	maxGas   uint64
	gasPrice uint64
	paidGas  uint64
}

// NewRuntime constructs a Runtime bound to contracts/cs/block/tx. tx may be
// nil for read-only invocations (Chain.InvokeContract), in which case
// IsWitness always reports false and gasBypass should be true.
func NewRuntime(contracts *ContractRegistry, cs *ChangeSet, block *Block, tx *Transaction, producer Address, clock Clock, gasLimit uint64, gasBypass bool, chainName string) *Runtime {
	rt := &Runtime{
		contracts: contracts,
		cs:        cs,
		Block:     block,
		tx:        tx,
		Producer:  producer,
		clock:     clock,
		ChainName: chainName,
	}
	rt.VM = NewVM(rt, DefaultInteropTable(), gasLimit, gasBypass)
	return rt
}

// ResolveContext implements ContextResolver, letting the embedded VM treat
// Runtime itself as the resolver it was constructed with (vm.invokeTarget
// recovers *Runtime from vm.resolver).
func (rt *Runtime) ResolveContext(addr Address) (Invokable, error) {
	return rt.contracts.ResolveContext(addr)
}

// ChangeSet returns the transaction's storage overlay, used by native
// contracts to build their own Map/List views.
func (rt *Runtime) ChangeSet() *ChangeSet { return rt.cs }

// Now returns the block's pinned clock reading (§6: every transaction in a
// block observes the same timestamp).
func (rt *Runtime) Now() Timestamp { return rt.clock.Now() }

// Transaction returns the transaction being executed, or nil for a
// read-only invocation.
func (rt *Runtime) Transaction() *Transaction { return rt.tx }

// MaxGas, GasPrice and PaidGas expose the gas-escrow state Notify
// maintains; GasContract's SpendGas reads them to settle the producer's
// fee, and finalizeGas checks the paid amount against GasUsed.
func (rt *Runtime) MaxGas() uint64   { return rt.maxGas }
func (rt *Runtime) GasPrice() uint64 { return rt.gasPrice }
func (rt *Runtime) PaidGas() uint64  { return rt.paidGas }

// LoadContext resolves a native contract's symbolic name to its address,
// faulting (returning an error, not crashing the runtime) on an unknown
// name (§4.2).
func (rt *Runtime) LoadContext(name string) (Address, error) {
	c, ok := rt.contracts.ByName(name)
	if !ok {
		return Address{}, fmt.Errorf("runtime: unknown context %q", name)
	}
	return c.Address(), nil
}

// Expect aborts the calling contract method with reason if cond is false.
// Contracts call this for precondition checks instead of hand-rolling
// error strings (§4.4: "share a base with ... Runtime.Expect").
func (rt *Runtime) Expect(cond bool, reason string) error {
	if !cond {
		return fmt.Errorf("runtime: %s", reason)
	}
	return nil
}

// Notify appends an event to the transaction's audit log (§3). The two
// gas-economy kinds are also interpreted here rather than left opaque:
// GasEscrow records the payer's declared {maxGas, gasPrice} and GasPayment
// records what was actually debited; SpendGas reads the escrow back when it
// settles the block producer's fee, and finalizeGas compares the payment
// with GasUsed.
func (rt *Runtime) Notify(kind EventKind, address Address, payload VMObject) {
	rt.Events = append(rt.Events, Event{Kind: kind, Address: address, Payload: payload})
	switch kind {
	case EventGasEscrow:
		if v, ok := structField(payload.Fields, "amount"); ok && v.Int != nil {
			rt.maxGas = bigIntToUint64(v.Int)
		}
		if v, ok := structField(payload.Fields, "price"); ok && v.Int != nil {
			rt.gasPrice = bigIntToUint64(v.Int)
		}
	case EventGasPayment:
		if v, ok := structField(payload.Fields, "amount"); ok && v.Int != nil {
			rt.paidGas = bigIntToUint64(v.Int)
		}
	}
}

// Execute decodes tx.Script and runs it under contractAddr to completion,
// then applies the halt-time gas-payment check.
func (rt *Runtime) Execute(contractAddr Address) {
	script, err := DecodeScript(rt.tx.Script)
	if err != nil {
		rt.fault(fmt.Errorf("runtime: malformed script: %w", err))
		return
	}
	rt.Run(script, contractAddr)
	rt.finalizeGas()
}

// finalizeGas enforces §4.2's rule that a transaction which halts without
// having escrowed enough gas to cover what it used is reclassified as a
// fault, unless the Runtime was built with gasBypass set: read-only
// Chain.InvokeContract calls set it, Chain.AddBlock does not.
func (rt *Runtime) finalizeGas() {
	if rt.GasBypass {
		return
	}
	if rt.State == Halt && rt.paidGas < rt.GasUsed {
		rt.fault(fmt.Errorf("runtime: insufficient gas payment: paid %d, used %d", rt.paidGas, rt.GasUsed))
	}
}

// DecodeScript splits raw transaction bytecode into its constant pool and
// code stream: a canonical var-length count of constants (each encoded via
// encodeVMObject), followed by the raw instruction bytes.
func DecodeScript(raw []byte) (*Script, error) {
	r := NewReader(raw)
	n, err := r.ReadVarLen()
	if err != nil {
		return nil, err
	}
	consts := make([]VMObject, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := decodeVMObject(r)
		if err != nil {
			return nil, err
		}
		consts = append(consts, v)
	}
	return &Script{Code: append([]byte{}, r.Remainder()...), Constants: consts}, nil
}

// EncodeScript is DecodeScript's inverse, used by genesis/test tooling to
// assemble a Transaction.Script from hand-built bytecode.
func EncodeScript(s *Script) []byte {
	w := NewWriter()
	w.WriteVarLen(uint64(len(s.Constants)))
	for _, c := range s.Constants {
		encodeVMObject(w, c)
	}
	w.WriteRaw(s.Code)
	return w.Bytes()
}
