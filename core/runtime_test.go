package core

import (
	"math/big"
	"testing"
)

// pushConstScript compiles LOAD r0,VTInt,<n> followed by RET r0, which
// pushes r0 as the return value.
func pushConstScript(t *testing.T, n int64) *Script {
	t.Helper()
	w := NewWriter()
	w.WriteBigInt(big.NewInt(n))
	payload := w.Bytes()

	code := NewWriter()
	code.WriteUint8(uint8(OpLOAD))
	code.WriteUint8(0) // dst reg
	code.WriteUint8(uint8(VTInt))
	code.WriteVarLen(uint64(len(payload)))
	code.WriteRaw(payload)
	code.WriteUint8(uint8(OpRET))
	code.WriteUint8(0)

	return &Script{Code: code.Bytes()}
}

func TestRuntimeExecuteSimpleScriptHalts(t *testing.T) {
	reg := NewContractRegistry()
	cs := NewMemStorage().ForkChangeSet()
	block := &Block{Height: 1}
	tx := &Transaction{GasLimit: 1000}

	script := pushConstScript(t, 42)
	tx.Script = EncodeScript(script)

	rt := NewRuntime(reg, cs, block, tx, Address{}, NewManualClock(0), 1000, true, "test")
	rt.Execute(AddressZero)

	if rt.State != Halt {
		t.Fatalf("expected Halt, got %s (err=%v)", rt.State, rt.FaultErr)
	}
	top, ok := rt.pop()
	if !ok {
		t.Fatalf("expected a return value on the stack")
	}
	if top.Type != VTInt || top.Int.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected 42, got %+v", top)
	}
}

func TestRuntimeFinalizeGasFaultsOnUnderpayment(t *testing.T) {
	reg := NewContractRegistry()
	cs := NewMemStorage().ForkChangeSet()
	block := &Block{Height: 1}
	tx := &Transaction{GasLimit: 1000}
	tx.Script = EncodeScript(pushConstScript(t, 1))

	rt := NewRuntime(reg, cs, block, tx, Address{}, NewManualClock(0), 1000, false, "test")
	rt.Execute(AddressZero)

	if rt.State != Fault {
		t.Fatalf("expected Fault from unpaid gas, got %s", rt.State)
	}
}

func TestRuntimeNotifyTracksGasEscrowAndPayment(t *testing.T) {
	reg := NewContractRegistry()
	cs := NewMemStorage().ForkChangeSet()
	rt := NewRuntime(reg, cs, &Block{}, &Transaction{}, Address{}, NewManualClock(0), 1000, true, "test")

	rt.Notify(EventGasEscrow, Address{}, gasEscrowPayload(500, 2))
	if rt.MaxGas() != 500 || rt.GasPrice() != 2 {
		t.Fatalf("expected maxGas=500 gasPrice=2, got %d/%d", rt.MaxGas(), rt.GasPrice())
	}

	rt.Notify(EventGasPayment, Address{}, gasPaymentPayload(10))
	if rt.PaidGas() != 10 {
		t.Fatalf("expected paidGas=10, got %d", rt.PaidGas())
	}

	if len(rt.Events) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(rt.Events))
	}
}

func TestRuntimeLoadContextUnknownFails(t *testing.T) {
	reg := NewContractRegistry()
	rt := NewRuntime(reg, NewMemStorage().ForkChangeSet(), &Block{}, &Transaction{}, Address{}, NewManualClock(0), 1000, true, "test")
	if _, err := rt.LoadContext("nonexistent"); err == nil {
		t.Fatalf("expected error for unknown context name")
	}
}
