package core

import (
	"math/big"
	"testing"
)

func fuelBookFor(symbol string) func(cs *ChangeSet) *BalanceBook {
	return func(cs *ChangeSet) *BalanceBook { return NewBalanceBook(cs, symbol) }
}

func TestGasContractAllowGasRequiresWitness(t *testing.T) {
	reg := NewContractRegistry()
	c := NewGasContract(fuelBookFor("KCAL"))
	_, payer := signedTx(t)
	unsigned := &Transaction{Payer: payer}
	rt := newTestRuntime(t, reg, unsigned)

	_, err := c.Invoke(rt, "AllowGas", []VMObject{VMAddress(payer), VMInt(big.NewInt(1)), VMInt(big.NewInt(1000))})
	if err == nil {
		t.Fatalf("expected witness failure")
	}
}

func TestGasContractAllowGasRecordsEscrow(t *testing.T) {
	reg := NewContractRegistry()
	c := NewGasContract(fuelBookFor("KCAL"))
	tx, payer := signedTx(t)
	rt := newTestRuntime(t, reg, tx)

	if _, err := c.Invoke(rt, "AllowGas", []VMObject{VMAddress(payer), VMInt(big.NewInt(2)), VMInt(big.NewInt(500))}); err != nil {
		t.Fatalf("allow gas: %v", err)
	}
	if rt.MaxGas() != 500 || rt.GasPrice() != 2 {
		t.Fatalf("maxGas=%d gasPrice=%d, want 500/2", rt.MaxGas(), rt.GasPrice())
	}
}

func TestGasContractSpendGasDebitsAndCreditsProducer(t *testing.T) {
	reg := NewContractRegistry()
	c := NewGasContract(fuelBookFor("KCAL"))
	tx, payer := signedTx(t)
	rt := newTestRuntime(t, reg, tx)

	fuelBookFor("KCAL")(rt.ChangeSet()).Mint(payer, big.NewInt(10_000))

	if _, err := c.Invoke(rt, "AllowGas", []VMObject{VMAddress(payer), VMInt(big.NewInt(3)), VMInt(big.NewInt(1000))}); err != nil {
		t.Fatalf("allow gas: %v", err)
	}
	rt.GasUsed = 100

	out, err := c.Invoke(rt, "SpendGas", []VMObject{VMAddress(payer)})
	if err != nil {
		t.Fatalf("spend gas: %v", err)
	}
	if out.Type != VTInt || out.Int.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("spend gas returned %+v, want 300", out)
	}

	book := fuelBookFor("KCAL")(rt.ChangeSet())
	if book.Get(payer).Cmp(big.NewInt(9700)) != 0 {
		t.Fatalf("payer balance = %s, want 9700", book.Get(payer))
	}
	if book.Get(rt.Producer).Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("producer balance = %s, want 300", book.Get(rt.Producer))
	}
	if rt.PaidGas() != 300 {
		t.Fatalf("paidGas = %d, want 300", rt.PaidGas())
	}
}

func TestGasContractSpendGasCapsAtMaxGas(t *testing.T) {
	reg := NewContractRegistry()
	c := NewGasContract(fuelBookFor("KCAL"))
	tx, payer := signedTx(t)
	rt := newTestRuntime(t, reg, tx)
	fuelBookFor("KCAL")(rt.ChangeSet()).Mint(payer, big.NewInt(10_000))

	if _, err := c.Invoke(rt, "AllowGas", []VMObject{VMAddress(payer), VMInt(big.NewInt(1)), VMInt(big.NewInt(50))}); err != nil {
		t.Fatalf("allow gas: %v", err)
	}
	rt.GasUsed = 500 // exceeds maxGas of 50

	out, err := c.Invoke(rt, "SpendGas", []VMObject{VMAddress(payer)})
	if err != nil {
		t.Fatalf("spend gas: %v", err)
	}
	if out.Int.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("spend gas returned %s, want capped 50", out.Int)
	}
}

func TestGasContractSpendGasFailsOnInsufficientFunds(t *testing.T) {
	reg := NewContractRegistry()
	c := NewGasContract(fuelBookFor("KCAL"))
	tx, payer := signedTx(t)
	rt := newTestRuntime(t, reg, tx)

	if _, err := c.Invoke(rt, "AllowGas", []VMObject{VMAddress(payer), VMInt(big.NewInt(5)), VMInt(big.NewInt(1000))}); err != nil {
		t.Fatalf("allow gas: %v", err)
	}
	rt.GasUsed = 100

	if _, err := c.Invoke(rt, "SpendGas", []VMObject{VMAddress(payer)}); err == nil {
		t.Fatalf("expected insufficient-funds error")
	}
}
