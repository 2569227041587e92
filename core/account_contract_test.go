package core

import "testing"

func newTestRuntime(t *testing.T, reg *ContractRegistry, tx *Transaction) *Runtime {
	t.Helper()
	cs := NewMemStorage().ForkChangeSet()
	return NewRuntime(reg, cs, &Block{}, tx, Address{0xAA}, NewManualClock(0), 10000, true, "root")
}

func signedTx(t *testing.T) (*Transaction, Address) {
	t.Helper()
	priv, addr, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	tx := &Transaction{Payer: addr, GasLimit: 1000, Script: EncodeScript(haltScript())}
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tx, addr
}

func TestAccountContractRegisterAndLookup(t *testing.T) {
	reg := NewContractRegistry()
	c := NewAccountContract()
	tx, addr := signedTx(t)
	rt := newTestRuntime(t, reg, tx)

	if _, err := c.Invoke(rt, "Register", []VMObject{VMAddress(addr), VMString("alice")}); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := c.Invoke(rt, "LookUpName", []VMObject{VMString("alice")})
	if err != nil {
		t.Fatalf("lookup name: %v", err)
	}
	if got.Type != VTAddress || got.Addr != addr {
		t.Fatalf("LookUpName = %+v, want %v", got, addr)
	}

	gotName, err := c.Invoke(rt, "LookUpAddress", []VMObject{VMAddress(addr)})
	if err != nil {
		t.Fatalf("lookup address: %v", err)
	}
	if gotName.Type != VTString || gotName.Str != "alice" {
		t.Fatalf("LookUpAddress = %+v, want alice", gotName)
	}
}

func TestAccountContractRegisterRejectsBadNames(t *testing.T) {
	reg := NewContractRegistry()
	c := NewAccountContract()
	tx, addr := signedTx(t)
	rt := newTestRuntime(t, reg, tx)

	cases := []string{"ab", "ThisNameIsWayTooLongToBeValid", "has space", "UPPER"}
	for _, name := range cases {
		if _, err := c.Invoke(rt, "Register", []VMObject{VMAddress(addr), VMString(name)}); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestAccountContractRegisterRejectsDuplicateName(t *testing.T) {
	reg := NewContractRegistry()
	c := NewAccountContract()
	tx1, addr1 := signedTx(t)
	rt1 := newTestRuntime(t, reg, tx1)
	if _, err := c.Invoke(rt1, "Register", []VMObject{VMAddress(addr1), VMString("alice")}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tx2, addr2 := signedTx(t)
	rt2 := NewRuntime(reg, rt1.ChangeSet(), &Block{}, tx2, Address{0xAA}, NewManualClock(0), 10000, true, "root")
	if _, err := c.Invoke(rt2, "Register", []VMObject{VMAddress(addr2), VMString("alice")}); err == nil {
		t.Fatalf("expected duplicate name to be rejected")
	}
}

func TestAccountContractRegisterRejectsSecondNameForSameAddress(t *testing.T) {
	reg := NewContractRegistry()
	c := NewAccountContract()
	tx, addr := signedTx(t)
	rt := newTestRuntime(t, reg, tx)

	if _, err := c.Invoke(rt, "Register", []VMObject{VMAddress(addr), VMString("hello")}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := c.Invoke(rt, "Register", []VMObject{VMAddress(addr), VMString("other")}); err == nil {
		t.Fatalf("expected second register for the same address to be rejected")
	}

	got, err := c.Invoke(rt, "LookUpAddress", []VMObject{VMAddress(addr)})
	if err != nil {
		t.Fatalf("lookup address: %v", err)
	}
	if got.Str != "hello" {
		t.Fatalf("LookUpAddress = %+v, want hello (unchanged by the rejected call)", got)
	}
	if _, err := c.Invoke(rt, "LookUpName", []VMObject{VMString("other")}); err != nil {
		t.Fatalf("lookup name: %v", err)
	}
	other, err := c.Invoke(rt, "LookUpName", []VMObject{VMString("other")})
	if err != nil {
		t.Fatalf("lookup name: %v", err)
	}
	if other.Type != VTNil {
		t.Fatalf("expected 'other' to remain unregistered, got %+v", other)
	}
}

func TestAccountContractRegisterRequiresWitness(t *testing.T) {
	reg := NewContractRegistry()
	c := NewAccountContract()
	_, addr := signedTx(t)
	unsigned := &Transaction{Payer: addr}
	rt := newTestRuntime(t, reg, unsigned)

	if _, err := c.Invoke(rt, "Register", []VMObject{VMAddress(addr), VMString("alice")}); err == nil {
		t.Fatalf("expected witness failure")
	}
}

func TestAccountContractLookupMissingReturnsNil(t *testing.T) {
	reg := NewContractRegistry()
	c := NewAccountContract()
	tx, _ := signedTx(t)
	rt := newTestRuntime(t, reg, tx)

	out, err := c.Invoke(rt, "LookUpName", []VMObject{VMString("ghost")})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if out.Type != VTNil {
		t.Fatalf("expected nil, got %+v", out)
	}
}
