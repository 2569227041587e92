package core

import (
	"errors"
	"math/big"
	"testing"
)

func testContracts(t *testing.T) (*ContractRegistry, *TokenContract) {
	t.Helper()
	reg := NewContractRegistry()
	tr := newTestRegistry()
	tok := NewTokenContract(tr, Address{0x01})
	for _, c := range []Contract{NewAccountContract(), tok} {
		if err := reg.Install(c); err != nil {
			t.Fatalf("install %s: %v", c.Name(), err)
		}
	}
	return reg, tok
}

// newTestRegistry returns a minimal in-memory TokenRegistry for ledger
// tests that don't need a full Nexus.
func newTestRegistry() *memTokenRegistry {
	return &memTokenRegistry{tokens: make(map[string]*Token)}
}

type memTokenRegistry struct{ tokens map[string]*Token }

func (m *memTokenRegistry) GetToken(s string) (*Token, bool) { t, ok := m.tokens[s]; return t, ok }
func (m *memTokenRegistry) CreateToken(t *Token) error       { m.tokens[t.Symbol] = t; return nil }
func (m *memTokenRegistry) AdjustSupply(s string, delta *big.Int) error {
	t, ok := m.tokens[s]
	if !ok {
		return errors.New("no such token")
	}
	t.CurrentSupply = new(big.Int).Add(t.CurrentSupply, delta)
	return nil
}

func emptyBlock(height uint64, prev Hash) *Block {
	return &Block{Height: height, PreviousHash: prev, Timestamp: 1}
}

func haltScript() *Script {
	code := NewWriter()
	code.WriteUint8(uint8(OpRET))
	code.WriteUint8(0)
	return &Script{Code: code.Bytes()}
}

func TestChainAddBlockHeightAndLinkage(t *testing.T) {
	reg, _ := testContracts(t)
	chain := NewChain("root", nil, reg, NewManualClock(0))

	if err := chain.AddBlock(emptyBlock(0, Hash{}), Address{0x01}); err != nil {
		t.Fatalf("genesis block: %v", err)
	}
	if chain.Height() != 0 {
		t.Fatalf("height = %d, want 0", chain.Height())
	}

	// wrong height rejected
	bad := emptyBlock(5, chain.Tip().Hash())
	if err := chain.AddBlock(bad, Address{0x01}); err == nil {
		t.Fatalf("expected height mismatch error")
	}

	next := emptyBlock(1, chain.Tip().Hash())
	if err := chain.AddBlock(next, Address{0x01}); err != nil {
		t.Fatalf("second block: %v", err)
	}
	if chain.Height() != 1 {
		t.Fatalf("height = %d, want 1", chain.Height())
	}
	if !chain.BlockFinalized(next.Hash()) {
		t.Fatalf("appended block should be finalized")
	}

	// wrong previous-hash rejected
	wrongPrev := emptyBlock(2, Hash{0xFF})
	if err := chain.AddBlock(wrongPrev, Address{0x01}); err == nil {
		t.Fatalf("expected previous-hash mismatch error")
	}
}

func TestChainAddBlockRejectsDuplicateTransaction(t *testing.T) {
	reg, _ := testContracts(t)
	chain := NewChain("root", nil, reg, NewManualClock(0))

	priv, payer, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	tx := &Transaction{Payer: payer, GasLimit: 1000, Script: EncodeScript(haltScript())}
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("sign: %v", err)
	}

	block := &Block{Height: 0, Transactions: []*Transaction{tx, tx}}
	if err := chain.AddBlock(block, Address{0x01}); err == nil {
		t.Fatalf("expected duplicate transaction rejection")
	}
	if chain.Height() != -1 {
		t.Fatalf("block with a duplicate tx must not be committed")
	}
}

func TestChainInvokeContractReadOnly(t *testing.T) {
	reg, _ := testContracts(t)
	chain := NewChain("root", nil, reg, NewManualClock(0))

	addr := Address{0x02}
	out, err := chain.InvokeContract("account", "LookUpAddress", []VMObject{VMAddress(addr)})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out.Type != VTNil {
		t.Fatalf("expected nil for unregistered address, got %v", out)
	}
}

func TestChainGetTokenBalanceDefaultsZero(t *testing.T) {
	reg, _ := testContracts(t)
	chain := NewChain("root", nil, reg, NewManualClock(0))

	bal := chain.GetTokenBalance("SOUL", Address{0x03})
	if bal.Sign() != 0 {
		t.Fatalf("balance = %s, want 0", bal)
	}
}

func TestChainProveTransactionVerifies(t *testing.T) {
	reg, _ := testContracts(t)
	chain := NewChain("root", nil, reg, NewManualClock(0))

	priv, payer, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	tx := &Transaction{Payer: payer, GasLimit: 1000, Script: EncodeScript(haltScript())}
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	block := &Block{Height: 0, Transactions: []*Transaction{tx}}
	if err := chain.AddBlock(block, Address{0x01}); err != nil {
		t.Fatalf("add block: %v", err)
	}

	proof, root, err := chain.ProveTransaction(0, 0)
	if err != nil {
		t.Fatalf("prove: %v", err)
	}
	h := tx.Hash()
	if !VerifyMerklePath(root, h[:], proof, 0) {
		t.Fatalf("merkle proof failed to verify")
	}
}
