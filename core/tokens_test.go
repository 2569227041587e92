package core

import (
	"math/big"
	"testing"
)

func createTestToken(t *testing.T, c *TokenContract, rt *Runtime, owner Address, symbol string, max int64, flags TokenFlags) {
	t.Helper()
	args := []VMObject{
		VMAddress(owner), VMString(symbol), VMString(symbol + " token"), VMInt(big.NewInt(0)), VMInt(big.NewInt(max)),
		VMBool(flags.Fungible), VMBool(flags.Burnable), VMBool(flags.Tradable), VMBool(flags.Divisible), VMBool(flags.Transferable),
	}
	if _, err := c.Invoke(rt, "Create", args); err != nil {
		t.Fatalf("create %s: %v", symbol, err)
	}
}

func TestTokenContractCreateRequiresOwner(t *testing.T) {
	reg := newTestRegistry()
	tx, nonOwner := signedTx(t)
	rt := newTestRuntime(t, NewContractRegistry(), tx)
	c := NewTokenContract(reg, Address{0x01})

	flags := TokenFlags{Fungible: true, Transferable: true}
	args := []VMObject{
		VMAddress(nonOwner), VMString("FOO"), VMString("Foo"), VMInt(big.NewInt(0)), VMInt(big.NewInt(1000)),
		VMBool(flags.Fungible), VMBool(flags.Burnable), VMBool(flags.Tradable), VMBool(flags.Divisible), VMBool(flags.Transferable),
	}
	if _, err := c.Invoke(rt, "Create", args); err == nil {
		t.Fatalf("expected non-owner create to fail")
	}
}

func TestTokenContractMintRespectsMaxSupply(t *testing.T) {
	reg := newTestRegistry()
	priv, owner, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	tx := &Transaction{Payer: owner, GasLimit: 1000, Script: EncodeScript(haltScript())}
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	rt := newTestRuntime(t, NewContractRegistry(), tx)
	c := NewTokenContract(reg, owner)

	createTestToken(t, c, rt, owner, "FOO", 1000, TokenFlags{Fungible: true, Burnable: true, Transferable: true})

	to := Address{0x02}
	if _, err := c.Invoke(rt, "Mint", []VMObject{VMAddress(owner), VMString("FOO"), VMAddress(to), VMInt(big.NewInt(900))}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := c.Invoke(rt, "Mint", []VMObject{VMAddress(owner), VMString("FOO"), VMAddress(to), VMInt(big.NewInt(200))}); err == nil {
		t.Fatalf("expected mint exceeding max supply to fail")
	}

	bal := c.Balances(rt.ChangeSet(), "FOO").Get(to)
	if bal.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("balance = %s, want 900", bal)
	}
}

func TestTokenContractBurnRequiresBurnableFlag(t *testing.T) {
	reg := newTestRegistry()
	priv, owner, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	tx := &Transaction{Payer: owner, GasLimit: 1000, Script: EncodeScript(haltScript())}
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	rt := newTestRuntime(t, NewContractRegistry(), tx)
	c := NewTokenContract(reg, owner)

	createTestToken(t, c, rt, owner, "NOBURN", 1000, TokenFlags{Fungible: true, Transferable: true})
	if _, err := c.Invoke(rt, "Mint", []VMObject{VMAddress(owner), VMString("NOBURN"), VMAddress(owner), VMInt(big.NewInt(100))}); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := c.Invoke(rt, "Burn", []VMObject{VMAddress(owner), VMString("NOBURN"), VMInt(big.NewInt(10))}); err == nil {
		t.Fatalf("expected burn of non-burnable token to fail")
	}
}

func TestTokenContractTransferMovesBalance(t *testing.T) {
	reg := newTestRegistry()
	priv, owner, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	tx := &Transaction{Payer: owner, GasLimit: 1000, Script: EncodeScript(haltScript())}
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	rt := newTestRuntime(t, NewContractRegistry(), tx)
	c := NewTokenContract(reg, owner)

	createTestToken(t, c, rt, owner, "MOVE", 1000, TokenFlags{Fungible: true, Transferable: true})
	if _, err := c.Invoke(rt, "Mint", []VMObject{VMAddress(owner), VMString("MOVE"), VMAddress(owner), VMInt(big.NewInt(500))}); err != nil {
		t.Fatalf("mint: %v", err)
	}

	dest := Address{0x09}
	if _, err := c.Invoke(rt, "Transfer", []VMObject{VMAddress(owner), VMString("MOVE"), VMAddress(dest), VMInt(big.NewInt(200))}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	book := c.Balances(rt.ChangeSet(), "MOVE")
	if book.Get(owner).Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("owner balance = %s, want 300", book.Get(owner))
	}
	if book.Get(dest).Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("dest balance = %s, want 200", book.Get(dest))
	}
}

func TestTokenContractNFTMintTransferBurn(t *testing.T) {
	reg := newTestRegistry()
	priv, owner, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	tx := &Transaction{Payer: owner, GasLimit: 1000, Script: EncodeScript(haltScript())}
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	rt := newTestRuntime(t, NewContractRegistry(), tx)
	c := NewTokenContract(reg, owner)

	createTestToken(t, c, rt, owner, "COOL", 10, TokenFlags{Burnable: true, Transferable: true})

	rom := []byte{0x01, 0x03, 0x03, 0x07}
	ram := []byte{0x01, 0x04, 0x04, 0x06}
	senderPriv, sender, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	if err := tx.Sign(senderPriv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	out, err := c.Invoke(rt, "Mint", []VMObject{VMAddress(owner), VMString("COOL"), VMAddress(sender), VMBytes(rom), VMBytes(ram)})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	id := out.Str

	rec, ok := c.nftMap(rt.ChangeSet(), "COOL").Get([]byte(id))
	if !ok {
		t.Fatalf("minted id %q not recorded", id)
	}
	decoded, err := decodeNFTRecord(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded.ROM) != string(rom) || string(decoded.RAM) != string(ram) || decoded.Owner != sender {
		t.Fatalf("minted record mismatch: %+v", decoded)
	}
	tok, _ := reg.GetToken("COOL")
	if tok.CurrentSupply.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("current supply = %s, want 1", tok.CurrentSupply)
	}

	receiverPriv, receiver, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	if err := tx.Sign(receiverPriv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.Invoke(rt, "Transfer", []VMObject{VMAddress(sender), VMString("COOL"), VMAddress(receiver), VMString(id)}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	rec, _ = c.nftMap(rt.ChangeSet(), "COOL").Get([]byte(id))
	decoded, _ = decodeNFTRecord(rec)
	if decoded.Owner != receiver {
		t.Fatalf("owner after transfer = %v, want %v", decoded.Owner, receiver)
	}

	if _, err := c.Invoke(rt, "Transfer", []VMObject{VMAddress(sender), VMString("COOL"), VMAddress(receiver), VMString(id)}); err == nil {
		t.Fatalf("expected transfer by non-owner to fail")
	}

	if _, err := c.Invoke(rt, "Burn", []VMObject{VMAddress(receiver), VMString("COOL"), VMString(id)}); err != nil {
		t.Fatalf("burn: %v", err)
	}
	rec, ok = c.nftMap(rt.ChangeSet(), "COOL").Get([]byte(id))
	if !ok {
		t.Fatalf("burned record should still be recorded")
	}
	decoded, _ = decodeNFTRecord(rec)
	if decoded.Owner != (Address{}) {
		t.Fatalf("burned record owner = %v, want zero address", decoded.Owner)
	}
	tok, _ = reg.GetToken("COOL")
	if tok.CurrentSupply.Sign() != 0 {
		t.Fatalf("current supply after burn = %s, want 0", tok.CurrentSupply)
	}
}

func TestTokenContractSideChainSendNFTLocksAndRemovesLocalRecord(t *testing.T) {
	reg := newTestRegistry()
	priv, owner, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	tx := &Transaction{Payer: owner, GasLimit: 1000, Script: EncodeScript(haltScript())}
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	sourceBlock := &Block{Height: 3, Timestamp: 1}
	rt := NewRuntime(NewContractRegistry(), NewMemStorage().ForkChangeSet(), sourceBlock, tx, Address{}, NewManualClock(0), 1000, true, "root")
	c := NewTokenContract(reg, owner)
	cc := NewCrossChainContract(NewMemStorage().ForkChangeSet(), &fakeChainLookup{related: true, finalized: true})
	c.BindCrossChain(cc)

	createTestToken(t, c, rt, owner, "PETS", 10, TokenFlags{Transferable: true})
	out, err := c.Invoke(rt, "Mint", []VMObject{VMAddress(owner), VMString("PETS"), VMAddress(owner), VMBytes([]byte("rom")), VMBytes([]byte("ram"))})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	id := out.Str

	dest := Address{0x13}
	args := []VMObject{VMAddress(owner), VMString("PETS"), VMString(id), VMString("apps"), VMAddress(dest)}
	if _, err := c.Invoke(rt, "SideChainSendNFT", args); err != nil {
		t.Fatalf("side chain send nft: %v", err)
	}

	if _, ok := c.nftMap(rt.ChangeSet(), "PETS").Get([]byte(id)); ok {
		t.Fatalf("expected local nft record to be removed after escrow lock")
	}
}

func TestTokenContractSideChainSendRequiresBoundCrossChain(t *testing.T) {
	reg := newTestRegistry()
	priv, owner, err := (Crypto{}).GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	tx := &Transaction{Payer: owner, GasLimit: 1000, Script: EncodeScript(haltScript())}
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("sign: %v", err)
	}
	rt := newTestRuntime(t, NewContractRegistry(), tx)
	c := NewTokenContract(reg, owner)
	createTestToken(t, c, rt, owner, "XFER", 1000, TokenFlags{Fungible: true, Transferable: true})
	if _, err := c.Invoke(rt, "Mint", []VMObject{VMAddress(owner), VMString("XFER"), VMAddress(owner), VMInt(big.NewInt(500))}); err != nil {
		t.Fatalf("mint: %v", err)
	}

	args := []VMObject{VMAddress(owner), VMString("XFER"), VMInt(big.NewInt(100)), VMString("apps"), VMAddress(Address{0x05})}
	if _, err := c.Invoke(rt, "SideChainSend", args); err == nil {
		t.Fatalf("expected failure with no cross-chain contract bound")
	}
}
