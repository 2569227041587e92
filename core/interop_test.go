package core

import "testing"

func TestInteropSha256(t *testing.T) {
	rt := NewRuntime(NewContractRegistry(), NewMemStorage().ForkChangeSet(), &Block{}, &Transaction{}, Address{}, NewManualClock(0), 1000, true, "test")
	out, err := interopSha256(rt, []VMObject{VMBytes([]byte("hello"))})
	if err != nil {
		t.Fatalf("sha256: %v", err)
	}
	want := sharedCrypto.Sha256([]byte("hello"))
	if string(out.Bytes) != string(want[:]) {
		t.Fatalf("sha256 mismatch")
	}
}

func TestInteropVerifyRoundTrip(t *testing.T) {
	priv, addr, err := sharedCrypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}
	msg := []byte("payload")
	sig, err := sharedCrypto.Secp256r1Sign(priv, msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rt := NewRuntime(NewContractRegistry(), NewMemStorage().ForkChangeSet(), &Block{}, &Transaction{}, Address{}, NewManualClock(0), 1000, true, "test")
	out, err := interopVerify(rt, []VMObject{VMAddress(addr), VMBytes(msg), VMBytes(sig)})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !out.Bool {
		t.Fatalf("expected signature to verify")
	}
}
