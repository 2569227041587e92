package core

// interop.go – the EXTCALL host-function table (§4.1: "EXTCALL invokes a
// named host capability outside the contract-dispatch path").
//
// Grounded on the prior opcode-level hashing/signature primitives
// (virtual_machine.go's SHA256/RIPEMD160 opcodes) but moved behind the
// interop table instead of dedicated opcodes, since §4.1 defines exactly
// one such escape hatch (EXTCALL) rather than one opcode per primitive.

import "fmt"

var sharedCrypto = Crypto{}

// DefaultInteropTable returns the host capabilities every Runtime exposes
// to EXTCALL: the hash and signature primitives scripts cannot otherwise
// reach, since the VM's own opcode set is deliberately primitive-free of
// cryptography (§4.1).
func DefaultInteropTable() map[string]InteropFunc {
	return map[string]InteropFunc{
		"crypto.sha256":    interopSha256,
		"crypto.ripemd160": interopRipemd160,
		"crypto.verify":    interopVerify,
	}
}

func interopSha256(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 1 || args[0].Type != VTBytes {
		return VMObject{}, fmt.Errorf("interop: crypto.sha256 wants 1 bytes arg")
	}
	h := sharedCrypto.Sha256(args[0].Bytes)
	return VMBytes(h[:]), nil
}

func interopRipemd160(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 1 || args[0].Type != VTBytes {
		return VMObject{}, fmt.Errorf("interop: crypto.ripemd160 wants 1 bytes arg")
	}
	return VMBytes(sharedCrypto.Ripemd160(args[0].Bytes)), nil
}

// interopVerify checks args[2] (DER signature) over args[1] (message) under
// the secp256r1 public key encoded in address args[0].
func interopVerify(rt *Runtime, args []VMObject) (VMObject, error) {
	if len(args) != 3 || args[0].Type != VTAddress || args[1].Type != VTBytes || args[2].Type != VTBytes {
		return VMObject{}, fmt.Errorf("interop: crypto.verify wants (address, bytes, bytes)")
	}
	ok := sharedCrypto.Secp256r1Verify(args[0].Addr, args[1].Bytes, args[2].Bytes)
	return VMBool(ok), nil
}
