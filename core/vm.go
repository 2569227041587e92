package core

// vm.go – the register/stack bytecode interpreter (§4.1).
//
// Grounded on the prior virtual_machine.go (Execute/Receipt/GasMeter
// loop) and opcode_dispatcher.go (Dispatch pre-charges gas via GasCost
// before running a handler); unlike the prior multi-engine
// superlight/light/heavy selector, chainforge has exactly one interpreter
// since this format defines one bytecode format, not a WASM/EVM tier.

import (
	"fmt"
	"math/big"
)

// ExecutionState is the terminal classification of a VM run (§4.1).
type ExecutionState uint8

const (
	Running ExecutionState = iota
	Halt
	Fault
)

func (s ExecutionState) String() string {
	switch s {
	case Running:
		return "Running"
	case Halt:
		return "Halt"
	case Fault:
		return "Fault"
	default:
		return "Unknown"
	}
}

// StructField is one ordered field of a VTStruct VMObject.
type StructField struct {
	Key   string
	Value VMObject
}

// VMObject is the single tagged-union value type every register, stack
// slot and constant holds.
type VMObject struct {
	Type   VMValueType
	Int    *big.Int
	Bool   bool
	Str    string
	Bytes  []byte
	Addr   Address
	Fields []StructField
}

func VMNil() VMObject                 { return VMObject{Type: VTNil} }
func VMInt(v *big.Int) VMObject       { return VMObject{Type: VTInt, Int: v} }
func VMBool(v bool) VMObject          { return VMObject{Type: VTBool, Bool: v} }
func VMString(v string) VMObject      { return VMObject{Type: VTString, Str: v} }
func VMBytes(v []byte) VMObject       { return VMObject{Type: VTBytes, Bytes: v} }
func VMAddress(v Address) VMObject    { return VMObject{Type: VTAddress, Addr: v} }
func VMContextRef(v Address) VMObject { return VMObject{Type: VTContext, Addr: v} }
func VMStruct(fields []StructField) VMObject {
	return VMObject{Type: VTStruct, Fields: fields}
}

// Truthy reports whether v is considered true by JMPIF/JMPNOT.
func (v VMObject) Truthy() bool {
	switch v.Type {
	case VTBool:
		return v.Bool
	case VTInt:
		return v.Int != nil && v.Int.Sign() != 0
	case VTString:
		return v.Str != ""
	case VTBytes:
		return len(v.Bytes) != 0
	case VTNil:
		return false
	default:
		return true
	}
}

// AsBytes returns a canonical byte view of v for hashing/CAT/LEFT/RIGHT.
func (v VMObject) AsBytes() []byte {
	switch v.Type {
	case VTBytes:
		return v.Bytes
	case VTString:
		return []byte(v.Str)
	case VTAddress:
		return v.Addr.Bytes()
	case VTInt:
		if v.Int == nil {
			return nil
		}
		return v.Int.Bytes()
	default:
		return nil
	}
}

// Script is one compiled unit of bytecode plus its constant pool.
type Script struct {
	Code      []byte
	Constants []VMObject
}

// Frame is a single call-stack entry: its own register file, instruction
// pointer and the context (contract address) it is executing under.
type Frame struct {
	Script    *Script
	IP        int
	Registers [NumRegisters]VMObject
	Context   Address
}

// Invokable is anything CTX/SWITCH/EXTCALL can dispatch a named method to —
// implemented by Runtime-level native contracts.
type Invokable interface {
	Invoke(rt *Runtime, method string, args []VMObject) (VMObject, error)
}

// ContextResolver resolves a 33-byte key into the Invokable bound to it.
// The VM stays decoupled from Runtime-specific contract lookup by going
// through this interface; Runtime.LoadContext is a convenience wrapper
// around the same resolver.
type ContextResolver interface {
	ResolveContext(addr Address) (Invokable, error)
}

// InteropFunc implements a single named host capability invoked via
// EXTCALL.
type InteropFunc func(rt *Runtime, args []VMObject) (VMObject, error)

// VM is the register/stack interpreter. A fresh VM is created per
// transaction (or per read-only invocation) by Runtime.
type VM struct {
	frames []*Frame
	stack  []VMObject

	resolver ContextResolver
	interop  map[string]InteropFunc
	maps     map[string]*Map // namespace -> collection store, keyed by contract

	GasUsed   uint64
	GasLimit  uint64
	GasBypass bool

	State    ExecutionState
	FaultErr error
}

// NewVM constructs a VM bound to resolver/interop and a gas budget.
func NewVM(resolver ContextResolver, interop map[string]InteropFunc, gasLimit uint64, gasBypass bool) *VM {
	if interop == nil {
		interop = map[string]InteropFunc{}
	}
	return &VM{
		resolver:  resolver,
		interop:   interop,
		maps:      map[string]*Map{},
		GasLimit:  gasLimit,
		GasBypass: gasBypass,
		State:     Running,
	}
}

// errStackUnderflow etc. are wrapped into Fault state, never returned to
// callers directly — Run always returns normally and the caller inspects
// vm.State/vm.FaultErr.
var (
	errStackUnderflow  = fmt.Errorf("vm: stack underflow")
	errBadOpcode       = fmt.Errorf("vm: bad opcode")
	errTypeMismatch    = fmt.Errorf("vm: type mismatch")
	errBoundsViolation = fmt.Errorf("vm: bounds violation")
	errDivByZero       = fmt.Errorf("vm: division by zero")
	errOutOfGas        = fmt.Errorf("vm: out of gas")
	errBadJump         = fmt.Errorf("vm: jump out of range")
)

func (vm *VM) fault(err error) {
	vm.State = Fault
	vm.FaultErr = err
}

func (vm *VM) frame() *Frame {
	if len(vm.frames) == 0 {
		return nil
	}
	return vm.frames[len(vm.frames)-1]
}

func (vm *VM) push(v VMObject) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (VMObject, bool) {
	if len(vm.stack) == 0 {
		return VMObject{}, false
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, true
}

func (vm *VM) popN(n int) ([]VMObject, bool) {
	if len(vm.stack) < n {
		return nil, false
	}
	out := make([]VMObject, n)
	copy(out, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return out, true
}

// Run executes script under contractAddr until Halt or Fault. The outermost
// frame starts with every register nil; Run takes no arguments to seed them.
func (vm *VM) Run(script *Script, contractAddr Address) {
	vm.frames = append(vm.frames, &Frame{Script: script, Context: contractAddr})
	vm.loop()
}

func (vm *VM) chargeGas(op Opcode) bool {
	if vm.GasBypass {
		return true
	}
	vm.GasUsed += GasCost(op)
	if vm.GasUsed > vm.GasLimit {
		vm.fault(errOutOfGas)
		return false
	}
	return true
}

func (vm *VM) loop() {
	for vm.State == Running {
		f := vm.frame()
		if f == nil {
			vm.State = Halt
			return
		}
		if f.IP >= len(f.Script.Code) {
			// implicit return at end of script
			if !vm.doReturn(VMNil()) {
				return
			}
			continue
		}
		op := Opcode(f.Script.Code[f.IP])
		if !op.Valid() {
			vm.fault(errBadOpcode)
			return
		}
		if !vm.chargeGas(op) {
			return
		}
		f.IP++
		vm.dispatch(op, f)
	}
}

func (vm *VM) readU8(f *Frame) (uint8, bool) {
	if f.IP >= len(f.Script.Code) {
		vm.fault(errBoundsViolation)
		return 0, false
	}
	b := f.Script.Code[f.IP]
	f.IP++
	return b, true
}

func (vm *VM) readU16(f *Frame) (uint16, bool) {
	if f.IP+2 > len(f.Script.Code) {
		vm.fault(errBoundsViolation)
		return 0, false
	}
	v := uint16(f.Script.Code[f.IP]) | uint16(f.Script.Code[f.IP+1])<<8
	f.IP += 2
	return v, true
}

func (vm *VM) readI16(f *Frame) (int16, bool) {
	v, ok := vm.readU16(f)
	return int16(v), ok
}

func (vm *VM) readVarBytes(f *Frame, max int) ([]byte, bool) {
	r := NewReader(f.Script.Code[f.IP:])
	b, err := r.ReadBytes()
	if err != nil {
		vm.fault(errBoundsViolation)
		return nil, false
	}
	if max > 0 && len(b) > max {
		vm.fault(errBoundsViolation)
		return nil, false
	}
	f.IP += len(f.Script.Code[f.IP:]) - r.Remaining()
	return b, true
}

func (vm *VM) reg(f *Frame, idx uint8) *VMObject {
	return &f.Registers[int(idx)%NumRegisters]
}

func (vm *VM) constant(f *Frame, idx uint16) (VMObject, bool) {
	if int(idx) >= len(f.Script.Constants) {
		vm.fault(errBoundsViolation)
		return VMObject{}, false
	}
	return f.Script.Constants[idx], true
}

// doReturn pops the current frame, pushes retVal onto the caller's view of
// the evaluation stack and reports whether execution should continue.
func (vm *VM) doReturn(retVal VMObject) bool {
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.push(retVal)
	if len(vm.frames) == 0 {
		vm.State = Halt
		return false
	}
	return true
}

func (vm *VM) collection(contract Address, name string) *Map {
	key := contract.String() + ":" + name
	m, ok := vm.maps[key]
	if !ok {
		return nil
	}
	return m
}

// BindCollection wires a Map (backed by the transaction's ChangeSet) as the
// storage namespace "name" visible to contract's PUT/GET opcodes.
func (vm *VM) BindCollection(contract Address, name string, m *Map) {
	vm.maps[contract.String()+":"+name] = m
}

func arith(vm *VM, op Opcode, a, b *big.Int) *big.Int {
	r := new(big.Int)
	switch op {
	case OpADD:
		r.Add(a, b)
	case OpSUB:
		r.Sub(a, b)
	case OpMUL:
		r.Mul(a, b)
	case OpDIV:
		if b.Sign() == 0 {
			vm.fault(errDivByZero)
			return nil
		}
		r.Quo(a, b)
	case OpMOD:
		if b.Sign() == 0 {
			vm.fault(errDivByZero)
			return nil
		}
		r.Mod(a, b)
	case OpSHL:
		r.Lsh(a, uint(b.Uint64()))
	case OpSHR:
		r.Rsh(a, uint(b.Uint64()))
	case OpMIN:
		if a.Cmp(b) <= 0 {
			r.Set(a)
		} else {
			r.Set(b)
		}
	case OpMAX:
		if a.Cmp(b) >= 0 {
			r.Set(a)
		} else {
			r.Set(b)
		}
	}
	return r
}

func (vm *VM) dispatch(op Opcode, f *Frame) {
	switch op {
	case OpNOP:

	case OpMOVE, OpCOPY:
		src, ok1 := vm.readU8(f)
		dst, ok2 := vm.readU8(f)
		if !ok1 || !ok2 {
			return
		}
		*vm.reg(f, dst) = *vm.reg(f, src)

	case OpSWAP:
		a, ok1 := vm.readU8(f)
		b, ok2 := vm.readU8(f)
		if !ok1 || !ok2 {
			return
		}
		ra, rb := vm.reg(f, a), vm.reg(f, b)
		*ra, *rb = *rb, *ra

	case OpLOAD:
		dst, ok1 := vm.readU8(f)
		typ, ok2 := vm.readU8(f)
		if !ok1 || !ok2 {
			return
		}
		payload, ok3 := vm.readVarBytes(f, MaxLoadPayload)
		if !ok3 {
			return
		}
		v, err := decodeLoadPayload(VMValueType(typ), payload)
		if err != nil {
			vm.fault(errTypeMismatch)
			return
		}
		*vm.reg(f, dst) = v

	case OpPUSH:
		src, ok := vm.readU8(f)
		if !ok {
			return
		}
		vm.push(*vm.reg(f, src))

	case OpPOP:
		dst, ok := vm.readU8(f)
		if !ok {
			return
		}
		v, ok := vm.pop()
		if !ok {
			vm.fault(errStackUnderflow)
			return
		}
		*vm.reg(f, dst) = v

	case OpADD, OpSUB, OpMUL, OpDIV, OpMOD, OpSHL, OpSHR, OpMIN, OpMAX:
		srcA, ok1 := vm.readU8(f)
		srcB, ok2 := vm.readU8(f)
		dst, ok3 := vm.readU8(f)
		if !ok1 || !ok2 || !ok3 {
			return
		}
		a, b := vm.reg(f, srcA), vm.reg(f, srcB)
		if a.Type != VTInt || b.Type != VTInt || a.Int == nil || b.Int == nil {
			vm.fault(errTypeMismatch)
			return
		}
		r := arith(vm, op, a.Int, b.Int)
		if vm.State != Running {
			return
		}
		*vm.reg(f, dst) = VMInt(r)

	case OpINC, OpDEC, OpNEGATE, OpABS, OpSIGN, OpNOT, OpSIZE:
		src, ok1 := vm.readU8(f)
		dst, ok2 := vm.readU8(f)
		if !ok1 || !ok2 {
			return
		}
		r := vm.reg(f, src)
		out, err := unaryOp(op, *r)
		if err != nil {
			vm.fault(err)
			return
		}
		*vm.reg(f, dst) = out

	case OpAND, OpOR, OpXOR:
		srcA, ok1 := vm.readU8(f)
		srcB, ok2 := vm.readU8(f)
		dst, ok3 := vm.readU8(f)
		if !ok1 || !ok2 || !ok3 {
			return
		}
		a, b := vm.reg(f, srcA), vm.reg(f, srcB)
		if a.Type != VTBool || b.Type != VTBool {
			vm.fault(errTypeMismatch)
			return
		}
		var r bool
		switch op {
		case OpAND:
			r = a.Bool && b.Bool
		case OpOR:
			r = a.Bool || b.Bool
		case OpXOR:
			r = a.Bool != b.Bool
		}
		*vm.reg(f, dst) = VMBool(r)

	case OpEQUAL, OpLT, OpLTE, OpGT, OpGTE:
		srcA, ok1 := vm.readU8(f)
		srcB, ok2 := vm.readU8(f)
		dst, ok3 := vm.readU8(f)
		if !ok1 || !ok2 || !ok3 {
			return
		}
		r, err := compareOp(op, *vm.reg(f, srcA), *vm.reg(f, srcB))
		if err != nil {
			vm.fault(err)
			return
		}
		*vm.reg(f, dst) = VMBool(r)

	case OpCAT:
		srcA, ok1 := vm.readU8(f)
		srcB, ok2 := vm.readU8(f)
		dst, ok3 := vm.readU8(f)
		if !ok1 || !ok2 || !ok3 {
			return
		}
		out := append(append([]byte{}, vm.reg(f, srcA).AsBytes()...), vm.reg(f, srcB).AsBytes()...)
		*vm.reg(f, dst) = VMBytes(out)

	case OpLEFT, OpRIGHT:
		src, ok1 := vm.readU8(f)
		dst, ok2 := vm.readU8(f)
		length, ok3 := vm.readU16(f)
		if !ok1 || !ok2 || !ok3 {
			return
		}
		b := vm.reg(f, src).AsBytes()
		n := int(length)
		if n > len(b) {
			vm.fault(errBoundsViolation)
			return
		}
		if op == OpLEFT {
			*vm.reg(f, dst) = VMBytes(append([]byte{}, b[:n]...))
		} else {
			*vm.reg(f, dst) = VMBytes(append([]byte{}, b[len(b)-n:]...))
		}

	case OpJMP:
		off, ok := vm.readI16(f)
		if !ok {
			return
		}
		vm.applyJump(f, f.IP-3, off) // opcode + i16 already consumed

	case OpJMPIF, OpJMPNOT:
		cond, ok1 := vm.readU8(f)
		off, ok2 := vm.readI16(f)
		if !ok1 || !ok2 {
			return
		}
		truthy := vm.reg(f, cond).Truthy()
		if (op == OpJMPIF && truthy) || (op == OpJMPNOT && !truthy) {
			vm.applyJump(f, f.IP-4, off) // opcode + cond + i16 already consumed
		}

	case OpCALL:
		regCount, ok1 := vm.readU8(f)
		off, ok2 := vm.readI16(f)
		if !ok1 || !ok2 {
			return
		}
		args, ok := vm.popN(int(regCount))
		if !ok {
			vm.fault(errStackUnderflow)
			return
		}
		nf := &Frame{Script: f.Script, Context: f.Context}
		for i, a := range args {
			if i >= NumRegisters {
				break
			}
			nf.Registers[i] = a
		}
		base := f.IP - 4 // opcode + regCount + i16 already consumed; offset is relative to the instruction start, as for JMP
		target := int(base) + int(off)
		if target < 0 || target > len(f.Script.Code) {
			vm.fault(errBadJump)
			return
		}
		nf.IP = target
		vm.frames = append(vm.frames, nf)

	case OpRET:
		src, ok := vm.readU8(f)
		if !ok {
			return
		}
		ret := *vm.reg(f, src)
		vm.doReturn(ret)

	case OpTHROW:
		src, ok := vm.readU8(f)
		if !ok {
			return
		}
		payload := vm.reg(f, src).AsBytes()
		if len(payload) > MaxThrowPayload {
			vm.fault(errBoundsViolation)
			return
		}
		vm.fault(fmt.Errorf("vm: throw: %s", string(payload)))

	case OpCTX:
		src, ok1 := vm.readU8(f)
		dst, ok2 := vm.readU8(f)
		if !ok1 || !ok2 {
			return
		}
		addrObj := vm.reg(f, src)
		if addrObj.Type != VTAddress {
			vm.fault(errTypeMismatch)
			return
		}
		if vm.resolver == nil {
			vm.fault(fmt.Errorf("vm: no context resolver bound"))
			return
		}
		if _, err := vm.resolver.ResolveContext(addrObj.Addr); err != nil {
			vm.fault(err)
			return
		}
		*vm.reg(f, dst) = VMContextRef(addrObj.Addr)

	case OpSWITCH:
		ctxReg, ok1 := vm.readU8(f)
		methodIdx, ok2 := vm.readU16(f)
		argc, ok3 := vm.readU8(f)
		if !ok1 || !ok2 || !ok3 {
			return
		}
		ctxObj := vm.reg(f, ctxReg)
		if ctxObj.Type != VTContext {
			vm.fault(errTypeMismatch)
			return
		}
		methodObj, ok := vm.constant(f, methodIdx)
		if !ok {
			return
		}
		if methodObj.Type != VTString {
			vm.fault(errTypeMismatch)
			return
		}
		args, ok := vm.popN(int(argc))
		if !ok {
			vm.fault(errStackUnderflow)
			return
		}
		if vm.resolver == nil {
			vm.fault(fmt.Errorf("vm: no context resolver bound"))
			return
		}
		target, err := vm.resolver.ResolveContext(ctxObj.Addr)
		if err != nil {
			vm.fault(err)
			return
		}
		result, err := vm.invokeTarget(target, methodObj.Str, args)
		if err != nil {
			vm.fault(err)
			return
		}
		vm.push(result)

	case OpEXTCALL:
		nameIdx, ok1 := vm.readU16(f)
		argc, ok2 := vm.readU8(f)
		if !ok1 || !ok2 {
			return
		}
		nameObj, ok := vm.constant(f, nameIdx)
		if !ok {
			return
		}
		if nameObj.Type != VTString {
			vm.fault(errTypeMismatch)
			return
		}
		fn, found := vm.interop[nameObj.Str]
		if !found {
			vm.fault(fmt.Errorf("vm: unknown interop %q", nameObj.Str))
			return
		}
		args, ok := vm.popN(int(argc))
		if !ok {
			vm.fault(errStackUnderflow)
			return
		}
		result, err := vm.invokeInterop(fn, args)
		if err != nil {
			vm.fault(err)
			return
		}
		vm.push(result)

	case OpTHIS:
		dst, ok := vm.readU8(f)
		if !ok {
			return
		}
		*vm.reg(f, dst) = VMAddress(f.Context)

	case OpPUT:
		keyReg, ok1 := vm.readU8(f)
		mapReg, ok2 := vm.readU8(f)
		valReg, ok3 := vm.readU8(f)
		if !ok1 || !ok2 || !ok3 {
			return
		}
		mapObj := vm.reg(f, mapReg)
		if mapObj.Type != VTString {
			vm.fault(errTypeMismatch)
			return
		}
		m := vm.collection(f.Context, mapObj.Str)
		if m == nil {
			vm.fault(fmt.Errorf("vm: unbound collection %q", mapObj.Str))
			return
		}
		w := NewWriter()
		encodeVMObject(w, *vm.reg(f, valReg))
		m.Set(vm.reg(f, keyReg).AsBytes(), w.Bytes())

	case OpGET:
		keyReg, ok1 := vm.readU8(f)
		mapReg, ok2 := vm.readU8(f)
		dstReg, ok3 := vm.readU8(f)
		if !ok1 || !ok2 || !ok3 {
			return
		}
		mapObj := vm.reg(f, mapReg)
		if mapObj.Type != VTString {
			vm.fault(errTypeMismatch)
			return
		}
		m := vm.collection(f.Context, mapObj.Str)
		if m == nil {
			vm.fault(fmt.Errorf("vm: unbound collection %q", mapObj.Str))
			return
		}
		raw, found := m.Get(vm.reg(f, keyReg).AsBytes())
		if !found {
			*vm.reg(f, dstReg) = VMNil()
			return
		}
		v, err := decodeVMObject(NewReader(raw))
		if err != nil {
			vm.fault(errTypeMismatch)
			return
		}
		*vm.reg(f, dstReg) = v

	default:
		vm.fault(errBadOpcode)
	}
}

// applyJump treats off as relative to the start of the just-decoded
// instruction (the opcode byte), matching a disassembler's natural offset
// base.
func (vm *VM) applyJump(f *Frame, start int, off int16) {
	// f.IP already points past opcode+operands; start is the instruction start.
	target := start + int(off)
	if target < 0 || target > len(f.Script.Code) {
		vm.fault(errBadJump)
		return
	}
	f.IP = target
}

// invokeTarget and invokeInterop exist as seams so Runtime can wrap them
// (e.g. to append audit Events) without VM needing to know about Events.
func (vm *VM) invokeTarget(target Invokable, method string, args []VMObject) (VMObject, error) {
	rt, _ := vm.resolver.(*Runtime)
	return target.Invoke(rt, method, args)
}

func (vm *VM) invokeInterop(fn InteropFunc, args []VMObject) (VMObject, error) {
	rt, _ := vm.resolver.(*Runtime)
	return fn(rt, args)
}

func unaryOp(op Opcode, v VMObject) (VMObject, error) {
	switch op {
	case OpINC, OpDEC:
		if v.Type != VTInt || v.Int == nil {
			return VMObject{}, errTypeMismatch
		}
		r := new(big.Int).Set(v.Int)
		if op == OpINC {
			r.Add(r, big.NewInt(1))
		} else {
			r.Sub(r, big.NewInt(1))
		}
		return VMInt(r), nil
	case OpNEGATE:
		if v.Type != VTInt || v.Int == nil {
			return VMObject{}, errTypeMismatch
		}
		return VMInt(new(big.Int).Neg(v.Int)), nil
	case OpABS:
		if v.Type != VTInt || v.Int == nil {
			return VMObject{}, errTypeMismatch
		}
		return VMInt(new(big.Int).Abs(v.Int)), nil
	case OpSIGN:
		if v.Type != VTInt || v.Int == nil {
			return VMObject{}, errTypeMismatch
		}
		return VMInt(big.NewInt(int64(v.Int.Sign()))), nil
	case OpNOT:
		if v.Type != VTBool {
			return VMObject{}, errTypeMismatch
		}
		return VMBool(!v.Bool), nil
	case OpSIZE:
		switch v.Type {
		case VTBytes:
			return VMInt(big.NewInt(int64(len(v.Bytes)))), nil
		case VTString:
			return VMInt(big.NewInt(int64(len(v.Str)))), nil
		case VTStruct:
			return VMInt(big.NewInt(int64(len(v.Fields)))), nil
		default:
			return VMObject{}, errTypeMismatch
		}
	}
	return VMObject{}, errBadOpcode
}

func compareOp(op Opcode, a, b VMObject) (bool, error) {
	if op == OpEQUAL {
		return vmObjectEqual(a, b), nil
	}
	if a.Type != VTInt || b.Type != VTInt || a.Int == nil || b.Int == nil {
		return false, errTypeMismatch
	}
	c := a.Int.Cmp(b.Int)
	switch op {
	case OpLT:
		return c < 0, nil
	case OpLTE:
		return c <= 0, nil
	case OpGT:
		return c > 0, nil
	case OpGTE:
		return c >= 0, nil
	}
	return false, errBadOpcode
}

func vmObjectEqual(a, b VMObject) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case VTNil:
		return true
	case VTInt:
		if a.Int == nil || b.Int == nil {
			return a.Int == b.Int
		}
		return a.Int.Cmp(b.Int) == 0
	case VTBool:
		return a.Bool == b.Bool
	case VTString:
		return a.Str == b.Str
	case VTBytes:
		if len(a.Bytes) != len(b.Bytes) {
			return false
		}
		for i := range a.Bytes {
			if a.Bytes[i] != b.Bytes[i] {
				return false
			}
		}
		return true
	case VTAddress:
		return a.Addr == b.Addr
	case VTContext:
		return a.Addr == b.Addr
	default:
		return false
	}
}

func decodeLoadPayload(typ VMValueType, payload []byte) (VMObject, error) {
	switch typ {
	case VTInt:
		r := NewReader(payload)
		v, err := r.ReadBigInt()
		if err != nil {
			return VMObject{}, err
		}
		return VMInt(v), nil
	case VTBool:
		if len(payload) != 1 {
			return VMObject{}, errTypeMismatch
		}
		return VMBool(payload[0] != 0), nil
	case VTString:
		return VMString(string(payload)), nil
	case VTBytes:
		return VMBytes(payload), nil
	case VTAddress:
		a, err := AddressFromBytes(payload)
		if err != nil {
			return VMObject{}, err
		}
		return VMAddress(a), nil
	case VTNil:
		return VMNil(), nil
	default:
		return VMObject{}, errTypeMismatch
	}
}

// encodeVMObject/decodeVMObject serialize a value for PUT/GET storage,
// reusing the canonical Writer/Reader codec.
func encodeVMObject(w *Writer, v VMObject) {
	w.WriteUint8(uint8(v.Type))
	switch v.Type {
	case VTInt:
		w.WriteBigInt(v.Int)
	case VTBool:
		w.WriteBool(v.Bool)
	case VTString:
		w.WriteString(v.Str)
	case VTBytes:
		w.WriteBytes(v.Bytes)
	case VTAddress, VTContext:
		w.WriteAddress(v.Addr)
	case VTStruct:
		w.WriteVarLen(uint64(len(v.Fields)))
		for _, fld := range v.Fields {
			w.WriteString(fld.Key)
			encodeVMObject(w, fld.Value)
		}
	}
}

func decodeVMObject(r *Reader) (VMObject, error) {
	typB, err := r.ReadUint8()
	if err != nil {
		return VMObject{}, err
	}
	typ := VMValueType(typB)
	switch typ {
	case VTNil:
		return VMNil(), nil
	case VTInt:
		v, err := r.ReadBigInt()
		if err != nil {
			return VMObject{}, err
		}
		return VMInt(v), nil
	case VTBool:
		v, err := r.ReadBool()
		if err != nil {
			return VMObject{}, err
		}
		return VMBool(v), nil
	case VTString:
		v, err := r.ReadString()
		if err != nil {
			return VMObject{}, err
		}
		return VMString(v), nil
	case VTBytes:
		v, err := r.ReadBytes()
		if err != nil {
			return VMObject{}, err
		}
		return VMBytes(v), nil
	case VTAddress:
		v, err := r.ReadAddress()
		if err != nil {
			return VMObject{}, err
		}
		return VMAddress(v), nil
	case VTContext:
		v, err := r.ReadAddress()
		if err != nil {
			return VMObject{}, err
		}
		return VMContextRef(v), nil
	case VTStruct:
		n, err := r.ReadVarLen()
		if err != nil {
			return VMObject{}, err
		}
		fields := make([]StructField, 0, n)
		for i := uint64(0); i < n; i++ {
			key, err := r.ReadString()
			if err != nil {
				return VMObject{}, err
			}
			val, err := decodeVMObject(r)
			if err != nil {
				return VMObject{}, err
			}
			fields = append(fields, StructField{Key: key, Value: val})
		}
		return VMStruct(fields), nil
	default:
		return VMObject{}, errTypeMismatch
	}
}
