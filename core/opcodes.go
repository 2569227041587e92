package core

// opcodes.go – bytecode instruction set for the register/stack VM (§4.1).
//
// Grounded on the prior vm_opcodes.go (a bare `const ... Opcode = iota`
// block) and opcode_dispatcher.go's switch-based dispatch, filled out with
// its full instruction table. Register operands are a single byte
// (0-31); jump offsets are signed 16-bit; LOAD payloads are
// var-length-prefixed per the serialization.go convention, and THROW takes
// its message from a register.
type Opcode uint8

const (
	OpNOP Opcode = iota

	// Data movement
	OpMOVE
	OpCOPY
	OpSWAP

	// Load literal
	OpLOAD

	// Stack
	OpPUSH
	OpPOP

	// Arithmetic
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpMOD
	OpSHL
	OpSHR
	OpMIN
	OpMAX

	// Unary
	OpINC
	OpDEC
	OpNEGATE
	OpABS
	OpSIGN
	OpNOT
	OpSIZE

	// Logical / compare
	OpAND
	OpOR
	OpXOR
	OpEQUAL
	OpLT
	OpLTE
	OpGT
	OpGTE

	// Bytes
	OpCAT
	OpLEFT
	OpRIGHT

	// Control
	OpJMP
	OpJMPIF
	OpJMPNOT
	OpCALL
	OpRET
	OpTHROW

	// Context / interop
	OpCTX
	OpSWITCH
	OpEXTCALL
	OpTHIS

	// Collections
	OpPUT
	OpGET

	opcodeCount
)

var opcodeNames = map[Opcode]string{
	OpNOP:     "NOP",
	OpMOVE:    "MOVE",
	OpCOPY:    "COPY",
	OpSWAP:    "SWAP",
	OpLOAD:    "LOAD",
	OpPUSH:    "PUSH",
	OpPOP:     "POP",
	OpADD:     "ADD",
	OpSUB:     "SUB",
	OpMUL:     "MUL",
	OpDIV:     "DIV",
	OpMOD:     "MOD",
	OpSHL:     "SHL",
	OpSHR:     "SHR",
	OpMIN:     "MIN",
	OpMAX:     "MAX",
	OpINC:     "INC",
	OpDEC:     "DEC",
	OpNEGATE:  "NEGATE",
	OpABS:     "ABS",
	OpSIGN:    "SIGN",
	OpNOT:     "NOT",
	OpSIZE:    "SIZE",
	OpAND:     "AND",
	OpOR:      "OR",
	OpXOR:     "XOR",
	OpEQUAL:   "EQUAL",
	OpLT:      "LT",
	OpLTE:     "LTE",
	OpGT:      "GT",
	OpGTE:     "GTE",
	OpCAT:     "CAT",
	OpLEFT:    "LEFT",
	OpRIGHT:   "RIGHT",
	OpJMP:     "JMP",
	OpJMPIF:   "JMPIF",
	OpJMPNOT:  "JMPNOT",
	OpCALL:    "CALL",
	OpRET:     "RET",
	OpTHROW:   "THROW",
	OpCTX:     "CTX",
	OpSWITCH:  "SWITCH",
	OpEXTCALL: "EXTCALL",
	OpTHIS:    "THIS",
	OpPUT:     "PUT",
	OpGET:     "GET",
}

// String renders the opcode mnemonic, or "UNKNOWN" for an unpriced byte.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether op is a recognised instruction.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}

// NumRegisters is the fixed register file size per call frame (§4.1).
const NumRegisters = 32

// MaxLoadPayload and MaxThrowPayload bound the var-length payloads of LOAD
// and THROW respectively (§4.1).
const (
	MaxLoadPayload  = 4095
	MaxThrowPayload = 1024
)

// VMValueType tags the dynamic type of a VMObject register value.
type VMValueType uint8

const (
	VTNil VMValueType = iota
	VTInt
	VTBool
	VTString
	VTBytes
	VTAddress
	VTStruct
	VTContext
)
