package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/mna/esquick/internal/dynbuf"
)

// Bytecode is the binary layout the VM executes (spec §6 "Bytecode binary
// layout (VM)"): raw instructions, a constant pool, an interned-atom pool,
// and the frame's local-variable count. ConstantPool entries are the Go
// values int64/float64/string/bool/nil that lang/machine's loadConstant converts to
// JSValues, the same boundary the teacher's compiler.Program/machine.Thread
// split uses (compiler.Program.Constants []any -> machine.Value by
// makeToplevelFunction).
type Bytecode struct {
	Name          string
	Instructions  []byte
	ConstantPool  []any
	AtomPool      []string
	LocalCount    uint32
	LocalVarNames []string // optional, index-aligned with locals, for diagnostics
	ParamCount    int
	IsGenerator   bool
	IsAsync       bool

	// Captures lists, for a closure template, the name of each free variable
	// FCLOSURE must resolve via the CaptureResolver (spec §4.4.1 "Closure
	// construction"): an index into the defining frame's locals (captured by
	// reference) or into its own Captures (reused from an outer capture).
	Captures []CaptureSpec
}

// CaptureSpec describes one free variable a closure must bind at FCLOSURE
// time (spec §4.4.1 "During construction each free variable captured by the
// template is resolved through the CaptureResolver").
type CaptureSpec struct {
	Name string
	// FromParentLocal is true if this capture binds a local slot of the
	// frame constructing the closure (via getOrCreateLocalVarRef); otherwise
	// it binds an existing VarRef already captured by the constructing
	// frame's own Captures at index ParentIndex.
	FromParentLocal bool
	ParentIndex     uint32
}

// ReadU32 decodes the big-endian 32-bit operand at pc (spec §6 "immediates
// follow in big-endian order").
func ReadU32(code []byte, pc uint32) uint32 {
	return binary.BigEndian.Uint32(code[pc:])
}

func PutU32(code []byte, pc uint32, v uint32) {
	binary.BigEndian.PutUint32(code[pc:], v)
}

// OperandSize is the number of trailing operand bytes for op, fixed at 4
// (this package does not implement the spec's single-byte "short form"
// opcodes — see DESIGN.md).
func OperandSize(op Opcode) int {
	if hasOperand(op) {
		return 4
	}
	return 0
}

// EncodedSize is the total encoded length, opcode byte plus operand.
func EncodedSize(op Opcode) int {
	return 1 + OperandSize(op)
}

// Emit appends op (and, if it takes one, a big-endian 32-bit arg) to code.
func Emit(code []byte, op Opcode, arg uint32) []byte {
	db := dynbuf.New(len(code) + EncodedSize(op))
	db.Write(code)
	db.WriteByte(byte(op))
	if hasOperand(op) {
		db.PutUint32BE(arg)
	}
	return db.Bytes()
}

// Decode reads the opcode and (if present) its operand at pc, returning the
// pc of the next instruction.
func Decode(code []byte, pc uint32) (op Opcode, arg uint32, next uint32, err error) {
	if pc >= uint32(len(code)) {
		return 0, 0, 0, fmt.Errorf("bytecode: pc %d out of range (len %d)", pc, len(code))
	}
	op = Opcode(code[pc])
	if op >= opcodeMax {
		return 0, 0, 0, fmt.Errorf("bytecode: %w", fmt.Errorf("illegal opcode byte %d at pc %d", code[pc], pc))
	}
	next = pc + 1
	if hasOperand(op) {
		if next+4 > uint32(len(code)) {
			return 0, 0, 0, fmt.Errorf("bytecode: truncated operand for %s at pc %d", op, pc)
		}
		arg = ReadU32(code, next)
		next += 4
	}
	return op, arg, next, nil
}
