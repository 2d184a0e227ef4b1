package bytecode

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// This file implements a human-readable/writable textual form of a Bytecode,
// mirroring the teacher's lang/compiler/asm.go: a section-ordered format
// parsed line-by-line into fields, used to exercise lang/machine with
// hand-assembled programs without requiring the (out-of-scope, per spec §1)
// AST-to-bytecode compiler.
//
// function: NAME <localCount> <params> [+generator] [+async]
//   locals:
//     x
//   captures:
//     y local 0        # captures frame local 0 by reference
//     z outer 1         # reuses the constructing frame's own capture 1
//   atoms:
//     name
//   constants:
//     string "abc"
//     int    1234
//     float  1.34
//   code:
//     nop
//     push_const 0
//     get_loc 0
//     add
//     return

var sections = map[string]bool{
	"function:":  true,
	"locals:":    true,
	"captures:":  true,
	"atoms:":     true,
	"constants:": true,
	"code:":      true,
}

// Assemble parses the textual assembler form of a single Bytecode.
func Assemble(b []byte) (*Bytecode, error) {
	a := &asm{s: bufio.NewScanner(bytes.NewReader(b))}
	fields := a.next()
	a.function(fields)
	if a.err == nil && a.bc == nil {
		a.err = errors.New("missing function: section")
	}
	return a.bc, a.err
}

type asm struct {
	s       *bufio.Scanner
	rawLine string
	bc      *Bytecode
	err     error
}

func (a *asm) function(fields []string) {
	if a.err != nil {
		return
	}
	if len(fields) == 0 || !strings.EqualFold(fields[0], "function:") {
		msg := "expected function: section"
		if len(fields) > 0 {
			msg += ", found " + fields[0]
		}
		a.err = errors.New(msg)
		return
	}
	if len(fields) < 4 {
		a.err = fmt.Errorf("invalid function: want at least 4 fields, got %d", len(fields))
		return
	}
	bc := &Bytecode{
		Name:        fields[1],
		LocalCount:  uint32(a.uint(fields[2])),
		ParamCount:  int(a.uint(fields[3])),
		IsGenerator: a.option(fields[4:], "generator"),
		IsAsync:     a.option(fields[4:], "async"),
	}
	a.bc = bc

	fields = a.next()
	fields = a.locals(fields)
	fields = a.captures(fields)
	fields = a.atoms(fields)
	fields = a.constants(fields)
	fields = a.code(fields)

	if a.err == nil && len(fields) > 0 {
		a.err = fmt.Errorf("unexpected section: %s", fields[0])
	}
}

func (a *asm) locals(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "locals:") {
		return fields
	}
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		a.bc.LocalVarNames = append(a.bc.LocalVarNames, fields[0])
	}
	return fields
}

func (a *asm) captures(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "captures:") {
		return fields
	}
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		if len(fields) != 3 {
			a.err = fmt.Errorf("invalid capture: expected name, kind and index, got %d fields", len(fields))
			return fields
		}
		spec := CaptureSpec{Name: fields[0], ParentIndex: uint32(a.uint(fields[2]))}
		switch fields[1] {
		case "local":
			spec.FromParentLocal = true
		case "outer":
			spec.FromParentLocal = false
		default:
			a.err = fmt.Errorf("invalid capture kind: %s (want local|outer)", fields[1])
			return fields
		}
		a.bc.Captures = append(a.bc.Captures, spec)
	}
	return fields
}

func (a *asm) atoms(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "atoms:") {
		return fields
	}
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		a.bc.AtomPool = append(a.bc.AtomPool, fields[0])
	}
	return fields
}

var rxConstString = regexp.MustCompile(`^\s*string\s+(.+)$`)

func (a *asm) constants(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "constants:") {
		return fields
	}
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		strVal := rxConstString.FindStringSubmatch(a.rawLine)
		if strVal == nil && len(fields) != 2 {
			a.err = fmt.Errorf("invalid constant: expected type and value, got %d fields", len(fields))
			return fields
		}
		switch fields[0] {
		case "int":
			a.bc.ConstantPool = append(a.bc.ConstantPool, a.int(fields[1]))
		case "float":
			f, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				a.err = fmt.Errorf("invalid float %q: %w", fields[1], err)
				return fields
			}
			a.bc.ConstantPool = append(a.bc.ConstantPool, f)
		case "bool":
			a.bc.ConstantPool = append(a.bc.ConstantPool, fields[1] == "true")
		case "null":
			a.bc.ConstantPool = append(a.bc.ConstantPool, nil)
		case "string":
			qs, err := strconv.QuotedPrefix(strVal[1])
			if err != nil {
				a.err = fmt.Errorf("invalid string %q: %w", strVal[1], err)
				return fields
			}
			s, err := strconv.Unquote(qs)
			if err != nil {
				a.err = fmt.Errorf("invalid string %q: %w", qs, err)
				return fields
			}
			a.bc.ConstantPool = append(a.bc.ConstantPool, s)
		default:
			a.err = fmt.Errorf("invalid constant type: %s", fields[0])
			return fields
		}
	}
	return fields
}

func (a *asm) code(fields []string) []string {
	if a.err != nil {
		return fields
	}
	if len(fields) == 0 || !strings.EqualFold(fields[0], "code:") {
		msg := "expected code section"
		if len(fields) > 0 {
			msg += ", found " + fields[0]
		}
		a.err = errors.New(msg)
		return fields
	}

	type insn struct {
		op  Opcode
		arg uint32
	}
	var insns []insn
	var indexToAddr []int
	var addr int
	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		op, ok := reverseLookupOpcode[strings.ToLower(fields[0])]
		if !ok {
			a.err = fmt.Errorf("invalid opcode: %s", fields[0])
			return fields
		}
		var arg uint32
		if hasOperand(op) {
			if len(fields) != 2 {
				a.err = fmt.Errorf("expected an argument for opcode %s, got %d fields", fields[0], len(fields))
				return fields
			}
			arg = uint32(a.uint(fields[1]))
		} else if len(fields) != 1 {
			a.err = fmt.Errorf("expected no argument for opcode %s, got %d fields", fields[0], len(fields))
			return fields
		}
		insns = append(insns, insn{op: op, arg: arg})
		indexToAddr = append(indexToAddr, addr)
		addr += EncodedSize(op)
	}

	for _, in := range insns {
		op, arg := in.op, in.arg
		if isJump(op) {
			if arg >= uint32(len(indexToAddr)) {
				a.err = fmt.Errorf("invalid jump index %d for %s", arg, op)
				return fields
			}
			arg = uint32(indexToAddr[arg])
		}
		a.bc.Instructions = Emit(a.bc.Instructions, op, arg)
	}
	return fields
}

func (a *asm) option(fields []string, opt string) bool {
	for _, fld := range fields {
		if fld == "+"+opt {
			return true
		}
	}
	return false
}

func (a *asm) int(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		a.err = fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return i
}

func (a *asm) uint(s string) uint64 {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		a.err = fmt.Errorf("invalid unsigned integer %q: %w", s, err)
	}
	return u
}

func (a *asm) next() []string {
	a.rawLine = ""
	if a.err != nil {
		return nil
	}
	for a.s.Scan() {
		line := a.s.Text()
		fields := strings.Fields(line)
		if len(fields) != 0 && !strings.HasPrefix(fields[0], "#") {
			for i, fld := range fields {
				if strings.HasPrefix(fld, "#") {
					fields = fields[:i]
					break
				}
			}
			a.rawLine = line
			return fields
		}
	}
	a.err = a.s.Err()
	return nil
}
