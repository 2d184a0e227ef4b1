package regexp

import (
	"encoding/binary"
	"fmt"

	"github.com/mna/esquick/internal/dynbuf"
)

// Flags is the bitset recorded in Bytecode.Flags (spec §3.2 "Flag bits").
type Flags uint32

const (
	FlagGlobal Flags = 1 << iota
	FlagIgnoreCase
	FlagMultiline
	FlagDotAll
	FlagUnicode
	FlagSticky
	FlagIndices
	FlagNamedGroups
	FlagUnicodeSets
)

// ParseFlags accepts exactly "g i m s u y d v", each at most once, with u
// and v mutually exclusive (spec §4.2 "Phase 1: flag parsing").
func ParseFlags(s string) (Flags, error) {
	var f Flags
	seen := make(map[rune]bool, len(s))
	for _, r := range s {
		if seen[r] {
			return 0, fmt.Errorf("regexp: duplicate flag %q", r)
		}
		seen[r] = true
		switch r {
		case 'g':
			f |= FlagGlobal
		case 'i':
			f |= FlagIgnoreCase
		case 'm':
			f |= FlagMultiline
		case 's':
			f |= FlagDotAll
		case 'u':
			f |= FlagUnicode
		case 'y':
			f |= FlagSticky
		case 'd':
			f |= FlagIndices
		case 'v':
			f |= FlagUnicodeSets
		default:
			return 0, fmt.Errorf("regexp: invalid flag %q", r)
		}
	}
	if f&FlagUnicode != 0 && f&FlagUnicodeSets != 0 {
		return 0, fmt.Errorf("regexp: flags u and v are mutually exclusive")
	}
	return f, nil
}

// GroupName pairs a 1-based capture index with its `(?<name>...)` name
// (spec §3.2 "groupNames: optional sequence of {index -> name}").
type GroupName struct {
	Index int
	Name  string
}

// Bytecode is the immutable compiled form of a pattern (spec §3.2
// "RegExpBytecode", §6 "Bytecode binary layout (RegExp)").
type Bytecode struct {
	Instructions []byte
	Flags        Flags
	CaptureCount int // >= 1 (group 0 is the whole match)
	GroupNames   []GroupName
}

func (b *Bytecode) flagSet(f Flags) bool { return b.Flags&f != 0 }

// little-endian operand helpers (spec §6 "little-endian opcodes" /
// "Opcode bytes followed by little-endian immediates").

func putU16(buf []byte, v uint16) []byte {
	db := dynbuf.New(len(buf) + 2)
	db.Write(buf)
	db.PutUint16LE(v)
	return db.Bytes()
}

func putU32(buf []byte, v uint32) []byte {
	db := dynbuf.New(len(buf) + 4)
	db.Write(buf)
	db.PutUint32LE(v)
	return db.Bytes()
}

func putI32(buf []byte, v int32) []byte { return putU32(buf, uint32(v)) }

func getU16(b []byte, pc int) uint16 { return binary.LittleEndian.Uint16(b[pc:]) }
func getU32(b []byte, pc int) uint32 { return binary.LittleEndian.Uint32(b[pc:]) }
func getI32(b []byte, pc int) int32  { return int32(getU32(b, pc)) }

// instrLen returns the total encoded length (opcode byte + operand bytes)
// of the instruction at pc, needed to skip over variable-length RANGE*
// instructions and to compute relative jump bases.
func instrLen(code []byte, pc int) int {
	op := Opcode(code[pc])
	switch op {
	case CHAR, CHAR_I:
		return 3
	case CHAR32, CHAR32_I:
		return 5
	case DOT, ANY, LINE_START, LINE_START_M, LINE_END, LINE_END_M, MATCH,
		LOOKAHEAD_MATCH, NEGATIVE_LOOKAHEAD_MATCH, LOOKBEHIND_MATCH, NEGATIVE_LOOKBEHIND_MATCH,
		WORD_BOUNDARY, WORD_BOUNDARY_I, NOT_WORD_BOUNDARY, NOT_WORD_BOUNDARY_I, PREV:
		return 1
	case GOTO, SPLIT_GOTO_FIRST, SPLIT_NEXT_FIRST,
		LOOKAHEAD, NEGATIVE_LOOKAHEAD, LOOKBEHIND, NEGATIVE_LOOKBEHIND:
		return 5
	case SAVE_START, SAVE_END, BACK_REFERENCE, BACK_REFERENCE_I,
		BACKWARD_BACK_REFERENCE, BACKWARD_BACK_REFERENCE_I:
		return 3
	case SAVE_RESET:
		return 5
	case RANGE, RANGE_I, RANGE32, RANGE32_I, NOT_RANGE, NOT_RANGE_I:
		// layout: opcode, size(u16, payload byte length), count(u16, range
		// count), payload.
		size := int(getU16(code, pc+1))
		return 1 + 2 + 2 + size
	case SET_CHAR_POS, CHECK_ADVANCE:
		return 2
	case SET_I32:
		return 6
	case LOOP, LOOP_SPLIT_GOTO_FIRST, LOOP_SPLIT_NEXT_FIRST:
		return 6
	}
	panic(fmt.Sprintf("regexp: instrLen: unknown opcode %d at pc %d", op, pc))
}
