// Package machine implements Component D of the engine (spec §4.4, §4.5): a
// stack-based bytecode interpreter and the runtime value/object model it
// operates on. Structurally grounded on the teacher's lang/machine package:
// a Value interface implemented by every runtime type, a Thread owning the
// call stack and step budget, a Frame per call, and cell-based indirection
// for closed-over locals — generalised here to ECMAScript's value taxonomy
// (undefined/null/boolean/number/string/bigint/object) and VarRef semantics
// (spec §4.5) instead of Starlark's.
package machine

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
)

// Value is the interface implemented by every value the VM manipulates
// (spec §3.3 "VM entities"). Mirrors the shape of the teacher's
// machine.Value: a tiny, closed capability surface plus type-switches for
// the rest, rather than a deep class hierarchy.
type Value interface {
	String() string
	TypeOf() string // "undefined" | "null" | "boolean" | "number" | "string" | "bigint" | "symbol" | "object" | "function"
}

// UndefinedType is the type of Undefined, the sentinel produced by reading
// an unset binding or a missing property (spec §4.4.1 "Push/literals").
type UndefinedType struct{}

// Undefined is the sole UndefinedType value.
var Undefined = UndefinedType{}

func (UndefinedType) String() string { return "undefined" }
func (UndefinedType) TypeOf() string { return "undefined" }

// NullType is the type of Null.
type NullType struct{}

var Null = NullType{}

func (NullType) String() string { return "null" }
func (NullType) TypeOf() string { return "object" } // spec: typeof null === "object"

// Boolean is a JS boolean.
type Boolean bool

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Boolean) TypeOf() string { return "boolean" }

// Number is a JS number (IEEE-754 double, per spec §4.4.1 arithmetic group).
type Number float64

func (n Number) String() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
func (Number) TypeOf() string { return "number" }

// String is a JS string, stored as UTF-16 code units so that indexing and
// .length match ECMAScript semantics (spec §9 notes code-point-vs-UTF-16
// index translation for regex results; plain string values are UTF-16
// throughout, consistently with the language the VM targets). Conversion
// to/from Go's UTF-8 string happens at the String() boundary.
type String []uint16

func NewString(s string) String { return utf16Encode(s) }

func (s String) String() string { return utf16Decode(s) }
func (String) TypeOf() string   { return "string" }
func (s String) Len() int       { return len(s) }

// BigInt is a JS BigInt (spec §4.4.1 "PUSH_BIGINT_I32").
type BigInt struct{ V *big.Int }

func NewBigInt(i int64) BigInt { return BigInt{V: big.NewInt(i)} }

func (b BigInt) String() string { return b.V.String() + "n" }
func (BigInt) TypeOf() string   { return "bigint" }

// Symbol is a JS symbol; identity equality only (the full value taxonomy is
// out of scope per spec §1 — see DESIGN.md — this is only the minimal shape:
// a description plus identity equality; iteration does not resolve
// Symbol.iterator, see getIterator).
type Symbol struct{ Desc string }

func (s *Symbol) String() string { return fmt.Sprintf("Symbol(%s)", s.Desc) }
func (*Symbol) TypeOf() string   { return "symbol" }

// ToBoolean implements the abstract ToBoolean operation used by
// LOGICAL_AND/LOGICAL_OR/IF_FALSE/IF_TRUE (spec §4.4.1).
func ToBoolean(v Value) bool {
	switch v := v.(type) {
	case UndefinedType:
		return false
	case NullType:
		return false
	case Boolean:
		return bool(v)
	case Number:
		f := float64(v)
		return f != 0 && !math.IsNaN(f)
	case String:
		return len(v) > 0
	case BigInt:
		return v.V.Sign() != 0
	default:
		return true // objects, functions, symbols are always truthy
	}
}

// IsNullish reports whether v is null or undefined (spec §4.4.1
// "NULLISH_COALESCE returns right only when left is null or undefined").
func IsNullish(v Value) bool {
	switch v.(type) {
	case UndefinedType, NullType:
		return true
	}
	return false
}

func utf16Encode(s string) String {
	out := make(String, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
		} else {
			out = append(out, uint16(r))
		}
	}
	return out
}

func utf16Decode(u String) string {
	runes := make([]rune, 0, len(u))
	for i := 0; i < len(u); i++ {
		c := u[i]
		if c >= 0xD800 && c <= 0xDBFF && i+1 < len(u) && u[i+1] >= 0xDC00 && u[i+1] <= 0xDFFF {
			r := (rune(c)-0xD800)<<10 + (rune(u[i+1]) - 0xDC00) + 0x10000
			runes = append(runes, r)
			i++
			continue
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}
