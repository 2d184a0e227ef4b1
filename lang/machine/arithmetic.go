package machine

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// ToNumber implements the abstract ToNumber conversion consulted by the
// arithmetic/bitwise opcode group (spec §4.4.1).
func ToNumber(v Value) float64 {
	switch v := v.(type) {
	case Number:
		return float64(v)
	case Boolean:
		if v {
			return 1
		}
		return 0
	case UndefinedType:
		return math.NaN()
	case NullType:
		return 0
	case String:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// ToInt32 implements ToInt32 for the bitwise opcodes (SHL/SHR/SAR/TILDE,
// spec §4.4.1 "Bitwise via ToInt32 semantics").
func ToInt32(v Value) int32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	// ECMA-262 ToInt32: truncate toward zero modulo 2^32, then reinterpret as
	// signed.
	n := math.Trunc(f)
	m := math.Mod(n, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	u := uint32(m)
	return int32(u)
}

func ToUint32(v Value) uint32 { return uint32(ToInt32(v)) }

// ToPrimitiveString implements ToString for the ADD opcode's string-
// concatenation branch and for property-key coercion (GET_ARRAY_EL with a
// non-string key).
func ToPrimitiveString(v Value) string {
	switch v := v.(type) {
	case String:
		return v.String()
	case Number:
		return v.String()
	case Boolean:
		return v.String()
	case UndefinedType:
		return "undefined"
	case NullType:
		return "null"
	case BigInt:
		return v.String()
	default:
		return v.String()
	}
}

// Add implements the ADD opcode: string concatenation if either operand is
// a string, otherwise numeric addition (spec §4.4.1).
func Add(x, y Value) Value {
	_, xStr := x.(String)
	_, yStr := y.(String)
	if xStr || yStr {
		return NewString(ToPrimitiveString(x) + ToPrimitiveString(y))
	}
	return Number(ToNumber(x) + ToNumber(y))
}

// LooseEqual implements the abstract equality algorithm for EQ/NEQ (spec
// §4.4.1); this package implements the common cases (matching type,
// null/undefined, number/string/boolean coercion) and does not implement
// object-to-primitive coercion (ToPrimitive with valueOf/toString hooks,
// out of scope per DESIGN.md — the surrounding value model has no
// user-definable valueOf).
func LooseEqual(x, y Value) bool {
	if StrictEqual(x, y) {
		return true
	}
	if IsNullish(x) && IsNullish(y) {
		return true
	}
	xn, xIsNum := x.(Number)
	yn, yIsNum := y.(Number)
	xs, xIsStr := x.(String)
	ys, yIsStr := y.(String)
	xb, xIsBool := x.(Boolean)
	yb, yIsBool := y.(Boolean)

	switch {
	case xIsNum && yIsStr:
		return float64(xn) == ToNumber(ys)
	case xIsStr && yIsNum:
		return ToNumber(xs) == float64(yn)
	case xIsBool:
		b := 0.0
		if xb {
			b = 1
		}
		return LooseEqual(Number(b), y)
	case yIsBool:
		b := 0.0
		if yb {
			b = 1
		}
		return LooseEqual(x, Number(b))
	}
	return false
}

// StrictEqual implements STRICT_EQ/STRICT_NEQ: same type and same value (by
// identity for objects/functions).
func StrictEqual(x, y Value) bool {
	switch xv := x.(type) {
	case UndefinedType:
		_, ok := y.(UndefinedType)
		return ok
	case NullType:
		_, ok := y.(NullType)
		return ok
	case Boolean:
		yv, ok := y.(Boolean)
		return ok && xv == yv
	case Number:
		yv, ok := y.(Number)
		return ok && float64(xv) == float64(yv)
	case String:
		yv, ok := y.(String)
		return ok && xv.String() == yv.String()
	case BigInt:
		yv, ok := y.(BigInt)
		return ok && xv.V.Cmp(yv.V) == 0
	case *Object:
		yv, ok := y.(*Object)
		return ok && xv == yv
	case *Function:
		yv, ok := y.(*Function)
		return ok && xv == yv
	case *Symbol:
		yv, ok := y.(*Symbol)
		return ok && xv == yv
	default:
		return x == y
	}
}

// Compare implements the abstract relational comparison algorithm for
// LT/LTE/GT/GTE (spec §4.4.1); string operands compare lexicographically by
// UTF-16 code unit, otherwise both sides convert with ToNumber. Returns
// (cmp, ok): ok is false when either side is NaN, in which case every
// relational operator must yield false (ECMA-262's "undefined" comparison
// result).
func Compare(x, y Value) (cmp int, ok bool) {
	xs, xIsStr := x.(String)
	ys, yIsStr := y.(String)
	if xIsStr && yIsStr {
		return slices.Compare(xs, ys), true
	}
	xf, yf := ToNumber(x), ToNumber(y)
	if math.IsNaN(xf) || math.IsNaN(yf) {
		return 0, false
	}
	switch {
	case xf < yf:
		return -1, true
	case xf > yf:
		return 1, true
	default:
		return 0, true
	}
}
