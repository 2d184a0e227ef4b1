package machine

import (
	"fmt"
	"strconv"

	"github.com/dolthub/swiss"
)

// Object is a JS object: an ordinary property bag backed by a swiss-table
// map keyed by property name, with an optional prototype link (spec §4.4.1
// "Property access"). Grounded on the teacher's lang/machine/map.go, which
// backs its Map type the same way with github.com/dolthub/swiss; this
// package generalises that single swiss.Map[Value,Value] into the object
// model's own property storage plus a prototype chain.
type Object struct {
	props     *swiss.Map[string, Value]
	keys      []string // insertion order, for FOR_IN enumeration; swiss.Map iterates unordered
	proto     *Object
	class     string // diagnostic class tag, e.g. "Object", "Array", "String"
	primitive Value  // set only for auto-boxed primitive wrappers (spec §4.4.1 "Auto-boxing")

	// Array-only fields; class == "Array" when these are meaningful.
	elems []Value
}

var (
	_ Value = (*Object)(nil)
)

func NewObject(proto *Object) *Object {
	return &Object{props: swiss.NewMap[string, Value](0), proto: proto, class: "Object"}
}

func NewArray(elems []Value, proto *Object) *Object {
	return &Object{props: swiss.NewMap[string, Value](0), proto: proto, class: "Array", elems: elems}
}

func (o *Object) String() string { return fmt.Sprintf("[object %s]", o.class) }
func (o *Object) TypeOf() string { return "object" }
func (o *Object) Class() string  { return o.class }

// GetOwn looks up name without walking the prototype chain.
func (o *Object) GetOwn(name string) (Value, bool) {
	if o.class == "Array" {
		if name == "length" {
			return Number(len(o.elems)), true
		}
		if idx, ok := arrayIndex(name); ok {
			if idx < len(o.elems) {
				return o.elems[idx], true
			}
			return Undefined, false
		}
	}
	return o.props.Get(name)
}

// Get implements ordinary property lookup (GET_FIELD/GET_ARRAY_EL), walking
// the prototype chain (spec §4.4.1 "Property access").
func (o *Object) Get(name string) Value {
	for cur := o; cur != nil; cur = cur.proto {
		if v, ok := cur.GetOwn(name); ok {
			return v
		}
	}
	return Undefined
}

// Set implements an own-property write (PUT_FIELD/PUT_ARRAY_EL/DEFINE_FIELD);
// this package does not model accessor properties, writable/enumerable
// attributes, or Proxy set traps — see DESIGN.md.
func (o *Object) Set(name string, v Value) {
	if o.class == "Array" {
		if name == "length" {
			o.setLength(v)
			return
		}
		if idx, ok := arrayIndex(name); ok {
			o.setIndex(idx, v)
			return
		}
	}
	if _, existed := o.props.Get(name); !existed {
		o.keys = append(o.keys, name)
	}
	o.props.Put(name, v)
}

func (o *Object) Delete(name string) bool {
	if o.class == "Array" {
		if idx, ok := arrayIndex(name); ok && idx < len(o.elems) {
			o.elems[idx] = Undefined
			return true
		}
	}
	if ok := o.props.Delete(name); ok {
		for i, k := range o.keys {
			if k == name {
				o.keys = append(o.keys[:i], o.keys[i+1:]...)
				break
			}
		}
		return true
	}
	return false
}

// OwnEnumerableKeys lists o's own string-keyed property names in insertion
// order, preceded by the element indices for Array instances (spec
// §4.4.1 "FOR_IN_START/NEXT/END enumerate own+inherited enumerable
// string-keyed properties"). This package has no property-attribute model
// (writable/enumerable/configurable, spec §4.4.1 "Property access" note), so
// every own data property is treated as enumerable.
func (o *Object) OwnEnumerableKeys() []string {
	if o.class == "Array" {
		keys := make([]string, 0, len(o.elems)+len(o.keys))
		for i := range o.elems {
			keys = append(keys, strconv.Itoa(i))
		}
		return append(keys, o.keys...)
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// EnumerableKeys walks the prototype chain collecting each own key once,
// first occurrence wins (shadowing), per FOR_IN's own+inherited contract.
func (o *Object) EnumerableKeys() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := o; cur != nil; cur = cur.proto {
		for _, k := range cur.OwnEnumerableKeys() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

func (o *Object) setLength(v Value) {
	n := int(ToNumber(v))
	if n < 0 {
		n = 0
	}
	switch {
	case n < len(o.elems):
		o.elems = o.elems[:n]
	case n > len(o.elems):
		grown := make([]Value, n)
		copy(grown, o.elems)
		for i := len(o.elems); i < n; i++ {
			grown[i] = Undefined
		}
		o.elems = grown
	}
}

func (o *Object) setIndex(idx int, v Value) {
	if idx >= len(o.elems) {
		grown := make([]Value, idx+1)
		copy(grown, o.elems)
		for i := len(o.elems); i < idx; i++ {
			grown[i] = Undefined
		}
		o.elems = grown
	}
	o.elems[idx] = v
}

func (o *Object) Elements() []Value { return o.elems }

func (o *Object) Proto() *Object { return o.proto }

func arrayIndex(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	n := 0
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Function is a callable object: either a bytecode closure or a host-
// provided native function (spec §4.4.1 "Calls and constructors" dispatch
// group (b)/(c)).
type Function struct {
	*Object
	Native  func(th *Thread, this Value, args []Value) (Value, error)
	Closure *Closure
	name    string
}

func (f *Function) TypeOf() string { return "function" }
func (f *Function) String() string { return fmt.Sprintf("function %s() { [native code] }", f.name) }
func (f *Function) Name() string   { return f.name }

// Boxed wraps a primitive value in a fresh Object carrying a
// [[PrimitiveValue]] slot, per spec §4.4.1 "Auto-boxing": GET_FIELD /
// GET_ARRAY_EL on a string/number/boolean/bigint/symbol primitive wraps it
// so property lookup can proceed through the wrapper's prototype.
func Boxed(v Value, proto *Object) *Object {
	o := NewObject(proto)
	o.primitive = v
	switch s := v.(type) {
	case String:
		o.class = "String"
		o.props.Put("length", Number(s.Len()))
	case Number:
		o.class = "Number"
	case Boolean:
		o.class = "Boolean"
	case BigInt:
		o.class = "BigInt"
	case *Symbol:
		o.class = "Symbol"
	}
	return o
}

func (o *Object) PrimitiveValue() (Value, bool) {
	if o.primitive == nil {
		return nil, false
	}
	return o.primitive, true
}
