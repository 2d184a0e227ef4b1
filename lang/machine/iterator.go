package machine

import "fmt"

// iterCursor is the VM-internal iteration handle FOR_OF_START/FOR_IN_START/
// FOR_AWAIT_OF_START push (spec §4.4.1 "Iteration"). It is never observed
// directly by script code, only driven by the matching *_NEXT opcode.
type iterCursor interface {
	next(th *Thread) (v Value, done bool, err error)
}

// iteratorValue lets a cursor occupy a normal stack slot alongside JSValues
// (Frame.stack admits Value|catchMarker; wrapping the cursor as a Value
// avoids a third stack-slot kind).
type iteratorValue struct{ cur iterCursor }

func (iteratorValue) String() string { return "[object Iterator]" }
func (iteratorValue) TypeOf() string { return "object" }

type arrayCursor struct {
	obj *Object
	i   int
}

func (c *arrayCursor) next(th *Thread) (Value, bool, error) {
	elems := c.obj.Elements()
	if c.i >= len(elems) {
		return Undefined, true, nil
	}
	v := elems[c.i]
	c.i++
	return v, false, nil
}

// stringCursor iterates by Unicode code point, pairing surrogate halves
// (ECMA-262 string iterator semantics), unlike plain UTF-16-unit indexing.
type stringCursor struct {
	s String
	i int
}

func (c *stringCursor) next(th *Thread) (Value, bool, error) {
	if c.i >= len(c.s) {
		return Undefined, true, nil
	}
	n := 1
	u := c.s[c.i]
	if u >= 0xD800 && u <= 0xDBFF && c.i+1 < len(c.s) {
		if u2 := c.s[c.i+1]; u2 >= 0xDC00 && u2 <= 0xDFFF {
			n = 2
		}
	}
	chunk := make(String, n)
	copy(chunk, c.s[c.i:c.i+n])
	c.i += n
	return chunk, false, nil
}

type keysCursor struct {
	keys []string
	i    int
}

func (c *keysCursor) next(th *Thread) (Value, bool, error) {
	if c.i >= len(c.keys) {
		return Undefined, true, nil
	}
	k := c.keys[c.i]
	c.i++
	return NewString(k), false, nil
}

// objectCursor delegates to a user-defined (or generator-produced) .next()
// method, the duck-typed stand-in this package uses instead of resolving
// Symbol.iterator/Symbol.asyncIterator (the value model has no Symbol-keyed
// property storage — see DESIGN.md). When async is true and the call result
// is itself a *Promise (rather than an {value,done} result object), it is
// awaited first (spec §4.4.1 "FOR_AWAIT_OF_START/_NEXT ... return the raw
// promise from next").
type objectCursor struct {
	obj     *Object
	nextFn  *Function
	async   bool
}

func (c *objectCursor) next(th *Thread) (Value, bool, error) {
	res, err := th.Call(c.nextFn, c.obj, nil)
	if err != nil {
		return nil, false, err
	}
	if c.async {
		if p, ok := res.(*Promise); ok {
			settled, err := th.awaitPromise(p)
			if err != nil {
				return nil, false, err
			}
			res = settled
		}
	}
	ro, ok := res.(*Object)
	if !ok {
		return nil, false, fmt.Errorf("machine: iterator result %s is not an object", res.TypeOf())
	}
	done, _ := ro.Get("done").(Boolean)
	return ro.Get("value"), bool(done), nil
}

// getIterator resolves v's iterator for FOR_OF/FOR_AWAIT_OF: a String
// iterates itself, an Array its elements by index, and any other object with
// a callable "next" property is used as its own iterator. Symbol.iterator is
// not consulted, and primitives other than strings are not iterable.
func getIterator(th *Thread, v Value, async bool) (iterCursor, error) {
	switch vv := v.(type) {
	case String:
		return &stringCursor{s: vv}, nil
	case *Object:
		if vv.class == "Array" {
			return &arrayCursor{obj: vv}, nil
		}
		if fn, ok := vv.Get("next").(*Function); ok {
			return &objectCursor{obj: vv, nextFn: fn, async: async}, nil
		}
	}
	return nil, &jsException{value: NewString(fmt.Sprintf("%s is not iterable", v.TypeOf()))}
}

// getForInIterator implements FOR_IN_START: own+inherited enumerable
// string-keyed property names, or an immediately-exhausted cursor for a
// null/undefined target (for-in over null/undefined performs zero
// iterations rather than throwing).
func getForInIterator(v Value) iterCursor {
	if o, ok := v.(*Object); ok {
		return &keysCursor{keys: o.EnumerableKeys()}
	}
	return &keysCursor{}
}
