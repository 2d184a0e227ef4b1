package machine

import "fmt"

// jsException carries a JSValue through Go's error-return channel for the
// duration of one Call/Construct/cursor-next, matching spec §4.4 "Exception
// unwinding": the only place a throw becomes a Go error is at this
// collaborator boundary, immediately translated back into th.pendingException
// by the caller (CALL dispatch, Execute's result path) so the VM's own
// unwinder — not Go's panic/recover — decides where it lands.
type jsException struct{ value Value }

func (e *jsException) Error() string { return e.value.String() }

func errToValue(err error) Value {
	if je, ok := err.(*jsException); ok {
		return je.value
	}
	return NewString(err.Error())
}

const defaultMaxCallStackDepth = 1 << 12

func (th *Thread) callStackLimit() int {
	if th.MaxCallStackDepth > 0 {
		return th.MaxCallStackDepth
	}
	return defaultMaxCallStackDepth
}

func (th *Thread) currentStrictMode() bool {
	if len(th.callStack) == 0 {
		return false
	}
	return th.currentFrame().strictMode
}

// Call implements the CALL/CALL_METHOD dispatch table (spec §4.4.1 "Calls
// and constructors"): Proxy apply trap forwarding, native invocation, and
// bytecode invocation via Execute. Returns a *jsException for any JS-level
// throw, distinguishing it from a genuine Go-level fault (decode error, step
// budget, stack overflow) that callers must propagate rather than catch.
func (th *Thread) Call(callee Value, receiver Value, args []Value) (Value, error) {
	if len(th.callStack) >= th.callStackLimit() {
		return nil, fmt.Errorf("machine: maximum call stack size exceeded")
	}
	switch c := callee.(type) {
	case *Proxy:
		if c.Apply != nil {
			return th.Call(c.Apply, c, []Value{c.Target, receiver, NewArray(append([]Value{}, args...), nil)})
		}
		return th.Call(c.Target, receiver, args)
	case *Function:
		if c.Native != nil {
			v, err := c.Native(th, receiver, args)
			if err != nil {
				return nil, &jsException{value: errToValue(err)}
			}
			return v, nil
		}
		return Execute(th, c, receiver, args)
	default:
		return nil, &jsException{value: NewString(th.notCallableMessage(callee))}
	}
}

// notCallableMessage builds the "a.b.c is not a function" diagnostic from
// the most recently observed property-access chain (spec §4.4.1 dispatch
// (d), §8 "TypeError messages on non-callable calls name the last
// property-access path").
func (th *Thread) notCallableMessage(v Value) string {
	if th.propertyAccessChain != "" {
		return th.propertyAccessChain + " is not a function"
	}
	if _, ok := v.(UndefinedType); ok {
		return "undefined is not a function"
	}
	return v.String() + " is not a function"
}

// Construct implements CALL_CONSTRUCTOR (spec §4.4.1 "Constructor
// dispatch"): Proxy construct trap, else an ordinary-function construction
// (instance with [[Prototype]] = ctor.prototype, called with the instance
// as this, keeping a returned object over the fresh instance). This package
// has no Class/constructorType metadata (the reduced value model — see
// DESIGN.md), so the ES6-class and built-in-factory branches of the spec's
// dispatch table collapse into this single ordinary-function path.
func (th *Thread) Construct(callee Value, args []Value) (Value, error) {
	if len(th.callStack) >= th.callStackLimit() {
		return nil, fmt.Errorf("machine: maximum call stack size exceeded")
	}
	if c, ok := callee.(*Proxy); ok {
		if c.Construct != nil {
			return th.Call(c.Construct, c, []Value{c.Target, NewArray(append([]Value{}, args...), nil)})
		}
		return th.Construct(c.Target, args)
	}
	fn, ok := callee.(*Function)
	if !ok {
		return nil, &jsException{value: NewString(th.notConstructibleMessage(callee))}
	}
	var proto *Object
	if p, ok := fn.Get("prototype").(*Object); ok {
		proto = p
	}
	inst := NewObject(proto)

	if fn.Native != nil {
		v, err := fn.Native(th, inst, args)
		if err != nil {
			return nil, &jsException{value: errToValue(err)}
		}
		if ro, ok := v.(*Object); ok {
			return ro, nil
		}
		return inst, nil
	}
	v, err := Execute(th, fn, inst, args)
	if err != nil {
		return nil, err
	}
	if ro, ok := v.(*Object); ok {
		return ro, nil
	}
	return inst, nil
}

func (th *Thread) notConstructibleMessage(v Value) string {
	return v.String() + " is not a constructor"
}

// getProperty implements GET_FIELD/GET_ARRAY_EL's read side, including
// auto-boxing of primitive receivers (spec §4.4.1 "Auto-boxing"). Boxed
// prototypes are unlinked (proto=nil): this package's HostContext exposes no
// String.prototype/Number.prototype lookup, so boxing here only buys
// own-property reads (length, numeric indices) — see DESIGN.md.
func (th *Thread) getProperty(obj Value, name string) Value {
	switch v := obj.(type) {
	case *Object:
		return v.Get(name)
	case *Function:
		return v.Object.Get(name)
	case String:
		if name == "length" {
			return Number(v.Len())
		}
		if idx, ok := arrayIndex(name); ok && idx < v.Len() {
			return String{v[idx]}
		}
		return Boxed(v, nil).Get(name)
	case Number, Boolean, BigInt:
		return Boxed(v, nil).Get(name)
	default:
		return Undefined
	}
}

// setProperty implements PUT_FIELD/PUT_ARRAY_EL/DEFINE_FIELD's write side.
// Writes through a primitive receiver are discarded (sloppy-mode no-op,
// since this package does not model strict-mode TypeErrors for that case).
func (th *Thread) setProperty(obj Value, name string, v Value) {
	switch o := obj.(type) {
	case *Object:
		o.Set(name, v)
	case *Function:
		o.Object.Set(name, v)
	}
}

func hasProperty(obj *Object, key string) bool {
	for cur := obj; cur != nil; cur = cur.Proto() {
		if _, ok := cur.GetOwn(key); ok {
			return true
		}
	}
	return false
}

// instanceOf implements INSTANCEOF: walk x's prototype chain for y's
// .prototype object.
func instanceOf(x Value, y Value) (bool, error) {
	fn, ok := y.(*Function)
	if !ok {
		return false, &jsException{value: NewString("Right-hand side of 'instanceof' is not callable")}
	}
	proto, ok := fn.Get("prototype").(*Object)
	if !ok {
		return false, nil
	}
	var obj *Object
	switch xv := x.(type) {
	case *Object:
		obj = xv
	case *Function:
		obj = xv.Object
	default:
		return false, nil
	}
	for cur := obj.Proto(); cur != nil; cur = cur.Proto() {
		if cur == proto {
			return true, nil
		}
	}
	return false, nil
}
