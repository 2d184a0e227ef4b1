package machine

import "github.com/mna/esquick/lang/bytecode"

// Closure is the dynamic counterpart of a bytecode.Bytecode template: the
// function's code plus its resolved captures (spec §4.4 "Frame and stack":
// "Closure state derives from the function: if it carries a VarRef[] use
// reference-based capture; else if it carries JSValue[] use value-based
// capture; else empty"). Grounded on the teacher's lang/machine/function.go
// Function{Funcode, Module, Freevars} shape, with Freevars generalised from
// a flat Tuple into the two capture modes the spec distinguishes.
type Closure struct {
	Bytecode *bytecode.Bytecode
	Refs     []*VarRef // reference-based capture (closed-over let/const/var)
	Values   []Value   // value-based capture, used when no VarRef applies
}

// resolveCaptures is this package's CaptureResolver: it materialises a
// Closure's Refs from its Bytecode.Captures
// against the constructing frame, per spec §4.4.1 "Closure construction":
// a capture naming a parent local binds (or creates) that local's VarRef;
// a capture naming an outer capture reuses the constructing frame's own
// Refs entry.
func resolveCaptures(bc *bytecode.Bytecode, constructing *Frame) []*VarRef {
	if len(bc.Captures) == 0 {
		return nil
	}
	refs := make([]*VarRef, len(bc.Captures))
	for i, spec := range bc.Captures {
		if spec.FromParentLocal {
			refs[i] = constructing.getOrCreateLocalVarRef(spec.ParentIndex)
		} else {
			refs[i] = constructing.fn.Closure.Refs[spec.ParentIndex]
		}
	}
	return refs
}

// NewClosure implements FCLOSURE (spec §4.4.1): build a Function value from
// the indexed bytecode template, resolving its captures against the frame
// that is constructing it.
func NewClosure(bc *bytecode.Bytecode, constructing *Frame, funcProto *Object) *Function {
	cl := &Closure{Bytecode: bc, Refs: resolveCaptures(bc, constructing)}
	obj := NewObject(funcProto)
	obj.class = "Function"
	fn := &Function{Object: obj, Closure: cl, name: bc.Name}
	return fn
}

// NewNativeFunction wraps a host Go function as a callable Function value
// (spec §6 "Host context interface consumed by the VM" — native functions
// are the collaborator surface the CALL dispatch's branch (b) invokes).
func NewNativeFunction(name string, fn func(th *Thread, this Value, args []Value) (Value, error), funcProto *Object) *Function {
	obj := NewObject(funcProto)
	obj.class = "Function"
	return &Function{Object: obj, Native: fn, name: name}
}
