package machine

// catchMarker is the typed marker CATCH pushes onto the value stack (spec
// §4.4.1 "CATCH(off) pushes a CatchOffset marker"; §4.4 "Stack encoding of
// control data": "Catch handlers are pushed as typed CatchOffset markers
// interleaved with JSValues... This removes any side table for exception
// handlers").
type catchMarker struct {
	offset uint32
}

// Frame records one call to a Function, bytecode or native (spec §3.3 "VM
// entities"). Grounded on the teacher's lang/machine/frame.go (a thin
// {callable, pc} record) but widened with the locals/stack/VarRef state
// spec §4.4 "Frame and stack" assigns to the frame rather than the Thread,
// since the VM is single-threaded and each call needs its own locals array,
// operand stack, and set of attached closure cells.
type Frame struct {
	fn    *Function
	pc    uint32
	this  Value
	args  []Value

	locals  []Value
	varRefs map[uint32]*VarRef // lazily populated: local index -> cell, once captured

	stack []any // Value or catchMarker; see popStackValue/pop

	strictMode bool

	// yieldSkip/resumeValue drive the generator replay strategy (spec §9): a
	// resumed generator re-runs from pc 0 skipping this many already-observed
	// YIELDs, substituting resumeValue for the result of the last one skipped.
	yieldSkip   int
	resumeValue Value
}

func newFrame(fn *Function, this Value, args []Value, strictMode bool) *Frame {
	bc := fn.Closure.Bytecode
	locals := make([]Value, bc.LocalCount)
	for i := range locals {
		locals[i] = Undefined
	}
	for i := 0; i < bc.ParamCount && i < len(args); i++ {
		locals[i] = args[i]
	}
	return &Frame{fn: fn, this: this, args: args, locals: locals, strictMode: strictMode}
}

// getOrCreateLocalVarRef returns the VarRef cell for local idx, creating one
// attached to fr.locals if this is the first capture of that slot (spec
// §4.4.1 "the frame's getOrCreateLocalVarRef(idx) produces a shared VarRef
// cell bound to locals[idx]").
func (fr *Frame) getOrCreateLocalVarRef(idx uint32) *VarRef {
	if fr.varRefs == nil {
		fr.varRefs = make(map[uint32]*VarRef)
	}
	if r, ok := fr.varRefs[idx]; ok {
		return r
	}
	r := newVarRef(fr.locals, int(idx))
	fr.varRefs[idx] = r
	return r
}

// closeLocal implements CLOSE_LOC (spec §4.4.1, §4.5): detach idx's VarRef
// (if any was ever captured) from the frame's shared locals array.
func (fr *Frame) closeLocal(idx uint32) {
	if r, ok := fr.varRefs[idx]; ok {
		r.close()
		delete(fr.varRefs, idx)
	}
}

func (fr *Frame) push(v Value)          { fr.stack = append(fr.stack, v) }
func (fr *Frame) pushMarker(off uint32) { fr.stack = append(fr.stack, catchMarker{offset: off}) }

// pop asserts the top of stack holds a JSValue, per spec §4.4 "Normal pop()
// asserts the slot holds a JSValue".
func (fr *Frame) pop() Value {
	n := len(fr.stack) - 1
	v, ok := fr.stack[n].(Value)
	if !ok {
		panic("machine: pop() on a catch marker slot")
	}
	fr.stack = fr.stack[:n]
	return v
}

// popStackValue admits markers as well as JSValues, used only by the
// unwinder (spec §4.4 "popStackValue() admits markers").
func (fr *Frame) popStackValue() any {
	n := len(fr.stack) - 1
	v := fr.stack[n]
	fr.stack = fr.stack[:n]
	return v
}

func (fr *Frame) peek() Value {
	v, ok := fr.stack[len(fr.stack)-1].(Value)
	if !ok {
		panic("machine: peek() on a catch marker slot")
	}
	return v
}

func (fr *Frame) depth() int { return len(fr.stack) }

func (fr *Frame) truncateTo(depth int) { fr.stack = fr.stack[:depth] }

func (fr *Frame) code() []byte { return fr.fn.Closure.Bytecode.Instructions }
