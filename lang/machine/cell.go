package machine

// VarRef is the engine's escape hatch for shared mutable closure state (spec
// §4.5): an indirection cell exposing get/set/close. While attached, reads
// and writes go through the owning frame's shared storage array, so the
// frame and every closure that captured the slot observe each other's
// writes; after close() the cell owns an isolated single-cell array and
// ignores the original storage. Grounded on the teacher's
// lang/machine/cell.go box-around-a-Value pattern, generalised from a bare
// struct into the attach/detach state machine spec §4.5 requires.
type VarRef struct {
	storage []Value // shared with the owning frame's locals slice until close()
	index   int
	own     [1]Value // used only after close()
	closed  bool
}

// newVarRef attaches a VarRef to storage[index] (spec §4.5 "While attached,
// reads and writes go through storage[index]").
func newVarRef(storage []Value, index int) *VarRef {
	return &VarRef{storage: storage, index: index}
}

func (r *VarRef) get() Value {
	if r.closed {
		return r.own[0]
	}
	return r.storage[r.index]
}

func (r *VarRef) set(v Value) {
	if r.closed {
		r.own[0] = v
		return
	}
	r.storage[r.index] = v
}

// close detaches the cell from the frame's shared storage, copying the
// current value into isolated storage (spec §4.5, and §4.4.1 "CLOSE_LOC"):
// this is what gives each iteration of `for (let i=…)` its own closure-
// captured i. Idempotent: a second close() is a no-op, matching the
// testable property that get() after close() keeps returning the value
// observed at the moment of close regardless of later frame writes.
func (r *VarRef) close() {
	if r.closed {
		return
	}
	r.own[0] = r.storage[r.index]
	r.closed = true
	r.storage = nil
}
