package machine

import (
	"context"
	"fmt"
	"sync/atomic"
)

// HostContext is the collaborator interface the VM consumes but does not
// implement (spec §1 "out of scope", §6 "Host context interface consumed by
// the VM"): the global object, atom interning, array construction,
// TypeError/RangeError construction, and the microtask pump AWAIT drains.
// The pending-exception slot is held by Thread, not by the host.
type HostContext interface {
	GlobalObject() *Object
	Atom(idx uint32) string
	CreateArray(length int) *Object
	ThrowTypeError(msg string) error
	ThrowRangeError(msg string) error

	// RunMicrotask dequeues and runs one pending microtask, reporting whether
	// the queue was non-empty (spec §5 "Suspension points").
	RunMicrotask() bool
}

// Thread owns one VM call stack and its execution budget (spec §5 "The
// engine is single-threaded cooperative. One host context owns one VM").
// Grounded on the teacher's lang/machine/thread.go: exported tunables
// (MaxSteps, MaxCallStackDepth) plus a context.Context for cooperative
// cancellation, consulted once per opcode dispatch.
type Thread struct {
	Name string

	MaxSteps          int
	MaxCallStackDepth int

	Host HostContext

	ctx       context.Context
	ctxCancel func()
	callStack []*Frame
	cancelled atomic.Bool

	steps, maxSteps uint64

	// pendingException is the VM-wide exception slot the unwinder consults
	// (spec §4.4 "Exception unwinding").
	pendingException Value
	hasPending       bool

	propertyAccessChain string
	propertyAccessLock  bool
}

func (th *Thread) init() {
	if th.ctx == nil {
		th.ctx = context.Background()
		th.ctxCancel = func() {}
	}
	if th.MaxSteps <= 0 {
		th.maxSteps--
	} else {
		th.maxSteps = uint64(th.MaxSteps)
	}
}

// RunProgram runs a top-level Closure to completion (spec §4.4 "Public
// contract" execute(function, thisArg, args[])).
func (th *Thread) RunProgram(ctx context.Context, fn *Function, thisArg Value, args []Value) (Value, error) {
	if th.ctx != nil {
		return nil, fmt.Errorf("thread %s is already executing a program", th.Name)
	}
	ctx, cancel := context.WithCancel(ctx)
	th.ctx = ctx
	th.ctxCancel = cancel
	th.init()
	return Execute(th, fn, thisArg, args)
}

func (th *Thread) setPending(v Value) {
	th.pendingException = v
	th.hasPending = true
}

func (th *Thread) clearPending() {
	th.pendingException = nil
	th.hasPending = false
}

func (th *Thread) currentFrame() *Frame {
	return th.callStack[len(th.callStack)-1]
}
