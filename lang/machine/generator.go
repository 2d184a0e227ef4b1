package machine

import "fmt"

// GeneratorRunState is the GeneratorState.state enumeration (spec §3.3
// "GeneratorState: {function, thisArg, args, yieldCount, state ∈
// {SUSPENDED_START, SUSPENDED_YIELD, EXECUTING, COMPLETED}, completed}").
type GeneratorRunState int

const (
	SuspendedStart GeneratorRunState = iota
	SuspendedYield
	GeneratorExecuting
	GeneratorCompleted
)

// GeneratorState is the bookkeeping record behind a generator object's
// next()/return()/throw() methods (spec §9 "Generators"). Grounded on the
// teacher's lang/machine package having no generator support at all (the
// source language has none); this is built fresh from the spec's own
// description of the simplified replay-based resumption strategy.
type GeneratorState struct {
	fn    *Function
	this  Value
	args  []Value

	yieldCount int
	state      GeneratorRunState
}

// NewGenerator implements the generator-construction half of FCLOSURE/CALL
// dispatch on a generator-marked closure (spec §4.4.1 "Generators": "On
// invocation the VM constructs a GeneratorState at SUSPENDED_START" — the
// function body does not run until the first next() call).
func NewGenerator(fn *Function, this Value, args []Value, proto *Object) *Object {
	obj := NewObject(proto)
	obj.class = "Generator"
	gs := &GeneratorState{fn: fn, this: this, args: args, state: SuspendedStart}

	obj.Set("next", NewNativeFunction("next", func(th *Thread, _ Value, callArgs []Value) (Value, error) {
		sent := Value(Undefined)
		if len(callArgs) > 0 {
			sent = callArgs[0]
		}
		res, err := th.resumeGenerator(gs, sent)
		if err != nil {
			return nil, err
		}
		return res, nil
	}, nil))

	obj.Set("return", NewNativeFunction("return", func(th *Thread, _ Value, callArgs []Value) (Value, error) {
		v := Value(Undefined)
		if len(callArgs) > 0 {
			v = callArgs[0]
		}
		gs.state = GeneratorCompleted
		return newIterResult(v, true), nil
	}, nil))

	// throw() in this replay-based model cannot inject an exception at the
	// suspended YIELD site (there is no captured continuation to resume into,
	// per spec §9's documented limitation) — it terminates the generator and
	// re-raises the given value as the call's own exception, which matches
	// observable behaviour for a generator that has not yet deferred any
	// cleanup (no try/finally unwinding is performed).
	obj.Set("throw", NewNativeFunction("throw", func(th *Thread, _ Value, callArgs []Value) (Value, error) {
		v := Value(Undefined)
		if len(callArgs) > 0 {
			v = callArgs[0]
		}
		gs.state = GeneratorCompleted
		return nil, &jsException{value: v}
	}, nil))

	return obj
}

func newIterResult(v Value, done bool) *Object {
	o := NewObject(nil)
	o.Set("value", v)
	o.Set("done", Boolean(done))
	return o
}

// resumeGenerator implements next(v) (spec §4.4.1 "Generators" and §9): a
// fresh execute(function, thisArg, args) replay with yieldSkipCount =
// state.yieldCount, sending v into the currently-suspended YIELD
// expression's result when the replay reaches it.
func (th *Thread) resumeGenerator(gs *GeneratorState, sent Value) (Value, error) {
	if gs.state == GeneratorCompleted {
		return newIterResult(Undefined, true), nil
	}
	if gs.state == GeneratorExecuting {
		return nil, fmt.Errorf("machine: generator already executing")
	}
	if len(th.callStack) >= th.callStackLimit() {
		return nil, fmt.Errorf("machine: maximum call stack size exceeded")
	}

	fr := newFrame(gs.fn, gs.this, gs.args, th.currentStrictMode())
	fr.yieldSkip = gs.yieldCount
	fr.resumeValue = sent

	gs.state = GeneratorExecuting
	th.callStack = append(th.callStack, fr)
	v, suspended, err := th.run(fr)
	th.callStack = th.callStack[:len(th.callStack)-1]

	if err != nil {
		gs.state = GeneratorCompleted
		if je, ok := err.(*jsException); ok {
			return nil, je
		}
		return nil, err
	}
	if suspended {
		gs.yieldCount++
		gs.state = SuspendedYield
		return newIterResult(v, false), nil
	}
	gs.state = GeneratorCompleted
	return newIterResult(v, true), nil
}
