package machine_test

import (
	"testing"

	bc "github.com/mna/esquick/lang/bytecode"
	"github.com/mna/esquick/lang/machine"
	"github.com/stretchr/testify/require"
)

// testHost is a minimal HostContext stand-in, enough to exercise GET_VAR/
// PUT_VAR (a single global object) and AWAIT (an immediately-empty
// microtask queue, since these tests only await already-settled promises).
type testHost struct {
	global *machine.Object
}

func newTestHost() *testHost {
	return &testHost{global: machine.NewObject(nil)}
}

func (h *testHost) GlobalObject() *machine.Object { return h.global }
func (h *testHost) Atom(idx uint32) string         { return "" }
func (h *testHost) CreateArray(length int) *machine.Object {
	return machine.NewArray(make([]machine.Value, length), nil)
}
func (h *testHost) ThrowTypeError(msg string) error  { return nil }
func (h *testHost) ThrowRangeError(msg string) error { return nil }
func (h *testHost) RunMicrotask() bool               { return false }

func newThread() *machine.Thread {
	return &machine.Thread{Host: newTestHost()}
}

func mustAssemble(t *testing.T, src string) *bc.Bytecode {
	t.Helper()
	b, err := bc.Assemble([]byte(src))
	require.NoError(t, err)
	return b
}

func TestExecArithmetic(t *testing.T) {
	src := `
function: add 2 2
	locals:
		a
		b
	code:
		get_loc 0
		get_loc 1
		add
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	v, err := machine.Execute(th, fn, machine.Undefined, []machine.Value{machine.Number(2), machine.Number(3)})
	require.NoError(t, err)
	require.Equal(t, machine.Number(5), v)
}

func TestExecStringConcatViaAdd(t *testing.T) {
	src := `
function: concat 2 2
	locals:
		a
		b
	code:
		get_loc 0
		get_loc 1
		add
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	v, err := machine.Execute(th, fn, machine.Undefined, []machine.Value{machine.NewString("foo"), machine.NewString("bar")})
	require.NoError(t, err)
	require.Equal(t, "foobar", v.String())
}

func TestExecGlobalVars(t *testing.T) {
	src := `
function: useGlobal 0 0
	atoms:
		counter
	code:
		push_i32 41
		set_var 0
		get_var 0
		push_i32 1
		add
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	v, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.NoError(t, err)
	require.Equal(t, machine.Number(42), v)
}

// TestExecLogicalAndShortCircuits checks that LOGICAL_AND jumps over the
// right-hand side entirely when the left operand is falsy, leaving the left
// operand (not a combined boolean) as the expression result.
func TestExecLogicalAndShortCircuits(t *testing.T) {
	src := `
function: land 0 0
	code:
		push_false
		logical_and 4
		push_i32 999
		goto 5
		nop
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	v, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.NoError(t, err)
	require.Equal(t, machine.Boolean(false), v)
}

func TestExecLogicalAndEvaluatesRightWhenLeftTruthy(t *testing.T) {
	src := `
function: land 0 0
	code:
		push_true
		logical_and 4
		push_i32 999
		goto 5
		nop
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	v, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.NoError(t, err)
	require.Equal(t, machine.Number(999), v)
}

func TestExecNullishCoalesce(t *testing.T) {
	src := `
function: coalesce 0 0
	code:
		undefined
		nullish_coalesce 4
		push_i32 7
		goto 5
		nop
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	v, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.NoError(t, err)
	require.Equal(t, machine.Number(7), v)
}

// TestExecThrowCaught exercises CATCH/THROW/NIP_CATCH: a CATCH marker sits
// below the expression's working stack, THROW unwinds to it, and NIP_CATCH
// removes the marker from under the caught value.
func TestExecThrowCaught(t *testing.T) {
	src := `
function: tryCatch 0 0
	code:
		catch 3
		push_i32 10
		throw
		nop
		nip_catch
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	v, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.NoError(t, err)
	require.Equal(t, machine.Number(10), v)
}

func TestExecThrowUncaughtPropagates(t *testing.T) {
	src := `
function: boom 0 0
	code:
		push_i32 13
		throw
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	_, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.Error(t, err)
}

// TestExecCallNative exercises CALL dispatch against a host-provided native
// function.
func TestExecCallNative(t *testing.T) {
	src := `
function: callIt 0 0
	atoms:
		double
	code:
		get_var 0
		undefined
		push_i32 21
		call 1
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	double := machine.NewNativeFunction("double", func(th *machine.Thread, this machine.Value, args []machine.Value) (machine.Value, error) {
		return machine.Number(machine.ToNumber(args[0]) * 2), nil
	}, nil)
	th.Host.GlobalObject().Set("double", double)

	v, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.NoError(t, err)
	require.Equal(t, machine.Number(42), v)
}

func TestExecCallUndefinedIsNotCallable(t *testing.T) {
	src := `
function: callIt 0 0
	atoms:
		missing
	code:
		get_var 0
		undefined
		call 0
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	_, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.ErrorContains(t, err, "missing is not a function")
}

// TestExecForOfIteratesArray exercises FOR_OF_START/FOR_OF_NEXT over an
// array value built purely from ARRAY_NEW + PUT_ARRAY_EL, summing elements.
func TestExecForOfIteratesArray(t *testing.T) {
	src := `
function: sumArr 2 0
	locals:
		arr
		total
	code:
		array_new
		set_loc 0
		drop
		push_i32 0
		set_loc 1
		drop

		get_loc 0
		push_i32 0
		push_i32 10
		put_array_el
		get_loc 0
		push_i32 1
		push_i32 20
		put_array_el
		get_loc 0
		push_i32 2
		push_i32 30
		put_array_el

		get_loc 0
		for_of_start
		for_of_next 26
		get_loc 1
		add
		set_loc 1
		drop
		goto 20
		nop
		get_loc 1
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	v, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.NoError(t, err)
	require.Equal(t, machine.Number(60), v)
}

// TestExecForInIteratesOwnKeys exercises FOR_IN_START/FOR_IN_NEXT over an
// ordinary object's own properties, in insertion order.
func TestExecForInIteratesOwnKeys(t *testing.T) {
	src := `
function: keysOf 2 0
	locals:
		obj
		out
	atoms:
		a
		b
	code:
		object
		set_loc 0
		drop
		push_empty_string
		set_loc 1
		drop

		get_loc 0
		push_atom_value 0
		push_i32 1
		define_prop
		get_loc 0
		push_atom_value 1
		push_i32 2
		define_prop

		get_loc 0
		for_in_start
		for_in_next 23
		get_loc 1
		swap
		add
		set_loc 1
		drop
		goto 16
		nop
		get_loc 1
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	v, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.NoError(t, err)
	require.Equal(t, "ab", v.String())
}

// TestExecGeneratorYieldAndResume exercises a generator's suspend/resume
// cycle via the replay-resumption strategy: each next() call re-runs the
// body from pc 0, skipping already-observed YIELDs (discarding the sent
// value they're replayed with here, since only the *final* skipped YIELD's
// substitution is meaningful per the documented replay limitation).
func TestExecGeneratorYieldAndResume(t *testing.T) {
	src := `
function: gen 0 0 +generator
	code:
		push_i32 1
		yield
		drop

		push_i32 2
		yield
		drop

		push_i32 3
		return
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	genVal, err := machine.Execute(th, fn, machine.Undefined, nil)
	require.NoError(t, err)
	gen, ok := genVal.(*machine.Object)
	require.True(t, ok)

	next, ok := gen.Get("next").(*machine.Function)
	require.True(t, ok)

	r1, err := th.Call(next, gen, []machine.Value{machine.Undefined})
	require.NoError(t, err)
	r1obj := r1.(*machine.Object)
	require.Equal(t, machine.Boolean(false), r1obj.Get("done"))
	require.Equal(t, machine.Number(1), r1obj.Get("value"))

	r2, err := th.Call(next, gen, []machine.Value{machine.Number(10)})
	require.NoError(t, err)
	r2obj := r2.(*machine.Object)
	require.Equal(t, machine.Boolean(false), r2obj.Get("done"))
	require.Equal(t, machine.Number(2), r2obj.Get("value"))

	r3, err := th.Call(next, gen, []machine.Value{machine.Number(100)})
	require.NoError(t, err)
	r3obj := r3.(*machine.Object)
	require.Equal(t, machine.Boolean(true), r3obj.Get("done"))
	require.Equal(t, machine.Number(3), r3obj.Get("value"))
}

// TestExecAwaitFulfilledPromise exercises AWAIT against an already-settled
// promise, the only case these tests can drive without a real microtask
// queue.
func TestExecAwaitFulfilledPromise(t *testing.T) {
	src := `
function: awaitIt 1 1 +async
	locals:
		p
	code:
		get_loc 0
		await
		return_async
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	p := machine.NewFulfilledPromise(machine.Number(5), nil)
	v, err := machine.Execute(th, fn, machine.Undefined, []machine.Value{p})
	require.NoError(t, err)
	settled, ok := v.(*machine.Promise)
	require.True(t, ok)
	require.Equal(t, machine.PromiseFulfilled, settled.State)
	require.Equal(t, machine.Number(5), settled.Value)
}

func TestExecAwaitRejectedPromisePropagatesAsRejection(t *testing.T) {
	src := `
function: awaitIt 1 1 +async
	locals:
		p
	code:
		get_loc 0
		await
		return_async
`
	fn := machine.NewClosure(mustAssemble(t, src), nil, nil)
	th := newThread()
	p := machine.NewRejectedPromise(machine.NewString("boom"), nil)
	v, err := machine.Execute(th, fn, machine.Undefined, []machine.Value{p})
	require.NoError(t, err)
	settled, ok := v.(*machine.Promise)
	require.True(t, ok)
	require.Equal(t, machine.PromiseRejected, settled.State)
	require.Equal(t, "boom", settled.Value.String())
}

// TestExecClosureCapturesLocalByReference exercises FCLOSURE/GET_VAR_REF:
// an inner closure template capturing an outer local by reference observes
// writes the outer frame makes to that local after the closure is built.
func TestExecClosureCapturesLocalByReference(t *testing.T) {
	inner := `
function: inner 0 0
	captures:
		x local 0
	code:
		get_var_ref 0
		return
`
	innerBC := mustAssemble(t, inner)

	outerSrc := `
function: outer 2 0
	locals:
		x
		fn
	constants:
		string "placeholder"
	code:
		push_i32 1
		set_loc 0
		drop
		fclosure 0
		set_loc 1
		drop
		push_i32 2
		put_loc 0
		get_loc 1
		return
`
	outerBC := mustAssemble(t, outerSrc)
	// Swap in the inner template as ConstantPool[0], mirroring how a real
	// compiler would emit a *bytecode.Bytecode constant for FCLOSURE.
	outerBC.ConstantPool[0] = innerBC

	outerFn := machine.NewClosure(outerBC, nil, nil)
	th := newThread()
	closureVal, err := machine.Execute(th, outerFn, machine.Undefined, nil)
	require.NoError(t, err)

	innerFn, ok := closureVal.(*machine.Function)
	require.True(t, ok)

	result, err := th.Call(innerFn, machine.Undefined, nil)
	require.NoError(t, err)
	require.Equal(t, machine.Number(2), result)
}
