package machine

import (
	"fmt"
	"math"

	bc "github.com/mna/esquick/lang/bytecode"
)

// Execute is the VM's public entry point (spec §4.4 "Public contract
// execute(function, thisArg, args[])"): run fn's bytecode to completion (or,
// for a generator-marked closure, construct its suspended GeneratorState
// without running any bytecode yet — spec §4.4.1 "Generators"). Both
// Thread.RunProgram and every nested Call/Construct reach bytecode functions
// through here, so frame push/pop and async/generator wrapping happen in
// exactly one place.
func Execute(th *Thread, fn *Function, thisArg Value, args []Value) (Value, error) {
	if fn.Closure == nil {
		return nil, fmt.Errorf("machine: Execute called on a native function %q", fn.Name())
	}
	code := fn.Closure.Bytecode
	if code.IsGenerator {
		return NewGenerator(fn, thisArg, args, nil), nil
	}
	if len(th.callStack) >= th.callStackLimit() {
		return nil, fmt.Errorf("machine: maximum call stack size exceeded")
	}

	fr := newFrame(fn, thisArg, args, th.currentStrictMode())
	th.callStack = append(th.callStack, fr)
	v, _, err := th.run(fr)
	th.callStack = th.callStack[:len(th.callStack)-1]

	if code.IsAsync {
		if err != nil {
			if je, ok := err.(*jsException); ok {
				return NewRejectedPromise(je.value, nil), nil
			}
			return nil, err
		}
		return NewFulfilledPromise(v, nil), nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// run is the opcode dispatch loop for one Frame (spec §4.4 "the interpreter
// loop"). It returns (value, suspended, err): suspended is true only when a
// generator body hits a genuine (non-skipped) YIELD; err is a *jsException
// when the frame's own stack had no catch marker for a pending exception
// (the caller — Call/Construct/Execute's top level — decides whether to
// catch it further up or propagate it as a Go error).
func (th *Thread) run(fr *Frame) (Value, bool, error) {
	code := fr.code()
	for {
		if th.ctx != nil {
			if err := th.ctx.Err(); err != nil {
				return nil, false, err
			}
		}
		if th.hasPending {
			if !th.unwind(fr) {
				return nil, false, &jsException{value: th.pendingException}
			}
			continue
		}

		th.steps++
		if th.maxSteps != 0 && th.steps > th.maxSteps {
			return nil, false, fmt.Errorf("machine: step budget exceeded")
		}

		op, arg, next, derr := bc.Decode(code, fr.pc)
		if derr != nil {
			return nil, false, fmt.Errorf("machine: %w", derr)
		}
		fr.pc = next

		switch op {
		case bc.NOP:
			// no-op

		case bc.UNDEFINED:
			fr.push(Undefined)
		case bc.NULL:
			fr.push(Null)
		case bc.PUSH_THIS:
			fr.push(fr.this)
		case bc.PUSH_TRUE:
			fr.push(Boolean(true))
		case bc.PUSH_FALSE:
			fr.push(Boolean(false))
		case bc.OBJECT:
			fr.push(NewObject(nil))
		case bc.ARRAY_NEW:
			fr.push(NewArray(nil, nil))
		case bc.PUSH_EMPTY_STRING:
			fr.push(NewString(""))

		case bc.DROP:
			fr.pop()
		case bc.DUP:
			v := fr.peek()
			fr.push(v)
		case bc.DUP2:
			y := fr.pop()
			x := fr.pop()
			fr.push(x)
			fr.push(y)
			fr.push(x)
			fr.push(y)
		case bc.SWAP:
			y := fr.pop()
			x := fr.pop()
			fr.push(y)
			fr.push(x)
		case bc.NIP:
			v := fr.pop()
			fr.pop()
			fr.push(v)

		case bc.GET_ARRAY_EL:
			key := fr.pop()
			obj := fr.pop()
			fr.push(th.getProperty(obj, ToPrimitiveString(key)))
		case bc.PUT_ARRAY_EL:
			v := fr.pop()
			key := fr.pop()
			obj := fr.pop()
			th.setProperty(obj, ToPrimitiveString(key), v)
		case bc.DEFINE_PROP:
			v := fr.pop()
			key := fr.pop()
			obj := fr.pop()
			th.setProperty(obj, ToPrimitiveString(key), v)

		case bc.ADD:
			y := fr.pop()
			x := fr.pop()
			fr.push(Add(x, y))
		case bc.SUB:
			y := fr.pop()
			x := fr.pop()
			fr.push(Number(ToNumber(x) - ToNumber(y)))
		case bc.MUL:
			y := fr.pop()
			x := fr.pop()
			fr.push(Number(ToNumber(x) * ToNumber(y)))
		case bc.DIV:
			y := fr.pop()
			x := fr.pop()
			fr.push(Number(ToNumber(x) / ToNumber(y)))
		case bc.MOD:
			y := fr.pop()
			x := fr.pop()
			fr.push(Number(math.Mod(ToNumber(x), ToNumber(y))))
		case bc.EXP:
			y := fr.pop()
			x := fr.pop()
			fr.push(Number(math.Pow(ToNumber(x), ToNumber(y))))
		case bc.NEG:
			x := fr.pop()
			fr.push(Number(-ToNumber(x)))
		case bc.PLUS:
			x := fr.pop()
			fr.push(Number(ToNumber(x)))
		case bc.INC:
			x := fr.pop()
			fr.push(Number(ToNumber(x) + 1))
		case bc.DEC:
			x := fr.pop()
			fr.push(Number(ToNumber(x) - 1))
		case bc.EQ:
			y := fr.pop()
			x := fr.pop()
			fr.push(Boolean(LooseEqual(x, y)))
		case bc.NEQ:
			y := fr.pop()
			x := fr.pop()
			fr.push(Boolean(!LooseEqual(x, y)))
		case bc.STRICT_EQ:
			y := fr.pop()
			x := fr.pop()
			fr.push(Boolean(StrictEqual(x, y)))
		case bc.STRICT_NEQ:
			y := fr.pop()
			x := fr.pop()
			fr.push(Boolean(!StrictEqual(x, y)))
		case bc.LT:
			y := fr.pop()
			x := fr.pop()
			cmp, ok := Compare(x, y)
			fr.push(Boolean(ok && cmp < 0))
		case bc.LTE:
			y := fr.pop()
			x := fr.pop()
			cmp, ok := Compare(x, y)
			fr.push(Boolean(ok && cmp <= 0))
		case bc.GT:
			y := fr.pop()
			x := fr.pop()
			cmp, ok := Compare(x, y)
			fr.push(Boolean(ok && cmp > 0))
		case bc.GTE:
			y := fr.pop()
			x := fr.pop()
			cmp, ok := Compare(x, y)
			fr.push(Boolean(ok && cmp >= 0))
		case bc.INSTANCEOF:
			y := fr.pop()
			x := fr.pop()
			res, ierr := instanceOf(x, y)
			if ierr != nil {
				fr.push(Undefined)
				th.setPending(errToValue(ierr))
				continue
			}
			fr.push(Boolean(res))
		case bc.IN:
			y := fr.pop()
			x := fr.pop()
			obj, ok := y.(*Object)
			fr.push(Boolean(ok && hasProperty(obj, ToPrimitiveString(x))))
		case bc.NOT:
			x := fr.pop()
			fr.push(Boolean(!ToBoolean(x)))
		case bc.TILDE:
			x := fr.pop()
			fr.push(Number(float64(^ToInt32(x))))
		case bc.SHL:
			y := fr.pop()
			x := fr.pop()
			fr.push(Number(float64(ToInt32(x) << (ToUint32(y) & 31))))
		case bc.SHR:
			y := fr.pop()
			x := fr.pop()
			fr.push(Number(float64(ToUint32(x) >> (ToUint32(y) & 31))))
		case bc.SAR:
			y := fr.pop()
			x := fr.pop()
			fr.push(Number(float64(ToInt32(x) >> (ToUint32(y) & 31))))

		case bc.THROW:
			v := fr.pop()
			th.setPending(v)
		case bc.NIP_CATCH:
			v := fr.pop()
			marker := fr.popStackValue()
			if _, ok := marker.(catchMarker); !ok {
				return nil, false, fmt.Errorf("machine: NIP_CATCH: expected a catch marker below top of stack")
			}
			fr.push(v)
		case bc.TYPEOF:
			v := fr.pop()
			fr.push(NewString(v.TypeOf()))
		case bc.DELETE:
			key := fr.pop()
			obj := fr.pop()
			if o, ok := obj.(*Object); ok {
				fr.push(Boolean(o.Delete(ToPrimitiveString(key))))
			} else {
				fr.push(Boolean(true))
			}
		case bc.IS_UNDEFINED:
			v := fr.pop()
			_, ok := v.(UndefinedType)
			fr.push(Boolean(ok))
		case bc.IS_NULL:
			v := fr.pop()
			_, ok := v.(NullType)
			fr.push(Boolean(ok))
		case bc.IS_UNDEFINED_OR_NULL:
			v := fr.pop()
			fr.push(Boolean(IsNullish(v)))

		case bc.FOR_OF_START:
			v := fr.pop()
			cur, ierr := getIterator(th, v, false)
			if ierr != nil {
				fr.push(Undefined)
				th.setPending(errToValue(ierr))
				continue
			}
			fr.push(iteratorValue{cur: cur})
		case bc.FOR_AWAIT_OF_START:
			v := fr.pop()
			cur, ierr := getIterator(th, v, true)
			if ierr != nil {
				fr.push(Undefined)
				th.setPending(errToValue(ierr))
				continue
			}
			fr.push(iteratorValue{cur: cur})
		case bc.FOR_IN_START:
			v := fr.pop()
			fr.push(iteratorValue{cur: getForInIterator(v)})

		case bc.INITIAL_YIELD:
			// no-op marker; fires once at generator construction, never suspends.
		case bc.YIELD:
			v := fr.pop()
			if fr.yieldSkip > 0 {
				fr.yieldSkip--
				if fr.yieldSkip == 0 {
					fr.push(fr.resumeValue)
				} else {
					fr.push(Undefined)
				}
				continue
			}
			return v, true, nil
		case bc.AWAIT:
			v := fr.pop()
			p, ok := v.(*Promise)
			if !ok {
				p = NewFulfilledPromise(v, nil)
			}
			settled, aerr := th.awaitPromise(p)
			if aerr != nil {
				fr.push(Undefined)
				th.setPending(errToValue(aerr))
				continue
			}
			fr.push(settled)
		case bc.RETURN:
			v := fr.pop()
			return v, false, nil
		case bc.RETURN_ASYNC:
			v := fr.pop()
			return v, false, nil

		case bc.PUSH_I32:
			fr.push(Number(float64(int32(arg))))
		case bc.PUSH_CONST:
			fr.push(loadConstant(fr.fn.Closure.Bytecode.ConstantPool[arg]))
		case bc.PUSH_ATOM_VALUE:
			fr.push(NewString(atomName(fr, arg)))
		case bc.PUSH_BIGINT_I32:
			fr.push(NewBigInt(int64(int32(arg))))

		case bc.GET_VAR:
			name := atomName(fr, arg)
			th.propertyAccessChain = name
			fr.push(th.Host.GlobalObject().Get(name))
		case bc.PUT_VAR:
			v := fr.pop()
			th.Host.GlobalObject().Set(atomName(fr, arg), v)
		case bc.SET_VAR:
			v := fr.pop()
			th.Host.GlobalObject().Set(atomName(fr, arg), v)
			fr.push(v)

		case bc.GET_LOC, bc.GET_LOC_CHECK:
			fr.push(fr.locals[arg])
		case bc.PUT_LOC, bc.PUT_LOC_CHECK:
			v := fr.pop()
			fr.locals[arg] = v
		case bc.SET_LOC:
			v := fr.pop()
			fr.locals[arg] = v
			fr.push(v)

		case bc.GET_ARG:
			if int(arg) < len(fr.args) {
				fr.push(fr.args[arg])
			} else {
				fr.push(Undefined)
			}
		case bc.PUT_ARG:
			v := fr.pop()
			if int(arg) < len(fr.args) {
				fr.args[arg] = v
			}
		case bc.SET_ARG:
			v := fr.pop()
			if int(arg) < len(fr.args) {
				fr.args[arg] = v
			}
			fr.push(v)

		case bc.GET_VAR_REF, bc.GET_VAR_REF_CHECK:
			fr.push(fr.fn.Closure.Refs[arg].get())
		case bc.PUT_VAR_REF:
			v := fr.pop()
			fr.fn.Closure.Refs[arg].set(v)
		case bc.SET_VAR_REF:
			v := fr.pop()
			fr.fn.Closure.Refs[arg].set(v)
			fr.push(v)

		case bc.GET_FIELD:
			obj := fr.pop()
			name := atomName(fr, arg)
			th.recordPropertyAccess(obj, name)
			fr.push(th.getProperty(obj, name))
		case bc.PUT_FIELD:
			v := fr.pop()
			obj := fr.pop()
			th.setProperty(obj, atomName(fr, arg), v)
		case bc.DEFINE_FIELD:
			v := fr.pop()
			obj := fr.pop()
			th.setProperty(obj, atomName(fr, arg), v)

		case bc.LOGICAL_AND:
			left := fr.peek()
			if !ToBoolean(left) {
				fr.pc = arg
			} else {
				fr.pop()
			}
		case bc.LOGICAL_OR:
			left := fr.peek()
			if ToBoolean(left) {
				fr.pc = arg
			} else {
				fr.pop()
			}
		case bc.NULLISH_COALESCE:
			left := fr.peek()
			if !IsNullish(left) {
				fr.pc = arg
			} else {
				fr.pop()
			}

		case bc.GOTO:
			fr.pc = arg
		case bc.IF_FALSE:
			cond := fr.pop()
			if !ToBoolean(cond) {
				fr.pc = arg
			}
		case bc.IF_TRUE:
			cond := fr.pop()
			if ToBoolean(cond) {
				fr.pc = arg
			}
		case bc.CATCH:
			fr.pushMarker(arg)

		case bc.CALL, bc.CALL_METHOD:
			n := int(arg)
			args := popArgs(fr, n)
			receiver := fr.pop()
			callee := fr.pop()
			v, cerr := th.Call(callee, receiver, args)
			th.propertyAccessChain = ""
			if cerr != nil {
				if _, ok := cerr.(*jsException); !ok {
					return nil, false, cerr
				}
				fr.push(Undefined)
				th.setPending(errToValue(cerr))
				continue
			}
			fr.push(v)
		case bc.CALL_CONSTRUCTOR:
			n := int(arg)
			args := popArgs(fr, n)
			callee := fr.pop()
			v, cerr := th.Construct(callee, args)
			if cerr != nil {
				if _, ok := cerr.(*jsException); !ok {
					return nil, false, cerr
				}
				fr.push(Undefined)
				th.setPending(errToValue(cerr))
				continue
			}
			fr.push(v)

		case bc.THROW_ERROR:
			msg := atomName(fr, arg)
			errObj := NewObject(nil)
			errObj.class = "Error"
			errObj.Set("message", NewString(msg))
			errObj.Set("name", NewString("Error"))
			th.setPending(errObj)

		case bc.FOR_OF_NEXT, bc.FOR_IN_NEXT:
			iv, ok := fr.peek().(iteratorValue)
			if !ok {
				return nil, false, fmt.Errorf("machine: %s: top of stack is not an iterator", op)
			}
			v, done, ierr := iv.cur.next(th)
			if ierr != nil {
				fr.pop()
				fr.push(Undefined)
				th.setPending(errToValue(ierr))
				continue
			}
			if done {
				fr.pop()
				fr.pc = arg
			} else {
				fr.push(v)
			}
		case bc.FOR_AWAIT_OF_NEXT:
			iv, ok := fr.peek().(iteratorValue)
			if !ok {
				return nil, false, fmt.Errorf("machine: for_await_of_next: top of stack is not an iterator")
			}
			v, done, ierr := iv.cur.next(th)
			if ierr != nil {
				fr.pop()
				fr.push(Undefined)
				th.setPending(errToValue(ierr))
				continue
			}
			if done {
				fr.pop()
				fr.pc = arg
			} else {
				fr.push(v)
			}

		case bc.FCLOSURE:
			tmpl, ok := fr.fn.Closure.Bytecode.ConstantPool[arg].(*bc.Bytecode)
			if !ok {
				return nil, false, fmt.Errorf("machine: FCLOSURE: constant %d is not a function template", arg)
			}
			fr.push(NewClosure(tmpl, fr, nil))
		case bc.CLOSE_LOC:
			fr.closeLocal(arg)

		default:
			return nil, false, fmt.Errorf("machine: unimplemented opcode %s", op)
		}
	}
}

func popArgs(fr *Frame, n int) []Value {
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = fr.pop()
	}
	return args
}

func atomName(fr *Frame, idx uint32) string {
	pool := fr.fn.Closure.Bytecode.AtomPool
	if int(idx) < len(pool) {
		return pool[idx]
	}
	return ""
}

// loadConstant converts a ConstantPool entry (int64/float64/string/bool/nil,
// per bytecode.Bytecode's doc comment) to the Value the VM operates on.
func loadConstant(c any) Value {
	switch v := c.(type) {
	case nil:
		return Null
	case bool:
		return Boolean(v)
	case int64:
		return Number(float64(v))
	case float64:
		return Number(v)
	case string:
		return NewString(v)
	case Value:
		return v
	default:
		return Undefined
	}
}

// recordPropertyAccess maintains the diagnostic chain notCallableMessage
// consults (spec §8 "TypeError messages on non-callable calls name the last
// property-access path").
func (th *Thread) recordPropertyAccess(obj Value, name string) {
	if th.propertyAccessLock {
		return
	}
	base := th.propertyAccessChain
	if base == "" {
		base = obj.String()
	}
	th.propertyAccessChain = base + "." + name
}

// unwind implements the exception unwinder (spec §4.4 "Exception
// unwinding"): pop stack values until a CatchOffset marker is found (push
// the exception, jump, clear pending) or the frame empties (report failure
// so the caller re-throws to its own caller).
func (th *Thread) unwind(fr *Frame) bool {
	exc := th.pendingException
	for len(fr.stack) > 0 {
		v := fr.popStackValue()
		if m, ok := v.(catchMarker); ok {
			// Leave the marker itself on the stack, under the pushed exception:
			// NIP_CATCH expects to find it there when the catch body is done
			// with the exception value (spec §4.4.1 "NIP_CATCH(v) pops the
			// exception value, then the CatchOffset marker beneath it").
			fr.pushMarker(m.offset)
			fr.push(exc)
			fr.pc = m.offset
			th.clearPending()
			return true
		}
	}
	return false
}

// awaitPromise implements AWAIT's suspension point (spec §5 "Suspension
// points"): drain the host microtask queue until p settles, or report a
// deadlock if the queue empties first.
func (th *Thread) awaitPromise(p *Promise) (Value, error) {
	for p.State == PromisePending {
		if !th.Host.RunMicrotask() {
			return nil, fmt.Errorf("machine: await deadlock: microtask queue empty while promise is still pending")
		}
	}
	if p.State == PromiseRejected {
		return nil, &jsException{value: p.Value}
	}
	return p.Value, nil
}
