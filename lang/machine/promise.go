package machine

// PromiseState is the settlement state a Promise value can be in.
type PromiseState int

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// Promise is the minimal JS Promise shape AWAIT needs (spec §4.4.1
// "Async"): a settlement state plus the settled value, independent of the
// full Promise/A+ resolution algorithm (which belongs to the built-in
// library, out of scope per spec §1 — see DESIGN.md).
type Promise struct {
	*Object
	State PromiseState
	Value Value // resolution value if Fulfilled, rejection reason if Rejected
}

func NewPromise(proto *Object) *Promise {
	return &Promise{Object: NewObject(proto), State: PromisePending}
}

func NewFulfilledPromise(v Value, proto *Object) *Promise {
	return &Promise{Object: NewObject(proto), State: PromiseFulfilled, Value: v}
}

func NewRejectedPromise(v Value, proto *Object) *Promise {
	return &Promise{Object: NewObject(proto), State: PromiseRejected, Value: v}
}

func (p *Promise) Resolve(v Value) {
	if p.State == PromisePending {
		p.State = PromiseFulfilled
		p.Value = v
	}
}

func (p *Promise) Reject(v Value) {
	if p.State == PromisePending {
		p.State = PromiseRejected
		p.Value = v
	}
}

func (p *Promise) TypeOf() string { return "object" }
