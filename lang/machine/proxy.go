package machine

// Proxy wraps a target value with a handler's apply/construct traps (spec
// §4.4.1 "Calls and constructors" dispatch (a): "if callee is a Proxy,
// invoke proxy apply trap if handler has apply, else forward to target").
// This package models only the two traps the CALL/CALL_CONSTRUCTOR dispatch
// table consults; get/set/has/deleteProperty traps are out of scope (see
// DESIGN.md) since the object model has no generic trap-interception point
// for ordinary property access.
type Proxy struct {
	*Object
	Target    Value
	Apply     *Function
	Construct *Function
}

func NewProxy(target Value, handler *Object, proto *Object) *Proxy {
	p := &Proxy{Object: NewObject(proto), Target: target}
	p.class = "Proxy"
	if handler != nil {
		if fn, ok := handler.Get("apply").(*Function); ok {
			p.Apply = fn
		}
		if fn, ok := handler.Get("construct").(*Function); ok {
			p.Construct = fn
		}
	}
	return p
}

func (p *Proxy) TypeOf() string {
	if _, ok := p.Target.(*Function); ok {
		return "function"
	}
	if _, ok := p.Target.(*Proxy); ok {
		return "function"
	}
	return "object"
}
