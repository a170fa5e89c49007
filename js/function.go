package js

import (
	"errors"

	"github.com/chazu/jsbridge/engine"
)

// Handler is a host callable bound into script. It always receives exactly
// as many values as the declared arity: missing call-site arguments arrive
// as empty values (converting one fails with InvalidArgument — a missing
// required argument is a deliberate failure, not a default). The first
// return drives the call result; nil means undefined. A returned error is
// contained by the trampoline and surfaces in script as a thrown Error.
type Handler func(args []Value) (any, error)

// boundCallable is the engine-owned-lifetime box for a bound host callable.
// The engine's before-collect hook releases it exactly once; that hook is
// the only connection between host heap ownership and engine GC lifetime.
type boundCallable struct {
	arity    int
	fn       Handler
	released bool
}

func (b *boundCallable) release() {
	if b.released {
		return
	}
	b.released = true
	b.fn = nil
}

// NewFunction binds fn as a script-callable function with a fixed declared
// arity. The arity never varies per invocation: extra call-site arguments
// are dropped, missing ones become empty placeholder values.
func NewFunction(arity int, fn Handler) (Value, error) {
	if fn == nil {
		return Value{}, errKind(engine.ErrNullArgument, "nil handler")
	}
	if arity < 0 {
		return Value{}, errKind(engine.ErrInvalidArgument, "negative arity")
	}
	box := &boundCallable{arity: arity, fn: fn}
	ref, code := engine.CreateFunction(trampoline, box)
	if err := check(code); err != nil {
		return Value{}, err
	}
	if err := check(engine.SetObjectBeforeCollect(ref, box, func(_ engine.Ref, state any) {
		state.(*boundCallable).release()
	})); err != nil {
		return Value{}, err
	}
	return Value{ref: ref}, nil
}

// trampoline is the engine-invocable entry point for every bound callable.
// It unpacks arguments, dispatches, converts the result, and contains every
// host failure: nothing raised here may cross back over the engine boundary
// except as a script-visible Error.
func trampoline(_ engine.Ref, _ bool, args []engine.Ref, state any) (out engine.Ref) {
	box := state.(*boundCallable)

	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				out = containError(err)
			} else {
				out = throwErrorMessage("Unhandled Exception")
			}
		}
	}()

	if box.released || box.fn == nil {
		return throwErrorMessage("Unhandled Exception")
	}

	// args[0] is the implicit receiver; positional arguments follow.
	supplied := args[1:]
	params := make([]Value, box.arity)
	for i := range params {
		if i < len(supplied) {
			params[i] = Value{ref: supplied[i]}
		}
	}

	result, err := box.fn(params)
	if err != nil {
		return containError(err)
	}
	if result == nil {
		undef, uerr := Undefined()
		if uerr != nil {
			return engine.InvalidRef
		}
		return undef.ref
	}
	converted, cerr := New(result)
	if cerr != nil {
		return containError(cerr)
	}
	return converted.ref
}

// containError maps a host failure to a script Error, sets it pending, and
// returns it as the trampoline result.
func containError(err error) engine.Ref {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.ToJSException(IdentityPosition).ref
	}
	var ce *CallbackError
	if errors.As(err, &ce) {
		return throwErrorMessage(ce.Message)
	}
	return throwErrorMessage(err.Error())
}

// throwErrorMessage constructs an Error with msg, sets it as the pending
// exception and returns its handle. Best effort: secondary failures yield
// an invalid ref, which the engine surfaces as undefined.
func throwErrorMessage(msg string) engine.Ref {
	msgVal, err := NewString(msg)
	if err != nil {
		return engine.InvalidRef
	}
	excRef, code := engine.CreateError(msgVal.ref)
	if engine.Failed(code) {
		return engine.InvalidRef
	}
	if engine.Failed(engine.SetException(excRef)) {
		return engine.InvalidRef
	}
	return excRef
}
