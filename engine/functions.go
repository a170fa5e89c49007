package engine

import (
	"errors"

	"github.com/dop251/goja"
)

// NativeFunction is the trampoline signature the engine invokes for a bound
// host function. args[0] is the implicit receiver. The returned Ref becomes
// the call result; if the trampoline left an exception pending, the engine
// throws the returned value instead. Trampolines must contain every host
// failure — a panic escaping a NativeFunction violates the engine contract.
type NativeFunction func(callee Ref, isConstruct bool, args []Ref, state any) Ref

// CreateFunction creates a script-callable function dispatching to fn.
// state travels with the function for its whole lifetime; pair it with
// SetObjectBeforeCollect to release host resources.
func CreateFunction(fn NativeFunction, state any) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	if fn == nil {
		return InvalidRef, ErrNullArgument
	}
	var calleeRef Ref
	wrapped := func(call goja.FunctionCall) goja.Value {
		args := make([]Ref, 0, len(call.Arguments)+1)
		this := call.This
		if this == nil {
			this = goja.Undefined()
		}
		args = append(args, c.arena.register(this))
		for _, a := range call.Arguments {
			args = append(args, c.arena.register(a))
		}

		resultRef := fn(calleeRef, false, args, state)

		if c.pending != InvalidRef {
			exc, _ := c.arena.lookup(c.pending)
			c.pending = InvalidRef
			if exc != nil {
				panic(exc)
			}
		}
		if resultRef == InvalidRef {
			return goja.Undefined()
		}
		result, ok := c.arena.lookup(resultRef)
		if !ok {
			return goja.Undefined()
		}
		return result
	}
	calleeRef = c.arena.register(c.vm.ToValue(wrapped))
	return calleeRef, NoError
}

// CallFunction invokes fn with the argument vector. args[0] is the receiver
// and must be present.
func CallFunction(fn Ref, args []Ref) (Ref, ErrorCode) {
	c, v, code := resolve(fn)
	if Failed(code) {
		return InvalidRef, code
	}
	if len(args) == 0 {
		return InvalidRef, ErrInvalidArgument
	}
	if c.pending != InvalidRef {
		return InvalidRef, ErrInExceptionState
	}
	callable, ok := goja.AssertFunction(v)
	if !ok {
		return InvalidRef, ErrInvalidArgument
	}

	this, _, code := resolveArg(c, args[0])
	if Failed(code) {
		return InvalidRef, code
	}
	rest := make([]goja.Value, 0, len(args)-1)
	for _, a := range args[1:] {
		av, _, code := resolveArg(c, a)
		if Failed(code) {
			return InvalidRef, code
		}
		rest = append(rest, av)
	}

	var out Ref
	code = c.guard(func() ErrorCode {
		result, err := callable(this, rest...)
		if err != nil {
			return c.throwFromCallError(err)
		}
		if result == nil {
			result = goja.Undefined()
		}
		out = c.arena.register(result)
		return NoError
	})
	return out, code
}

// resolveArg maps an argument Ref, treating InvalidRef as undefined so
// callers can pass a null receiver slot.
func resolveArg(c *Context, ref Ref) (goja.Value, Ref, ErrorCode) {
	if ref == InvalidRef {
		return goja.Undefined(), c.undefRef, NoError
	}
	v, ok := c.arena.lookup(ref)
	if !ok {
		return nil, InvalidRef, ErrInvalidArgument
	}
	return v, ref, NoError
}

// throwFromCallError files an error produced by a goja call as the pending
// exception and returns the matching code.
func (c *Context) throwFromCallError(err error) ErrorCode {
	var so *goja.StackOverflowError
	if errors.As(err, &so) {
		return ErrOutOfMemory
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		c.pending = c.arena.register(exc.Value())
		return ErrScriptException
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return ErrFatal
	}
	return ErrUnexpected
}
