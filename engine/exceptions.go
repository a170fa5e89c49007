package engine

// HasException reports whether an exception is pending in the current
// context.
func HasException() bool {
	c, code := cur()
	if Failed(code) {
		return false
	}
	return c.pending != InvalidRef
}

// GetAndClearException returns the pending exception and clears the pending
// state. Fails when nothing is pending.
func GetAndClearException() (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	if c.pending == InvalidRef {
		return InvalidRef, ErrInvalidArgument
	}
	ref := c.pending
	c.pending = InvalidRef
	return ref, NoError
}

// SetException files ref as the pending exception.
func SetException(ref Ref) ErrorCode {
	c, _, code := resolve(ref)
	if Failed(code) {
		return code
	}
	c.pending = ref
	return NoError
}

// newErrorObject builds an engine error object via the named constructor.
func newErrorObject(ctorName string, message Ref) (Ref, ErrorCode) {
	c, msg, code := resolve(message)
	if Failed(code) {
		return InvalidRef, code
	}
	var out Ref
	code = c.guard(func() ErrorCode {
		ctor := c.vm.Get(ctorName)
		obj, err := c.vm.New(ctor, msg)
		if err != nil {
			return ErrUnexpected
		}
		out = c.arena.register(obj)
		return NoError
	})
	return out, code
}

// CreateError builds an Error object with the given message value.
func CreateError(message Ref) (Ref, ErrorCode) {
	return newErrorObject("Error", message)
}

// CreateRangeError builds a RangeError object with the given message value.
func CreateRangeError(message Ref) (Ref, ErrorCode) {
	return newErrorObject("RangeError", message)
}

// CreateTypeError builds a TypeError object with the given message value.
func CreateTypeError(message Ref) (Ref, ErrorCode) {
	return newErrorObject("TypeError", message)
}

// makeCompileErrorObject synthesizes the error object for a compile failure,
// carrying message, line and column properties the way script-thrown syntax
// errors do.
func (c *Context) makeCompileErrorObject(msg string, line, col int) Ref {
	obj := c.vm.NewObject()
	_ = obj.Set("message", c.vm.ToValue(msg))
	_ = obj.Set("line", c.vm.ToValue(int64(line)))
	_ = obj.Set("column", c.vm.ToValue(int64(col)))
	_ = obj.Set("name", c.vm.ToValue("SyntaxError"))
	return c.arena.register(obj)
}
