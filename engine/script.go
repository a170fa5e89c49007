package engine

import (
	"errors"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
)

// SourceContext is a caller-supplied cookie identifying a script source for
// diagnostics. The engine does not interpret it.
type SourceContext uint64

// compile parses and compiles src, filing a compile failure (with line and
// column) as the pending exception.
func (c *Context) compile(src, url string) (*goja.Program, ErrorCode) {
	if _, perr := parser.ParseFile(nil, url, src, 0); perr != nil {
		line, col := 0, 0
		msg := perr.Error()
		var list parser.ErrorList
		if errors.As(perr, &list) && len(list) > 0 {
			e := list[0]
			line, col, msg = e.Position.Line, e.Position.Column, e.Message
		}
		c.pending = c.makeCompileErrorObject(msg, line, col)
		return nil, ErrScriptCompile
	}
	prog, err := goja.Compile(url, src, false)
	if err != nil {
		c.pending = c.makeCompileErrorObject(err.Error(), 0, 0)
		return nil, ErrScriptCompile
	}
	return prog, NoError
}

// RunScript compiles and executes src, returning the completion value.
// Fails without running while an exception is pending.
func RunScript(src string, _ SourceContext, url string) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	if c.pending != InvalidRef {
		return InvalidRef, ErrInExceptionState
	}
	prog, code := c.compile(src, url)
	if Failed(code) {
		return InvalidRef, code
	}
	var out Ref
	code = c.guard(func() ErrorCode {
		result, err := c.vm.RunProgram(prog)
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

// ParseScript compiles src without executing it and returns a function value
// that runs the script when called.
func ParseScript(src string, _ SourceContext, url string) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	if c.pending != InvalidRef {
		return InvalidRef, ErrInExceptionState
	}
	prog, code := c.compile(src, url)
	if Failed(code) {
		return InvalidRef, code
	}
	runner := func(goja.FunctionCall) goja.Value {
		result, err := c.vm.RunProgram(prog)
		if err != nil {
			var exc *goja.Exception
			if errors.As(err, &exc) {
				panic(exc.Value())
			}
			panic(c.vm.NewGoError(err))
		}
		if result == nil {
			return goja.Undefined()
		}
		return result
	}
	return c.arena.register(c.vm.ToValue(runner)), NoError
}
