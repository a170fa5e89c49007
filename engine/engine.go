// Package engine adapts an embedded JavaScript engine (goja) to the opaque
// handle ABI the bridge layer consumes: pointer-sized value refs, C-style
// error codes, a current-context discipline, an explicit pin (ref-count)
// ledger and before-collect hooks.
//
// Every value produced by a context is tracked in that context's arena and
// stays valid until the context is disposed. Pinning via AddRef/Release does
// not extend validity in this adapter (the arena already outlives scopes),
// but the ledger is authoritative: callers must keep increments and
// decrements balanced, and tests can observe counts through PinCount.
//
// The engine is single-threaded per context. The adapter performs no
// internal synchronization around the current context; callers serialize
// their own cross-thread usage.
package engine

import (
	"github.com/dop251/goja"
)

// Strict enables additional invariant checks (context currency assertions).
// Tests set it; production embedders normally leave it off.
var Strict bool

// RuntimeAttributes configure runtime creation.
type RuntimeAttributes struct {
	// DisableEval rejects eval/Function constructor use in scripts.
	DisableEval bool
}

// Runtime owns one or more contexts. Disposing the runtime disposes every
// context created from it.
type Runtime struct {
	attrs    RuntimeAttributes
	contexts []*Context
	disposed bool
}

// NewRuntime creates a runtime.
func NewRuntime(attrs RuntimeAttributes) *Runtime {
	return &Runtime{attrs: attrs}
}

// Dispose tears down the runtime and all its contexts. Safe to call once;
// subsequent calls are no-ops. If a context of this runtime is current it is
// un-set first.
func (r *Runtime) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	for _, c := range r.contexts {
		c.dispose()
	}
	r.contexts = nil
}

// Context is an isolated global-object scope. It must be made current (see
// SetCurrentContext) before any value operation succeeds.
type Context struct {
	rt        *Runtime
	vm        *goja.Runtime
	arena     *arena
	externals map[Ref]any
	propIDs   map[string]PropertyID
	propName  []string

	// pending is the current exception ref, 0 when none.
	pending Ref

	// interned singletons
	undefRef Ref
	nullRef  Ref
	trueRef  Ref
	falseRef Ref

	disposed bool
}

// NewContext creates a context in the runtime.
func (r *Runtime) NewContext() (*Context, ErrorCode) {
	if r.disposed {
		return nil, ErrInvalidArgument
	}
	c := &Context{
		rt:        r,
		vm:        goja.New(),
		arena:     newArena(),
		externals: make(map[Ref]any),
		propIDs:   make(map[string]PropertyID),
	}
	if r.attrs.DisableEval {
		// Removing the global bindings is as far as the adapter goes;
		// scripts that reach for eval get a ReferenceError.
		c.vm.GlobalObject().Delete("eval")
		c.vm.GlobalObject().Delete("Function")
	}
	c.undefRef = c.arena.register(goja.Undefined())
	c.nullRef = c.arena.register(goja.Null())
	c.trueRef = c.arena.register(c.vm.ToValue(true))
	c.falseRef = c.arena.register(c.vm.ToValue(false))
	r.contexts = append(r.contexts, c)
	return c, NoError
}

func (c *Context) dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if current == c {
		current = nil
	}
	c.arena.collectAll()
	c.externals = make(map[Ref]any)
}

// current is the active context. The ABI is context-implicit: value
// operations act on the current context.
var current *Context

// SetCurrentContext makes c the active context. Passing nil clears it
// (the balanced "restore" half of the set/restore discipline).
func SetCurrentContext(c *Context) ErrorCode {
	if c != nil && c.disposed {
		return ErrInvalidArgument
	}
	current = c
	return NoError
}

// CurrentContext returns the active context, or nil.
func CurrentContext() *Context {
	return current
}

// cur returns the active context or fails.
func cur() (*Context, ErrorCode) {
	if current == nil || current.disposed {
		return nil, ErrNoCurrentContext
	}
	return current, NoError
}

// AssertCurrent panics when Strict is set and c is not the current context.
// Release builds treat it as a no-op; the currency invariant is caller
// discipline, not an enforced property.
func AssertCurrent(c *Context) {
	if Strict && current != c {
		panic("engine: context is not current")
	}
}

// guard runs f and translates goja panics (thrown values, type errors from
// coercions, stack overflow) into error codes, setting the pending exception
// where one exists. Host failures never cross the adapter boundary as
// panics.
func (c *Context) guard(f func() ErrorCode) (code ErrorCode) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case *goja.StackOverflowError:
				code = ErrOutOfMemory
			case *goja.Exception:
				c.pending = c.arena.register(v.Value())
				code = ErrScriptException
			case goja.Value:
				c.pending = c.arena.register(v)
				code = ErrScriptException
			default:
				code = ErrUnexpected
			}
		}
	}()
	return f()
}
