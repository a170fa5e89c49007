package engine

import (
	"github.com/dop251/goja"
)

// Ref is an opaque, pointer-sized handle to an engine value. The zero Ref is
// invalid ("no value"). Refs are only meaningful in the context that minted
// them, and only while that context is the current one.
type Ref uint64

// InvalidRef is the null handle.
const InvalidRef Ref = 0

// collectHook is a registered before-collect callback plus its state.
type collectHook struct {
	state any
	cb    func(Ref, any)
	fired bool
}

// arena tracks every value a context has handed out. It is the adapter's
// stand-in for the engine's GC root table: entries live until the context is
// disposed, pin counts form the AddRef/Release ledger, and before-collect
// hooks fire exactly once when the entry is finally dropped.
type arena struct {
	values  map[Ref]goja.Value
	pins    map[Ref]int
	hooks   map[Ref][]*collectHook
	nextRef Ref
}

func newArena() *arena {
	return &arena{
		values:  make(map[Ref]goja.Value),
		pins:    make(map[Ref]int),
		hooks:   make(map[Ref][]*collectHook),
		nextRef: 1,
	}
}

func (a *arena) register(v goja.Value) Ref {
	ref := a.nextRef
	a.nextRef++
	a.values[ref] = v
	return ref
}

func (a *arena) lookup(ref Ref) (goja.Value, bool) {
	v, ok := a.values[ref]
	return v, ok
}

// collectAll fires all remaining hooks and drops every entry. Hooks are
// guarded so a hook never runs twice even if collectAll is re-entered.
func (a *arena) collectAll() {
	for ref, hooks := range a.hooks {
		for _, h := range hooks {
			if !h.fired {
				h.fired = true
				h.cb(ref, h.state)
			}
		}
	}
	a.hooks = make(map[Ref][]*collectHook)
	a.values = make(map[Ref]goja.Value)
	a.pins = make(map[Ref]int)
}

// ---------------------------------------------------------------------------
// Handle resolution and the pin ledger
// ---------------------------------------------------------------------------

// resolve maps a Ref to its goja value in the current context.
func resolve(ref Ref) (*Context, goja.Value, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return nil, nil, code
	}
	if ref == InvalidRef {
		return nil, nil, ErrNullArgument
	}
	v, ok := c.arena.lookup(ref)
	if !ok {
		return nil, nil, ErrInvalidArgument
	}
	return c, v, NoError
}

// AddRef increments the pin count of ref, protecting it from collection for
// as long as the count stays positive.
func AddRef(ref Ref) ErrorCode {
	c, _, code := resolve(ref)
	if Failed(code) {
		return code
	}
	c.arena.pins[ref]++
	return NoError
}

// Release decrements the pin count of ref. Calls must balance AddRef calls
// exactly; releasing an unpinned ref fails.
func Release(ref Ref) ErrorCode {
	c, _, code := resolve(ref)
	if Failed(code) {
		return code
	}
	n := c.arena.pins[ref]
	if n <= 0 {
		return ErrInvalidArgument
	}
	if n == 1 {
		delete(c.arena.pins, ref)
	} else {
		c.arena.pins[ref] = n - 1
	}
	return NoError
}

// PinCount reports the current pin count of ref. Zero for unpinned or
// unknown refs. Intended for ledger assertions in tests.
func PinCount(ref Ref) int {
	c, code := cur()
	if Failed(code) {
		return 0
	}
	return c.arena.pins[ref]
}

// SetObjectBeforeCollect registers cb to run exactly once when ref's entry is
// collected (at context dispose in this adapter). Multiple registrations on
// one ref all fire.
func SetObjectBeforeCollect(ref Ref, state any, cb func(Ref, any)) ErrorCode {
	c, _, code := resolve(ref)
	if Failed(code) {
		return code
	}
	if cb == nil {
		return ErrNullArgument
	}
	c.arena.hooks[ref] = append(c.arena.hooks[ref], &collectHook{state: state, cb: cb})
	return NoError
}
