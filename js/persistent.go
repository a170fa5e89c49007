package js

import (
	"github.com/chazu/jsbridge/engine"
)

// Persistent pins a value against garbage collection through the engine's
// ref-count ledger. State machine: an empty Persistent holds nothing; a
// pinned one holds a handle whose pin count it incremented exactly once.
// Clone increments again; Take transfers ownership without touching the
// count; Release decrements exactly once and empties the handle. Every
// operation on an empty Persistent is a ledger no-op.
//
// The ledger invariant: at any instant, the net increments equal the number
// of live (non-released, non-taken-from) clones derived from the original.
type Persistent struct {
	v Value
}

// NewPersistent promotes a scope-bound value to a pinned reference.
// Promoting an empty value is a caller error: it panics under engine.Strict
// and otherwise yields an empty Persistent without touching the ledger.
func NewPersistent(v Value) (Persistent, error) {
	if v.IsEmpty() {
		if engine.Strict {
			panic("js: promoting an empty value")
		}
		return Persistent{}, nil
	}
	if err := check(engine.AddRef(v.ref)); err != nil {
		return Persistent{}, err
	}
	return Persistent{v: v}, nil
}

// NewPersistentProp promotes the materialized result of a property access.
func NewPersistentProp(p Prop) (Persistent, error) {
	v, err := p.Get()
	if err != nil {
		return Persistent{}, err
	}
	return NewPersistent(v)
}

// Value returns the pinned value (empty if released).
func (p *Persistent) Value() Value {
	return p.v
}

// IsEmpty reports whether the reference holds nothing.
func (p *Persistent) IsEmpty() bool {
	return p.v.IsEmpty()
}

// Clone returns a new pinned reference to the same value, incrementing the
// ledger once. Cloning an empty reference is a no-op.
func (p *Persistent) Clone() (Persistent, error) {
	if p.IsEmpty() {
		return Persistent{}, nil
	}
	if err := check(engine.AddRef(p.v.ref)); err != nil {
		return Persistent{}, err
	}
	return Persistent{v: p.v}, nil
}

// Take transfers ownership to the returned reference and empties p. The
// ledger is untouched: the increment previously owned by p now belongs to
// the result.
func (p *Persistent) Take() Persistent {
	out := Persistent{v: p.v}
	p.v = Value{}
	return out
}

// Release decrements the ledger exactly once and empties the reference.
// Releasing an empty reference is a no-op, so double-release cannot
// unbalance the ledger.
func (p *Persistent) Release() error {
	if p.IsEmpty() {
		return nil
	}
	err := check(engine.Release(p.v.ref))
	p.v = Value{}
	return err
}
