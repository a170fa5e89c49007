package js

import (
	"fmt"

	"github.com/chazu/jsbridge/engine"
)

// keyKind selects the form of a property key.
type keyKind int

const (
	keyName  keyKind = iota // symbolic name, resolved on access
	keyID                   // pre-resolved identifier
	keyIndex                // integer or value index
)

// Prop is a deferred (object, key) association. Nothing is materialized
// until Get is called; Set writes straight through. Chained access carries
// the first failure to the terminal operation.
type Prop struct {
	owner Value
	kind  keyKind
	name  string
	id    engine.PropertyID
	index Value
	err   error
}

func makeProp(owner Value, key any, err error) Prop {
	p := Prop{owner: owner, err: err}
	if err != nil {
		return p
	}
	switch k := key.(type) {
	case string:
		p.kind = keyName
		p.name = k
	case engine.PropertyID:
		p.kind = keyID
		p.id = k
	case Value:
		p.kind = keyIndex
		p.index = k
	case int:
		idx, ierr := NewInt(k)
		if ierr != nil {
			p.err = ierr
			return p
		}
		p.kind = keyIndex
		p.index = idx
	case uint32:
		idx, ierr := NewInt(int(k))
		if ierr != nil {
			p.err = ierr
			return p
		}
		p.kind = keyIndex
		p.index = idx
	default:
		p.err = errKind(engine.ErrInvalidArgument, fmt.Sprintf("unsupported property key type %T", key))
	}
	return p
}

// resolveID resolves a symbolic name to an identifier, once.
func (p *Prop) resolveID() (engine.PropertyID, error) {
	if p.kind == keyID {
		return p.id, nil
	}
	id, code := engine.GetPropertyIDFromName(p.name)
	if err := check(code); err != nil {
		return engine.InvalidPropertyID, err
	}
	return id, nil
}

// Get materializes the property into a value. Fails with a NotAnObject-kind
// error when the owner is not object-like.
func (p Prop) Get() (Value, error) {
	if p.err != nil {
		return Value{}, p.err
	}
	if p.kind == keyIndex {
		return wrap(engine.GetIndexedProperty(p.owner.ref, p.index.ref))
	}
	id, err := p.resolveID()
	if err != nil {
		return Value{}, err
	}
	return wrap(engine.GetProperty(p.owner.ref, id))
}

// Set writes through without materializing a read. val is converted via the
// conversion engine.
func (p Prop) Set(val any) error {
	if p.err != nil {
		return p.err
	}
	v, err := New(val)
	if err != nil {
		return err
	}
	if p.kind == keyIndex {
		return check(engine.SetIndexedProperty(p.owner.ref, p.index.ref, v.ref))
	}
	id, err := p.resolveID()
	if err != nil {
		return err
	}
	return check(engine.SetProperty(p.owner.ref, id, v.ref))
}

// Index continues the chain: materializes this property and defers access to
// key on the result. A failure here surfaces at the terminal Get/Set/Call.
func (p Prop) Index(key any) Prop {
	v, err := p.Get()
	if err != nil {
		return makeProp(Value{}, key, err)
	}
	return makeProp(v, key, nil)
}

// Call materializes the property and invokes it as a function.
func (p Prop) Call(recv Value, args ...any) (Value, error) {
	v, err := p.Get()
	if err != nil {
		return Value{}, err
	}
	return v.Call(recv, args...)
}

// ---------------------------------------------------------------------------
// Conversions and coercions, forwarded through materialization
// ---------------------------------------------------------------------------

// AsInt materializes and converts.
func (p Prop) AsInt() (int, error) {
	v, err := p.Get()
	if err != nil {
		return 0, err
	}
	return v.AsInt()
}

// AsFloat64 materializes and converts.
func (p Prop) AsFloat64() (float64, error) {
	v, err := p.Get()
	if err != nil {
		return 0, err
	}
	return v.AsFloat64()
}

// AsBool materializes and converts.
func (p Prop) AsBool() (bool, error) {
	v, err := p.Get()
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

// AsString materializes and converts.
func (p Prop) AsString() (string, error) {
	v, err := p.Get()
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// TypeOf materializes and reports the runtime type.
func (p Prop) TypeOf() (engine.ValueType, error) {
	v, err := p.Get()
	if err != nil {
		return engine.TypeUndefined, err
	}
	return v.TypeOf()
}

// ToNumber materializes and coerces.
func (p Prop) ToNumber() (Value, error) {
	v, err := p.Get()
	if err != nil {
		return Value{}, err
	}
	return v.ToNumber()
}

// ToObject materializes and coerces.
func (p Prop) ToObject() (Value, error) {
	v, err := p.Get()
	if err != nil {
		return Value{}, err
	}
	return v.ToObject()
}

// CoerceString materializes and coerces to a host string.
func (p Prop) CoerceString() (string, error) {
	v, err := p.Get()
	if err != nil {
		return "", err
	}
	return v.CoerceString()
}
