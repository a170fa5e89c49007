package js

import (
	"github.com/chazu/jsbridge/engine"
)

// Getter produces a property value.
type Getter func() (any, error)

// Setter consumes a property write.
type Setter func(v Value) error

// ObjectBuilder composes an object from constant fields, accessor
// properties and bound methods. Calls chain; the first failure sticks and
// is reported by Value(). The builder always decorates the same underlying
// object, so intermediate copies are cheap.
type ObjectBuilder struct {
	obj Value
	err error
}

// BuildObject starts a builder on a fresh object.
func BuildObject() *ObjectBuilder {
	obj, err := NewObject()
	return &ObjectBuilder{obj: obj, err: err}
}

// BuildOn starts a builder decorating an existing object (the global
// object, typically).
func BuildOn(obj Value) *ObjectBuilder {
	return &ObjectBuilder{obj: obj}
}

// Value returns the built object, or the first failure.
func (b *ObjectBuilder) Value() (Value, error) {
	return b.obj, b.err
}

// Field writes a constant property.
func (b *ObjectBuilder) Field(name string, val any) *ObjectBuilder {
	if b.err != nil {
		return b
	}
	b.err = b.obj.Index(name).Set(val)
	return b
}

// Method binds a host callable of the given fixed arity as a property.
func (b *ObjectBuilder) Method(name string, arity int, fn Handler) *ObjectBuilder {
	if b.err != nil {
		return b
	}
	fnVal, err := NewFunction(arity, fn)
	if err != nil {
		b.err = err
		return b
	}
	b.err = b.obj.Index(name).Set(fnVal)
	return b
}

// Property defines a non-configurable read-only accessor. A stub setter is
// installed that raises a script-visible "<name>: property is read-only"
// Error at write time; defining the property never fails for that reason.
func (b *ObjectBuilder) Property(name string, getter Getter) *ObjectBuilder {
	stub := func([]Value) (any, error) {
		return nil, NewCallbackError(name + ": property is read-only")
	}
	return b.accessor(name, wrapGetter(getter), stub)
}

// Property2 defines a non-configurable accessor with independent getter and
// setter, bound with arities 0 and 1 respectively.
func (b *ObjectBuilder) Property2(name string, getter Getter, setter Setter) *ObjectBuilder {
	set := func(args []Value) (any, error) {
		return nil, setter(args[0])
	}
	return b.accessor(name, wrapGetter(getter), set)
}

func wrapGetter(getter Getter) Handler {
	return func([]Value) (any, error) {
		return getter()
	}
}

func (b *ObjectBuilder) accessor(name string, get, set Handler) *ObjectBuilder {
	if b.err != nil {
		return b
	}
	getFn, err := NewFunction(0, get)
	if err != nil {
		b.err = err
		return b
	}
	setFn, err := NewFunction(1, set)
	if err != nil {
		b.err = err
		return b
	}
	descriptor, err := BuildObject().
		Field("configurable", false).
		Field("get", getFn).
		Field("set", setFn).
		Value()
	if err != nil {
		b.err = err
		return b
	}
	id, code := engine.GetPropertyIDFromName(name)
	if err := check(code); err != nil {
		b.err = err
		return b
	}
	_, code = engine.DefineProperty(b.obj.ref, id, descriptor.ref)
	b.err = check(code)
	return b
}
