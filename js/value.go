// Package js is the marshaling bridge between statically typed Go values
// and the dynamic values of the embedded JavaScript engine. It converts in
// both directions, lets Go callables be invoked as script functions (and
// vice versa), and guarantees that no Go-level failure ever crosses the
// engine's call boundary.
//
// A Value is a cheap, non-owning handle scoped to its context; Persistent
// pins a value past its creating scope via the engine's ref-count ledger.
// All operations act on the current context (see Scope) and are
// single-threaded by the engine contract.
package js

import (
	"github.com/chazu/jsbridge/engine"
)

// Value is a handle to one engine-managed dynamic value. The zero Value is
// empty. Copies are cheap and share the same handle; a Value never owns
// engine memory.
type Value struct {
	ref engine.Ref
}

// ValueFromRef wraps a raw engine handle.
func ValueFromRef(ref engine.Ref) Value {
	return Value{ref: ref}
}

// Ref exposes the raw engine handle.
func (v Value) Ref() engine.Ref {
	return v.ref
}

// IsEmpty reports whether v holds no handle.
func (v Value) IsEmpty() bool {
	return v.ref == engine.InvalidRef
}

// ---------------------------------------------------------------------------
// Singletons and primitive constructors
// ---------------------------------------------------------------------------

func wrap(ref engine.Ref, code engine.ErrorCode) (Value, error) {
	if err := check(code); err != nil {
		return Value{}, err
	}
	return Value{ref: ref}, nil
}

// Undefined returns the undefined value.
func Undefined() (Value, error) {
	return wrap(engine.GetUndefinedValue())
}

// Null returns the null value.
func Null() (Value, error) {
	return wrap(engine.GetNullValue())
}

// True returns the true singleton.
func True() (Value, error) {
	return wrap(engine.GetTrueValue())
}

// False returns the false singleton.
func False() (Value, error) {
	return wrap(engine.GetFalseValue())
}

// Global returns the context's global object.
func Global() (Value, error) {
	return wrap(engine.GetGlobalObject())
}

// NewObject creates an empty object.
func NewObject() (Value, error) {
	return wrap(engine.CreateObject())
}

// NewString creates a string value.
func NewString(s string) (Value, error) {
	return wrap(engine.PointerToString(s))
}

// NewInt creates a number through the engine's small-integer path.
func NewInt(i int) (Value, error) {
	return wrap(engine.IntToNumber(i))
}

// NewNumber creates a number through the wide numeric path.
func NewNumber(f float64) (Value, error) {
	return wrap(engine.DoubleToNumber(f))
}

// NewBool creates a boolean value.
func NewBool(b bool) (Value, error) {
	return wrap(engine.BoolToBoolean(b))
}

// ---------------------------------------------------------------------------
// Arrays, buffers, externals
// ---------------------------------------------------------------------------

// Array creates an array of the given length.
func Array(length uint32) (Value, error) {
	return wrap(engine.CreateArray(length))
}

// ArrayOf creates an array filled with the converted arguments.
func ArrayOf(elems ...any) (Value, error) {
	arr, err := Array(uint32(len(elems)))
	if err != nil {
		return Value{}, err
	}
	for i, e := range elems {
		if err := arr.Index(i).Set(e); err != nil {
			return Value{}, err
		}
	}
	return arr, nil
}

// ArrayBufferExternal creates an ArrayBuffer over the host slice. The engine
// references data directly; keep it alive for the buffer's lifetime.
func ArrayBufferExternal(data []byte) (Value, error) {
	return wrap(engine.CreateExternalArrayBuffer(data))
}

// ArrayBufferCopy creates an ArrayBuffer over a copy of data. release, if
// non-nil, runs exactly once when the engine collects the buffer.
func ArrayBufferCopy(data []byte, release func([]byte)) (Value, error) {
	return wrap(engine.CreateExternalArrayBufferCopy(data, release))
}

// TypedArray creates a typed-array view over base.
func TypedArray(kind engine.TypedArrayKind, base Value, byteOffset, elemLength uint32) (Value, error) {
	return wrap(engine.CreateTypedArray(kind, base.ref, byteOffset, elemLength))
}

// External creates an object carrying opaque host data. finalize, if
// non-nil, runs exactly once when the engine collects the object.
func External(data any, finalize func(any)) (Value, error) {
	return wrap(engine.CreateExternalObject(data, finalize))
}

// ExternalData returns the host data attached to an external object.
func (v Value) ExternalData() (any, error) {
	data, code := engine.GetExternalData(v.ref)
	if err := check(code); err != nil {
		return nil, err
	}
	return data, nil
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// TypeOf reports the value's runtime type.
func (v Value) TypeOf() (engine.ValueType, error) {
	t, code := engine.GetValueType(v.ref)
	if err := check(code); err != nil {
		return engine.TypeUndefined, err
	}
	return t, nil
}

func (v Value) hasType(t engine.ValueType) bool {
	got, err := v.TypeOf()
	return err == nil && got == t
}

func (v Value) IsUndefined() bool { return v.hasType(engine.TypeUndefined) }
func (v Value) IsNull() bool      { return v.hasType(engine.TypeNull) }
func (v Value) IsNumber() bool    { return v.hasType(engine.TypeNumber) }
func (v Value) IsString() bool    { return v.hasType(engine.TypeString) }
func (v Value) IsBoolean() bool   { return v.hasType(engine.TypeBoolean) }
func (v Value) IsFunction() bool  { return v.hasType(engine.TypeFunction) }
func (v Value) IsArray() bool     { return v.hasType(engine.TypeArray) }
func (v Value) IsError() bool     { return v.hasType(engine.TypeError) }

// IsObject reports whether the value is object-like (anything with
// properties: plain objects, arrays, functions, errors, buffers).
func (v Value) IsObject() bool {
	t, err := v.TypeOf()
	if err != nil {
		return false
	}
	switch t {
	case engine.TypeObject, engine.TypeFunction, engine.TypeError,
		engine.TypeArray, engine.TypeArrayBuffer, engine.TypeTypedArray,
		engine.TypeDataView:
		return true
	}
	return false
}

// OwnPropertyNames returns the value's own enumerable property names.
func (v Value) OwnPropertyNames() ([]string, error) {
	names, code := engine.GetOwnPropertyNames(v.ref)
	if err := check(code); err != nil {
		return nil, err
	}
	return names, nil
}

// ArrayBufferBytes returns the bytes backing an ArrayBuffer value.
func (v Value) ArrayBufferBytes() ([]byte, error) {
	data, code := engine.GetArrayBufferStorage(v.ref)
	if err := check(code); err != nil {
		return nil, err
	}
	return data, nil
}

// Prototype returns the value's prototype object.
func (v Value) Prototype() (Value, error) {
	return wrap(engine.GetPrototype(v.ref))
}

// StrictEquals reports v === other.
func (v Value) StrictEquals(other Value) bool {
	eq, code := engine.StrictEquals(v.ref, other.ref)
	return engine.Succeeded(code) && eq
}

// ---------------------------------------------------------------------------
// Coercions
// ---------------------------------------------------------------------------

// ToNumber applies JavaScript ToNumber semantics.
func (v Value) ToNumber() (Value, error) {
	return wrap(engine.ConvertValueToNumber(v.ref))
}

// ToObject applies JavaScript ToObject semantics.
func (v Value) ToObject() (Value, error) {
	return wrap(engine.ConvertValueToObject(v.ref))
}

// ToStringValue applies JavaScript ToString semantics.
func (v Value) ToStringValue() (Value, error) {
	return wrap(engine.ConvertValueToString(v.ref))
}

// CoerceString coerces the value to a host string.
func (v Value) CoerceString() (string, error) {
	s, err := v.ToStringValue()
	if err != nil {
		return "", err
	}
	return s.AsString()
}

// ---------------------------------------------------------------------------
// Invocation
// ---------------------------------------------------------------------------

// Call invokes the value as a function. recv is the receiver (an empty or
// null Value passes undefined/null through); args are converted via the
// conversion engine.
func (v Value) Call(recv Value, args ...any) (Value, error) {
	vec := make([]engine.Ref, 0, len(args)+1)
	vec = append(vec, recv.ref)
	for _, a := range args {
		av, err := New(a)
		if err != nil {
			return Value{}, err
		}
		vec = append(vec, av.ref)
	}
	return wrap(engine.CallFunction(v.ref, vec))
}

// ---------------------------------------------------------------------------
// Property access
// ---------------------------------------------------------------------------

// Index returns a deferred property accessor. key may be a string name, a
// pre-resolved engine.PropertyID, an integer index, or a Value index.
func (v Value) Index(key any) Prop {
	return makeProp(v, key, nil)
}

// Field writes a named property and returns the receiver so calls chain.
// The first error is reported by the terminal builder (see ObjectBuilder)
// or surfaces on the next access; for checked writes use Index().Set.
func (v Value) Field(name string, val any) (Value, error) {
	if err := v.Index(name).Set(val); err != nil {
		return v, err
	}
	return v, nil
}
