package engine

import (
	"github.com/dop251/goja"
)

// ValueType is the runtime type of an engine value.
type ValueType int

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeNumber
	TypeString
	TypeBoolean
	TypeObject
	TypeFunction
	TypeError
	TypeArray
	TypeSymbol
	TypeArrayBuffer
	TypeTypedArray
	TypeDataView
)

var valueTypeNames = map[ValueType]string{
	TypeUndefined:   "undefined",
	TypeNull:        "null",
	TypeNumber:      "number",
	TypeString:      "string",
	TypeBoolean:     "boolean",
	TypeObject:      "object",
	TypeFunction:    "function",
	TypeError:       "error",
	TypeArray:       "array",
	TypeSymbol:      "symbol",
	TypeArrayBuffer: "arraybuffer",
	TypeTypedArray:  "typedarray",
	TypeDataView:    "dataview",
}

func (t ValueType) String() string {
	if s, ok := valueTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

var typedArrayCtorNames = []string{
	"Int8Array", "Uint8Array", "Uint8ClampedArray",
	"Int16Array", "Uint16Array",
	"Int32Array", "Uint32Array",
	"Float32Array", "Float64Array",
	"BigInt64Array", "BigUint64Array",
}

// classify determines the ValueType of a goja value. ArrayBuffer views carry
// class "Object", so TypeObject results are refined against the runtime's
// intrinsic constructors by viewType; callers that only discriminate
// primitives can use classify alone.
func classify(v goja.Value) ValueType {
	if v == nil || goja.IsUndefined(v) {
		return TypeUndefined
	}
	if goja.IsNull(v) {
		return TypeNull
	}
	if _, ok := v.(*goja.Symbol); ok {
		return TypeSymbol
	}
	if obj, ok := v.(*goja.Object); ok {
		if _, isFn := goja.AssertFunction(v); isFn {
			return TypeFunction
		}
		switch obj.ClassName() {
		case "Array":
			return TypeArray
		case "Error":
			return TypeError
		}
		if _, ok := obj.Export().(goja.ArrayBuffer); ok {
			return TypeArrayBuffer
		}
		return TypeObject
	}
	switch v.ExportType().Kind().String() {
	case "string":
		return TypeString
	case "bool":
		return TypeBoolean
	default:
		return TypeNumber
	}
}

// viewType tells typed arrays and DataView apart from plain objects through
// instanceof checks against the intrinsic constructors. Constructors absent
// from the runtime (BigInt variants on older builds) are skipped.
func viewType(vm *goja.Runtime, obj *goja.Object) ValueType {
	if ctor, ok := vm.Get("DataView").(*goja.Object); ok && vm.InstanceOf(obj, ctor) {
		return TypeDataView
	}
	for _, name := range typedArrayCtorNames {
		if ctor, ok := vm.Get(name).(*goja.Object); ok && vm.InstanceOf(obj, ctor) {
			return TypeTypedArray
		}
	}
	return TypeObject
}

// GetValueType reports the runtime type of ref.
func GetValueType(ref Ref) (ValueType, ErrorCode) {
	c, v, code := resolve(ref)
	if Failed(code) {
		return TypeUndefined, code
	}
	t := classify(v)
	if t == TypeObject {
		t = viewType(c.vm, v.(*goja.Object))
	}
	return t, NoError
}

// GetPrototype returns the prototype of an object value.
func GetPrototype(ref Ref) (Ref, ErrorCode) {
	c, o, code := asObject(ref)
	if Failed(code) {
		return InvalidRef, code
	}
	proto := o.Prototype()
	if proto == nil {
		return c.nullRef, NoError
	}
	return c.arena.register(proto), NoError
}

// StrictEquals reports a === b.
func StrictEquals(a, b Ref) (bool, ErrorCode) {
	_, va, code := resolve(a)
	if Failed(code) {
		return false, code
	}
	_, vb, code := resolve(b)
	if Failed(code) {
		return false, code
	}
	return va.StrictEquals(vb), NoError
}
