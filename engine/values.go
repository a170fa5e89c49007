package engine

import (
	"github.com/dop251/goja"
)

// ---------------------------------------------------------------------------
// Primitive constructors
// ---------------------------------------------------------------------------

// IntToNumber creates a number from an engine-native small integer.
func IntToNumber(v int) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	return c.arena.register(c.vm.ToValue(int64(v))), NoError
}

// DoubleToNumber creates a number through the wide numeric path.
func DoubleToNumber(v float64) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	return c.arena.register(c.vm.ToValue(v)), NoError
}

// BoolToBoolean creates a boolean value.
func BoolToBoolean(v bool) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	if v {
		return c.trueRef, NoError
	}
	return c.falseRef, NoError
}

// PointerToString creates a string value from host text.
func PointerToString(s string) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	return c.arena.register(c.vm.ToValue(s)), NoError
}

// GetNullValue returns the null singleton.
func GetNullValue() (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	return c.nullRef, NoError
}

// GetUndefinedValue returns the undefined singleton.
func GetUndefinedValue() (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	return c.undefRef, NoError
}

// GetTrueValue returns the true singleton.
func GetTrueValue() (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	return c.trueRef, NoError
}

// GetFalseValue returns the false singleton.
func GetFalseValue() (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	return c.falseRef, NoError
}

// ---------------------------------------------------------------------------
// Objects, arrays and buffers
// ---------------------------------------------------------------------------

// CreateObject creates a plain object.
func CreateObject() (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	return c.arena.register(c.vm.NewObject()), NoError
}

// GetGlobalObject returns the context's global object.
func GetGlobalObject() (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	return c.arena.register(c.vm.GlobalObject()), NoError
}

// CreateArray creates an array of the given length.
func CreateArray(length uint32) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	var out Ref
	code = c.guard(func() ErrorCode {
		ctor := c.vm.Get("Array")
		arr, err := c.vm.New(ctor, c.vm.ToValue(int64(length)))
		if err != nil {
			return ErrUnexpected
		}
		out = c.arena.register(arr)
		return NoError
	})
	return out, code
}

// CreateExternalArrayBuffer creates an ArrayBuffer backed by the host slice.
// The engine references data directly; the caller owns its lifetime.
func CreateExternalArrayBuffer(data []byte) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	ab := c.vm.NewArrayBuffer(data)
	return c.arena.register(c.vm.ToValue(ab)), NoError
}

// CreateExternalArrayBufferCopy creates an ArrayBuffer backed by a copy of
// data. release, if non-nil, runs exactly once when the buffer is collected,
// receiving the copy.
func CreateExternalArrayBufferCopy(data []byte, release func([]byte)) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	ab := c.vm.NewArrayBuffer(cp)
	ref := c.arena.register(c.vm.ToValue(ab))
	if release != nil {
		c.arena.hooks[ref] = append(c.arena.hooks[ref], &collectHook{
			state: cp,
			cb: func(_ Ref, state any) {
				release(state.([]byte))
			},
		})
	}
	return ref, NoError
}

// GetArrayBufferStorage returns the bytes backing an ArrayBuffer value.
func GetArrayBufferStorage(ref Ref) ([]byte, ErrorCode) {
	_, v, code := resolve(ref)
	if Failed(code) {
		return nil, code
	}
	ab, ok := v.Export().(goja.ArrayBuffer)
	if !ok {
		return nil, ErrInvalidArgument
	}
	return ab.Bytes(), NoError
}

// TypedArrayKind selects a typed array element type.
type TypedArrayKind int

const (
	TypedArrayInt8 TypedArrayKind = iota
	TypedArrayUint8
	TypedArrayUint8Clamped
	TypedArrayInt16
	TypedArrayUint16
	TypedArrayInt32
	TypedArrayUint32
	TypedArrayFloat32
	TypedArrayFloat64
)

var typedArrayCtors = map[TypedArrayKind]string{
	TypedArrayInt8:         "Int8Array",
	TypedArrayUint8:        "Uint8Array",
	TypedArrayUint8Clamped: "Uint8ClampedArray",
	TypedArrayInt16:        "Int16Array",
	TypedArrayUint16:       "Uint16Array",
	TypedArrayInt32:        "Int32Array",
	TypedArrayUint32:       "Uint32Array",
	TypedArrayFloat32:      "Float32Array",
	TypedArrayFloat64:      "Float64Array",
}

// CreateTypedArray creates a typed array view over base (an ArrayBuffer or
// anything the constructor accepts). byteOffset and elemLength are ignored
// when zero.
func CreateTypedArray(kind TypedArrayKind, base Ref, byteOffset, elemLength uint32) (Ref, ErrorCode) {
	c, baseVal, code := resolve(base)
	if Failed(code) {
		return InvalidRef, code
	}
	name, ok := typedArrayCtors[kind]
	if !ok {
		return InvalidRef, ErrInvalidArgument
	}
	var out Ref
	code = c.guard(func() ErrorCode {
		ctor := c.vm.Get(name)
		args := []goja.Value{baseVal}
		if byteOffset != 0 || elemLength != 0 {
			args = append(args, c.vm.ToValue(int64(byteOffset)))
			if elemLength != 0 {
				args = append(args, c.vm.ToValue(int64(elemLength)))
			}
		}
		arr, err := c.vm.New(ctor, args...)
		if err != nil {
			return c.throwFromCallError(err)
		}
		out = c.arena.register(arr)
		return NoError
	})
	return out, code
}

// ---------------------------------------------------------------------------
// External objects
// ---------------------------------------------------------------------------

// CreateExternalObject creates an object carrying opaque host data. finalize,
// if non-nil, runs exactly once at collection time with that data.
func CreateExternalObject(data any, finalize func(any)) (Ref, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidRef, code
	}
	ref := c.arena.register(c.vm.NewObject())
	c.externals[ref] = data
	if finalize != nil {
		c.arena.hooks[ref] = append(c.arena.hooks[ref], &collectHook{
			state: data,
			cb: func(_ Ref, state any) {
				finalize(state)
			},
		})
	}
	return ref, NoError
}

// GetExternalData returns the host data attached to an external object.
func GetExternalData(ref Ref) (any, ErrorCode) {
	c, _, code := resolve(ref)
	if Failed(code) {
		return nil, code
	}
	data, ok := c.externals[ref]
	if !ok {
		return nil, ErrInvalidArgument
	}
	return data, NoError
}

// ---------------------------------------------------------------------------
// Typed accessors (strict: the value must already have the right type)
// ---------------------------------------------------------------------------

// NumberToInt extracts an integer from a number value.
func NumberToInt(ref Ref) (int, ErrorCode) {
	_, v, code := resolve(ref)
	if Failed(code) {
		return 0, code
	}
	if classify(v) != TypeNumber {
		return 0, ErrInvalidArgument
	}
	return int(v.ToInteger()), NoError
}

// NumberToDouble extracts a float64 from a number value.
func NumberToDouble(ref Ref) (float64, ErrorCode) {
	_, v, code := resolve(ref)
	if Failed(code) {
		return 0, code
	}
	if classify(v) != TypeNumber {
		return 0, ErrInvalidArgument
	}
	return v.ToFloat(), NoError
}

// BooleanToBool extracts a bool from a boolean value.
func BooleanToBool(ref Ref) (bool, ErrorCode) {
	_, v, code := resolve(ref)
	if Failed(code) {
		return false, code
	}
	if classify(v) != TypeBoolean {
		return false, ErrInvalidArgument
	}
	return v.ToBoolean(), NoError
}

// StringToPointer extracts host text from a string value.
func StringToPointer(ref Ref) (string, ErrorCode) {
	_, v, code := resolve(ref)
	if Failed(code) {
		return "", code
	}
	if classify(v) != TypeString {
		return "", ErrInvalidArgument
	}
	return v.String(), NoError
}

// ---------------------------------------------------------------------------
// Coercions (JavaScript-style type juggling)
// ---------------------------------------------------------------------------

// ConvertValueToNumber applies ToNumber semantics.
func ConvertValueToNumber(ref Ref) (Ref, ErrorCode) {
	c, v, code := resolve(ref)
	if Failed(code) {
		return InvalidRef, code
	}
	var out Ref
	code = c.guard(func() ErrorCode {
		out = c.arena.register(v.ToNumber())
		return NoError
	})
	return out, code
}

// ConvertValueToString applies ToString semantics.
func ConvertValueToString(ref Ref) (Ref, ErrorCode) {
	c, v, code := resolve(ref)
	if Failed(code) {
		return InvalidRef, code
	}
	var out Ref
	code = c.guard(func() ErrorCode {
		out = c.arena.register(v.ToString())
		return NoError
	})
	return out, code
}

// ConvertValueToObject applies ToObject semantics.
func ConvertValueToObject(ref Ref) (Ref, ErrorCode) {
	c, v, code := resolve(ref)
	if Failed(code) {
		return InvalidRef, code
	}
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return InvalidRef, ErrArgumentNotObject
	}
	var out Ref
	code = c.guard(func() ErrorCode {
		out = c.arena.register(v.ToObject(c.vm))
		return NoError
	})
	return out, code
}
