package engine

import (
	"strconv"

	"github.com/dop251/goja"
)

// PropertyID is a per-context pre-resolved identifier for a property name.
// Zero is invalid. IDs are stable for the context's lifetime; resolving the
// same name twice yields the same ID.
type PropertyID uint32

// InvalidPropertyID is the null identifier.
const InvalidPropertyID PropertyID = 0

// GetPropertyIDFromName resolves (interning if needed) a property name.
func GetPropertyIDFromName(name string) (PropertyID, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return InvalidPropertyID, code
	}
	if id, ok := c.propIDs[name]; ok {
		return id, NoError
	}
	c.propName = append(c.propName, name)
	id := PropertyID(len(c.propName))
	c.propIDs[name] = id
	return id, NoError
}

// PropertyName returns the name behind a resolved identifier.
func PropertyName(id PropertyID) (string, ErrorCode) {
	c, code := cur()
	if Failed(code) {
		return "", code
	}
	i := int(id) - 1
	if i < 0 || i >= len(c.propName) {
		return "", ErrInvalidArgument
	}
	return c.propName[i], NoError
}

// asObject resolves ref and requires an object-like value.
func asObject(ref Ref) (*Context, *goja.Object, ErrorCode) {
	c, v, code := resolve(ref)
	if Failed(code) {
		return nil, nil, code
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, nil, ErrArgumentNotObject
	}
	return c, obj, NoError
}

// GetProperty reads a named property through a resolved identifier.
func GetProperty(obj Ref, id PropertyID) (Ref, ErrorCode) {
	name, code := PropertyName(id)
	if Failed(code) {
		return InvalidRef, code
	}
	c, o, code := asObject(obj)
	if Failed(code) {
		return InvalidRef, code
	}
	var out Ref
	code = c.guard(func() ErrorCode {
		v := o.Get(name)
		if v == nil {
			v = goja.Undefined()
		}
		out = c.arena.register(v)
		return NoError
	})
	return out, code
}

// SetProperty writes a named property through a resolved identifier.
func SetProperty(obj Ref, id PropertyID, value Ref) ErrorCode {
	name, code := PropertyName(id)
	if Failed(code) {
		return code
	}
	c, o, code := asObject(obj)
	if Failed(code) {
		return code
	}
	_, v, code := resolve(value)
	if Failed(code) {
		return code
	}
	return c.guard(func() ErrorCode {
		if err := o.Set(name, v); err != nil {
			return c.throwFromCallError(err)
		}
		return NoError
	})
}

// indexKey renders an index value as a property key string.
func indexKey(v goja.Value) string {
	if classify(v) == TypeNumber {
		return strconv.FormatInt(v.ToInteger(), 10)
	}
	return v.String()
}

// GetIndexedProperty reads obj[index].
func GetIndexedProperty(obj Ref, index Ref) (Ref, ErrorCode) {
	c, o, code := asObject(obj)
	if Failed(code) {
		return InvalidRef, code
	}
	_, idx, code := resolve(index)
	if Failed(code) {
		return InvalidRef, code
	}
	var out Ref
	code = c.guard(func() ErrorCode {
		v := o.Get(indexKey(idx))
		if v == nil {
			v = goja.Undefined()
		}
		out = c.arena.register(v)
		return NoError
	})
	return out, code
}

// SetIndexedProperty writes obj[index] = value.
func SetIndexedProperty(obj Ref, index Ref, value Ref) ErrorCode {
	c, o, code := asObject(obj)
	if Failed(code) {
		return code
	}
	_, idx, code := resolve(index)
	if Failed(code) {
		return code
	}
	_, v, code := resolve(value)
	if Failed(code) {
		return code
	}
	return c.guard(func() ErrorCode {
		if err := o.Set(indexKey(idx), v); err != nil {
			return c.throwFromCallError(err)
		}
		return NoError
	})
}

// DefineProperty applies Object.defineProperty(obj, name, descriptor).
// Returns whether the definition succeeded.
func DefineProperty(obj Ref, id PropertyID, descriptor Ref) (bool, ErrorCode) {
	name, code := PropertyName(id)
	if Failed(code) {
		return false, code
	}
	c, o, code := asObject(obj)
	if Failed(code) {
		return false, code
	}
	_, desc, code := resolve(descriptor)
	if Failed(code) {
		return false, code
	}
	ok := false
	code = c.guard(func() ErrorCode {
		objectCtor := c.vm.Get("Object").ToObject(c.vm)
		defineFn, isFn := goja.AssertFunction(objectCtor.Get("defineProperty"))
		if !isFn {
			return ErrUnexpected
		}
		_, err := defineFn(goja.Undefined(), o, c.vm.ToValue(name), desc)
		if err != nil {
			return c.throwFromCallError(err)
		}
		ok = true
		return NoError
	})
	return ok, code
}

// GetOwnPropertyNames returns the object's own enumerable property names.
func GetOwnPropertyNames(obj Ref) ([]string, ErrorCode) {
	c, o, code := asObject(obj)
	if Failed(code) {
		return nil, code
	}
	var names []string
	code = c.guard(func() ErrorCode {
		names = o.Keys()
		return NoError
	})
	return names, code
}
