package js

import (
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/chazu/jsbridge/engine"
)

// ---------------------------------------------------------------------------
// Conversion strategies
//
// Every Go type maps to exactly one marshaling strategy out of a closed set.
// The strategy is resolved once, the first time a type is seen, and cached;
// per-call dispatch is a cache load and an indirect call, never a type
// switch over the whole table.
// ---------------------------------------------------------------------------

// convKind is the closed set of marshaling strategies.
type convKind int

const (
	kindInteger    convKind = iota // fits the engine's small-integer path
	kindWideNumber                 // floats and integers wider than the small path
	kindBoolean
	kindText
	kindEnum // named integral types, via the underlying integral strategy
	kindRaw  // bridge types passed through unconverted
)

// strategy converts between one Go type and engine values, both directions.
type strategy struct {
	kind   convKind
	fromGo func(reflect.Value) (Value, error)
	toGo   func(Value, reflect.Value) error
}

var strategyCache sync.Map // reflect.Type -> *strategy

// strategyFor resolves (and caches) the strategy for t.
func strategyFor(t reflect.Type) (*strategy, error) {
	if s, ok := strategyCache.Load(t); ok {
		return s.(*strategy), nil
	}
	s, err := buildStrategy(t)
	if err != nil {
		return nil, err
	}
	actual, _ := strategyCache.LoadOrStore(t, s)
	return actual.(*strategy), nil
}

// smallIntFits reports whether n is representable on the engine's
// small-integer path.
func smallIntFits(n int64) bool {
	return n >= math.MinInt32 && n <= math.MaxInt32
}

func buildStrategy(t reflect.Type) (*strategy, error) {
	// Bridge types pass through.
	switch t {
	case reflect.TypeOf(Value{}):
		return &strategy{
			kind: kindRaw,
			fromGo: func(rv reflect.Value) (Value, error) {
				return rv.Interface().(Value), nil
			},
			toGo: func(v Value, dst reflect.Value) error {
				dst.Set(reflect.ValueOf(v))
				return nil
			},
		}, nil
	case reflect.TypeOf(Persistent{}):
		return &strategy{
			kind: kindRaw,
			fromGo: func(rv reflect.Value) (Value, error) {
				p := rv.Interface().(Persistent)
				return p.Value(), nil
			},
		}, nil
	case reflect.TypeOf(Prop{}):
		return &strategy{
			kind: kindRaw,
			fromGo: func(rv reflect.Value) (Value, error) {
				return rv.Interface().(Prop).Get()
			},
		}, nil
	}

	named := t.PkgPath() != "" // a named, non-predeclared type

	switch t.Kind() {
	case reflect.Bool:
		return &strategy{
			kind: kindBoolean,
			fromGo: func(rv reflect.Value) (Value, error) {
				return NewBool(rv.Bool())
			},
			toGo: func(v Value, dst reflect.Value) error {
				b, code := engine.BooleanToBool(v.ref)
				if err := check(code); err != nil {
					return err
				}
				dst.SetBool(b)
				return nil
			},
		}, nil

	case reflect.String:
		return &strategy{
			kind: kindText,
			fromGo: func(rv reflect.Value) (Value, error) {
				return NewString(rv.String())
			},
			toGo: func(v Value, dst reflect.Value) error {
				s, code := engine.StringToPointer(v.ref)
				if err := check(code); err != nil {
					return err
				}
				dst.SetString(s)
				return nil
			},
		}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		kind := kindInteger
		if named {
			kind = kindEnum
		}
		wide := t.Kind() == reflect.Int || t.Kind() == reflect.Int64
		return &strategy{
			kind: kind,
			fromGo: func(rv reflect.Value) (Value, error) {
				n := rv.Int()
				if smallIntFits(n) {
					return NewInt(int(n))
				}
				return NewNumber(float64(n))
			},
			toGo: func(v Value, dst reflect.Value) error {
				if wide {
					d, code := engine.NumberToDouble(v.ref)
					if err := check(code); err != nil {
						return err
					}
					dst.SetInt(int64(d))
					return nil
				}
				n, code := engine.NumberToInt(v.ref)
				if err := check(code); err != nil {
					return err
				}
				if dst.OverflowInt(int64(n)) {
					return errKind(engine.ErrInvalidArgument,
						fmt.Sprintf("value %d overflows %s", n, dst.Type()))
				}
				dst.SetInt(int64(n))
				return nil
			},
		}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		kind := kindInteger
		if named {
			kind = kindEnum
		}
		wide := t.Kind() == reflect.Uint || t.Kind() == reflect.Uint64
		return &strategy{
			kind: kind,
			fromGo: func(rv reflect.Value) (Value, error) {
				n := rv.Uint()
				if n <= math.MaxInt32 {
					return NewInt(int(n))
				}
				return NewNumber(float64(n))
			},
			toGo: func(v Value, dst reflect.Value) error {
				if wide {
					d, code := engine.NumberToDouble(v.ref)
					if err := check(code); err != nil {
						return err
					}
					if d < 0 {
						return throwRangeError()
					}
					dst.SetUint(uint64(d))
					return nil
				}
				n, code := engine.NumberToInt(v.ref)
				if err := check(code); err != nil {
					return err
				}
				if n < 0 {
					return throwRangeError()
				}
				if dst.OverflowUint(uint64(n)) {
					return errKind(engine.ErrInvalidArgument,
						fmt.Sprintf("value %d overflows %s", n, dst.Type()))
				}
				dst.SetUint(uint64(n))
				return nil
			},
		}, nil

	case reflect.Float32, reflect.Float64:
		return &strategy{
			kind: kindWideNumber,
			fromGo: func(rv reflect.Value) (Value, error) {
				return NewNumber(rv.Float())
			},
			toGo: func(v Value, dst reflect.Value) error {
				d, code := engine.NumberToDouble(v.ref)
				if err := check(code); err != nil {
					return err
				}
				dst.SetFloat(d)
				return nil
			},
		}, nil
	}

	return nil, errKind(engine.ErrInvalidArgument,
		fmt.Sprintf("no conversion strategy for Go type %s", t))
}

// throwRangeError raises a script-visible RangeError (negative number into
// an unsigned host integer) and reports the failure as ScriptError.
func throwRangeError() error {
	msg, err := NewString("Value is out of range")
	if err != nil {
		return err
	}
	excRef, code := engine.CreateRangeError(msg.ref)
	if cerr := check(code); cerr != nil {
		return cerr
	}
	if cerr := check(engine.SetException(excRef)); cerr != nil {
		return cerr
	}
	return errKind(engine.ErrScriptException, "value is out of range")
}

// ---------------------------------------------------------------------------
// Public conversion surface
// ---------------------------------------------------------------------------

// New converts a Go value to a dynamic value. nil converts to null.
func New(v any) (Value, error) {
	if v == nil {
		return Null()
	}
	rv := reflect.ValueOf(v)
	s, err := strategyFor(rv.Type())
	if err != nil {
		return Value{}, err
	}
	return s.fromGo(rv)
}

// As converts a dynamic value to the Go type T. The value's runtime type
// must be compatible; no implicit coercion is applied.
func As[T any](v Value) (T, error) {
	var out T
	if v.IsEmpty() {
		return out, errKind(engine.ErrInvalidArgument, "empty value")
	}
	dst := reflect.ValueOf(&out).Elem()
	s, err := strategyFor(dst.Type())
	if err != nil {
		return out, err
	}
	if s.toGo == nil {
		return out, errKind(engine.ErrInvalidArgument,
			fmt.Sprintf("type %T cannot be converted from a dynamic value", out))
	}
	if err := s.toGo(v, dst); err != nil {
		return out, err
	}
	return out, nil
}

// Typed accessors over the same strategies.

func (v Value) AsInt() (int, error)         { return As[int](v) }
func (v Value) AsInt32() (int32, error)     { return As[int32](v) }
func (v Value) AsInt64() (int64, error)     { return As[int64](v) }
func (v Value) AsUint32() (uint32, error)   { return As[uint32](v) }
func (v Value) AsUint64() (uint64, error)   { return As[uint64](v) }
func (v Value) AsFloat64() (float64, error) { return As[float64](v) }
func (v Value) AsBool() (bool, error)       { return As[bool](v) }
func (v Value) AsString() (string, error)   { return As[string](v) }
