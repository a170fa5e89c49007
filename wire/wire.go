// Package wire serializes engine value graphs to canonical CBOR and back.
// Snapshots cover data values only: null, undefined, booleans, numbers,
// strings, arrays, plain objects and ArrayBuffer contents. Functions,
// symbols and external objects refuse to serialize.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/jsbridge/engine"
	"github.com/chazu/jsbridge/js"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// maxDepth bounds graph traversal; deeper (or cyclic) graphs refuse.
const maxDepth = 64

// node kinds
const (
	kindUndefined = "u"
	kindNull      = "z"
	kindBool      = "b"
	kindNumber    = "n"
	kindString    = "s"
	kindArray     = "a"
	kindObject    = "o"
	kindBuffer    = "y"
)

// node is the CBOR shape of one value.
type node struct {
	Kind   string           `cbor:"k"`
	Num    float64          `cbor:"n,omitempty"`
	Bool   bool             `cbor:"t,omitempty"`
	Str    string           `cbor:"s,omitempty"`
	Elems  []*node          `cbor:"e,omitempty"`
	Fields map[string]*node `cbor:"f,omitempty"`
	Bytes  []byte           `cbor:"y,omitempty"`
}

// Marshal serializes a value graph to CBOR bytes.
func Marshal(v js.Value) ([]byte, error) {
	n, err := encode(v, 0)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(n)
}

// Unmarshal reconstructs a value graph from CBOR bytes in the current
// context.
func Unmarshal(data []byte) (js.Value, error) {
	var n node
	if err := cbor.Unmarshal(data, &n); err != nil {
		return js.Value{}, fmt.Errorf("wire: unmarshal value: %w", err)
	}
	return decode(&n)
}

func encode(v js.Value, depth int) (*node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("wire: value graph exceeds depth %d", maxDepth)
	}
	t, err := v.TypeOf()
	if err != nil {
		return nil, fmt.Errorf("wire: inspect value: %w", err)
	}
	switch t {
	case engine.TypeUndefined:
		return &node{Kind: kindUndefined}, nil
	case engine.TypeNull:
		return &node{Kind: kindNull}, nil
	case engine.TypeBoolean:
		b, err := v.AsBool()
		if err != nil {
			return nil, err
		}
		return &node{Kind: kindBool, Bool: b}, nil
	case engine.TypeNumber:
		f, err := v.AsFloat64()
		if err != nil {
			return nil, err
		}
		return &node{Kind: kindNumber, Num: f}, nil
	case engine.TypeString:
		s, err := v.AsString()
		if err != nil {
			return nil, err
		}
		return &node{Kind: kindString, Str: s}, nil
	case engine.TypeArray:
		length, err := v.Index("length").AsInt()
		if err != nil {
			return nil, fmt.Errorf("wire: array length: %w", err)
		}
		elems := make([]*node, 0, length)
		for i := 0; i < length; i++ {
			ev, err := v.Index(i).Get()
			if err != nil {
				return nil, err
			}
			en, err := encode(ev, depth+1)
			if err != nil {
				return nil, err
			}
			elems = append(elems, en)
		}
		return &node{Kind: kindArray, Elems: elems}, nil
	case engine.TypeArrayBuffer:
		data, err := v.ArrayBufferBytes()
		if err != nil {
			return nil, err
		}
		cp := make([]byte, len(data))
		copy(cp, data)
		return &node{Kind: kindBuffer, Bytes: cp}, nil
	case engine.TypeObject:
		names, err := v.OwnPropertyNames()
		if err != nil {
			return nil, err
		}
		fields := make(map[string]*node, len(names))
		for _, name := range names {
			fv, err := v.Index(name).Get()
			if err != nil {
				return nil, err
			}
			fn, err := encode(fv, depth+1)
			if err != nil {
				return nil, err
			}
			fields[name] = fn
		}
		return &node{Kind: kindObject, Fields: fields}, nil
	default:
		return nil, fmt.Errorf("wire: %s values do not serialize", t)
	}
}

func decode(n *node) (js.Value, error) {
	switch n.Kind {
	case kindUndefined:
		return js.Undefined()
	case kindNull:
		return js.Null()
	case kindBool:
		return js.NewBool(n.Bool)
	case kindNumber:
		return js.NewNumber(n.Num)
	case kindString:
		return js.NewString(n.Str)
	case kindBuffer:
		return js.ArrayBufferCopy(n.Bytes, nil)
	case kindArray:
		arr, err := js.Array(uint32(len(n.Elems)))
		if err != nil {
			return js.Value{}, err
		}
		for i, en := range n.Elems {
			ev, err := decode(en)
			if err != nil {
				return js.Value{}, err
			}
			if err := arr.Index(i).Set(ev); err != nil {
				return js.Value{}, err
			}
		}
		return arr, nil
	case kindObject:
		obj, err := js.NewObject()
		if err != nil {
			return js.Value{}, err
		}
		for name, fn := range n.Fields {
			fv, err := decode(fn)
			if err != nil {
				return js.Value{}, err
			}
			if err := obj.Index(name).Set(fv); err != nil {
				return js.Value{}, err
			}
		}
		return obj, nil
	default:
		return js.Value{}, fmt.Errorf("wire: unknown node kind %q", n.Kind)
	}
}
