package wire

import (
	"strings"
	"testing"

	"github.com/chazu/jsbridge/engine"
	"github.com/chazu/jsbridge/js"
)

func newTestScope(t *testing.T) {
	t.Helper()
	rt := engine.NewRuntime(engine.RuntimeAttributes{})
	c, code := rt.NewContext()
	if engine.Failed(code) {
		t.Fatalf("NewContext: %v", code)
	}
	scope, err := js.EnterContext(c)
	if err != nil {
		t.Fatalf("EnterContext: %v", err)
	}
	t.Cleanup(func() {
		scope.Exit()
		rt.Dispose()
	})
}

func roundTrip(t *testing.T, src string) js.Value {
	t.Helper()
	v, err := js.Run(src, 1, "wire_test.js")
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	data, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return out
}

func TestRoundTripPrimitives(t *testing.T) {
	newTestScope(t)

	if v := roundTrip(t, "42"); mustInt(t, v) != 42 {
		t.Error("number round trip")
	}
	if v := roundTrip(t, "'hello'"); mustString(t, v) != "hello" {
		t.Error("string round trip")
	}
	if v := roundTrip(t, "true"); !mustBool(t, v) {
		t.Error("bool round trip")
	}
	if v := roundTrip(t, "null"); !v.IsNull() {
		t.Error("null round trip")
	}
	if v := roundTrip(t, "undefined"); !v.IsUndefined() {
		t.Error("undefined round trip")
	}
}

func TestRoundTripNestedGraph(t *testing.T) {
	newTestScope(t)

	out := roundTrip(t, `({
		name: "root",
		items: [1, "two", false, null],
		child: { depth: 2 }
	})`)

	if s := mustString(t, mustGet(t, out.Index("name"))); s != "root" {
		t.Errorf("name = %q", s)
	}
	items, err := out.Index("items").Get()
	if err != nil {
		t.Fatal(err)
	}
	if !items.IsArray() {
		t.Fatal("items should decode as an array")
	}
	if n := mustInt(t, mustGet(t, items.Index("length"))); n != 4 {
		t.Errorf("items length = %d, want 4", n)
	}
	if s := mustString(t, mustGet(t, items.Index(1))); s != "two" {
		t.Errorf("items[1] = %q", s)
	}
	if n := mustInt(t, mustGet(t, out.Index("child").Index("depth"))); n != 2 {
		t.Errorf("child.depth = %d, want 2", n)
	}
}

func TestRoundTripArrayBuffer(t *testing.T) {
	newTestScope(t)

	buf, err := js.ArrayBufferExternal([]byte{9, 8, 7})
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(buf)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	bytes, err := out.ArrayBufferBytes()
	if err != nil {
		t.Fatal(err)
	}
	if len(bytes) != 3 || bytes[0] != 9 {
		t.Errorf("bytes = %v", bytes)
	}
}

func TestFunctionsRefuse(t *testing.T) {
	newTestScope(t)

	v, err := js.Run("(function(){})", 1, "fn.js")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Marshal(v); err == nil {
		t.Error("functions should refuse to serialize")
	}
}

func TestBufferViewsRefuse(t *testing.T) {
	newTestScope(t)

	for _, src := range []string{
		"new Uint8Array(4)",
		"new DataView(new ArrayBuffer(8))",
	} {
		v, err := js.Run(src, 1, "view.js")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Marshal(v); err == nil {
			t.Errorf("%s should refuse to serialize", src)
		}
	}
}

func TestCycleRefuses(t *testing.T) {
	newTestScope(t)

	v, err := js.Run("(function() { var a = {}; a.self = a; return a })()", 1, "cycle.js")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Marshal(v)
	if err == nil {
		t.Fatal("cyclic graph should refuse")
	}
	if !strings.Contains(err.Error(), "depth") {
		t.Errorf("err = %v, want depth refusal", err)
	}
}

func TestCanonicalEncoding(t *testing.T) {
	newTestScope(t)

	a, err := js.Run("({ x: 1, y: 2 })", 1, "a.js")
	if err != nil {
		t.Fatal(err)
	}
	b, err := js.Run("(function() { var o = {}; o.y = 2; o.x = 1; return o })()", 1, "b.js")
	if err != nil {
		t.Fatal(err)
	}

	da, err := Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(da) != string(db) {
		t.Error("canonical encoding should not depend on insertion order")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	newTestScope(t)

	if _, err := Unmarshal([]byte{0xff, 0x00, 0x01}); err == nil {
		t.Error("garbage input should fail")
	}
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func mustGet(t *testing.T, p js.Prop) js.Value {
	t.Helper()
	v, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func mustInt(t *testing.T, v js.Value) int {
	t.Helper()
	n, err := v.AsInt()
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func mustString(t *testing.T, v js.Value) string {
	t.Helper()
	s, err := v.AsString()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustBool(t *testing.T, v js.Value) bool {
	t.Helper()
	b, err := v.AsBool()
	if err != nil {
		t.Fatal(err)
	}
	return b
}
