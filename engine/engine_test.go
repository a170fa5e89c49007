package engine

import (
	"testing"
)

// newTestContext creates a runtime with one context, makes it current and
// tears everything down with the test.
func newTestContext(t *testing.T) *Context {
	t.Helper()
	rt := NewRuntime(RuntimeAttributes{})
	c, code := rt.NewContext()
	if Failed(code) {
		t.Fatalf("NewContext: %v", code)
	}
	if code := SetCurrentContext(c); Failed(code) {
		t.Fatalf("SetCurrentContext: %v", code)
	}
	t.Cleanup(func() {
		SetCurrentContext(nil)
		rt.Dispose()
	})
	return c
}

// ---------------------------------------------------------------------------
// Runtime and context lifecycle
// ---------------------------------------------------------------------------

func TestNewRuntimeAndContext(t *testing.T) {
	rt := NewRuntime(RuntimeAttributes{})
	defer rt.Dispose()

	c, code := rt.NewContext()
	if Failed(code) {
		t.Fatalf("NewContext: %v", code)
	}
	if c == nil {
		t.Fatal("NewContext returned nil context")
	}
}

func TestNoCurrentContext(t *testing.T) {
	SetCurrentContext(nil)

	_, code := CreateObject()
	if code != ErrNoCurrentContext {
		t.Errorf("code = %v, want ErrNoCurrentContext", code)
	}
}

func TestCurrentContextSwitch(t *testing.T) {
	c := newTestContext(t)

	if CurrentContext() != c {
		t.Error("CurrentContext should return the active context")
	}
	SetCurrentContext(nil)
	if CurrentContext() != nil {
		t.Error("CurrentContext should be nil after clearing")
	}
	SetCurrentContext(c)
}

func TestSingletonsInterned(t *testing.T) {
	newTestContext(t)

	u1, _ := GetUndefinedValue()
	u2, _ := GetUndefinedValue()
	if u1 != u2 {
		t.Error("undefined should resolve to the same ref")
	}

	tr, _ := GetTrueValue()
	fa, _ := GetFalseValue()
	if tr == fa {
		t.Error("true and false must be distinct refs")
	}

	b, _ := BoolToBoolean(true)
	if b != tr {
		t.Error("BoolToBoolean(true) should return the true singleton")
	}
}

func TestDisposeInvalidatesRefs(t *testing.T) {
	rt := NewRuntime(RuntimeAttributes{})
	c, code := rt.NewContext()
	if Failed(code) {
		t.Fatalf("NewContext: %v", code)
	}
	SetCurrentContext(c)

	if _, code := CreateObject(); Failed(code) {
		t.Fatalf("CreateObject: %v", code)
	}

	SetCurrentContext(nil)
	rt.Dispose()

	if code := SetCurrentContext(c); code != ErrInvalidArgument {
		t.Errorf("code = %v, want ErrInvalidArgument for disposed context", code)
	}
	if _, code := CreateObject(); code != ErrNoCurrentContext {
		t.Errorf("code = %v, want ErrNoCurrentContext after dispose", code)
	}
}
