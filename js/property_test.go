package js

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Property access
// ---------------------------------------------------------------------------

func TestPropGetSet(t *testing.T) {
	newTestScope(t)

	obj, err := NewObject()
	if err != nil {
		t.Fatal(err)
	}

	if err := obj.Index("n").Set(7); err != nil {
		t.Fatalf("Set: %v", err)
	}
	n, err := obj.Index("n").AsInt()
	if err != nil {
		t.Fatalf("AsInt: %v", err)
	}
	if n != 7 {
		t.Errorf("n = %d, want 7", n)
	}
}

func TestPropChaining(t *testing.T) {
	newTestScope(t)

	obj := mustRun(t, "({ a: { b: { c: 'deep' } } })")
	s, err := obj.Index("a").Index("b").Index("c").AsString()
	if err != nil {
		t.Fatalf("chained get: %v", err)
	}
	if s != "deep" {
		t.Errorf("s = %q, want deep", s)
	}
}

func TestPropChainFailureDeferred(t *testing.T) {
	newTestScope(t)

	obj := mustRun(t, "({ a: 1 })")
	// a is a number; indexing into it materializes fine but the next hop
	// fails at the terminal operation.
	_, err := obj.Index("a").Index("b").Index("c").Get()
	if err == nil {
		t.Fatal("expected error from broken chain")
	}
	var ee *EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("error type = %T", err)
	}
}

func TestPropIntegerIndex(t *testing.T) {
	newTestScope(t)

	arr := mustRun(t, "[10, 20, 30]")
	n, err := arr.Index(1).AsInt()
	if err != nil {
		t.Fatalf("indexed get: %v", err)
	}
	if n != 20 {
		t.Errorf("n = %d, want 20", n)
	}

	if err := arr.Index(1).Set(99); err != nil {
		t.Fatalf("indexed set: %v", err)
	}
	n, _ = arr.Index(1).AsInt()
	if n != 99 {
		t.Errorf("n = %d, want 99", n)
	}
}

func TestPropValueKeyedIndex(t *testing.T) {
	newTestScope(t)

	obj := mustRun(t, "({ color: 'teal' })")
	key := mustNew(t, "color")
	s, err := obj.Index(key).AsString()
	if err != nil {
		t.Fatalf("value-keyed get: %v", err)
	}
	if s != "teal" {
		t.Errorf("s = %q, want teal", s)
	}
}

func TestPropOnNonObject(t *testing.T) {
	newTestScope(t)

	num := mustNew(t, 5)
	_, err := num.Index("x").Get()
	if err == nil {
		t.Fatal("expected error")
	}
	var ee *EngineError
	if !errors.As(err, &ee) {
		t.Fatalf("error type = %T", err)
	}
	if ee.Kind != NotAnObject {
		t.Errorf("kind = %v, want NotAnObject", ee.Kind)
	}
}

func TestPropSetConvertsGoValues(t *testing.T) {
	newTestScope(t)

	obj, _ := NewObject()
	if err := obj.Index("s").Set("text"); err != nil {
		t.Fatal(err)
	}
	if err := obj.Index("b").Set(true); err != nil {
		t.Fatal(err)
	}
	if err := obj.Index("f").Set(1.5); err != nil {
		t.Fatal(err)
	}
	if err := obj.Index("nothing").Set(nil); err != nil {
		t.Fatal(err)
	}

	if s, _ := obj.Index("s").AsString(); s != "text" {
		t.Errorf("s = %q", s)
	}
	if v, _ := obj.Index("nothing").Get(); !v.IsNull() {
		t.Error("nil should write as null")
	}
}

func TestPropCall(t *testing.T) {
	newTestScope(t)

	obj := mustRun(t, "({ twice: function(n) { return n * 2 } })")
	result, err := obj.Index("twice").Call(obj, 21)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	n, _ := result.AsInt()
	if n != 42 {
		t.Errorf("n = %d, want 42", n)
	}
}

func TestGlobalField(t *testing.T) {
	newTestScope(t)

	global, err := Global()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := global.Field("answer", 42); err != nil {
		t.Fatalf("Field: %v", err)
	}

	result := mustRun(t, "answer")
	n, _ := result.AsInt()
	if n != 42 {
		t.Errorf("n = %d, want 42", n)
	}
}
