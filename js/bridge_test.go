package js

import (
	"testing"

	"github.com/chazu/jsbridge/engine"
)

// newTestScope sets up a runtime with one current context and tears it all
// down with the test.
func newTestScope(t *testing.T) {
	t.Helper()
	rt := engine.NewRuntime(engine.RuntimeAttributes{})
	c, code := rt.NewContext()
	if engine.Failed(code) {
		t.Fatalf("NewContext: %v", code)
	}
	scope, err := EnterContext(c)
	if err != nil {
		t.Fatalf("EnterContext: %v", err)
	}
	t.Cleanup(func() {
		scope.Exit()
		rt.Dispose()
	})
}

// mustRun evaluates src and fails the test on any error.
func mustRun(t *testing.T, src string) Value {
	t.Helper()
	v, err := Run(src, 1, "test.js")
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return v
}

// mustNew converts a Go value and fails the test on error.
func mustNew(t *testing.T, v any) Value {
	t.Helper()
	out, err := New(v)
	if err != nil {
		t.Fatalf("New(%v): %v", v, err)
	}
	return out
}
