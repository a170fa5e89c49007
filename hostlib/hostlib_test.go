package hostlib

import (
	"fmt"
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

func mustRun(t *testing.T, src string) js.Value {
	t.Helper()
	v, err := js.Run(src, 1, "hostlib_test.js")
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return v
}

// caught runs src inside a try/catch and returns the caught message, or
// "no throw".
func caught(t *testing.T, src string) string {
	t.Helper()
	v := mustRun(t, fmt.Sprintf(`(function() {
		try { %s } catch (e) { return e.message }
		return "no throw"
	})()`, src))
	s, err := v.AsString()
	if err != nil {
		t.Fatalf("AsString: %v", err)
	}
	return s
}
