package hostlib

import (
	"testing"
)

func TestRegisterConsole(t *testing.T) {
	newTestScope(t)

	if err := RegisterConsole(); err != nil {
		t.Fatalf("RegisterConsole: %v", err)
	}

	// The methods must exist and tolerate mixed argument types
	if msg := caught(t, `console.log("n =", 42, true)`); msg != "no throw" {
		t.Errorf("console.log threw: %s", msg)
	}
	if msg := caught(t, `console.warn({toString: function() { return "obj" }})`); msg != "no throw" {
		t.Errorf("console.warn threw: %s", msg)
	}
	if msg := caught(t, `console.error()`); msg != "no throw" {
		t.Errorf("console.error threw: %s", msg)
	}

	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		v := mustRun(t, "typeof console."+name)
		s, _ := v.AsString()
		if s != "function" {
			t.Errorf("console.%s is %s, want function", name, s)
		}
	}
}
