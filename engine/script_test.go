package engine

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Script evaluation
// ---------------------------------------------------------------------------

func TestRunScriptResult(t *testing.T) {
	newTestContext(t)

	ref, code := RunScript("2 + 3", 1, "add.js")
	if Failed(code) {
		t.Fatalf("RunScript: %v", code)
	}
	n, code := NumberToInt(ref)
	if Failed(code) {
		t.Fatalf("NumberToInt: %v", code)
	}
	if n != 5 {
		t.Errorf("n = %d, want 5", n)
	}
}

func TestRunScriptThrow(t *testing.T) {
	newTestContext(t)

	_, code := RunScript(`throw new Error("boom")`, 1, "throw.js")
	if code != ErrScriptException {
		t.Fatalf("code = %v, want ErrScriptException", code)
	}
	if !HasException() {
		t.Fatal("exception should be pending")
	}

	exc, code := GetAndClearException()
	if Failed(code) {
		t.Fatalf("GetAndClearException: %v", code)
	}
	if HasException() {
		t.Error("exception should be cleared")
	}

	msgID, _ := GetPropertyIDFromName("message")
	msgRef, _ := GetProperty(exc, msgID)
	msg, _ := StringToPointer(msgRef)
	if msg != "boom" {
		t.Errorf("message = %q, want boom", msg)
	}
}

func TestRunScriptSyntaxError(t *testing.T) {
	newTestContext(t)

	_, code := RunScript("function {", 1, "bad.js")
	if code != ErrScriptCompile {
		t.Fatalf("code = %v, want ErrScriptCompile", code)
	}

	exc, codeErr := GetAndClearException()
	if Failed(codeErr) {
		t.Fatalf("GetAndClearException: %v", codeErr)
	}

	lineID, _ := GetPropertyIDFromName("line")
	lineRef, _ := GetProperty(exc, lineID)
	line, codeErr := NumberToInt(lineRef)
	if Failed(codeErr) {
		t.Fatalf("syntax error should carry a line number: %v", codeErr)
	}
	if line < 1 {
		t.Errorf("line = %d, want >= 1", line)
	}

	colID, _ := GetPropertyIDFromName("column")
	colRef, _ := GetProperty(exc, colID)
	if _, codeErr := NumberToInt(colRef); Failed(codeErr) {
		t.Errorf("syntax error should carry a column number: %v", codeErr)
	}
}

func TestRunScriptWhilePendingFails(t *testing.T) {
	newTestContext(t)

	RunScript(`throw 1`, 1, "first.js")
	if !HasException() {
		t.Fatal("exception should be pending")
	}

	_, code := RunScript("2 + 2", 1, "second.js")
	if code != ErrInExceptionState {
		t.Errorf("code = %v, want ErrInExceptionState", code)
	}
	GetAndClearException()
}

func TestParseScriptDeferredRun(t *testing.T) {
	newTestContext(t)

	fn, code := ParseScript("6 * 7", 1, "deferred.js")
	if Failed(code) {
		t.Fatalf("ParseScript: %v", code)
	}

	vt, _ := GetValueType(fn)
	if vt != TypeFunction {
		t.Fatalf("type = %v, want Function", vt)
	}

	undef, _ := GetUndefinedValue()
	result, code := CallFunction(fn, []Ref{undef})
	if Failed(code) {
		t.Fatalf("CallFunction: %v", code)
	}
	n, _ := NumberToInt(result)
	if n != 42 {
		t.Errorf("n = %d, want 42", n)
	}
}

func TestDisableEval(t *testing.T) {
	rt := NewRuntime(RuntimeAttributes{DisableEval: true})
	defer rt.Dispose()
	c, _ := rt.NewContext()
	SetCurrentContext(c)
	defer SetCurrentContext(nil)

	_, code := RunScript(`eval("1 + 1")`, 1, "eval.js")
	if code != ErrScriptException {
		t.Errorf("code = %v, want ErrScriptException", code)
	}
	GetAndClearException()
}

func TestGlobalStatePersistsAcrossRuns(t *testing.T) {
	newTestContext(t)

	if _, code := RunScript("var counter = 1", 1, "a.js"); Failed(code) {
		t.Fatalf("RunScript: %v", code)
	}
	ref, code := RunScript("counter + 1", 1, "b.js")
	if Failed(code) {
		t.Fatalf("RunScript: %v", code)
	}
	n, _ := NumberToInt(ref)
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
}
