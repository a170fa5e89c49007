package engine

// ErrorCode is the status returned by every engine operation. It mirrors the
// failure surface of the embedded engine's C-style ABI: operations never
// panic across the boundary, they report one of these codes.
type ErrorCode int

const (
	// NoError means the operation succeeded.
	NoError ErrorCode = iota

	// ErrInvalidArgument reports a value whose runtime type does not match
	// what the operation requires (e.g. NumberToInt on a string).
	ErrInvalidArgument

	// ErrNullArgument reports an invalid (zero) Ref where a live handle was
	// required.
	ErrNullArgument

	// ErrArgumentNotObject reports a property operation on a value that is
	// not object-like.
	ErrArgumentNotObject

	// ErrOutOfMemory reports resource exhaustion, including script stack
	// overflow.
	ErrOutOfMemory

	// ErrScriptException means script code threw; the thrown value is the
	// pending exception.
	ErrScriptException

	// ErrScriptCompile means the source failed to compile; the pending
	// exception carries message, line and column.
	ErrScriptCompile

	// ErrInExceptionState means an operation was attempted while an
	// exception is pending and unconsumed.
	ErrInExceptionState

	// ErrFatal reports an unrecoverable engine failure.
	ErrFatal

	// ErrNoCurrentContext means no context is current on the calling
	// goroutine-facing slot.
	ErrNoCurrentContext

	// ErrUnexpected is the catch-all for failures with no closer code.
	ErrUnexpected
)

var errorCodeNames = map[ErrorCode]string{
	NoError:              "no error",
	ErrInvalidArgument:   "invalid argument",
	ErrNullArgument:      "null argument",
	ErrArgumentNotObject: "argument not an object",
	ErrOutOfMemory:       "out of memory",
	ErrScriptException:   "script exception",
	ErrScriptCompile:     "script compile error",
	ErrInExceptionState:  "in exception state",
	ErrFatal:             "fatal error",
	ErrNoCurrentContext:  "no current context",
	ErrUnexpected:        "unexpected error",
}

func (c ErrorCode) String() string {
	if s, ok := errorCodeNames[c]; ok {
		return s
	}
	return "unknown error code"
}

// Failed reports whether code indicates failure.
func Failed(c ErrorCode) bool {
	return c != NoError
}

// Succeeded reports whether code indicates success.
func Succeeded(c ErrorCode) bool {
	return c == NoError
}
