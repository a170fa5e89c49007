package js

import (
	"strconv"

	"github.com/chazu/jsbridge/engine"
)

// ErrorKind categorizes a failure crossing the engine boundary.
type ErrorKind int

const (
	InvalidArgument ErrorKind = iota
	NullArgument
	NotAnObject
	OutOfMemory
	ScriptError
	SyntaxError
	FatalError
	AlreadyInException
	Unexpected
)

// kindMessages are the category prefixes used when a bridge failure is
// surfaced to script as "<category>: <detail>".
var kindMessages = [...]string{
	InvalidArgument:    "Invalid argument",
	NullArgument:       "Null argument",
	NotAnObject:        "Argument not an object",
	OutOfMemory:        "Out of memory",
	ScriptError:        "Script error",
	SyntaxError:        "Syntax error",
	FatalError:         "Fatal error",
	AlreadyInException: "Exception",
	Unexpected:         "Unexpected code",
}

func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(kindMessages) {
		return kindMessages[k]
	}
	return "Unexpected code"
}

// kindTable maps every engine error code to its kind. Codes with no closer
// match fall through to Unexpected.
var kindTable = map[engine.ErrorCode]ErrorKind{
	engine.ErrInvalidArgument:   InvalidArgument,
	engine.ErrNullArgument:      NullArgument,
	engine.ErrArgumentNotObject: NotAnObject,
	engine.ErrOutOfMemory:       OutOfMemory,
	engine.ErrScriptException:   ScriptError,
	engine.ErrScriptCompile:     SyntaxError,
	engine.ErrFatal:             FatalError,
	engine.ErrInExceptionState:  AlreadyInException,
}

// KindFromCode maps a native failure code to its ErrorKind.
func KindFromCode(code engine.ErrorCode) ErrorKind {
	if k, ok := kindTable[code]; ok {
		return k
	}
	return Unexpected
}

// EngineError is a typed bridge failure. It propagates normally through host
// code; inside a bound-function trampoline it is contained and converted to
// a script-visible Error instead.
type EngineError struct {
	Code   engine.ErrorCode
	Kind   ErrorKind
	Detail string
}

func (e *EngineError) Error() string {
	if e.Detail != "" {
		return "jsbridge: " + e.Kind.String() + ": " + e.Detail
	}
	return "jsbridge: " + e.Kind.String()
}

// check converts an engine status into a host error.
func check(code engine.ErrorCode) error {
	if engine.Succeeded(code) {
		return nil
	}
	return &EngineError{Code: code, Kind: KindFromCode(code)}
}

// errKind builds a bridge-originated failure with an explicit kind.
func errKind(code engine.ErrorCode, detail string) *EngineError {
	return &EngineError{Code: code, Kind: KindFromCode(code), Detail: detail}
}

// CallbackError carries a message from a host callable straight to script:
// the trampoline surfaces it as an Error whose message is exactly Message.
type CallbackError struct {
	Message string
}

func (e *CallbackError) Error() string {
	return e.Message
}

// NewCallbackError builds a CallbackError.
func NewCallbackError(message string) *CallbackError {
	return &CallbackError{Message: message}
}

// PositionFunc translates raw line/column coordinates reported by the engine
// into caller-meaningful ones. Embedders that prepend wrapper source to user
// scripts supply one; everyone else uses IdentityPosition.
type PositionFunc func(line, col int) (int, int)

// IdentityPosition maps coordinates to themselves.
func IdentityPosition(line, col int) (int, int) {
	return line, col
}

// ---------------------------------------------------------------------------
// Pending exception access
// ---------------------------------------------------------------------------

// HasException reports whether an exception is pending.
func HasException() bool {
	return engine.HasException()
}

// CurrentException returns and clears the pending exception.
func CurrentException() (Value, error) {
	ref, code := engine.GetAndClearException()
	if err := check(code); err != nil {
		return Value{}, err
	}
	return Value{ref: ref}, nil
}

// ExceptionDetails provides best-effort access to the standard fields of a
// thrown value. Accessors return zero values rather than failing.
type ExceptionDetails struct {
	Value
}

// CurrentExceptionDetails fetches and clears the pending exception.
func CurrentExceptionDetails() (ExceptionDetails, error) {
	v, err := CurrentException()
	if err != nil {
		return ExceptionDetails{}, err
	}
	return ExceptionDetails{Value: v}, nil
}

func (d ExceptionDetails) stringProp(name string) string {
	v, err := d.Index(name).Get()
	if err != nil {
		return ""
	}
	s, err := v.AsString()
	if err != nil {
		return ""
	}
	return s
}

func (d ExceptionDetails) intProp(name string) (int, bool) {
	v, err := d.Index(name).Get()
	if err != nil {
		return 0, false
	}
	n, err := v.AsInt()
	if err != nil {
		return 0, false
	}
	return n, true
}

// Message returns the thrown value's message property.
func (d ExceptionDetails) Message() string { return d.stringProp("message") }

// Stack returns the thrown value's stack property.
func (d ExceptionDetails) Stack() string { return d.stringProp("stack") }

// Position returns the line/column of a compile failure.
func (d ExceptionDetails) Position() (line, col int, ok bool) {
	line, lok := d.intProp("line")
	col, cok := d.intProp("column")
	return line, col, lok && cok
}

// ---------------------------------------------------------------------------
// Host failure -> script Error
// ---------------------------------------------------------------------------

// FormatException categorizes a failure code and extracts detail from the
// pending exception (consuming it). Compile failures report remapped
// line/column; runtime failures prefer the stack trace.
func FormatException(code engine.ErrorCode, posmap PositionFunc) (ErrorKind, string) {
	if posmap == nil {
		posmap = IdentityPosition
	}
	kind := KindFromCode(code)
	if code != engine.ErrScriptCompile && code != engine.ErrScriptException {
		return kind, ""
	}
	if !engine.HasException() {
		return kind, ""
	}
	details, err := CurrentExceptionDetails()
	if err != nil {
		return kind, ""
	}
	if code == engine.ErrScriptCompile {
		msg := details.Message()
		if line, col, ok := details.Position(); ok {
			line, col = posmap(line, col)
			msg += " (" + strconv.Itoa(line) + ":" + strconv.Itoa(col) + ")"
		}
		return kind, msg
	}
	msg, cerr := details.CoerceString()
	if cerr != nil {
		msg = details.Message()
	}
	if stack := details.Stack(); stack != "" {
		msg = stack
	}
	return kind, msg
}

// ToJSException converts the failure into a script-visible Error: it formats
// "<category>: <detail>", constructs the Error, sets it as the pending
// exception and returns it. Best effort: on a secondary failure the returned
// value is empty.
func (e *EngineError) ToJSException(posmap PositionFunc) Value {
	kind, detail := FormatException(e.Code, posmap)
	if detail == "" {
		detail = e.Detail
	}
	msg := kind.String() + ": " + detail
	msgVal, err := NewString(msg)
	if err != nil {
		return Value{}
	}
	excRef, code := engine.CreateError(msgVal.ref)
	if engine.Failed(code) {
		return Value{}
	}
	if engine.Failed(engine.SetException(excRef)) {
		return Value{}
	}
	return Value{ref: excRef}
}
