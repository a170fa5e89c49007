package js

import (
	"sync/atomic"

	"github.com/chazu/jsbridge/engine"
)

var sourceCookie atomic.Uint64

// NewSourceCookie mints a fresh source-context cookie for diagnostics.
func NewSourceCookie() engine.SourceContext {
	return engine.SourceContext(sourceCookie.Add(1))
}

// Run compiles and executes src, returning the completion value. A compile
// failure reports SyntaxError kind with the position in the pending
// exception; a thrown value reports ScriptError kind.
func Run(src string, cookie engine.SourceContext, url string) (Value, error) {
	return wrap(engine.RunScript(src, cookie, url))
}

// Parse compiles src without running it and returns a function value that
// executes the script when called.
func Parse(src string, cookie engine.SourceContext, url string) (Value, error) {
	return wrap(engine.ParseScript(src, cookie, url))
}
