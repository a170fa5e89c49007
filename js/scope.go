package js

import (
	"github.com/chazu/jsbridge/engine"
)

// Scope applies the balanced set/restore discipline for the current
// context. Enter makes a context current and remembers the previous one;
// Exit restores it. A failure to restore is a programming error and panics
// under engine.Strict; otherwise it is ignored, matching the engine's
// assert-not-fatal convention.
type Scope struct {
	prev   *engine.Context
	active *engine.Context
	exited bool
}

// EnterContext makes c current and returns the scope to exit.
func EnterContext(c *engine.Context) (*Scope, error) {
	prev := engine.CurrentContext()
	if err := check(engine.SetCurrentContext(c)); err != nil {
		return nil, err
	}
	return &Scope{prev: prev, active: c}, nil
}

// Exit restores the previously current context. Safe to call once; later
// calls are no-ops. Exiting while some other context has been made current
// means the nesting is unbalanced.
func (s *Scope) Exit() {
	if s.exited {
		return
	}
	s.exited = true
	engine.AssertCurrent(s.active)
	if code := engine.SetCurrentContext(s.prev); engine.Failed(code) && engine.Strict {
		panic("js: failed to restore context: " + code.String())
	}
}
