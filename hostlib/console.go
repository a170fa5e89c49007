// Package hostlib provides host modules exposed to scripts: a console
// logger, a dynamic gRPC client and a SQL database client. Each module is
// built with the object builder and installed on the global object of the
// current context.
package hostlib

import (
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/jsbridge/js"
)

var consoleLog = commonlog.GetLogger("jsbridge.console")

// RegisterConsole installs a console object on the global object of the
// current context with log, info, warn, error and debug methods. Arguments
// are coerced to strings and joined with spaces.
func RegisterConsole() error {
	global, err := js.Global()
	if err != nil {
		return err
	}

	console, err := js.BuildObject().
		Method("log", 8, consoleHandler(consoleLog.Info)).
		Method("info", 8, consoleHandler(consoleLog.Info)).
		Method("warn", 8, consoleHandler(consoleLog.Warning)).
		Method("error", 8, consoleHandler(consoleLog.Error)).
		Method("debug", 8, consoleHandler(consoleLog.Debug)).
		Value()
	if err != nil {
		return err
	}

	_, err = global.Field("console", console)
	return err
}

func consoleHandler(emit func(string, ...any)) js.Handler {
	return func(args []js.Value) (any, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			if a.IsEmpty() || a.IsUndefined() {
				continue
			}
			s, err := a.CoerceString()
			if err != nil {
				return nil, err
			}
			parts = append(parts, s)
		}
		emit(strings.Join(parts, " "))
		return nil, nil
	}
}
