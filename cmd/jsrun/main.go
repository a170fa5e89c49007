// jsrun - runs scripts through the bridge with the host modules installed
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/jsbridge/engine"
	"github.com/chazu/jsbridge/hostlib"
	"github.com/chazu/jsbridge/js"
	"github.com/chazu/jsbridge/manifest"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("jsrun")

func main() {
	eval := flag.String("e", "", "Evaluate the given source and exit")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	verbosity := flag.Int("v", 0, "Log verbosity (higher is chattier)")
	manifestDir := flag.String("m", "", "Directory containing jsbridge.toml (default: walk up from cwd)")
	noManifest := flag.Bool("no-manifest", false, "Skip jsbridge.toml discovery")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jsrun [options] [scripts...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs scripts with console, grpc and db host modules.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  jsrun main.js            # Run a script\n")
		fmt.Fprintf(os.Stderr, "  jsrun -e 'console.log(1+2)'\n")
		fmt.Fprintf(os.Stderr, "  jsrun -i                 # Start REPL\n")
	}
	flag.Parse()

	// Manifest discovery: jsbridge.toml configures modules, scripts and
	// log verbosity for the enclosing project.
	var m *manifest.Manifest
	if !*noManifest {
		var err error
		if *manifestDir != "" {
			m, err = manifest.Load(*manifestDir)
		} else {
			m, err = manifest.FindAndLoad(".")
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	logLevel := *verbosity
	if logLevel == 0 && m != nil {
		logLevel = m.Log.Verbosity
	}
	commonlog.Configure(logLevel, nil)

	var attrs engine.RuntimeAttributes
	if m != nil {
		attrs.DisableEval = m.Runtime.DisableEval
	}

	rt := engine.NewRuntime(attrs)
	defer rt.Dispose()

	ctx, code := rt.NewContext()
	if engine.Failed(code) {
		fmt.Fprintf(os.Stderr, "Error: cannot create context: %v\n", code)
		os.Exit(1)
	}

	scope, err := js.EnterContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer scope.Exit()

	if err := registerModules(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	session := uuid.NewString()
	log.Debugf("session %s started", session)

	exitCode := 0
	cookie := js.NewSourceCookie()

	if *eval != "" {
		if !runSource(*eval, cookie, "<eval>") {
			exitCode = 1
		}
	}

	var paths []string
	if m != nil && flag.NArg() == 0 && *eval == "" && !*interactive {
		paths = m.ScriptPaths()
	} else {
		paths = flag.Args()
	}

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = 1
			continue
		}
		if !runSource(string(src), cookie, filepath.Base(path)) {
			exitCode = 1
		}
	}

	if *interactive {
		repl(cookie)
	}

	os.Exit(exitCode)
}

func registerModules(m *manifest.Manifest) error {
	// All modules default on without a manifest.
	if m == nil || m.Modules.Console {
		if err := hostlib.RegisterConsole(); err != nil {
			return err
		}
	}
	if m == nil || m.Modules.Grpc {
		if err := hostlib.RegisterGrpc(); err != nil {
			return err
		}
	}
	if m == nil || m.Modules.Db {
		if err := hostlib.RegisterDB(); err != nil {
			return err
		}
	}
	return nil
}

// runSource evaluates src and reports any exception. Returns false on
// failure.
func runSource(src string, cookie engine.SourceContext, url string) bool {
	_, err := js.Run(src, cookie, url)
	if err == nil {
		return true
	}

	var engErr *js.EngineError
	if !errors.As(err, &engErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	kind, detail := js.FormatException(engErr.Code, js.IdentityPosition)
	fmt.Fprintf(os.Stderr, "%s: %s\n", kind, detail)
	return false
}

func repl(cookie engine.SourceContext) {
	fmt.Println("jsrun REPL (Ctrl-D to exit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		result, err := js.Run(line, cookie, "<repl>")
		if err != nil {
			var engErr *js.EngineError
			if errors.As(err, &engErr) {
				kind, detail := js.FormatException(engErr.Code, js.IdentityPosition)
				fmt.Printf("%s: %s\n", kind, detail)
			} else {
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		if result.IsEmpty() || result.IsUndefined() {
			continue
		}
		if s, err := result.CoerceString(); err == nil {
			fmt.Println(s)
		}
	}
}
