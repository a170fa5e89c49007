// Package manifest handles jsbridge.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a jsbridge.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Modules Modules `toml:"modules"`
	Runtime Runtime `toml:"runtime"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the jsbridge.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures which scripts run and in what order.
type Source struct {
	// Prelude scripts run before Scripts, in order.
	Prelude []string `toml:"prelude"`
	Scripts []string `toml:"scripts"`
}

// Modules toggles the host modules registered on the global object.
type Modules struct {
	Console bool `toml:"console"`
	Grpc    bool `toml:"grpc"`
	Db      bool `toml:"db"`
}

// Runtime configures engine runtime creation.
type Runtime struct {
	DisableEval bool `toml:"disable-eval"`
}

// Log configures bridge logging.
type Log struct {
	// Verbosity follows commonlog conventions: higher is chattier.
	Verbosity int `toml:"verbosity"`
}

// Load parses a jsbridge.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "jsbridge.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Project.Name == "" {
		m.Project.Name = filepath.Base(m.Dir)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a jsbridge.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "jsbridge.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ScriptPaths returns absolute paths for prelude plus main scripts, in run
// order.
func (m *Manifest) ScriptPaths() []string {
	var paths []string
	for _, s := range m.Source.Prelude {
		paths = append(paths, filepath.Join(m.Dir, s))
	}
	for _, s := range m.Source.Scripts {
		paths = append(paths, filepath.Join(m.Dir, s))
	}
	return paths
}
