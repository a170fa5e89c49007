package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleManifest = `
[project]
name = "demo"
version = "0.1.0"

[source]
prelude = ["lib/prelude.js"]
scripts = ["main.js", "extra.js"]

[modules]
console = true
grpc = false
db = true

[runtime]
disable-eval = true

[log]
verbosity = 2
`

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "jsbridge.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, sampleManifest)

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Project.Name != "demo" {
		t.Errorf("project name = %q, want demo", m.Project.Name)
	}
	if !m.Modules.Console || m.Modules.Grpc || !m.Modules.Db {
		t.Errorf("modules = %+v", m.Modules)
	}
	if !m.Runtime.DisableEval {
		t.Error("expected disable-eval")
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d", m.Log.Verbosity)
	}
}

func TestLoadDefaultsName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[source]\nscripts = [\"a.js\"]\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Project.Name != filepath.Base(m.Dir) {
		t.Errorf("default name = %q", m.Project.Name)
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, sampleManifest)

	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(sub)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("manifest not found from subdirectory")
	}
	if m.Project.Name != "demo" {
		t.Errorf("project name = %q", m.Project.Name)
	}
}

func TestScriptPaths(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, sampleManifest)

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	paths := m.ScriptPaths()
	if len(paths) != 3 {
		t.Fatalf("got %d paths, want 3", len(paths))
	}
	if filepath.Base(paths[0]) != "prelude.js" {
		t.Errorf("prelude should come first, got %s", paths[0])
	}
	if filepath.Base(paths[1]) != "main.js" {
		t.Errorf("unexpected order: %v", paths)
	}
}
