package providers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_Load(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("ECHO_TOKEN", "secret")

	writeFile(t, tmpDir, "echo.yaml", `name: echo
description: Echo tools
command: echo-mcp
args: ["--stdio", "--verbose"]
env:
  TOKEN: "${ECHO_TOKEN}"
cwd: work
`)
	writeFile(t, tmpDir, "noname.yaml", "command: nothing\n")
	writeFile(t, tmpDir, "broken.yaml", "{{invalid yaml")
	writeFile(t, tmpDir, "notes.txt", "name: ignored\ncommand: x\n")

	loader := NewLoader(tmpDir)

	t.Run("loads definition by name", func(t *testing.T) {
		d, err := loader.Load("echo")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if d.Command != "echo-mcp" {
			t.Errorf("Command = %q, want %q", d.Command, "echo-mcp")
		}
		if d.CommandLine() != "echo-mcp --stdio --verbose" {
			t.Errorf("CommandLine() = %q", d.CommandLine())
		}
		if d.Env["TOKEN"] != "secret" {
			t.Errorf("Env[TOKEN] = %q, want expanded value", d.Env["TOKEN"])
		}
		if d.Cwd != filepath.Join(tmpDir, "work") {
			t.Errorf("Cwd = %q, want %q", d.Cwd, filepath.Join(tmpDir, "work"))
		}
	})

	t.Run("not found mentions parse errors", func(t *testing.T) {
		_, err := loader.Load("missing")
		if err == nil {
			t.Fatal("Load() error = nil, want error")
		}
		if !strings.Contains(err.Error(), "parse errors") {
			t.Errorf("error %q should mention parse errors", err)
		}
	})

	t.Run("list skips broken files", func(t *testing.T) {
		names, err := loader.List()
		if err == nil {
			t.Error("List() error = nil, want parse warning")
		}
		if len(names) != 1 || names[0] != "echo" {
			t.Errorf("List() = %v, want [echo]", names)
		}
	})
}

func TestLoader_MissingDirectory(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing"))

	names, err := loader.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}

	if _, err := loader.Load("echo"); !IsNotFound(err) {
		t.Errorf("Load() error = %v, want NotFoundError", err)
	}
}

func TestLoader_CreateAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "providers")
	loader := NewLoader(dir)
	d := &Definition{Name: "files", Command: "fs-mcp", Args: []string{"/srv"}}

	if err := loader.Create(d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "files.yaml")); err != nil {
		t.Fatalf("definition file not written: %v", err)
	}

	err := loader.Create(d)
	var exists *AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("Create() duplicate error = %v, want AlreadyExistsError", err)
	}

	loaded, err := loader.Load("files")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Args[0] != "/srv" {
		t.Errorf("Args = %v", loaded.Args)
	}

	if err := loader.Remove("files"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := loader.Load("files"); !IsNotFound(err) {
		t.Errorf("Load() after Remove error = %v, want NotFoundError", err)
	}
}

func TestLoader_CreateValidates(t *testing.T) {
	loader := NewLoader(t.TempDir())

	tests := []struct {
		name string
		def  Definition
	}{
		{"invalid name", Definition{Name: "bad name", Command: "x"}},
		{"missing command", Definition{Name: "ok"}},
		{"invalid env", Definition{Name: "ok", Command: "x", Env: map[string]string{"A=B": "1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := loader.Create(&tt.def); err == nil {
				t.Error("Create() error = nil, want validation error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yml", "name: custom\ncommand: custom-mcp\ncwd: /opt/custom\n")

	d, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if d.Name != "custom" || d.Cwd != "/opt/custom" {
		t.Errorf("LoadFile() = %+v", d)
	}
}

func TestDefinition_RegisterParams(t *testing.T) {
	d := &Definition{
		Name:        "echo",
		Description: "Echo tools",
		Command:     "echo-mcp",
		Args:        []string{"--stdio"},
		Env:         map[string]string{"B": "2", "A": "1"},
		Cwd:         "/tmp",
	}

	p := d.RegisterParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if p.Name != "echo" || p.Command != "echo-mcp" || p.Cwd != "/tmp" || p.Description != "Echo tools" {
		t.Errorf("RegisterParams() = %+v", p)
	}
	if got := d.EnvNames(); strings.Join(got, ",") != "A,B" {
		t.Errorf("EnvNames() = %v, want [A B]", got)
	}
}
