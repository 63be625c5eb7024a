package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootRegistersSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := map[string]bool{"serve": false, "ports": false, "config": false, "version": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("subcommand %q not registered", name)
		}
	}
	if !root.SilenceUsage || !root.SilenceErrors {
		t.Fatalf("root must silence usage and errors for clean error output")
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "config.yaml"), "config", "show"})

	if err := root.Execute(); err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, key := range []string{"listen:", "package_manager:", "default_port:"} {
		if !strings.Contains(out.String(), key) {
			t.Fatalf("config show output missing %q:\n%s", key, out.String())
		}
	}
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	root := NewRootCmd()
	root.SetArgs([]string{"--config", path, "config", "init"})
	if err := root.Execute(); err != nil {
		t.Fatalf("first init: %v", err)
	}

	root = NewRootCmd()
	root.SetArgs([]string{"--config", path, "config", "init"})
	if err := root.Execute(); err == nil {
		t.Fatal("second init succeeded without --force")
	}

	root = NewRootCmd()
	root.SetArgs([]string{"--config", path, "config", "init", "--force"})
	if err := root.Execute(); err != nil {
		t.Fatalf("forced init: %v", err)
	}
}

func TestVersionCommandPrintsBuildLine(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "scriptdeck ") {
		t.Fatalf("unexpected version output: %q", out.String())
	}
}
