package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen != "127.0.0.1:7319" {
		t.Fatalf("unexpected listen default: %q", cfg.Listen)
	}
	if cfg.PackageManager != "npm" {
		t.Fatalf("unexpected package manager default: %q", cfg.PackageManager)
	}
	if cfg.DefaultPort != 3000 {
		t.Fatalf("unexpected default port: %d", cfg.DefaultPort)
	}
	if len(cfg.ServerScripts) != 3 {
		t.Fatalf("unexpected server scripts: %v", cfg.ServerScripts)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := strings.Join([]string{
		"listen: 127.0.0.1:9999",
		"package_manager: pnpm",
		"default_port: 5173",
		"extra_ports: [4000]",
		"port_inspector: psutil",
	}, "\n")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Listen != "127.0.0.1:9999" || cfg.PackageManager != "pnpm" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.DefaultPort != 5173 {
		t.Fatalf("default port override not applied: %d", cfg.DefaultPort)
	}
	if cfg.PortInspector != "psutil" {
		t.Fatalf("inspector override not applied: %q", cfg.PortInspector)
	}
	// Untouched keys keep their defaults.
	if len(cfg.ServerScripts) != 3 {
		t.Fatalf("server scripts default lost: %v", cfg.ServerScripts)
	}
}

func TestLoadRejectsBadInspector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port_inspector: netstat\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown inspector")
	}
}

func TestAllPortsDeduplicates(t *testing.T) {
	cfg := Default()
	cfg.ExtraPorts = []int{3000, 5560, 5560}

	all := cfg.AllPorts()
	seen := make(map[int]struct{}, len(all))
	for _, port := range all {
		if _, dup := seen[port]; dup {
			t.Fatalf("duplicate port %d in %v", port, all)
		}
		seen[port] = struct{}{}
	}
	if _, ok := seen[5560]; !ok {
		t.Fatalf("extra port missing from %v", all)
	}
}
