package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write package.json: %v", err)
	}
}

func TestLoadWithoutNodeModules(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"scripts":{"dev":"next dev"},"dependencies":{},"devDependencies":{}}`)

	info, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if info.NodeModulesInstalled {
		t.Fatal("expected nodeModulesInstalled to be false")
	}
	if got := info.Scripts["dev"]; got != "next dev" {
		t.Fatalf("expected dev script %q, got %q", "next dev", got)
	}
	if info.Name != "Unknown Project" {
		t.Fatalf("expected fallback name, got %q", info.Name)
	}
	if info.Version != "0.0.0" {
		t.Fatalf("expected fallback version, got %q", info.Version)
	}
	if info.ProjectPath != dir {
		t.Fatalf("expected project path %q, got %q", dir, info.ProjectPath)
	}
}

func TestLoadDetectsNodeModules(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name":"demo","version":"1.2.3","dependencies":{"react":"^19.0.0"}}`)
	if err := os.Mkdir(filepath.Join(dir, "node_modules"), 0o755); err != nil {
		t.Fatalf("mkdir node_modules: %v", err)
	}

	info, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !info.NodeModulesInstalled {
		t.Fatal("expected nodeModulesInstalled to be true")
	}
	if info.Name != "demo" || info.Version != "1.2.3" {
		t.Fatalf("unexpected identity: %q %q", info.Name, info.Version)
	}
	if info.Dependencies["react"] != "^19.0.0" {
		t.Fatalf("unexpected dependencies: %+v", info.Dependencies)
	}
	if len(info.Scripts) != 0 {
		t.Fatalf("expected empty scripts map, got %+v", info.Scripts)
	}
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNoManifest) {
		t.Fatalf("expected ErrNoManifest, got %v", err)
	}
}

func TestLoadInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name": "broken"`)

	_, err := Load(dir)
	if !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got %v", err)
	}
}
