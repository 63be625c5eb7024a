// Package project reads Node.js project manifests.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNoManifest is returned when the directory has no package.json.
	ErrNoManifest = errors.New("no package.json found in this folder")

	// ErrInvalidManifest is returned when package.json is not valid JSON.
	ErrInvalidManifest = errors.New("invalid JSON in package.json")
)

// Info is the UI-facing view of a project manifest.
type Info struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Scripts              map[string]string `json:"scripts"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	NodeModulesInstalled bool              `json:"nodeModulesInstalled"`
	ProjectPath          string            `json:"projectPath"`
}

type manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Load reads the manifest in dir. Missing fields fall back to defaults so a
// minimal manifest still loads; a missing or unparsable file is an error.
func Load(dir string) (*Info, error) {
	pkgPath := filepath.Join(dir, "package.json")

	content, err := os.ReadFile(pkgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, fmt.Errorf("read package.json: %w", err)
	}

	var pkg manifest
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	info := &Info{
		Name:            pkg.Name,
		Version:         pkg.Version,
		Scripts:         pkg.Scripts,
		Dependencies:    pkg.Dependencies,
		DevDependencies: pkg.DevDependencies,
		ProjectPath:     dir,
	}
	if info.Name == "" {
		info.Name = "Unknown Project"
	}
	if info.Version == "" {
		info.Version = "0.0.0"
	}
	if info.Scripts == nil {
		info.Scripts = map[string]string{}
	}
	if info.Dependencies == nil {
		info.Dependencies = map[string]string{}
	}
	if info.DevDependencies == nil {
		info.DevDependencies = map[string]string{}
	}

	if stat, err := os.Stat(filepath.Join(dir, "node_modules")); err == nil && stat.IsDir() {
		info.NodeModulesInstalled = true
	}

	return info, nil
}
