// Package settings persists user preferences across restarts. The store is
// a single JSON object at a fixed per-user location; it is read at startup
// and rewritten whole on change (single writer, last write wins).
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and writes the settings file.
type Store struct {
	path string
}

type document struct {
	LastProjectPath string `json:"lastProjectPath"`
}

// DefaultPath places the settings file under the user's configuration
// directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(configDir, "scriptdeck", "settings.json"), nil
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() document {
	var doc document
	data, err := os.ReadFile(s.path)
	if err != nil {
		return doc
	}
	// A corrupt file reads as empty; the next save rewrites it whole.
	_ = json.Unmarshal(data, &doc)
	return doc
}

// LastProjectPath returns the saved project path, if one has been stored.
func (s *Store) LastProjectPath() (string, bool) {
	doc := s.load()
	return doc.LastProjectPath, doc.LastProjectPath != ""
}

// SetLastProjectPath saves the project path. Callers treat failures as
// best-effort: persistence is a convenience, not critical path.
func (s *Store) SetLastProjectPath(projectPath string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	doc := s.load()
	doc.LastProjectPath = projectPath

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
