// Package prefs persists local mlconsole state between runs: the session
// token, the last username and the theme fallback used before remote
// settings load. Preferences are stored in ~/.config/mlconsole/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds local preferences.
type Prefs struct {
	Token    string `toml:"token,omitempty"`
	Username string `toml:"username,omitempty"`
	Theme    string `toml:"theme"`
}

const (
	defaultPrefsPath = "~/.config/mlconsole/prefs.toml"
	defaultTheme     = "dark"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// Load reads preferences from the given path, falling back to defaults if
// the file is missing or unreadable.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), nil
	}

	prefs := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Defaults(), nil // Graceful degradation
	}

	prefs.Token = strings.TrimSpace(prefs.Token)
	prefs.Username = strings.TrimSpace(prefs.Username)
	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
// The file holds a bearer token and is written owner-only.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(resolved, 0o600); err != nil {
		return fmt.Errorf("chmod prefs: %w", err)
	}

	return nil
}

// Store wraps a path so callers can update one field at a time.
type Store struct {
	path string
}

// NewStore returns a Store backed by path ("" selects the default).
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the current preferences.
func (s *Store) Load() Prefs {
	p, _ := Load(s.path)
	return p
}

// Update loads, mutates and saves the preferences.
func (s *Store) Update(fn func(*Prefs)) error {
	p := s.Load()
	fn(&p)
	return Save(s.path, p)
}

// SaveSession stores the token of a successful login.
func (s *Store) SaveSession(token, username string) error {
	return s.Update(func(p *Prefs) {
		p.Token = token
		p.Username = username
	})
}

// ClearSession forgets the token but keeps the username for the next login.
func (s *Store) ClearSession() error {
	return s.Update(func(p *Prefs) { p.Token = "" })
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
