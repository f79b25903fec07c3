package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
	if p.Token != "" {
		t.Fatalf("Token = %q, want empty", p.Token)
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "mlconsole")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	prefsFile := filepath.Join(prefsDir, "prefs.toml")
	content := "token = \" abc \"\nusername = \"determined\"\ntheme = \"light\"\n"
	if err := os.WriteFile(prefsFile, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Token != "abc" || p.Username != "determined" || p.Theme != "light" {
		t.Fatalf("Load = %+v", p)
	}
}

func TestSave_CreatesOwnerOnlyFile(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "subdir", "prefs.toml")

	if err := Save(prefsFile, Prefs{Token: "secret", Theme: "light"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	info, err := os.Stat(prefsFile)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Fatalf("mode = %o, want 600", mode)
	}

	loaded, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Token != "secret" || loaded.Theme != "light" {
		t.Fatalf("Load = %+v", loaded)
	}
}

func TestSave_TightensExistingFileMode(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("theme = \"dark\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Save(prefsFile, Prefs{Token: "secret"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	info, err := os.Stat(prefsFile)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Fatalf("mode = %o, want 600", mode)
	}
}

func TestStore_UpdateKeepsOtherFields(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
	s := NewStore(prefsFile)

	if err := s.Update(func(p *Prefs) { p.Username = "alice"; p.Token = "t1" }); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := s.Update(func(p *Prefs) { p.Token = "" }); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	got := s.Load()
	if got.Username != "alice" || got.Token != "" || got.Theme != defaultTheme {
		t.Fatalf("Load = %+v", got)
	}
}

func TestLoad_EmptyThemeFallsBackToDefault(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("theme = \"\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
}

func TestLoad_InvalidTOMLFallsBackToDefault(t *testing.T) {
	tmp := t.TempDir()
	prefsFile := filepath.Join(tmp, "prefs.toml")
	if err := os.WriteFile(prefsFile, []byte("not valid toml {{{\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
}

func TestStore_SessionRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "prefs.toml"))

	if err := s.SaveSession("tok", "ada"); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if p := s.Load(); p.Token != "tok" || p.Username != "ada" {
		t.Fatalf("after save = %+v", p)
	}

	if err := s.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	p := s.Load()
	if p.Token != "" {
		t.Fatalf("Token = %q, want empty", p.Token)
	}
	if p.Username != "ada" {
		t.Fatalf("Username = %q, want it kept", p.Username)
	}
}
