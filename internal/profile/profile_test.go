package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Radix != 10 {
		t.Fatalf("expected the default radix 10, got %d", p.Radix)
	}
}

func TestLoadDecodesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "teco.toml")
	content := "radix = 8\nstartup_macro = \"EB foo.txt$$\"\ndebug = true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Radix != 8 {
		t.Fatalf("expected radix 8, got %d", p.Radix)
	}
	if p.StartupMacro != "EB foo.txt$$" {
		t.Fatalf("expected the startup macro to decode, got %q", p.StartupMacro)
	}
	if !p.Debug {
		t.Fatal("expected debug true")
	}
}
