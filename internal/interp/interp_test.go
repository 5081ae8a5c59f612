package interp

import (
	"os"
	"testing"

	"github.com/rcornwell/teco/internal/profile"
)

type nullPrinter struct{ out []string }

func (p *nullPrinter) Print(s string) { p.out = append(p.out, s) }

func TestNewRegistersHostBackedQRegisters(t *testing.T) {
	in, err := New(profile.Default(), &nullPrinter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"*", "$", "~", "~C", "~P", "~S"} {
		if in.Ctx.Globals.Find(name) == nil {
			t.Errorf("expected global register %q to be registered", name)
		}
	}
}

func TestNewAppliesConfiguredRadix(t *testing.T) {
	p := profile.Default()
	p.Radix = 8
	in, err := New(p, &nullPrinter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := in.Ctx.Locals.Radix.GetInteger(); got != 8 {
		t.Errorf("radix = %d, want 8", got)
	}
}

func TestNewRunsStartupMacro(t *testing.T) {
	p := profile.Default()
	p.StartupMacro = "Ihello\x1b"
	in, err := New(p, &nullPrinter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := string(in.Buffer.Bytes()); got != "hello" {
		t.Errorf("buffer = %q, want %q", got, "hello")
	}
}

func TestLoadFileAndSaveFileRoundTrip(t *testing.T) {
	in, err := New(profile.Default(), &nullPrinter{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dir := t.TempDir()
	src := dir + "/in.txt"
	if err := os.WriteFile(src, []byte("round trip"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := in.LoadFile(src); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := string(in.Buffer.Bytes()); got != "round trip" {
		t.Fatalf("buffer = %q, want %q", got, "round trip")
	}

	dst := dir + "/out.txt"
	if err := in.SaveFile(dst); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "round trip" {
		t.Fatalf("saved content = %q, want %q", got, "round trip")
	}
}
