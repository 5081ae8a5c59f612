package strbuild

import (
	"testing"

	"github.com/rcornwell/teco/internal/qreg"
	"github.com/rcornwell/teco/internal/undo"
)

func run(t *testing.T, m *Machine, in string) []byte {
	t.Helper()
	var out []byte
	for i := 0; i < len(in); i++ {
		if err := m.Input(in[i], &out, i+1); err != nil {
			t.Fatalf("input %q at %d: %v", in[i], i, err)
		}
	}
	return out
}

func TestLiteralPassthrough(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	m := New(log, 0x1b, globals, nil)

	out := run(t, m, "hello")
	if string(out) != "hello" {
		t.Fatalf("got %q", out)
	}
}

func TestCaretControlEscape(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	m := New(log, 0x1b, globals, nil)

	out := run(t, m, "^A")
	if len(out) != 1 || out[0] != 0x01 {
		t.Fatalf("got %v", out)
	}
}

func TestCaretQLiteral(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	m := New(log, 0x1b, globals, nil)

	out := run(t, m, "^Q[")
	if string(out) != "[" {
		t.Fatalf("got %q", out)
	}
}

func TestBraceDepthTracking(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	m := New(log, 0x1b, globals, nil)

	run(t, m, "[abc")
	if m.BraceDepth() != 1 {
		t.Fatalf("expected depth 1, got %d", m.BraceDepth())
	}
	run(t, m, "]")
	if m.BraceDepth() != 0 {
		t.Fatalf("expected depth 0, got %d", m.BraceDepth())
	}
}

func TestRegisterInterpolationQ(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	globals.Find("A").SetString(1, []byte("abc"))
	m := New(log, 0x1b, globals, nil)

	out := run(t, m, "\x05QA")
	if string(out) != "abc" {
		t.Fatalf("got %q", out)
	}
}

func TestRegisterInterpolationU(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	globals.Find("A").SetInteger(1, 'x')
	m := New(log, 0x1b, globals, nil)

	out := run(t, m, "\x05UA")
	if string(out) != "x" {
		t.Fatalf("got %q", out)
	}
}

func TestParseOnlyDiscardsOutput(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	m := New(log, 0x1b, globals, nil)

	if err := m.Input('a', nil, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.Input('[', nil, 2); err != nil {
		t.Fatal(err)
	}
	if m.BraceDepth() != 1 {
		t.Fatalf("parse-only mode must still track brace depth, got %d", m.BraceDepth())
	}
}
