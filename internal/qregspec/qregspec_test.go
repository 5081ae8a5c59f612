package qregspec

import (
	"testing"

	"github.com/rcornwell/teco/internal/qreg"
	"github.com/rcornwell/teco/internal/undo"
)

func feed(t *testing.T, m *Machine, s string) bool {
	t.Helper()
	done := false
	var err error
	for i := 0; i < len(s); i++ {
		done, err = m.Input(s[i])
		if err != nil {
			t.Fatalf("input %q: %v", s[i], err)
		}
		if done && i != len(s)-1 {
			t.Fatalf("machine finished early at byte %d of %q", i, s)
		}
	}
	return done
}

func TestSingleLetter(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	m := New(Required, log, globals, nil)

	if !feed(t, m, "A") {
		t.Fatal("expected done after one byte")
	}
	reg, table, err := m.Result(1)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Name() != "A" || table != globals {
		t.Fatalf("got reg=%v table=%v", reg, table)
	}
}

func TestCaretLetter(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	globals.Insert(qreg.NewPlain(log, "\x01"))
	m := New(Required, log, globals, nil)

	if !feed(t, m, "^A") {
		t.Fatal("expected done")
	}
	reg, _, err := m.Result(1)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Name() != "\x01" {
		t.Fatalf("got name %q", reg.Name())
	}
}

func TestTwoLetterHash(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	globals.Insert(qreg.NewPlain(log, "XY"))
	m := New(Required, log, globals, nil)

	if !feed(t, m, "#xy") {
		t.Fatal("expected done")
	}
	reg, _, err := m.Result(1)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Name() != "XY" {
		t.Fatalf("got name %q", reg.Name())
	}
}

func TestBracketedName(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	globals.Insert(qreg.NewPlain(log, "long-name"))
	m := New(Required, log, globals, nil)

	if !feed(t, m, "[long-name]") {
		t.Fatal("expected done")
	}
	reg, _, err := m.Result(1)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Name() != "long-name" {
		t.Fatalf("got name %q", reg.Name())
	}
}

func TestLocalPrefix(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	locals := qreg.NewLocalTable(log)
	m := New(Required, log, globals, locals)

	feed(t, m, ".A")
	_, table, err := m.Result(1)
	if err != nil {
		t.Fatal(err)
	}
	if table != locals {
		t.Fatal("expected local table selected")
	}
}

func TestOptionalInitCreates(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	m := New(OptionalInit, log, globals, nil)

	feed(t, m, "#ZZ")
	reg, _, err := m.Result(5)
	if err != nil {
		t.Fatal(err)
	}
	if globals.Find("ZZ") != reg {
		t.Fatal("expected register inserted into globals")
	}

	log.Pop(4)
	if globals.Find("ZZ") != nil {
		t.Fatal("expected rollback to remove freshly created register")
	}
}

func TestRequiredNotFound(t *testing.T) {
	log := undo.NewLog()
	globals := qreg.NewGlobalTable(log)
	m := New(Required, log, globals, nil)

	feed(t, m, "#ZZ")
	if _, _, err := m.Result(1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
