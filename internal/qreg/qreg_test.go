package qreg

import (
	"errors"
	"testing"

	"github.com/rcornwell/teco/internal/undo"
)

func TestPlainRegisterSetGet(t *testing.T) {
	log := undo.NewLog()
	r := NewPlain(log, "A")

	if err := r.SetInteger(1, 42); err != nil {
		t.Fatal(err)
	}
	if r.GetInteger() != 42 {
		t.Fatalf("got %d", r.GetInteger())
	}
	if err := r.SetString(2, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if string(r.GetString()) != "hello" {
		t.Fatalf("got %q", r.GetString())
	}
}

func TestRadixRejectsLessThanTwo(t *testing.T) {
	log := undo.NewLog()
	r := NewRadix(log)
	if r.GetInteger() != 10 {
		t.Fatalf("expected default radix 10, got %d", r.GetInteger())
	}
	if err := r.SetInteger(1, 1); err != ErrInvalidRadix {
		t.Fatalf("expected ErrInvalidRadix, got %v", err)
	}
	if err := r.SetInteger(1, 16); err != nil {
		t.Fatal(err)
	}
}

type fakeView struct {
	pos int
	max int
}

func (f *fakeView) Dot() int { return f.pos }
func (f *fakeView) SetDot(pc int, pos int) bool {
	if pos < 0 || pos > f.max {
		return false
	}
	f.pos = pos
	return true
}

func TestDotRegister(t *testing.T) {
	log := undo.NewLog()
	view := &fakeView{max: 10}
	d := NewDot(log, view)

	if err := d.SetInteger(1, 5); err != nil {
		t.Fatal(err)
	}
	if d.GetInteger() != 5 {
		t.Fatalf("got %d", d.GetInteger())
	}
	if err := d.SetInteger(2, 99); err == nil {
		t.Fatal("expected out-of-range move to fail")
	}
}

type fakeBoard struct {
	data map[string][]byte
}

func (f *fakeBoard) Get(name string) ([]byte, error) {
	if v, ok := f.data[name]; ok {
		return v, nil
	}
	return nil, errors.New("empty")
}
func (f *fakeBoard) Set(name string, data []byte) error {
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.data[name] = append([]byte(nil), data...)
	return nil
}

func TestClipboardRegister(t *testing.T) {
	log := undo.NewLog()
	board := &fakeBoard{}
	c := NewClipboard(log, board, "")

	if err := c.SetString(1, []byte("clip1")); err != nil {
		t.Fatal(err)
	}
	if string(c.GetString()) != "clip1" {
		t.Fatalf("got %q", c.GetString())
	}
	if err := c.AppendString(2, []byte("more")); err != nil {
		t.Fatal(err)
	}
	if string(c.GetString()) != "clip1more" {
		t.Fatalf("got %q", c.GetString())
	}
}

func TestTableGeneralPurposeRegisters(t *testing.T) {
	log := undo.NewLog()
	table := NewGlobalTable(log)

	if table.Find("A") == nil {
		t.Fatal("expected register A to exist")
	}
	if table.Find("9") == nil {
		t.Fatal("expected register 9 to exist")
	}
	if table.Find("ZZ") != nil {
		t.Fatal("expected unregistered name to be absent")
	}
}

func TestTableInsertAndRemove(t *testing.T) {
	log := undo.NewLog()
	table := NewLocalTable(log)

	custom := NewPlain(log, "FOO")
	if !table.Insert(custom) {
		t.Fatal("expected insert to succeed")
	}
	if table.Insert(NewPlain(log, "FOO")) {
		t.Fatal("expected duplicate insert to fail")
	}
	if !table.Remove(1, "FOO") {
		t.Fatal("expected remove to succeed")
	}
	if table.Find("FOO") != nil {
		t.Fatal("expected FOO to be gone")
	}
}

func TestStackPushPop(t *testing.T) {
	log := undo.NewLog()
	r := NewPlain(log, "A")
	r.SetInteger(1, 7)
	r.SetString(2, []byte("saved"))

	stack := NewStack(log)
	if err := stack.Push(3, r); err != nil {
		t.Fatal(err)
	}

	r.SetInteger(4, 0)
	r.SetString(5, []byte("overwritten"))

	if err := stack.Pop(6, r); err != nil {
		t.Fatal(err)
	}
	if r.GetInteger() != 7 {
		t.Fatalf("expected restored integer 7, got %d", r.GetInteger())
	}
	if string(r.GetString()) != "saved" {
		t.Fatalf("expected restored string, got %q", r.GetString())
	}
}

func TestStackPopEmpty(t *testing.T) {
	log := undo.NewLog()
	stack := NewStack(log)
	r := NewPlain(log, "A")
	if err := stack.Pop(1, r); err != ErrStackEmpty {
		t.Fatalf("expected ErrStackEmpty, got %v", err)
	}
}

func TestEnvironRoundTrip(t *testing.T) {
	log := undo.NewLog()
	table := NewGlobalTable(log)

	if err := table.SetEnviron(1, []string{"FOO=bar", "BAZ=qux"}); err != nil {
		t.Fatal(err)
	}
	env, err := table.Environ()
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, kv := range env {
		found[kv] = true
	}
	if !found["FOO=bar"] || !found["BAZ=qux"] {
		t.Fatalf("got %v", env)
	}
}
