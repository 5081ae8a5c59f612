package doc

import (
	"testing"

	"github.com/rcornwell/teco/internal/undo"
)

func TestSetAndAppend(t *testing.T) {
	log := undo.NewLog()
	d := New(log)

	d.SetString(1, []byte("hello"))
	d.AppendString(2, []byte(" world"))
	if string(d.Bytes()) != "hello world" {
		t.Fatalf("got %q", d.Bytes())
	}
}

func TestAppendEmptyIsNoop(t *testing.T) {
	log := undo.NewLog()
	d := New(log)
	d.SetString(1, []byte("x"))
	before := log.Len()
	d.AppendString(2, nil)
	if log.Len() != before {
		t.Fatalf("empty append should not push an undo token")
	}
}

func TestUndoRollback(t *testing.T) {
	log := undo.NewLog()
	d := New(log)

	d.SetString(1, []byte("first"))
	d.SetString(2, []byte("second"))
	log.Pop(1)
	if string(d.Bytes()) != "first" {
		t.Fatalf("got %q", d.Bytes())
	}
}

func TestExchangeString(t *testing.T) {
	log := undo.NewLog()
	a := New(log)
	b := New(log)
	a.SetString(1, []byte("AAA"))
	b.SetString(2, []byte("BBB"))

	a.ExchangeString(3, b)
	if string(a.Bytes()) != "BBB" || string(b.Bytes()) != "AAA" {
		t.Fatalf("exchange failed: a=%q b=%q", a.Bytes(), b.Bytes())
	}
}

func TestDotMoveAndGetCharacter(t *testing.T) {
	log := undo.NewLog()
	d := New(log)
	d.SetString(1, []byte("abc"))

	if !d.SetDot(2, 1) {
		t.Fatal("expected valid move")
	}
	if d.Dot() != 1 {
		t.Fatalf("expected dot=1, got %d", d.Dot())
	}
	if d.GetCharacter(1) != 'b' {
		t.Fatalf("expected 'b', got %q", d.GetCharacter(1))
	}
	if d.GetCharacter(3) != -1 {
		t.Fatalf("expected -1 at end, got %d", d.GetCharacter(3))
	}
	if d.SetDot(3, 99) {
		t.Fatal("expected out-of-range move to fail")
	}
}

func TestInsertAtDot(t *testing.T) {
	log := undo.NewLog()
	d := New(log)
	d.SetString(1, []byte("ace"))
	d.SetDot(2, 1)

	d.InsertAtDot(3, []byte("bd"))
	if string(d.Bytes()) != "abdce" {
		t.Fatalf("got %q", d.Bytes())
	}
	if d.Dot() != 3 {
		t.Fatalf("expected dot advanced past insert, got %d", d.Dot())
	}

	log.Pop(2)
	if string(d.Bytes()) != "ace" || d.Dot() != 1 {
		t.Fatalf("rollback failed: data=%q dot=%d", d.Bytes(), d.Dot())
	}
}

func TestGlyphLenUTF8(t *testing.T) {
	log := undo.NewLog()
	d := New(log)
	d.SetString(1, []byte("héllo"))
	if d.GlyphLen() != 5 {
		t.Fatalf("expected 5 glyphs, got %d", d.GlyphLen())
	}
}
