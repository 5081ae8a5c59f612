package gotolabel

import (
	"testing"

	"github.com/rcornwell/teco/internal/undo"
)

func TestSetAndFind(t *testing.T) {
	log := undo.NewLog()
	table := New(log)

	if existing := table.Set(1, "loop", 10); existing != -1 {
		t.Fatalf("expected fresh label, got existing=%d", existing)
	}
	off, ok := table.Find("loop")
	if !ok || off != 10 {
		t.Fatalf("got off=%d ok=%v", off, ok)
	}
}

func TestSetIsSingleAssignment(t *testing.T) {
	log := undo.NewLog()
	table := New(log)

	table.Set(1, "loop", 10)
	existing := table.Set(2, "loop", 20)
	if existing != 10 {
		t.Fatalf("expected redefinition to report original offset 10, got %d", existing)
	}
	off, _ := table.Find("loop")
	if off != 10 {
		t.Fatalf("expected offset to remain 10, got %d", off)
	}
}

func TestRemoveAndUndo(t *testing.T) {
	log := undo.NewLog()
	table := New(log)

	table.Set(1, "loop", 10)
	if !table.Remove(2, "loop") {
		t.Fatal("expected remove to succeed")
	}
	if _, ok := table.Find("loop"); ok {
		t.Fatal("expected label gone")
	}

	log.Pop(1)
	if _, ok := table.Find("loop"); !ok {
		t.Fatal("expected rollback to restore label")
	}
}

func TestClear(t *testing.T) {
	log := undo.NewLog()
	table := New(log)
	table.Set(1, "a", 1)
	table.Set(2, "b", 2)
	table.Clear()
	if table.Len() != 0 {
		t.Fatalf("expected empty table, got %d", table.Len())
	}
}
