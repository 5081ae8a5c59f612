package undo

import "testing"

func TestPushPopRestoresScalar(t *testing.T) {
	log := NewLog()
	x := 1

	PushScalarRestore(log, 1, func() int { return x }, func(v int) { x = v })
	x = 2
	PushScalarRestore(log, 2, func() int { return x }, func(v int) { x = v })
	x = 3

	log.Pop(0)
	if x != 1 {
		t.Fatalf("expected rollback to 1, got %d", x)
	}
	if log.Len() != 0 {
		t.Fatalf("expected empty log, got %d tokens", log.Len())
	}
}

func TestPopIsMonotonicOnPartialRange(t *testing.T) {
	log := NewLog()
	var order []int

	log.Push(1, func(run bool) {
		if run {
			order = append(order, 1)
		}
	})
	log.Push(2, func(run bool) {
		if run {
			order = append(order, 2)
		}
	})
	log.Push(3, func(run bool) {
		if run {
			order = append(order, 3)
		}
	})

	log.Pop(1)
	if len(order) != 2 || order[0] != 3 || order[1] != 2 {
		t.Fatalf("expected LIFO [3 2], got %v", order)
	}
	if log.Len() != 1 {
		t.Fatalf("expected one token left tagged pc=1, got %d", log.Len())
	}
}

func TestClearDoesNotReplay(t *testing.T) {
	log := NewLog()
	ran := false
	cleaned := false
	log.Push(1, func(run bool) {
		if run {
			ran = true
		} else {
			cleaned = true
		}
	})
	log.Clear()
	if ran {
		t.Fatalf("clear must not replay actions")
	}
	if !cleaned {
		t.Fatalf("clear must still release owned resources")
	}
}

func TestDisabledPushIsNoop(t *testing.T) {
	log := NewLog()
	log.SetEnabled(false)
	if ok := log.Push(1, func(bool) {}); ok {
		t.Fatalf("push should report disabled")
	}
	if log.Len() != 0 {
		t.Fatalf("disabled log must not retain tokens")
	}
}
