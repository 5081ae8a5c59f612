package expr

import (
	"testing"

	"github.com/rcornwell/teco/internal/undo"
)

func TestPushAndEvalAddition(t *testing.T) {
	log := undo.NewLog()
	s := NewStack(log)

	s.PushInt(1, 3)
	if err := s.PushOp(2, OpAdd); err != nil {
		t.Fatal(err)
	}
	s.PushInt(3, 4)

	n, err := s.PopNumCalc(4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}

func TestPrecedenceClimbing(t *testing.T) {
	log := undo.NewLog()
	s := NewStack(log)

	// 2 + 3 * 4 => 14
	s.PushInt(1, 2)
	s.PushOp(2, OpAdd)
	s.PushInt(3, 3)
	s.PushOp(4, OpMul)
	s.PushInt(5, 4)

	n, err := s.PopNumCalc(6, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 14 {
		t.Fatalf("expected 14, got %d", n)
	}
}

func TestDivByZero(t *testing.T) {
	log := undo.NewLog()
	s := NewStack(log)

	s.PushInt(1, 5)
	s.PushOp(2, OpDiv)
	s.PushInt(3, 0)

	if _, err := s.PopNumCalc(4, 0); err != ErrDivByZero {
		t.Fatalf("expected ErrDivByZero, got %v", err)
	}
}

func TestNegativeSign(t *testing.T) {
	log := undo.NewLog()
	s := NewStack(log)

	s.SetSign(1, -1)
	s.PushInt(2, 5)

	n, err := s.PopNumCalc(3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != -5 {
		t.Fatalf("expected -5, got %d", n)
	}
}

func TestPowNegativeExponent(t *testing.T) {
	cases := []struct {
		base, exp, want Int
	}{
		{2, -1, 0},
		{1, -1, 1},
		{-1, -1, -1},
		{0, 0, 1},
		{5, 0, 1},
		{-5, 0, -1},
		{2, 3, 8},
	}
	for _, c := range cases {
		got, err := pow(c.base, c.exp)
		if err != nil {
			t.Fatalf("pow(%d,%d) error: %v", c.base, c.exp, err)
		}
		if got != c.want {
			t.Fatalf("pow(%d,%d) = %d, want %d", c.base, c.exp, got, c.want)
		}
	}
}

func TestPowZeroToNegative(t *testing.T) {
	if _, err := pow(0, -2); err != ErrNegPowOfZero {
		t.Fatalf("expected ErrNegPowOfZero, got %v", err)
	}
}

func TestBraceScopeReturn(t *testing.T) {
	log := undo.NewLog()
	s := NewStack(log)

	s.BraceOpen(1)
	s.PushInt(2, 10)
	s.PushOp(3, OpAdd)
	s.PushInt(4, 5)

	if err := s.BraceReturn(5, 0, 1); err != nil {
		t.Fatal(err)
	}

	n, err := s.PopNumCalc(6, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 15 {
		t.Fatalf("expected 15, got %d", n)
	}
	if s.BraceLevel() != 0 {
		t.Fatalf("expected brace level 0, got %d", s.BraceLevel())
	}
}

func TestBraceCloseWithoutOpen(t *testing.T) {
	log := undo.NewLog()
	s := NewStack(log)
	if err := s.BraceClose(1); err != ErrMissingOpenBrace {
		t.Fatalf("expected ErrMissingOpenBrace, got %v", err)
	}
}

func TestUndoRollbackRestoresStack(t *testing.T) {
	log := undo.NewLog()
	s := NewStack(log)

	s.PushInt(1, 1)
	s.PushOp(2, OpAdd)
	s.PushInt(3, 2)

	log.Pop(1)

	if s.Args() != 1 {
		t.Fatalf("expected stack rolled back to one pushed number, got args=%d", s.Args())
	}
	n := s.PopNum(4, 0)
	if n != 1 {
		t.Fatalf("expected surviving number 1, got %d", n)
	}
}

func TestFormatRadix(t *testing.T) {
	cases := []struct {
		n, radix Int
		want     string
	}{
		{255, 16, "FF"},
		{8, 8, "10"},
		{-42, 10, "-42"},
		{0, 10, "0"},
	}
	for _, c := range cases {
		got := Format(c.n, c.radix)
		if got != c.want {
			t.Fatalf("Format(%d,%d) = %q, want %q", c.n, c.radix, got, c.want)
		}
	}
}

// digit simulates typing one more digit of a multi-digit number: it
// extends the number already on top of the stack, or starts a fresh
// one if the top isn't a bare number (e.g. separated by MarkArg).
func digit(s *Stack, pc int, d Int) {
	var n Int
	if s.Args() > 0 {
		n = s.PopNum(pc, 0)
	}
	s.PushInt(pc, n*10+d)
}

func TestMarkArgSeparatesDigitAccumulation(t *testing.T) {
	log := undo.NewLog()
	s := NewStack(log)

	digit(s, 1, 5) // "5"
	s.MarkArg(2)   // ","
	digit(s, 3, 6) // "6"
	digit(s, 4, 7) // "7" (no comma before: extends the same number)

	if got := s.Args(); got != 2 {
		t.Fatalf("expected two distinct arguments, got %d", got)
	}
	if v := s.PopNum(5, 0); v != 67 {
		t.Fatalf("expected 67, got %d", v)
	}
	if v := s.PopNum(6, 0); v != 5 {
		t.Fatalf("expected 5 (unmerged with 67), got %d", v)
	}
}

func TestDiscardArgs(t *testing.T) {
	log := undo.NewLog()
	s := NewStack(log)

	s.PushInt(1, 1)
	s.PushInt(2, 2)
	s.PushInt(3, 3)

	if err := s.DiscardArgs(4); err != nil {
		t.Fatal(err)
	}
	if s.Args() != 0 {
		t.Fatalf("expected no args left, got %d", s.Args())
	}
}
