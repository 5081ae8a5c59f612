package search

import "testing"

func noLookup(ch byte) ([]byte, bool, error) {
	return nil, false, ErrSyntax
}

func TestLiteralPattern(t *testing.T) {
	re, err := Compile([]byte("abc"), noLookup)
	if err != nil {
		t.Fatal(err)
	}
	if !re.MatchString("xxabcxx") {
		t.Fatal("expected match")
	}
}

func TestAnyCharacter(t *testing.T) {
	re, err := Compile([]byte("a\x18c"), noLookup)
	if err != nil {
		t.Fatal(err)
	}
	if !re.MatchString("abc") || re.MatchString("ac") {
		t.Fatalf("any-char class misbehaved")
	}
}

func TestNegatedClass(t *testing.T) {
	re, err := Compile([]byte("\x0e\x13"), noLookup)
	if err != nil {
		t.Fatal(err)
	}
	if !re.MatchString("5") || re.MatchString("-") {
		t.Fatalf("negated ^S class misbehaved")
	}
}

func TestCtrlEDigitClass(t *testing.T) {
	re, err := Compile([]byte("\x05D"), noLookup)
	if err != nil {
		t.Fatal(err)
	}
	if !re.MatchString("5") || re.MatchString("x") {
		t.Fatalf("^E D digit class misbehaved")
	}
}

func TestRepetition(t *testing.T) {
	re, err := Compile([]byte("\x05Ma"), noLookup)
	if err != nil {
		t.Fatal(err)
	}
	if !re.MatchString("aaa") || re.MatchString("b") {
		t.Fatalf("^E M repetition misbehaved")
	}
}

func TestAlternation(t *testing.T) {
	re, err := Compile([]byte("\x05[cat,dog,bird]"), noLookup)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"cat", "dog", "bird"} {
		if !re.MatchString(want) {
			t.Fatalf("expected %q to match", want)
		}
	}
	if re.MatchString("fish") {
		t.Fatal("unexpected match of non-alternative")
	}
}

func TestAlternationFollowedByLiteral(t *testing.T) {
	re, err := Compile([]byte("\x05[a,b]c"), noLookup)
	if err != nil {
		t.Fatal(err)
	}
	if !re.MatchString("ac") || !re.MatchString("bc") || re.MatchString("ad") {
		t.Fatalf("alternation delimiter leaked into following literal")
	}
}

func TestQRegisterInterpolation(t *testing.T) {
	lookup := func(ch byte) ([]byte, bool, error) {
		if ch == 'A' {
			return []byte("xyz"), true, nil
		}
		return nil, false, ErrSyntax
	}
	re, err := Compile([]byte("\x05GA"), lookup)
	if err != nil {
		t.Fatal(err)
	}
	if !re.MatchString("xyz") {
		t.Fatal("expected interpolated register content to match")
	}
}

func TestIncompletePattern(t *testing.T) {
	if _, err := Compile([]byte("\x05"), noLookup); err != ErrIncomplete {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestUnterminatedAlternation(t *testing.T) {
	if _, err := Compile([]byte("\x05[a,b"), noLookup); err != ErrIncomplete {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}
