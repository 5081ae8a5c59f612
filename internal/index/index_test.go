package index

import "testing"

func TestInsertFind(t *testing.T) {
	x := New[int](false)
	if !x.Insert("foo", 1) {
		t.Fatal("expected fresh insert to succeed")
	}
	if x.Insert("foo", 2) {
		t.Fatal("duplicate insert must fail")
	}
	v, ok := x.Find("foo")
	if !ok || v != 1 {
		t.Fatalf("got %v %v", v, ok)
	}
}

func TestAutoCompleteUnambiguous(t *testing.T) {
	x := New[int](false)
	x.Insert("foobar", 1)
	x.Insert("bazqux", 2)

	insert, cands, ok := x.AutoComplete("foo", 0)
	if !ok || insert != "bar" || len(cands) != 1 {
		t.Fatalf("got insert=%q cands=%v ok=%v", insert, cands, ok)
	}
}

func TestAutoCompleteAmbiguous(t *testing.T) {
	x := New[int](false)
	x.Insert("foobar", 1)
	x.Insert("foobaz", 2)
	x.Insert("football", 3)

	insert, cands, ok := x.AutoComplete("foo", 0)
	if ok {
		t.Fatalf("expected ambiguous match")
	}
	if insert != "" {
		t.Fatalf("expected empty longest-common-prefix remainder, got %q", insert)
	}
	if len(cands) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(cands))
	}
}

func TestAutoCompleteNoMatch(t *testing.T) {
	x := New[int](false)
	x.Insert("foo", 1)
	if _, _, ok := x.AutoComplete("zzz", 0); ok {
		t.Fatalf("expected no match")
	}
}

func TestAutoCompleteRestrictLen(t *testing.T) {
	x := New[int](false)
	x.Insert("a", 1)
	x.Insert("ab", 2)

	insert, cands, ok := x.AutoComplete("a", 1)
	if !ok || insert != "" || len(cands) != 1 || cands[0] != "a" {
		t.Fatalf("got insert=%q cands=%v ok=%v", insert, cands, ok)
	}
}

func TestFoldCaseInsensitive(t *testing.T) {
	x := New[int](true)
	x.Insert("Foo", 1)
	if _, ok := x.Find("FOO"); !ok {
		t.Fatalf("expected case-insensitive find to succeed")
	}
}

func TestUnlink(t *testing.T) {
	x := New[int](false)
	x.Insert("a", 1)
	if !x.Unlink("a") {
		t.Fatal("expected unlink to succeed")
	}
	if x.Unlink("a") {
		t.Fatal("expected second unlink to fail")
	}
}
