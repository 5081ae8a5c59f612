package host

import "testing"

func TestBoardRoundTrips(t *testing.T) {
	b := NewBoard()
	if err := b.Set("C", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	got, err := b.Get("C")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestBoardGetMissingSlotReturnsNil(t *testing.T) {
	b := NewBoard()
	got, err := b.Get("P")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil for an unset slot, got %q", got)
	}
}

func TestExpandPathRejectsNullByte(t *testing.T) {
	if _, err := ExpandPath("foo\x00bar"); err != ErrNullByteInPath {
		t.Fatalf("expected ErrNullByteInPath, got %v", err)
	}
}

func TestNormalizePathRewritesBackslashes(t *testing.T) {
	if got := NormalizePath(`a\b\c`); got != "a/b/c" {
		t.Fatalf("expected %q, got %q", "a/b/c", got)
	}
}

func TestIsPatternDetectsGlobMeta(t *testing.T) {
	cases := map[string]bool{
		"foo.tec":  false,
		"*.tec":    true,
		"foo?.tec": true,
		"[ab].tec": true,
	}
	for path, want := range cases {
		if got := IsPattern(path); got != want {
			t.Errorf("IsPattern(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestIsVisibleHidesDotfiles(t *testing.T) {
	if IsVisible(".hidden") {
		t.Fatal("expected a dot-prefixed name to be hidden")
	}
	if !IsVisible("visible.tec") {
		t.Fatal("expected a plain name to be visible")
	}
}

func TestSetEnvironStripsLeadingEquals(t *testing.T) {
	if err := SetEnviron("=ODD=value"); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range Environ() {
		if e == "ODD=value" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected ODD=value to appear in the environment")
	}
}
