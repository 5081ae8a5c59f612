// Package index implements the ordered name index (spec C3) shared by
// the Q-Register table, the goto label table and the help topic
// index: a case-sensitive or case-insensitive string-keyed map with
// ordered traversal and longest-common-prefix auto-completion.
//
// Copyright 2024, Richard Cornwell
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
package index

import (
	"sort"
	"strings"
)

// Index is an ordered map keyed by name, holding an opaque value of
// type T. Entries are kept sorted by name so that iteration, nfind
// and auto-completion are simple slice scans — the same approach the
// teacher's command dispatch table uses instead of a tree.
type Index[T any] struct {
	fold    bool
	entries []entry[T]
}

type entry[T any] struct {
	name  string
	value T
}

// New creates an Index. When fold is true, names are compared
// ASCII-case-insensitively (used by help topics); Q-Register and goto
// label tables use fold=false.
func New[T any](fold bool) *Index[T] {
	return &Index[T]{fold: fold}
}

func (x *Index[T]) key(name string) string {
	if x.fold {
		return strings.ToLower(name)
	}
	return name
}

func (x *Index[T]) search(name string) int {
	key := x.key(name)
	return sort.Search(len(x.entries), func(i int) bool {
		return x.key(x.entries[i].name) >= key
	})
}

// Find returns the value stored for name and true, or the zero value
// and false if absent.
func (x *Index[T]) Find(name string) (T, bool) {
	i := x.search(name)
	if i < len(x.entries) && x.key(x.entries[i].name) == x.key(name) {
		return x.entries[i].value, true
	}
	var zero T
	return zero, false
}

// NFind returns the least entry whose name is >= query, i.e. the
// insertion point — used to scan a range of candidates sharing a
// prefix.
func (x *Index[T]) NFind(query string) (name string, value T, ok bool) {
	i := x.search(query)
	if i < len(x.entries) {
		return x.entries[i].name, x.entries[i].value, true
	}
	var zero T
	return "", zero, false
}

// Insert adds name -> value. It reports false without modifying the
// index if name already exists (single-assignment semantics live in
// the caller, e.g. the goto table's redefinition warning).
func (x *Index[T]) Insert(name string, value T) bool {
	i := x.search(name)
	if i < len(x.entries) && x.key(x.entries[i].name) == x.key(name) {
		return false
	}
	x.entries = append(x.entries, entry[T]{})
	copy(x.entries[i+1:], x.entries[i:])
	x.entries[i] = entry[T]{name: name, value: value}
	return true
}

// Set inserts or overwrites name -> value unconditionally.
func (x *Index[T]) Set(name string, value T) {
	i := x.search(name)
	if i < len(x.entries) && x.key(x.entries[i].name) == x.key(name) {
		x.entries[i].value = value
		return
	}
	x.entries = append(x.entries, entry[T]{})
	copy(x.entries[i+1:], x.entries[i:])
	x.entries[i] = entry[T]{name: name, value: value}
}

// Unlink removes name, reporting whether it was present.
func (x *Index[T]) Unlink(name string) bool {
	i := x.search(name)
	if i < len(x.entries) && x.key(x.entries[i].name) == x.key(name) {
		x.entries = append(x.entries[:i], x.entries[i+1:]...)
		return true
	}
	return false
}

// Len reports the number of entries.
func (x *Index[T]) Len() int {
	return len(x.entries)
}

// Each calls fn for every entry in ascending name order; it stops
// early if fn returns false.
func (x *Index[T]) Each(fn func(name string, value T) bool) {
	for _, e := range x.entries {
		if !fn(e.name, e.value) {
			return
		}
	}
}

// AutoComplete implements the spec's longest-common-prefix completion
// (§4.2): it finds every name that extends prefix, up to restrictLen
// total bytes of name (0 means unrestricted). If there are no
// candidates it returns ok=false with an empty insert. If there is
// exactly one, insert holds the remaining suffix to append and ok is
// true ("unambiguous"). Otherwise candidates holds every matching name
// and insert holds their longest shared prefix remainder (possibly
// empty), with ok=false.
func (x *Index[T]) AutoComplete(prefix string, restrictLen int) (insert string, candidates []string, ok bool) {
	key := x.key(prefix)
	start := x.search(prefix)

	for i := start; i < len(x.entries); i++ {
		name := x.entries[i].name
		cmp := x.key(name)
		if len(cmp) < len(key) || cmp[:len(key)] != key {
			break
		}
		if restrictLen > 0 && len(name) > restrictLen {
			continue
		}
		candidates = append(candidates, name)
	}

	if len(candidates) == 0 {
		return "", nil, false
	}
	if len(candidates) == 1 {
		return candidates[0][len(prefix):], candidates, true
	}

	common := candidates[0]
	for _, c := range candidates[1:] {
		n := 0
		for n < len(common) && n < len(c) && common[n] == c[n] {
			n++
		}
		common = common[:n]
	}
	return common[len(prefix):], candidates, false
}
