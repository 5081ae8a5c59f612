// Package gotolabel implements the goto label table (spec C6): a
// name -> program-counter map with single-assignment insert, used
// both to resolve "O label`" jumps and to drive skip mode while a
// forward reference is still unresolved.
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
package gotolabel

import (
	"github.com/rcornwell/teco/internal/index"
	"github.com/rcornwell/teco/internal/undo"
)

// Table maps label names to the command-line offset where "!label!"
// was encountered while scanning.
type Table struct {
	entries *index.Index[int]
	log     *undo.Log
}

// New returns an empty label table.
func New(log *undo.Log) *Table {
	return &Table{entries: index.New[int](false), log: log}
}

// Find returns the offset registered for name, or false if undefined
// (a forward reference still pending).
func (t *Table) Find(name string) (int, bool) {
	return t.entries.Find(name)
}

// Set records name -> offset, single-assignment style: if name is
// already bound, the existing offset is returned unchanged and the
// table is not modified (the caller is expected to treat a mismatch
// as a label redefinition and report it). Only a genuinely new name
// is inserted, in which case Set returns -1.
func (t *Table) Set(pc int, name string, offset int) int {
	if existing, had := t.entries.Find(name); had {
		return existing
	}
	t.log.Push(pc, func(run bool) {
		if run {
			t.entries.Unlink(name)
		}
	})
	t.entries.Set(name, offset)
	return -1
}

// Remove deletes name's binding, recording undo at pc so that rubbing
// out past the label's definition un-defines it again.
func (t *Table) Remove(pc int, name string) bool {
	old, had := t.entries.Find(name)
	if !had {
		return false
	}
	t.entries.Unlink(name)
	t.log.Push(pc, func(run bool) {
		if run {
			t.entries.Set(name, old)
		}
	})
	return true
}

// Clear empties the table without recording undo — used when a
// command line is committed (the parser's ResetForNextCommand), where
// the whole table is discarded anyway.
func (t *Table) Clear() {
	var names []string
	t.entries.Each(func(name string, _ int) bool {
		names = append(names, name)
		return true
	})
	for _, name := range names {
		t.entries.Unlink(name)
	}
}

// Len reports the number of defined labels.
func (t *Table) Len() int { return t.entries.Len() }
