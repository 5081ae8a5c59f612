// Package undo implements the interpreter's undo log (spec C2): an
// append-only stack of reversible actions tagged with the parser
// program counter that pushed them, so that rubbing out the last
// character of the command line replays everything it did, in
// reverse, back to the previous character's boundary.
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
package undo

// Action is invoked when a token is popped. run is true when the
// token's effect should actually be performed (a rollback); it is
// false when the log is being cleared without replay, so that the
// action can still release any resources it owns without undoing
// anything observable.
type Action func(run bool)

type token struct {
	pc     int
	action Action
}

// Log is a LIFO stack of undo tokens. The zero value has recording
// disabled, so Push on it is a no-op; NewLog returns a recording log.
type Log struct {
	tokens  []token
	enabled bool
}

// NewLog returns a Log with undo recording enabled.
func NewLog() *Log {
	return &Log{enabled: true}
}

// SetEnabled toggles recording. Disabling is used for batch-mode runs
// where undo history is pointless overhead (spec §4.1); callers that
// push while disabled must perform any destructor work themselves
// since Push becomes a no-op.
func (l *Log) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// Enabled reports whether the log currently records tokens.
func (l *Log) Enabled() bool {
	return l.enabled
}

// Push appends a token tagged with pc. It returns false if undo is
// disabled, in which case the caller must not rely on action ever
// being invoked and must do any necessary cleanup inline.
func (l *Log) Push(pc int, action Action) bool {
	if !l.enabled {
		return false
	}
	l.tokens = append(l.tokens, token{pc: pc, action: action})
	return true
}

// PushScalarRestore is a convenience wrapper for the common case of
// restoring a scalar variable to its old value: capture the old value
// now, write it back through set on rollback.
func PushScalarRestore[T any](l *Log, pc int, get func() T, set func(T)) bool {
	old := get()
	return l.Push(pc, func(run bool) {
		if run {
			set(old)
		}
	})
}

// Len reports the number of outstanding tokens.
func (l *Log) Len() int {
	return len(l.tokens)
}

// Pop runs (LIFO) every token whose pc is strictly greater than pc,
// removing them from the log. This is the rub-out primitive: popping
// to pc-1 of the character just rubbed out restores exactly the state
// that existed before that byte was processed.
func (l *Log) Pop(pc int) {
	for len(l.tokens) > 0 {
		top := l.tokens[len(l.tokens)-1]
		if top.pc <= pc {
			break
		}
		l.tokens = l.tokens[:len(l.tokens)-1]
		top.action(true)
	}
}

// Clear discards every token without replaying it, invoking each
// action with run=false so owned resources are still released. This
// is the command-line termination commit point (spec §4.9): once a
// macro returns, its undo history becomes unreachable.
func (l *Log) Clear() {
	for i := len(l.tokens) - 1; i >= 0; i-- {
		l.tokens[i].action(false)
	}
	l.tokens = l.tokens[:0]
}
