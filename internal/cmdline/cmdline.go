// Package cmdline implements the command-line loop (spec C10): the
// keystroke-at-a-time driver around the main parser (C9) that commits
// each typed byte immediately, rubs out and re-inserts on request,
// catches the "}" command-line replacement exception, and resets
// process-wide state on Return.
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
package cmdline

import (
	"errors"
	"strings"

	"github.com/rcornwell/teco/internal/parser"
)

const esc = 0x1b

// Control bytes the loop intercepts as editing functions rather than
// handing to the parser. The printable "^" + letter spelling (e.g.
// "^U") still reaches the parser as an ordinary two-byte command,
// since these raw control codes never appear in well-formed input.
const (
	ctrlH = 0x08 // rub-out / re-insert one byte
	ctrlW = 0x17 // rub-out / re-insert a whole command
	ctrlU = 0x15 // line rub-out
	ctrlG = 0x07 // toggle the immediate-editing modifier
	tab   = 0x09 // state-dependent completion (spec §4.2)
)

// Loop drives Context one keystroke at a time over a command buffer
// that grows and shrinks in place (spec §4.9).
type Loop struct {
	Ctx *parser.Context

	buf    []byte // committed command-line bytes
	rubout []byte // most recently rubbed-out suffix, kept for re-insert

	lastCmdline []byte
	immediate   bool // "^G": reverses rub-out/re-insert direction

	quitRequested bool

	// Message is the short banner from the last failed keystroke,
	// cleared at the start of the next one.
	Message string
}

// NewLoop returns a Loop driving ctx, with an empty command buffer.
func NewLoop(ctx *parser.Context) *Loop {
	return &Loop{Ctx: ctx}
}

// Buffer returns the currently committed command-line bytes.
func (l *Loop) Buffer() []byte { return l.buf }

// Rubout returns the most recently rubbed-out suffix, still available
// for byte-for-byte re-insertion.
func (l *Loop) Rubout() []byte { return l.rubout }

// Immediate reports whether the immediate-editing modifier is armed.
func (l *Loop) Immediate() bool { return l.immediate }

// LastCmdline returns the buffer committed by the most recent Return,
// the source for the "*q" save-last-line register.
func (l *Loop) LastCmdline() []byte { return l.lastCmdline }

// RequestQuit arms the loop so that the next Return commits and
// reports quit, mirroring the fn-key CLOSE default (spec §4.9
// "Function-key macros").
func (l *Loop) RequestQuit() { l.quitRequested = true }

// Keypress feeds one key to the loop (spec §4.9). It reports quit=true
// once a Return has been committed with RequestQuit armed.
func (l *Loop) Keypress(ch byte) (quit bool, err error) {
	l.Message = ""

	switch ch {
	case ctrlH:
		if l.immediate {
			return false, l.reinsert()
		}
		return false, l.ruboutOne()
	case ctrlW:
		return false, l.ruboutCommand()
	case ctrlU:
		return false, l.ruboutLine()
	case ctrlG:
		l.immediate = !l.immediate
		return false, nil
	case tab:
		return false, l.complete()
	case esc:
		if l.Ctx.AtCommandBoundary() {
			if len(l.buf) > 0 && l.buf[len(l.buf)-1] == esc {
				return l.commitReturn()
			}
			// The first of the two terminating escapes: a bare ESC
			// has no command meaning at top level, so record it
			// without handing it to the parser.
			l.buf = append(l.buf, esc)
			l.rubout = l.rubout[:0]
			return false, nil
		}
	}
	return false, l.insert(ch)
}

// complete implements Tab-completion (spec §4.2): it inserts the
// unambiguous remainder of whatever name argument the parser is
// currently reading (Q-Register spec or help topic), or — when more
// than one name matches — reports the candidate set as the short
// message banner instead of guessing.
func (l *Loop) complete() error {
	insert, candidates, ok := l.Ctx.AutoComplete()
	if len(candidates) == 0 {
		return nil
	}
	if !ok {
		l.Message = strings.Join(candidates, " ")
		return nil
	}
	for _, ch := range []byte(insert) {
		if err := l.insert(ch); err != nil {
			return err
		}
	}
	return nil
}

// insert appends ch to the buffer and replays the parser over the
// result (spec §4.9 "insert a byte").
func (l *Loop) insert(ch byte) error {
	newBuf := append(append([]byte(nil), l.buf...), ch)
	_, err := l.Ctx.ReplayFromStart(newBuf)
	if err == nil {
		l.buf = newBuf
		l.rubout = l.rubout[:0]
		return nil
	}

	var repl *parser.ReplaceError
	if errors.As(err, &repl) {
		return l.replace(repl.NewBuffer)
	}

	// Any other error (spec §4.9 step 5): leave the committed buffer
	// as it was, move the failing byte into the rubout region so the
	// next keypress can re-insert it, and replay the still-good old
	// buffer to put the parser's lexical state back in sync with it.
	l.Message = err.Error()
	l.rubout = append([]byte{ch}, l.rubout...)
	if _, rerr := l.Ctx.ReplayFromStart(l.buf); rerr != nil {
		return rerr
	}
	return nil
}

// replace applies a "}" command-line replacement (spec §4.9
// "Command-line replacement"): newBuffer becomes the command line. If
// replaying it raises another replacement, that one is applied in
// turn; if it raises any other error, the old buffer is reinstated and
// the offending "}" is rubbed out instead of committing the swap.
func (l *Loop) replace(newBuffer []byte) error {
	_, err := l.Ctx.ReplayFromStart(newBuffer)
	if err == nil {
		l.buf = append([]byte(nil), newBuffer...)
		l.rubout = l.rubout[:0]
		return nil
	}

	var nested *parser.ReplaceError
	if errors.As(err, &nested) {
		return l.replace(nested.NewBuffer)
	}

	l.Message = err.Error()
	l.rubout = append([]byte{'}'}, l.rubout...)
	if _, rerr := l.Ctx.ReplayFromStart(l.buf); rerr != nil {
		return rerr
	}
	return nil
}

// ruboutOne implements "^H": drop the last committed byte into the
// rubout region and replay the shortened buffer.
func (l *Loop) ruboutOne() error {
	if len(l.buf) == 0 {
		return nil
	}
	ch := l.buf[len(l.buf)-1]
	newBuf := l.buf[:len(l.buf)-1]
	if _, err := l.Ctx.ReplayFromStart(newBuf); err != nil {
		return err
	}
	l.buf = newBuf
	l.rubout = append([]byte{ch}, l.rubout...)
	return nil
}

// reinsert implements "^H" under the immediate-editing modifier:
// re-insert the first byte of the rubout region.
func (l *Loop) reinsert() error {
	if len(l.rubout) == 0 {
		return nil
	}
	ch := l.rubout[0]
	l.rubout = l.rubout[1:]
	return l.insert(ch)
}

// ruboutCommand implements "^W": repeated single rub-out (or
// re-insert, under the immediate modifier) until the parser is back
// at a command boundary.
func (l *Loop) ruboutCommand() error {
	if l.immediate {
		for len(l.rubout) > 0 {
			if err := l.reinsert(); err != nil {
				return err
			}
			if l.Ctx.AtCommandBoundary() {
				return nil
			}
		}
		return nil
	}
	for len(l.buf) > 0 {
		if err := l.ruboutOne(); err != nil {
			return err
		}
		if l.Ctx.AtCommandBoundary() {
			return nil
		}
	}
	return nil
}

// ruboutLine implements "^U": rub out until the current string
// argument is empty, approximated here as rubbing back to the
// nearest command boundary (the spec's "current string argument" is
// exactly the lexical sub-state that boundary check excludes).
func (l *Loop) ruboutLine() error {
	for len(l.buf) > 0 && !l.Ctx.AtCommandBoundary() {
		if err := l.ruboutOne(); err != nil {
			return err
		}
	}
	return nil
}

// commitReturn commits the buffer on a terminating double-ESC (spec
// §4.9 step 4), firing the ED-hook's QUIT event first if this Return
// is the one requested by RequestQuit (spec §4.4 "ED-hook invocation").
func (l *Loop) commitReturn() (quit bool, err error) {
	l.lastCmdline = append([]byte(nil), l.buf...)
	quit = l.quitRequested
	if quit {
		if hookErr := l.Ctx.RunEDHook(parser.HookQuit); hookErr != nil {
			l.Message = hookErr.Error()
			err = hookErr
		}
	}
	l.Ctx.ResetForNextCommand()
	l.buf = l.buf[:0]
	l.rubout = l.rubout[:0]
	l.quitRequested = false
	return quit, err
}
