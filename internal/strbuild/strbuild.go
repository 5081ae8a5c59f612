// Package strbuild implements the string-building sub-machine (spec
// C7): a nested state machine fed one byte at a time while the main
// parser is inside a string argument, expanding escapes and Q-Register
// interpolation into a target byte buffer (or discarding in
// parse-only mode).
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
package strbuild

import (
	"errors"

	"github.com/rcornwell/teco/internal/qreg"
	"github.com/rcornwell/teco/internal/qregspec"
	"github.com/rcornwell/teco/internal/undo"
)

var ErrSyntax = errors.New("invalid string-building escape")

type state int

const (
	stateNormal state = iota
	stateCaret
	stateCaretQLiteral
	stateCaretE
	stateCaretEQ
	stateCaretEU
)

// Machine expands one string argument's escapes as bytes are fed to
// it. A nil output target (parse-only mode) discards produced bytes while
// still tracking brace depth, matching the parser's parse-only modes.
type Machine struct {
	st         state
	delimiter  byte
	braceDepth int
	qregSub    *qregspec.Machine
	qregMode   byte // 'Q' or 'U', selects which ^E form is pending
	globals    *qreg.Table
	locals     *qreg.Table
	log        *undo.Log
}

// New returns a Machine expecting delimiter as the (non-escape)
// terminator the caller itself watches for; the machine only concerns
// itself with escapes and brace tracking.
func New(log *undo.Log, delimiter byte, globals, locals *qreg.Table) *Machine {
	return &Machine{delimiter: delimiter, globals: globals, locals: locals, log: log}
}

// Input feeds one byte. out receives produced literal bytes (nil
// discards them, matching parse-only mode); pc tags any undo tokens
// registers created during interpolation. It returns any decoding
// error.
func (m *Machine) Input(ch byte, out *[]byte, pc int) error {
	switch m.st {
	case stateNormal:
		return m.inputNormal(ch, out, pc)
	case stateCaret:
		return m.inputCaret(ch, out)
	case stateCaretQLiteral:
		m.emit(out, ch)
		m.st = stateNormal
		return nil
	case stateCaretE:
		return m.inputCaretE(ch)
	case stateCaretEQ, stateCaretEU:
		return m.inputQRegName(ch, out, pc)
	}
	return ErrSyntax
}

func (m *Machine) inputNormal(ch byte, out *[]byte, pc int) error {
	_ = pc
	switch ch {
	case '[':
		m.braceDepth++
	case ']':
		if m.braceDepth > 0 {
			m.braceDepth--
		}
	case '^':
		m.st = stateCaret
		return nil
	case '\x05': // ^E, the literal control code (not the two-char "^E" spelling)
		m.st = stateCaretE
		return nil
	}
	m.emit(out, ch)
	return nil
}

func (m *Machine) inputCaret(ch byte, out *[]byte) error {
	switch ch {
	case 'Q', 'q', 'R', 'r':
		m.st = stateCaretQLiteral
		return nil
	}
	upper := asciiUpper(ch)
	if upper < '@' || upper > '_' {
		return ErrSyntax
	}
	m.emit(out, upper&0x1F)
	m.st = stateNormal
	return nil
}

func (m *Machine) inputCaretE(ch byte) error {
	switch asciiUpper(ch) {
	case 'Q':
		m.qregMode = 'Q'
		m.st = stateCaretEQ
		m.qregSub = qregspec.New(qregspec.Required, m.log, m.globals, m.locals)
		return nil
	case 'U':
		m.qregMode = 'U'
		m.st = stateCaretEU
		m.qregSub = qregspec.New(qregspec.Required, m.log, m.globals, m.locals)
		return nil
	}
	return ErrSyntax
}

func (m *Machine) inputQRegName(ch byte, out *[]byte, pc int) error {
	done, err := m.qregSub.Input(ch)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}
	reg, _, err := m.qregSub.Result(pc)
	if err != nil {
		return err
	}
	switch m.qregMode {
	case 'Q':
		m.emitBytes(out, reg.GetString())
	case 'U':
		m.emit(out, byte(reg.GetInteger()))
	}
	m.st = stateNormal
	m.qregSub = nil
	return nil
}

func (m *Machine) emit(out *[]byte, b byte) {
	if out == nil {
		return
	}
	*out = append(*out, b)
}

func (m *Machine) emitBytes(out *[]byte, b []byte) {
	if out == nil {
		return
	}
	*out = append(*out, b...)
}

func asciiUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// BraceDepth reports the current nested-brace depth, used by the
// caller to decide whether a delimiter byte actually terminates the
// string or is still inside a balanced bracket pair.
func (m *Machine) BraceDepth() int { return m.braceDepth }

// Idle reports whether the machine is between escapes, i.e. the next
// byte fed to Input will be interpreted as a plain literal or the
// start of a new escape rather than continuing one already begun.
func (m *Machine) Idle() bool { return m.st == stateNormal }
