// Package qregspec implements the Q-Register name sub-machine (spec
// C8): parses one register specification — a single letter, a `.`
// local-table prefix, a `^X` control letter, a `#XY` two-letter name,
// or a `[name]` bracketed name — and resolves it against a local or
// global table. A bracketed name is taken byte for byte as typed;
// string-building escapes inside it are not interpreted.
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
package qregspec

import (
	"errors"

	"github.com/rcornwell/teco/internal/qreg"
	"github.com/rcornwell/teco/internal/undo"
)

// Mode selects how a parsed name is resolved against its table.
type Mode int

const (
	// Required fails if the name is not already registered.
	Required Mode = iota
	// Optional returns a nil register without error if absent.
	Optional
	// OptionalInit creates a plain register with the parsed name if
	// absent, recording an undo token for its removal.
	OptionalInit
)

var (
	ErrSyntax   = errors.New("invalid Q-Register name syntax")
	ErrNotFound = errors.New("Q-Register not found")
)

type state int

const (
	stateStart state = iota
	stateCaret
	stateFirstChar
	stateSecondChar
	stateBracket
	stateDone
)

// Machine is a one-character-at-a-time Q-Register name parser. Each
// instance parses exactly one spec; create a fresh Machine per spec.
type Machine struct {
	mode   Mode
	st     state
	name   []byte
	nest   int
	log    *undo.Log
	locals *qreg.Table
	table  *qreg.Table
}

// New returns a Machine resolving against globals by default (or
// locals immediately, if the spec begins with "."). log backs any
// register the machine creates in OptionalInit mode.
func New(mode Mode, log *undo.Log, globals, locals *qreg.Table) *Machine {
	return &Machine{mode: mode, log: log, table: globals, locals: locals}
}

// Input feeds one byte to the machine. It returns true once the spec
// is complete, at which point Result may be called. Feeding more
// bytes after Input has returned true is an error from the caller.
func (m *Machine) Input(ch byte) (done bool, err error) {
	switch m.st {
	case stateStart:
		return m.inputStart(ch)
	case stateCaret:
		return m.inputCaret(ch)
	case stateFirstChar:
		m.name = append(m.name, asciiUpper(ch))
		m.st = stateSecondChar
		return false, nil
	case stateSecondChar:
		m.name = append(m.name, asciiUpper(ch))
		m.st = stateDone
		return true, nil
	case stateBracket:
		return m.inputBracket(ch)
	}
	return false, ErrSyntax
}

func (m *Machine) inputStart(ch byte) (bool, error) {
	if ch == '.' && m.locals != nil {
		m.table = m.locals
		return false, nil
	}
	switch ch {
	case '^':
		m.st = stateCaret
		return false, nil
	case '#':
		m.st = stateFirstChar
		return false, nil
	case '[':
		m.nest = 1
		m.st = stateBracket
		return false, nil
	}
	m.name = append(m.name, asciiUpper(ch))
	m.st = stateDone
	return true, nil
}

func (m *Machine) inputCaret(ch byte) (bool, error) {
	upper := asciiUpper(ch)
	if upper < '@' || upper > '_' {
		return false, ErrSyntax
	}
	m.name = append(m.name, upper&0x1F)
	m.st = stateDone
	return true, nil
}

func (m *Machine) inputBracket(ch byte) (bool, error) {
	switch ch {
	case '[':
		m.nest++
	case ']':
		m.nest--
		if m.nest == 0 {
			m.st = stateDone
			return true, nil
		}
	}
	m.name = append(m.name, ch)
	return false, nil
}

func asciiUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// RestrictLen reports the candidate-name length cap auto-completion
// should apply in the machine's current state (spec §4.7): one byte
// while still choosing between single-letter/`^`/`#`/`[` forms, two
// bytes mid-`#XY`, unrestricted once inside a bracketed name.
func (m *Machine) RestrictLen() int {
	switch m.st {
	case stateStart, stateCaret:
		return 1
	case stateFirstChar, stateSecondChar:
		return 2
	default:
		return 0
	}
}

// Table returns the table the spec is currently resolving against
// (useful for auto-completion before the spec is Done).
func (m *Machine) Table() *qreg.Table {
	if m.table != nil {
		return m.table
	}
	return m.locals
}

// Name returns the bytes parsed so far.
func (m *Machine) Name() string { return string(m.name) }

// Result resolves the parsed name against the selected table per
// Mode. reg is nil if Optional and the name is absent.
func (m *Machine) Result(pc int) (reg qreg.Register, table *qreg.Table, err error) {
	table = m.table
	name := string(m.name)
	found := table.Find(name)

	switch m.mode {
	case Required:
		if found == nil {
			return nil, table, ErrNotFound
		}
		return found, table, nil

	case Optional:
		return found, table, nil

	case OptionalInit:
		if found != nil {
			return found, table, nil
		}
		fresh := qreg.NewPlain(m.log, name)
		table.InsertWithUndo(pc, fresh)
		return fresh, table, nil

	default:
		return nil, table, ErrSyntax
	}
}
