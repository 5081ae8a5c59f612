// Package qreg implements the Q-Register store (spec C5): named
// integer+string cells with several storage variants dispatched
// through the Register interface, an ordered table per scope (global
// and per-macro locals), and a push/pop save stack.
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
package qreg

import (
	"errors"
	"os"
	"strings"

	"github.com/rcornwell/teco/internal/doc"
	"github.com/rcornwell/teco/internal/expr"
	"github.com/rcornwell/teco/internal/index"
	"github.com/rcornwell/teco/internal/undo"
)

var (
	ErrInvalidRadix       = errors.New("invalid radix")
	ErrUnsupportedOp      = errors.New("operation not supported on this Q-Register")
	ErrStackEmpty         = errors.New("Q-Register stack empty")
	ErrNullInPath         = errors.New("directory contains null character")
	ErrEditingLocal       = errors.New("cannot discard currently edited Q-Register")
)

// Register is the vtable every Q-Register storage kind implements.
// Methods that mutate state take the parser program counter pc so
// that the change can be captured by undo.
type Register interface {
	Name() string
	SetInteger(pc int, v expr.Int) error
	GetInteger() expr.Int
	SetString(pc int, s []byte) error
	AppendString(pc int, s []byte) error
	GetString() []byte
	GetCharacter(position int) int32
	GetLength() int
	ExchangeString(pc int, other *doc.Doc) error
	Load(pc int, filename string) error
	Save(filename string) error
}

// base implements the "plain" storage kind directly (spec C5's
// default register: a doc.Doc for the string part, a scalar for the
// integer part) and is embedded by every other variant, which
// overrides only the methods its semantics differ on.
type base struct {
	name    string
	integer expr.Int
	content *doc.Doc
	log     *undo.Log
}

func newBase(log *undo.Log, name string) base {
	return base{name: name, content: doc.New(log), log: log}
}

func (b *base) Name() string { return b.name }

func (b *base) SetInteger(pc int, v expr.Int) error {
	old := b.integer
	b.log.Push(pc, func(run bool) {
		if run {
			b.integer = old
		}
	})
	b.integer = v
	return nil
}

func (b *base) GetInteger() expr.Int { return b.integer }

func (b *base) SetString(pc int, s []byte) error {
	b.content.SetString(pc, s)
	return nil
}

func (b *base) AppendString(pc int, s []byte) error {
	b.content.AppendString(pc, s)
	return nil
}

func (b *base) GetString() []byte { return b.content.Bytes() }

func (b *base) GetCharacter(position int) int32 { return b.content.GetCharacter(position) }

func (b *base) GetLength() int { return b.content.GlyphLen() }

func (b *base) ExchangeString(pc int, other *doc.Doc) error {
	b.content.ExchangeString(pc, other)
	return nil
}

func (b *base) Load(pc int, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return b.SetString(pc, data)
}

func (b *base) Save(filename string) error {
	return os.WriteFile(filename, b.content.Bytes(), 0o644)
}

// Plain is a general-purpose Q-Register (A-Z, 0-9, and any
// user-defined name): the unmodified base behavior.
type Plain struct{ base }

// NewPlain creates a general-purpose register named name.
func NewPlain(log *undo.Log, name string) *Plain {
	return &Plain{base: newBase(log, name)}
}

// CursorView is the minimal surface the dot (":") register needs from
// whatever document currently has focus; the interpreter context
// supplies the live implementation (spec §9's "current buffer").
type CursorView interface {
	Dot() int
	SetDot(pc int, pos int) bool
}

// Dot is the ":" Q-Register: its integer cell is an alias for the
// currently edited document's cursor position.
type Dot struct {
	base
	view CursorView
}

// NewDot creates the ":" register bound to view. view may be replaced
// later via Rebind when the edited document changes.
func NewDot(log *undo.Log, view CursorView) *Dot {
	return &Dot{base: newBase(log, ":"), view: view}
}

// Rebind retargets the register at a newly focused document.
func (d *Dot) Rebind(view CursorView) { d.view = view }

func (d *Dot) SetInteger(pc int, v expr.Int) error {
	if !d.view.SetDot(pc, int(v)) {
		return errors.New(`attempt to move pointer off page when setting Q-Register ":"`)
	}
	return nil
}

func (d *Dot) GetInteger() expr.Int { return expr.Int(d.view.Dot()) }

// Radix is the "^R" Q-Register: its integer cell is the current
// number base used by string<->integer conversions, defaulting to 10.
type Radix struct{ base }

// NewRadix creates the "^R" register, defaulting to base 10.
func NewRadix(log *undo.Log) *Radix {
	r := &Radix{base: newBase(log, "\x12")}
	r.integer = 10
	return r
}

func (r *Radix) SetInteger(pc int, v expr.Int) error {
	if v < 2 {
		return ErrInvalidRadix
	}
	return r.base.SetInteger(pc, v)
}

// BufferSwitcher is the host hook the "*" register uses to switch the
// edited buffer by number and report the current one (spec C1's
// buffer ring, outside this package).
type BufferSwitcher interface {
	EditBufferID(pc int, id expr.Int) error
	CurrentBufferID() expr.Int
	CurrentBufferPath() string
}

// BufferInfo is the "*" Q-Register: reading/writing its integer cell
// switches buffers by ring position; its string cell is the current
// buffer's normalized path and is read-only.
type BufferInfo struct {
	base
	ring BufferSwitcher
}

// NewBufferInfo creates the "*" register bound to ring.
func NewBufferInfo(log *undo.Log, ring BufferSwitcher) *BufferInfo {
	return &BufferInfo{base: newBase(log, "*"), ring: ring}
}

func (b *BufferInfo) SetInteger(pc int, v expr.Int) error { return b.ring.EditBufferID(pc, v) }
func (b *BufferInfo) GetInteger() expr.Int                { return b.ring.CurrentBufferID() }
func (b *BufferInfo) GetString() []byte                   { return []byte(normalizePath(b.ring.CurrentBufferPath())) }
func (b *BufferInfo) GetLength() int                      { return len([]rune(b.ring.CurrentBufferPath())) }
func (b *BufferInfo) SetString(int, []byte) error         { return ErrUnsupportedOp }
func (b *BufferInfo) AppendString(int, []byte) error      { return ErrUnsupportedOp }

func normalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// WorkingDir is the "$" Q-Register: its string cell is the process's
// current working directory; setting it chdirs.
type WorkingDir struct{ base }

// NewWorkingDir creates the "$" register.
func NewWorkingDir(log *undo.Log) *WorkingDir {
	return &WorkingDir{base: newBase(log, "$")}
}

func (w *WorkingDir) SetString(pc int, s []byte) error {
	if strings.IndexByte(string(s), 0) >= 0 {
		return ErrNullInPath
	}
	old, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(string(s)); err != nil {
		return err
	}
	w.log.Push(pc, func(run bool) {
		if run {
			_ = os.Chdir(old)
		}
	})
	return nil
}

func (w *WorkingDir) GetString() []byte {
	dir, err := os.Getwd()
	if err != nil {
		return nil
	}
	return []byte(normalizePath(dir))
}

func (w *WorkingDir) AppendString(int, []byte) error { return ErrUnsupportedOp }

// Clipboard is the host hook the "~" registers use to reach the
// system clipboard (spec C5's "host facades", backed by internal/host).
type Clipboard interface {
	Get(name string) ([]byte, error)
	Set(name string, data []byte) error
}

// ClipboardReg is a "~" Q-Register: "~" alone is the default
// clipboard, "~X" addresses clipboard slot X.
type ClipboardReg struct {
	base
	board Clipboard
	slot  string
}

// NewClipboard creates a "~"-family register for slot (empty for the
// default, or a single selector character such as "C"/"P").
func NewClipboard(log *undo.Log, board Clipboard, slot string) *ClipboardReg {
	name := "~" + slot
	c := &ClipboardReg{base: newBase(log, name), board: board, slot: slot}
	if slot == "" {
		c.integer = 'C'
	}
	return c
}

func (c *ClipboardReg) clipboardName() string {
	if c.slot != "" {
		return c.slot
	}
	return string(rune(c.integer))
}

func (c *ClipboardReg) SetString(pc int, s []byte) error {
	old, err := c.board.Get(c.clipboardName())
	if err == nil {
		c.log.Push(pc, func(run bool) {
			if run {
				_ = c.board.Set(c.clipboardName(), old)
			}
		})
	}
	return c.board.Set(c.clipboardName(), s)
}

func (c *ClipboardReg) AppendString(pc int, s []byte) error {
	if len(s) == 0 {
		return nil
	}
	cur, err := c.board.Get(c.clipboardName())
	if err != nil {
		cur = nil
	}
	return c.SetString(pc, append(cur, s...))
}

func (c *ClipboardReg) GetString() []byte {
	data, err := c.board.Get(c.clipboardName())
	if err != nil {
		return nil
	}
	return data
}

func (c *ClipboardReg) GetLength() int { return len([]rune(string(c.GetString()))) }

func (c *ClipboardReg) GetCharacter(position int) int32 {
	runes := []rune(string(c.GetString()))
	if position < 0 || position >= len(runes) {
		return -1
	}
	return runes[position]
}

func (c *ClipboardReg) Load(pc int, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return c.SetString(pc, data)
}

// Table is an ordered set of Q-Registers, used both for the global
// table and for each macro invocation's local table.
type Table struct {
	entries  *index.Index[Register]
	locals   bool
	mustUndo bool
	log      *undo.Log
	Radix    *Radix
}

// NewGlobalTable creates the register table used for the lifetime of
// the interpreter: registers A-Z and 0-9, undo-tracked.
func NewGlobalTable(log *undo.Log) *Table {
	t := &Table{entries: index.New[Register](false), mustUndo: true, log: log}
	t.populateGeneralPurpose()
	t.entries.Insert("_", NewPlain(log, "_"))
	return t
}

// NewLocalTable creates a macro invocation's local register table:
// A-Z, 0-9, the search-mode register ("^X") and a private radix
// register ("^R"), not undo-tracked (locals vanish with the frame).
func NewLocalTable(log *undo.Log) *Table {
	t := &Table{entries: index.New[Register](false), locals: true, log: log}
	t.populateGeneralPurpose()
	t.entries.Insert("\x18", NewPlain(log, "\x18"))
	t.Radix = NewRadix(log)
	t.entries.Insert(t.Radix.name, t.Radix)
	return t
}

func (t *Table) populateGeneralPurpose() {
	for c := byte('A'); c <= 'Z'; c++ {
		name := string(c)
		t.entries.Insert(name, NewPlain(t.log, name))
	}
	for c := byte('0'); c <= '9'; c++ {
		name := string(c)
		t.entries.Insert(name, NewPlain(t.log, name))
	}
}

// Find returns the register named name, or nil.
func (t *Table) Find(name string) Register {
	r, ok := t.entries.Find(name)
	if !ok {
		return nil
	}
	return r
}

// Insert adds reg if its name is not already present, reporting
// whether the insert happened.
func (t *Table) Insert(reg Register) bool {
	return t.entries.Insert(reg.Name(), reg)
}

// InsertWithUndo inserts reg and records an undo token at pc that
// removes it again on rollback — the "OPTIONAL_INIT" Q-Register spec
// mode (spec C8): the register must exist for the remainder of this
// command but never outlives the command that created it if rubbed
// out.
func (t *Table) InsertWithUndo(pc int, reg Register) bool {
	if !t.entries.Insert(reg.Name(), reg) {
		return false
	}
	name := reg.Name()
	t.log.Push(pc, func(run bool) {
		if run {
			t.entries.Unlink(name)
		}
	})
	return true
}

// InsertOrGet inserts reg if absent, or returns the existing register
// under that name otherwise (single-assignment semantics for the
// "optional-init" Q-Register spec, spec C8).
func (t *Table) InsertOrGet(reg Register) Register {
	if existing := t.Find(reg.Name()); existing != nil {
		return existing
	}
	t.Insert(reg)
	return reg
}

// Remove deletes the register named name, recording undo at pc if the
// table is undo-tracked.
func (t *Table) Remove(pc int, name string) bool {
	reg, ok := t.entries.Find(name)
	if !ok {
		return false
	}
	t.entries.Unlink(name)
	if t.mustUndo {
		t.log.Push(pc, func(run bool) {
			if run {
				t.entries.Insert(name, reg)
			}
		})
	}
	return true
}

// Each iterates registers in ascending name order.
func (t *Table) Each(fn func(Register) bool) {
	t.entries.Each(func(_ string, r Register) bool { return fn(r) })
}

// AutoComplete delegates to the underlying index (spec §4.2), used by
// the Q-Register spec sub-machine for "[" completion.
func (t *Table) AutoComplete(prefix string, restrictLen int) (insert string, candidates []string, ok bool) {
	return t.entries.AutoComplete(prefix, restrictLen)
}

// Empty discards every register except keep (normally the currently
// edited one, which the original forbids discarding). It returns an
// error without the table guaranteed intact if keep is encountered.
func (t *Table) Empty(keep Register) error {
	var names []string
	t.Each(func(r Register) bool {
		names = append(names, r.Name())
		return true
	})
	for _, name := range names {
		reg := t.Find(name)
		if reg == keep {
			return ErrEditingLocal
		}
		t.entries.Unlink(name)
	}
	return nil
}

// SetEnviron creates or overwrites one "$NAME" register per entry of
// env (in os.Environ() form, "NAME=VALUE"). Only safe at startup, to
// mirror the original's own caveat.
func (t *Table) SetEnviron(pc int, env []string) error {
	for _, kv := range env {
		i := strings.IndexByte(kv, '=')
		if i < 0 {
			continue
		}
		name, value := "$"+kv[:i], kv[i+1:]
		reg := t.Find(name)
		if reg == nil {
			reg = NewPlain(t.log, name)
			t.Insert(reg)
		}
		if err := reg.SetString(pc, []byte(value)); err != nil {
			return err
		}
	}
	return nil
}

// Environ exports every "$NAME" register (other than "$" itself) as
// an os.Environ()-compatible "NAME=VALUE" string.
func (t *Table) Environ() ([]string, error) {
	var out []string
	var err error
	t.Each(func(r Register) bool {
		name := r.Name()
		if len(name) < 2 || name[0] != '$' {
			return true
		}
		value := r.GetString()
		if strings.IndexByte(string(value), 0) >= 0 {
			err = errors.New(`environment register "` + name + `" must not contain null characters`)
			return false
		}
		out = append(out, name[1:]+"="+string(value))
		return true
	})
	return out, err
}

// stackEntry is one saved register's state (spec C5's push/pop stack).
type stackEntry struct {
	integer expr.Int
	content *doc.Doc
}

// Stack is the Q-Register push/pop save area ("[Q" / "]Q").
type Stack struct {
	entries []stackEntry
	log     *undo.Log
}

// NewStack returns an empty Q-Register stack.
func NewStack(log *undo.Log) *Stack {
	return &Stack{log: log}
}

// Push saves reg's current integer and string onto the stack.
func (s *Stack) Push(pc int, reg Register) error {
	content := doc.New(s.log)
	content.SetString(pc, reg.GetString())
	s.entries = append(s.entries, stackEntry{integer: reg.GetInteger(), content: content})
	idx := len(s.entries) - 1
	s.log.Push(pc, func(run bool) {
		if run {
			s.entries = s.entries[:idx]
		}
	})
	return nil
}

// Pop restores reg's integer and string from the top of the stack.
func (s *Stack) Pop(pc int, reg Register) error {
	if len(s.entries) == 0 {
		return ErrStackEmpty
	}
	entry := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]

	oldInt := reg.GetInteger()
	if err := reg.SetInteger(pc, entry.integer); err != nil {
		return err
	}
	if err := reg.ExchangeString(pc, entry.content); err != nil {
		_ = reg.SetInteger(pc, oldInt)
		return err
	}

	restored := entry
	s.log.Push(pc, func(run bool) {
		if run {
			s.entries = append(s.entries, restored)
		}
	})
	return nil
}

// Len reports the number of saved entries.
func (s *Stack) Len() int { return len(s.entries) }
