// Package interp wires the leaf components (C1-C11, the document,
// and the host facades) into one interpreter: the buffer ring, the
// registration of the host-backed Q-Registers ("*", "$", "~",
// "$NAME"), and the top-level Keypress/Load/Save entry points the CLI
// drives.
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
package interp

import (
	"errors"
	"os"

	"github.com/rcornwell/teco/internal/doc"
	"github.com/rcornwell/teco/internal/expr"
	"github.com/rcornwell/teco/internal/parser"
	"github.com/rcornwell/teco/internal/undo"
)

// ErrNoSuchBuffer is returned by EditBufferID for an out-of-range ring position.
var ErrNoSuchBuffer = errors.New("interp: no such buffer")

// slot is one unmounted buffer's parked state: its content and its
// cursor, written back when the slot stops being the mounted buffer.
type slot struct {
	path string
	data []byte
	dot  int
}

// Ring is the "*" Q-Register's host hook (qreg.BufferSwitcher): it
// holds every open buffer, exactly one of which is "mounted" into the
// shared Doc at any time (spec §5's shared-resource policy). Switching
// buffers parks the outgoing one's content/cursor into its slot,
// swaps in the target slot's content/cursor, and pushes an undo token
// that reverses the whole switch.
type Ring struct {
	log    *undo.Log
	buffer *doc.Doc
	slots  []slot
	cur    int
	ctx    *parser.Context
}

// NewRing creates a ring with a single, unnamed initial buffer
// mounted into buffer.
func NewRing(log *undo.Log, buffer *doc.Doc) *Ring {
	return &Ring{log: log, buffer: buffer, slots: []slot{{}}}
}

// SetContext wires ctx in for ED-hook invocation (spec §4.4): Load and
// EditBufferID fire the ADD/EDIT hooks after a successful switch. The
// ring is constructed before the context that mounts it, so this is a
// separate step rather than a constructor argument.
func (r *Ring) SetContext(ctx *parser.Context) { r.ctx = ctx }

func (r *Ring) runHook(hookType expr.Int) error {
	if r.ctx == nil {
		return nil
	}
	return r.ctx.RunEDHook(hookType)
}

// Open appends a new empty buffer named path to the ring without
// switching to it.
func (r *Ring) Open(path string) {
	r.slots = append(r.slots, slot{path: path})
}

// CurrentBufferID implements qreg.BufferSwitcher.
func (r *Ring) CurrentBufferID() expr.Int { return expr.Int(r.cur) }

// CurrentBufferPath implements qreg.BufferSwitcher.
func (r *Ring) CurrentBufferPath() string { return r.slots[r.cur].path }

// EditBufferID implements qreg.BufferSwitcher: mounts the buffer at
// ring position id, parking the currently mounted one's content and
// cursor into its own slot first.
func (r *Ring) EditBufferID(pc int, id expr.Int) error {
	target := int(id)
	if target < 0 || target >= len(r.slots) {
		return ErrNoSuchBuffer
	}
	if target == r.cur {
		return nil
	}

	oldCur := r.cur
	oldSlotData := r.slots[oldCur].data
	oldSlotDot := r.slots[oldCur].dot
	oldMounted := r.buffer.Bytes()
	oldDot := r.buffer.Dot()

	r.log.Push(pc, func(run bool) {
		if run {
			r.slots[oldCur].data = oldSlotData
			r.slots[oldCur].dot = oldSlotDot
			r.buffer.SetString(pc, oldMounted)
			r.buffer.SetDot(pc, oldDot)
			r.cur = oldCur
		}
	})

	r.slots[oldCur].data = append([]byte(nil), oldMounted...)
	r.slots[oldCur].dot = oldDot

	incoming := r.slots[target]
	r.buffer.SetString(pc, incoming.data)
	r.buffer.SetDot(pc, incoming.dot)
	r.cur = target
	return r.runHook(parser.HookEdit)
}

// Load reads path into a new buffer slot and mounts it, matching
// spec's "loader must register its undo token before starting the
// I/O" rule: the undo token that re-mounts the previous buffer is
// pushed before the file read, so a failed read still leaves the undo
// log consistent with "nothing happened".
func (r *Ring) Load(pc int, path string) error {
	oldCur := r.cur
	oldData := append([]byte(nil), r.buffer.Bytes()...)
	oldDot := r.buffer.Dot()
	oldLen := len(r.slots)

	r.log.Push(pc, func(run bool) {
		if run {
			r.slots = r.slots[:oldLen]
			r.buffer.SetString(pc, oldData)
			r.buffer.SetDot(pc, oldDot)
			r.cur = oldCur
		}
	})

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	r.slots[oldCur].data = oldData
	r.slots[oldCur].dot = oldDot
	r.slots = append(r.slots, slot{path: path})
	r.cur = len(r.slots) - 1
	r.buffer.SetString(pc, data)
	return r.runHook(parser.HookAdd)
}

// Save writes the mounted buffer's content to path.
func (r *Ring) Save(path string) error {
	return os.WriteFile(path, r.buffer.Bytes(), 0o644)
}
