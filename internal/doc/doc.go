// Package doc implements the editable byte buffer shared by buffers
// and plain Q-Registers (spec C1/C5): a byte slice with an undo log
// for set/append/exchange, and rune-indexed character access.
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
package doc

import (
	"unicode/utf8"

	"github.com/rcornwell/teco/internal/undo"
)

// Doc holds a document's byte content plus its dot (cursor glyph
// position, cached in bytes for fast GOTOPOS-style moves).
type Doc struct {
	data   []byte
	dotPos int
	log    *undo.Log
}

// New returns an empty Doc backed by log for undo recording.
func New(log *undo.Log) *Doc {
	return &Doc{log: log}
}

// Len returns the byte length of the content.
func (d *Doc) Len() int {
	return len(d.data)
}

// GlyphLen returns the number of runes (TECO "characters") in the content.
func (d *Doc) GlyphLen() int {
	return utf8.RuneCount(d.data)
}

// Bytes returns the raw content. The caller must not retain or mutate
// the returned slice across a SetString/AppendString call.
func (d *Doc) Bytes() []byte {
	return d.data
}

// SetString replaces the content, recording undo at pc.
func (d *Doc) SetString(pc int, s []byte) {
	old := d.data
	oldDot := d.dotPos
	d.log.Push(pc, func(run bool) {
		if run {
			d.data = old
			d.dotPos = oldDot
		}
	})
	d.data = append([]byte(nil), s...)
	if d.dotPos > len(d.data) {
		d.dotPos = len(d.data)
	}
}

// AppendString appends s to the content, preserving dot, recording
// undo at pc. A no-op append (empty s) records no token, matching the
// teacher's "will not create undo action if string is empty" rule.
func (d *Doc) AppendString(pc int, s []byte) {
	if len(s) == 0 {
		return
	}
	oldLen := len(d.data)
	d.log.Push(pc, func(run bool) {
		if run {
			d.data = d.data[:oldLen]
		}
	})
	d.data = append(d.data, s...)
}

// InsertAtDot splices s into the content at the current dot and
// advances dot past the inserted bytes, recording undo at pc. A no-op
// insert (empty s) records no token, matching AppendString's rule.
func (d *Doc) InsertAtDot(pc int, s []byte) {
	if len(s) == 0 {
		return
	}
	old := d.data
	oldDot := d.dotPos
	d.log.Push(pc, func(run bool) {
		if run {
			d.data = old
			d.dotPos = oldDot
		}
	})
	merged := make([]byte, 0, len(old)+len(s))
	merged = append(merged, old[:oldDot]...)
	merged = append(merged, s...)
	merged = append(merged, old[oldDot:]...)
	d.data = merged
	d.dotPos = oldDot + len(s)
}

// ExchangeString swaps this Doc's content with other's, recording undo
// for both sides at pc.
func (d *Doc) ExchangeString(pc int, other *Doc) {
	oldSelf, oldOther := d.data, other.data
	d.log.Push(pc, func(run bool) {
		if run {
			d.data = oldSelf
		}
	})
	other.log.Push(pc, func(run bool) {
		if run {
			other.data = oldOther
		}
	})
	d.data, other.data = other.data, d.data
}

// Dot returns the current glyph-offset cursor position.
func (d *Doc) Dot() int {
	return byteOffsetToGlyph(d.data, d.dotPos)
}

// DotByteOffset returns the cursor's raw byte offset, for callers
// (search) that need to slice Bytes() directly rather than walk
// glyphs.
func (d *Doc) DotByteOffset() int {
	return d.dotPos
}

// BytesFromDot returns the content from the current dot to the end.
// The caller must not retain the slice across a mutating call.
func (d *Doc) BytesFromDot() []byte {
	return d.data[d.dotPos:]
}

// SetDotByteOffset moves the cursor to an absolute byte offset,
// bypassing glyph conversion (used after a regexp match, which
// reports byte offsets). It reports false if offset is out of range.
func (d *Doc) SetDotByteOffset(pc int, offset int) bool {
	if offset < 0 || offset > len(d.data) {
		return false
	}
	old := d.dotPos
	d.log.Push(pc, func(run bool) {
		if run {
			d.dotPos = old
		}
	})
	d.dotPos = offset
	return true
}

// SetDot moves the cursor to glyph position pos, recording undo at
// pc. It reports false if pos is out of range (spec: "Attempt to move
// pointer off page").
func (d *Doc) SetDot(pc int, pos int) bool {
	offset := glyphToByteOffset(d.data, pos)
	if offset < 0 {
		return false
	}
	old := d.dotPos
	d.log.Push(pc, func(run bool) {
		if run {
			d.dotPos = old
		}
	})
	d.dotPos = offset
	return true
}

// GetCharacter returns the rune at glyph position, or -1 if position
// is out of range (spec §4.5 edge case for Q-Register get-character).
func (d *Doc) GetCharacter(position int) int32 {
	offset := glyphToByteOffset(d.data, position)
	if offset < 0 || offset == len(d.data) {
		return -1
	}
	r, _ := utf8.DecodeRune(d.data[offset:])
	return r
}

func glyphToByteOffset(data []byte, glyph int) int {
	if glyph < 0 {
		return -1
	}
	offset := 0
	for i := 0; i < glyph; i++ {
		if offset >= len(data) {
			return -1
		}
		_, size := utf8.DecodeRune(data[offset:])
		offset += size
	}
	if offset > len(data) {
		return -1
	}
	return offset
}

func byteOffsetToGlyph(data []byte, offset int) int {
	n := 0
	for i := 0; i < offset && i < len(data); {
		_, size := utf8.DecodeRune(data[i:])
		i += size
		n++
	}
	return n
}
