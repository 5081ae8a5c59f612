// Package strx implements an 8-bit-clean byte string type. The other
// packages of this module do not import it; they work on []byte
// directly.
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
package strx

import (
	"bytes"

	"github.com/mattn/go-runewidth"
)

// String is an 8-bit-clean byte buffer. The zero value is a valid
// empty string. Unlike a plain []byte, callers may rely on the data
// never containing a stray nil backing array.
type String struct {
	data []byte
}

// New builds a String from an existing byte slice, copying it.
func New(b []byte) String {
	s := String{}
	s.Append(b)
	return s
}

// NewString builds a String from a Go string.
func NewString(str string) String {
	return New([]byte(str))
}

// Len returns the number of bytes stored.
func (s *String) Len() int {
	return len(s.data)
}

// Bytes returns the underlying bytes. Callers must not retain or
// mutate the slice across further String operations.
func (s *String) Bytes() []byte {
	if s.data == nil {
		return []byte{}
	}
	return s.data
}

// String renders the byte string as a Go string.
func (s *String) String() string {
	return string(s.Bytes())
}

// Append adds bytes to the end, reallocating if needed.
func (s *String) Append(b []byte) {
	if len(b) == 0 {
		return
	}
	s.data = append(s.data, b...)
}

// AppendByte appends a single byte.
func (s *String) AppendByte(b byte) {
	s.data = append(s.data, b)
}

// Truncate shrinks the string to the first n bytes. It is a no-op if
// n >= Len().
func (s *String) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(s.data) {
		return
	}
	s.data = s.data[:n]
}

// Clone returns an independent copy.
func (s *String) Clone() String {
	return New(s.Bytes())
}

func asciiLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// CommonPrefixLen returns the length of the longest common prefix of
// s and other. If fold is true the comparison is ASCII-case-insensitive.
func (s *String) CommonPrefixLen(other *String, fold bool) int {
	a, b := s.Bytes(), other.Bytes()
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ac, bc := a[i], b[i]
		if fold {
			ac, bc = asciiLower(ac), asciiLower(bc)
		}
		if ac != bc {
			return i
		}
	}
	return n
}

// Compare returns -1, 0 or 1 the way bytes.Compare does.
func (s *String) Compare(other *String) int {
	return bytes.Compare(s.Bytes(), other.Bytes())
}

// DisplayWidth returns the terminal column width of the string,
// accounting for double-width and zero-width runes.
func (s *String) DisplayWidth() int {
	return runewidth.StringWidth(s.String())
}
