// Package tty puts a terminal into raw, byte-at-a-time mode so every
// keystroke (including the control codes the command-line loop (C10)
// intercepts for rub-out/re-insert) reaches the interpreter
// immediately, rather than only at end-of-line the way a line-buffered
// reader would deliver it.
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
package tty

import (
	"os"

	"golang.org/x/sys/unix"
)

// Raw puts fd into cbreak mode (no line buffering, no local echo,
// signals still generated on ^C/^Z) and returns a Restore func that
// puts the original settings back; callers defer Restore immediately.
func Raw(fd int) (restore func() error, err error) {
	orig, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}

	raw := *orig
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	raw.Iflag &^= unix.IXON | unix.ICRNL | unix.BRKINT | unix.INPCK | unix.ISTRIP
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return nil, err
	}
	return func() error {
		return unix.IoctlSetTermios(fd, ioctlSetTermios, orig)
	}, nil
}

// Reader reads one byte at a time from a raw-mode file descriptor.
type Reader struct {
	f *os.File
}

// NewReader wraps f (typically os.Stdin, already put in raw mode via
// Raw) for byte-at-a-time reads.
func NewReader(f *os.File) *Reader { return &Reader{f: f} }

// ReadByte blocks for the next keystroke.
func (r *Reader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := r.f.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
