// Package host implements the external interfaces spec §6 describes
// as owned by the host environment: clipboard storage for the "~"
// Q-Registers, a filesystem facade for path expansion/normalization
// and glob detection, and an environment-variable facade for the
// "$NAME" registers.
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
package host

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	homedir "github.com/mitchellh/go-homedir"
)

// ErrNullByteInPath is returned by any filesystem facade call whose
// path argument contains a NUL byte (Open Questions: treated as an
// explicit rejection rather than an inefficient byte scan elsewhere).
var ErrNullByteInPath = errors.New("host: null byte in path")

// Board is an in-memory clipboard, addressable by single-letter slot
// (spec's "~P", "~C", "~S", …) plus the unlabelled default slot. It
// satisfies internal/qreg's Clipboard interface. A real desktop build
// can swap in an OS-backed implementation behind the same interface;
// Board is the one a headless/CLI build always has available.
type Board struct {
	mu  sync.Mutex
	reg map[string][]byte
}

// NewBoard returns an empty clipboard.
func NewBoard() *Board {
	return &Board{reg: make(map[string][]byte)}
}

func (b *Board) Get(name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.reg[name]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (b *Board) Set(name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reg[name] = append([]byte(nil), data...)
	return nil
}

// ExpandPath expands a leading "~" to the current user's home
// directory and cleans the result, matching spec §6's expand_path.
// A leading "~user" form is not expanded; it returns an error.
func ExpandPath(path string) (string, error) {
	if strings.IndexByte(path, 0) >= 0 {
		return "", ErrNullByteInPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}

// NormalizePath rewrites backslashes to forward slashes, the form
// Q-Register string cells (spec §6's file_normalize_path) present
// paths in regardless of host OS.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// DirnameLen returns the length of the directory portion of path,
// including its trailing separator, matching spec §6's
// file_get_dirname_len (used to split a path argument into the
// directory to search and the filename prefix to complete).
func DirnameLen(path string) int {
	return len(path) - len(filepath.Base(path))
}

// IsVisible reports whether path names an entry a directory listing
// should show: spec §6's file_is_visible, which on this platform
// means "does not start with a dot".
func IsVisible(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".")
}

// IsPattern reports whether path contains glob metacharacters
// ("*", "?", "[") that ReadDirMatch should expand rather than treat
// as a literal filename (spec §6's is_pattern).
func IsPattern(path string) bool {
	return strings.ContainsAny(path, "*?[")
}

// ReadDirMatch lists the visible entries of dir whose base name
// matches pattern (a glob pattern when IsPattern(pattern) is true,
// otherwise an exact name). Used by the directory-enumeration
// facade spec §6 names without fixing a library.
func ReadDirMatch(dir, pattern string) ([]string, error) {
	if strings.IndexByte(dir, 0) >= 0 || strings.IndexByte(pattern, 0) >= 0 {
		return nil, ErrNullByteInPath
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var g glob.Glob
	if IsPattern(pattern) {
		g, err = glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !IsVisible(name) {
			continue
		}
		switch {
		case g != nil:
			if g.Match(name) {
				out = append(out, name)
			}
		case name == pattern:
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Environ returns the process environment in os.Environ() form, the
// source SetEnviron below imports from at startup.
func Environ() []string {
	return os.Environ()
}

// SetEnviron applies a "NAME=VALUE" entry to the process environment
// (spec §6's set_environ). A leading "=" in name, a historical
// Windows artifact of some pseudo-variables, is stripped first.
func SetEnviron(entry string) error {
	name, value, ok := strings.Cut(strings.TrimPrefix(entry, "="), "=")
	if !ok {
		return nil
	}
	if name == "" {
		return nil
	}
	return os.Setenv(name, value)
}
