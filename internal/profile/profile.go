// Package profile loads the startup profile (spec's "CLI flag
// parsing and startup profile loading", an out-of-scope external
// collaborator that the interpreter still needs a boot-time
// implementation of): a declarative file consumed once into a typed
// struct, the same shape the teacher's own config loader uses for
// its device configuration file, adapted here from a line-oriented
// grammar to TOML.
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
package profile

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Profile is the startup configuration read once at launch, before
// the command-line loop (C10) starts accepting keystrokes.
type Profile struct {
	// Radix is the initial numeric radix (spec C5's Radix register),
	// 8, 10, or 16. Zero means "leave the built-in default (10)".
	Radix int `toml:"radix"`

	// StartupMacro is TECO source executed once at launch, before the
	// first interactive command line (e.g. to load a file named on
	// the command line or restore a session).
	StartupMacro string `toml:"startup_macro"`

	// HistoryFile is the path liner uses to persist command-line
	// recall across sessions, consumed by cmd/teco.
	HistoryFile string `toml:"history_file"`

	// WomanpagePath is the directory internal/woman searches for
	// ".woman"/".woman.tec" files.
	WomanpagePath string `toml:"womanpage_path"`

	// LogFile is where internal/telemetry writes structured log
	// entries; empty disables file logging.
	LogFile string `toml:"log_file"`

	// Debug arms stderr mirroring of debug-level log entries.
	Debug bool `toml:"debug"`
}

// Default returns the profile used when no file is found.
func Default() Profile {
	return Profile{Radix: 10}
}

// Load reads and decodes the profile at path. A missing file is not
// an error: Default() is returned instead, since a startup profile is
// always optional.
func Load(path string) (Profile, error) {
	p := Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, err
	}
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return p, err
	}
	return p, nil
}
