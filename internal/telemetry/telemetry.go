// Package telemetry wraps zap with the same shape the teacher's own
// slog wrapper uses: a small Handler-like type that owns the output
// writer, a debug toggle, and a mutex protecting the write, so the
// interpreter can log to a file while mirroring to stderr only when
// either debug mode is on or the message is above debug level.
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
package telemetry

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var stderrSync = zapcore.Lock(zapcore.AddSync(os.Stderr))

// Core is a zapcore.Core that writes to an owned file (if any) and
// mirrors to stderr whenever debug is armed or the entry is above
// debug level, matching the teacher's own handler's Handle method.
type Core struct {
	zapcore.LevelEnabler
	enc   zapcore.Encoder
	out   zapcore.WriteSyncer
	mu    *sync.Mutex
	debug *bool
}

// NewCore returns a Core writing encoded entries to file (nil for
// "no file output, stderr only on debug/above-debug").
func NewCore(file io.Writer, debug *bool) *Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug == nil {
		off := false
		debug = &off
	}
	var out zapcore.WriteSyncer
	if file != nil {
		out = zapcore.AddSync(file)
	}
	return &Core{
		LevelEnabler: zapcore.DebugLevel,
		enc:          zapcore.NewConsoleEncoder(cfg),
		out:          out,
		mu:           &sync.Mutex{},
		debug:        debug,
	}
}

func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.enc = c.enc.Clone()
	for _, f := range fields {
		f.AddTo(clone.enc)
	}
	return &clone
}

func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.out != nil {
		if _, err := c.out.Write(buf.Bytes()); err != nil {
			buf.Free()
			return err
		}
	}
	if *c.debug || ent.Level > zapcore.DebugLevel {
		_, err = stderrSync.Write(buf.Bytes())
	}
	buf.Free()
	return err
}

func (c *Core) Sync() error {
	if c.out != nil {
		return c.out.Sync()
	}
	return nil
}

// SetDebug toggles stderr mirroring of debug-level entries.
func (c *Core) SetDebug(debug bool) { *c.debug = debug }

// New returns a *zap.Logger backed by a Core writing to file (nil to
// log only to stderr on debug/above-debug) with debug's initial value.
func New(file io.Writer, debug bool) *zap.Logger {
	d := debug
	return zap.New(NewCore(file, &d))
}
