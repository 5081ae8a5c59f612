/*
 * teco - Command-line entry point.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Command teco is the interactive console: it puts the terminal into
// raw mode, feeds stdin to the interpreter one byte at a time, and
// echoes the short banner/message the command-line loop reports back.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/rcornwell/teco/internal/interp"
	"github.com/rcornwell/teco/internal/profile"
	"github.com/rcornwell/teco/internal/telemetry"
	"github.com/rcornwell/teco/internal/tty"
)

// stdoutPrinter is the "=" command's host hook: it writes straight to
// stdout, since the raw terminal has no echo of its own.
type stdoutPrinter struct{}

func (stdoutPrinter) Print(s string) { fmt.Print(s) }

func main() {
	optProfile := getopt.StringLong("profile", 'p', "", "Startup profile (TOML)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Mirror debug-level log entries to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	p := profile.Default()
	if *optProfile != "" {
		loaded, err := profile.Load(*optProfile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "loading profile:", err)
			os.Exit(1)
		}
		p = loaded
	}
	if *optLogFile != "" {
		p.LogFile = *optLogFile
	}
	if *optDebug {
		p.Debug = true
	}

	var logWriter io.Writer
	if p.LogFile != "" {
		f, err := os.Create(p.LogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "creating log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		logWriter = f
	}
	logger := telemetry.New(logWriter, p.Debug)
	defer logger.Sync()

	in, err := interp.New(p, stdoutPrinter{}, logger)
	if err != nil {
		logger.Sugar().Fatalf("starting interpreter: %v", err)
	}

	hist := liner.NewLiner()
	defer hist.Close()
	if p.HistoryFile != "" {
		if f, err := os.Open(p.HistoryFile); err == nil {
			hist.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if p.HistoryFile == "" {
			return
		}
		if f, err := os.Create(p.HistoryFile); err == nil {
			hist.WriteHistory(f)
			f.Close()
		}
	}()

	restore, err := tty.Raw(int(os.Stdin.Fd()))
	if err != nil {
		logger.Sugar().Fatalf("raw mode: %v", err)
	}
	defer restore()

	reader := tty.NewReader(os.Stdin)
	var lastCmdline []byte
	for {
		ch, err := reader.ReadByte()
		if err != nil {
			break
		}

		quit, err := in.Keypress(ch)
		if err != nil {
			fmt.Print(err.Error() + "\r\n")
		} else if in.Loop.Message != "" {
			fmt.Print(in.Loop.Message + "\r\n")
		}

		if line := in.Loop.LastCmdline(); len(line) > 0 && !bytes.Equal(line, lastCmdline) {
			lastCmdline = append(lastCmdline[:0], line...)
			hist.AppendHistory(string(line))
		}

		if quit {
			break
		}
	}
}
