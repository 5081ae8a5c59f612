// Package woman implements the womanpage topic index (spec §6,
// supplemented from original_source's help.c): a directory of
// ".woman" plain-text documents, each with an optional ".woman.tec"
// script whose header maps buffer positions to topic names, searched
// case-insensitively after canonicalizing control bytes to their
// "^X" printable form. *Index implements internal/parser's HelpLookup,
// giving the "?" command (internal/parser's "help" lexical state) a
// real target: Find resolves a topic, AutoComplete drives its Tab
// completion.
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
package woman

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rcornwell/teco/internal/expr"
	"github.com/rcornwell/teco/internal/index"
)

// fold is the locale-independent upper-casing used for topic-name
// comparison, matching help.c's ASCII-only case fold but extended to
// full Unicode via x/text rather than a byte-range table.
var fold = cases.Upper(language.Und)

// Topic is one entry of the index: the document to open and the
// buffer position to scroll to.
type Topic struct {
	Filename string
	Pos      expr.Int
}

// Index is the topic name -> Topic lookup table, populated on first
// use (spec: "the help system does not consume resources when not
// used"). It shares the ordered name index (spec C3) with the
// Q-Register and goto label tables, which is what makes Tab-completion
// over topic names (AutoComplete) possible with no extra bookkeeping.
type Index struct {
	topics *index.Index[Topic]
	loaded bool
	dir    string
}

// New returns an index that scans dir (the "women" subdirectory of
// the standard library path) on its first Find or Load call.
func New(dir string) *Index {
	return &Index{dir: dir}
}

// Find looks up topicName, canonicalizing control bytes to their "^X"
// printable form and comparing case-insensitively, loading the index
// from disk on first use. It implements parser.HelpLookup.
func (idx *Index) Find(topicName string) (filename string, pos expr.Int, ok bool) {
	if !idx.loaded {
		idx.Load()
	}
	t, ok := idx.topics.Find(fold.String(echoControls(topicName)))
	return t.Filename, t.Pos, ok
}

// AutoComplete implements Tab-completion over topic names (spec §4.2,
// consumed by the "help" lexical state), loading the index on first
// use like Find does. It implements parser.HelpLookup.
func (idx *Index) AutoComplete(prefix string, restrictLen int) (insert string, candidates []string, ok bool) {
	if !idx.loaded {
		idx.Load()
	}
	return idx.topics.AutoComplete(fold.String(echoControls(prefix)), restrictLen)
}

// echoControls renders control bytes (0x00-0x1f, 0x7f) as their "^X"
// printable form, matching the term canonicalization help.c performs
// both when indexing and when looking a topic up.
func echoControls(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c < 0x20:
			b.WriteByte('^')
			b.WriteByte(c + '@')
		case c == 0x7f:
			b.WriteString("^?")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Load scans idx.dir for "*.woman" files and their optional
// "*.woman.tec" topic scripts. A missing directory is not an error:
// the index is simply left empty (batch mode without the standard
// library installed).
func (idx *Index) Load() {
	idx.loaded = true
	idx.topics = index.New[Topic](false)

	entries, err := os.ReadDir(idx.dir)
	if err != nil {
		return
	}

	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".woman") {
			continue
		}
		filename := filepath.Join(idx.dir, name)
		script := filename + ".tec"

		if !idx.loadScript(filename, script) {
			topic := strings.TrimSuffix(name, ".woman")
			idx.set(topic, filename, 0)
		}
	}
}

// loadScript reads script's "!*"-prefixed header of "POS:TOPIC" lines
// terminated by a "*!" line, registering one topic per line. It
// reports whether the script existed and had a valid header.
func (idx *Index) loadScript(filename, script string) bool {
	f, err := os.Open(script)
	if err != nil {
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return false
	}
	header := sc.Text()
	if !strings.HasPrefix(header, "!*") {
		return false
	}

	// The first header line's topic follows the "!*" marker directly.
	line := strings.TrimPrefix(header, "!*")
	for {
		if line == "*!" {
			return true
		}
		pos, topic, ok := strings.Cut(line, ":")
		if !ok {
			return true
		}
		n, err := strconv.ParseInt(pos, 10, 64)
		if err != nil {
			return true
		}
		idx.set(topic, filename, expr.Int(n))

		if !sc.Scan() {
			return true
		}
		line = sc.Text()
	}
}

// set registers topic_name -> (filename, pos), making the name unique
// with a ":basename" suffix on collision from a different file,
// matching help.c's teco_help_set.
func (idx *Index) set(topicName, filename string, pos expr.Int) {
	key := fold.String(echoControls(topicName))
	if existing, ok := idx.topics.Find(key); ok {
		if existing.Filename == filename {
			existing.Pos = pos
			idx.topics.Set(key, existing)
			return
		}
		unique := fmt.Sprintf("%s:%s", topicName, filepath.Base(filename))
		idx.topics.Set(fold.String(echoControls(unique)), Topic{Filename: filename, Pos: pos})
		return
	}
	idx.topics.Set(key, Topic{Filename: filename, Pos: pos})
}
