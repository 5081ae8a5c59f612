// Package search translates TECO search patterns into Go's RE2
// dialect (spec C11): character classes (`^S`, `^Ex` family), negation
// (`^N`), any-character (`^X`), repetition (`^E M`), alternation
// (`^E[a,b,c]`) and Q-Register content matching (`^E G q`).
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
package search

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// ErrIncomplete signals a pattern that ends mid-class or mid-escape.
// The parser's "S" command, like for any other Compile error, records
// it as a failed search rather than raising it.
var ErrIncomplete = errors.New("incomplete search pattern")

// ErrSyntax signals a definitely invalid construct (e.g. an
// unrecognized ^E escape).
var ErrSyntax = errors.New("invalid search pattern")

// QRegLookup resolves a one-byte-at-a-time Q-Register name used by
// "^E G" to the register's current string content.
type QRegLookup func(ch byte) (value []byte, consumed bool, err error)

type compiler struct {
	pattern []byte
	pos     int
	lookup  QRegLookup
}

// Compile translates a full TECO search pattern into RE2 syntax and
// returns the compiled *regexp.Regexp. Matching is case-sensitive;
// there is no case-folding option.
func Compile(pattern []byte, lookup QRegLookup) (*regexp.Regexp, error) {
	c := &compiler{pattern: pattern, lookup: lookup}
	re, err := c.sequence(false)
	if err != nil {
		return nil, err
	}
	if c.pos < len(c.pattern) {
		return nil, ErrSyntax
	}
	return regexp.Compile(re)
}

func (c *compiler) peek() (byte, bool) {
	if c.pos >= len(c.pattern) {
		return 0, false
	}
	return c.pattern[c.pos], true
}

func (c *compiler) next() (byte, bool) {
	ch, ok := c.peek()
	if ok {
		c.pos++
	}
	return ch, ok
}

// escapeChar returns the RE2-safe spelling of a single literal byte:
// alphanumerics pass through unescaped, everything else is
// backslash-escaped (the teacher pattern's regexp_escape_chr).
func escapeChar(ch byte) string {
	if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
		return string(ch)
	}
	return "\\" + string(ch)
}

const (
	ctrlN = 0x0e
	ctrlS = 0x13
	ctrlX = 0x18
	ctrlE = 0x05
)

// class attempts to consume one character-class construct starting at
// the current position: "^S", "^E" + letter, or (if escapeDefault) a
// single literal character treated as a one-byte class. It returns
// the class's regex character-set body (without brackets), whether a
// class was consumed, and any error.
func (c *compiler) class(escapeDefault bool) (body string, ok bool, err error) {
	ch, have := c.peek()
	if !have {
		return "", false, nil
	}

	switch ch {
	case ctrlS:
		c.pos++
		return "[:^alnum:]", true, nil
	case ctrlE:
		return c.classCtrlE()
	default:
		if !escapeDefault {
			return "", false, nil
		}
		c.pos++
		return escapeChar(ch), true, nil
	}
}

func (c *compiler) classCtrlE() (string, bool, error) {
	save := c.pos
	c.pos++ // consume ^E
	ch, have := c.next()
	if !have {
		c.pos = save
		return "", false, ErrIncomplete
	}
	switch unicode.ToUpper(rune(ch)) {
	case 'A':
		return "[:alpha:]", true, nil
	case 'B':
		return "[:^alnum:]", true, nil
	case 'C':
		return "[:alnum:].$", true, nil
	case 'D':
		return "[:digit:]", true, nil
	case 'L':
		return "\r\n\v\f", true, nil
	case 'R':
		return "[:alnum:]", true, nil
	case 'V':
		return "[:lower:]", true, nil
	case 'W':
		return "[:upper:]", true, nil
	case 'G':
		value, err := c.qregValue()
		if err != nil {
			return "", false, err
		}
		return regexp.QuoteMeta(string(value)), true, nil
	default:
		// Not a class escape; let sequence() try it as a
		// higher-level ^E construct (M, S, [...]).
		c.pos = save
		return "", false, nil
	}
}

func (c *compiler) qregValue() ([]byte, error) {
	for {
		ch, have := c.next()
		if !have {
			return nil, ErrIncomplete
		}
		value, consumed, err := c.lookup(ch)
		if err != nil {
			return nil, err
		}
		if consumed {
			return value, nil
		}
	}
}

// sequence compiles a run of pattern elements. singleExpr stops after
// exactly one element (used by "^E M" repetition).
func (c *compiler) sequence(singleExpr bool) (string, error) {
	var sb strings.Builder
	consumedAny := false

	for {
		if body, ok, err := c.class(false); err != nil {
			return "", err
		} else if ok {
			sb.WriteString("[" + body + "]")
			consumedAny = true
			if singleExpr {
				return sb.String(), nil
			}
			continue
		}

		ch, have := c.peek()
		if !have {
			break
		}

		if singleExpr && !consumedAny && (ch == ']' || ch == ',') {
			// An alternation delimiter encountered before any
			// element was parsed: let the caller (alternation) see
			// it rather than treating it as a literal bracket/comma.
			return "", ErrIncomplete
		}

		switch ch {
		case ctrlX:
			c.pos++
			sb.WriteString(".")
		case ctrlN:
			c.pos++
			body, ok, err := c.class(true)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", ErrIncomplete
			}
			sb.WriteString("[^" + body + "]")
		case ctrlE:
			if err := c.ctrlESequence(&sb); err != nil {
				return "", err
			}
		default:
			c.pos++
			sb.WriteString(escapeChar(ch))
		}
		consumedAny = true
		if singleExpr {
			return sb.String(), nil
		}
	}

	if singleExpr && !consumedAny {
		return "", ErrIncomplete
	}
	return sb.String(), nil
}

func (c *compiler) ctrlESequence(sb *strings.Builder) error {
	save := c.pos
	c.pos++ // consume ^E
	ch, have := c.next()
	if !have {
		c.pos = save
		return ErrIncomplete
	}
	switch unicode.ToUpper(rune(ch)) {
	case 'M':
		inner, err := c.sequence(true)
		if err != nil {
			return err
		}
		sb.WriteString("(" + inner + ")+")
	case 'S':
		sb.WriteString(`\s+`)
	case 'X':
		sb.WriteString(".")
	case '[':
		alt, err := c.alternation()
		if err != nil {
			return err
		}
		sb.WriteString("(" + alt + ")")
	default:
		return ErrSyntax
	}
	return nil
}

func (c *compiler) alternation() (string, error) {
	var parts []string
	for {
		var part string
		for ch, have := c.peek(); have && ch != ']' && ch != ','; ch, have = c.peek() {
			elem, err := c.sequence(true)
			if err != nil {
				return "", err
			}
			part += elem
		}
		parts = append(parts, part)
		ch, have := c.next()
		if !have {
			return "", ErrIncomplete
		}
		if ch == ']' {
			return strings.Join(parts, "|"), nil
		}
		if ch != ',' {
			return "", ErrSyntax
		}
	}
}
