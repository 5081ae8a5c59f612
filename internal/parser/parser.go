// Package parser implements the main parser state machine (spec C9):
// a byte-at-a-time interpreter over the TECO command surface, wiring
// together the expression evaluator (C4), the Q-Register store (C5),
// the goto table (C6), the string-building (C7) and Q-Register-spec
// (C8) sub-machines, and the search pattern compiler (C11) against a
// single addressable text buffer.
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
package parser

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rcornwell/teco/internal/doc"
	"github.com/rcornwell/teco/internal/expr"
	"github.com/rcornwell/teco/internal/gotolabel"
	"github.com/rcornwell/teco/internal/qreg"
	"github.com/rcornwell/teco/internal/qregspec"
	"github.com/rcornwell/teco/internal/search"
	"github.com/rcornwell/teco/internal/strbuild"
	"github.com/rcornwell/teco/internal/undo"
)

var (
	ErrSyntax           = errors.New("invalid byte in the current state")
	ErrUndefinedLabel   = errors.New("label never defined")
	ErrLoopUnderflow    = errors.New("'>' without matching '<'")
	ErrInvalidQReg      = errors.New("invalid Q-Register name")
	ErrMissingRepl      = errors.New("command-line replacement register is empty")
	ErrUnknownHelpTopic = errors.New("no womanpage topic registered under that name")
)

// ErrMissingOperand is expr.ErrMissingOperand, re-exported so callers
// working only against this package can match on it.
var ErrMissingOperand = expr.ErrMissingOperand

// ReplaceError is raised by the "}" command (spec §4.9 "command-line
// replacement"): the command-line loop (C10) catches it and
// re-executes NewBuffer from byte 0 through ReplayFromStart. It does
// not diff NewBuffer against the old command line, so no common
// prefix is kept.
type ReplaceError struct {
	NewBuffer []byte
}

func (e *ReplaceError) Error() string { return "command-line replacement" }

// Printer is the host hook the "=" command uses to display a
// formatted number (spec §6 "msg").
type Printer interface {
	Print(s string)
}

// HelpLookup is the host hook the "?" command uses to resolve a help
// topic name to a womanpage document and scroll position (spec §6
// supplemental "womanpage"; spec C9 module map's "help" lexical
// state). Returned values are primitives rather than a shared struct
// type so the host package (internal/woman) can implement this
// interface without importing internal/parser.
type HelpLookup interface {
	Find(topicName string) (filename string, pos expr.Int, ok bool)
	AutoComplete(prefix string, restrictLen int) (insert string, candidates []string, ok bool)
}

// Mode is the parser's goto-skip-mode state (spec §4.8). A false
// conditional branch and a broken loop's remaining body use their own
// depth counters alongside it, since all three can nest independently.
type Mode int

const (
	ModeNormal Mode = iota
	ModeParseOnlyGoto
)

type lexState int

const (
	lexStart lexState = iota
	lexCaret
	lexQuote
	lexLabel
	lexString
	lexQRegSpec
	lexSearchPattern
	lexGotoLabels
	lexHelp
)

// stringPurpose tags what a pending lexString/lexQRegSpec sub-parse is
// for, so its completion callback knows which side effect to apply.
type stringPurpose int

const (
	purposeInsert stringPurpose = iota
	purposeQRegInsert
	purposeQRegGetInt
	purposeQRegGetString
	purposeQRegSet
	purposeMacro
)

type loopFrame struct {
	bodyPC    int
	infinite  bool
	remaining expr.Int
}

// Context is the interpreter's process-wide state (spec §9 "global
// mutable state" wrapped explicitly rather than left as singletons):
// the expression stack, Q-Register tables, goto table, undo log and
// the single mounted text buffer, plus the parser's own lexical
// position.
type Context struct {
	Expr    *expr.Stack
	Globals *qreg.Table
	Locals  *qreg.Table
	Goto    *gotolabel.Table
	Log     *undo.Log
	Buffer  *doc.Doc
	Host    Printer
	Help    HelpLookup
	Logger  *zap.Logger

	Mode      Mode
	SkipLabel string
	condSkip  int
	breakSkip int
	loops     []loopFrame
	lastPrint string

	state    lexState
	src      []byte
	pos      int
	execTick int

	labelBuf []byte

	atPending    bool
	delimPending bool
	hasAtDelim   bool
	atDelim      byte

	strMachine *strbuild.Machine
	strBuf     []byte
	strPurpose stringPurpose
	strReg     qreg.Register

	rawBuf     []byte
	rawEscaped bool

	qregMachine *qregspec.Machine
	qregPurpose stringPurpose

	lastHelp struct {
		filename string
		pos      expr.Int
	}
}

// NewContext builds a fresh interpreter context over buffer, with a
// new global Q-Register table (A-Z, 0-9, "_"), a new local table for
// the top-level command line, and the ":" register bound to buffer's
// cursor.
func NewContext(log *undo.Log, buffer *doc.Doc, host Printer) *Context {
	c := &Context{
		Expr:    expr.NewStack(log),
		Globals: qreg.NewGlobalTable(log),
		Locals:  qreg.NewLocalTable(log),
		Goto:    gotolabel.New(log),
		Log:     log,
		Buffer:  buffer,
		Host:    host,
	}
	c.Globals.Insert(qreg.NewDot(log, buffer))
	return c
}

func (c *Context) nextPC() int {
	c.execTick++
	return c.execTick
}

// skipping reports whether side-effecting commands are currently
// short-circuited: goto-skip mode, a false conditional branch, or
// scanning past a broken loop's remaining body (spec §4.8: "In any
// non-NORMAL mode, side-effecting input branches are short-circuited
// but label/structure tracking still runs").
func (c *Context) skipping() bool {
	return c.Mode != ModeNormal || c.condSkip > 0 || c.breakSkip > 0
}

// Run feeds src through the parser from the start, handling forward
// consumption and the backward/forward jumps ("<>", "O", macro calls)
// that an addressable command buffer makes possible. pc tags passed
// to the undo log are a monotonic tick independent of byte position,
// since loop bodies revisit the same bytes multiple times but undo
// ordering must still strictly increase.
func (c *Context) Run(src []byte) error {
	if _, err := c.Execute(src, 0); err != nil {
		return err
	}
	if c.state != lexStart {
		return ErrSyntax
	}
	if c.SkipLabel != "" {
		return ErrUndefinedLabel
	}
	return nil
}

// Execute processes src starting at byte offset pos, without resetting
// already-recorded parser state (unlike Run, which always starts a
// fresh top-level invocation at 0). Run and ReplayFromStart are built
// on it; the command-line loop (C10) re-executes its whole buffer from
// offset 0 through ReplayFromStart after every edit. "<" and "O" jump
// freely within the whole addressable buffer.
// It returns the byte offset execution stopped at (len(src) on a clean
// finish, or the position of the byte that raised err).
func (c *Context) Execute(src []byte, pos int) (int, error) {
	savedSrc, savedPos := c.src, c.pos
	c.src, c.pos = src, pos
	defer func() { c.src, c.pos = savedSrc, savedPos }()

	for c.pos < len(c.src) {
		ch := c.src[c.pos]
		jump, err := c.input(ch)
		if err != nil {
			return c.pos, err
		}
		if !jump {
			c.pos++
		}
	}
	return c.pos, nil
}

// AtCommandBoundary reports whether the parser sits between top-level
// commands: lexical state is back at the start, no conditional/loop
// skip is open, and no loop frame remains pending. The command-line
// loop (C10) rubs/re-inserts whole commands up to this boundary and
// treats a second bare ESC here as the "Return" terminator.
func (c *Context) AtCommandBoundary() bool {
	return c.state == lexStart && c.Mode == ModeNormal &&
		c.condSkip == 0 && c.breakSkip == 0 && len(c.loops) == 0
}

// PC returns the parser's current monotonic execution tick: the undo
// tag of the most recent side effect. Interpreter.LoadFile tags the
// buffer ring's undo token with it; the command-line loop does not
// snapshot it, and rolls back fully with ReplayFromStart instead.
func (c *Context) PC() int { return c.execTick }

// Rollback discards every undo token recorded after pc, restoring the
// state that existed at that tick (spec §4.9 "invoke undo.pop").
func (c *Context) Rollback(pc int) { c.Log.Pop(pc) }

// resetLexState clears the parser's own lexical-position bookkeeping
// (what sub-state it is in, any pending delimiter/skip/loop nesting)
// without touching the document, Q-Register, expression, or goto
// state that Rollback already restores through the undo log. Used by
// ReplayFromStart before re-executing an edited buffer from byte 0.
func (c *Context) resetLexState() {
	c.Mode = ModeNormal
	c.SkipLabel = ""
	c.condSkip = 0
	c.breakSkip = 0
	c.loops = c.loops[:0]
	c.state = lexStart
	c.execTick = 0
	c.labelBuf = c.labelBuf[:0]
	c.atPending = false
	c.delimPending = false
	c.hasAtDelim = false
	c.strMachine = nil
	c.strBuf = c.strBuf[:0]
	c.strReg = nil
	c.rawBuf = c.rawBuf[:0]
	c.rawEscaped = false
	c.qregMachine = nil
}

// ReplayFromStart rolls back every undo token recorded since this
// command line began, resets the parser's lexical position, and
// re-executes buf from byte 0. The command-line loop (C10) calls this
// after every edit (insert, rub-out, re-insert, replacement) rather
// than rolling back incrementally: lexical sub-state -- whether a
// string or Q-Register-spec argument is currently open -- is not
// itself undo-tracked, only the data it produces is, so a partial
// rollback would leave the parser's own position out of sync with a
// shortened or altered buffer. Re-running the whole (typically short,
// interactively typed) buffer keeps the two in lockstep at the cost of
// the "diff against the old buffer" optimization spec §4.9 describes
// for "}" replacement (see DESIGN.md, internal/cmdline decisions).
func (c *Context) ReplayFromStart(buf []byte) (int, error) {
	c.Rollback(0)
	c.resetLexState()
	return c.Execute(buf, 0)
}

// ResetForNextCommand clears all process-wide state that a committed
// top-level command line owns once it returns (spec §4.9 step 4 "on
// Return"): the undo log, goto table, expression stack, open loops,
// and any pending skip/lex state. The local Q-Register table is
// replaced by a fresh one; the text buffer and the global Q-Register
// table are untouched, since they outlive the command line itself.
func (c *Context) ResetForNextCommand() {
	c.Log.Clear()
	c.Goto.Clear()
	c.Expr.Clear()
	c.Locals = qreg.NewLocalTable(c.Log)
	c.loops = c.loops[:0]
	c.Mode = ModeNormal
	c.SkipLabel = ""
	c.condSkip = 0
	c.breakSkip = 0
	c.state = lexStart
	c.execTick = 0
}

// input dispatches one byte according to the current lexical state.
// It reports whether it repositioned c.pos itself (a jump), in which
// case Run must not also advance past it.
func (c *Context) input(ch byte) (bool, error) {
	switch c.state {
	case lexStart:
		return c.inputStart(ch)
	case lexCaret:
		c.state = lexStart
		return false, c.inputCaretOp(ch)
	case lexQuote:
		return false, c.inputQuote(ch)
	case lexLabel:
		return false, c.inputLabel(ch)
	case lexString:
		return false, c.inputString(ch)
	case lexQRegSpec:
		return false, c.inputQRegSpec(ch)
	case lexSearchPattern:
		return false, c.inputSearchPattern(ch)
	case lexGotoLabels:
		before := c.pos
		err := c.inputGotoLabels(ch)
		return c.pos != before, err
	case lexHelp:
		return false, c.inputHelp(ch)
	}
	return false, ErrSyntax
}

func asciiUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', '\v':
		return true
	}
	return false
}

// popRequiredNum folds pending operators and pops the top argument,
// failing with ErrMissingOperand if none is available.
func (c *Context) popRequiredNum(pc int) (expr.Int, error) {
	if err := c.Expr.Eval(pc, false); err != nil {
		return 0, err
	}
	if c.Expr.Args() == 0 {
		return 0, expr.ErrMissingOperand
	}
	return c.Expr.PopNum(pc, 0), nil
}

// radix returns the current number base, from the local "^R" register
// (spec C5 "Radix").
func (c *Context) radix() expr.Int {
	if c.Locals != nil && c.Locals.Radix != nil {
		return c.Locals.Radix.GetInteger()
	}
	return 10
}

func (c *Context) inputStart(ch byte) (bool, error) {
	hadAt := c.atPending
	c.atPending = false

	switch {
	case isSpace(ch):
		return false, nil
	case isDigit(ch):
		return false, c.inputDigit(ch)
	}

	switch ch {
	case '@':
		c.atPending = true
		return false, nil
	case '+':
		return false, c.binaryOrIgnore(expr.OpAdd)
	case '-':
		return false, c.inputMinus()
	case '*':
		return false, c.binaryOrIgnore(expr.OpMul)
	case '/':
		return false, c.binaryOrIgnore(expr.OpDiv)
	case '&':
		return false, c.binaryOrIgnore(expr.OpAnd)
	case '#':
		return false, c.binaryOrIgnore(expr.OpOr)
	case '^':
		c.state = lexCaret
		return false, nil
	case '(':
		if !c.skipping() {
			c.Expr.BraceOpen(c.nextPC())
		}
		return false, nil
	case ')':
		if !c.skipping() {
			return false, c.Expr.BraceClose(c.nextPC())
		}
		return false, nil
	case ',':
		if !c.skipping() {
			c.Expr.MarkArg(c.nextPC())
		}
		return false, nil
	case '"':
		c.state = lexQuote
		return false, nil
	case '\'':
		if c.condSkip > 0 {
			c.condSkip--
		}
		return false, nil
	case '<':
		return false, c.inputLoopStart()
	case '>':
		return c.inputLoopEnd()
	case ';':
		return false, c.inputBreak()
	case '=':
		return false, c.inputPrint()
	case '!':
		c.state = lexLabel
		c.labelBuf = c.labelBuf[:0]
		return false, nil
	case 'O', 'o':
		c.beginDelimited(lexGotoLabels, hadAt)
		return false, nil
	case 'I', 'i':
		return false, c.beginString(purposeInsert, nil, hadAt)
	case 'S', 's':
		c.beginDelimited(lexSearchPattern, hadAt)
		return false, nil
	case 'G', 'g':
		return false, c.beginQRegSpec(purposeQRegGetString, qregspec.Required)
	case 'Q', 'q':
		return false, c.beginQRegSpec(purposeQRegGetInt, qregspec.Required)
	case 'U', 'u':
		return false, c.beginQRegSpec(purposeQRegSet, qregspec.OptionalInit)
	case 0x15: // ^U, control-U: insert a string argument into a register
		return false, c.beginQRegSpec(purposeQRegInsert, qregspec.OptionalInit)
	case 'M', 'm':
		return false, c.beginQRegSpec(purposeMacro, qregspec.Required)
	case '?':
		c.beginDelimited(lexHelp, hadAt)
		return false, nil
	case '}':
		return false, c.inputReplace()
	}
	return false, ErrSyntax
}

func (c *Context) inputCaretOp(ch byte) error {
	switch ch {
	case '*':
		return c.binaryOrIgnore(expr.OpPow)
	case '/':
		return c.binaryOrIgnore(expr.OpMod)
	case '#':
		return c.binaryOrIgnore(expr.OpXor)
	}
	upper := asciiUpper(ch)
	if upper < '@' || upper > '_' {
		return ErrSyntax
	}
	_, err := c.inputStart(upper & 0x1f)
	return err
}

func (c *Context) inputDigit(ch byte) error {
	if c.skipping() {
		return nil
	}
	digit := expr.Int(ch - '0')
	pc := c.nextPC()
	var n expr.Int
	if c.Expr.Args() > 0 {
		n = c.Expr.PopNum(pc, 0)
	}
	radix := c.radix()
	if n < 0 {
		n = n*radix - digit
	} else {
		n = n*radix + digit
	}
	c.Expr.PushInt(pc, n)
	return nil
}

func (c *Context) binaryOrIgnore(op expr.Op) error {
	if c.skipping() {
		return nil
	}
	return c.Expr.PushOp(c.nextPC(), op)
}

func (c *Context) inputMinus() error {
	if c.skipping() {
		return nil
	}
	pc := c.nextPC()
	if c.Expr.Args() > 0 {
		return c.Expr.PushOp(pc, expr.OpSub)
	}
	c.Expr.SetSign(pc, -c.Expr.Sign())
	return nil
}

func (c *Context) inputPrint() error {
	if c.skipping() {
		return nil
	}
	pc := c.nextPC()
	v, err := c.popRequiredNum(pc)
	if err != nil {
		return err
	}
	c.lastPrint = expr.Format(v, c.radix())
	if c.Host != nil {
		c.Host.Print(c.lastPrint)
	}
	return nil
}

// LastPrint returns the most recently formatted "=" output, for hosts
// without a Printer and for tests.
func (c *Context) LastPrint() string { return c.lastPrint }

func (c *Context) inputLoopStart() error {
	if c.skipping() {
		return nil
	}
	pc := c.nextPC()
	n, err := c.Expr.PopNumCalc(pc, -1)
	if err != nil {
		return err
	}
	frame := loopFrame{bodyPC: c.pos + 1}
	if n < 0 {
		frame.infinite = true
	} else {
		frame.remaining = n
	}
	c.loops = append(c.loops, frame)
	return nil
}

func (c *Context) inputLoopEnd() (bool, error) {
	if c.breakSkip > 0 {
		c.breakSkip--
		if c.breakSkip == 0 && len(c.loops) > 0 {
			c.loops = c.loops[:len(c.loops)-1]
		}
		return false, nil
	}
	if c.Mode != ModeNormal {
		return false, nil
	}
	if len(c.loops) == 0 {
		return false, ErrLoopUnderflow
	}
	top := &c.loops[len(c.loops)-1]
	if top.infinite || top.remaining > 1 {
		if !top.infinite {
			top.remaining--
		}
		c.pos = top.bodyPC
		return true, nil
	}
	c.loops = c.loops[:len(c.loops)-1]
	return false, nil
}

func (c *Context) inputBreak() error {
	if c.skipping() {
		return nil
	}
	pc := c.nextPC()
	v, err := c.popRequiredNum(pc)
	if err != nil {
		if !errors.Is(err, expr.ErrMissingOperand) {
			return err
		}
		v = 0
		if reg := c.Globals.Find("_"); reg != nil {
			v = reg.GetInteger()
		}
	}
	if v == 0 && len(c.loops) > 0 {
		c.breakSkip = 1
	}
	return nil
}

func (c *Context) inputReplace() error {
	if c.skipping() {
		return nil
	}
	reg := c.Globals.Find("\x1b")
	if reg == nil || reg.GetLength() == 0 {
		return ErrMissingRepl
	}
	return &ReplaceError{NewBuffer: append([]byte(nil), reg.GetString()...)}
}

// evalCondTest implements the conditional test letters following `"`
// (spec §4.8/§4.9's `"G hello $ '$` example resolves `G` to ">0", the
// reading this build adopts; see DESIGN.md, internal/parser decisions).
func (c *Context) evalCondTest(ch byte, pc int) (bool, error) {
	v, err := c.popRequiredNum(pc)
	if err != nil {
		return false, err
	}
	switch asciiUpper(ch) {
	case '<':
		return v < 0, nil
	case '>', 'G':
		return v > 0, nil
	case '=', 'E':
		return v == 0, nil
	case 'N':
		return v != 0, nil
	}
	return false, ErrSyntax
}

func (c *Context) inputQuote(ch byte) error {
	c.state = lexStart
	// Nested inside an already-false branch, or passed over while
	// goto-skip/break-skip scans forward: track the nesting depth but
	// never evaluate, since the expression stack may be empty or
	// stale at this point.
	if c.condSkip > 0 || c.Mode != ModeNormal || c.breakSkip > 0 {
		c.condSkip++
		return nil
	}
	ok, err := c.evalCondTest(ch, c.nextPC())
	if err != nil {
		return err
	}
	if !ok {
		c.condSkip = 1
	}
	return nil
}

func (c *Context) inputLabel(ch byte) error {
	if ch != '!' {
		c.labelBuf = append(c.labelBuf, ch)
		return nil
	}
	name := string(c.labelBuf)
	pc := c.nextPC()
	landing := c.pos + 1
	if existing := c.Goto.Set(pc, name, landing); existing != -1 {
		if c.Logger != nil {
			c.Logger.Warn("label redefinition ignored",
				zap.String("label", name),
				zap.Int("existing_pc", existing))
		}
	}
	if c.SkipLabel != "" && name == c.SkipLabel {
		c.SkipLabel = ""
		c.Mode = ModeNormal
	}
	c.state = lexStart
	return nil
}

// beginDelimited enters a raw (non-strbuild) delimited argument state
// for commands whose argument syntax is its own (search patterns,
// goto label lists), arming the "@" custom-delimiter modifier if hadAt
// was set.
func (c *Context) beginDelimited(state lexState, hadAt bool) {
	c.state = state
	c.rawBuf = c.rawBuf[:0]
	c.rawEscaped = false
	c.hasAtDelim = false
	c.delimPending = hadAt
}

func (c *Context) inputGotoLabels(ch byte) error {
	if c.delimPending {
		c.delimPending = false
		c.hasAtDelim = true
		c.atDelim = ch
		return nil
	}
	if c.rawEscaped {
		c.rawBuf = append(c.rawBuf, ch)
		c.rawEscaped = false
		return nil
	}
	delim := c.delimiter()
	if ch == delim {
		return c.finishGoto()
	}
	if ch == 0x11 { // ^Q: next byte literal
		c.rawEscaped = true
		return nil
	}
	c.rawBuf = append(c.rawBuf, ch)
	return nil
}

func (c *Context) finishGoto() error {
	c.state = lexStart
	c.hasAtDelim = false
	if c.skipping() {
		return nil
	}
	pc := c.nextPC()
	n, err := c.Expr.PopNumCalc(pc, 1)
	if err != nil {
		return err
	}
	labels := strings.Split(string(c.rawBuf), ",")
	if n < 1 || int(n) > len(labels) || labels[n-1] == "" {
		return nil
	}
	name := labels[n-1]
	if offset, ok := c.Goto.Find(name); ok {
		c.pos = offset
		return nil
	}
	c.SkipLabel = name
	c.Mode = ModeParseOnlyGoto
	return nil
}

func (c *Context) delimiter() byte {
	if c.hasAtDelim {
		return c.atDelim
	}
	return 0x1b
}

// beginString starts a string-expect lexical context backed by the
// string-building sub-machine (C7): target is the register an
// interpolating command ("^U") is writing into, or nil for commands
// that build against the current buffer. The actual delimiter byte
// (ESC by default, or the first argument byte after an "@" modifier)
// isn't known until the first byte arrives, so machine creation is
// deferred to inputString.
func (c *Context) beginString(purpose stringPurpose, target qreg.Register, hadAt bool) error {
	c.state = lexString
	c.strPurpose = purpose
	c.strReg = target
	c.strBuf = c.strBuf[:0]
	c.strMachine = nil
	c.hasAtDelim = false
	c.delimPending = hadAt
	return nil
}

func (c *Context) inputString(ch byte) error {
	if c.delimPending {
		c.delimPending = false
		c.hasAtDelim = true
		c.atDelim = ch
		c.strMachine = strbuild.New(c.Log, c.atDelim, c.Globals, c.Locals)
		return nil
	}
	if c.strMachine == nil {
		c.strMachine = strbuild.New(c.Log, c.delimiter(), c.Globals, c.Locals)
	}
	if ch == c.delimiter() && c.strMachine.Idle() && c.strMachine.BraceDepth() == 0 {
		return c.finishString()
	}
	pc := c.nextPC()
	if c.skipping() {
		return c.strMachine.Input(ch, nil, pc)
	}
	return c.strMachine.Input(ch, &c.strBuf, pc)
}

func (c *Context) finishString() error {
	c.state = lexStart
	c.hasAtDelim = false
	if c.skipping() {
		return nil
	}
	pc := c.nextPC()
	switch c.strPurpose {
	case purposeInsert:
		c.Buffer.InsertAtDot(pc, c.strBuf)
	case purposeQRegInsert:
		if len(c.strBuf) > 0 {
			if err := c.strReg.SetInteger(pc, expr.Int(c.strBuf[0])); err != nil {
				return err
			}
		}
		return c.strReg.SetString(pc, c.strBuf)
	}
	return nil
}

func (c *Context) beginQRegSpec(purpose stringPurpose, mode qregspec.Mode) error {
	c.state = lexQRegSpec
	c.qregPurpose = purpose
	c.qregMachine = qregspec.New(mode, c.Log, c.Globals, c.Locals)
	return nil
}

func (c *Context) inputQRegSpec(ch byte) error {
	done, err := c.qregMachine.Input(ch)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}
	c.state = lexStart
	if c.skipping() {
		// Don't resolve the name against the table while
		// short-circuited: a forward goto-skip scan must not fail
		// just because a register it passes over doesn't exist.
		if c.qregPurpose == purposeQRegInsert {
			return c.beginString(purposeQRegInsert, nil, false)
		}
		return nil
	}
	pc := c.nextPC()
	reg, _, err := c.qregMachine.Result(pc)
	if err != nil {
		return err
	}
	switch c.qregPurpose {
	case purposeQRegGetInt:
		c.Expr.PushInt(pc, reg.GetInteger())
	case purposeQRegGetString:
		c.Buffer.InsertAtDot(pc, reg.GetString())
	case purposeQRegSet:
		v, err := c.popRequiredNum(pc)
		if err != nil {
			return err
		}
		return reg.SetInteger(pc, v)
	case purposeQRegInsert:
		return c.beginString(purposeQRegInsert, reg, false)
	case purposeMacro:
		return c.runMacro(reg)
	}
	return nil
}

// runMacro executes reg's string content as nested TECO code (the "M"
// command) in a fresh local Q-Register table, sharing the global
// table, goto table and expression stack with the caller. A failure
// is attached with the invoking register's name (spec §7's "macro
// name" frame) before propagating, so a nested failure several "M"
// calls deep still names the register whose content is misbehaving.
func (c *Context) runMacro(reg qreg.Register) error {
	savedLocals := c.Locals
	c.Locals = qreg.NewLocalTable(c.Log)
	defer func() { c.Locals = savedLocals }()
	if err := c.Run(reg.GetString()); err != nil {
		return fmt.Errorf("macro %s: %w", reg.Name(), err)
	}
	return nil
}

func (c *Context) inputSearchPattern(ch byte) error {
	if c.delimPending {
		c.delimPending = false
		c.hasAtDelim = true
		c.atDelim = ch
		return nil
	}
	if c.rawEscaped {
		c.rawBuf = append(c.rawBuf, ch)
		c.rawEscaped = false
		return nil
	}
	delim := c.delimiter()
	if ch == delim {
		return c.finishSearch()
	}
	if ch == 0x11 {
		c.rawEscaped = true
		return nil
	}
	c.rawBuf = append(c.rawBuf, ch)
	return nil
}

func (c *Context) finishSearch() error {
	c.state = lexStart
	c.hasAtDelim = false
	if c.skipping() {
		return nil
	}
	pc := c.nextPC()
	pattern := append([]byte(nil), c.rawBuf...)
	if len(pattern) == 0 {
		if saved := c.Globals.Find("_"); saved != nil {
			pattern = saved.GetString()
		}
	}

	lookup := func(ch byte) ([]byte, bool, error) {
		name := string(ch)
		reg := c.Locals.Find(name)
		if reg == nil {
			reg = c.Globals.Find(name)
		}
		if reg == nil {
			return nil, false, ErrInvalidQReg
		}
		return reg.GetString(), true, nil
	}

	re, err := search.Compile(pattern, lookup)
	success := err == nil
	var matchEnd int
	if success {
		loc := re.FindIndex(c.Buffer.BytesFromDot())
		success = loc != nil
		if success {
			matchEnd = loc[1]
		}
	}

	result := c.Globals.Find("_")
	if success {
		c.Buffer.SetDotByteOffset(pc, c.Buffer.DotByteOffset()+matchEnd)
		if err := result.SetInteger(pc, 1); err != nil {
			return err
		}
	} else if err := result.SetInteger(pc, 0); err != nil {
		return err
	}
	return result.SetString(pc, pattern)
}

// inputHelp reads a help topic name ("?" command, spec C9 module
// map's "help" lexical state), reusing the raw-delimited-argument
// machinery "O" and "S" already use.
func (c *Context) inputHelp(ch byte) error {
	if c.delimPending {
		c.delimPending = false
		c.hasAtDelim = true
		c.atDelim = ch
		return nil
	}
	if c.rawEscaped {
		c.rawBuf = append(c.rawBuf, ch)
		c.rawEscaped = false
		return nil
	}
	if ch == c.delimiter() {
		return c.finishHelp()
	}
	if ch == 0x11 { // ^Q: next byte literal
		c.rawEscaped = true
		return nil
	}
	c.rawBuf = append(c.rawBuf, ch)
	return nil
}

// finishHelp resolves the accumulated topic name against Help,
// recording the result for the host to act on (open the document,
// scroll to the returned position) — the parser itself has no notion
// of how a womanpage document gets displayed.
func (c *Context) finishHelp() error {
	c.state = lexStart
	c.hasAtDelim = false
	if c.skipping() {
		return nil
	}
	topic := string(c.rawBuf)
	if c.Help == nil {
		return ErrUnknownHelpTopic
	}
	filename, pos, ok := c.Help.Find(topic)
	if !ok {
		return ErrUnknownHelpTopic
	}
	c.lastHelp.filename = filename
	c.lastHelp.pos = pos
	if c.Host != nil {
		c.Host.Print(fmt.Sprintf("%s:%d\n", filename, pos))
	}
	return nil
}

// LastHelp returns the document and position resolved by the most
// recent successful "?" lookup, for hosts that want to act on it
// directly instead of (or in addition to) the Printer banner.
func (c *Context) LastHelp() (filename string, pos expr.Int) {
	return c.lastHelp.filename, c.lastHelp.pos
}

// AutoComplete implements Tab-completion (spec §4.2/§4.9) against
// whatever name argument the parser is currently in the middle of
// reading: a Q-Register spec ("G", "Q", "U", "^U", "M") or a help
// topic name ("?"). Outside those two states there is nothing to
// complete against, so ok is always false.
func (c *Context) AutoComplete() (insert string, candidates []string, ok bool) {
	switch c.state {
	case lexQRegSpec:
		if c.qregMachine == nil {
			return "", nil, false
		}
		table := c.qregMachine.Table()
		if table == nil {
			return "", nil, false
		}
		return table.AutoComplete(c.qregMachine.Name(), c.qregMachine.RestrictLen())
	case lexHelp:
		if c.Help == nil {
			return "", nil, false
		}
		return c.Help.AutoComplete(string(c.rawBuf), 0)
	}
	return "", nil, false
}

// Hook type arguments pushed onto the expression stack for the
// "ED"-register hook macro (spec §4.4 "ED-hook invocation", GLOSSARY
// "ED hook"), matching the original's teco_ed_hook_t ordinals.
const (
	HookAdd expr.Int = iota + 1
	HookEdit
	HookClose
	HookQuit
)

// RunEDHook invokes the "ED" Q-Register as a hook macro: a fresh brace
// scope, the hook type pushed as its only argument, run in a fresh
// local Q-Register table, with any leftover expression-stack arguments
// discarded and the brace closed afterward (spec §4.4). A session that
// never defines "ED" never triggers this at all — the original gates
// hook firing on a separate "ED flags" options register this port does
// not implement (see DESIGN.md), so the register's mere existence is
// used as the enable switch instead. The hook's local table is checked
// with Empty(nil), which names no register as being edited, so this
// never fails with ErrEditingLocal.
func (c *Context) RunEDHook(hookType expr.Int) error {
	reg := c.Globals.Find("ED")
	if reg == nil {
		return nil
	}

	pc := c.nextPC()
	c.Expr.BraceOpen(pc)
	c.Expr.PushInt(pc, hookType)

	savedLocals := c.Locals
	hookLocals := qreg.NewLocalTable(c.Log)
	c.Locals = hookLocals
	runErr := c.Run(reg.GetString())
	c.Locals = savedLocals

	if runErr != nil {
		return fmt.Errorf("ED-hook %s: %w", reg.Name(), runErr)
	}
	if err := hookLocals.Empty(nil); err != nil {
		return fmt.Errorf("ED-hook %s: %w", reg.Name(), err)
	}

	closePC := c.nextPC()
	if err := c.Expr.DiscardArgs(closePC); err != nil {
		return err
	}
	return c.Expr.BraceClose(closePC)
}
