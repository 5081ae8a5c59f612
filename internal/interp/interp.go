package interp

import (
	"github.com/rcornwell/teco/internal/cmdline"
	"github.com/rcornwell/teco/internal/doc"
	"github.com/rcornwell/teco/internal/expr"
	"github.com/rcornwell/teco/internal/host"
	"github.com/rcornwell/teco/internal/parser"
	"github.com/rcornwell/teco/internal/profile"
	"github.com/rcornwell/teco/internal/qreg"
	"github.com/rcornwell/teco/internal/undo"
	"github.com/rcornwell/teco/internal/woman"
	"go.uber.org/zap"
)

// Interpreter owns every piece a host (CLI or otherwise) drives
// through one keystroke at a time: the undo log, the mounted
// document and its ring of other open buffers, the parser context,
// the command-line loop around it, and the host facades (clipboard,
// environment) registered as Q-Registers.
type Interpreter struct {
	Log    *undo.Log
	Buffer *doc.Doc
	Ring   *Ring
	Ctx    *parser.Context
	Loop   *cmdline.Loop
	Board  *host.Board
	Woman  *woman.Index
	Logger *zap.Logger
}

// New builds an Interpreter from a loaded profile and a Printer for
// "=" output (typically the CLI's stdout writer).
func New(p profile.Profile, printer parser.Printer, logger *zap.Logger) (*Interpreter, error) {
	log := undo.NewLog()
	buffer := doc.New(log)
	ring := NewRing(log, buffer)
	board := host.NewBoard()

	ctx := parser.NewContext(log, buffer, printer)
	womanIdx := woman.New(p.WomanpagePath)
	ctx.Help = womanIdx
	ctx.Logger = logger
	ring.SetContext(ctx)

	ctx.Globals.Insert(qreg.NewBufferInfo(log, ring))
	ctx.Globals.Insert(qreg.NewWorkingDir(log))
	ctx.Globals.Insert(qreg.NewClipboard(log, board, ""))
	for _, slot := range []string{"C", "P", "S"} {
		ctx.Globals.Insert(qreg.NewClipboard(log, board, slot))
	}
	if err := ctx.Globals.SetEnviron(0, host.Environ()); err != nil {
		return nil, err
	}

	// Radix ("^R") lives on the local table, not the global one: each
	// command line gets its own, so the profile's configured starting
	// radix is applied to the first one here.
	if p.Radix != 0 && p.Radix != 10 {
		if reg := ctx.Locals.Radix; reg != nil {
			if err := reg.SetInteger(0, expr.Int(p.Radix)); err != nil {
				return nil, err
			}
		}
	}

	in := &Interpreter{
		Log:    log,
		Buffer: buffer,
		Ring:   ring,
		Ctx:    ctx,
		Loop:   cmdline.NewLoop(ctx),
		Board:  board,
		Woman:  womanIdx,
		Logger: logger,
	}

	if p.StartupMacro != "" {
		if err := ctx.Run([]byte(p.StartupMacro)); err != nil {
			return nil, err
		}
		ctx.ResetForNextCommand()
	}

	return in, nil
}

// Keypress feeds one byte to the command-line loop.
func (in *Interpreter) Keypress(ch byte) (quit bool, err error) {
	return in.Loop.Keypress(ch)
}

// LoadFile opens path into a new buffer and mounts it.
func (in *Interpreter) LoadFile(path string) error {
	return in.Ring.Load(in.Ctx.PC(), path)
}

// SaveFile writes the mounted buffer to path.
func (in *Interpreter) SaveFile(path string) error {
	return in.Ring.Save(path)
}
