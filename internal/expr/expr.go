// Package expr implements the arithmetic expression evaluator (spec
// C4): a two-stack, precedence-climbing calculator over signed
// integers, with brace scopes and a sign-prefix register.
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
package expr

import (
	"errors"

	"github.com/rcornwell/teco/internal/undo"
)

// Op tags the operator stack. Precedence is encoded in the upper
// nibble so a bare numeric comparison decides binding strength.
type Op uint8

const (
	OpNil Op = iota
	OpNew
	OpBrace
	OpNumber
	opPrecShift = 4
)

// Precedence-climbing binary operators, lowest to highest.
const (
	OpOr  Op = (1 << opPrecShift) | iota
	OpXor Op = (1 << opPrecShift) | iota
	OpAnd Op = (1 << opPrecShift) | iota
	OpAdd Op = (2 << opPrecShift) | iota
	OpSub Op = (2 << opPrecShift) | iota
	OpMul Op = (3 << opPrecShift) | iota
	OpDiv Op = (3 << opPrecShift) | iota
	OpMod Op = (3 << opPrecShift) | iota
	OpPow Op = (4 << opPrecShift) | iota
)

func precedence(op Op) int {
	return int(op >> opPrecShift)
}

var (
	ErrMissingOperand   = errors.New("missing operand")
	ErrDivByZero        = errors.New("division by zero")
	ErrRemByZero        = errors.New("remainder of division by zero")
	ErrNegPowOfZero     = errors.New("negative power of 0 is not defined")
	ErrMissingOpenBrace = errors.New("missing opening brace")
)

// Stack is the expression evaluator's state: two parallel stacks
// (numbers, operator tags), a sign register and a brace nesting
// level, all captured by undo so rub-out restores them exactly.
type Stack struct {
	numbers   []Int
	operators []Op
	sign      Int
	braceLvl  uint
	log       *undo.Log
}

// NewStack returns a Stack with sign reset to +1, backed by log for
// undo recording.
func NewStack(log *undo.Log) *Stack {
	return &Stack{sign: 1, log: log}
}

// SetSign sets the sign register, recording undo at pc.
func (s *Stack) SetSign(pc int, sign Int) {
	old := s.sign
	s.log.Push(pc, func(run bool) {
		if run {
			s.sign = old
		}
	})
	s.sign = sign
}

// Sign returns the current sign register value.
func (s *Stack) Sign() Int {
	return s.sign
}

// BraceLevel returns the current brace nesting depth.
func (s *Stack) BraceLevel() uint {
	return s.braceLvl
}

func (s *Stack) pushNumberRaw(pc int, n Int) {
	s.numbers = append(s.numbers, n)
	idx := len(s.numbers) - 1
	s.log.Push(pc, func(run bool) {
		if run {
			s.numbers = s.numbers[:idx]
		}
	})
}

func (s *Stack) popNumberRaw(pc int) Int {
	n := s.numbers[len(s.numbers)-1]
	s.numbers = s.numbers[:len(s.numbers)-1]
	s.log.Push(pc, func(run bool) {
		if run {
			s.numbers = append(s.numbers, n)
		}
	})
	return n
}

func (s *Stack) pushOpRaw(pc int, op Op) {
	s.operators = append(s.operators, op)
	idx := len(s.operators) - 1
	s.log.Push(pc, func(run bool) {
		if run {
			s.operators = s.operators[:idx]
		}
	})
}

func (s *Stack) popOpRaw(pc int) Op {
	if len(s.operators) == 0 {
		return OpNil
	}
	op := s.operators[len(s.operators)-1]
	s.operators = s.operators[:len(s.operators)-1]
	s.log.Push(pc, func(run bool) {
		if run {
			s.operators = append(s.operators, op)
		}
	})
	return op
}

func (s *Stack) peekOp(index int) Op {
	i := len(s.operators) - 1 - index
	if i < 0 || i >= len(s.operators) {
		return OpNil
	}
	return s.operators[i]
}

// PushInt pushes a number onto the stack, applying and resetting the
// sign register, and collapsing any dangling NEW markers first.
func (s *Stack) PushInt(pc int, n Int) {
	for len(s.operators) > 0 && s.peekOp(0) == OpNew {
		s.popOpRaw(pc)
	}
	s.pushOpRaw(pc, OpNumber)
	if s.sign < 0 {
		s.SetSign(pc, 1)
		n = -n
	}
	s.pushNumberRaw(pc, n)
}

// MarkArg pushes a transparent argument-separator marker (the comma
// command): it keeps firstOp's operator search passing through it like
// a NUMBER tag, but breaks Args()'s contiguous-NUMBER count so two
// numbers typed back to back (e.g. "5,6") are not merged by digit
// accumulation into one.
func (s *Stack) MarkArg(pc int) {
	s.pushOpRaw(pc, OpNew)
}

// firstOp returns the index (from the top) of the first operator that
// is neither NUMBER nor NEW, or -1 if there is none.
func (s *Stack) firstOp() int {
	for i := 0; i < len(s.operators); i++ {
		switch s.peekOp(i) {
		case OpNumber, OpNew:
		default:
			return i
		}
	}
	return -1
}

// Args returns the count of NUMBER tags contiguous from the top of
// the operator stack, i.e. the available argument count at the
// current precedence floor.
func (s *Stack) Args() int {
	n := 0
	for n < len(s.operators) && s.peekOp(n) == OpNumber {
		n++
	}
	return n
}

// PopNum pops the argument at index (0 = topmost). The caller must
// have already verified via Args()/Eval() that the number exists.
func (s *Stack) PopNum(pc int, index int) Int {
	s.popOpRaw(pc)
	if len(s.numbers) == 0 {
		return 0
	}
	i := len(s.numbers) - 1 - index
	n := s.numbers[i]
	s.numbers = append(s.numbers[:i], s.numbers[i+1:]...)
	s.log.Push(pc, func(run bool) {
		if run {
			s.numbers = append(s.numbers, 0)
			copy(s.numbers[i+1:], s.numbers[i:])
			s.numbers[i] = n
		}
	})
	return n
}

// PopNumCalc evaluates pending operators and returns the top argument,
// or imply if the stack holds none at the current precedence floor.
func (s *Stack) PopNumCalc(pc int, imply Int) (Int, error) {
	if err := s.Eval(pc, false); err != nil {
		return 0, err
	}
	if s.sign < 0 {
		s.SetSign(pc, 1)
	}
	if s.Args() > 0 {
		return s.PopNum(pc, 0), nil
	}
	return imply, nil
}

func (s *Stack) calc(pc int) error {
	if len(s.operators) == 0 || s.peekOp(0) != OpNumber {
		return ErrMissingOperand
	}
	right := s.PopNum(pc, 0)
	op := s.popOpRaw(pc)
	if len(s.operators) == 0 || s.peekOp(0) != OpNumber {
		return ErrMissingOperand
	}
	left := s.PopNum(pc, 0)

	result, err := apply(op, left, right)
	if err != nil {
		return err
	}
	s.PushInt(pc, result)
	return nil
}

func apply(op Op, left, right Int) (Int, error) {
	switch op {
	case OpPow:
		return pow(left, right)
	case OpMul:
		return left * right, nil
	case OpDiv:
		if right == 0 {
			return 0, ErrDivByZero
		}
		return left / right, nil
	case OpMod:
		if right == 0 {
			return 0, ErrRemByZero
		}
		return left % right, nil
	case OpAdd:
		return left + right, nil
	case OpSub:
		return left - right, nil
	case OpAnd:
		return left & right, nil
	case OpXor:
		return left ^ right, nil
	case OpOr:
		return left | right, nil
	default:
		return 0, ErrMissingOperand
	}
}

// pow implements the `**` semantics spec.md §4.3 documents as the
// live (C) behavior, resolving the original implementation's
// otherwise-ambiguous negative-exponent case (SPEC_FULL.md §E).
func pow(left, right Int) (Int, error) {
	if right == 0 {
		if left < 0 {
			return -1, nil
		}
		return 1, nil
	}
	if right < 0 {
		if left == 0 {
			return 0, ErrNegPowOfZero
		}
		if abs(left) == 1 {
			return left, nil
		}
		return 0, nil
	}
	result := Int(1)
	for {
		if right&1 != 0 {
			result *= left
		}
		right >>= 1
		if right == 0 {
			break
		}
		left *= left
	}
	return result, nil
}

func abs(v Int) Int {
	if v < 0 {
		return -v
	}
	return v
}

// PushOp folds the operator stack down to op's precedence, then
// pushes op.
func (s *Stack) PushOp(pc int, op Op) error {
	for {
		first := s.firstOp()
		if first < 0 || precedence(op) > precedence(s.peekOp(first)) {
			break
		}
		if err := s.calc(pc); err != nil {
			return err
		}
	}
	s.pushOpRaw(pc, op)
	return nil
}

// Eval folds every pending operation on top of the stack. If
// popBrace is true and the current scope's BRACE tag is exposed, it
// is consumed too.
func (s *Stack) Eval(pc int, popBrace bool) error {
	for {
		n := s.firstOp()
		if n < 0 {
			break
		}
		if s.peekOp(n) == OpBrace {
			if popBrace {
				s.popOpRaw(pc)
			}
			break
		}
		if n < 1 {
			break
		}
		if err := s.calc(pc); err != nil {
			return err
		}
	}
	return nil
}

// DiscardArgs evaluates and pops every argument on top of the stack,
// leaving it clean at the current precedence floor.
func (s *Stack) DiscardArgs(pc int) error {
	if err := s.Eval(pc, false); err != nil {
		return err
	}
	for n := s.Args(); n > 0; n-- {
		if _, err := s.PopNumCalc(pc, 0); err != nil {
			return err
		}
	}
	return nil
}

// BraceOpen pushes a brace scope.
func (s *Stack) BraceOpen(pc int) {
	for len(s.operators) > 0 && s.peekOp(0) == OpNew {
		s.popOpRaw(pc)
	}
	s.pushOpRaw(pc, OpBrace)
	old := s.braceLvl
	s.braceLvl++
	s.log.Push(pc, func(run bool) {
		if run {
			s.braceLvl = old
		}
	})
}

// BraceClose folds the innermost brace scope, requiring one to be open.
func (s *Stack) BraceClose(pc int) error {
	if s.braceLvl == 0 {
		return ErrMissingOpenBrace
	}
	old := s.braceLvl
	s.braceLvl--
	s.log.Push(pc, func(run bool) {
		if run {
			s.braceLvl = old
		}
	})
	return s.Eval(pc, true)
}

// BraceReturn saves the top args numbers, discards scopes down to
// keepBraces, then restores the saved numbers — the "macro returns a
// tuple" mechanism (spec §4.3).
func (s *Stack) BraceReturn(pc int, keepBraces uint, args int) error {
	returned := make([]Int, args)
	for i := args - 1; i >= 0; i-- {
		returned[i] = s.PopNum(pc, 0)
	}

	old := s.braceLvl
	s.log.Push(pc, func(run bool) {
		if run {
			s.braceLvl = old
		}
	})

	for s.braceLvl > keepBraces {
		if err := s.DiscardArgs(pc); err != nil {
			return err
		}
		if err := s.Eval(pc, true); err != nil {
			return err
		}
		s.braceLvl--
	}

	for _, v := range returned {
		s.PushInt(pc, v)
	}
	return nil
}

// Clear resets both stacks and the brace level without undo — used
// only at command-line termination, after the undo log itself has
// been cleared (spec §4.9 step 4).
func (s *Stack) Clear() {
	s.numbers = s.numbers[:0]
	s.operators = s.operators[:0]
	s.braceLvl = 0
}

const formatBufLen = 80

// Format renders number in the given radix the way the `\` command
// does, returning the formatted digits (no leading/trailing padding).
func Format(number Int, radix Int) string {
	if radix < 2 {
		radix = 10
	}
	buf := make([]byte, formatBufLen)
	p := formatBufLen
	v := number
	for {
		digit := byte(abs(v % radix))
		p--
		if digit > 9 {
			buf[p] = 'A' + digit - 10
		} else {
			buf[p] = '0' + digit
		}
		v /= radix
		if v == 0 {
			break
		}
	}
	if number < 0 {
		p--
		buf[p] = '-'
	}
	return string(buf[p:])
}
