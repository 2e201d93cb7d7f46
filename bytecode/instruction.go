// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import (
	"fmt"
)

// Instruction is one decoded bytecode instruction: an opcode, its
// argument and, for a few opcodes, a third field decoded from the bytes
// following the instruction (branch target, block end offset, primitive
// number). Instructions are immutable values.
type Instruction struct {
	Opcode   Opcode
	Argument uint8
	Extra    uint16
}

// Special returns the secondary opcode of a DoSpecial instruction.
func (i Instruction) Special() Special {
	return Special(i.Argument)
}

// IsBranch reports whether the instruction is one of the three branch
// specials.
func (i Instruction) IsBranch() bool {
	if i.Opcode != DoSpecial {
		return false
	}
	switch i.Special() {
	case Branch, BranchIfTrue, BranchIfFalse:
		return true
	}
	return false
}

// IsTerminator reports whether the instruction ends a basic block:
// any return-kind special or a branch.
func (i Instruction) IsTerminator() bool {
	if i.IsBranch() {
		return true
	}
	if i.Opcode != DoSpecial {
		return false
	}
	switch i.Special() {
	case SelfReturn, StackReturn, BlockReturn:
		return true
	}
	return false
}

// IsValueProvider reports whether the instruction leaves a value on the
// operand stack.
func (i Instruction) IsValueProvider() bool {
	switch i.Opcode {
	case PushInstance, PushArgument, PushTemporary, PushLiteral, PushConstant,
		PushBlock, MarkArguments, SendMessage, SendUnary, SendBinary, DoPrimitive:
		return true
	case DoSpecial:
		switch i.Special() {
		case Duplicate, SendToSuper:
			return true
		}
	}
	return false
}

// IsValueConsumer reports whether the instruction takes values from the
// operand stack.
func (i Instruction) IsValueConsumer() bool {
	switch i.Opcode {
	case AssignInstance, AssignTemporary, SendMessage, SendUnary, SendBinary:
		return true
	case DoSpecial:
		switch i.Special() {
		case StackReturn, BlockReturn, PopTop, BranchIfTrue, BranchIfFalse,
			Duplicate, SendToSuper:
			return true
		}
	}
	return false
}

// IsTrivial reports whether the instruction is a side-effect-free push
// whose only observable effect is the value it provides. Trivial
// providers with no consumers may be removed by the graph optimizer.
func (i Instruction) IsTrivial() bool {
	switch i.Opcode {
	case PushInstance, PushArgument, PushTemporary, PushLiteral, PushConstant:
		return true
	}
	return false
}

// Serialize packs the instruction into a bit-exact 32-bit encoding.
// Two instructions are the same instruction iff their serialized forms
// are equal.
func (i Instruction) Serialize() uint32 {
	return uint32(i.Opcode)<<24 | uint32(i.Argument)<<16 | uint32(i.Extra)
}

// String renders a stable textual form of the instruction, for
// diagnostics only.
func (i Instruction) String() string {
	switch i.Opcode {
	case SendUnary:
		return fmt.Sprintf("SendUnary %s", UnaryOp(i.Argument))
	case SendBinary:
		return fmt.Sprintf("SendBinary %s", BinaryOp(i.Argument))
	case PushBlock:
		return fmt.Sprintf("PushBlock %d (ends %d)", i.Argument, i.Extra)
	case DoPrimitive:
		return fmt.Sprintf("DoPrimitive %d (%d)", i.Extra, i.Argument)
	case DoSpecial:
		if i.IsBranch() {
			return fmt.Sprintf("DoSpecial %s %d", i.Special(), i.Extra)
		}
		return fmt.Sprintf("DoSpecial %s", i.Special())
	}
	return fmt.Sprintf("%s %d", i.Opcode, i.Argument)
}
