// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode_test

import (
	"testing"

	"github.com/georgen2000/llst/bytecode"
)

func special(s bytecode.Special, extra uint16) bytecode.Instruction {
	return bytecode.Instruction{
		Opcode:   bytecode.DoSpecial,
		Argument: uint8(s),
		Extra:    extra,
	}
}

func TestPredicates(t *testing.T) {
	for _, test := range []struct {
		instr      bytecode.Instruction
		terminator bool
		branch     bool
		provider   bool
		consumer   bool
		trivial    bool
	}{
		{
			instr:    bytecode.Instruction{Opcode: bytecode.PushInstance, Argument: 1},
			provider: true,
			trivial:  true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.PushArgument},
			provider: true,
			trivial:  true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.PushTemporary, Argument: 2},
			provider: true,
			trivial:  true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.PushLiteral, Argument: 3},
			provider: true,
			trivial:  true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.PushConstant, Argument: 5},
			provider: true,
			trivial:  true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.PushBlock, Extra: 20},
			provider: true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.AssignInstance, Argument: 1},
			consumer: true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.AssignTemporary, Argument: 1},
			consumer: true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.MarkArguments, Argument: 2},
			provider: true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.SendMessage, Argument: 1},
			provider: true,
			consumer: true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.SendUnary},
			provider: true,
			consumer: true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.SendBinary, Argument: 2},
			provider: true,
			consumer: true,
		},
		{
			instr:    bytecode.Instruction{Opcode: bytecode.DoPrimitive, Argument: 2, Extra: 8},
			provider: true,
		},
		{
			instr:      special(bytecode.SelfReturn, 0),
			terminator: true,
		},
		{
			instr:      special(bytecode.StackReturn, 0),
			terminator: true,
			consumer:   true,
		},
		{
			instr:      special(bytecode.BlockReturn, 0),
			terminator: true,
			consumer:   true,
		},
		{
			instr:    special(bytecode.Duplicate, 0),
			provider: true,
			consumer: true,
		},
		{
			instr:    special(bytecode.PopTop, 0),
			consumer: true,
		},
		{
			instr:      special(bytecode.Branch, 10),
			terminator: true,
			branch:     true,
		},
		{
			instr:      special(bytecode.BranchIfTrue, 10),
			terminator: true,
			branch:     true,
			consumer:   true,
		},
		{
			instr:      special(bytecode.BranchIfFalse, 10),
			terminator: true,
			branch:     true,
			consumer:   true,
		},
		{
			instr:    special(bytecode.SendToSuper, 0),
			provider: true,
			consumer: true,
		},
		{
			instr: special(bytecode.Breakpoint, 0),
		},
	} {
		t.Run(test.instr.String(), func(t *testing.T) {
			if got := test.instr.IsTerminator(); got != test.terminator {
				t.Errorf("IsTerminator: got %v, want %v", got, test.terminator)
			}
			if got := test.instr.IsBranch(); got != test.branch {
				t.Errorf("IsBranch: got %v, want %v", got, test.branch)
			}
			if got := test.instr.IsValueProvider(); got != test.provider {
				t.Errorf("IsValueProvider: got %v, want %v", got, test.provider)
			}
			if got := test.instr.IsValueConsumer(); got != test.consumer {
				t.Errorf("IsValueConsumer: got %v, want %v", got, test.consumer)
			}
			if got := test.instr.IsTrivial(); got != test.trivial {
				t.Errorf("IsTrivial: got %v, want %v", got, test.trivial)
			}
		})
	}
}

func TestSerialize(t *testing.T) {
	a := bytecode.Instruction{Opcode: bytecode.SendBinary, Argument: 2}
	b := bytecode.Instruction{Opcode: bytecode.SendBinary, Argument: 2}
	c := bytecode.Instruction{Opcode: bytecode.SendBinary, Argument: 1}

	if a.Serialize() != b.Serialize() {
		t.Errorf("equal instructions must serialize equally")
	}
	if a.Serialize() == c.Serialize() {
		t.Errorf("distinct instructions must serialize differently")
	}

	branch := special(bytecode.Branch, 0x1234)
	want := uint32(15)<<24 | uint32(bytecode.Branch)<<16 | 0x1234
	if got := branch.Serialize(); got != want {
		t.Errorf("Serialize: got %#x, want %#x", got, want)
	}
}
