// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"sort"

	"github.com/georgen2000/llst/bytecode"
)

// BasicBlock is a maximal straight-line instruction sequence ending in a
// terminator. Its identity within a method is its byte offset.
type BasicBlock struct {
	offset       uint16
	offsets      []uint16
	instructions []bytecode.Instruction
	referers     map[*BasicBlock]struct{}
}

func newBasicBlock(offset uint16) *BasicBlock {
	return &BasicBlock{offset: offset, referers: map[*BasicBlock]struct{}{}}
}

func (bb *BasicBlock) append(offset uint16, instr bytecode.Instruction) {
	bb.offsets = append(bb.offsets, offset)
	bb.instructions = append(bb.instructions, instr)
}

func (bb *BasicBlock) addReferer(from *BasicBlock) {
	bb.referers[from] = struct{}{}
}

// Offset returns the byte offset of the block's first instruction.
func (bb *BasicBlock) Offset() uint16 {
	return bb.offset
}

// Len returns the number of instructions in the block.
func (bb *BasicBlock) Len() int {
	return len(bb.instructions)
}

// At returns the i-th instruction of the block.
func (bb *BasicBlock) At(i int) bytecode.Instruction {
	return bb.instructions[i]
}

// OffsetAt returns the byte offset of the i-th instruction.
func (bb *BasicBlock) OffsetAt(i int) uint16 {
	return bb.offsets[i]
}

// Instructions returns the block's instructions in stream order.
func (bb *BasicBlock) Instructions() []bytecode.Instruction {
	return bb.instructions
}

// Terminator returns the block's terminator. The second result is false
// when the block is empty or does not end in a terminator.
func (bb *BasicBlock) Terminator() (bytecode.Instruction, bool) {
	if len(bb.instructions) == 0 {
		return bytecode.Instruction{}, false
	}
	last := bb.instructions[len(bb.instructions)-1]
	if !last.IsTerminator() {
		return bytecode.Instruction{}, false
	}
	return last, true
}

// Referers returns the predecessor blocks that branch or fall through to
// this block, ordered by offset.
func (bb *BasicBlock) Referers() []*BasicBlock {
	out := make([]*BasicBlock, 0, len(bb.referers))
	for r := range bb.referers {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].offset < out[j].offset })
	return out
}

// HasReferer reports whether from is among the block's referers.
func (bb *BasicBlock) HasReferer(from *BasicBlock) bool {
	_, ok := bb.referers[from]
	return ok
}
