// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse lifts a compiled method's linear bytecode into a
// block-structured view: nested code blocks indexed by their offsets,
// and basic blocks with referer sets ready for control-graph
// construction.
package parse

import (
	"github.com/georgen2000/llst/bytecode"
	"github.com/georgen2000/llst/image"
)

// Scope is the common view of a decoded instruction range: an ordered
// sequence of basic blocks. Both Method and Block implement it.
type Scope interface {
	BasicBlocks() []*BasicBlock
}

// scope holds the basic blocks of one instruction range.
type scope struct {
	basicBlocks   []*BasicBlock
	blockByOffset map[uint16]*BasicBlock
}

// BasicBlocks returns the scope's basic blocks in offset order.
func (s *scope) BasicBlocks() []*BasicBlock {
	return s.basicBlocks
}

// BasicBlockByOffset returns the basic block starting at the given byte
// offset.
func (s *scope) BasicBlockByOffset(offset uint16) (*BasicBlock, bool) {
	bb, ok := s.blockByOffset[offset]
	return bb, ok
}

// Method is the decoded, block-structured view of a compiled method. It
// owns the top-level scope and every nested block, recursively.
type Method struct {
	scope
	origin        *image.Method
	blocks        []*Block
	blocksByStart map[uint16]*Block
	blocksByEnd   map[uint16]*Block
}

// Block is a nested code block: the half-open instruction range
// [StartOffset, StopOffset) within its method's bytecode. A block owns
// the basic blocks of its own range; they do not appear in the enclosing
// scope.
type Block struct {
	scope
	start uint16
	stop  uint16
}

// StartOffset returns the offset of the block's first instruction.
func (b *Block) StartOffset() uint16 { return b.start }

// StopOffset returns the offset one past the block's last instruction.
func (b *Block) StopOffset() uint16 { return b.stop }

// NewMethod decodes the method's bytecode, creating nested blocks for
// every pushBlock encountered, and partitions each scope into basic
// blocks.
func NewMethod(origin *image.Method) (*Method, error) {
	m := &Method{
		origin:        origin,
		blocksByStart: map[uint16]*Block{},
		blocksByEnd:   map[uint16]*Block{},
	}
	if err := m.scope.parse(m, origin.ByteCodes, 0, uint16(len(origin.ByteCodes))); err != nil {
		return nil, err
	}
	return m, nil
}

// Origin returns the compiled method this view was decoded from.
func (m *Method) Origin() *image.Method {
	return m.origin
}

// Blocks returns every nested block of the method, recursively.
func (m *Method) Blocks() []*Block {
	return m.blocks
}

// BlockByStartOffset returns the nested block whose body starts at the
// given offset.
func (m *Method) BlockByStartOffset(start uint16) (*Block, bool) {
	b, ok := m.blocksByStart[start]
	return b, ok
}

// BlockByEndOffset returns the nested block whose body ends at the given
// offset. The control-graph builder resolves pushBlock extras through
// this index.
func (m *Method) BlockByEndOffset(end uint16) (*Block, bool) {
	b, ok := m.blocksByEnd[end]
	return b, ok
}

func (m *Method) addBlock(b *Block) {
	m.blocks = append(m.blocks, b)
	m.blocksByStart[b.start] = b
	m.blocksByEnd[b.stop] = b
}

type instructionAt struct {
	offset uint16
	instr  bytecode.Instruction
}

// parse decodes [start, stop), spawning nested Block scopes for every
// pushBlock body, then splits the decoded range at terminators and
// branch targets and wires referer sets.
func (s *scope) parse(m *Method, code []byte, start, stop uint16) error {
	r := bytecode.NewReader(code)
	r.Seek(start)

	var instrs []instructionAt
	for r.Offset() < stop {
		offset := r.Offset()
		instr, err := r.Decode()
		if err != nil {
			return err
		}

		if instr.Opcode == bytecode.PushBlock {
			bodyStart := r.Offset()
			bodyEnd := instr.Extra
			if bodyEnd <= bodyStart || bodyEnd > stop {
				return BlockBoundsError{Start: bodyStart, Stop: bodyEnd}
			}
			child := &Block{start: bodyStart, stop: bodyEnd}
			if err := child.scope.parse(m, code, bodyStart, bodyEnd); err != nil {
				return err
			}
			m.addBlock(child)
			r.Seek(bodyEnd)
		}

		instrs = append(instrs, instructionAt{offset: offset, instr: instr})
	}

	return s.split(instrs)
}

func (s *scope) split(instrs []instructionAt) error {
	targets := map[uint16]bool{}
	for _, ia := range instrs {
		if ia.instr.IsBranch() {
			targets[ia.instr.Extra] = true
		}
	}

	s.blockByOffset = map[uint16]*BasicBlock{}
	var current *BasicBlock
	for _, ia := range instrs {
		if current != nil && targets[ia.offset] {
			// Falling into a branch target without a terminator.
			return MissingTerminatorError(current.offset)
		}
		if current == nil {
			current = newBasicBlock(ia.offset)
			s.basicBlocks = append(s.basicBlocks, current)
			s.blockByOffset[ia.offset] = current
		}
		current.append(ia.offset, ia.instr)
		if ia.instr.IsTerminator() {
			current = nil
		}
	}
	if current != nil {
		return MissingTerminatorError(current.offset)
	}

	return s.wireReferers()
}

func (s *scope) wireReferers() error {
	for i, bb := range s.basicBlocks {
		terminator, ok := bb.Terminator()
		if !ok || !terminator.IsBranch() {
			continue
		}

		target, ok := s.blockByOffset[terminator.Extra]
		if !ok {
			return UnknownBranchTargetError{Target: terminator.Extra, From: bb.offset}
		}
		target.addReferer(bb)

		switch terminator.Special() {
		case bytecode.BranchIfTrue, bytecode.BranchIfFalse:
			if i+1 >= len(s.basicBlocks) {
				return MissingTerminatorError(bb.offset)
			}
			s.basicBlocks[i+1].addReferer(bb)
		}
	}
	return nil
}
