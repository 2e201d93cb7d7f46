// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when the instruction stream ends in the
// middle of an instruction.
var ErrTruncated = errors.New("bytecode: truncated instruction stream")

// InvalidOpcodeError is returned when the stream contains an opcode that
// is not part of the instruction set.
type InvalidOpcodeError struct {
	Opcode byte
	Offset uint16
}

func (e InvalidOpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode %d at offset %d", e.Opcode, e.Offset)
}

// Reader decodes a bytecode stream one instruction at a time, tracking
// the byte offset of each instruction.
type Reader struct {
	code []byte
	pos  int
}

func NewReader(code []byte) *Reader {
	return &Reader{code: code}
}

// Offset returns the byte offset the next Decode will start at.
func (r *Reader) Offset() uint16 {
	return uint16(r.pos)
}

// Seek repositions the reader at the given byte offset. Used to skip a
// nested block body that has been handed off to its own parser.
func (r *Reader) Seek(offset uint16) {
	r.pos = int(offset)
}

// More reports whether at least one more byte remains.
func (r *Reader) More() bool {
	return r.pos < len(r.code)
}

func (r *Reader) byte() (byte, error) {
	if r.pos >= len(r.code) {
		return 0, ErrTruncated
	}
	b := r.code[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) uint16() (uint16, error) {
	if r.pos+2 > len(r.code) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint16(r.code[r.pos:])
	r.pos += 2
	return v, nil
}

// Decode reads the next instruction. Branch targets, block end offsets
// and primitive numbers are decoded into the instruction extra.
func (r *Reader) Decode() (Instruction, error) {
	start := r.Offset()

	b, err := r.byte()
	if err != nil {
		return Instruction{}, err
	}

	opcode := Opcode(b >> 4)
	argument := b & 0x0f
	if opcode == Extended {
		opcode = Opcode(argument)
		if argument, err = r.byte(); err != nil {
			return Instruction{}, err
		}
	}

	instr := Instruction{Opcode: opcode, Argument: argument}

	switch opcode {
	case PushInstance, PushArgument, PushTemporary, PushLiteral, PushConstant,
		AssignInstance, AssignTemporary, MarkArguments, SendMessage,
		SendUnary, SendBinary:
		// No trailing bytes.

	case PushBlock:
		if instr.Extra, err = r.uint16(); err != nil {
			return Instruction{}, err
		}

	case DoPrimitive:
		primitive, err := r.byte()
		if err != nil {
			return Instruction{}, err
		}
		instr.Extra = uint16(primitive)

	case DoSpecial:
		switch instr.Special() {
		case Branch, BranchIfTrue, BranchIfFalse:
			if instr.Extra, err = r.uint16(); err != nil {
				return Instruction{}, err
			}
		}

	default:
		return Instruction{}, InvalidOpcodeError{Opcode: byte(opcode), Offset: start}
	}

	return instr, nil
}
