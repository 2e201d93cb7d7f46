// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import (
	"encoding/binary"
)

// AppendTo appends the canonical byte encoding of the instruction:
// compact one-byte form when the argument fits a nibble, extended form
// otherwise, followed by the trailing bytes the opcode dictates.
func (i Instruction) AppendTo(out []byte) []byte {
	if i.Argument < 16 {
		out = append(out, byte(i.Opcode)<<4|i.Argument)
	} else {
		out = append(out, byte(Extended)<<4|byte(i.Opcode), i.Argument)
	}

	switch i.Opcode {
	case PushBlock:
		out = binary.LittleEndian.AppendUint16(out, i.Extra)
	case DoPrimitive:
		out = append(out, byte(i.Extra))
	case DoSpecial:
		if i.IsBranch() {
			out = binary.LittleEndian.AppendUint16(out, i.Extra)
		}
	}

	return out
}

// EncodedLen returns the number of bytes AppendTo emits for the
// instruction.
func (i Instruction) EncodedLen() int {
	n := 1
	if i.Argument >= 16 {
		n = 2
	}
	switch i.Opcode {
	case PushBlock:
		n += 2
	case DoPrimitive:
		n++
	case DoSpecial:
		if i.IsBranch() {
			n += 2
		}
	}
	return n
}

// Encode assembles a sequence of instructions into a bytecode stream.
// It is the inverse of decoding the stream instruction by instruction.
func Encode(instructions []Instruction) []byte {
	var out []byte
	for _, instr := range instructions {
		out = instr.AppendTo(out)
	}
	return out
}
