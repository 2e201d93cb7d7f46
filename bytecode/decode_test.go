// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/georgen2000/llst/bytecode"
)

func TestDecode(t *testing.T) {
	for _, test := range []struct {
		name string
		code []byte
		want []bytecode.Instruction
	}{
		{
			name: "compact pushes",
			code: []byte{0x52, 0x30, 0x11},
			want: []bytecode.Instruction{
				{Opcode: bytecode.PushConstant, Argument: 2},
				{Opcode: bytecode.PushTemporary, Argument: 0},
				{Opcode: bytecode.PushInstance, Argument: 1},
			},
		},
		{
			name: "extended argument",
			code: []byte{0x04, 200},
			want: []bytecode.Instruction{
				{Opcode: bytecode.PushLiteral, Argument: 200},
			},
		},
		{
			name: "branch carries a little-endian target",
			code: []byte{0xF6, 0x34, 0x12},
			want: []bytecode.Instruction{
				{Opcode: bytecode.DoSpecial, Argument: uint8(bytecode.Branch), Extra: 0x1234},
			},
		},
		{
			name: "conditional branch",
			code: []byte{0xF8, 0x0A, 0x00},
			want: []bytecode.Instruction{
				{Opcode: bytecode.DoSpecial, Argument: uint8(bytecode.BranchIfFalse), Extra: 10},
			},
		},
		{
			name: "push block carries its end offset",
			code: []byte{0xC1, 0x07, 0x00},
			want: []bytecode.Instruction{
				{Opcode: bytecode.PushBlock, Argument: 1, Extra: 7},
			},
		},
		{
			name: "primitive number follows the instruction",
			code: []byte{0xD2, 0x08},
			want: []bytecode.Instruction{
				{Opcode: bytecode.DoPrimitive, Argument: 2, Extra: 8},
			},
		},
		{
			name: "plain specials have no trailing bytes",
			code: []byte{0xF1, 0xF5},
			want: []bytecode.Instruction{
				{Opcode: bytecode.DoSpecial, Argument: uint8(bytecode.SelfReturn)},
				{Opcode: bytecode.DoSpecial, Argument: uint8(bytecode.PopTop)},
			},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			r := bytecode.NewReader(test.code)
			var got []bytecode.Instruction
			for r.More() {
				instr, err := r.Decode()
				if err != nil {
					t.Fatalf("decode failed: %v", err)
				}
				got = append(got, instr)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("decoded instructions differ (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		code []byte
		err  error
	}{
		{
			name: "truncated extended",
			code: []byte{0x04},
			err:  bytecode.ErrTruncated,
		},
		{
			name: "truncated branch target",
			code: []byte{0xF6, 0x0A},
			err:  bytecode.ErrTruncated,
		},
		{
			name: "truncated primitive",
			code: []byte{0xD2},
			err:  bytecode.ErrTruncated,
		},
		{
			name: "unassigned opcode",
			code: []byte{0xE0},
			err:  bytecode.InvalidOpcodeError{Opcode: 14, Offset: 0},
		},
		{
			name: "extended extended",
			code: []byte{0x00, 0x05},
			err:  bytecode.InvalidOpcodeError{Opcode: 0, Offset: 0},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			r := bytecode.NewReader(test.code)
			_, err := r.Decode()
			if err == nil {
				t.Fatalf("expected error %v, got none", test.err)
			}
			var invalid bytecode.InvalidOpcodeError
			if errors.As(test.err, &invalid) {
				if err != test.err {
					t.Errorf("got err %v, want %v", err, test.err)
				}
			} else if !errors.Is(err, test.err) {
				t.Errorf("got err %v, want %v", err, test.err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	instrs := []bytecode.Instruction{
		{Opcode: bytecode.PushArgument, Argument: 0},
		{Opcode: bytecode.PushLiteral, Argument: 200},
		{Opcode: bytecode.SendBinary, Argument: uint8(bytecode.BinaryPlus)},
		{Opcode: bytecode.PushBlock, Argument: 1, Extra: 30},
		{Opcode: bytecode.DoPrimitive, Argument: 2, Extra: uint16(bytecode.PrimBlockInvoke)},
		{Opcode: bytecode.DoSpecial, Argument: uint8(bytecode.BranchIfTrue), Extra: 18},
		{Opcode: bytecode.DoSpecial, Argument: uint8(bytecode.StackReturn)},
	}

	code := bytecode.Encode(instrs)

	wantLen := 0
	for _, instr := range instrs {
		wantLen += instr.EncodedLen()
	}
	if len(code) != wantLen {
		t.Fatalf("encoded length: got %d, want %d", len(code), wantLen)
	}

	r := bytecode.NewReader(code)
	var got []bytecode.Instruction
	for r.More() {
		instr, err := r.Decode()
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		got = append(got, instr)
	}
	if diff := cmp.Diff(instrs, got); diff != "" {
		t.Errorf("round trip differs (-want +got):\n%s", diff)
	}
}
