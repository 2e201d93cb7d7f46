// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bytecode provides the instruction model for the Smalltalk
// bytecode set: opcode tables, instruction predicates and a streaming
// encoder/decoder.
package bytecode

// Opcode is the primary instruction code, carried in the high nibble of
// the first instruction byte (or in the low nibble when the high nibble
// is Extended).
type Opcode byte

const (
	Extended        Opcode = 0
	PushInstance    Opcode = 1
	PushArgument    Opcode = 2
	PushTemporary   Opcode = 3
	PushLiteral     Opcode = 4
	PushConstant    Opcode = 5
	AssignInstance  Opcode = 6
	AssignTemporary Opcode = 7
	MarkArguments   Opcode = 8
	SendMessage     Opcode = 9
	SendUnary       Opcode = 10
	SendBinary      Opcode = 11
	PushBlock       Opcode = 12
	DoPrimitive     Opcode = 13
	DoSpecial       Opcode = 15
)

var opcodeNames = map[Opcode]string{
	Extended:        "Extended",
	PushInstance:    "PushInstance",
	PushArgument:    "PushArgument",
	PushTemporary:   "PushTemporary",
	PushLiteral:     "PushLiteral",
	PushConstant:    "PushConstant",
	AssignInstance:  "AssignInstance",
	AssignTemporary: "AssignTemporary",
	MarkArguments:   "MarkArguments",
	SendMessage:     "SendMessage",
	SendUnary:       "SendUnary",
	SendBinary:      "SendBinary",
	PushBlock:       "PushBlock",
	DoPrimitive:     "DoPrimitive",
	DoSpecial:       "DoSpecial",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "Opcode(?)"
}

// Special is the secondary opcode of a DoSpecial instruction, carried in
// the instruction argument.
type Special uint8

const (
	SelfReturn    Special = 1
	StackReturn   Special = 2
	BlockReturn   Special = 3
	Duplicate     Special = 4
	PopTop        Special = 5
	Branch        Special = 6
	BranchIfTrue  Special = 7
	BranchIfFalse Special = 8
	SendToSuper   Special = 11
	Breakpoint    Special = 12
)

var specialNames = map[Special]string{
	SelfReturn:    "selfReturn",
	StackReturn:   "stackReturn",
	BlockReturn:   "blockReturn",
	Duplicate:     "duplicate",
	PopTop:        "popTop",
	Branch:        "branch",
	BranchIfTrue:  "branchIfTrue",
	BranchIfFalse: "branchIfFalse",
	SendToSuper:   "sendToSuper",
	Breakpoint:    "breakpoint",
}

func (s Special) String() string {
	if name, ok := specialNames[s]; ok {
		return name
	}
	return "special(?)"
}

// Push constant codes, carried in the argument of PushConstant.
// Arguments 0 through 9 denote the small integers of the same value.
const (
	NilConst   uint8 = 10
	TrueConst  uint8 = 11
	FalseConst uint8 = 12
)

// UnaryOp is a built-in unary selector, carried in the argument of
// SendUnary.
type UnaryOp uint8

const (
	UnaryIsNil  UnaryOp = 0
	UnaryNotNil UnaryOp = 1
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryIsNil:
		return "isNil"
	case UnaryNotNil:
		return "notNil"
	}
	return "unary(?)"
}

// BinaryOp is a built-in binary selector, carried in the argument of
// SendBinary.
type BinaryOp uint8

const (
	BinaryLess     BinaryOp = 0
	BinaryLessOrEq BinaryOp = 1
	BinaryPlus     BinaryOp = 2
)

func (op BinaryOp) String() string {
	switch op {
	case BinaryLess:
		return "<"
	case BinaryLessOrEq:
		return "<="
	case BinaryPlus:
		return "+"
	}
	return "binary(?)"
}

// Primitive is the primitive number of a DoPrimitive instruction,
// carried in the instruction extra.
type Primitive uint8

const (
	PrimObjectsAreEqual   Primitive = 1
	PrimObjectClass       Primitive = 2
	PrimPutChar           Primitive = 3
	PrimObjectSize        Primitive = 4
	PrimArrayAtPut        Primitive = 5
	PrimAllocateObject    Primitive = 7
	PrimBlockInvoke       Primitive = 8
	PrimGetChar           Primitive = 9
	PrimSmallIntAdd       Primitive = 10
	PrimSmallIntDiv       Primitive = 11
	PrimSmallIntMod       Primitive = 12
	PrimSmallIntLess      Primitive = 13
	PrimSmallIntEqual     Primitive = 14
	PrimSmallIntMul       Primitive = 15
	PrimSmallIntSub       Primitive = 16
	PrimAllocateByteArray Primitive = 20
	PrimStringAt          Primitive = 21
	PrimStringAtPut       Primitive = 22
	PrimCloneByteObject   Primitive = 23
	PrimArrayAt           Primitive = 24
	PrimIntegerDiv        Primitive = 25
	PrimIntegerMod        Primitive = 26
	PrimIntegerAdd        Primitive = 27
	PrimIntegerMul        Primitive = 28
	PrimIntegerSub        Primitive = 29
	PrimIntegerLess       Primitive = 30
	PrimIntegerEqual      Primitive = 31
	PrimSmallIntBitOr     Primitive = 36
	PrimSmallIntBitAnd    Primitive = 37
	PrimSmallIntBitShift  Primitive = 39
)
