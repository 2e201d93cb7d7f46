// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"github.com/georgen2000/llst/bytecode"
)

// WalkBasicBlocks visits every basic block of the scope in offset order.
// Traversal stops early when fn returns false.
func WalkBasicBlocks(s Scope, fn func(*BasicBlock) bool) {
	for _, bb := range s.BasicBlocks() {
		if !fn(bb) {
			return
		}
	}
}

// WalkInstructions visits every instruction of the scope in stream
// order, block by block. Traversal stops early when fn returns false.
func WalkInstructions(s Scope, fn func(*BasicBlock, bytecode.Instruction) bool) {
	WalkBasicBlocks(s, func(bb *BasicBlock) bool {
		for _, instr := range bb.Instructions() {
			if !fn(bb, instr) {
				return false
			}
		}
		return true
	})
}
