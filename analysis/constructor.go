// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"

	"github.com/georgen2000/llst/bytecode"
	"github.com/georgen2000/llst/parse"
)

// graphConstructor is phase 1: it visits basic blocks in offset order,
// creates an instruction node per instruction and tracks the abstract
// operand stack of each domain.
type graphConstructor struct {
	graph         *ControlGraph
	currentDomain *Domain
}

func (c *graphConstructor) run() {
	parse.WalkBasicBlocks(c.graph.Scope(), func(bb *parse.BasicBlock) bool {
		c.currentDomain = c.graph.DomainFor(bb)
		logger.Printf("constructor: block %d", bb.Offset())

		for _, instr := range bb.Instructions() {
			node := c.graph.newInstructionNode(instr)
			node.setDomain(c.currentDomain)
			c.currentDomain.AddNode(node)

			logger.Printf("constructor: node %d %s", node.Index(), instr)
			c.processNode(node)
		}
		return true
	})
}

func (c *graphConstructor) processNode(node *InstructionNode) {
	instr := node.Instruction()
	domain := c.currentDomain

	if domain.EntryPoint() == nil {
		domain.SetEntryPoint(node)
	}

	switch instr.Opcode {
	case bytecode.PushConstant,
		bytecode.PushLiteral,
		bytecode.PushArgument,
		bytecode.PushTemporary, // TODO link with a tau node
		bytecode.PushInstance:
		domain.PushValue(node)

	case bytecode.PushBlock:
		block, ok := c.graph.Method().BlockByEndOffset(instr.Extra)
		if !ok {
			panic(fmt.Sprintf("analysis: pushBlock references unknown end offset %d", instr.Extra))
		}
		node.SetParsedBlock(block)
		domain.PushValue(node)

	case bytecode.AssignTemporary, // TODO link with a tau node
		bytecode.AssignInstance:
		domain.RequestArgument(0, node, true)

	case bytecode.SendUnary, bytecode.SendMessage:
		domain.RequestArgument(0, node, false)
		domain.PushValue(node)

	case bytecode.SendBinary:
		domain.RequestArgument(1, node, false)
		domain.RequestArgument(0, node, false)
		domain.PushValue(node)

	case bytecode.MarkArguments:
		for index := int(instr.Argument) - 1; index >= 0; index-- {
			domain.RequestArgument(index, node, false)
		}
		domain.PushValue(node)

	case bytecode.DoSpecial:
		c.processSpecial(node)

	case bytecode.DoPrimitive:
		c.processPrimitive(node)
		domain.PushValue(node)
	}
}

func (c *graphConstructor) processSpecial(node *InstructionNode) {
	domain := c.currentDomain

	switch node.Instruction().Special() {
	case bytecode.StackReturn, bytecode.BlockReturn:
		domain.RequestArgument(0, node, false)
		domain.SetTerminator(node)

	case bytecode.SelfReturn:
		domain.SetTerminator(node)

	case bytecode.SendToSuper:
		domain.RequestArgument(0, node, false)
		domain.PushValue(node)

	case bytecode.Duplicate:
		domain.RequestArgument(0, node, true)
		domain.PushValue(node)

	case bytecode.PopTop:
		domain.RequestArgument(0, node, false)

	case bytecode.BranchIfTrue, bytecode.BranchIfFalse:
		domain.RequestArgument(0, node, false)
		domain.SetTerminator(node)

	case bytecode.Branch:
		domain.SetTerminator(node)
	}
}

func (c *graphConstructor) processPrimitive(node *InstructionNode) {
	instr := node.Instruction()
	domain := c.currentDomain

	switch bytecode.Primitive(instr.Extra) {
	case bytecode.PrimBlockInvoke:
		domain.RequestArgument(0, node, false) // block object
		// FIXME requesting slot 0 first pops the last block argument
		// into the block slot; the remaining slots shift accordingly.
		for index := int(instr.Argument) - 1; index > 0; index-- {
			domain.RequestArgument(index, node, false)
		}

	default:
		for index := int(instr.Argument) - 1; index >= 0; index-- {
			domain.RequestArgument(index, node, false)
		}
	}
}
