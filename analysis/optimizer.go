// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"

	"github.com/georgen2000/llst/bytecode"
)

// graphOptimizer is phase 3: trivial pushes whose value is never
// consumed, or consumed only by a popTop, are removed together with the
// popTop. Mutation is deferred to NodesVisited so the sweep sees a
// stable graph.
type graphOptimizer struct {
	graph         *ControlGraph
	nodesToRemove []Node
}

func (o *graphOptimizer) VisitNode(node Node) bool {
	instruction, ok := node.(*InstructionNode)
	if !ok {
		return true
	}

	instr := instruction.Instruction()
	if !instr.IsTrivial() || !instr.IsValueProvider() {
		return true
	}

	consumers := instruction.Consumers()
	switch consumers.Len() {
	case 0:
		logger.Printf("optimizer: node %d is not consumed, removing", instruction.Index())
		o.nodesToRemove = append(o.nodesToRemove, instruction)

	case 1:
		consumer, ok := consumers.Nodes()[0].(*InstructionNode)
		if !ok {
			return true
		}
		ci := consumer.Instruction()
		if ci.Opcode == bytecode.DoSpecial && ci.Special() == bytecode.PopTop {
			logger.Printf("optimizer: node %d is consumed only by popTop %d, removing both",
				instruction.Index(), consumer.Index())
			o.nodesToRemove = append(o.nodesToRemove, consumer, instruction)
		}
	}

	return true
}

func (o *graphOptimizer) NodesVisited() {
	for _, node := range o.nodesToRemove {
		switch v := node.(type) {
		case *InstructionNode:
			o.removeInstruction(v)
		case *PhiNode:
			o.removePhi(v)
		default:
			panic(fmt.Sprintf("analysis: cannot remove node %d", node.Index()))
		}
	}
}

// removePhi splices out a phi that degenerated to a single incoming
// after deletions, reconnecting its source to its consumer at the
// recorded phi index.
func (o *graphOptimizer) removePhi(phi *PhiNode) {
	if phi.InEdges().Len() != 1 {
		panic(fmt.Sprintf("analysis: degenerate phi %d must have one in edge", phi.Index()))
	}

	valueSource := phi.InEdges().Nodes()[0]
	valueTarget, ok := phi.OutEdges().Nodes()[0].(*InstructionNode)
	if !ok {
		panic(fmt.Sprintf("analysis: phi %d target is not an instruction", phi.Index()))
	}

	logger.Printf("optimizer: splicing phi %d, linking %d -> %d",
		phi.Index(), valueSource.Index(), valueTarget.Index())

	valueSource.RemoveEdge(phi)
	phi.RemoveEdge(valueTarget)
	valueSource.RemoveConsumer(phi)

	valueSource.AddConsumer(valueTarget)
	valueTarget.SetArgument(phi.PhiIndex(), valueSource)

	o.graph.eraseNode(phi)
}

// removeInstruction unlinks a dead trivial node: its in edges are
// remapped to its single successor and the domain entry point advances
// past it if needed.
func (o *graphOptimizer) removeInstruction(node *InstructionNode) {
	outEdges := node.OutEdges().Nodes()
	if len(outEdges) != 1 {
		panic(fmt.Sprintf("analysis: trivial node %d must have one out edge", node.Index()))
	}
	nextNode, ok := outEdges[0].(*InstructionNode)
	if !ok {
		panic(fmt.Sprintf("analysis: node %d successor is not an instruction", node.Index()))
	}

	domain := node.Domain()
	if domain.EntryPoint() == node {
		domain.SetEntryPoint(nextNode)
	}

	for _, sourceNode := range node.InEdges().Nodes() {
		logger.Printf("optimizer: remapping %d from %d to %d",
			sourceNode.Index(), node.Index(), nextNode.Index())
		sourceNode.RemoveEdge(node)
		sourceNode.AddEdge(nextNode)
	}

	for _, targetNode := range node.OutEdges().Nodes() {
		node.RemoveEdge(targetNode)
	}

	logger.Printf("optimizer: erasing node %d", node.Index())
	domain.RemoveNode(node)
	o.graph.eraseNode(node)
}
