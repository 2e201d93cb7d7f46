// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgen2000/llst/analysis"
	"github.com/georgen2000/llst/bytecode"
	"github.com/georgen2000/llst/parse"
)

// checkGraph runs every structural invariant against a built graph. It
// is the acceptance bundle for the graph builder: any graph built from
// well-formed bytecode must pass all of it.
func checkGraph(t *testing.T, g *analysis.ControlGraph) {
	t.Helper()
	checkTerminators(t, g)
	checkDomainTerminators(t, g)
	checkBlockLinkage(t, g)
	checkEdgeCounts(t, g)
	checkNoOrphanEdges(t, g)
	checkConsumersAndProviders(t, g)
	checkPhiIncomings(t, g)
	checkInstructionRoundTrip(t, g)
}

// Every basic block is non-empty, ends in its only terminator.
func checkTerminators(t *testing.T, g *analysis.ControlGraph) {
	t.Helper()
	parse.WalkBasicBlocks(g.Scope(), func(bb *parse.BasicBlock) bool {
		require.NotZero(t, bb.Len(), "block %d must not be empty", bb.Offset())

		terminator, ok := bb.Terminator()
		assert.True(t, ok, "block %d must have a terminator", bb.Offset())
		assert.True(t, terminator.IsTerminator())

		last := bb.At(bb.Len() - 1)
		assert.Equal(t, last.Serialize(), terminator.Serialize(),
			"the last instruction of block %d must be its terminator", bb.Offset())

		for i := 0; i < bb.Len()-1; i++ {
			assert.False(t, bb.At(i).IsTerminator(),
				"block %d has a terminator before its last instruction", bb.Offset())
		}
		return true
	})
}

// Every domain has a terminator node wrapping a terminator instruction.
func checkDomainTerminators(t *testing.T, g *analysis.ControlGraph) {
	t.Helper()
	g.WalkDomains(func(d *analysis.Domain) bool {
		terminator := d.Terminator()
		if assert.NotNil(t, terminator, "domain %d must have a terminator", d.BasicBlock().Offset()) {
			assert.True(t, terminator.Instruction().IsTerminator())
		}
		assert.NotNil(t, d.EntryPoint(), "domain %d must have an entry point", d.BasicBlock().Offset())
		return true
	})
}

// Non-entry blocks have referers; branch out edges land on the entry
// points of the referenced blocks.
func checkBlockLinkage(t *testing.T, g *analysis.ControlGraph) {
	t.Helper()

	blocks := g.Scope().BasicBlocks()
	require.NotEmpty(t, blocks)
	entryBlock := blocks[0]
	for _, bb := range blocks {
		if bb != entryBlock {
			assert.NotEmpty(t, bb.Referers(),
				"every block but the first must have referers, block %d has none", bb.Offset())
		}
	}

	g.WalkNodes(func(n analysis.Node) bool {
		inst, ok := n.(*analysis.InstructionNode)
		if !ok || !inst.Instruction().IsBranch() {
			return true
		}
		branch := inst.Instruction()
		currentBB := inst.Domain().BasicBlock()
		outEdges := inst.OutEdges().Nodes()

		switch branch.Special() {
		case bytecode.BranchIfTrue, bytecode.BranchIfFalse:
			require.Len(t, outEdges, 2, "%s must have two out edges", branch)

			matches := 0
			for _, target := range outEdges {
				targetDomain := target.Domain()
				assert.Equal(t, analysis.Node(targetDomain.EntryPoint()), target,
					"branch targets must be domain entry points")
				if targetDomain.BasicBlock().Offset() == branch.Extra {
					matches++
				}
				assert.True(t, targetDomain.BasicBlock().HasReferer(currentBB),
					"the referers of branch targets must contain the current block")
			}
			assert.Equal(t, 1, matches, "%s must take exactly one of its targets", branch)

		case bytecode.Branch:
			require.Len(t, outEdges, 1, "%s must have one out edge", branch)
			targetDomain := outEdges[0].Domain()
			assert.Equal(t, analysis.Node(targetDomain.EntryPoint()), outEdges[0])
			assert.Equal(t, branch.Extra, targetDomain.BasicBlock().Offset(),
				"an unconditional branch must point exactly at its target")
			assert.True(t, targetDomain.BasicBlock().HasReferer(currentBB))
		}
		return true
	})
}

// Argument counts conform to the opcode table; providers are consumed;
// phis join and feed something; taus are never generated.
func checkEdgeCounts(t *testing.T, g *analysis.ControlGraph) {
	t.Helper()
	g.WalkAllNodes(func(n analysis.Node) bool {
		switch v := n.(type) {
		case *analysis.InstructionNode:
			inst := v.Instruction()
			want := -1
			switch inst.Opcode {
			case bytecode.PushInstance, bytecode.PushArgument, bytecode.PushTemporary,
				bytecode.PushLiteral, bytecode.PushConstant, bytecode.PushBlock:
				want = 0
			case bytecode.SendUnary, bytecode.AssignInstance, bytecode.AssignTemporary,
				bytecode.SendMessage:
				want = 1
			case bytecode.SendBinary:
				want = 2
			case bytecode.MarkArguments, bytecode.DoPrimitive:
				want = int(inst.Argument)
			case bytecode.DoSpecial:
				switch inst.Special() {
				case bytecode.StackReturn, bytecode.BlockReturn, bytecode.PopTop,
					bytecode.BranchIfTrue, bytecode.BranchIfFalse,
					bytecode.Duplicate, bytecode.SendToSuper:
					want = 1
				case bytecode.Branch, bytecode.SelfReturn:
					want = 0
				}
			}
			if want >= 0 {
				assert.Equal(t, want, v.ArgumentsCount(), "argument count of %s", inst)
			}

			if inst.IsValueProvider() && inst.Opcode != bytecode.PushBlock {
				assert.NotZero(t, v.Consumers().Len(), "%s must be consumed", inst)
			}

		case *analysis.PhiNode:
			assert.NotEmpty(t, v.Incomings(), "a phi must have at least one incoming")
			assert.NotZero(t, v.OutEdges().Len(), "there must be a node using the phi")

		case *analysis.TauNode:
			assert.Fail(t, "tau nodes are not generated yet")
		}
		return true
	})
}

// Every edge endpoint is a node the graph still owns.
func checkNoOrphanEdges(t *testing.T, g *analysis.ControlGraph) {
	t.Helper()
	owned := analysis.NodeSet{}
	for _, n := range g.Nodes() {
		owned.Add(n)
	}
	g.WalkAllNodes(func(n analysis.Node) bool {
		for _, out := range n.OutEdges().Nodes() {
			assert.True(t, owned.Contains(out),
				"node %d has an out edge to erased node %d", n.Index(), out.Index())
		}
		for _, in := range n.InEdges().Nodes() {
			assert.True(t, owned.Contains(in),
				"node %d has an in edge from erased node %d", n.Index(), in.Index())
		}
		return true
	})
}

// Consumer arguments reference value providers; phi in edges are never
// plain instruction nodes.
func checkConsumersAndProviders(t *testing.T, g *analysis.ControlGraph) {
	t.Helper()
	g.WalkAllNodes(func(n analysis.Node) bool {
		switch v := n.(type) {
		case *analysis.InstructionNode:
			if !v.Instruction().IsValueConsumer() {
				return true
			}
			for i := 0; i < v.ArgumentsCount(); i++ {
				arg := v.Argument(i)
				if provider, ok := arg.(*analysis.InstructionNode); ok {
					assert.True(t, provider.Instruction().IsValueProvider(),
						"%s should provide a value for %s",
						provider.Instruction(), v.Instruction())
				}
			}

		case *analysis.PhiNode:
			for _, in := range v.InEdges().Nodes() {
				_, isInstruction := in.(*analysis.InstructionNode)
				assert.False(t, isInstruction,
					"phi %d has a direct in edge from instruction %d", v.Index(), in.Index())
			}
		}
		return true
	})
}

// No phi carries the same incoming twice in a row.
func checkPhiIncomings(t *testing.T, g *analysis.ControlGraph) {
	t.Helper()
	g.WalkAllNodes(func(n analysis.Node) bool {
		phi, ok := n.(*analysis.PhiNode)
		if !ok {
			return true
		}
		incomings := phi.Incomings()
		for i := 1; i < len(incomings); i++ {
			assert.NotEqual(t, incomings[i-1].Value, incomings[i].Value,
				"the incomings of phi %d must differ between each other", phi.Index())
		}
		return true
	})
}

// Re-encoding and decoding each block's instructions reproduces the
// source sequence bit-exactly.
func checkInstructionRoundTrip(t *testing.T, g *analysis.ControlGraph) {
	t.Helper()
	parse.WalkBasicBlocks(g.Scope(), func(bb *parse.BasicBlock) bool {
		code := bytecode.Encode(bb.Instructions())
		r := bytecode.NewReader(code)

		var decoded []uint32
		for r.More() {
			in, err := r.Decode()
			require.NoError(t, err)
			decoded = append(decoded, in.Serialize())
		}

		source := make([]uint32, 0, bb.Len())
		for _, in := range bb.Instructions() {
			source = append(source, in.Serialize())
		}
		assert.Equal(t, source, decoded, "block %d does not round-trip", bb.Offset())
		return true
	})
}
