// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"sort"

	"github.com/georgen2000/llst/bytecode"
	"github.com/georgen2000/llst/parse"
)

// ControlGraph owns the nodes and domains built for one scope: a
// method's top-level bytecode or the body of one nested block. Nested
// blocks get their own independent graphs; the only tie between them is
// the pushBlock node in the outer graph.
type ControlGraph struct {
	method *parse.Method
	block  *parse.Block
	scope  parse.Scope

	nodes     []Node
	lastIndex int
	domains   map[*parse.BasicBlock]*Domain
	built     bool
}

// NewGraph creates an empty control graph over the method's top-level
// scope.
func NewGraph(m *parse.Method) *ControlGraph {
	return &ControlGraph{
		method:  m,
		scope:   m,
		domains: map[*parse.BasicBlock]*Domain{},
	}
}

// NewBlockGraph creates an empty control graph over one nested block of
// the method.
func NewBlockGraph(m *parse.Method, b *parse.Block) *ControlGraph {
	return &ControlGraph{
		method:  m,
		block:   b,
		scope:   b,
		domains: map[*parse.BasicBlock]*Domain{},
	}
}

// Method returns the parsed method the graph belongs to.
func (g *ControlGraph) Method() *parse.Method {
	return g.method
}

// Scope returns the instruction range the graph is built over: the
// method itself, or one nested block.
func (g *ControlGraph) Scope() parse.Scope {
	return g.scope
}

// ParsedBlock returns the nested block the graph is built over, or nil
// for a method-level graph.
func (g *ControlGraph) ParsedBlock() *parse.Block {
	return g.block
}

func (g *ControlGraph) nextIndex() int {
	index := g.lastIndex
	g.lastIndex++
	return index
}

func (g *ControlGraph) newInstructionNode(instr bytecode.Instruction) *InstructionNode {
	n := &InstructionNode{instruction: instr}
	n.node.init(g.nextIndex(), n)
	g.nodes = append(g.nodes, n)
	return n
}

func (g *ControlGraph) newPhiNode() *PhiNode {
	n := &PhiNode{}
	n.node.init(g.nextIndex(), n)
	g.nodes = append(g.nodes, n)
	return n
}

func (g *ControlGraph) eraseNode(n Node) {
	for i, candidate := range g.nodes {
		if candidate == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			return
		}
	}
}

// DomainFor returns the domain analyzing the basic block, creating it
// on first use.
func (g *ControlGraph) DomainFor(bb *parse.BasicBlock) *Domain {
	if d, ok := g.domains[bb]; ok {
		return d
	}
	d := &Domain{basicBlock: bb}
	g.domains[bb] = d
	return d
}

// Domains returns the graph's domains in basic-block offset order.
func (g *ControlGraph) Domains() []*Domain {
	out := make([]*Domain, 0, len(g.domains))
	for _, d := range g.domains {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].basicBlock.Offset() < out[j].basicBlock.Offset()
	})
	return out
}

// Nodes returns every node the graph owns, in index order.
func (g *ControlGraph) Nodes() []Node {
	return g.nodes
}

// BuildGraph runs the three construction phases over the scope's basic
// blocks: node creation with abstract stack tracking, cross-block
// linking with phi insertion, and removal of dead pushes and degenerate
// phis. It must be called exactly once per graph.
func (g *ControlGraph) BuildGraph() {
	if g.built {
		panic("analysis: control graph already built")
	}
	g.built = true

	logger.Printf("phase 1: constructing control graph")
	constructor := &graphConstructor{graph: g}
	constructor.run()

	logger.Printf("phase 2: linking control graph")
	linker := &graphLinker{graph: g}
	linker.run()

	logger.Printf("phase 3: optimizing control graph")
	optimizer := &graphOptimizer{graph: g}
	RunPlainNodeVisitor(g, optimizer)
}
