// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package analysis lifts a parsed method's bytecode into a control
// graph: instruction, phi and tau nodes connected by control-flow and
// stack-value-flow edges, grouped into one domain per basic block.
package analysis

import (
	"sort"

	"github.com/georgen2000/llst/bytecode"
	"github.com/georgen2000/llst/parse"
)

// Node is a control graph node: an instruction, a phi or a tau. Nodes
// are created and owned by a ControlGraph and refer to each other by
// non-owning handles. Every node carries a unique index assigned in
// allocation order; ordered containers use it as a deterministic
// tie-break.
type Node interface {
	Index() int
	Domain() *Domain
	InEdges() NodeSet
	OutEdges() NodeSet
	Consumers() NodeSet
	AddEdge(to Node)
	RemoveEdge(to Node)
	AddConsumer(c Node)
	RemoveConsumer(c Node)

	setDomain(*Domain)
}

// NodeSet is an unordered set of nodes. Nodes returns its elements
// ordered by node index, so traversal over a set is deterministic.
type NodeSet map[Node]struct{}

func (s NodeSet) Add(n Node)           { s[n] = struct{}{} }
func (s NodeSet) Remove(n Node)        { delete(s, n) }
func (s NodeSet) Contains(n Node) bool { _, ok := s[n]; return ok }
func (s NodeSet) Len() int             { return len(s) }

func (s NodeSet) Nodes() []Node {
	out := make([]Node, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// node is the header common to all node variants.
type node struct {
	self      Node
	index     int
	domain    *Domain
	inEdges   NodeSet
	outEdges  NodeSet
	consumers NodeSet
}

func (n *node) init(index int, self Node) {
	n.index = index
	n.self = self
	n.inEdges = NodeSet{}
	n.outEdges = NodeSet{}
	n.consumers = NodeSet{}
}

func (n *node) Index() int          { return n.index }
func (n *node) Domain() *Domain     { return n.domain }
func (n *node) setDomain(d *Domain) { n.domain = d }
func (n *node) InEdges() NodeSet    { return n.inEdges }
func (n *node) OutEdges() NodeSet   { return n.outEdges }
func (n *node) Consumers() NodeSet  { return n.consumers }

// AddEdge adds a directed edge from this node to another.
func (n *node) AddEdge(to Node) {
	n.outEdges.Add(to)
	to.InEdges().Add(n.self)
}

// RemoveEdge removes the directed edge from this node to another.
func (n *node) RemoveEdge(to Node) {
	n.outEdges.Remove(to)
	to.InEdges().Remove(n.self)
}

// AddConsumer records a node that takes this node's value as an
// argument.
func (n *node) AddConsumer(c Node) { n.consumers.Add(c) }

// RemoveConsumer removes a recorded consumer.
func (n *node) RemoveConsumer(c Node) { n.consumers.Remove(c) }

// InstructionNode wraps one bytecode instruction. Its positional
// arguments are the nodes providing the values the instruction
// consumes. A pushBlock instruction additionally carries the parsed
// block its extra resolves to.
type InstructionNode struct {
	node
	instruction bytecode.Instruction
	arguments   []Node
	parsedBlock *parse.Block
}

// Instruction returns the wrapped instruction.
func (n *InstructionNode) Instruction() bytecode.Instruction {
	return n.instruction
}

// SetArgument records the node providing the instruction's i-th value,
// growing the argument list as needed.
func (n *InstructionNode) SetArgument(i int, v Node) {
	for len(n.arguments) <= i {
		n.arguments = append(n.arguments, nil)
	}
	n.arguments[i] = v
}

// Argument returns the node providing the instruction's i-th value.
func (n *InstructionNode) Argument(i int) Node {
	return n.arguments[i]
}

// ArgumentsCount returns the number of positional argument slots.
func (n *InstructionNode) ArgumentsCount() int {
	return len(n.arguments)
}

// Arguments returns the positional argument list.
func (n *InstructionNode) Arguments() []Node {
	return n.arguments
}

// ParsedBlock returns the nested block attached to a pushBlock node,
// or nil.
func (n *InstructionNode) ParsedBlock() *parse.Block {
	return n.parsedBlock
}

// SetParsedBlock attaches the nested block a pushBlock's extra resolves
// to.
func (n *InstructionNode) SetParsedBlock(b *parse.Block) {
	n.parsedBlock = b
}

// Incoming is one contribution to a phi: the value and the predecessor
// domain it arrives from.
type Incoming struct {
	Domain *Domain
	Value  Node
}

// PhiNode joins values arriving from multiple predecessor blocks. Its
// phi index records which argument slot of its single consumer it
// feeds, so a later collapse can splice the surviving value into the
// right slot.
type PhiNode struct {
	node
	incomings []Incoming
	phiIndex  int
}

// AddIncoming appends a contribution from a predecessor domain.
func (p *PhiNode) AddIncoming(d *Domain, v Node) {
	p.incomings = append(p.incomings, Incoming{Domain: d, Value: v})
}

// Incomings returns the contributions in the order they were collected.
func (p *PhiNode) Incomings() []Incoming {
	return p.incomings
}

// PhiIndex returns the consumer argument slot this phi feeds.
func (p *PhiNode) PhiIndex() int {
	return p.phiIndex
}

func (p *PhiNode) setPhiIndex(i int) {
	p.phiIndex = i
}

// RealValues resolves the phi's incoming values transitively through
// chained phis, deduplicated.
func (p *PhiNode) RealValues() NodeSet {
	values := NodeSet{}
	for _, in := range p.incomings {
		if phi, ok := in.Value.(*PhiNode); ok {
			for v := range phi.RealValues() {
				values.Add(v)
			}
		} else {
			values.Add(in.Value)
		}
	}
	return values
}

// TauNode is reserved for type-refinement joins over temporaries. The
// current pipeline never generates one.
type TauNode struct {
	node
	incomings NodeSet
}

// AddIncoming records a node contributing to the refinement.
func (t *TauNode) AddIncoming(n Node) {
	t.incomings.Add(n)
}

// Incomings returns the contributing nodes.
func (t *TauNode) Incomings() NodeSet {
	return t.incomings
}
