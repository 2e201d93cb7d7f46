// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"

	"github.com/georgen2000/llst/parse"
)

// ArgumentRequest is a deferred argument binding: the requesting node
// needs the value at the given argument slot, but the producing node
// lives in a predecessor block. The linker resolves pending requests in
// queue order against predecessor stacks.
type ArgumentRequest struct {
	Index          int
	RequestingNode *InstructionNode
	KeepValue      bool
}

// Domain is the per-basic-block analysis scope. It owns the block's
// instruction nodes, tracks the abstract operand stack while the block
// is constructed, and queues argument requests that could not be
// satisfied locally.
type Domain struct {
	basicBlock *parse.BasicBlock
	nodes      []Node
	entryPoint *InstructionNode
	terminator *InstructionNode
	localStack []Node
	requests   []ArgumentRequest
}

// BasicBlock returns the basic block this domain analyzes.
func (d *Domain) BasicBlock() *parse.BasicBlock {
	return d.basicBlock
}

// Nodes returns the domain's instruction nodes in creation order. Phi
// nodes belong to a domain but are not listed here; they are reached
// through the graph's node index.
func (d *Domain) Nodes() []Node {
	return d.nodes
}

// AddNode appends a node to the domain.
func (d *Domain) AddNode(n Node) {
	d.nodes = append(d.nodes, n)
}

// RemoveNode detaches a node from the domain.
func (d *Domain) RemoveNode(n Node) {
	for i, candidate := range d.nodes {
		if candidate == n {
			d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
			return
		}
	}
}

// EntryPoint returns the first instruction node of the domain.
func (d *Domain) EntryPoint() *InstructionNode {
	return d.entryPoint
}

// SetEntryPoint records the domain's entry. The optimizer re-points it
// when the original entry is deleted as dead.
func (d *Domain) SetEntryPoint(n *InstructionNode) {
	d.entryPoint = n
}

// Terminator returns the domain's sole terminator node.
func (d *Domain) Terminator() *InstructionNode {
	return d.terminator
}

// SetTerminator records the domain's terminator. A domain has exactly
// one; setting a second is a structural precondition violation.
func (d *Domain) SetTerminator(n *InstructionNode) {
	if d.terminator != nil {
		panic(fmt.Sprintf("analysis: block %d already has a terminator", d.basicBlock.Offset()))
	}
	d.terminator = n
}

// LocalStack returns the nodes pushed onto the abstract operand stack
// and not yet consumed within this block.
func (d *Domain) LocalStack() []Node {
	return d.localStack
}

// PushValue pushes a node onto the abstract operand stack.
func (d *Domain) PushValue(n Node) {
	d.localStack = append(d.localStack, n)
}

// RequestedArguments returns the pending argument requests in the order
// they were queued. The queue position doubles as the depth into
// predecessor stacks during linking.
func (d *Domain) RequestedArguments() []ArgumentRequest {
	return d.requests
}

// RequestArgument binds the node's argument at the given slot from the
// top of the local stack, popping it unless keepValue is set. When the
// stack is empty the request is queued for the linker; the value lives
// in a predecessor block.
//
// A satisfied consuming bind registers the requester as a consumer;
// keep-value binds (duplicate, assigns) do not, so a value read only
// that way still counts as dead for the optimizer.
func (d *Domain) RequestArgument(index int, node *InstructionNode, keepValue bool) {
	if len(d.localStack) == 0 {
		d.requests = append(d.requests, ArgumentRequest{
			Index:          index,
			RequestingNode: node,
			KeepValue:      keepValue,
		})
		return
	}

	argument := d.localStack[len(d.localStack)-1]
	if !keepValue {
		d.localStack = d.localStack[:len(d.localStack)-1]
		argument.AddConsumer(node)
	}
	node.SetArgument(index, argument)
}
