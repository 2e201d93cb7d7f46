// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

// NodeVisitor is a pass over control graph nodes. VisitNode returning
// false stops the traversal.
type NodeVisitor interface {
	VisitNode(Node) bool
}

// NodesVisitedHook is implemented by visitors that must defer mutation
// until the traversal has seen every node.
type NodesVisitedHook interface {
	NodesVisited()
}

// WalkDomains visits the graph's domains in basic-block offset order.
func (g *ControlGraph) WalkDomains(fn func(*Domain) bool) {
	for _, d := range g.Domains() {
		if !fn(d) {
			return
		}
	}
}

// WalkNodes visits each domain in offset order and its nodes in index
// order. Phi nodes are not listed in domain node lists; sweeps that
// must see them use WalkAllNodes.
func (g *ControlGraph) WalkNodes(fn func(Node) bool) {
	g.WalkDomains(func(d *Domain) bool {
		for _, n := range d.Nodes() {
			if !fn(n) {
				return false
			}
		}
		return true
	})
}

// WalkAllNodes visits every node the graph owns in index order,
// irrespective of domains.
func (g *ControlGraph) WalkAllNodes(fn func(Node) bool) {
	for _, n := range g.Nodes() {
		if !fn(n) {
			return
		}
	}
}

// RunNodeVisitor drives a visitor over the graph in domain order,
// invoking the post hook if the visitor has one.
func RunNodeVisitor(g *ControlGraph, v NodeVisitor) {
	g.WalkNodes(v.VisitNode)
	if hook, ok := v.(NodesVisitedHook); ok {
		hook.NodesVisited()
	}
}

// RunPlainNodeVisitor drives a visitor over every node of the graph in
// index order, invoking the post hook if the visitor has one. Global
// sweeps such as the optimizer use this form.
func RunPlainNodeVisitor(g *ControlGraph, v NodeVisitor) {
	// Snapshot so the post hook may erase nodes.
	nodes := make([]Node, len(g.nodes))
	copy(nodes, g.nodes)
	for _, n := range nodes {
		if !v.VisitNode(n) {
			break
		}
	}
	if hook, ok := v.(NodesVisitedHook); ok {
		hook.NodesVisited()
	}
}
