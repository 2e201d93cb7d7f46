// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"
)

// graphLinker is phase 2: it connects referer terminators to entry
// points, resolves the argument requests queued during construction —
// inserting phi nodes at multi-predecessor joins — and finally makes
// sure every node is chained to a later node of its domain so the graph
// stays connected even where no stack dependency exists.
type graphLinker struct {
	graph         *ControlGraph
	currentDomain *Domain
	nodeToLink    Node
}

func (l *graphLinker) run() {
	for _, domain := range l.graph.Domains() {
		l.currentDomain = domain
		logger.Printf("linker: domain %d, referers %d, stack %d, requests %d",
			domain.BasicBlock().Offset(),
			len(domain.BasicBlock().Referers()),
			len(domain.LocalStack()),
			len(domain.RequestedArguments()),
		)

		l.processBranching()
		l.processArgumentRequests()

		for _, node := range domain.Nodes() {
			l.processNode(node)
		}
	}
}

// processBranching links the terminator of every referring domain to
// this domain's entry point.
func (l *graphLinker) processBranching() {
	entryPoint := l.currentDomain.EntryPoint()
	if entryPoint == nil {
		panic(fmt.Sprintf("analysis: block %d has no entry point", l.currentDomain.BasicBlock().Offset()))
	}

	for _, referer := range l.currentDomain.BasicBlock().Referers() {
		refererDomain := l.graph.DomainFor(referer)
		terminator := refererDomain.Terminator()
		if terminator == nil || !terminator.Instruction().IsBranch() {
			panic(fmt.Sprintf("analysis: referer block %d does not end in a branch", referer.Offset()))
		}

		logger.Printf("linker: branch edge %d -> %d", terminator.Index(), entryPoint.Index())
		terminator.AddEdge(entryPoint)
	}
}

func (l *graphLinker) processArgumentRequests() {
	for position, request := range l.currentDomain.RequestedArguments() {
		l.processRequest(l.currentDomain, position, request)
	}
}

// processRequest resolves one pending request. The queue position of
// the request, not its argument slot, is the depth at which the value
// sits in predecessor stacks.
func (l *graphLinker) processRequest(domain *Domain, position int, request ArgumentRequest) {
	requestingNode := request.RequestingNode
	argument := l.getRequestedNode(domain, position)

	logger.Printf("linker: node %d feeds argument %d of node %d",
		argument.Index(), request.Index, requestingNode.Index())

	requestingNode.SetArgument(request.Index, argument)
	argument.AddConsumer(requestingNode)

	// Only nodes of the same domain are chained directly; cross-domain
	// value flow rides the branch edges. Phis always get the edge.
	if phi, ok := argument.(*PhiNode); ok {
		phi.setPhiIndex(request.Index)
		argument.AddEdge(requestingNode)
	} else if argument.Domain() == requestingNode.Domain() {
		argument.AddEdge(requestingNode)
	}
}

// getRequestedNode walks the predecessor graph to find the node whose
// value sits at the given stack depth on entry to the domain. A single
// referer resolves directly; multiple referers aggregate their
// contributions through a fresh phi.
func (l *graphLinker) getRequestedNode(domain *Domain, argumentIndex int) Node {
	referers := domain.BasicBlock().Referers()
	singleReferer := len(referers) == 1

	var phi *PhiNode
	if !singleReferer {
		phi = l.graph.newPhiNode()
		phi.setDomain(domain)
	}

	var result Node
	for _, refererBlock := range referers {
		refererDomain := l.graph.DomainFor(refererBlock)
		stack := refererDomain.LocalStack()

		var value Node
		if argumentIndex > len(stack)-1 {
			// The referer's stack does not reach that deep; the value
			// was produced further up.
			value = l.getRequestedNode(refererDomain, argumentIndex-len(stack))
		} else {
			value = stack[len(stack)-1-argumentIndex]
		}

		if singleReferer {
			result = value
			continue
		}

		phi.AddIncoming(refererDomain, value)
		value.AddConsumer(phi)
		if _, ok := value.(*PhiNode); ok {
			value.AddEdge(phi)
		}
	}

	if !singleReferer {
		result = l.optimizePhi(phi)
	}
	if result == nil {
		panic(fmt.Sprintf("analysis: unresolved argument request in block %d", domain.BasicBlock().Offset()))
	}
	return result
}

// optimizePhi collapses a phi whose incomings all resolve to one value.
// That shape arises in diamonds where the value is produced above the
// split and consumed below the join; the value dominates the consumer,
// so the phi is redundant.
func (l *graphLinker) optimizePhi(phi *PhiNode) Node {
	incomings := phi.Incomings()
	if len(incomings) < 2 {
		panic(fmt.Sprintf("analysis: phi %d has fewer than two incoming values", phi.Index()))
	}

	uniqueValues := NodeSet{}
	for _, in := range incomings {
		uniqueValues.Add(in.Value)
	}

	logger.Printf("linker: phi %d has %d unique incoming values", phi.Index(), uniqueValues.Len())
	if uniqueValues.Len() > 1 {
		return phi
	}

	logger.Printf("linker: phi %d is redundant, removing", phi.Index())
	value := uniqueValues.Nodes()[0]
	value.RemoveConsumer(phi)
	value.RemoveEdge(phi)
	l.graph.eraseNode(phi)
	return value
}

// processNode keeps the graph connected: a non-terminator node with no
// out edge to a higher-indexed node of its own domain is linked to the
// next node visited.
func (l *graphLinker) processNode(node Node) {
	if l.nodeToLink != nil {
		logger.Printf("linker: control edge %d -> %d", l.nodeToLink.Index(), node.Index())
		l.nodeToLink.AddEdge(node)
		l.nodeToLink = nil
	}

	if instr, ok := node.(*InstructionNode); ok && instr.Instruction().IsTerminator() {
		return // terminators take care of themselves
	}

	for out := range node.OutEdges() {
		if out.Domain() == node.Domain() && out.Index() > node.Index() {
			return // node is chained, nothing to do
		}
	}
	l.nodeToLink = node
}
