// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inference

import (
	"github.com/georgen2000/llst/analysis"
	"github.com/georgen2000/llst/bytecode"
	"github.com/georgen2000/llst/image"
)

// Analyzer interprets a built control graph abstractly, populating a
// type context. Sends other than the built-in unary and binary
// selectors widen to Polytype, so a single pass suffices; no fixed
// point is iterated yet.
//
// The well-known globals must be installed before an analyzer runs.
type Analyzer struct {
	graph   *analysis.ControlGraph
	context *Context
	visited map[analysis.Node]bool
}

// NewAnalyzer creates an analyzer for the graph. The argument types
// seed pushArgument instructions; pass nil when nothing is known about
// the arguments.
func NewAnalyzer(graph *analysis.ControlGraph, arguments []Type) *Analyzer {
	return &Analyzer{
		graph:   graph,
		context: NewContext(arguments),
		visited: map[analysis.Node]bool{},
	}
}

// Context returns the analyzer's type context.
func (a *Analyzer) Context() *Context {
	return a.context
}

// Run interprets the graph and returns the populated context. Nodes are
// visited in index order, with a node's arguments computed before the
// node itself; running again on an unchanged graph changes nothing.
func (a *Analyzer) Run() *Context {
	a.graph.WalkAllNodes(func(n analysis.Node) bool {
		a.process(n)
		return true
	})
	a.walkComplete()
	return a.context
}

// process computes the node's type after making sure the types it
// depends on exist. The visited set is marked up front, so dependency
// cycles (loop joins) terminate and read the in-flight node as
// Undefined.
func (a *Analyzer) process(n analysis.Node) {
	if a.visited[n] {
		return
	}
	a.visited[n] = true

	switch v := n.(type) {
	case *analysis.InstructionNode:
		for _, arg := range v.Arguments() {
			if arg != nil {
				a.process(arg)
			}
		}
		a.processInstruction(v)

	case *analysis.PhiNode:
		for _, in := range v.Incomings() {
			a.process(in.Value)
		}
		a.processPhi(v)

	case *analysis.TauNode:
		a.processTau(v)
	}
}

func (a *Analyzer) processInstruction(node *analysis.InstructionNode) {
	instr := node.Instruction()

	switch instr.Opcode {
	case bytecode.PushArgument:
		a.context.SetType(node, a.context.Argument(int(instr.Argument)))

	case bytecode.PushConstant:
		a.doPushConstant(node)

	case bytecode.PushLiteral:
		a.doPushLiteral(node)

	case bytecode.MarkArguments:
		a.doMarkArguments(node)

	case bytecode.SendUnary:
		a.doSendUnary(node)

	case bytecode.SendBinary:
		a.doSendBinary(node)

	case bytecode.SendMessage:
		// For now any method call may answer anything.
		a.context.SetType(node, NewPolytype())
	}
}

func (a *Analyzer) doPushConstant(node *analysis.InstructionNode) {
	argument := node.Instruction().Argument
	g := image.Globals()

	var result Type
	switch {
	case argument <= 9:
		result = NewLiteral(image.SmallInt(argument))
	case argument == bytecode.NilConst:
		result = NewLiteral(g.NilObject)
	case argument == bytecode.TrueConst:
		result = NewLiteral(g.TrueObject)
	case argument == bytecode.FalseConst:
		result = NewLiteral(g.FalseObject)
	default:
		logger.Printf("unknown push constant %d", argument)
		result.Reset()
	}

	a.context.SetType(node, result)
}

func (a *Analyzer) doPushLiteral(node *analysis.InstructionNode) {
	method := a.graph.Method().Origin()
	argument := int(node.Instruction().Argument)

	if argument >= len(method.Literals) {
		logger.Printf("push literal %d out of range", argument)
		a.context.SetType(node, Type{})
		return
	}
	a.context.SetType(node, NewLiteral(method.Literals[argument]))
}

func (a *Analyzer) doSendUnary(node *analysis.InstructionNode) {
	argType := a.context.TypeOf(node.Argument(0))
	opcode := bytecode.UnaryOp(node.Instruction().Argument)
	g := image.Globals()

	var result Type
	switch argType.Kind() {
	case KindLiteral, KindMonotype:
		// The exact value or class is known, the answer folds to a
		// boolean literal.
		isValueNil := argType.Value() == g.NilObject ||
			argType.Value() == g.NilObject.Class()

		answer := isValueNil
		if opcode == bytecode.UnaryNotNil {
			answer = !isValueNil
		}
		if answer {
			result = NewLiteral(g.TrueObject)
		} else {
			result = NewLiteral(g.FalseObject)
		}

	case KindComposite, KindArray:
		// TODO repeat the procedure over each subtype
		result = NewPolytype()

	default:
		// isNil and notNil always answer a Boolean.
		result = NewMonotype(g.TrueObject.Class().Class())
	}

	a.context.SetType(node, result)
}

func (a *Analyzer) doSendBinary(node *analysis.InstructionNode) {
	type1 := a.context.TypeOf(node.Argument(0))
	type2 := a.context.TypeOf(node.Argument(1))
	opcode := bytecode.BinaryOp(node.Instruction().Argument)
	g := image.Globals()

	var result Type

	if image.IsSmallInteger(type1.Value()) && image.IsSmallInteger(type2.Value()) {
		leftOperand := int32(type1.Value().(image.SmallInt))
		rightOperand := int32(type2.Value().(image.SmallInt))

		switch opcode {
		case bytecode.BinaryLess:
			result = literalBoolean(leftOperand < rightOperand)
		case bytecode.BinaryLessOrEq:
			result = literalBoolean(leftOperand <= rightOperand)
		case bytecode.BinaryPlus:
			result = NewLiteral(image.SmallInt(leftOperand + rightOperand))
		default:
			logger.Printf("invalid opcode %d passed to sendBinary", opcode)
		}

		a.context.SetType(node, result)
		return
	}

	// Literal small int or the SmallInt monotype.
	isInt1 := image.IsSmallInteger(type1.Value()) || type1.Value() == g.SmallIntClass
	isInt2 := image.IsSmallInteger(type2.Value()) || type2.Value() == g.SmallIntClass

	if isInt1 && isInt2 {
		switch opcode {
		case bytecode.BinaryLess, bytecode.BinaryLessOrEq:
			result = NewMonotype(g.TrueObject.Class().Class())
		case bytecode.BinaryPlus:
			result = NewMonotype(g.SmallIntClass)
		default:
			logger.Printf("invalid opcode %d passed to sendBinary", opcode)
			result.Reset()
		}

		a.context.SetType(node, result)
		return
	}

	a.context.SetType(node, NewPolytype())
}

func (a *Analyzer) doMarkArguments(node *analysis.InstructionNode) {
	subTypes := make([]Type, 0, node.ArgumentsCount())
	for _, arg := range node.Arguments() {
		argType := a.context.TypeOf(arg)
		if argType.Kind() == KindUndefined || argType.Kind() == KindPolytype {
			// Nothing useful is known about the elements.
			a.context.SetType(node, NewMonotype(image.Globals().ArrayClass))
			return
		}
		subTypes = append(subTypes, argType)
	}

	a.context.SetType(node, NewArray(subTypes))
}

func (a *Analyzer) processPhi(phi *analysis.PhiNode) {
	var result Type
	for _, value := range phi.RealValues().Nodes() {
		a.process(value)
		result.AddSubType(a.context.TypeOf(value))
	}
	result.SetKind(KindComposite)
	a.context.SetType(phi, result)
}

func (a *Analyzer) processTau(tau *analysis.TauNode) {
	a.context.SetType(tau, NewPolytype())
}

// walkComplete is the hook for future fixed-point iteration once sends
// stop widening everything to Polytype.
func (a *Analyzer) walkComplete() {
}

func literalBoolean(v bool) Type {
	g := image.Globals()
	if v {
		return NewLiteral(g.TrueObject)
	}
	return NewLiteral(g.FalseObject)
}
