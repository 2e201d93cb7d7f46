// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inference

import (
	"github.com/georgen2000/llst/analysis"
)

// Context is the result of one analyzer run: a map from node identity
// to inferred type, plus the positional argument types of the method
// under analysis.
type Context struct {
	types     map[analysis.Node]Type
	arguments []Type
}

// NewContext creates an empty context over the given method argument
// types.
func NewContext(arguments []Type) *Context {
	return &Context{
		types:     map[analysis.Node]Type{},
		arguments: arguments,
	}
}

// TypeOf returns the inferred type of the node. Nodes the analyzer has
// not reached read as Undefined.
func (c *Context) TypeOf(n analysis.Node) Type {
	return c.types[n]
}

// SetType records the inferred type of the node.
func (c *Context) SetType(n analysis.Node, t Type) {
	c.types[n] = t
}

// Argument returns the type of the method's i-th argument; arguments
// beyond the supplied list read as Undefined.
func (c *Context) Argument(i int) Type {
	if i < 0 || i >= len(c.arguments) {
		return Type{}
	}
	return c.arguments[i]
}
