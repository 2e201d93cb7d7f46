// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

// WellKnown is the catalog of objects the rest of the system needs by
// name: the three singletons and the classes of the values the type
// analyzer reasons about.
type WellKnown struct {
	NilObject   Object
	TrueObject  Object
	FalseObject Object

	SmallIntClass *Class
	ArrayClass    *Class
	SymbolClass   *Class
	StringClass   *Class
	MethodClass   *Class
	BlockClass    *Class
}

// globals is process-wide and installed at image-load (or bootstrap)
// time, before any analysis runs.
var globals WellKnown

// SetGlobals installs the well-known object catalog.
func SetGlobals(g WellKnown) {
	globals = g
}

// Globals returns the installed well-known object catalog.
func Globals() *WellKnown {
	return &globals
}
