// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import (
	"github.com/edsrzf/mmap-go"
)

// Image is a loaded (or bootstrapped) object space: the objects it owns
// and a dictionary of named globals.
type Image struct {
	objects []Object
	named   map[string]Object
	mapping mmap.MMap
}

func (img *Image) add(o Object) {
	img.objects = append(img.objects, o)
}

// Add places an object into the image so it is reachable for snapshot
// writing and enumeration.
func (img *Image) Add(o Object) {
	img.add(o)
}

// Objects returns every object the image owns, in insertion order.
func (img *Image) Objects() []Object {
	return img.objects
}

// Global looks up a named global. It returns nil when the name is not
// bound.
func (img *Image) Global(name string) Object {
	return img.named[name]
}

// SetGlobal binds a named global.
func (img *Image) SetGlobal(name string, o Object) {
	if img.named == nil {
		img.named = map[string]Object{}
	}
	img.named[name] = o
}

// Methods returns every compiled method the image owns.
func (img *Image) Methods() []*Method {
	var methods []*Method
	for _, o := range img.objects {
		if m, ok := o.(*Method); ok {
			methods = append(methods, m)
		}
	}
	return methods
}

// Install publishes the image's well-known objects as the process-wide
// globals bundle. It must be called before any analysis that consults
// the globals.
func (img *Image) Install() error {
	var g WellKnown
	var err error

	object := func(name string) Object {
		o := img.named[name]
		if o == nil && err == nil {
			err = MissingGlobalError(name)
		}
		return o
	}
	class := func(name string) *Class {
		c, ok := img.named[name].(*Class)
		if !ok && err == nil {
			err = MissingGlobalError(name)
		}
		return c
	}

	g.NilObject = object("nil")
	g.TrueObject = object("true")
	g.FalseObject = object("false")
	g.SmallIntClass = class("SmallInt")
	g.ArrayClass = class("Array")
	g.SymbolClass = class("Symbol")
	g.StringClass = class("String")
	g.MethodClass = class("Method")
	g.BlockClass = class("Block")

	if err != nil {
		return err
	}
	SetGlobals(g)
	return nil
}

// Close releases the snapshot mapping, if the image was opened from a
// file. The image's objects remain valid.
func (img *Image) Close() error {
	if img.mapping == nil {
		return nil
	}
	m := img.mapping
	img.mapping = nil
	return m.Unmap()
}
