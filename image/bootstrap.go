// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

// Bootstrap builds the minimal class kernel, installs the process-wide
// well-known globals and returns the kernel as an image. The kernel is
// arranged so that the class of the class of true (and of false) is
// Boolean, which is the shape the type analyzer relies on when it types
// comparison results.
func Bootstrap() *Image {
	metaclass := &Class{name: "Metaclass"}
	metaclass.meta = metaclass

	newClass := func(name string, parent *Class) *Class {
		meta := &Class{name: name + " class", meta: metaclass, parent: metaclass}
		return &Class{name: name, meta: meta, parent: parent}
	}

	object := newClass("Object", nil)
	undefinedObject := newClass("UndefinedObject", object)
	boolean := newClass("Boolean", object)
	trueClass := newClass("True", boolean)
	falseClass := newClass("False", boolean)
	trueClass.setMeta(boolean)
	falseClass.setMeta(boolean)
	smallInt := newClass("SmallInt", object)
	array := newClass("Array", object)
	symbol := newClass("Symbol", object)
	stringClass := newClass("String", object)
	method := newClass("Method", object)
	block := newClass("Block", object)

	nilObject := NewBasicObject(undefinedObject)
	trueObject := NewBasicObject(trueClass)
	falseObject := NewBasicObject(falseClass)

	img := &Image{named: map[string]Object{}}
	for _, c := range []*Class{
		metaclass, object, undefinedObject, boolean, trueClass, falseClass,
		smallInt, array, symbol, stringClass, method, block,
	} {
		img.add(c)
		img.named[c.name] = c
	}
	img.add(nilObject)
	img.add(trueObject)
	img.add(falseObject)
	img.named["nil"] = nilObject
	img.named["true"] = trueObject
	img.named["false"] = falseObject

	SetGlobals(WellKnown{
		NilObject:     nilObject,
		TrueObject:    trueObject,
		FalseObject:   falseObject,
		SmallIntClass: smallInt,
		ArrayClass:    array,
		SymbolClass:   symbol,
		StringClass:   stringClass,
		MethodClass:   method,
		BlockClass:    block,
	})

	return img
}
