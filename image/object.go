// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package image provides the object model the analysis pipeline consumes:
// classes, well-known singletons, compiled methods with their literals,
// and a binary snapshot format for persisting them.
package image

// Object is a reference to an object in the image. All implementations
// are comparable, so objects can be tested for identity with == and used
// as map keys.
type Object interface {
	Class() *Class
}

// Class is a class object. Its own class is its metaclass.
type Class struct {
	name   string
	meta   *Class
	parent *Class
}

func NewClass(name string, meta, parent *Class) *Class {
	return &Class{name: name, meta: meta, parent: parent}
}

func (c *Class) Class() *Class  { return c.meta }
func (c *Class) Name() string   { return c.name }
func (c *Class) Parent() *Class { return c.parent }

// setMeta re-points a class's metaclass after the class exists. The
// bootstrap uses it to make Boolean the class of True and of False.
func (c *Class) setMeta(meta *Class) { c.meta = meta }

// SmallInt is a tagged small integer.
type SmallInt int32

func (SmallInt) Class() *Class { return globals.SmallIntClass }

// IsSmallInteger reports whether the object is a tagged small integer.
func IsSmallInteger(o Object) bool {
	_, ok := o.(SmallInt)
	return ok
}

// Symbol is an interned selector.
type Symbol string

func (Symbol) Class() *Class { return globals.SymbolClass }

// String is a byte string object.
type String string

func (String) Class() *Class { return globals.StringClass }

// Array is an ordered collection of object references.
type Array struct {
	Elements []Object
}

func (*Array) Class() *Class { return globals.ArrayClass }

// Method is a compiled method: its selector, literal frame and bytecode.
type Method struct {
	Selector       Symbol
	Literals       []Object
	ByteCodes      []byte
	ArgumentCount  uint8
	TemporaryCount uint8
}

func (*Method) Class() *Class { return globals.MethodClass }

// BasicObject is an ordinary instance: a class and indexed fields. The
// nil, true and false singletons are basic objects of their respective
// classes.
type BasicObject struct {
	class  *Class
	Fields []Object
}

func NewBasicObject(class *Class, fields ...Object) *BasicObject {
	return &BasicObject{class: class, Fields: fields}
}

func (o *BasicObject) Class() *Class { return o.class }
