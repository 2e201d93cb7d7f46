// Copyright 2025 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inference derives a first-pass type lattice for a control
// graph by abstract interpretation.
package inference

import (
	"fmt"
	"strings"

	"github.com/georgen2000/llst/image"
)

// Kind discriminates the abstract values of the lattice.
type Kind int

const (
	// KindUndefined is the bottom element: nothing is known yet.
	KindUndefined Kind = iota
	// KindLiteral is one exact object.
	KindLiteral
	// KindMonotype is any instance of one class.
	KindMonotype
	// KindComposite is a disjunction of subtypes, produced at phi
	// merges.
	KindComposite
	// KindArray is a heterogeneous tuple with per-slot subtypes.
	KindArray
	// KindPolytype is the top element: any object at all.
	KindPolytype
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "Undefined"
	case KindLiteral:
		return "Literal"
	case KindMonotype:
		return "Monotype"
	case KindComposite:
		return "Composite"
	case KindArray:
		return "Array"
	case KindPolytype:
		return "Polytype"
	}
	return "Kind(?)"
}

// Type is one abstract value. The zero Type is Undefined.
type Type struct {
	kind     Kind
	value    image.Object
	subTypes []Type
}

// NewLiteral types an exact object.
func NewLiteral(o image.Object) Type {
	return Type{kind: KindLiteral, value: o}
}

// NewMonotype types any instance of the class.
func NewMonotype(c *image.Class) Type {
	return Type{kind: KindMonotype, value: c}
}

// NewPolytype is the unknown-everything type.
func NewPolytype() Type {
	return Type{kind: KindPolytype}
}

// NewArray types a tuple whose slots carry the given subtypes.
func NewArray(subTypes []Type) Type {
	return Type{kind: KindArray, value: image.Globals().ArrayClass, subTypes: subTypes}
}

// Kind returns the type's kind.
func (t Type) Kind() Kind {
	return t.kind
}

// Value returns the literal object, the monotype class, or the Array
// class for an Array-kind type; it is nil for kinds that carry no object.
func (t Type) Value() image.Object {
	return t.value
}

// SubTypes returns the per-slot or per-alternative subtypes.
func (t Type) SubTypes() []Type {
	return t.subTypes
}

// AddSubType appends a subtype alternative.
func (t *Type) AddSubType(s Type) {
	t.subTypes = append(t.subTypes, s)
}

// SetKind overrides the type's kind, keeping value and subtypes.
func (t *Type) SetKind(k Kind) {
	t.kind = k
}

// Reset returns the type to Undefined, the bottom of the lattice.
func (t *Type) Reset() {
	*t = Type{}
}

// String renders the type for diagnostics.
func (t Type) String() string {
	switch t.kind {
	case KindUndefined:
		return "?"
	case KindLiteral:
		return objectString(t.value)
	case KindMonotype:
		return fmt.Sprintf("(%s)", objectString(t.value))
	case KindComposite, KindArray:
		parts := make([]string, len(t.subTypes))
		for i, s := range t.subTypes {
			parts[i] = s.String()
		}
		if t.kind == KindComposite {
			return "(" + strings.Join(parts, "|") + ")"
		}
		return "Array[" + strings.Join(parts, ", ") + "]"
	case KindPolytype:
		return "*"
	}
	return "?"
}

func objectString(o image.Object) string {
	switch v := o.(type) {
	case nil:
		return "<none>"
	case image.SmallInt:
		return fmt.Sprintf("%d", int32(v))
	case image.Symbol:
		return "#" + string(v)
	case image.String:
		return fmt.Sprintf("%q", string(v))
	case *image.Class:
		return v.Name()
	default:
		if c := o.Class(); c != nil {
			return "a " + c.Name()
		}
		return "an object"
	}
}
