// Copyright 2024 The llst Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package image

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// Snapshot format: the magic "LSTI", a version, a sequence of object
// records and a trailer of named globals. Object references are 1-based
// record indices; reference 0 is the null reference. Forward references
// are allowed, so reading is a two-pass affair.
const (
	imageMagic   = "LSTI"
	imageVersion = uint16(1)
)

const (
	tagClass    = byte('C')
	tagSymbol   = byte('y')
	tagString   = byte('s')
	tagSmallInt = byte('i')
	tagArray    = byte('a')
	tagMethod   = byte('m')
	tagObject   = byte('o')
)

// ErrBadMagic is returned when the snapshot does not start with the
// image magic.
var ErrBadMagic = errors.New("image: bad magic")

// ErrTruncated is returned when the snapshot ends in the middle of a
// record.
var ErrTruncated = errors.New("image: truncated snapshot")

// UnsupportedVersionError is returned for snapshots whose format version
// differs from the one this reader understands.
type UnsupportedVersionError uint16

func (e UnsupportedVersionError) Error() string {
	return fmt.Sprintf("image: unsupported snapshot version %d", uint16(e))
}

// InvalidTagError is returned when a record carries an unknown tag.
type InvalidTagError struct {
	Tag    byte
	Record int
}

func (e InvalidTagError) Error() string {
	return fmt.Sprintf("image: invalid record tag %q in record %d", e.Tag, e.Record)
}

// InvalidReferenceError is returned when a record references an object
// index outside the snapshot.
type InvalidReferenceError struct {
	Reference uint32
	Record    int
}

func (e InvalidReferenceError) Error() string {
	return fmt.Sprintf("image: invalid object reference %d in record %d", e.Reference, e.Record)
}

// MissingGlobalError is returned by Install when a required well-known
// binding is absent from the image.
type MissingGlobalError string

func (e MissingGlobalError) Error() string {
	return fmt.Sprintf("image: missing well-known global %q", string(e))
}

// Open maps the snapshot file read-only and reads the image from the
// mapping. Close releases the mapping.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "image: open snapshot")
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "image: map snapshot %q", path)
	}

	img, err := ReadImage(m)
	if err != nil {
		m.Unmap()
		return nil, errors.Wrapf(err, "image: read snapshot %q", path)
	}
	img.mapping = m
	return img, nil
}

type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if c.pos+n > len(c.data) {
		return nil, ErrTruncated
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) name() (string, error) {
	n, err := c.u8()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) refs(n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		r, err := c.u32()
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// rawRecord is a decoded record before references are resolved.
type rawRecord struct {
	object Object
	refs   []uint32
}

// ReadImage reads an image from snapshot bytes. The returned image owns
// copies of all variable-length data, so the input may be unmapped once
// reading finishes.
func ReadImage(data []byte) (*Image, error) {
	c := &cursor{data: data}

	magic, err := c.bytes(len(imageMagic))
	if err != nil {
		return nil, err
	}
	if string(magic) != imageMagic {
		return nil, ErrBadMagic
	}
	version, err := c.u16()
	if err != nil {
		return nil, err
	}
	if version != imageVersion {
		return nil, UnsupportedVersionError(version)
	}

	count, err := c.u32()
	if err != nil {
		return nil, err
	}

	records := make([]rawRecord, count)
	for i := range records {
		if records[i], err = readRecord(c, i); err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
	}

	img := &Image{named: map[string]Object{}}
	resolve := func(ref uint32, record int) (Object, error) {
		if ref == 0 {
			return nil, nil
		}
		if int(ref) > len(records) {
			return nil, InvalidReferenceError{Reference: ref, Record: record}
		}
		return records[ref-1].object, nil
	}

	for i := range records {
		if err := fillRecord(records, i, resolve); err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		img.add(records[i].object)
	}

	globalCount, err := c.u16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(globalCount); i++ {
		name, err := c.name()
		if err != nil {
			return nil, errors.Wrap(err, "globals trailer")
		}
		ref, err := c.u32()
		if err != nil {
			return nil, errors.Wrap(err, "globals trailer")
		}
		o, err := resolve(ref, -1)
		if err != nil {
			return nil, errors.Wrap(err, "globals trailer")
		}
		img.named[name] = o
	}

	return img, nil
}

func readRecord(c *cursor, index int) (rawRecord, error) {
	tag, err := c.u8()
	if err != nil {
		return rawRecord{}, err
	}

	switch tag {
	case tagClass:
		name, err := c.name()
		if err != nil {
			return rawRecord{}, err
		}
		refs, err := c.refs(2) // meta, parent
		if err != nil {
			return rawRecord{}, err
		}
		return rawRecord{object: &Class{name: name}, refs: refs}, nil

	case tagSymbol, tagString:
		n, err := c.u16()
		if err != nil {
			return rawRecord{}, err
		}
		b, err := c.bytes(int(n))
		if err != nil {
			return rawRecord{}, err
		}
		if tag == tagSymbol {
			return rawRecord{object: Symbol(b)}, nil
		}
		return rawRecord{object: String(b)}, nil

	case tagSmallInt:
		v, err := c.u32()
		if err != nil {
			return rawRecord{}, err
		}
		return rawRecord{object: SmallInt(int32(v))}, nil

	case tagArray:
		n, err := c.u32()
		if err != nil {
			return rawRecord{}, err
		}
		refs, err := c.refs(int(n))
		if err != nil {
			return rawRecord{}, err
		}
		return rawRecord{object: &Array{}, refs: refs}, nil

	case tagMethod:
		selector, err := c.u32()
		if err != nil {
			return rawRecord{}, err
		}
		argc, err := c.u8()
		if err != nil {
			return rawRecord{}, err
		}
		tempc, err := c.u8()
		if err != nil {
			return rawRecord{}, err
		}
		litCount, err := c.u16()
		if err != nil {
			return rawRecord{}, err
		}
		lits, err := c.refs(int(litCount))
		if err != nil {
			return rawRecord{}, err
		}
		codeLen, err := c.u32()
		if err != nil {
			return rawRecord{}, err
		}
		code, err := c.bytes(int(codeLen))
		if err != nil {
			return rawRecord{}, err
		}
		m := &Method{
			ArgumentCount:  argc,
			TemporaryCount: tempc,
			ByteCodes:      append([]byte(nil), code...),
		}
		return rawRecord{object: m, refs: append([]uint32{selector}, lits...)}, nil

	case tagObject:
		class, err := c.u32()
		if err != nil {
			return rawRecord{}, err
		}
		fieldCount, err := c.u16()
		if err != nil {
			return rawRecord{}, err
		}
		fields, err := c.refs(int(fieldCount))
		if err != nil {
			return rawRecord{}, err
		}
		return rawRecord{object: &BasicObject{}, refs: append([]uint32{class}, fields...)}, nil
	}

	return rawRecord{}, InvalidTagError{Tag: tag, Record: index}
}

func fillRecord(records []rawRecord, index int, resolve func(uint32, int) (Object, error)) error {
	rec := &records[index]
	objs := make([]Object, len(rec.refs))
	for i, ref := range rec.refs {
		o, err := resolve(ref, index)
		if err != nil {
			return err
		}
		objs[i] = o
	}

	switch o := rec.object.(type) {
	case *Class:
		if objs[0] != nil {
			o.meta, _ = objs[0].(*Class)
		}
		if objs[1] != nil {
			o.parent, _ = objs[1].(*Class)
		}

	case *Array:
		o.Elements = objs

	case *Method:
		if objs[0] != nil {
			sym, ok := objs[0].(Symbol)
			if !ok {
				return errors.Errorf("method selector is not a symbol")
			}
			o.Selector = sym
		}
		o.Literals = objs[1:]

	case *BasicObject:
		class, ok := objs[0].(*Class)
		if !ok {
			return errors.Errorf("object class reference is not a class")
		}
		o.class = class
		o.Fields = objs[1:]
	}

	return nil
}

// WriteImage writes the image and the transitive closure of its objects
// as a snapshot.
func WriteImage(w io.Writer, img *Image) error {
	var ordered []Object
	index := map[Object]uint32{}

	var collect func(o Object)
	collect = func(o Object) {
		if o == nil {
			return
		}
		if _, ok := index[o]; ok {
			return
		}
		ordered = append(ordered, o)
		index[o] = uint32(len(ordered))

		switch v := o.(type) {
		case *Class:
			if v.meta != nil {
				collect(v.meta)
			}
			if v.parent != nil {
				collect(v.parent)
			}
		case *Array:
			for _, e := range v.Elements {
				collect(e)
			}
		case *Method:
			collect(v.Selector)
			for _, l := range v.Literals {
				collect(l)
			}
		case *BasicObject:
			if v.class != nil {
				collect(v.class)
			}
			for _, f := range v.Fields {
				collect(f)
			}
		}
	}

	for _, o := range img.objects {
		collect(o)
	}
	for _, o := range img.named {
		collect(o)
	}

	ref := func(o Object) uint32 {
		if o == nil {
			return 0
		}
		return index[o]
	}
	classRef := func(c *Class) uint32 {
		if c == nil {
			return 0
		}
		return index[c]
	}

	var buf []byte
	buf = append(buf, imageMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, imageVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ordered)))

	for _, o := range ordered {
		switch v := o.(type) {
		case *Class:
			buf = append(buf, tagClass)
			buf = append(buf, uint8(len(v.name)))
			buf = append(buf, v.name...)
			buf = binary.LittleEndian.AppendUint32(buf, classRef(v.meta))
			buf = binary.LittleEndian.AppendUint32(buf, classRef(v.parent))

		case Symbol:
			buf = append(buf, tagSymbol)
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(v)))
			buf = append(buf, v...)

		case String:
			buf = append(buf, tagString)
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(v)))
			buf = append(buf, v...)

		case SmallInt:
			buf = append(buf, tagSmallInt)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(v)))

		case *Array:
			buf = append(buf, tagArray)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Elements)))
			for _, e := range v.Elements {
				buf = binary.LittleEndian.AppendUint32(buf, ref(e))
			}

		case *Method:
			buf = append(buf, tagMethod)
			buf = binary.LittleEndian.AppendUint32(buf, ref(v.Selector))
			buf = append(buf, v.ArgumentCount, v.TemporaryCount)
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(v.Literals)))
			for _, l := range v.Literals {
				buf = binary.LittleEndian.AppendUint32(buf, ref(l))
			}
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.ByteCodes)))
			buf = append(buf, v.ByteCodes...)

		case *BasicObject:
			buf = append(buf, tagObject)
			buf = binary.LittleEndian.AppendUint32(buf, classRef(v.class))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(v.Fields)))
			for _, f := range v.Fields {
				buf = binary.LittleEndian.AppendUint32(buf, ref(f))
			}

		default:
			return errors.Errorf("image: cannot serialize %T", o)
		}
	}

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(img.named)))
	for _, name := range sortedNames(img.named) {
		buf = append(buf, uint8(len(name)))
		buf = append(buf, name...)
		buf = binary.LittleEndian.AppendUint32(buf, ref(img.named[name]))
	}

	_, err := w.Write(buf)
	return errors.Wrap(err, "image: write snapshot")
}

// WriteFile writes the image snapshot to a file.
func WriteFile(path string, img *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "image: create snapshot")
	}
	if err := WriteImage(f, img); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "image: close snapshot")
}

func sortedNames(m map[string]Object) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
