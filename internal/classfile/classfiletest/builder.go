// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package classfiletest assembles small class files for tests.
package classfiletest

import (
	"bytes"
	"encoding/binary"

	"github.com/ManuGH/loomsrc/internal/classfile"
)

// Class describes a class file to assemble. Zero values pick sensible
// defaults: Super java/lang/Object, Major 61, public access.
type Class struct {
	Name       string
	Super      string
	Access     uint16
	Major      uint16
	Interfaces []string
	Signature  string
	SourceFile string
	Fields     []Field
	Methods    []Method
	Inner      []classfile.InnerClass
}

// Field describes one field.
type Field struct {
	Access    uint16
	Name      string
	Desc      string
	Signature string
}

// Method describes one method. Methods get a one-instruction Code attribute
// unless they are abstract or native.
type Method struct {
	Access     uint16
	Name       string
	Desc       string
	Signature  string
	Exceptions []string
	Lines      []classfile.LineNumber
	Locals     []classfile.LocalVar
}

type pool struct {
	entries bytes.Buffer
	count   uint16
	index   map[string]uint16
}

func newPool() *pool {
	return &pool{count: 1, index: make(map[string]uint16)}
}

func (p *pool) add(key string, body []byte) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	idx := p.count
	p.entries.Write(body)
	p.count++
	p.index[key] = idx
	return idx
}

func (p *pool) utf8(s string) uint16 {
	body := []byte{classfile.TagUtf8, 0, 0}
	binary.BigEndian.PutUint16(body[1:], uint16(len(s)))
	return p.add("u:"+s, append(body, s...))
}

func (p *pool) class(name string) uint16 {
	n := p.utf8(name)
	return p.add("c:"+name, []byte{classfile.TagClass, byte(n >> 8), byte(n)})
}

type out struct{ bytes.Buffer }

func (o *out) u2(v uint16) { _ = binary.Write(&o.Buffer, binary.BigEndian, v) }
func (o *out) u4(v uint32) { _ = binary.Write(&o.Buffer, binary.BigEndian, v) }

func (o *out) attr(p *pool, name string, body []byte) {
	o.u2(p.utf8(name))
	o.u4(uint32(len(body)))
	o.Write(body)
}

// Bytes assembles the class file.
func (c Class) Bytes() []byte {
	p := newPool()
	var body out

	access := c.Access
	if access == 0 {
		access = classfile.AccPublic | classfile.AccSuper
	}
	body.u2(access)
	body.u2(p.class(c.Name))
	super := c.Super
	if super == "" {
		super = "java/lang/Object"
	}
	if super == "-" {
		body.u2(0)
	} else {
		body.u2(p.class(super))
	}
	body.u2(uint16(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		body.u2(p.class(i))
	}

	body.u2(uint16(len(c.Fields)))
	for _, f := range c.Fields {
		body.u2(f.Access)
		body.u2(p.utf8(f.Name))
		body.u2(p.utf8(f.Desc))
		if f.Signature != "" {
			body.u2(1)
			body.attr(p, "Signature", u2bytes(p.utf8(f.Signature)))
		} else {
			body.u2(0)
		}
	}

	body.u2(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		body.u2(m.Access)
		body.u2(p.utf8(m.Name))
		body.u2(p.utf8(m.Desc))
		var attrs []func()
		if m.Access&(classfile.AccAbstract|classfile.AccNative) == 0 {
			attrs = append(attrs, func() { body.attr(p, "Code", code(p, m)) })
		}
		if m.Signature != "" {
			attrs = append(attrs, func() { body.attr(p, "Signature", u2bytes(p.utf8(m.Signature))) })
		}
		if len(m.Exceptions) > 0 {
			attrs = append(attrs, func() {
				var ex out
				ex.u2(uint16(len(m.Exceptions)))
				for _, e := range m.Exceptions {
					ex.u2(p.class(e))
				}
				body.attr(p, "Exceptions", ex.Bytes())
			})
		}
		body.u2(uint16(len(attrs)))
		for _, a := range attrs {
			a()
		}
	}

	var attrs []func()
	if c.SourceFile != "" {
		attrs = append(attrs, func() { body.attr(p, "SourceFile", u2bytes(p.utf8(c.SourceFile))) })
	}
	if c.Signature != "" {
		attrs = append(attrs, func() { body.attr(p, "Signature", u2bytes(p.utf8(c.Signature))) })
	}
	if len(c.Inner) > 0 {
		attrs = append(attrs, func() {
			var ic out
			ic.u2(uint16(len(c.Inner)))
			for _, in := range c.Inner {
				ic.u2(p.class(in.Inner))
				if in.Outer != "" {
					ic.u2(p.class(in.Outer))
				} else {
					ic.u2(0)
				}
				if in.Name != "" {
					ic.u2(p.utf8(in.Name))
				} else {
					ic.u2(0)
				}
				ic.u2(in.AccessFlags)
			}
			body.attr(p, "InnerClasses", ic.Bytes())
		})
	}
	body.u2(uint16(len(attrs)))
	for _, a := range attrs {
		a()
	}

	major := c.Major
	if major == 0 {
		major = 61
	}
	var file out
	file.u4(classfile.Magic)
	file.u2(0)
	file.u2(major)
	file.u2(p.count)
	file.Write(p.entries.Bytes())
	file.Write(body.Bytes())
	return file.Bytes()
}

func code(p *pool, m Method) []byte {
	var c out
	c.u2(1)
	c.u2(uint16(len(m.Locals) + 1))
	c.u4(1)
	c.WriteByte(0xB1) // return
	c.u2(0)
	n := 0
	if len(m.Lines) > 0 {
		n++
	}
	if len(m.Locals) > 0 {
		n++
	}
	c.u2(uint16(n))
	if len(m.Lines) > 0 {
		var lt out
		lt.u2(uint16(len(m.Lines)))
		for _, ln := range m.Lines {
			lt.u2(ln.StartPC)
			lt.u2(ln.Line)
		}
		c.attr(p, "LineNumberTable", lt.Bytes())
	}
	if len(m.Locals) > 0 {
		var lv out
		lv.u2(uint16(len(m.Locals)))
		for _, l := range m.Locals {
			lv.u2(l.StartPC)
			lv.u2(l.Length)
			lv.u2(p.utf8(l.Name))
			lv.u2(p.utf8(l.Descriptor))
			lv.u2(l.Index)
		}
		c.attr(p, "LocalVariableTable", lv.Bytes())
	}
	return c.Bytes()
}

func u2bytes(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
