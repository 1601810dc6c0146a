// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"
)

var (
	// ErrMalformed classifies truncated or inconsistent class files.
	ErrMalformed = errors.New("malformed class file")
	// ErrUnsupportedVersion is returned for class file versions outside
	// MinMajorVersion..MaxMajorVersion.
	ErrUnsupportedVersion = errors.New("unsupported class file version")
)

// ParseError locates a parse failure inside the class bytes.
type ParseError struct {
	Offset int
	Reason string
	Err    error // ErrMalformed or ErrUnsupportedVersion
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("classfile: offset %d: %s", e.Offset, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

type cpEntry struct {
	tag  uint8
	utf8 string
	a, b uint16
}

type reader struct {
	buf  []byte
	off  int
	pool []cpEntry
	err  error
}

func (r *reader) fail(err error, format string, args ...any) {
	if r.err == nil {
		r.err = &ParseError{Offset: r.off, Reason: fmt.Sprintf(format, args...), Err: err}
	}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.fail(ErrMalformed, "truncated: need %d bytes, %d left", n, len(r.buf)-r.off)
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}

func (r *reader) utf8(idx uint16) string {
	if r.err != nil {
		return ""
	}
	if int(idx) <= 0 || int(idx) >= len(r.pool) || r.pool[idx].tag != TagUtf8 {
		r.fail(ErrMalformed, "constant %d is not Utf8", idx)
		return ""
	}
	return r.pool[idx].utf8
}

func (r *reader) class(idx uint16) string {
	if idx == 0 || r.err != nil {
		return ""
	}
	if int(idx) >= len(r.pool) || r.pool[idx].tag != TagClass {
		r.fail(ErrMalformed, "constant %d is not a Class", idx)
		return ""
	}
	return r.utf8(r.pool[idx].a)
}

// Parse decodes a class file. Unknown attributes are skipped.
func Parse(data []byte) (*ClassFile, error) {
	r := &reader{buf: data}
	if magic := r.u4(); r.err == nil && magic != Magic {
		r.off = 0
		r.fail(ErrMalformed, "bad magic %#x", magic)
	}
	cf := &ClassFile{}
	cf.MinorVersion = r.u2()
	cf.MajorVersion = r.u2()
	if r.err == nil && (cf.MajorVersion < MinMajorVersion || cf.MajorVersion > MaxMajorVersion) {
		r.fail(ErrUnsupportedVersion, "major version %d", cf.MajorVersion)
	}
	r.readPool()

	cf.AccessFlags = r.u2()
	cf.ThisClass = r.class(r.u2())
	cf.SuperClass = r.class(r.u2())
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		cf.Interfaces = append(cf.Interfaces, r.class(r.u2()))
	}

	n = int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		f := Field{AccessFlags: r.u2(), Name: r.utf8(r.u2()), Descriptor: r.utf8(r.u2())}
		r.attributes(func(name string, body *reader) {
			if name == "Signature" {
				f.Signature = body.utf8(body.u2())
			}
		})
		cf.Fields = append(cf.Fields, f)
	}

	n = int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		m := Method{AccessFlags: r.u2(), Name: r.utf8(r.u2()), Descriptor: r.utf8(r.u2())}
		r.attributes(func(name string, body *reader) {
			switch name {
			case "Signature":
				m.Signature = body.utf8(body.u2())
			case "Exceptions":
				k := int(body.u2())
				for j := 0; j < k && body.err == nil; j++ {
					m.Exceptions = append(m.Exceptions, body.class(body.u2()))
				}
			case "Code":
				m.Code = body.code()
			}
		})
		cf.Methods = append(cf.Methods, m)
	}

	r.attributes(func(name string, body *reader) {
		switch name {
		case "SourceFile":
			cf.SourceFile = body.utf8(body.u2())
		case "Signature":
			cf.Signature = body.utf8(body.u2())
		case "InnerClasses":
			k := int(body.u2())
			for j := 0; j < k && body.err == nil; j++ {
				ic := InnerClass{Inner: body.class(body.u2()), Outer: body.class(body.u2())}
				if idx := body.u2(); idx != 0 {
					ic.Name = body.utf8(idx)
				}
				ic.AccessFlags = body.u2()
				cf.InnerClasses = append(cf.InnerClasses, ic)
			}
		}
	})

	if r.err == nil && r.off != len(data) {
		r.fail(ErrMalformed, "%d trailing bytes", len(data)-r.off)
	}
	if r.err != nil {
		return nil, r.err
	}
	if cf.ThisClass == "" {
		return nil, &ParseError{Reason: "missing this_class", Err: ErrMalformed}
	}
	return cf, nil
}

func (r *reader) readPool() {
	count := int(r.u2())
	if r.err != nil {
		return
	}
	if count == 0 {
		r.fail(ErrMalformed, "empty constant pool")
		return
	}
	r.pool = make([]cpEntry, count)
	for i := 1; i < count && r.err == nil; i++ {
		tag := r.u1()
		e := cpEntry{tag: tag}
		switch tag {
		case TagUtf8:
			n := int(r.u2())
			raw := r.bytes(n)
			if r.err != nil {
				return
			}
			s, err := decodeModifiedUTF8(raw)
			if err != nil {
				r.fail(ErrMalformed, "constant %d: %v", i, err)
				return
			}
			e.utf8 = s
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			e.a = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
			e.a, e.b = r.u2(), r.u2()
		case TagInteger, TagFloat:
			r.bytes(4)
		case TagLong, TagDouble:
			r.bytes(8)
			r.pool[i] = e
			i++ // eight-byte constants occupy two slots
			continue
		case TagMethodHandle:
			r.u1()
			e.a = r.u2()
		default:
			r.fail(ErrMalformed, "constant %d: unknown tag %d", i, tag)
			return
		}
		r.pool[i] = e
	}
}

// attributes walks an attribute table, handing each body to fn through a
// bounded sub-reader so a bad attribute cannot read past its own length.
func (r *reader) attributes(fn func(name string, body *reader)) {
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		name := r.utf8(r.u2())
		length := int(r.u4())
		start := r.off
		raw := r.bytes(length)
		if r.err != nil {
			return
		}
		body := &reader{buf: raw, pool: r.pool}
		fn(name, body)
		if body.err != nil {
			var pe *ParseError
			if errors.As(body.err, &pe) {
				pe.Offset += start
			}
			r.err = body.err
			return
		}
	}
}

func (r *reader) code() *Code {
	c := &Code{MaxStack: r.u2(), MaxLocals: r.u2()}
	c.Bytecode = r.bytes(int(r.u4()))
	// exception_table entries are 8 bytes each
	r.bytes(int(r.u2()) * 8)
	r.attributes(func(name string, body *reader) {
		switch name {
		case "LineNumberTable":
			k := int(body.u2())
			for j := 0; j < k && body.err == nil; j++ {
				c.LineNumbers = append(c.LineNumbers, LineNumber{StartPC: body.u2(), Line: body.u2()})
			}
		case "LocalVariableTable":
			k := int(body.u2())
			for j := 0; j < k && body.err == nil; j++ {
				c.LocalVars = append(c.LocalVars, LocalVar{
					StartPC:    body.u2(),
					Length:     body.u2(),
					Name:       body.utf8(body.u2()),
					Descriptor: body.utf8(body.u2()),
					Index:      body.u2(),
				})
			}
		}
	})
	return c
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8 (two-byte NUL,
// surrogate pairs encoded as two three-byte sequences).
func decodeModifiedUTF8(b []byte) (string, error) {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b), nil
	}
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			return "", errors.New("raw NUL byte in modified UTF-8")
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", errors.New("truncated two-byte sequence")
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", errors.New("truncated three-byte sequence")
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("invalid byte %#x", c)
		}
	}
	return string(utf16.Decode(units)), nil
}
