// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classfile

import (
	"fmt"
	"strings"
)

// MethodSignature is a rendered generic method signature.
type MethodSignature struct {
	TypeParams string // "<T extends Comparable<T>>" or ""
	Params     []string
	Return     string
	Throws     []string
}

// RenderFieldSignature renders a generic field signature as Java source.
func RenderFieldSignature(sig string, name func(string) string) (string, error) {
	p := sigParser{s: sig, name: name}
	out := p.javaType()
	if p.err == nil && p.i != len(sig) {
		p.fail("trailing characters")
	}
	return out, p.err
}

// RenderClassSignature renders the type parameters, superclass and
// interfaces of a generic class signature.
func RenderClassSignature(sig string, name func(string) string) (typeParams, super string, ifaces []string, err error) {
	p := sigParser{s: sig, name: name}
	typeParams = p.typeParams()
	super = p.refType()
	for p.err == nil && p.i < len(sig) {
		ifaces = append(ifaces, p.refType())
	}
	return typeParams, super, ifaces, p.err
}

// RenderMethodSignature renders a generic method signature.
func RenderMethodSignature(sig string, name func(string) string) (MethodSignature, error) {
	p := sigParser{s: sig, name: name}
	var ms MethodSignature
	ms.TypeParams = p.typeParams()
	p.expect('(')
	for p.err == nil && p.peek() != ')' {
		ms.Params = append(ms.Params, p.javaType())
	}
	p.expect(')')
	ms.Return = p.javaType()
	for p.err == nil && p.peek() == '^' {
		p.i++
		ms.Throws = append(ms.Throws, p.refType())
	}
	if p.err == nil && p.i != len(sig) {
		p.fail("trailing characters")
	}
	return ms, p.err
}

type sigParser struct {
	s    string
	i    int
	name func(string) string
	err  error
}

func (p *sigParser) fail(reason string) {
	if p.err == nil {
		p.err = fmt.Errorf("signature %q at %d: %s", p.s, p.i, reason)
	}
}

func (p *sigParser) peek() byte {
	if p.err != nil || p.i >= len(p.s) {
		return 0
	}
	return p.s[p.i]
}

func (p *sigParser) expect(c byte) {
	if p.peek() != c {
		p.fail(fmt.Sprintf("expected %q", c))
		return
	}
	p.i++
}

func (p *sigParser) ident(stops string) string {
	start := p.i
	for p.i < len(p.s) && !strings.ContainsRune(stops, rune(p.s[p.i])) {
		p.i++
	}
	if p.i == start {
		p.fail("empty identifier")
	}
	return p.s[start:p.i]
}

func (p *sigParser) typeParams() string {
	if p.peek() != '<' {
		return ""
	}
	p.i++
	var parts []string
	for p.err == nil && p.peek() != '>' {
		id := p.ident(":")
		var bounds []string
		// class bound may be empty ("T::Ljava/lang/Comparable;")
		p.expect(':')
		if c := p.peek(); c == 'L' || c == 'T' || c == '[' {
			start := p.i
			bound := p.refType()
			if p.s[start:p.i] != "Ljava/lang/Object;" {
				bounds = append(bounds, bound)
			}
		}
		for p.err == nil && p.peek() == ':' {
			p.i++
			bounds = append(bounds, p.refType())
		}
		if len(bounds) > 0 {
			id += " extends " + strings.Join(bounds, " & ")
		}
		parts = append(parts, id)
	}
	p.expect('>')
	return "<" + strings.Join(parts, ", ") + ">"
}

func (p *sigParser) javaType() string {
	switch c := p.peek(); c {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		p.i++
		return primitive(c)
	default:
		return p.refType()
	}
}

func (p *sigParser) refType() string {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		p.i++
		id := p.ident(";")
		p.expect(';')
		return id
	case '[':
		p.i++
		return p.javaType() + "[]"
	default:
		p.fail("expected reference type")
		return ""
	}
}

func (p *sigParser) classType() string {
	p.expect('L')
	internal := p.ident("<.;")
	args := p.typeArgs()
	for p.err == nil && p.peek() == '.' {
		p.i++
		internal += "$" + p.ident("<.;")
		args = p.typeArgs()
	}
	p.expect(';')
	name := p.name
	if name == nil {
		name = JavaName
	}
	return name(internal) + args
}

func (p *sigParser) typeArgs() string {
	if p.peek() != '<' {
		return ""
	}
	p.i++
	var args []string
	for p.err == nil && p.peek() != '>' {
		switch p.peek() {
		case '*':
			p.i++
			args = append(args, "?")
		case '+':
			p.i++
			args = append(args, "? extends "+p.refType())
		case '-':
			p.i++
			args = append(args, "? super "+p.refType())
		default:
			args = append(args, p.refType())
		}
	}
	p.expect('>')
	return "<" + strings.Join(args, ", ") + ">"
}
