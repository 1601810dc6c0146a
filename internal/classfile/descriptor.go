// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classfile

import (
	"fmt"
	"strings"
)

// Type is one field type from a descriptor.
type Type struct {
	Base  byte   // one of BCDFIJSZV, or 'L' for class types
	Class string // internal name when Base == 'L'
	Dims  int
}

// Slots is the number of local variable slots a value of t occupies.
func (t Type) Slots() int {
	if t.Dims == 0 && (t.Base == 'J' || t.Base == 'D') {
		return 2
	}
	return 1
}

// Java renders t as Java source. name converts internal class names; nil
// renders them fully qualified.
func (t Type) Java(name func(string) string) string {
	var s string
	switch t.Base {
	case 'L':
		if name == nil {
			name = JavaName
		}
		s = name(t.Class)
	default:
		s = primitive(t.Base)
	}
	return s + strings.Repeat("[]", t.Dims)
}

func primitive(b byte) string {
	switch b {
	case 'B':
		return "byte"
	case 'C':
		return "char"
	case 'D':
		return "double"
	case 'F':
		return "float"
	case 'I':
		return "int"
	case 'J':
		return "long"
	case 'S':
		return "short"
	case 'Z':
		return "boolean"
	case 'V':
		return "void"
	}
	return "?"
}

// JavaName turns an internal name (a/b/C$D) into a source name (a.b.C.D).
func JavaName(internal string) string {
	return strings.NewReplacer("/", ".", "$", ".").Replace(internal)
}

// SimpleName returns the last segment of an internal name, after any
// package and outer class prefix.
func SimpleName(internal string) string {
	if i := strings.LastIndexAny(internal, "/$"); i >= 0 {
		return internal[i+1:]
	}
	return internal
}

// PackageOf returns the internal package of a class name ("" for the default package).
func PackageOf(internal string) string {
	if i := strings.LastIndexByte(internal, '/'); i >= 0 {
		return internal[:i]
	}
	return ""
}

// ParseFieldDescriptor decodes a single field descriptor.
func ParseFieldDescriptor(desc string) (Type, error) {
	t, n, err := parseType(desc, 0)
	if err != nil {
		return Type{}, err
	}
	if n != len(desc) {
		return Type{}, fmt.Errorf("descriptor %q: trailing characters", desc)
	}
	if t.Base == 'V' {
		return Type{}, fmt.Errorf("descriptor %q: void field", desc)
	}
	return t, nil
}

// ParseMethodDescriptor decodes a method descriptor into parameter types and
// the return type.
func ParseMethodDescriptor(desc string) ([]Type, Type, error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, Type{}, fmt.Errorf("method descriptor %q: missing '('", desc)
	}
	var params []Type
	i := 1
	for i < len(desc) && desc[i] != ')' {
		t, n, err := parseType(desc, i)
		if err != nil {
			return nil, Type{}, err
		}
		if t.Base == 'V' {
			return nil, Type{}, fmt.Errorf("method descriptor %q: void parameter", desc)
		}
		params = append(params, t)
		i = n
	}
	if i >= len(desc) {
		return nil, Type{}, fmt.Errorf("method descriptor %q: missing ')'", desc)
	}
	ret, n, err := parseType(desc, i+1)
	if err != nil {
		return nil, Type{}, err
	}
	if n != len(desc) {
		return nil, Type{}, fmt.Errorf("method descriptor %q: trailing characters", desc)
	}
	return params, ret, nil
}

func parseType(desc string, i int) (Type, int, error) {
	var t Type
	for i < len(desc) && desc[i] == '[' {
		t.Dims++
		i++
	}
	if i >= len(desc) {
		return t, i, fmt.Errorf("descriptor %q: truncated", desc)
	}
	switch c := desc[i]; c {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		t.Base = c
		return t, i + 1, nil
	case 'L':
		end := strings.IndexByte(desc[i:], ';')
		if end < 2 {
			return t, i, fmt.Errorf("descriptor %q: bad class type", desc)
		}
		t.Base = 'L'
		t.Class = desc[i+1 : i+end]
		return t, i + end + 1, nil
	default:
		return t, i, fmt.Errorf("descriptor %q: unexpected %q", desc, c)
	}
}

// ParamSlots returns the local variable index of each parameter of desc.
// Instance methods start at 1; slot 0 holds this.
func ParamSlots(desc string, static bool) ([]int, error) {
	params, _, err := ParseMethodDescriptor(desc)
	if err != nil {
		return nil, err
	}
	slot := 1
	if static {
		slot = 0
	}
	out := make([]int, len(params))
	for i, p := range params {
		out[i] = slot
		slot += p.Slots()
	}
	return out, nil
}
