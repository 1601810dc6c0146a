// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mapping

import "fmt"

// Kind identifies what a mapping entry renames.
type Kind uint8

const (
	KindClass Kind = iota + 1
	KindField
	KindMethod
	KindParameter
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	case KindParameter:
		return "parameter"
	case KindLocal:
		return "local"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Descriptor addresses one entry inside a single namespace. It is comparable
// and used directly as an index key.
//
// Classes use Name only (internal form, "a/b/C"). Fields and methods use
// Owner, Name and Desc. Parameters and locals use the owning method's
// Owner/Name/Desc plus the local variable Index (and Start for locals).
type Descriptor struct {
	Kind  Kind
	Owner string
	Name  string
	Desc  string
	Index int
	Start int
}

// ClassDescriptor addresses a class by internal name.
func ClassDescriptor(name string) Descriptor {
	return Descriptor{Kind: KindClass, Name: name}
}

// FieldDescriptor addresses a field.
func FieldDescriptor(owner, name, desc string) Descriptor {
	return Descriptor{Kind: KindField, Owner: owner, Name: name, Desc: desc}
}

// MethodDescriptor addresses a method.
func MethodDescriptor(owner, name, desc string) Descriptor {
	return Descriptor{Kind: KindMethod, Owner: owner, Name: name, Desc: desc}
}

// ParameterDescriptor addresses a method parameter by local variable index.
func ParameterDescriptor(owner, method, desc string, index int) Descriptor {
	return Descriptor{Kind: KindParameter, Owner: owner, Name: method, Desc: desc, Index: index}
}

func (d Descriptor) String() string {
	switch d.Kind {
	case KindClass:
		return d.Name
	case KindField:
		return d.Owner + "." + d.Name + ":" + d.Desc
	case KindMethod:
		return d.Owner + "." + d.Name + d.Desc
	default:
		return fmt.Sprintf("%s.%s%s#%d", d.Owner, d.Name, d.Desc, d.Index)
	}
}

// Entry is one row of a mapping table. Names are stored per namespace in
// header column order; an empty name means the entry is not renamed in
// that namespace.
type Entry struct {
	kind   Kind
	parent *Entry
	names  []string
	desc   string // member descriptor in the source namespace
	index  int
	start  int
	doc    string

	placeholder bool // owner created by a member row, no class row seen yet
	children    []*Entry
}

func (e *Entry) Kind() Kind { return e.kind }

// Parent returns the owning class (members) or method (parameters, locals).
func (e *Entry) Parent() *Entry { return e.parent }

// Doc returns the documentation attached to the entry, if any.
func (e *Entry) Doc() string { return e.doc }

// Desc returns the member descriptor in the source namespace.
func (e *Entry) Desc() string { return e.desc }

// Index returns the local variable index of a parameter or local entry.
func (e *Entry) Index() int { return e.index }

// Children returns the members (of a class) or parameters and locals (of a method).
func (e *Entry) Children() []*Entry {
	out := make([]*Entry, len(e.children))
	copy(out, e.children)
	return out
}

// nameAt returns the declared name in column i, or "" when absent.
func (e *Entry) nameAt(i int) string {
	if i < 0 || i >= len(e.names) {
		return ""
	}
	return e.names[i]
}

// effectiveName is the declared name in column i, falling back to the source name.
func (e *Entry) effectiveName(i int) string {
	if n := e.nameAt(i); n != "" {
		return n
	}
	return e.nameAt(0)
}
