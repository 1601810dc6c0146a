// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package remap

import (
	"strconv"
	"strings"

	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

// names is a set of target names one source name may map to.
type names map[string]struct{}

func (n names) add(name string) { n[name] = struct{}{} }

// unique returns the only element of n.
func (n names) unique() (string, bool) {
	if len(n) != 1 {
		return "", false
	}
	for name := range n {
		return name, true
	}
	return "", false
}

// index answers name questions for one namespace pair without knowing
// the receiver type of a member access.
type index struct {
	set      *mapping.Set
	from, to mapping.Namespace

	byPackage map[string][]string // top-level classes per package, names in from
	fields    map[string]names
	methods   map[string]names // keyed by name "/" arity
	anyArity  map[string]names
}

func newIndex(set *mapping.Set, from, to mapping.Namespace) *index {
	ix := &index{
		set:       set,
		from:      from,
		to:        to,
		byPackage: make(map[string][]string),
		fields:    make(map[string]names),
		methods:   make(map[string]names),
		anyArity:  make(map[string]names),
	}
	for _, c := range set.Classes() {
		internal := set.Name(c, from)
		if !strings.ContainsRune(internal, '$') {
			pkg := classfile.PackageOf(internal)
			ix.byPackage[pkg] = append(ix.byPackage[pkg], internal)
		}
		for _, m := range c.Children() {
			switch m.Kind() {
			case mapping.KindField:
				addName(ix.fields, set.Name(m, from), set.Name(m, to))
			case mapping.KindMethod:
				name := set.Name(m, from)
				if strings.HasPrefix(name, "<") {
					continue
				}
				arity, ok := methodArity(set.Descriptor(m, from).Desc)
				if !ok {
					continue
				}
				addName(ix.methods, methodKey(name, arity), set.Name(m, to))
				addName(ix.anyArity, name, set.Name(m, to))
			}
		}
	}
	return ix
}

func addName(m map[string]names, from, to string) {
	n, ok := m[from]
	if !ok {
		n = make(names)
		m[from] = n
	}
	n.add(to)
}

func methodKey(name string, arity int) string { return name + "/" + strconv.Itoa(arity) }

func methodArity(desc string) (int, bool) {
	params, _, err := classfile.ParseMethodDescriptor(desc)
	if err != nil {
		return 0, false
	}
	return len(params), true
}

// field returns the target name of a field known only by name.
func (ix *index) field(name string) (string, bool) { return ix.fields[name].unique() }

// method returns the target name of a method known by name and argument
// count. A negative arity matches any overload.
func (ix *index) method(name string, arity int) (string, bool) {
	if arity < 0 {
		return ix.anyArity[name].unique()
	}
	return ix.methods[methodKey(name, arity)].unique()
}

// class resolves an internal name in from. It reports false for classes
// the set does not know.
func (ix *index) class(internal string) (*mapping.Entry, bool) {
	return ix.set.Class(ix.from, internal)
}

// mapClass returns the name of internal in to, or internal when unmapped.
func (ix *index) mapClass(internal string) string {
	return ix.set.MapClass(ix.from, ix.to, internal)
}

// memberEntries returns the members of owner named name with the given
// kind. Methods are filtered by arity unless it is negative.
func (ix *index) memberEntries(owner, name string, kind mapping.Kind, arity int) []*mapping.Entry {
	var out []*mapping.Entry
	for _, m := range ix.set.Members(ix.from, owner) {
		if m.Kind() != kind || ix.set.Name(m, ix.from) != name {
			continue
		}
		if kind == mapping.KindMethod && arity >= 0 {
			if n, ok := methodArity(ix.set.Descriptor(m, ix.from).Desc); !ok || n != arity {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// targets collects the names of entries in to.
func (ix *index) targets(into names, entries []*mapping.Entry) names {
	if into == nil {
		into = make(names)
	}
	for _, e := range entries {
		into.add(ix.set.Name(e, ix.to))
	}
	return into
}
