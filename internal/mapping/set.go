// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package mapping holds immutable rename tables between namespaces and the
// readers for the tiny mapping formats.
package mapping

import (
	"strings"
)

// Set is an immutable table of renames spanning two or more namespaces.
// All queries are read-only and safe for concurrent use.
type Set struct {
	namespaces []Namespace
	aliases    map[Namespace]Namespace
	column     map[Namespace]int
	entries    []*Entry // every entry, file order
	classes    []*Entry // class entries, file order
	index      []map[Descriptor]*Entry
}

// Namespaces returns the namespaces in column order. Column 0 is the source
// namespace member descriptors are written in.
func (s *Set) Namespaces() []Namespace {
	out := make([]Namespace, len(s.namespaces))
	copy(out, s.namespaces)
	return out
}

// Source returns the namespace descriptors are expressed in.
func (s *Set) Source() Namespace { return s.namespaces[0] }

// Len returns the number of entries of every kind.
func (s *Set) Len() int { return len(s.entries) }

// Classes returns the class entries in file order.
func (s *Set) Classes() []*Entry {
	out := make([]*Entry, len(s.classes))
	copy(out, s.classes)
	return out
}

// HasNamespace reports whether ns (or an alias of it) is declared.
func (s *Set) HasNamespace(ns Namespace) bool {
	_, ok := s.col(ns)
	return ok
}

// Canonical resolves an alias to its declared namespace.
func (s *Set) Canonical(ns Namespace) Namespace {
	if target, ok := s.aliases[ns]; ok {
		return target
	}
	return ns
}

func (s *Set) col(ns Namespace) (int, bool) {
	i, ok := s.column[s.Canonical(ns)]
	return i, ok
}

// Lookup returns the name recorded in ns for the entry addressed by d, where
// d is expressed in the source namespace. It reports false when the entry is
// absent or declares no name in ns; callers keep the original name then.
func (s *Set) Lookup(ns Namespace, d Descriptor) (string, bool) {
	return s.Map(s.namespaces[0], ns, d)
}

// Map translates the entry addressed by d (expressed in from) into its name in to.
func (s *Set) Map(from, to Namespace, d Descriptor) (string, bool) {
	e, ok := s.Entry(from, d)
	if !ok {
		return "", false
	}
	ti, ok := s.col(to)
	if !ok {
		return "", false
	}
	name := e.nameAt(ti)
	return name, name != ""
}

// Entry finds the entry addressed by d in namespace ns.
func (s *Set) Entry(ns Namespace, d Descriptor) (*Entry, bool) {
	i, ok := s.col(ns)
	if !ok {
		return nil, false
	}
	e, ok := s.index[i][d]
	return e, ok
}

// Class finds a class entry by its internal name in ns.
func (s *Set) Class(ns Namespace, name string) (*Entry, bool) {
	return s.Entry(ns, ClassDescriptor(name))
}

// Members returns the field and method entries of the class named owner in ns.
func (s *Set) Members(ns Namespace, owner string) []*Entry {
	c, ok := s.Class(ns, owner)
	if !ok {
		return nil
	}
	out := make([]*Entry, 0, len(c.children))
	for _, m := range c.children {
		if m.kind == KindField || m.kind == KindMethod {
			out = append(out, m)
		}
	}
	return out
}

// Name returns the effective name of e in ns: the declared name, or the
// source name when e is not renamed there.
func (s *Set) Name(e *Entry, ns Namespace) string {
	i, ok := s.col(ns)
	if !ok {
		return e.nameAt(0)
	}
	return e.effectiveName(i)
}

// Declared returns the name of e declared in ns, without fallback.
func (s *Set) Declared(e *Entry, ns Namespace) (string, bool) {
	i, ok := s.col(ns)
	if !ok {
		return "", false
	}
	n := e.nameAt(i)
	return n, n != ""
}

// MapClass translates an internal class name, keeping it unchanged when unmapped.
func (s *Set) MapClass(from, to Namespace, name string) string {
	if e, ok := s.Class(from, name); ok {
		return s.Name(e, to)
	}
	return name
}

// MapDesc rewrites every class reference inside a field or method descriptor.
func (s *Set) MapDesc(from, to Namespace, desc string) string {
	if !strings.ContainsRune(desc, 'L') {
		return desc
	}
	var b strings.Builder
	b.Grow(len(desc))
	for i := 0; i < len(desc); i++ {
		c := desc[i]
		b.WriteByte(c)
		if c != 'L' {
			continue
		}
		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			b.WriteString(desc[i+1:])
			break
		}
		b.WriteString(s.MapClass(from, to, desc[i+1:i+end]))
		i += end - 1
	}
	return b.String()
}

// Descriptor returns the address of e in ns, with owner, name and
// descriptor translated. Unknown namespaces address e in the source namespace.
func (s *Set) Descriptor(e *Entry, ns Namespace) Descriptor {
	i, ok := s.col(ns)
	if !ok {
		i = 0
	}
	return s.descriptorIn(e, i)
}

// descriptorIn addresses e inside the namespace at column i.
func (s *Set) descriptorIn(e *Entry, i int) Descriptor {
	switch e.kind {
	case KindClass:
		return ClassDescriptor(e.effectiveName(i))
	case KindField, KindMethod:
		owner := e.parent.effectiveName(i)
		return Descriptor{Kind: e.kind, Owner: owner, Name: e.effectiveName(i), Desc: s.descIn(e.desc, i)}
	default:
		m := e.parent
		return Descriptor{
			Kind:  e.kind,
			Owner: m.parent.effectiveName(i),
			Name:  m.effectiveName(i),
			Desc:  s.descIn(m.desc, i),
			Index: e.index,
			Start: e.start,
		}
	}
}

func (s *Set) descIn(desc string, i int) string {
	if i == 0 {
		return desc
	}
	return s.MapDesc(s.namespaces[0], s.namespaces[i], desc)
}

// build indexes every entry in every namespace. Declared names win over
// fallback (source) names; two declared names for the same descriptor in the
// same namespace are a load error.
func (s *Set) build() error {
	s.column = make(map[Namespace]int, len(s.namespaces))
	for i, ns := range s.namespaces {
		s.column[ns] = i
	}
	// Class index first: member descriptors in other namespaces depend on it.
	s.index = make([]map[Descriptor]*Entry, len(s.namespaces))
	for i := range s.namespaces {
		s.index[i] = make(map[Descriptor]*Entry, len(s.entries))
	}
	for _, pass := range [][]Kind{{KindClass}, {KindField, KindMethod, KindParameter, KindLocal}} {
		for i := range s.namespaces {
			if err := s.indexPass(i, pass, true); err != nil {
				return err
			}
		}
		for i := range s.namespaces {
			if err := s.indexPass(i, pass, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Set) indexPass(col int, kinds []Kind, declared bool) error {
	for _, e := range s.entries {
		if !hasKind(kinds, e.kind) {
			continue
		}
		if declared != s.declaredIn(e, col) {
			continue
		}
		d := s.descriptorIn(e, col)
		if prev, exists := s.index[col][d]; exists {
			if declared && s.declaredIn(prev, col) {
				return malformed(0, "duplicate %s entry for %s in namespace %q", e.kind, d, s.namespaces[col])
			}
			continue
		}
		s.index[col][d] = e
	}
	return nil
}

// declaredIn reports whether e (or, for parameters and locals, its slot) is
// explicitly addressed in column col.
func (s *Set) declaredIn(e *Entry, col int) bool {
	switch e.kind {
	case KindParameter, KindLocal:
		// Slots are addressed by index, so every parameter row is explicit.
		return true
	default:
		return e.nameAt(col) != ""
	}
}

func hasKind(kinds []Kind, k Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}
