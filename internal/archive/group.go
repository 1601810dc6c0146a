// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package archive

import (
	"fmt"
	"strings"

	"github.com/ManuGH/loomsrc/internal/classfile"
)

// ClassGroup is a top-level class together with its inner, local, anonymous
// and synthetic fragments. Decompilers emit one source unit per group.
type ClassGroup struct {
	Name    string  // the top-level class
	Classes []Class // Name first, then fragments in name order
}

// Outer returns the top-level class of the group.
func (g ClassGroup) Outer() Class { return g.Classes[0] }

// Inner returns the fragments attached to the top-level class.
func (g ClassGroup) Inner() []Class { return g.Classes[1:] }

// Hash digests the names and content of every class in the group.
func (g ClassGroup) Hash() Hash {
	parts := make([][]byte, 0, 2*len(g.Classes))
	for _, c := range g.Classes {
		h := c.Hash
		parts = append(parts, []byte(c.Name+"\x00"), h[:])
	}
	return keyed(groupKey, parts...)
}

// Parse parses every class of the group, top-level class first. Any
// malformed or unsupported fragment fails the whole group.
func (g ClassGroup) Parse() ([]*classfile.ClassFile, error) {
	out := make([]*classfile.ClassFile, 0, len(g.Classes))
	for _, c := range g.Classes {
		cf, err := classfile.Parse(c.Data)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", c.Name, err)
		}
		out = append(out, cf)
	}
	return out, nil
}

// Groups partitions the archive into class groups in lexicographic order of
// their top-level names. A fragment attaches to its outermost enclosing
// class present in the archive; a fragment with no enclosing class present
// becomes a group of its own.
func (a *Archive) Groups() []ClassGroup {
	index := make(map[string]int)
	var groups []ClassGroup
	for _, c := range a.classes {
		owner := a.ownerOf(c.Name)
		if i, ok := index[owner]; ok {
			groups[i].Classes = append(groups[i].Classes, c)
			continue
		}
		// owner sorts before its fragments, so an unseen owner is c itself
		index[c.Name] = len(groups)
		groups = append(groups, ClassGroup{Name: c.Name, Classes: []Class{c}})
	}
	return groups
}

// ownerOf returns the outermost class enclosing name that exists in the
// archive, or name itself.
func (a *Archive) ownerOf(name string) string {
	start := strings.LastIndexByte(name, '/') + 1
	for i := start + 1; i < len(name); i++ {
		if name[i] != '$' {
			continue
		}
		if _, ok := a.byName[name[:i]]; ok {
			return name[:i]
		}
	}
	return name
}
