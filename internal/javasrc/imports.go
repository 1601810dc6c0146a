// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package javasrc

import (
	"sort"
	"strings"

	"github.com/ManuGH/loomsrc/internal/classfile"
)

// importer assigns source names to class references of one unit. The first
// class to claim a simple name gets it; later clashes are fully qualified.
type importer struct {
	pkg      string
	top      string
	local    map[string]bool
	bySimple map[string]string
	needed   map[string]bool
}

func newImporter(top string, local []string) *importer {
	im := &importer{
		pkg:      classfile.PackageOf(top),
		top:      top,
		local:    make(map[string]bool, len(local)),
		bySimple: make(map[string]string),
		needed:   make(map[string]bool),
	}
	for _, n := range local {
		im.local[n] = true
	}
	return im
}

// splitNested splits a/B$C$D into a/B and C.D.
func splitNested(internal string) (top, rest string) {
	slash := strings.LastIndexByte(internal, '/')
	i := strings.IndexByte(internal[slash+1:], '$')
	if i <= 0 || slash+1+i == len(internal)-1 {
		return internal, ""
	}
	i += slash + 1
	return internal[:i], strings.ReplaceAll(internal[i+1:], "$", ".")
}

func (im *importer) name(internal string) string {
	top, rest := splitNested(internal)
	join := func(s string) string {
		if rest == "" {
			return s
		}
		return s + "." + rest
	}
	if top == im.top {
		if rest == "" {
			return classfile.SimpleName(top)
		}
		return rest
	}
	simple := classfile.SimpleName(top)
	if im.local[simple] {
		return classfile.JavaName(internal)
	}
	if owner, ok := im.bySimple[simple]; ok && owner != top {
		return classfile.JavaName(internal)
	}
	im.bySimple[simple] = top
	pkg := classfile.PackageOf(top)
	if pkg != im.pkg && pkg != "java/lang" {
		im.needed[top] = true
	}
	return join(simple)
}

// imports returns the import declarations, sorted.
func (im *importer) imports() []string {
	out := make([]string, 0, len(im.needed))
	for top := range im.needed {
		out = append(out, "import "+classfile.JavaName(top)+";")
	}
	sort.Strings(out)
	return out
}
