// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package remap

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

// importDecl is one parsed import statement.
type importDecl struct {
	static   bool
	wildcard bool
	chain    []int    // identifier segments, without the trailing '*'
	classes  []string // internal names for the leading segments that name classes
	end      int      // the terminating ';'
}

func (r *rewriter) parseImport(i int) importDecl {
	d := importDecl{end: len(r.sig) - 1}
	j := i + 1
	if r.text(j) == "static" {
		d.static = true
		j++
	}
	for ; j < len(r.sig); j++ {
		switch t := r.text(j); {
		case t == ";":
			d.end = j
			d.classes, _ = r.resolveQualified(d.chain)
			return d
		case t == "*":
			d.wildcard = true
		case r.isIdent(j):
			d.chain = append(d.chain, j)
		}
	}
	d.classes, _ = r.resolveQualified(d.chain)
	return d
}

func (r *rewriter) rewritePackage(i int) int {
	end := i + 1
	for end < len(r.sig) && r.text(end) != ";" {
		end++
	}
	if end >= len(r.sig) {
		return end
	}
	pkg := classfile.PackageOf(r.target)
	if pkg == "" {
		r.edits.Drop(r.tok(i).Line, r.tok(end).Line)
		return end
	}
	if end > i+1 {
		r.set(i+1, dotted(pkg))
		r.blank(r.sig[i+1]+1, r.sig[end])
	}
	return end
}

func (r *rewriter) rewriteImport(i int) int {
	d := r.parseImport(i)
	if len(d.classes) == 0 {
		return d.end
	}
	class := d.classes[len(d.classes)-1]
	last := d.chain[len(d.classes)-1]
	r.set(d.chain[0], classfile.JavaName(r.ix.mapClass(class)))
	r.blank(r.sig[d.chain[0]]+1, r.sig[last]+1)
	r.classAt[last] = class

	if d.static && !d.wildcard && len(d.classes) == len(d.chain)-1 {
		m := d.chain[len(d.chain)-1]
		name := r.text(m)
		got := r.ix.targets(nil, r.ix.memberEntries(class, name, mapping.KindField, -1))
		r.ix.targets(got, r.ix.memberEntries(class, name, mapping.KindMethod, -1))
		if target, ok := got.unique(); ok && target != name && renamable(target) {
			r.set(m, target)
		}
	}
	return d.end
}

// blank empties the raw tokens in [from, to).
func (r *rewriter) blank(from, to int) {
	for k := from; k < to && k < len(r.toks); k++ {
		r.toks[k].Text = ""
	}
}

// resolveQualified finds the longest run of leading segments naming a
// class in the set by its fully qualified name. It returns the class for
// each consumed segment past the package, aligned to the end of the run.
func (r *rewriter) resolveQualified(chain []int) (classes []string, ok bool) {
	parts := r.texts(chain)
	for p := 2; p <= len(parts); p++ {
		top := strings.Join(parts[:p], "/")
		if _, ok := r.ix.class(top); !ok {
			continue
		}
		classes = make([]string, p, len(parts))
		classes[p-1] = top
		r.extendNested(&classes, parts)
		return classes, true
	}
	return nil, false
}

// extendNested appends nested classes of the last resolved class while the
// following segments name them.
func (r *rewriter) extendNested(classes *[]string, parts []string) {
	for len(*classes) < len(parts) {
		cls := (*classes)[len(*classes)-1] + "$" + parts[len(*classes)]
		if _, ok := r.ix.class(cls); !ok {
			return
		}
		*classes = append(*classes, cls)
	}
}

// resolveChain resolves the class prefix of a dotted chain. The result has
// one entry per consumed segment; package segments hold "". qualified
// reports a fully qualified reference.
func (r *rewriter) resolveChain(chain []int) (classes []string, qualified bool) {
	head := r.text(chain[0])
	if r.ownField[head] && !r.classContext(chain[0]) {
		return nil, false
	}
	if len(chain) >= 2 {
		if _, shadowed := r.simple[head]; !shadowed {
			if cls, ok := r.resolveQualified(chain); ok {
				return cls, true
			}
		}
	}
	cls, ok := r.simple[head]
	if !ok {
		return nil, false
	}
	classes = []string{cls}
	if cls != "" {
		r.extendNested(&classes, r.texts(chain))
	}
	return classes, false
}

// classContext reports whether the identifier at i is used as a type.
func (r *rewriter) classContext(i int) bool {
	return r.text(i-1) == "new" || r.typePosition(i)
}

// typePosition reports whether the identifier at i can only be a type:
// it is followed by a declared name, varargs or an array suffix, or
// follows a keyword that takes a type.
func (r *rewriter) typePosition(i int) bool {
	switch r.text(i - 1) {
	case "new", "extends", "implements", "throws", "instanceof":
		return true
	}
	next := r.text(i + 1)
	return r.isIdent(i+1) || next == "..." || (next == "[" && r.text(i+2) == "]")
}

// external reports whether the chain head at i names a class outside the
// set, such as a java.lang type referenced without an import.
func (r *rewriter) external(i int) bool {
	name := r.text(i)
	if _, known := r.simple[name]; known || r.ownField[name] {
		return false
	}
	first, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsUpper(first) {
		return false
	}
	return r.text(i+1) == "." || r.text(i+1) == "::" || r.typePosition(i)
}

// renameClass rewrites the class segments of a chain. Qualified references
// are replaced by the target's qualified name; simple ones segment by
// segment.
func (r *rewriter) renameClass(chain []int, classes []string, qualified bool) {
	last := classes[len(classes)-1]
	if last == "" {
		return
	}
	if qualified {
		end := chain[len(classes)-1]
		r.set(chain[0], classfile.JavaName(r.ix.mapClass(last)))
		r.blank(r.sig[chain[0]]+1, r.sig[end]+1)
		return
	}
	for k, cls := range classes {
		name := classfile.SimpleName(r.ix.mapClass(cls))
		if name != r.text(chain[k]) && renamable(name) {
			r.set(chain[k], name)
		}
	}
}
