// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package remap

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/javasrc"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

// param is one declared method parameter.
type param struct {
	name int    // sig index of the name
	base string // simple type name without generics
	dims int
}

// methodDecl is a method or constructor declared in a named class.
type methodDecl struct {
	entry  *mapping.Entry
	class  string
	static bool
	ctor   bool
	hidden int // synthetic leading descriptor parameters of constructors
	params []param
	start  int // first token of the member, for javadoc
	open   int // '(' of the parameter list
	body   int // '{' of the body, or -1
	end    int // last token of the declaration
	locals map[string]bool
}

var varSlot = regexp.MustCompile(`^var(\d+)$`)

// methodDecl handles an identifier followed by '(' at member level.
func (r *rewriter) methodDecl(i int, fr *frame) bool {
	name := r.text(i)
	ctor := fr.class != "" && name == classfile.SimpleName(fr.class)
	if !ctor && !r.typeish(i-1) {
		return false
	}
	rparen, ok := r.partner(i + 1)
	if !ok {
		return false
	}
	r.done[i] = true

	md := &methodDecl{class: fr.class, ctor: ctor, start: fr.start, open: i + 1, body: -1, end: rparen, locals: make(map[string]bool)}
	for k := fr.start; k < i; k++ {
		if r.text(k) == "static" {
			md.static = true
		}
	}
	md.params = r.params(i+1, rparen)
	for _, p := range md.params {
		r.done[p.name] = true
		md.locals[r.text(p.name)] = true
	}
	for k := rparen + 1; k < len(r.sig); k++ {
		t := r.text(k)
		if t == ";" {
			md.end = k
			break
		}
		if t == "{" {
			md.body = k
			if e, ok := r.partner(k); ok {
				md.end = e
				r.collectLocals(k, e, md.locals)
			}
			r.bodies[k] = md
			break
		}
	}
	r.methods = append(r.methods, md)

	if fr.class == "" {
		return true
	}
	if ctor {
		if s := classfile.SimpleName(r.ix.mapClass(fr.class)); s != name && renamable(s) {
			r.set(i, s)
		}
	}
	md.entry, md.hidden = r.matchMethod(md, name)
	if md.entry != nil && !ctor {
		if target := r.ix.set.Name(md.entry, r.ix.to); target != name && renamable(target) {
			r.set(i, target)
		}
	}
	return true
}

// params parses the parameter list between open and end.
func (r *rewriter) params(open, end int) []param {
	var out []param
	add := func(from, to int) {
		if p, ok := r.param(from, to); ok {
			out = append(out, p)
		}
	}
	from, depth := open+1, 0
	for k := open + 1; k < end; k++ {
		switch r.text(k) {
		case "(", "[", "{", "<":
			depth++
		case ")", "]", "}", ">":
			depth--
		case ",":
			if depth == 0 {
				add(from, k)
				from = k + 1
			}
		}
	}
	if from < end {
		add(from, end)
	}
	return out
}

// param parses the tokens in [from, to) as one parameter.
func (r *rewriter) param(from, to int) (param, bool) {
	var p param
	name := -1
	depth := 0
	for k := from; k < to; k++ {
		t := r.text(k)
		switch {
		case t == "@":
			k = r.skipAnnotation(k)
		case t == "<":
			depth++
		case t == ">":
			depth--
		case depth > 0:
		case t == "[" || t == "...":
			p.dims++
		case r.isIdent(k) || primitives[t]:
			if name >= 0 {
				p.base = r.text(name)
			}
			name = k
		}
	}
	if name < 0 || !r.isIdent(name) || p.base == "" {
		return p, false
	}
	p.name = name
	return p, true
}

// skipAnnotation returns the last token of the annotation starting at k.
func (r *rewriter) skipAnnotation(k int) int {
	k++
	for r.isIdent(k) && r.text(k+1) == "." {
		k += 2
	}
	if r.text(k+1) == "(" {
		if e, ok := r.partner(k + 1); ok {
			return e
		}
	}
	return k
}

// matchMethod finds the mapping entry for a declaration. Parameter types
// are compared by erased simple name; when that is ambiguous a unique
// arity match is accepted.
func (r *rewriter) matchMethod(md *methodDecl, name string) (*mapping.Entry, int) {
	if md.ctor {
		name = "<init>"
	}
	var strong, weak []*mapping.Entry
	var strongHidden, weakHidden int
	for _, e := range r.ix.memberEntries(md.class, name, mapping.KindMethod, -1) {
		types, _, err := classfile.ParseMethodDescriptor(r.ix.set.Descriptor(e, r.ix.from).Desc)
		if err != nil {
			continue
		}
		hidden := len(types) - len(md.params)
		if hidden < 0 || (hidden > 0 && (!md.ctor || hidden > 2)) {
			continue
		}
		weak, weakHidden = append(weak, e), hidden
		if sameTypes(types[hidden:], md.params) {
			strong, strongHidden = append(strong, e), hidden
		}
	}
	switch {
	case len(strong) == 1:
		return strong[0], strongHidden
	case len(weak) == 1:
		return weak[0], weakHidden
	}
	return nil, 0
}

func sameTypes(types []classfile.Type, params []param) bool {
	for k, t := range types {
		p := params[k]
		if t.Java(classfile.SimpleName) != p.base+strings.Repeat("[]", p.dims) {
			return false
		}
	}
	return true
}

// collectLocals adds the names declared between open and end to scope:
// local variables, catch and for-each variables, lambda parameters.
func (r *rewriter) collectLocals(open, end int, scope map[string]bool) {
	for k := open + 1; k < end; k++ {
		t := r.text(k)
		if t == "->" {
			if r.text(k-1) == ")" {
				if o, ok := r.partner(k - 1); ok {
					for j := o + 1; j < k-1; j++ {
						if r.isIdent(j) && (r.text(j+1) == "," || r.text(j+1) == ")") {
							scope[r.text(j)] = true
						}
					}
				}
			} else if r.isIdent(k - 1) {
				scope[r.text(k-1)] = true
			}
			continue
		}
		if !r.isIdent(k) || !r.typeish(k-1) {
			continue
		}
		switch r.text(k + 1) {
		case "=", ";", ",", ":", ")":
			scope[t] = true
		}
	}
}

// finishMethods renames parameters and locals and documents methods once
// every declaration has been seen.
func (r *rewriter) finishMethods() {
	for _, md := range r.methods {
		if md.entry == nil {
			continue
		}
		renames := r.paramRenames(md)
		renames = append(renames, r.localRenames(md)...)
		used := r.identsIn(md)
		for _, rn := range renames {
			if used[rn.to] || rn.from == rn.to {
				continue
			}
			used[rn.to] = true
			r.renameIn(md, rn.from, rn.to)
		}
		r.doc(md.start, md.entry.Doc(), r.paramDocs(md))
	}
}

type rename struct{ from, to string }

func (r *rewriter) paramRenames(md *methodDecl) []rename {
	slots, err := classfile.ParamSlots(r.ix.set.Descriptor(md.entry, r.ix.from).Desc, md.static)
	if err != nil {
		return nil
	}
	var out []rename
	for k, p := range md.params {
		if md.hidden+k >= len(slots) {
			break
		}
		e := r.slotEntry(md.entry, mapping.KindParameter, slots[md.hidden+k])
		if e == nil {
			continue
		}
		if to, ok := r.ix.set.Declared(e, r.ix.to); ok && renamable(to) {
			out = append(out, rename{r.text(p.name), to})
		}
	}
	return out
}

func (r *rewriter) localRenames(md *methodDecl) []rename {
	params := make(map[string]bool, len(md.params))
	for _, p := range md.params {
		params[r.text(p.name)] = true
	}
	var locals []*mapping.Entry
	for _, c := range md.entry.Children() {
		if c.Kind() == mapping.KindLocal {
			locals = append(locals, c)
		}
	}
	if len(locals) == 0 {
		return nil
	}
	var out []rename
	for _, name := range slices.Sorted(maps.Keys(md.locals)) {
		if params[name] {
			continue
		}
		var e *mapping.Entry
		if m := varSlot.FindStringSubmatch(name); m != nil {
			idx, _ := strconv.Atoi(m[1])
			e = r.slotEntry(md.entry, mapping.KindLocal, idx)
		}
		if e == nil {
			for _, l := range locals {
				if r.ix.set.Name(l, r.ix.from) != name {
					continue
				}
				if e != nil {
					e = nil
					break
				}
				e = l
			}
		}
		if e == nil {
			continue
		}
		if to, ok := r.ix.set.Declared(e, r.ix.to); ok && renamable(to) {
			out = append(out, rename{name, to})
		}
	}
	return out
}

// slotEntry returns the only child of method with kind and slot index.
func (r *rewriter) slotEntry(method *mapping.Entry, kind mapping.Kind, slot int) *mapping.Entry {
	var found *mapping.Entry
	for _, c := range method.Children() {
		if c.Kind() != kind || c.Index() != slot {
			continue
		}
		if found != nil {
			return nil
		}
		found = c
	}
	return found
}

func (r *rewriter) paramDocs(md *methodDecl) []string {
	slots, err := classfile.ParamSlots(r.ix.set.Descriptor(md.entry, r.ix.from).Desc, md.static)
	if err != nil {
		return nil
	}
	var out []string
	for k, p := range md.params {
		if md.hidden+k >= len(slots) {
			break
		}
		e := r.slotEntry(md.entry, mapping.KindParameter, slots[md.hidden+k])
		if e == nil || e.Doc() == "" {
			continue
		}
		out = append(out, "@param "+r.text(p.name)+" "+e.Doc())
	}
	return out
}

// identsIn returns every identifier used by the declaration.
func (r *rewriter) identsIn(md *methodDecl) map[string]bool {
	out := make(map[string]bool)
	for k := md.open; k <= md.end; k++ {
		if r.isIdent(k) {
			out[r.text(k)] = true
		}
	}
	return out
}

// renameIn renames a parameter or local inside md, leaving member accesses,
// calls and nested method declarations alone.
func (r *rewriter) renameIn(md *methodDecl, from, to string) {
	for k := md.open; k <= md.end; k++ {
		if nested := r.nestedMethod(md, k); nested != nil {
			k = nested.end
			continue
		}
		if !r.isIdent(k) || r.text(k) != from {
			continue
		}
		if prev := r.text(k - 1); prev == "." || prev == "::" || r.text(k+1) == "(" {
			continue
		}
		r.set(k, to)
	}
}

func (r *rewriter) nestedMethod(md *methodDecl, k int) *methodDecl {
	for _, other := range r.methods {
		if other != md && other.open == k && other.open > md.open && other.end <= md.end {
			return other
		}
	}
	return nil
}

// markerLine matches the synthetic and bridge comments the backends emit.
var markerLine = regexp.MustCompile(`^(?://\s*\$(?:FF|VF):\s*(synthetic|bridge) method|/\*\s*(synthetic|bridge)\s*\*/)\s*$`)

// markers normalizes synthetic and bridge markers and drops bridge
// methods unless they are kept.
func (r *rewriter) markers() {
	for raw, t := range r.toks {
		if (t.Kind != javasrc.LineComment && t.Kind != javasrc.BlockComment) || t.Line < 1 || t.Line > len(r.lines) {
			continue
		}
		text := strings.TrimSpace(t.Text)
		line := r.lines[t.Line-1]
		if strings.TrimSpace(line) != text {
			continue
		}
		m := markerLine.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		kind := m[1] + m[2]
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if kind == "synthetic" || r.opts.keepBridges {
			r.edits.Replace(t.Line, indent+"// "+kind+" method")
			continue
		}
		end, ok := r.memberEnd(raw)
		if !ok {
			continue
		}
		last := r.tok(end).Line
		r.edits.Drop(t.Line, last)
		if t.Line >= 2 && strings.TrimSpace(r.lines[t.Line-2]) == "" && last < len(r.lines) && strings.TrimSpace(r.lines[last]) == "" {
			r.edits.Drop(last+1, last+1)
		}
	}
}

// memberEnd finds the last token of the member following the raw token.
func (r *rewriter) memberEnd(raw int) (int, bool) {
	k := r.sigAfter(raw)
	depth := 0
	for ; k < len(r.sig); k++ {
		switch r.text(k) {
		case "(":
			depth++
		case ")":
			depth--
		case ";":
			if depth == 0 {
				return k, true
			}
		case "{":
			if depth == 0 {
				return r.partner(k)
			}
		case "}":
			if depth == 0 {
				return 0, false
			}
		}
	}
	return 0, false
}

// sigAfter returns the first sig index whose raw token follows raw.
func (r *rewriter) sigAfter(raw int) int {
	lo, hi := 0, len(r.sig)
	for lo < hi {
		mid := (lo + hi) / 2
		if r.sig[mid] <= raw {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
