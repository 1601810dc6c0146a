// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package remap

import (
	"fmt"
	"strings"

	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/javasrc"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

type frameKind uint8

const (
	fileFrame frameKind = iota
	typeFrame
	codeFrame
)

// frame is one brace level of the source.
type frame struct {
	kind      frameKind
	class     string // internal name in from; "" for anonymous and local classes
	enum      bool
	constants bool // before the first ';' of an enum body
	start     int  // first significant token of the current member
	parens    int
	assign    bool
	declaring bool // inside a field declarator list
	scope     map[string]bool
}

// rewriter remaps a single unit. Indexes named i, j, k are positions in
// sig unless stated otherwise.
type rewriter struct {
	ix   *index
	u    decompiler.Unit
	opts options

	toks  []javasrc.Token
	sig   []int
	match map[int]int
	lines []string

	target   string
	simple   map[string]string // "" marks a known class the set does not map
	own      map[string]bool
	ownField map[string]bool

	done    map[int]bool
	classAt map[int]string
	methods []*methodDecl
	bodies  map[int]*methodDecl
	edits   javasrc.Edits
}

func newRewriter(ix *index, u decompiler.Unit, o options) *rewriter {
	return &rewriter{
		ix:       ix,
		u:        u,
		opts:     o,
		target:   ix.mapClass(u.ClassName),
		own:      map[string]bool{u.ClassName: true},
		ownField: make(map[string]bool),
		simple:   make(map[string]string),
		done:     make(map[int]bool),
		classAt:  make(map[int]string),
		bodies:   make(map[int]*methodDecl),
	}
}

func (r *rewriter) fail(reason string, err error) *RemapError {
	return &RemapError{Class: r.u.ClassName, From: r.ix.from, To: r.ix.to, Reason: reason, Err: err}
}

func (r *rewriter) run() (decompiler.Unit, *RemapError) {
	toks, err := javasrc.Lex(r.u.Source)
	if err != nil {
		return decompiler.Unit{}, r.fail("source does not lex", err)
	}
	r.toks = toks
	r.scan()
	if err := r.checkPrimary(); err != nil {
		return decompiler.Unit{}, err
	}
	r.lines = strings.Split(r.u.Source, "\n")
	r.collectNames()
	r.markers()
	r.walk()
	r.finishMethods()

	text := javasrc.Join(r.toks)
	if _, err := javasrc.Lex(text); err != nil {
		return decompiler.Unit{}, r.fail("rewritten source does not lex", err)
	}
	lines := r.u.Lines
	if !r.edits.Empty() {
		var move func(int) (int, bool)
		text, move = r.edits.Apply(text)
		lines = lines.Shift(move)
	}

	out := r.u
	out.ClassName = r.target
	out.Namespace = r.ix.to
	out.Source = text
	out.Lines = lines
	out.Inner = make([]string, len(r.u.Inner))
	for i, in := range r.u.Inner {
		out.Inner[i] = r.ix.mapClass(in)
	}
	return out, nil
}

func (r *rewriter) scan() {
	r.sig = make([]int, 0, len(r.toks)/2)
	for i, t := range r.toks {
		if !t.Kind.Trivia() {
			r.sig = append(r.sig, i)
		}
	}
	r.match = make(map[int]int)
	var stack []int
	for i := range r.sig {
		switch r.text(i) {
		case "(", "[", "{":
			stack = append(stack, i)
		case ")", "]", "}":
			if n := len(stack); n > 0 {
				open := stack[n-1]
				stack = stack[:n-1]
				r.match[open], r.match[i] = i, open
			}
		}
	}
}

func (r *rewriter) tok(i int) *javasrc.Token { return &r.toks[r.sig[i]] }

func (r *rewriter) text(i int) string {
	if i < 0 || i >= len(r.sig) {
		return ""
	}
	return r.toks[r.sig[i]].Text
}

func (r *rewriter) isIdent(i int) bool {
	return i >= 0 && i < len(r.sig) && r.toks[r.sig[i]].Kind == javasrc.Ident
}

func (r *rewriter) set(i int, text string) { r.toks[r.sig[i]].Text = text }

func (r *rewriter) partner(i int) (int, bool) {
	j, ok := r.match[i]
	return j, ok
}

var primitives = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}

// typeish reports whether the token at i can end a type.
func (r *rewriter) typeish(i int) bool {
	t := r.text(i)
	return r.isIdent(i) || primitives[t] || t == ">" || t == "]"
}

// typeKeyword reports whether i starts a type declaration name pair.
func (r *rewriter) typeKeyword(i int) bool {
	if !r.isIdent(i + 1) {
		return false
	}
	switch r.text(i) {
	case "class", "interface", "enum":
		return r.text(i-1) != "."
	case "record":
		next := r.text(i + 2)
		return r.isIdent(i) && (next == "(" || next == "<")
	}
	return false
}

// checkPrimary rejects units whose first top-level type is named neither
// after the unit's class nor after its target.
func (r *rewriter) checkPrimary() *RemapError {
	depth := 0
	for i := range r.sig {
		switch r.text(i) {
		case "{":
			depth++
			continue
		case "}":
			depth--
			continue
		}
		if depth != 0 || !r.typeKeyword(i) {
			continue
		}
		name := r.text(i + 1)
		src, dst := classfile.SimpleName(r.u.ClassName), classfile.SimpleName(r.target)
		if name == src || name == dst {
			return nil
		}
		return r.fail(fmt.Sprintf("primary type %q matches neither %q nor %q", name, src, dst), nil)
	}
	return r.fail("no type declaration found", nil)
}

// collectNames fills the simple name table. Earlier sources win: the
// unit's own classes, single-type imports, the package, wildcard imports.
func (r *rewriter) collectNames() {
	add := func(name, internal string) {
		if _, ok := r.simple[name]; !ok && name != "" {
			r.simple[name] = internal
		}
	}
	add(classfile.SimpleName(r.u.ClassName), r.u.ClassName)
	for _, in := range r.u.Inner {
		r.own[in] = true
		add(nestedName(in), in)
	}

	var wildcards []string
	depth := 0
	for i := range r.sig {
		switch r.text(i) {
		case "{":
			depth++
		case "}":
			depth--
		case "import":
			if depth != 0 {
				continue
			}
			d := r.parseImport(i)
			n := len(d.chain)
			switch {
			case d.static || n == 0:
			case d.wildcard:
				if len(d.classes) == 0 {
					wildcards = append(wildcards, strings.Join(r.texts(d.chain), "/"))
				}
			case len(d.classes) == n:
				add(r.text(d.chain[n-1]), d.classes[n-1])
			case len(d.classes) == 0:
				add(r.text(d.chain[n-1]), "")
			}
		}
	}
	for _, c := range r.ix.byPackage[classfile.PackageOf(r.u.ClassName)] {
		add(classfile.SimpleName(c), c)
	}
	for _, pkg := range wildcards {
		for _, c := range r.ix.byPackage[pkg] {
			add(classfile.SimpleName(c), c)
		}
	}

	for c := range r.own {
		for _, m := range r.ix.set.Members(r.ix.from, c) {
			if m.Kind() == mapping.KindField {
				r.ownField[r.ix.set.Name(m, r.ix.from)] = true
			}
		}
	}
}

// nestedName returns the simple name of a named nested class, or "" for
// anonymous and local classes.
func nestedName(internal string) string {
	i := strings.LastIndexByte(internal, '$')
	if i < 0 || i+1 >= len(internal) {
		return ""
	}
	seg := internal[i+1:]
	if seg[0] >= '0' && seg[0] <= '9' {
		return ""
	}
	return seg
}

func (r *rewriter) texts(idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = r.text(i)
	}
	return out
}

func (r *rewriter) walk() {
	if pkg := classfile.PackageOf(r.target); pkg != "" && r.text(0) != "package" {
		r.edits.Insert(r.tok(0).Line, "package "+dotted(pkg)+";", "")
	}
	stack := []*frame{{kind: fileFrame}}
	var pending *frame
	for i := 0; i < len(r.sig); i++ {
		fr := stack[len(stack)-1]
		switch r.text(i) {
		case "{":
			stack = append(stack, r.openFrame(i, fr, pending))
			pending = nil
			continue
		case "}":
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			r.boundary(stack[len(stack)-1], i)
			continue
		case ";":
			if fr.parens == 0 {
				r.boundary(fr, i)
			}
			continue
		case "(":
			fr.parens++
			continue
		case ")":
			if fr.parens > 0 {
				fr.parens--
			}
			continue
		case "=":
			if fr.parens == 0 {
				fr.assign = true
			}
			continue
		case "package":
			if fr.kind == fileFrame {
				i = r.rewritePackage(i)
				r.boundary(fr, i)
				continue
			}
		case "import":
			if fr.kind == fileFrame {
				i = r.rewriteImport(i)
				r.boundary(fr, i)
				continue
			}
		}
		if r.typeKeyword(i) {
			pending = r.declareType(i, fr)
			i++
			continue
		}
		if !r.isIdent(i) || r.done[i] {
			continue
		}
		if fr.kind == typeFrame && fr.parens == 0 && r.declaration(i, fr) {
			continue
		}
		r.use(i, fr)
	}
}

func (r *rewriter) boundary(fr *frame, i int) {
	fr.start = i + 1
	fr.assign = false
	fr.declaring = false
	if fr.constants && r.text(i) == ";" {
		fr.constants = false
	}
}

func (r *rewriter) openFrame(i int, parent, pending *frame) *frame {
	if pending != nil {
		pending.start = i + 1
		pending.constants = pending.enum
		return pending
	}
	if m := r.bodies[i]; m != nil {
		return &frame{kind: codeFrame, start: i + 1, scope: m.locals}
	}
	if r.anonymousBody(i) || (parent.constants && parent.parens == 0) {
		return &frame{kind: typeFrame, start: i + 1}
	}
	scope := parent.scope
	if scope == nil && parent.kind != codeFrame {
		// Initializer blocks and lambdas outside of methods.
		scope = make(map[string]bool)
		if end, ok := r.partner(i); ok {
			r.collectLocals(i, end, scope)
		}
	}
	return &frame{kind: codeFrame, start: i + 1, scope: scope}
}

// anonymousBody reports whether the '{' at i opens the body of an
// anonymous class ("new T(...) {").
func (r *rewriter) anonymousBody(i int) bool {
	if r.text(i-1) != ")" {
		return false
	}
	open, ok := r.partner(i - 1)
	if !ok {
		return false
	}
	j := open - 1
	if r.text(j) == ">" {
		depth := 0
		for ; j >= 0; j-- {
			switch r.text(j) {
			case ">":
				depth++
			case "<":
				depth--
			}
			if depth == 0 {
				break
			}
		}
		j--
	}
	for r.isIdent(j) {
		j--
		if r.text(j) != "." {
			break
		}
		j--
	}
	return r.text(j) == "new"
}

func (r *rewriter) declareType(i int, fr *frame) *frame {
	name := r.text(i + 1)
	var internal string
	switch {
	case fr.kind == fileFrame:
		if name == classfile.SimpleName(r.u.ClassName) || name == classfile.SimpleName(r.target) {
			internal = r.u.ClassName
		} else if pkg := classfile.PackageOf(r.u.ClassName); pkg != "" {
			internal = pkg + "/" + name
		} else {
			internal = name
		}
	case fr.kind == typeFrame && fr.class != "":
		internal = fr.class + "$" + name
	}
	r.done[i+1] = true
	if internal != "" {
		if s := classfile.SimpleName(r.ix.mapClass(internal)); s != name && javasrc.IsIdent(s) {
			r.set(i+1, s)
		}
		if e, ok := r.ix.class(internal); ok {
			r.doc(fr.start, e.Doc(), nil)
		}
	}
	return &frame{kind: typeFrame, class: internal, enum: r.text(i) == "enum"}
}

// declaration handles member declarations directly inside a type body.
func (r *rewriter) declaration(i int, fr *frame) bool {
	prev, next := r.text(i-1), r.text(i+1)
	if prev == "." || prev == "@" {
		return false
	}
	switch {
	case fr.constants && !fr.assign:
		r.field(i, fr, i)
		return true
	case next == "(" && !fr.assign:
		return r.methodDecl(i, fr)
	case !fr.assign && r.typeish(i-1) && (next == "=" || next == ";" || next == ","):
		fr.declaring = true
		r.field(i, fr, fr.start)
		return true
	case fr.declaring && prev == "," && (next == "=" || next == ";" || next == ","):
		r.field(i, fr, -1)
		return true
	}
	return false
}

// field renames a field or enum constant declaration. docAt is the member
// start for javadoc, or -1 for secondary declarators.
func (r *rewriter) field(i int, fr *frame, docAt int) {
	r.done[i] = true
	if fr.class == "" {
		return
	}
	name := r.text(i)
	entries := r.ix.memberEntries(fr.class, name, mapping.KindField, -1)
	if target, ok := r.ix.targets(nil, entries).unique(); ok && target != name && renamable(target) {
		r.set(i, target)
	}
	if len(entries) == 1 && docAt >= 0 {
		r.doc(docAt, entries[0].Doc(), nil)
	}
}

func renamable(name string) bool {
	return javasrc.IsIdent(name) && !javasrc.IsKeyword(name)
}

func dotted(internal string) string { return strings.ReplaceAll(internal, "/", ".") }

// use handles an identifier in expression or type position.
func (r *rewriter) use(i int, fr *frame) {
	switch r.text(i - 1) {
	case ".":
		r.done[i] = true
		switch r.text(i - 2) {
		case "this", "super":
			r.member(i, owner{own: true})
		default:
			r.member(i, owner{})
		}
		return
	case "::":
		r.done[i] = true
		q := r.text(i - 2)
		class, known := r.classAt[i-2]
		r.member(i, owner{class: class, own: q == "this" || q == "super", external: known && class == ""})
		return
	}

	chain := r.chain(i)
	for _, j := range chain {
		r.done[j] = true
	}
	rest := owner{}
	switch {
	case fr.scope[r.text(i)]:
	case r.external(i):
		rest = owner{external: true}
		r.classAt[i] = ""
	default:
		if classes, qualified := r.resolveChain(chain); len(classes) > 0 {
			used := len(classes)
			class := classes[used-1]
			r.renameClass(chain, classes, qualified)
			r.classAt[chain[used-1]] = class
			for k, j := range chain[used:] {
				if k == 0 {
					r.member(j, owner{class: class, external: class == ""})
				} else {
					r.member(j, owner{})
				}
			}
			return
		}
		if !r.typePosition(i) {
			r.member(i, owner{own: true})
		}
	}
	for _, j := range chain[1:] {
		r.member(j, rest)
		rest = owner{}
	}
}

// chain returns i followed by every identifier joined to it with '.'.
func (r *rewriter) chain(i int) []int {
	out := []int{i}
	for j := i; r.text(j+1) == "." && r.isIdent(j+2); j += 2 {
		out = append(out, j+2)
	}
	return out
}

// owner narrows member lookups: a known class, the unit's own classes, a
// class outside the mapping set, or nothing (unknown receiver).
type owner struct {
	class    string
	own      bool
	external bool
}

// member renames a field access or method call at i.
func (r *rewriter) member(i int, o owner) {
	name := r.text(i)
	kind, arity := mapping.KindField, -1
	switch {
	case r.text(i+1) == "(":
		kind, arity = mapping.KindMethod, r.arity(i+1)
	case r.text(i-1) == "::":
		kind = mapping.KindMethod
	}

	if o.external {
		return
	}
	var got names
	switch {
	case o.class != "":
		got = r.ix.targets(nil, r.ix.memberEntries(o.class, name, kind, arity))
	case o.own:
		got = make(names)
		for c := range r.own {
			r.ix.targets(got, r.ix.memberEntries(c, name, kind, arity))
		}
	}
	target, ok := got.unique()
	if len(got) == 0 {
		if kind == mapping.KindField {
			target, ok = r.ix.field(name)
		} else {
			target, ok = r.ix.method(name, arity)
		}
	}
	if ok && target != name && renamable(target) {
		r.set(i, target)
	}
}

// arity counts the arguments of the call whose '(' is at open.
func (r *rewriter) arity(open int) int {
	rparen, ok := r.partner(open)
	if !ok {
		return -1
	}
	if rparen == open+1 {
		return 0
	}
	n, depth := 1, 0
	for k := open + 1; k < rparen; k++ {
		switch r.text(k) {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				n++
			}
		}
	}
	return n
}
