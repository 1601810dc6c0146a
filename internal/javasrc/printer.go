// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package javasrc

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/linemap"
)

// RenderOptions are the engine-neutral knobs of the skeleton printer.
type RenderOptions struct {
	Indent     string
	Generics   bool
	Synthetics bool
}

// Rendered is a printed compilation unit. Lines correlates the first
// statement of each method body, and its closing brace, with the method's
// recorded source lines.
type Rendered struct {
	Text  string
	Lines linemap.Map
}

// Render prints the declarations of a class and its member classes as a
// single compilation unit. classes[0] is the top-level class; the rest are
// fragments nested in it. Method bodies are stubs.
func Render(classes []*classfile.ClassFile, style Style, opts RenderOptions) (Rendered, error) {
	if len(classes) == 0 || classes[0] == nil {
		return Rendered{}, errors.New("render: no class")
	}
	if opts.Indent == "" {
		opts.Indent = "    "
	}
	top := classes[0]
	byName := make(map[string]*classfile.ClassFile, len(classes))
	enclosing := make(map[string]string)
	var local []string
	for _, c := range classes {
		byName[c.ThisClass] = c
		local = append(local, classfile.SimpleName(c.ThisClass))
		for _, ic := range c.InnerClasses {
			if ic.Name != "" && ic.Outer != "" && ic.AccessFlags&classfile.AccStatic == 0 {
				enclosing[ic.Inner] = ic.Outer
			}
		}
	}
	p := &printer{
		style:     style,
		opts:      opts,
		classes:   byName,
		enclosing: enclosing,
		imp:       newImporter(top.ThisClass, local),
		line:      1,
	}
	if err := p.class(top, top.AccessFlags, 0); err != nil {
		return Rendered{}, err
	}

	var head []string
	head = append(head, style.Header...)
	if pkg := classfile.PackageOf(top.ThisClass); pkg != "" {
		head = append(head, "package "+strings.ReplaceAll(pkg, "/", ".")+";", "")
	}
	if imps := p.imp.imports(); len(imps) > 0 {
		head = append(head, imps...)
		head = append(head, "")
	}
	shift := len(head)
	pairs := make([]linemap.Pair, len(p.pairs))
	for i, pr := range p.pairs {
		pairs[i] = linemap.Pair{Line: pr.Line + shift, Original: pr.Original}
	}
	var b strings.Builder
	for _, h := range head {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	b.WriteString(p.b.String())
	return Rendered{Text: b.String(), Lines: linemap.New(pairs...)}, nil
}

type printer struct {
	style     Style
	opts      RenderOptions
	classes   map[string]*classfile.ClassFile
	// enclosing maps inner (non-static) member classes to their outer class.
	enclosing map[string]string
	imp       *importer
	b         strings.Builder
	line      int
	pairs     []linemap.Pair
}

func (p *printer) println(depth int, text string) int {
	n := p.line
	if text != "" {
		p.b.WriteString(strings.Repeat(p.opts.Indent, depth))
		p.b.WriteString(text)
	}
	p.b.WriteByte('\n')
	p.line++
	return n
}

func (p *printer) name(internal string) string { return p.imp.name(internal) }

func (p *printer) class(c *classfile.ClassFile, access uint16, depth int) error {
	header, err := p.classHeader(c, access, depth > 0)
	if err != nil {
		return err
	}
	p.println(depth, header+" {")

	first := true
	gap := func() {
		if !first && p.style.BlankBetweenMembers {
			p.println(0, "")
		}
		first = false
	}

	if c.Is(classfile.AccEnum) {
		var consts []string
		for _, f := range c.Fields {
			if f.Is(classfile.AccEnum) {
				consts = append(consts, f.Name)
			}
		}
		for i, name := range consts {
			sep := ","
			if i == len(consts)-1 {
				sep = ";"
			}
			p.println(depth+1, name+sep)
		}
		if len(consts) == 0 {
			p.println(depth+1, ";")
		}
		first = len(consts) == 0
	}

	record := c.SuperClass == "java/lang/Record"
	for _, f := range c.Fields {
		if f.Is(classfile.AccEnum) || record && !f.Is(classfile.AccStatic) {
			continue
		}
		if f.Is(classfile.AccSynthetic) && !p.opts.Synthetics {
			continue
		}
		gap()
		if err := p.field(c, f, depth+1); err != nil {
			return err
		}
	}
	for i := range c.Methods {
		m := &c.Methods[i]
		if skipMethod(c, m, p.opts.Synthetics) {
			continue
		}
		gap()
		if err := p.method(c, m, depth+1); err != nil {
			return err
		}
	}
	for _, ic := range memberClasses(c) {
		nested, ok := p.classes[ic.Inner]
		if !ok {
			continue
		}
		if ic.AccessFlags&classfile.AccSynthetic != 0 && !p.opts.Synthetics {
			continue
		}
		gap()
		if err := p.class(nested, ic.AccessFlags, depth+1); err != nil {
			return err
		}
	}
	p.println(depth, "}")
	return nil
}

// memberClasses lists the named member classes declared directly in c.
func memberClasses(c *classfile.ClassFile) []classfile.InnerClass {
	var out []classfile.InnerClass
	for _, ic := range c.InnerClasses {
		if ic.Outer == c.ThisClass && ic.Name != "" {
			out = append(out, ic)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Inner < out[j].Inner })
	return out
}

func skipMethod(c *classfile.ClassFile, m *classfile.Method, synthetics bool) bool {
	if m.Name == "<clinit>" {
		return true
	}
	if (m.Is(classfile.AccSynthetic) || m.Is(classfile.AccBridge)) && !synthetics {
		return true
	}
	if c.Is(classfile.AccEnum) {
		switch {
		case m.Name == "values" && strings.HasPrefix(m.Descriptor, "()"):
			return true
		case m.Name == "valueOf" && strings.HasPrefix(m.Descriptor, "(Ljava/lang/String;)"):
			return true
		}
	}
	return false
}

func (p *printer) classHeader(c *classfile.ClassFile, access uint16, nested bool) (string, error) {
	var mods []string
	mods = appendAccess(mods, access)
	kind := "class"
	record := c.SuperClass == "java/lang/Record"
	switch {
	case c.Is(classfile.AccAnnotation):
		kind = "@interface"
	case c.Is(classfile.AccInterface):
		kind = "interface"
	case c.Is(classfile.AccEnum):
		kind = "enum"
	case record:
		kind = "record"
	}
	if nested && access&classfile.AccStatic != 0 && kind == "class" {
		mods = append(mods, "static")
	}
	if access&classfile.AccAbstract != 0 && kind == "class" {
		mods = append(mods, "abstract")
	}
	if access&classfile.AccFinal != 0 && kind == "class" {
		mods = append(mods, "final")
	}

	var typeParams, super string
	ifaces := make([]string, 0, len(c.Interfaces))
	if p.opts.Generics && c.Signature != "" {
		tp, s, is, err := classfile.RenderClassSignature(c.Signature, p.name)
		if err != nil {
			return "", fmt.Errorf("class %s: %w", c.ThisClass, err)
		}
		typeParams, super, ifaces = tp, s, is
	} else {
		if c.SuperClass != "" {
			super = p.name(c.SuperClass)
		}
		for _, i := range c.Interfaces {
			ifaces = append(ifaces, p.name(i))
		}
	}

	var b strings.Builder
	for _, m := range mods {
		b.WriteString(m)
		b.WriteByte(' ')
	}
	b.WriteString(kind)
	b.WriteByte(' ')
	b.WriteString(classfile.SimpleName(c.ThisClass))
	b.WriteString(typeParams)
	if record {
		b.WriteString("(" + strings.Join(p.recordComponents(c), ", ") + ")")
	}

	if kind == "class" && super != "" && c.SuperClass != "java/lang/Object" {
		b.WriteString(" extends " + super)
	}
	if kind == "@interface" {
		ifaces = nil
	}
	if kind == "interface" && len(ifaces) > 0 {
		b.WriteString(" extends " + strings.Join(ifaces, ", "))
	} else if len(ifaces) > 0 {
		b.WriteString(" implements " + strings.Join(ifaces, ", "))
	}
	return b.String(), nil
}

func (p *printer) recordComponents(c *classfile.ClassFile) []string {
	var out []string
	for _, f := range c.Fields {
		if f.Is(classfile.AccStatic) {
			continue
		}
		out = append(out, p.fieldType(f)+" "+f.Name)
	}
	return out
}

func appendAccess(mods []string, access uint16) []string {
	switch {
	case access&classfile.AccPublic != 0:
		mods = append(mods, "public")
	case access&classfile.AccProtected != 0:
		mods = append(mods, "protected")
	case access&classfile.AccPrivate != 0:
		mods = append(mods, "private")
	}
	return mods
}

func (p *printer) fieldType(f classfile.Field) string {
	if p.opts.Generics && f.Signature != "" {
		if s, err := classfile.RenderFieldSignature(f.Signature, p.name); err == nil {
			return s
		}
	}
	t, err := classfile.ParseFieldDescriptor(f.Descriptor)
	if err != nil {
		return "Object"
	}
	return t.Java(p.name)
}

func (p *printer) field(c *classfile.ClassFile, f classfile.Field, depth int) error {
	if _, err := classfile.ParseFieldDescriptor(f.Descriptor); err != nil {
		return fmt.Errorf("field %s.%s: %w", c.ThisClass, f.Name, err)
	}
	if f.Is(classfile.AccSynthetic) && p.style.SyntheticMarker != "" {
		p.println(depth, p.style.SyntheticMarker)
	}
	var mods []string
	mods = appendAccess(mods, f.AccessFlags)
	for _, m := range []struct {
		flag uint16
		word string
	}{{classfile.AccStatic, "static"}, {classfile.AccFinal, "final"}, {classfile.AccTransient, "transient"}, {classfile.AccVolatile, "volatile"}} {
		if f.Is(m.flag) {
			mods = append(mods, m.word)
		}
	}
	decl := strings.Join(append(mods, p.fieldType(f), f.Name), " ")
	p.println(depth, decl+";")
	return nil
}

func (p *printer) method(c *classfile.ClassFile, m *classfile.Method, depth int) error {
	params, ret, err := classfile.ParseMethodDescriptor(m.Descriptor)
	if err != nil {
		return fmt.Errorf("method %s.%s: %w", c.ThisClass, m.Name, err)
	}
	static := m.Is(classfile.AccStatic)
	slots, _ := classfile.ParamSlots(m.Descriptor, static)

	paramTypes := make([]string, len(params))
	for i, t := range params {
		paramTypes[i] = t.Java(p.name)
	}
	retType := ret.Java(p.name)
	var typeParams string
	throws := make([]string, 0, len(m.Exceptions))
	for _, e := range m.Exceptions {
		throws = append(throws, p.name(e))
	}
	if p.opts.Generics && m.Signature != "" {
		if ms, err := classfile.RenderMethodSignature(m.Signature, p.name); err == nil && len(ms.Params) == len(params) {
			paramTypes, retType, typeParams = ms.Params, ms.Return, ms.TypeParams
			if len(ms.Throws) > 0 {
				throws = ms.Throws
			}
		}
	}

	// Enum constructors carry the name and ordinal, and inner class
	// constructors the outer instance, as hidden leading parameters.
	hidden := 0
	if m.Name == "<init>" {
		switch outer := p.enclosing[c.ThisClass]; {
		case c.Is(classfile.AccEnum) && len(params) >= 2:
			hidden = 2
		case outer != "" && !c.Is(classfile.AccInterface) && len(params) >= 1 && params[0].Dims == 0 && params[0].Class == outer:
			hidden = 1
		}
	}

	names := p.paramNames(m, slots, params)
	decls := make([]string, 0, len(params))
	for i := hidden; i < len(params); i++ {
		t := paramTypes[i]
		if i == len(params)-1 && m.Is(classfile.AccVarargs) && strings.HasSuffix(t, "[]") {
			t = strings.TrimSuffix(t, "[]") + "..."
		}
		decls = append(decls, t+" "+names[i])
	}

	iface := c.Is(classfile.AccInterface)
	var mods []string
	if !iface || m.Is(classfile.AccPrivate) {
		mods = appendAccess(mods, m.AccessFlags)
	}
	abstract := m.Is(classfile.AccAbstract)
	switch {
	case abstract && !iface:
		mods = append(mods, "abstract")
	case iface && !abstract && !static && !m.Is(classfile.AccPrivate):
		mods = append(mods, "default")
	}
	for _, f := range []struct {
		flag uint16
		word string
	}{{classfile.AccStatic, "static"}, {classfile.AccFinal, "final"}, {classfile.AccSynchronized, "synchronized"}, {classfile.AccNative, "native"}} {
		if m.Is(f.flag) {
			mods = append(mods, f.word)
		}
	}

	var b strings.Builder
	for _, mod := range mods {
		b.WriteString(mod)
		b.WriteByte(' ')
	}
	if typeParams != "" {
		b.WriteString(typeParams + " ")
	}
	if m.Name == "<init>" {
		b.WriteString(classfile.SimpleName(c.ThisClass))
	} else {
		b.WriteString(retType + " " + m.Name)
	}
	b.WriteString("(" + strings.Join(decls, ", ") + ")")
	if len(throws) > 0 {
		b.WriteString(" throws " + strings.Join(throws, ", "))
	}

	switch {
	case m.Is(classfile.AccBridge) && p.style.BridgeMarker != "":
		p.println(depth, p.style.BridgeMarker)
	case m.Is(classfile.AccSynthetic) && p.style.SyntheticMarker != "":
		p.println(depth, p.style.SyntheticMarker)
	}
	if abstract || m.Is(classfile.AccNative) || m.Code == nil {
		p.println(depth, b.String()+";")
		return nil
	}
	p.println(depth, b.String()+" {")
	body := p.println(depth+1, p.style.StubBody)
	end := p.println(depth, "}")
	if first := m.FirstLine(); first > 0 {
		p.pairs = append(p.pairs, linemap.Pair{Line: body, Original: first})
		if last := m.LastLine(); last > first {
			p.pairs = append(p.pairs, linemap.Pair{Line: end, Original: last})
		}
	}
	return nil
}

func (p *printer) paramNames(m *classfile.Method, slots []int, params []classfile.Type) []string {
	var fallback []string
	if p.style.ParamNames != nil {
		fallback = p.style.ParamNames(slots, params)
	} else {
		fallback = SlotParamNames(slots, params)
	}
	out := make([]string, len(params))
	for i := range params {
		if name, ok := m.LocalName(slots[i]); ok && IsIdent(name) && !IsKeyword(name) {
			out[i] = name
		} else {
			out[i] = fallback[i]
		}
	}
	return out
}
