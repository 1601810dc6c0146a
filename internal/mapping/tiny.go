// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mapping

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const maxLineBytes = 1 << 20

// LoadFile reads a tiny v1 or v2 mapping file.
func LoadFile(path string) (*Set, error) {
	// #nosec G304 -- mapping paths are supplied by the operator
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open mappings: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load reads a tiny v1 or v2 mapping table. Any structural fault aborts the
// whole load with a *MalformedMappingError; no partial Set is returned.
func Load(r io.Reader) (*Set, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, &MalformedMappingError{Reason: "read header", Err: err}
		}
		return nil, malformed(0, "empty mapping table")
	}
	header := strings.Split(strings.TrimSuffix(sc.Text(), "\r"), "\t")

	var p parser
	switch {
	case len(header) >= 3 && header[0] == "tiny" && header[1] == "2":
		p = &tinyV2{}
		if err := p.header(header[3:]); err != nil {
			return nil, err
		}
	case header[0] == "v1":
		p = &tinyV1{}
		if err := p.header(header[1:]); err != nil {
			return nil, err
		}
	default:
		return nil, malformed(1, "unrecognised header %q", header[0])
	}

	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}
		if err := p.row(line, text); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &MalformedMappingError{Line: line, Reason: "read row", Err: err}
	}
	return p.finish()
}

type parser interface {
	header(namespaces []string) error
	row(line int, text string) error
	finish() (*Set, error)
}

// builder accumulates entries shared by both format readers.
type builder struct {
	namespaces []Namespace
	aliases    map[Namespace]Namespace
	entries    []*Entry
	classes    []*Entry
	byClass    map[string]*Entry
}

func (b *builder) init(names []string) error {
	if len(names) < 2 {
		return malformed(1, "header declares %d namespace(s), need at least 2", len(names))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return malformed(1, "empty namespace name in header")
		}
		if seen[n] {
			return malformed(1, "namespace %q declared twice", n)
		}
		seen[n] = true
		b.namespaces = append(b.namespaces, Namespace(n))
	}
	b.aliases = make(map[Namespace]Namespace)
	b.byClass = make(map[string]*Entry)
	return nil
}

func (b *builder) names(line int, cols []string, unescape bool) ([]string, error) {
	if len(cols) != len(b.namespaces) {
		return nil, malformed(line, "row has %d name column(s), header declares %d namespace(s)", len(cols), len(b.namespaces))
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		if unescape {
			v, err := unescapeTiny(c)
			if err != nil {
				return nil, &MalformedMappingError{Line: line, Reason: "bad escape", Err: err}
			}
			c = v
		}
		out[i] = c
	}
	return out, nil
}

func (b *builder) addClass(line int, names []string) (*Entry, error) {
	if names[0] == "" {
		return nil, malformed(line, "class row without a source name")
	}
	if prev, ok := b.byClass[names[0]]; ok {
		if prev.placeholder {
			prev.names = names
			prev.placeholder = false
			return prev, nil
		}
		return nil, malformed(line, "duplicate class entry %q", names[0])
	}
	e := &Entry{kind: KindClass, names: names}
	b.byClass[names[0]] = e
	b.classes = append(b.classes, e)
	b.entries = append(b.entries, e)
	return e, nil
}

// classFor returns the class entry named src, creating an unnamed placeholder
// for member rows whose owner has no row of its own (tiny v1).
func (b *builder) classFor(src string) *Entry {
	if e, ok := b.byClass[src]; ok {
		return e
	}
	names := make([]string, len(b.namespaces))
	names[0] = src
	e := &Entry{kind: KindClass, names: names, placeholder: true}
	b.byClass[src] = e
	b.classes = append(b.classes, e)
	b.entries = append(b.entries, e)
	return e
}

func (b *builder) addChild(parent *Entry, e *Entry) *Entry {
	e.parent = parent
	parent.children = append(parent.children, e)
	b.entries = append(b.entries, e)
	return e
}

func (b *builder) set() (*Set, error) {
	aliases, err := resolveAliases(b.namespaces, b.aliases)
	if err != nil {
		return nil, err
	}
	s := &Set{
		namespaces: b.namespaces,
		aliases:    aliases,
		entries:    b.entries,
		classes:    b.classes,
	}
	if err := s.build(); err != nil {
		return nil, err
	}
	return s, nil
}

// tinyV2 reads the nested, tab-indented tiny v2 format.
type tinyV2 struct {
	builder
	escaped   bool
	inBody    bool
	class     *Entry
	member    *Entry
	slot      *Entry
	lastDepth int
}

func (t *tinyV2) header(ns []string) error {
	return t.init(ns)
}

func (t *tinyV2) row(line int, text string) error {
	depth := 0
	for depth < len(text) && text[depth] == '\t' {
		depth++
	}
	cols := strings.Split(text[depth:], "\t")

	if !t.inBody && depth == 1 {
		return t.property(line, cols)
	}
	t.inBody = true

	switch depth {
	case 0:
		if cols[0] != "c" {
			return malformed(line, "unexpected top-level row %q", cols[0])
		}
		names, err := t.names(line, cols[1:], t.escaped)
		if err != nil {
			return err
		}
		t.class, err = t.addClass(line, names)
		t.member, t.slot = nil, nil
		return err
	case 1:
		if t.class == nil {
			return malformed(line, "member row outside of a class")
		}
		return t.memberRow(line, cols)
	case 2:
		if t.member == nil {
			return malformed(line, "nested row outside of a member")
		}
		return t.slotRow(line, cols)
	case 3:
		if t.slot == nil || cols[0] != "c" {
			return malformed(line, "unexpected row at depth 3")
		}
		return t.comment(line, t.slot, cols)
	default:
		return malformed(line, "row nested %d levels deep", depth)
	}
}

func (t *tinyV2) property(line int, cols []string) error {
	switch cols[0] {
	case "escaped-names":
		t.escaped = true
	case "alias":
		if len(cols) != 3 || cols[1] == "" || cols[2] == "" {
			return malformed(line, "alias property needs <alias> <namespace>")
		}
		alias := Namespace(cols[1])
		if _, dup := t.aliases[alias]; dup {
			return malformed(line, "alias %q declared twice", alias)
		}
		t.aliases[alias] = Namespace(cols[2])
	}
	// Unknown properties are metadata and carry no structure.
	return nil
}

func (t *tinyV2) memberRow(line int, cols []string) error {
	switch cols[0] {
	case "c":
		t.member, t.slot = nil, nil
		return t.comment(line, t.class, cols)
	case "f", "m":
		if len(cols) < 2 {
			return malformed(line, "member row without descriptor")
		}
		names, err := t.names(line, cols[2:], t.escaped)
		if err != nil {
			return err
		}
		if names[0] == "" {
			return malformed(line, "member row without a source name")
		}
		kind := KindField
		if cols[0] == "m" {
			kind = KindMethod
			if !strings.HasPrefix(cols[1], "(") {
				return malformed(line, "method descriptor %q", cols[1])
			}
		}
		t.member = t.addChild(t.class, &Entry{kind: kind, names: names, desc: cols[1]})
		t.slot = nil
		return nil
	default:
		return malformed(line, "unexpected member row %q", cols[0])
	}
}

func (t *tinyV2) slotRow(line int, cols []string) error {
	switch cols[0] {
	case "c":
		t.slot = nil
		return t.comment(line, t.member, cols)
	case "p", "v":
		if t.member.kind != KindMethod {
			return malformed(line, "%s row under a field", cols[0])
		}
		fixed := 2
		if cols[0] == "v" {
			fixed = 4
		}
		if len(cols) < fixed {
			return malformed(line, "%s row too short", cols[0])
		}
		index, err := strconv.Atoi(cols[1])
		if err != nil || index < 0 {
			return malformed(line, "bad local variable index %q", cols[1])
		}
		e := &Entry{kind: KindParameter, index: index}
		if cols[0] == "v" {
			e.kind = KindLocal
			if e.start, err = strconv.Atoi(cols[2]); err != nil {
				return malformed(line, "bad local variable start %q", cols[2])
			}
		}
		if e.names, err = t.names(line, cols[fixed:], t.escaped); err != nil {
			return err
		}
		t.slot = t.addChild(t.member, e)
		return nil
	default:
		return malformed(line, "unexpected row %q", cols[0])
	}
}

func (t *tinyV2) comment(line int, target *Entry, cols []string) error {
	if len(cols) != 2 {
		return malformed(line, "comment row must have exactly one column")
	}
	doc, err := unescapeTiny(cols[1])
	if err != nil {
		return &MalformedMappingError{Line: line, Reason: "bad escape in comment", Err: err}
	}
	if target.doc != "" {
		target.doc += "\n"
	}
	target.doc += doc
	return nil
}

func (t *tinyV2) finish() (*Set, error) { return t.set() }

// tinyV1 reads the flat CLASS/FIELD/METHOD format.
type tinyV1 struct {
	builder
	members map[string]bool
}

func (t *tinyV1) header(ns []string) error {
	t.members = make(map[string]bool)
	return t.init(ns)
}

func (t *tinyV1) row(line int, text string) error {
	if strings.HasPrefix(text, "#") {
		return nil
	}
	cols := strings.Split(text, "\t")
	switch cols[0] {
	case "CLASS":
		names, err := t.names(line, cols[1:], false)
		if err != nil {
			return err
		}
		_, err = t.addClass(line, names)
		return err
	case "FIELD", "METHOD":
		if len(cols) < 3 {
			return malformed(line, "%s row without owner and descriptor", cols[0])
		}
		names, err := t.names(line, cols[3:], false)
		if err != nil {
			return err
		}
		if names[0] == "" {
			return malformed(line, "member row without a source name")
		}
		kind := KindField
		if cols[0] == "METHOD" {
			kind = KindMethod
		}
		key := cols[0] + "\x00" + cols[1] + "\x00" + names[0] + "\x00" + cols[2]
		if t.members[key] {
			return malformed(line, "duplicate %s entry %s.%s", kind, cols[1], names[0])
		}
		t.members[key] = true
		t.addChild(t.classFor(cols[1]), &Entry{kind: kind, names: names, desc: cols[2]})
		return nil
	default:
		return malformed(line, "unexpected row %q", cols[0])
	}
}

func (t *tinyV1) finish() (*Set, error) { return t.set() }

func unescapeTiny(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i == len(s) {
			return "", fmt.Errorf("dangling escape in %q", s)
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return b.String(), nil
}
