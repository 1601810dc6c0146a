// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package javasrc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/linemap"
)

// ExtractLineMarkers removes engine line-number comments matched by marker
// (group 1 holds the original line) and returns the cleaned text with the
// correlation they described. Lines emptied by the removal are kept blank
// so line numbers stay stable.
func ExtractLineMarkers(text string, marker *regexp.Regexp) (string, linemap.Map) {
	lines := strings.SplitAfter(text, "\n")
	var pairs []linemap.Pair
	for i, l := range lines {
		loc := marker.FindStringSubmatchIndex(l)
		if loc == nil || loc[2] < 0 {
			continue
		}
		orig, err := strconv.Atoi(l[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		pairs = append(pairs, linemap.Pair{Line: i + 1, Original: orig})
		cleaned := strings.TrimRight(l[:loc[0]]+l[loc[1]:], " \t\r\n")
		if strings.HasSuffix(l, "\n") {
			cleaned += "\n"
		}
		lines[i] = cleaned
	}
	return strings.Join(lines, ""), linemap.New(pairs...)
}

// CorrelateDeclarations maps the first body line of every method
// declaration found in text to the first recorded source line of the
// matching method in classes. Overloads are matched in declaration order.
func CorrelateDeclarations(text string, classes []*classfile.ClassFile) linemap.Map {
	toks, err := Lex(text)
	if err != nil {
		return linemap.Map{}
	}
	queue := make(map[string][]*classfile.Method)
	for _, c := range classes {
		for i := range c.Methods {
			m := &c.Methods[i]
			name := m.Name
			if name == "<init>" {
				name = classfile.SimpleName(c.ThisClass)
			}
			queue[name] = append(queue[name], m)
		}
	}

	sig := significant(toks)
	var pairs []linemap.Pair
	for i := 1; i+1 < len(sig); i++ {
		t := sig[i]
		if t.Kind != Ident || sig[i+1].Text != "(" {
			continue
		}
		if prev := sig[i-1].Text; prev == "new" || prev == "." || prev == "@" || prev == "::" {
			continue
		}
		body := declarationBody(sig, i+1)
		if body < 0 || body+1 >= len(sig) {
			continue
		}
		ms := queue[t.Text]
		if len(ms) == 0 {
			continue
		}
		m := ms[0]
		queue[t.Text] = ms[1:]
		if first := m.FirstLine(); first > 0 {
			pairs = append(pairs, linemap.Pair{Line: sig[body+1].Line, Original: first})
		}
	}
	return linemap.New(pairs...)
}

func significant(toks []Token) []Token {
	out := make([]Token, 0, len(toks)/2)
	for _, t := range toks {
		if !t.Kind.Trivia() {
			out = append(out, t)
		}
	}
	return out
}

// declarationBody returns the index of the '{' opening a method body whose
// parameter list starts at open, or -1 if the parentheses do not start a
// declaration.
func declarationBody(sig []Token, open int) int {
	depth := 0
	i := open
	for ; i < len(sig); i++ {
		switch sig[i].Text {
		case "(":
			depth++
		case ")":
			depth--
		}
		if depth == 0 {
			break
		}
	}
	i++
	if i < len(sig) && sig[i].Text == "throws" {
		for i++; i < len(sig) && (sig[i].Kind == Ident || sig[i].Text == "." || sig[i].Text == ","); i++ {
		}
	}
	if i < len(sig) && sig[i].Text == "{" {
		return i
	}
	return -1
}
