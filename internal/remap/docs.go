// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package remap

import (
	"strings"

	"github.com/ManuGH/loomsrc/internal/javasrc"
)

// doc inserts a javadoc block above the member starting at sig index at.
// Members that already carry javadoc are left alone.
func (r *rewriter) doc(at int, text string, tags []string) {
	if !r.opts.javadoc || (text == "" && len(tags) == 0) || at < 0 || at >= len(r.sig) {
		return
	}
	line := r.tok(at).Line
	if line < 1 || line > len(r.lines) || r.edits.Dropped(line) || !r.firstOnLine(r.sig[at]) || r.documented(r.sig[at]) {
		return
	}
	src := r.lines[line-1]
	indent := src[:len(src)-len(strings.TrimLeft(src, " \t"))]

	out := []string{indent + "/**"}
	if text != "" {
		for _, l := range strings.Split(text, "\n") {
			out = append(out, docLine(indent, l))
		}
		if len(tags) > 0 {
			out = append(out, indent+" *")
		}
	}
	for _, t := range tags {
		out = append(out, docLine(indent, t))
	}
	out = append(out, indent+" */")
	r.edits.Insert(line, out...)
}

func docLine(indent, text string) string {
	text = strings.TrimRight(strings.ReplaceAll(text, "*/", "*&#47;"), " \t\r")
	if text == "" {
		return indent + " *"
	}
	return indent + " * " + text
}

// firstOnLine reports whether only whitespace precedes the raw token.
func (r *rewriter) firstOnLine(raw int) bool {
	for k := raw - 1; k >= 0; k-- {
		switch r.toks[k].Kind {
		case javasrc.Newline:
			return true
		case javasrc.Space:
			continue
		}
		return false
	}
	return true
}

// documented reports whether a javadoc comment precedes the raw token,
// looking past whitespace and other comments.
func (r *rewriter) documented(raw int) bool {
	for k := raw - 1; k >= 0; k-- {
		switch r.toks[k].Kind {
		case javasrc.Javadoc:
			return true
		case javasrc.Space, javasrc.Newline, javasrc.LineComment, javasrc.BlockComment:
			continue
		}
		return false
	}
	return false
}
