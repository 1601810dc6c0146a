// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package javasrc

import (
	"strings"
)

// Edits collects whole-line changes against a text. Line numbers are
// 1-based and always refer to the original text.
type Edits struct {
	drop    map[int]bool
	insert  map[int][]string
	replace map[int]string
}

// Drop removes lines from through to, inclusive.
func (e *Edits) Drop(from, to int) {
	if e.drop == nil {
		e.drop = make(map[int]bool)
	}
	for l := from; l <= to; l++ {
		e.drop[l] = true
	}
}

// Dropped reports whether line is scheduled for removal.
func (e *Edits) Dropped(line int) bool { return e.drop[line] }

// Insert adds lines, without trailing newlines, before line before.
func (e *Edits) Insert(before int, lines ...string) {
	if e.insert == nil {
		e.insert = make(map[int][]string)
	}
	e.insert[before] = append(e.insert[before], lines...)
}

// Replace swaps the content of line, keeping its line break.
func (e *Edits) Replace(line int, text string) {
	if e.replace == nil {
		e.replace = make(map[int]string)
	}
	e.replace[line] = text
}

// Empty reports whether no edit was recorded.
func (e *Edits) Empty() bool {
	return len(e.drop) == 0 && len(e.insert) == 0 && len(e.replace) == 0
}

// Apply returns the edited text and a function moving an original line
// number to its new position. Dropped lines have no new position.
func (e *Edits) Apply(text string) (string, func(line int) (int, bool)) {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	moved := make([]int, len(lines)+1)
	var b strings.Builder
	b.Grow(len(text))
	n := 0
	for i, l := range lines {
		line := i + 1
		for _, ins := range e.insert[line] {
			b.WriteString(ins)
			b.WriteByte('\n')
			n++
		}
		if e.drop[line] {
			continue
		}
		if r, ok := e.replace[line]; ok {
			l = r + l[len(strings.TrimRight(l, "\r\n")):]
		}
		b.WriteString(l)
		n++
		moved[line] = n
	}
	return b.String(), func(line int) (int, bool) {
		if line <= 0 || line >= len(moved) || moved[line] == 0 {
			return 0, false
		}
		return moved[line], true
	}
}
