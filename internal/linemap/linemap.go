// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package linemap holds the sparse correlation between decompiled source
// lines and the original lines recorded in bytecode, and its file format.
package linemap

import (
	"sort"
)

// Pair correlates one decompiled line with an original line.
type Pair struct {
	Line     int // decompiled line, 1-based
	Original int // original source line, 1-based
}

// Map is an immutable sparse map from decompiled line to original line,
// ordered by decompiled line. The zero value is an empty map.
type Map struct {
	pairs []Pair
}

// New builds a Map. Non-positive lines are dropped; when a decompiled line
// appears twice the first pair wins.
func New(pairs ...Pair) Map {
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.Line > 0 && p.Original > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	dedup := out[:0]
	for i, p := range out {
		if i > 0 && p.Line == out[i-1].Line {
			continue
		}
		dedup = append(dedup, p)
	}
	if len(dedup) == 0 {
		return Map{}
	}
	return Map{pairs: dedup}
}

// Len returns the number of correlated lines.
func (m Map) Len() int { return len(m.pairs) }

// Empty reports whether no line is correlated.
func (m Map) Empty() bool { return len(m.pairs) == 0 }

// Lookup returns the original line for a decompiled line.
func (m Map) Lookup(line int) (int, bool) {
	i := sort.Search(len(m.pairs), func(i int) bool { return m.pairs[i].Line >= line })
	if i < len(m.pairs) && m.pairs[i].Line == line {
		return m.pairs[i].Original, true
	}
	return 0, false
}

// Pairs returns the correlations ordered by decompiled line.
func (m Map) Pairs() []Pair {
	out := make([]Pair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// MaxLine is the highest decompiled line present, or 0.
func (m Map) MaxLine() int {
	if len(m.pairs) == 0 {
		return 0
	}
	return m.pairs[len(m.pairs)-1].Line
}

// MaxOriginal is the highest original line present, or 0.
func (m Map) MaxOriginal() int {
	hi := 0
	for _, p := range m.pairs {
		if p.Original > hi {
			hi = p.Original
		}
	}
	return hi
}

// Shift moves every decompiled line through move. Lines for which move
// reports false are dropped.
func (m Map) Shift(move func(line int) (int, bool)) Map {
	if len(m.pairs) == 0 {
		return m
	}
	out := make([]Pair, 0, len(m.pairs))
	for _, p := range m.pairs {
		if n, ok := move(p.Line); ok {
			out = append(out, Pair{Line: n, Original: p.Original})
		}
	}
	return New(out...)
}

// Equal reports whether both maps hold the same pairs.
func (m Map) Equal(o Map) bool {
	if len(m.pairs) != len(o.pairs) {
		return false
	}
	for i := range m.pairs {
		if m.pairs[i] != o.pairs[i] {
			return false
		}
	}
	return true
}
