// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package javasrc

import (
	"fmt"
	"unicode"

	"github.com/ManuGH/loomsrc/internal/classfile"
)

// Style captures the layout conventions of one decompiler engine.
type Style struct {
	Name string
	// Header lines precede the package declaration.
	Header []string
	// SyntheticMarker and BridgeMarker are comment lines placed above
	// synthetic and bridge members when those are emitted.
	SyntheticMarker string
	BridgeMarker    string
	// ParamNames names parameters that have no LocalVariableTable entry.
	ParamNames func(slots []int, types []classfile.Type) []string
	// StubBody is the single statement of every concrete method body.
	StubBody string
	// BlankBetweenMembers separates members with an empty line.
	BlankBetweenMembers bool
}

// SlotParamNames names parameters var<slot>, the Fernflower convention.
func SlotParamNames(slots []int, _ []classfile.Type) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = fmt.Sprintf("var%d", s)
	}
	return out
}

// TypeParamNames derives names from parameter types (n, string, list2),
// the CFR convention.
func TypeParamNames(_ []int, types []classfile.Type) []string {
	out := make([]string, len(types))
	seen := make(map[string]int)
	for i, t := range types {
		base := typeParamBase(t)
		seen[base]++
		if n := seen[base]; n > 1 {
			out[i] = fmt.Sprintf("%s%d", base, n)
		} else {
			out[i] = base
		}
	}
	return out
}

func typeParamBase(t classfile.Type) string {
	var base string
	switch t.Base {
	case 'I', 'S':
		base = "n"
	case 'J':
		base = "l"
	case 'Z':
		base = "bl"
	case 'D':
		base = "d"
	case 'F':
		base = "f"
	case 'C':
		base = "c"
	case 'B':
		base = "by"
	default:
		simple := classfile.SimpleName(t.Class)
		r := []rune(simple)
		if len(r) == 0 {
			base = "object"
			break
		}
		r[0] = unicode.ToLower(r[0])
		base = string(r)
	}
	if t.Dims > 0 {
		base += "Array"
	}
	if IsKeyword(base) || !IsIdent(base) {
		base += "_"
	}
	return base
}

// IsIdent reports whether s is a syntactically valid Java identifier.
// Reserved words are not rejected; see IsKeyword.
func IsIdent(s string) bool {
	for i, r := range s {
		if i == 0 && !isIdentStart(r) || !isIdentPart(r) {
			return false
		}
	}
	return s != ""
}
