// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decompiler

import (
	"runtime"
	"strings"
)

// DefaultIndent is four spaces, the common default of all three engines.
const DefaultIndent = "    "

// Options is the backend-neutral option bag. Adapters translate it into
// their engine's native options; nothing is passed through verbatim.
type Options struct {
	// ThreadCount bounds concurrent class groups within one run.
	// Zero or negative means runtime.NumCPU().
	ThreadCount int
	// IncludeLineNumbers requests a line correlation table per unit.
	IncludeLineNumbers bool
	// IncludeGenericSignatures renders generic type information when present.
	IncludeGenericSignatures bool
	// IncludeSynthetics emits synthetic members.
	IncludeSynthetics bool
	// Indent is the indentation unit: spaces or a single tab.
	Indent string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ThreadCount:              runtime.NumCPU(),
		IncludeLineNumbers:       true,
		IncludeGenericSignatures: true,
		Indent:                   DefaultIndent,
	}
}

// Normalize fills zero values with defaults.
func (o Options) Normalize() Options {
	if o.ThreadCount <= 0 {
		o.ThreadCount = runtime.NumCPU()
	}
	if o.Indent == "" || strings.Trim(o.Indent, " \t") != "" {
		o.Indent = DefaultIndent
	}
	return o
}

// IndentWidth returns the indent in columns, counting a tab as one unit.
func (o Options) IndentWidth() int {
	if o.Indent == "\t" {
		return 1
	}
	return len(o.Indent)
}
