// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cfr adapts the CFR decompiler.
//
// CFR reads "--name value" pairs after its inputs and always indents with
// four spaces, so external output is re-indented here. Generic signatures
// cannot be switched off in CFR; when they are not wanted the built-in
// engine's erased rendering is used instead. Byte code locations are
// tracked as trailing "/* 12 */" comments.
package cfr

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/engine"
	"github.com/ManuGH/loomsrc/internal/javasrc"
)

// Name is the backend identifier.
const Name = "cfr"

const cfrIndent = "    "

var lineMarker = regexp.MustCompile(`\s*/\*\s*(\d+)\s*\*/\s*$`)

// Style is the built-in rendition of CFR's layout.
var Style = javasrc.Style{
	Name:                Name,
	Header:              []string{"/*", " * Decompiled with CFR.", " */"},
	SyntheticMarker:     "/* synthetic */",
	BridgeMarker:        "/* bridge */",
	ParamNames:          javasrc.TypeParamNames,
	StubBody:            `throw new IllegalStateException("Decompilation failed");`,
	BlankBetweenMembers: true,
}

// Adapter decompiles with CFR.
type Adapter struct {
	runner *engine.Runner
}

// New returns an adapter. A nil or disabled runner selects the built-in
// skeleton engine.
func New(runner *engine.Runner) *Adapter { return &Adapter{runner: runner} }

func (a *Adapter) Backend() string { return Name }

func (a *Adapter) Translate(o decompiler.Options) decompiler.Native {
	return decompiler.Native{
		Backend: Name,
		Engine:  a.runner.Identity(),
		Args: []string{
			"--comments", "false",
			"--showversion", "false",
			"--silent", "true",
			"--decodelambdas", "true",
			"--removeinnerclasssynthetics", strconv.FormatBool(!o.IncludeSynthetics),
			"--hidebridgemethods", strconv.FormatBool(!o.IncludeSynthetics),
			"--trackbytecodeloc", strconv.FormatBool(o.IncludeLineNumbers),
			"--renameillegalidents", "true",
		},
		Options: o,
	}
}

func (a *Adapter) DecompileClass(ctx context.Context, g archive.ClassGroup, native decompiler.Native) (decompiler.Source, error) {
	classes, err := g.Parse()
	if err != nil {
		return decompiler.Source{}, err
	}
	opts := native.Options
	if !a.runner.Enabled() || !opts.IncludeGenericSignatures {
		r, err := javasrc.Render(classes, Style, javasrc.RenderOptions{
			Indent:     opts.Indent,
			Generics:   opts.IncludeGenericSignatures,
			Synthetics: opts.IncludeSynthetics,
		})
		if err != nil {
			return decompiler.Source{}, err
		}
		return decompiler.Source{Text: r.Text, Lines: r.Lines}, nil
	}

	text, err := a.runner.Run(ctx, engine.Invocation{
		Backend: Name,
		Group:   g,
		Args: func(inputs []string, outDir string) []string {
			args := append([]string(nil), inputs...)
			args = append(args, native.Args...)
			return append(args, "--outputdir", outDir)
		},
	})
	if err != nil {
		return decompiler.Source{}, err
	}
	text, lines := javasrc.ExtractLineMarkers(text, lineMarker)
	if lines.Empty() && opts.IncludeLineNumbers {
		lines = javasrc.CorrelateDeclarations(text, classes)
	}
	return decompiler.Source{Text: reindent(text, opts.Indent), Lines: lines}, nil
}

// reindent replaces CFR's four-space indentation units with indent.
func reindent(text, indent string) string {
	if indent == cfrIndent {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	for i, l := range lines {
		n := 0
		for strings.HasPrefix(l[n*len(cfrIndent):], cfrIndent) {
			n++
		}
		if n > 0 {
			lines[i] = strings.Repeat(indent, n) + l[n*len(cfrIndent):]
		}
	}
	return strings.Join(lines, "")
}
