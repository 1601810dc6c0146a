// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fernflower adapts the Fernflower decompiler.
//
// Fernflower takes "-key=value" options ahead of its sources and the
// destination directory. It has no thread option; the pool handles
// parallelism. Original line numbers are dumped as a trailing block
// comment ("foo(); /* 12 */") when -dol is set.
package fernflower

import (
	"context"
	"regexp"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/engine"
	"github.com/ManuGH/loomsrc/internal/javasrc"
)

// Name is the backend identifier.
const Name = "fernflower"

var lineMarker = regexp.MustCompile(`\s*/\*\s*(\d+)\s*\*/\s*$`)

// Style is the built-in rendition of Fernflower's layout.
var Style = javasrc.Style{
	Name:            Name,
	SyntheticMarker: "// $FF: synthetic method",
	BridgeMarker:    "// $FF: bridge method",
	ParamNames:      javasrc.SlotParamNames,
	StubBody:        "throw new UnsupportedOperationException();",
}

// Adapter decompiles with Fernflower.
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
			"-dgs=" + flag(o.IncludeGenericSignatures),
			"-bsm=" + flag(o.IncludeLineNumbers),
			"-dol=" + flag(o.IncludeLineNumbers),
			"-rsy=" + flag(!o.IncludeSynthetics),
			"-rbr=" + flag(!o.IncludeSynthetics),
			"-ind=" + o.Indent,
			"-log=WARN",
		},
		Options: o,
	}
}

func (a *Adapter) DecompileClass(ctx context.Context, g archive.ClassGroup, native decompiler.Native) (decompiler.Source, error) {
	classes, err := g.Parse()
	if err != nil {
		return decompiler.Source{}, err
	}
	if !a.runner.Enabled() {
		r, err := javasrc.Render(classes, Style, javasrc.RenderOptions{
			Indent:     native.Options.Indent,
			Generics:   native.Options.IncludeGenericSignatures,
			Synthetics: native.Options.IncludeSynthetics,
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
			args := append([]string(nil), native.Args...)
			args = append(args, inputs...)
			return append(args, outDir)
		},
	})
	if err != nil {
		return decompiler.Source{}, err
	}
	text, lines := javasrc.ExtractLineMarkers(text, lineMarker)
	if lines.Empty() && native.Options.IncludeLineNumbers {
		lines = javasrc.CorrelateDeclarations(text, classes)
	}
	return decompiler.Source{Text: text, Lines: lines}, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
