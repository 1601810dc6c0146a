// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package vineflower adapts the Vineflower decompiler, the default backend.
//
// Vineflower takes "--long-name=value" options. Each invocation holds a
// single class group, so its own thread pool is pinned to one thread.
// With --dump-code-lines original lines are appended as "// 12".
package vineflower

import (
	"context"
	"regexp"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/engine"
	"github.com/ManuGH/loomsrc/internal/javasrc"
)

// Name is the backend identifier.
const Name = "vineflower"

var lineMarker = regexp.MustCompile(`\s*//\s*(\d+)\s*$`)

// Style is the built-in rendition of Vineflower's layout.
var Style = javasrc.Style{
	Name:                Name,
	SyntheticMarker:     "// $VF: synthetic method",
	BridgeMarker:        "// $VF: bridge method",
	ParamNames:          javasrc.SlotParamNames,
	StubBody:            `throw new RuntimeException("Stub!");`,
	BlankBetweenMembers: true,
}

// Adapter decompiles with Vineflower.
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
			"--decompile-generics=" + flag(o.IncludeGenericSignatures),
			"--remove-synthetic=" + flag(!o.IncludeSynthetics),
			"--remove-bridge=" + flag(!o.IncludeSynthetics),
			"--indent-string=" + o.Indent,
			"--threads=1",
			"--dump-code-lines=" + flag(o.IncludeLineNumbers),
			"--log-level=warn",
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
