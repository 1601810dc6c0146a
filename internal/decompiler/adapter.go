// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decompiler

import (
	"context"
	"strconv"
	"strings"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/linemap"
)

// Native is the engine-specific rendition of Options produced by an adapter.
type Native struct {
	Backend string
	// Engine identifies what renders the source: the built-in engine or a
	// specific engine jar.
	Engine string
	// Args are the engine's own command-line options, in engine order.
	Args []string
	// Options are the uniform options Args were translated from.
	Options Options
}

// Fingerprint identifies everything that shapes the produced source, for
// cache keys. Adapters may apply options outside Args (re-indenting,
// falling back to the built-in engine), so the uniform options that affect
// output are part of it. ThreadCount is not.
func (n Native) Fingerprint() string {
	o := n.Options
	parts := []string{
		n.Backend,
		n.Engine,
		"lines=" + strconv.FormatBool(o.IncludeLineNumbers),
		"generics=" + strconv.FormatBool(o.IncludeGenericSignatures),
		"synthetics=" + strconv.FormatBool(o.IncludeSynthetics),
		"indent=" + strconv.Quote(o.Indent),
	}
	return strings.Join(append(parts, n.Args...), "\x00")
}

// Source is the text and line table an adapter produced for one group.
// Lines is left empty when line numbers were not requested.
type Source struct {
	Text  string
	Lines linemap.Map
}

// Adapter wraps one decompiler engine. Implementations share no state with
// each other; each owns its engine quirks.
type Adapter interface {
	// Backend returns the identifier the adapter is registered under.
	Backend() string
	// Translate maps uniform options onto the engine's native options.
	Translate(Options) Native
	// DecompileClass decompiles one class group. The returned error marks
	// the group as a partial failure; it never aborts the run.
	DecompileClass(ctx context.Context, group archive.ClassGroup, native Native) (Source, error)
}
