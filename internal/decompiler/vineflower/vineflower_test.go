// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package vineflower

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/adaptertest"
)

func TestTranslate(t *testing.T) {
	a := New(nil)
	opts := decompiler.DefaultOptions()
	opts.IncludeGenericSignatures = false
	native := a.Translate(opts)
	assert.Equal(t, []string{
		"--decompile-generics=0",
		"--remove-synthetic=1",
		"--remove-bridge=1",
		"--indent-string=    ",
		"--threads=1",
		"--dump-code-lines=1",
		"--log-level=warn",
	}, native.Args)

	// The pool size is not an engine option and must not split cache keys.
	opts.ThreadCount = 1
	one := a.Translate(opts)
	opts.ThreadCount = 64
	assert.Equal(t, one.Fingerprint(), a.Translate(opts).Fingerprint())
}

func TestDecompileClass_BuiltIn(t *testing.T) {
	a := New(nil)
	src, err := a.DecompileClass(context.Background(), adaptertest.Group(t, adaptertest.Runnable), a.Translate(decompiler.DefaultOptions()))
	require.NoError(t, err)
	assert.Contains(t, src.Text, "public class Foo {")
	assert.Contains(t, src.Text, Style.StubBody)
	assert.False(t, src.Lines.Empty())
}

func TestDecompileClass_Malformed(t *testing.T) {
	a := New(nil)
	_, err := a.DecompileClass(context.Background(), adaptertest.Malformed(t), a.Translate(decompiler.DefaultOptions()))
	assert.Error(t, err)
}
