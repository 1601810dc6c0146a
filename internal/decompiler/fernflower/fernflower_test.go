// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fernflower

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/adaptertest"
)

func TestTranslate(t *testing.T) {
	a := New(nil)
	opts := decompiler.DefaultOptions()
	opts.IncludeSynthetics = true
	opts.Indent = "\t"

	native := a.Translate(opts)
	assert.Equal(t, Name, native.Backend)
	assert.Equal(t, []string{"-dgs=1", "-bsm=1", "-dol=1", "-rsy=0", "-rbr=0", "-ind=\t", "-log=WARN"}, native.Args)
	assert.Equal(t, opts, native.Options)

	opts.IncludeLineNumbers = false
	assert.NotEqual(t, native.Fingerprint(), a.Translate(opts).Fingerprint())
}

func TestDecompileClass_BuiltIn(t *testing.T) {
	a := New(nil)
	src, err := a.DecompileClass(context.Background(), adaptertest.Group(t, adaptertest.Runnable), a.Translate(decompiler.DefaultOptions()))
	require.NoError(t, err)

	assert.Contains(t, src.Text, "package p;")
	assert.Contains(t, src.Text, "public void run() {")
	assert.Contains(t, src.Text, Style.StubBody)

	lines := strings.Split(src.Text, "\n")
	found := false
	for i, l := range lines {
		if strings.Contains(l, Style.StubBody) {
			orig, ok := src.Lines.Lookup(i + 1)
			require.True(t, ok)
			assert.Equal(t, 7, orig)
			found = true
		}
	}
	assert.True(t, found)
}

func TestDecompileClass_Malformed(t *testing.T) {
	a := New(nil)
	_, err := a.DecompileClass(context.Background(), adaptertest.Malformed(t), a.Translate(decompiler.DefaultOptions()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p/Bad")
}
