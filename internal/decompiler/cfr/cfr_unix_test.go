// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package cfr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/adaptertest"
	"github.com/ManuGH/loomsrc/internal/decompiler/engine"
)

func TestDecompileClass_External(t *testing.T) {
	java := adaptertest.FakeJava(t, `case "$args" in *"--outputdir "*) ;; *) exit 9 ;; esac
mkdir -p "$out/p"
printf 'package p;\n\npublic class Foo {\n    public void run() {\n        System.out.println(); /* 7 */\n    }\n}\n' > "$out/p/Foo.java"`)
	a := New(engine.New(engine.Config{JavaBin: java, Jar: "cfr.jar", ScratchDir: t.TempDir()}))

	opts := decompiler.DefaultOptions()
	opts.Indent = "  "
	src, err := a.DecompileClass(context.Background(), adaptertest.Group(t, adaptertest.Runnable), a.Translate(opts))
	require.NoError(t, err)
	assert.Equal(t, "package p;\n\npublic class Foo {\n  public void run() {\n    System.out.println();\n  }\n}\n", src.Text)

	orig, ok := src.Lines.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, 7, orig)
}

func TestDecompileClass_ErasedUsesBuiltIn(t *testing.T) {
	java := adaptertest.FakeJava(t, `exit 9`)
	a := New(engine.New(engine.Config{JavaBin: java, Jar: "cfr.jar"}))

	opts := decompiler.DefaultOptions()
	opts.IncludeGenericSignatures = false
	src, err := a.DecompileClass(context.Background(), adaptertest.Group(t, adaptertest.Runnable), a.Translate(opts))
	require.NoError(t, err)
	assert.Contains(t, src.Text, Style.StubBody)
}
