// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package fernflower

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
	java := adaptertest.FakeJava(t, `case "$args" in *-dol=1*) ;; *) exit 9 ;; esac
mkdir -p "$out/p"
printf 'package p;\n\npublic class Foo {\n   public void run() {\n      System.out.println(); /* 7 */\n   }\n}\n' > "$out/p/Foo.java"`)
	a := New(engine.New(engine.Config{JavaBin: java, Jar: "fernflower.jar", ScratchDir: t.TempDir()}))

	src, err := a.DecompileClass(context.Background(), adaptertest.Group(t, adaptertest.Runnable), a.Translate(decompiler.DefaultOptions()))
	require.NoError(t, err)
	assert.NotContains(t, src.Text, "/* 7 */")
	assert.Contains(t, src.Text, "      System.out.println();\n")

	orig, ok := src.Lines.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, 7, orig)
}

func TestDecompileClass_EngineFailure(t *testing.T) {
	java := adaptertest.FakeJava(t, `echo 'broken' >&2; exit 1`)
	a := New(engine.New(engine.Config{JavaBin: java, Jar: "fernflower.jar"}))
	_, err := a.DecompileClass(context.Background(), adaptertest.Group(t, adaptertest.Runnable), a.Translate(decompiler.DefaultOptions()))
	assert.ErrorIs(t, err, engine.ErrEngine)
}
