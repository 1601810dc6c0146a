// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cfr

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/classfile/classfiletest"
	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/adaptertest"
	"github.com/ManuGH/loomsrc/internal/decompiler/cache"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

func TestTranslate(t *testing.T) {
	opts := decompiler.DefaultOptions()
	native := New(nil).Translate(opts)
	assert.Equal(t, Name, native.Backend)
	assert.Equal(t, []string{
		"--comments", "false",
		"--showversion", "false",
		"--silent", "true",
		"--decodelambdas", "true",
		"--removeinnerclasssynthetics", "true",
		"--hidebridgemethods", "true",
		"--trackbytecodeloc", "true",
		"--renameillegalidents", "true",
	}, native.Args)
}

func TestDecompileClass_BuiltIn(t *testing.T) {
	a := New(nil)
	g := adaptertest.Group(t, classfiletest.Class{
		Name: "p/Foo",
		Methods: []classfiletest.Method{
			{Access: classfile.AccPublic, Name: "put", Desc: "(Ljava/lang/String;I)V"},
		},
	})
	src, err := a.DecompileClass(context.Background(), g, a.Translate(decompiler.DefaultOptions()))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(src.Text, "/*\n * Decompiled with CFR.\n */\n"), src.Text)
	assert.Contains(t, src.Text, "public void put(String string, int n) {")
}

func TestDecompileClass_Malformed(t *testing.T) {
	a := New(nil)
	_, err := a.DecompileClass(context.Background(), adaptertest.Malformed(t), a.Translate(decompiler.DefaultOptions()))
	assert.Error(t, err)
}

func TestDecompile_CachedTextFollowsIndent(t *testing.T) {
	store, err := cache.NewMemory(16)
	require.NoError(t, err)
	arc, err := archive.New(mapping.Official, []archive.Entry{{Name: "p/Foo.class", Data: adaptertest.Runnable.Bytes()}})
	require.NoError(t, err)

	run := func(indent string) decompiler.Unit {
		t.Helper()
		o := decompiler.DefaultOptions()
		o.ThreadCount = 1
		o.Indent = indent
		s, err := decompiler.Decompile(context.Background(), New(nil), arc, o, decompiler.WithCache(store))
		require.NoError(t, err)
		units, err := s.Collect()
		require.NoError(t, err)
		require.Len(t, units, 1)
		return units[0]
	}

	spaces := run("    ")
	require.False(t, spaces.Cached)
	assert.Contains(t, spaces.Source, "\n    public void run() {")

	tabs := run("\t")
	assert.False(t, tabs.Cached)
	assert.Contains(t, tabs.Source, "\n\tpublic void run() {")
	assert.NotEqual(t, spaces.Source, tabs.Source)

	assert.True(t, run("\t").Cached)
}

func TestReindent(t *testing.T) {
	in := "class A {\n    void f() {\n        g();\n    }\n}\n"
	assert.Equal(t, in, reindent(in, "    "))
	assert.Equal(t, "class A {\n\tvoid f() {\n\t\tg();\n\t}\n}\n", reindent(in, "\t"))
	assert.Equal(t, "class A {\n  void f() {\n    g();\n  }\n}\n", reindent(in, "  "))
	assert.Equal(t, "x\n\t  y\n", reindent("x\n      y\n", "\t"))
}
