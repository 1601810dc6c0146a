// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package output

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/linemap"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

func sampleUnits() []decompiler.Unit {
	return []decompiler.Unit{
		{ClassName: "pkg/Foo", Namespace: mapping.Named, Source: "package pkg;\n\nclass Foo {}\n",
			Lines: linemap.New(linemap.Pair{Line: 3, Original: 12})},
		{ClassName: "Bar", Namespace: mapping.Named, Source: "class Bar {}\n"},
		{ClassName: "pkg/Broken", Namespace: mapping.Named,
			Failure: &decompiler.PartialFailure{Class: "pkg/Broken", Backend: "cfr", Cause: errors.New("boom")}},
	}
}

func TestWriteTree(t *testing.T) {
	dir := t.TempDir()
	n, err := WriteTree(context.Background(), dir, sampleUnits())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := os.ReadFile(filepath.Join(dir, "pkg", "Foo.java"))
	require.NoError(t, err)
	assert.Equal(t, "package pkg;\n\nclass Foo {}\n", string(got))
	assert.FileExists(t, filepath.Join(dir, "Bar.java"))
	assert.NoFileExists(t, filepath.Join(dir, "pkg", "Broken.java"))
}

func TestWriteTree_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := WriteTree(ctx, t.TempDir(), sampleUnits())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestWriteJar_Deterministic(t *testing.T) {
	dir := t.TempDir()
	first, second := filepath.Join(dir, "a", "sources.jar"), filepath.Join(dir, "b", "sources.jar")
	require.NoError(t, WriteJar(context.Background(), first, sampleUnits()))

	units := sampleUnits()
	units[0], units[1] = units[1], units[0]
	require.NoError(t, WriteJar(context.Background(), second, units))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	zr, err := zip.OpenReader(first)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		assert.True(t, f.Modified.Equal(EntryTime), f.Name)
	}
	assert.Equal(t, []string{"Bar.java", "pkg/Foo.java"}, names)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "package pkg;\n\nclass Foo {}\n", string(body))
}

func TestWriteLineMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "lines.txt")
	require.NoError(t, WriteLineMap(path, sampleUnits()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	classes, err := linemap.Read(f)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "pkg/Foo", classes[0].Name)
	line, ok := classes[0].Map.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, 12, line)
}
