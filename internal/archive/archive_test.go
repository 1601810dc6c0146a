// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/classfile/classfiletest"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

func writeJar(t *testing.T, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "in.jar")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestOpen_KeepsOnlyClasses(t *testing.T) {
	p := writeJar(t, map[string]string{
		"META-INF/MANIFEST.MF":             "Manifest-Version: 1.0\n",
		"META-INF/versions/17/pkg/B.class": "overlay",
		"META-INF/SIGNER.SF":               "sig",
		"module-info.class":                "module",
		"pkg/package-info.class":           "pkg",
		"pkg/B.class":                      "b",
		"pkg/A.class":                      "a",
		"pkg/A$Inner.class":                "ai",
		"assets/texture.png":               "png",
		"pkg/":                             "",
	})

	a, err := Open(p, mapping.Official)
	require.NoError(t, err)
	assert.Equal(t, p, a.Path())
	assert.Equal(t, mapping.Official, a.Namespace())
	assert.Equal(t, []string{"pkg/A", "pkg/A$Inner", "pkg/B"}, a.Names())

	c, ok := a.Class("pkg/B")
	require.True(t, ok)
	assert.Equal(t, []byte("b"), c.Data)
	assert.Equal(t, HashClass([]byte("b")), c.Hash)
}

func TestOpen_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "nope.jar"), mapping.Official)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrArchiveUnreadable))
	})
	t.Run("not a zip", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "bad.jar")
		require.NoError(t, os.WriteFile(p, []byte("definitely not a zip"), 0o600))
		_, err := Open(p, mapping.Official)
		var ae *ArchiveUnreadableError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, p, ae.Path)
	})
	t.Run("no classes", func(t *testing.T) {
		p := writeJar(t, map[string]string{"readme.txt": "hi"})
		_, err := Open(p, mapping.Official)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrArchiveUnreadable)
		assert.Contains(t, err.Error(), "no classes")
	})
}

func TestNew_Duplicate(t *testing.T) {
	_, err := New(mapping.Named, []Entry{
		{Name: "pkg/A.class", Data: []byte("1")},
		{Name: "pkg/A", Data: []byte("2")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArchiveUnreadable)
	assert.Contains(t, err.Error(), `duplicate class "pkg/A"`)
}

func TestGroups(t *testing.T) {
	a, err := New(mapping.Official, []Entry{
		{Name: "pkg/Outer$1", Data: []byte("anon")},
		{Name: "pkg/Outer", Data: []byte("outer")},
		{Name: "pkg/Outer$Inner$Deep", Data: []byte("deep")},
		{Name: "pkg/Outer$Inner", Data: []byte("inner")},
		{Name: "pkg/Orphan$Frag", Data: []byte("frag")},
		{Name: "pkg/$Proxy", Data: []byte("proxy")},
		{Name: "a/Z", Data: []byte("z")},
	})
	require.NoError(t, err)

	groups := a.Groups()
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	assert.Equal(t, []string{"a/Z", "pkg/$Proxy", "pkg/Orphan$Frag", "pkg/Outer"}, names)

	outer := groups[3]
	assert.Equal(t, "pkg/Outer", outer.Outer().Name)
	var inner []string
	for _, c := range outer.Inner() {
		inner = append(inner, c.Name)
	}
	assert.Equal(t, []string{"pkg/Outer$1", "pkg/Outer$Inner", "pkg/Outer$Inner$Deep"}, inner)
}

func TestGroupHash(t *testing.T) {
	mk := func(inner string) ClassGroup {
		a, err := New(mapping.Official, []Entry{
			{Name: "p/A", Data: []byte("outer")},
			{Name: "p/A$B", Data: []byte(inner)},
		})
		require.NoError(t, err)
		return a.Groups()[0]
	}
	assert.Equal(t, mk("x").Hash(), mk("x").Hash())
	assert.NotEqual(t, mk("x").Hash(), mk("y").Hash())
	assert.False(t, mk("x").Hash().IsZero())
	assert.Len(t, mk("x").Hash().String(), 64)
	assert.NotEqual(t, HashClass([]byte("outer")), mk("x").Hash())
}

func TestGroupParse(t *testing.T) {
	a, err := New(mapping.Official, []Entry{
		{Name: "p/A", Data: classfiletest.Class{Name: "p/A"}.Bytes()},
		{Name: "p/A$1", Data: classfiletest.Class{Name: "p/A$1"}.Bytes()},
		{Name: "p/B", Data: []byte{0xCA, 0xFE, 0xBA}},
	})
	require.NoError(t, err)
	groups := a.Groups()

	cfs, err := groups[0].Parse()
	require.NoError(t, err)
	require.Len(t, cfs, 2)
	assert.Equal(t, "p/A", cfs[0].ThisClass)

	_, err = groups[1].Parse()
	require.Error(t, err)
	assert.ErrorIs(t, err, classfile.ErrMalformed)
	assert.Contains(t, err.Error(), "class p/B")
}
