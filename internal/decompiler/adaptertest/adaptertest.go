// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package adaptertest holds fixtures shared by the adapter tests.
package adaptertest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/classfile/classfiletest"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

// Runnable is a public class p/Foo with one method whose body starts on line 7.
var Runnable = classfiletest.Class{
	Name: "p/Foo",
	Methods: []classfiletest.Method{
		{Access: classfile.AccPublic, Name: "run", Desc: "()V", Lines: []classfile.LineNumber{{StartPC: 0, Line: 7}}},
	},
}

// Group builds an official-namespace archive from classes and returns its
// first group.
func Group(t *testing.T, classes ...classfiletest.Class) archive.ClassGroup {
	t.Helper()
	entries := make([]archive.Entry, 0, len(classes))
	for _, c := range classes {
		entries = append(entries, archive.Entry{Name: c.Name + ".class", Data: c.Bytes()})
	}
	arc, err := archive.New(mapping.Official, entries)
	require.NoError(t, err)
	require.NotEmpty(t, arc.Groups())
	return arc.Groups()[0]
}

// Malformed returns a group whose single class is not a class file.
func Malformed(t *testing.T) archive.ClassGroup {
	t.Helper()
	arc, err := archive.New(mapping.Official, []archive.Entry{{Name: "p/Bad.class", Data: []byte("nope")}})
	require.NoError(t, err)
	return arc.Groups()[0]
}

// FakeJava writes a shell script standing in for "java -jar engine.jar".
// The script stores every argument in $args, the last one in $out, and
// then runs body.
func FakeJava(t *testing.T, body string) string {
	t.Helper()
	script := "#!/bin/sh\n" +
		"args=\"$*\"\n" +
		"for a in \"$@\"; do out=\"$a\"; done\n" +
		body + "\n"
	p := filepath.Join(t.TempDir(), "java")
	require.NoError(t, os.WriteFile(p, []byte(script), 0o700))
	return p
}
