// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package archive holds the read-only set of compiled classes handed to a
// decompiler, keyed by internal class name.
package archive

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/ManuGH/loomsrc/internal/mapping"
)

const (
	classSuffix = ".class"
	// maxClassBytes bounds a single entry; the JVM's own limits keep real
	// class files far below this.
	maxClassBytes = 64 << 20
)

// Entry is one named class blob supplied to New.
type Entry struct {
	Name string // internal name, with or without the .class suffix
	Data []byte
}

// Class is a class stored in an Archive.
type Class struct {
	Name string
	Data []byte
	Hash Hash
}

// Archive is an immutable, name-ordered set of classes whose names are
// expressed in a single namespace.
type Archive struct {
	path    string
	ns      mapping.Namespace
	classes []Class
	byName  map[string]int
}

// New builds an in-memory archive. Duplicate names are rejected. An empty
// entry list is allowed here; dispatch rejects empty archives.
func New(ns mapping.Namespace, entries []Entry) (*Archive, error) {
	return build("", ns, entries)
}

// Open reads the .class entries of a jar. Resources, signatures, the
// manifest, multi-release overlays and module descriptors are ignored.
func Open(path string, ns mapping.Namespace) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ArchiveUnreadableError{Path: path, Reason: "open container", Err: err}
	}
	defer func() { _ = rc.Close() }()

	var entries []Entry
	for _, f := range rc.File {
		if !isClassEntry(f.Name) || f.FileInfo().IsDir() {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, &ArchiveUnreadableError{Path: path, Reason: "read " + f.Name, Err: err}
		}
		entries = append(entries, Entry{Name: f.Name, Data: data})
	}
	a, err := build(path, ns, entries)
	if err != nil {
		return nil, err
	}
	if a.Len() == 0 {
		return nil, Empty(path)
	}
	return a, nil
}

func isClassEntry(name string) bool {
	if !strings.HasSuffix(name, classSuffix) || strings.HasPrefix(name, "META-INF/") {
		return false
	}
	base := path.Base(name)
	return base != "module-info.class" && base != "package-info.class"
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxClassBytes {
		return nil, fmt.Errorf("entry is %d bytes", f.UncompressedSize64)
	}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(io.LimitReader(r, maxClassBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxClassBytes {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxClassBytes)
	}
	return data, nil
}

func build(p string, ns mapping.Namespace, entries []Entry) (*Archive, error) {
	a := &Archive{path: p, ns: ns, byName: make(map[string]int, len(entries))}
	for _, e := range entries {
		name := strings.TrimSuffix(strings.TrimPrefix(e.Name, "/"), classSuffix)
		if name == "" {
			return nil, &ArchiveUnreadableError{Path: p, Reason: "entry with empty name"}
		}
		if _, dup := a.byName[name]; dup {
			return nil, &ArchiveUnreadableError{Path: p, Reason: fmt.Sprintf("duplicate class %q", name)}
		}
		a.byName[name] = -1
		a.classes = append(a.classes, Class{Name: name, Data: e.Data, Hash: HashClass(e.Data)})
	}
	sort.Slice(a.classes, func(i, j int) bool { return a.classes[i].Name < a.classes[j].Name })
	for i, c := range a.classes {
		a.byName[c.Name] = i
	}
	return a, nil
}

// Path returns the file the archive was read from, or "" for in-memory archives.
func (a *Archive) Path() string { return a.path }

// Namespace returns the namespace class names are expressed in.
func (a *Archive) Namespace() mapping.Namespace { return a.ns }

// Len returns the number of classes.
func (a *Archive) Len() int { return len(a.classes) }

// Names returns class names in lexicographic order.
func (a *Archive) Names() []string {
	out := make([]string, len(a.classes))
	for i, c := range a.classes {
		out[i] = c.Name
	}
	return out
}

// Class returns the class stored under name.
func (a *Archive) Class(name string) (Class, bool) {
	i, ok := a.byName[name]
	if !ok {
		return Class{}, false
	}
	return a.classes[i], true
}

// Classes returns every class in lexicographic order.
func (a *Archive) Classes() []Class {
	out := make([]Class, len(a.classes))
	copy(out, a.classes)
	return out
}
