// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package output writes decompiled units to disk: a source tree, a sources
// jar and a line map file. Every file is replaced atomically.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/klauspost/compress/zip"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/linemap"
	xlog "github.com/ManuGH/loomsrc/internal/log"
)

// EntryTime is the modification time stamped on every jar entry, so equal
// inputs give byte-identical jars.
var EntryTime = time.Date(1980, time.February, 1, 0, 0, 0, 0, time.UTC)

// writable returns the units that carry source, ordered by file name.
func writable(units []decompiler.Unit) []decompiler.Unit {
	out := make([]decompiler.Unit, 0, len(units))
	for _, u := range units {
		if !u.Failed() {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b decompiler.Unit) int { return strings.Compare(a.FileName(), b.FileName()) })
	return out
}

// WriteTree writes one .java file per unit below dir. Partial-failure
// units are skipped. It returns the number of files written.
func WriteTree(ctx context.Context, dir string, units []decompiler.Unit) (int, error) {
	logger := xlog.WithContext(ctx, xlog.WithComponent("output"))
	n := 0
	for _, u := range writable(units) {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		path := filepath.Join(dir, filepath.FromSlash(u.FileName()))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return n, fmt.Errorf("create source dir: %w", err)
		}
		if err := atomicWrite(ctx, path, func(w io.Writer) error {
			_, err := io.WriteString(w, u.Source)
			return err
		}); err != nil {
			return n, fmt.Errorf("write %s: %w", u.FileName(), err)
		}
		n++
	}
	logger.Info().
		Str(xlog.FieldEvent, "output.tree_written").
		Str(xlog.FieldPath, dir).
		Int(xlog.FieldClasses, n).
		Msg("source tree written")
	return n, nil
}

// WriteJar writes a sources jar holding one entry per unit.
func WriteJar(ctx context.Context, path string, units []decompiler.Unit) error {
	logger := xlog.WithContext(ctx, xlog.WithComponent("output"))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create jar dir: %w", err)
	}
	entries := writable(units)
	err := atomicWrite(ctx, path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, u := range entries {
			f, err := zw.CreateHeader(&zip.FileHeader{
				Name:     u.FileName(),
				Method:   zip.Deflate,
				Modified: EntryTime,
			})
			if err != nil {
				return err
			}
			if _, err := io.WriteString(f, u.Source); err != nil {
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return fmt.Errorf("write sources jar: %w", err)
	}
	logger.Info().
		Str(xlog.FieldEvent, "output.jar_written").
		Str(xlog.FieldPath, path).
		Int(xlog.FieldClasses, len(entries)).
		Msg("sources jar written")
	return nil
}

// WriteLineMap writes the line maps of units to path.
func WriteLineMap(path string, units []decompiler.Unit) error {
	classes := make([]linemap.Class, 0, len(units))
	for _, u := range units {
		if !u.Failed() {
			classes = append(classes, linemap.Class{Name: u.ClassName, Map: u.Lines})
		}
	}
	return linemap.WriteFile(path, classes)
}

// atomicWrite fills a pending file and renames it over path.
func atomicWrite(ctx context.Context, path string, fill func(io.Writer) error) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			xlog.FromContext(ctx).Debug().Err(err).Str(xlog.FieldPath, path).Msg("cleanup pending file")
		}
	}()
	if err := fill(pending); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}
