// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package linemap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

// Class is the line map of one class, as stored in a line map file.
type Class struct {
	Name string // internal class name
	Map  Map
}

// Write emits classes in the line map text format: a header row
// "<class>\t<max original>\t<max decompiled>" per class followed by one
// "\t<original>\t<decompiled>" row per pair, ordered by original line.
// Classes are written in name order; empty maps are skipped.
func Write(w io.Writer, classes []Class) error {
	sorted := make([]Class, 0, len(classes))
	for _, c := range classes {
		if !c.Map.Empty() {
			sorted = append(sorted, c)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	bw := bufio.NewWriter(w)
	for _, c := range sorted {
		fmt.Fprintf(bw, "%s\t%d\t%d\n", c.Name, c.Map.MaxOriginal(), c.Map.MaxLine())
		pairs := c.Map.Pairs()
		sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Original < pairs[j].Original })
		for _, p := range pairs {
			fmt.Fprintf(bw, "\t%d\t%d\n", p.Original, p.Line)
		}
	}
	return bw.Flush()
}

// WriteFile writes classes to path atomically.
func WriteFile(path string, classes []Class) error {
	var b strings.Builder
	if err := Write(&b, classes); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create line map dir: %w", err)
	}
	if err := renameio.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write line map: %w", err)
	}
	return nil
}

// Read parses the line map text format.
func Read(r io.Reader) ([]Class, error) {
	sc := bufio.NewScanner(r)
	var (
		out   []Class
		name  string
		pairs []Pair
		line  int
	)
	flush := func() {
		if name != "" {
			out = append(out, Class{Name: name, Map: New(pairs...)})
		}
		name, pairs = "", nil
	}
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" {
			continue
		}
		cols := strings.Split(text, "\t")
		if cols[0] != "" {
			flush()
			if len(cols) != 3 {
				return nil, fmt.Errorf("line map: line %d: class row needs 3 columns", line)
			}
			name = cols[0]
			continue
		}
		if name == "" || len(cols) != 3 {
			return nil, fmt.Errorf("line map: line %d: unexpected line row", line)
		}
		orig, err1 := strconv.Atoi(cols[1])
		dest, err2 := strconv.Atoi(cols[2])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("line map: line %d: bad line numbers", line)
		}
		pairs = append(pairs, Pair{Line: dest, Original: orig})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line map: %w", err)
	}
	flush()
	return out, nil
}
