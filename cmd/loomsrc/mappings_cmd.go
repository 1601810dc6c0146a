// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ManuGH/loomsrc/internal/classfile"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

func newMappingsCmd(root *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Query a tiny mapping file",
	}
	cmd.PersistentFlags().StringVar(&file, "mappings", "", "tiny mapping file (overrides mappings.path)")

	open := func() (*mapping.Set, error) {
		cfg, err := root.load()
		if err != nil {
			return nil, err
		}
		if file != "" {
			cfg.Mappings.Path = file
		}
		if cfg.Mappings.Path == "" {
			return nil, &usageError{msg: "no mapping file: pass --mappings or set mappings.path"}
		}
		return mapping.LoadFile(cfg.Mappings.Path)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show the namespaces and size of the mapping file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				set, err := open()
				if err != nil {
					return err
				}
				names := make([]string, 0, len(set.Namespaces()))
				for _, ns := range set.Namespaces() {
					names = append(names, string(ns))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "namespaces: %s\n", strings.Join(names, ", "))
				fmt.Fprintf(out, "classes:    %d\n", len(set.Classes()))
				fmt.Fprintf(out, "entries:    %d\n", set.Len())
				return nil
			},
		},
		&cobra.Command{
			Use:   "lookup <namespace> <class>",
			Short: "Print a class and its members in every namespace",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				set, err := open()
				if err != nil {
					return err
				}
				ns := mapping.Namespace(args[0])
				if err := mapping.Require(set, ns); err != nil {
					return err
				}
				name := strings.ReplaceAll(args[1], ".", "/")
				class, ok := set.Class(ns, name)
				if !ok {
					return fmt.Errorf("class %s not found in namespace %s", args[1], ns)
				}
				printEntry(cmd.OutOrStdout(), set, class, set.Members(ns, name))
				return nil
			},
		},
	)
	return cmd
}

func printEntry(out io.Writer, set *mapping.Set, class *mapping.Entry, members []*mapping.Entry) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	header := []string{"kind"}
	for _, ns := range set.Namespaces() {
		header = append(header, string(ns))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	row := func(kind string, e *mapping.Entry, render func(ns mapping.Namespace, name string) string) {
		cols := []string{kind}
		for _, ns := range set.Namespaces() {
			cols = append(cols, render(ns, set.Name(e, ns)))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	row("class", class, func(_ mapping.Namespace, n string) string { return classfile.JavaName(n) })
	for _, m := range members {
		row(m.Kind().String(), m, func(ns mapping.Namespace, n string) string {
			desc := set.Descriptor(m, ns).Desc
			if m.Kind() == mapping.KindMethod {
				return n + desc
			}
			return n + ":" + desc
		})
	}
	if doc := class.Doc(); doc != "" {
		fmt.Fprintf(tw, "\n%s\n", doc)
	}
}
