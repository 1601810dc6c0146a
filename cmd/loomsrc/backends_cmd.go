// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ManuGH/loomsrc/internal/decompiler/backends"
)

func newBackendsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the decompiler backends and the engine each one runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "backend\tengine\tdefault")
			for _, name := range backends.Names() {
				engine := "built-in"
				if jar := cfg.Decompiler.Engines[name]; jar != "" {
					engine = jar
				}
				def := ""
				if name == cfg.Decompiler.Backend {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, engine, def)
			}
			return tw.Flush()
		},
	}
}
