// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/loomsrc/internal/config"
	"github.com/ManuGH/loomsrc/internal/decompiler/backends"
	"github.com/ManuGH/loomsrc/internal/decompiler/cache"
	xglog "github.com/ManuGH/loomsrc/internal/log"
	"github.com/ManuGH/loomsrc/internal/mapping"
	"github.com/ManuGH/loomsrc/internal/metrics"
	"github.com/ManuGH/loomsrc/internal/output"
	"github.com/ManuGH/loomsrc/internal/pipeline/orchestrator"
	"github.com/ManuGH/loomsrc/internal/telemetry"
)

type decompileFlags struct {
	archive  string
	mappings string
	backend  string
	from     string
	to       string
	out      string
	jar      string
	linemap  string
	threads  int
	noRemap  bool
	watch    bool
}

func newDecompileCmd(root *rootOptions) *cobra.Command {
	f := &decompileFlags{}
	cmd := &cobra.Command{
		Use:   "decompile --archive app.jar --mappings mappings.tiny --out src/",
		Short: "Decompile an archive and remap the sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			return runDecompile(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, f.archive)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.archive, "archive", "", "jar to decompile (required)")
	fl.StringVar(&f.mappings, "mappings", "", "tiny mapping file (overrides mappings.path)")
	fl.StringVar(&f.backend, "backend", "", "decompiler backend: "+fmt.Sprint(backends.Names()))
	fl.StringVar(&f.from, "from", "", "namespace of the archive (default: first namespace of the mappings)")
	fl.StringVar(&f.to, "to", "", "namespace to remap the sources into")
	fl.StringVar(&f.out, "out", "", "directory for the source tree")
	fl.StringVar(&f.jar, "jar", "", "path of the sources jar to write")
	fl.StringVar(&f.linemap, "linemap", "", "path of the line map file to write")
	fl.IntVar(&f.threads, "threads", 0, "class groups decompiled at once (0: one per CPU)")
	fl.BoolVar(&f.noRemap, "no-remap", false, "keep the archive namespace")
	fl.BoolVar(&f.watch, "watch", false, "re-run whenever the mapping file changes")
	_ = cmd.MarkFlagRequired("archive")
	return cmd
}

// apply layers explicitly set flags over the loaded configuration.
func (f *decompileFlags) apply(cmd *cobra.Command, cfg *config.AppConfig) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Mappings.Path, f.mappings)
	set(&cfg.Decompiler.Backend, f.backend)
	set(&cfg.Mappings.SourceNamespace, f.from)
	set(&cfg.Mappings.TargetNamespace, f.to)
	set(&cfg.Output.Dir, f.out)
	set(&cfg.Output.Jar, f.jar)
	set(&cfg.Output.LineMap, f.linemap)
	if cmd.Flags().Changed("threads") {
		cfg.Decompiler.Threads = f.threads
	}
	if cmd.Flags().Changed("watch") {
		cfg.Mappings.Watch = f.watch
	}
	if f.noRemap {
		cfg.Mappings.TargetNamespace = ""
	}
}

func runDecompile(ctx context.Context, stdout, stderr io.Writer, cfg config.AppConfig, archivePath string) error {
	logger := xglog.WithComponent("cli")
	if cfg.Mappings.Path == "" {
		return &usageError{msg: "no mapping file: pass --mappings or set mappings.path"}
	}
	if cfg.Output.Dir == "" && cfg.Output.Jar == "" {
		return &usageError{msg: "no output: pass --out or --jar"}
	}

	holder, err := mapping.NewHolder(cfg.Mappings.Path)
	if err != nil {
		return err
	}

	provider, err := telemetry.NewProvider(ctx, cfg.Tracing())
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()

	store, closeStore, err := cache.Open(ctx, cfg.CacheStore())
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	if cfg.Metrics.Addr != "" {
		srv, err := metrics.Listen(cfg.Metrics.Addr)
		if err != nil {
			return err
		}
		go func() { _ = srv.Serve() }()
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	orch := orchestrator.New(backends.Registry(cfg.Backends()),
		orchestrator.WithCache(store),
		orchestrator.WithMaxWorkers(cfg.Decompiler.MaxWorkers),
	)
	request := func(set *mapping.Set) orchestrator.Request {
		return orchestrator.Request{
			Backend:          cfg.Decompiler.Backend,
			ArchivePath:      archivePath,
			ArchiveNamespace: mapping.Namespace(cfg.Mappings.SourceNamespace),
			Mappings:         set,
			Options:          cfg.DecompileOptions(),
			Target:           mapping.Namespace(cfg.Mappings.TargetNamespace),
			RemapOptions:     cfg.RemapOptions(),
		}
	}
	once := func(set *mapping.Set) error {
		res, err := orch.Run(ctx, request(set))
		if err != nil {
			return err
		}
		if err := write(ctx, cfg.Output, res); err != nil {
			return err
		}
		report(stdout, stderr, res)
		return nil
	}

	if !cfg.Mappings.Watch {
		return once(holder.Get())
	}

	updates := make(chan *mapping.Set, 1)
	holder.Subscribe(updates)
	if err := holder.Watch(ctx); err != nil {
		return err
	}
	defer holder.Stop()

	if err := once(holder.Get()); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "watch.run_failed").Msg("decompile failed, waiting for mapping changes")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case set := <-updates:
			if err := once(set); err != nil {
				logger.Error().Err(err).Str(xglog.FieldEvent, "watch.run_failed").Msg("decompile failed, waiting for mapping changes")
			}
		}
	}
}

// write stores the units of a completed run in every configured artifact.
func write(ctx context.Context, out config.OutputConfig, res *orchestrator.Result) error {
	if out.Dir != "" {
		if _, err := output.WriteTree(ctx, out.Dir, res.Units); err != nil {
			return err
		}
	}
	if out.Jar != "" {
		if err := output.WriteJar(ctx, out.Jar, res.Units); err != nil {
			return err
		}
	}
	if out.LineMap != "" {
		if err := output.WriteLineMap(out.LineMap, res.Units); err != nil {
			return err
		}
	}
	return nil
}

func report(stdout, stderr io.Writer, res *orchestrator.Result) {
	for _, u := range res.Units {
		if u.Failed() {
			fmt.Fprintf(stderr, "warning: %v\n", u.Failure)
		}
	}
	if res.Remap != nil {
		for _, rerr := range res.Remap.Errors {
			fmt.Fprintf(stderr, "warning: %v\n", rerr)
		}
	}
	fmt.Fprintf(stdout, "%s: %d classes with %s (%d partial, %d cached) in %s\n",
		res.RunID, len(res.Units), res.Backend, res.Partial, res.Cache.Hits, res.Duration.Round(time.Millisecond))
	if res.Remap != nil {
		fmt.Fprintf(stdout, "remapped %d, unchanged %d, rejected %d\n",
			res.Remap.Remapped, res.Remap.Unchanged, len(res.Remap.Errors))
	}
}
