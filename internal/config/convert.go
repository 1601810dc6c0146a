// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"maps"
	"slices"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/backends"
	"github.com/ManuGH/loomsrc/internal/decompiler/cache"
	"github.com/ManuGH/loomsrc/internal/remap"
	"github.com/ManuGH/loomsrc/internal/telemetry"
)

const masked = "***"

// DecompileOptions returns the per-run engine options.
func (c AppConfig) DecompileOptions() decompiler.Options {
	return decompiler.Options{
		ThreadCount:              c.Decompiler.Threads,
		IncludeLineNumbers:       c.Decompiler.LineNumbers,
		IncludeGenericSignatures: c.Decompiler.Generics,
		IncludeSynthetics:        c.Decompiler.Synthetics,
		Indent:                   c.Decompiler.Indent,
	}.Normalize()
}

// Backends returns the engine settings shared by every backend.
func (c AppConfig) Backends() backends.Config {
	d := c.Decompiler
	return backends.Config{
		JavaBin:    d.JavaBin,
		JVMArgs:    slices.Clone(d.JVMArgs),
		Timeout:    d.Timeout,
		KillGrace:  d.KillGrace,
		ScratchDir: d.ScratchDir,
		Jars:       maps.Clone(d.Engines),
	}
}

// CacheStore returns the cache selection.
func (c AppConfig) CacheStore() cache.Config {
	return cache.Config{
		Backend: c.Cache.Backend,
		Path:    c.Cache.Path,
		Entries: c.Cache.Entries,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			TTL:      c.Cache.Redis.TTL,
		},
	}
}

// Tracing returns the telemetry provider settings.
func (c AppConfig) Tracing() telemetry.Config {
	return telemetry.Config{
		Enabled:        c.Telemetry.Enabled,
		ServiceName:    "loomsrc",
		ServiceVersion: c.Version,
		ExporterType:   c.Telemetry.Exporter,
		Endpoint:       c.Telemetry.Endpoint,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}

// RemapOptions returns the remapper switches.
func (c AppConfig) RemapOptions() []remap.Option {
	var opts []remap.Option
	if !c.Mappings.Javadoc {
		opts = append(opts, remap.WithoutJavadoc())
	}
	if c.Mappings.KeepBridges {
		opts = append(opts, remap.KeepBridges())
	}
	return opts
}

// File renders the resolved configuration back into its YAML shape with
// secrets masked.
func (c AppConfig) File() FileConfig {
	d, m, t := c.Decompiler, c.Mappings, c.Telemetry
	f := FileConfig{
		LogLevel: c.LogLevel,
		Decompiler: DecompilerFileConfig{
			Backend:     d.Backend,
			Threads:     &d.Threads,
			MaxWorkers:  &d.MaxWorkers,
			LineNumbers: &d.LineNumbers,
			Generics:    &d.Generics,
			Synthetics:  &d.Synthetics,
			Indent:      &d.Indent,
			JavaBin:     d.JavaBin,
			JVMArgs:     slices.Clone(d.JVMArgs),
			Timeout:     &d.Timeout,
			KillGrace:   &d.KillGrace,
			ScratchDir:  d.ScratchDir,
			Engines:     maps.Clone(d.Engines),
		},
		Mappings: MappingsFileConfig{
			Path:            m.Path,
			SourceNamespace: m.SourceNamespace,
			TargetNamespace: m.TargetNamespace,
			Watch:           &m.Watch,
			Javadoc:         &m.Javadoc,
			KeepBridges:     &m.KeepBridges,
		},
		Cache: CacheFileConfig{
			Backend: c.Cache.Backend,
			Path:    c.Cache.Path,
			Entries: &c.Cache.Entries,
			Redis: RedisFileConfig{
				Addr: c.Cache.Redis.Addr,
				DB:   &c.Cache.Redis.DB,
				TTL:  &c.Cache.Redis.TTL,
			},
		},
		Output:  c.Output,
		Metrics: c.Metrics,
		Telemetry: TelemetryFileConfig{
			Enabled:      &t.Enabled,
			Exporter:     t.Exporter,
			Endpoint:     t.Endpoint,
			SamplingRate: &t.SamplingRate,
		},
	}
	if c.Cache.Redis.Password != "" {
		f.Cache.Redis.Password = masked
	}
	return f
}
