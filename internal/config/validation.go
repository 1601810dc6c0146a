// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"slices"
	"strings"

	"github.com/ManuGH/loomsrc/internal/decompiler/backends"
	"github.com/ManuGH/loomsrc/internal/decompiler/cache"
	"github.com/ManuGH/loomsrc/internal/telemetry"
	"github.com/ManuGH/loomsrc/internal/validate"
)

// Validate checks a resolved configuration. All failures are reported
// together as a validate.ValidationError.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if cfg.LogLevel != "" {
		v.OneOf("logLevel", strings.ToLower(cfg.LogLevel), validate.LogLevels())
	}
	validateDecompiler(v, cfg.Decompiler)
	validateMappings(v, cfg.Mappings)
	validateCache(v, cfg.Cache)

	if cfg.Output.Dir != "" {
		v.Directory("output.dir", cfg.Output.Dir, false)
	}
	v.ParentDirectory("output.jar", cfg.Output.Jar)
	v.ParentDirectory("output.linemap", cfg.Output.LineMap)

	if cfg.Metrics.Addr != "" {
		v.ListenAddr("metrics.addr", cfg.Metrics.Addr)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{telemetry.ExporterGRPC, telemetry.ExporterHTTP})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}
	v.Fraction("telemetry.samplingRate", cfg.Telemetry.SamplingRate)

	return v.Err()
}

func validateDecompiler(v *validate.Validator, d DecompilerConfig) {
	names := backends.Names()
	v.OneOf("decompiler.backend", strings.ToLower(d.Backend), names)
	v.Range("decompiler.threads", d.Threads, 0, 256)
	v.NonNegative("decompiler.maxWorkers", d.MaxWorkers)
	if d.Indent != "\t" && (d.Indent == "" || strings.Trim(d.Indent, " ") != "") {
		v.AddError("decompiler.indent", "indent must be spaces or a single tab", d.Indent)
	}
	if d.Timeout < 0 {
		v.AddError("decompiler.timeout", "timeout cannot be negative", d.Timeout.String())
	}
	if d.KillGrace < 0 {
		v.AddError("decompiler.killGrace", "kill grace cannot be negative", d.KillGrace.String())
	}
	for name, jar := range d.Engines {
		field := "decompiler.engines." + name
		if !slices.Contains(names, name) {
			v.AddError(field, "no such backend", name)
			continue
		}
		v.File(field, jar)
	}
	if len(d.Engines) > 0 {
		v.NotEmpty("decompiler.javaBin", d.JavaBin)
	}
}

func validateMappings(v *validate.Validator, m MappingsConfig) {
	v.File("mappings.path", m.Path)
	if m.SourceNamespace != "" && m.SourceNamespace == m.TargetNamespace {
		v.AddError("mappings.targetNamespace", "target namespace equals the source namespace", m.TargetNamespace)
	}
	if m.Watch && m.Path == "" {
		v.AddError("mappings.watch", "watching requires mappings.path", m.Watch)
	}
}

func validateCache(v *validate.Validator, c CacheConfig) {
	v.OneOf("cache.backend", c.Backend, []string{cache.BackendNone, cache.BackendMemory, cache.BackendSQLite, cache.BackendRedis})
	switch c.Backend {
	case "", cache.BackendNone:
		v.NonNegative("cache.entries", c.Entries)
	default:
		// every other backend keeps an in-process LRU
		v.Positive("cache.entries", c.Entries)
	}
	switch c.Backend {
	case cache.BackendSQLite:
		v.NotEmpty("cache.path", c.Path)
		v.ParentDirectory("cache.path", c.Path)
	case cache.BackendRedis:
		v.NotEmpty("cache.redis.addr", c.Redis.Addr)
		v.Range("cache.redis.db", c.Redis.DB, 0, 15)
	}
}
