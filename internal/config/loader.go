// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/backends"
	"github.com/ManuGH/loomsrc/internal/decompiler/cache"
	"github.com/ManuGH/loomsrc/internal/log"
	"github.com/ManuGH/loomsrc/internal/mapping"
	"github.com/ManuGH/loomsrc/internal/telemetry"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOOMSRC_"

// EnvConfigPath names the config file when --config is absent. The CLI
// reads it, not the loader.
const EnvConfigPath = EnvPrefix + "CONFIG"

// Loader resolves configuration with precedence env > file > defaults.
type Loader struct {
	configPath string
	version    string
	// ConsumedEnvKeys records every key the loader looked at.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader returns a loader for the YAML file at configPath; an empty path
// skips the file layer.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load applies defaults, then the file, then LOOMSRC_* variables, and
// validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFile(&cfg, fileCfg)
	}

	l.mergeEnv(&cfg)
	logger := log.WithComponent("config")
	for _, key := range l.UnknownEnvKeys() {
		logger.Warn().Str("key", key).Msg("ignoring unknown environment variable")
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing is set.
func Defaults() AppConfig {
	opts := decompiler.DefaultOptions()
	return AppConfig{
		LogLevel: "info",
		Decompiler: DecompilerConfig{
			Backend:     backends.Default,
			LineNumbers: opts.IncludeLineNumbers,
			Generics:    opts.IncludeGenericSignatures,
			Synthetics:  opts.IncludeSynthetics,
			Indent:      opts.Indent,
			JavaBin:     "java",
			Timeout:     10 * time.Minute,
			KillGrace:   5 * time.Second,
			Engines:     map[string]string{},
		},
		Mappings: MappingsConfig{
			TargetNamespace: string(mapping.Named),
			Javadoc:         true,
		},
		Cache: CacheConfig{
			Backend: cache.BackendMemory,
			Entries: 4096,
		},
		Telemetry: TelemetryConfig{
			Exporter:     telemetry.ExporterGRPC,
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// loadFile parses path strictly: unknown keys and trailing documents fail.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- the config path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFile(data)
}

func parseFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFile(dst *AppConfig, src *FileConfig) {
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	d, fd := &dst.Decompiler, src.Decompiler
	setString(&d.Backend, fd.Backend)
	setPtr(&d.Threads, fd.Threads)
	setPtr(&d.MaxWorkers, fd.MaxWorkers)
	setPtr(&d.LineNumbers, fd.LineNumbers)
	setPtr(&d.Generics, fd.Generics)
	setPtr(&d.Synthetics, fd.Synthetics)
	setPtr(&d.Indent, fd.Indent)
	setString(&d.JavaBin, expandEnv(fd.JavaBin))
	if len(fd.JVMArgs) > 0 {
		d.JVMArgs = slices.Clone(fd.JVMArgs)
	}
	setPtr(&d.Timeout, fd.Timeout)
	setPtr(&d.KillGrace, fd.KillGrace)
	setString(&d.ScratchDir, expandEnv(fd.ScratchDir))
	for name, jar := range fd.Engines {
		d.Engines[strings.ToLower(name)] = expandEnv(jar)
	}

	m, fm := &dst.Mappings, src.Mappings
	setString(&m.Path, expandEnv(fm.Path))
	setString(&m.SourceNamespace, fm.SourceNamespace)
	setString(&m.TargetNamespace, fm.TargetNamespace)
	setPtr(&m.Watch, fm.Watch)
	setPtr(&m.Javadoc, fm.Javadoc)
	setPtr(&m.KeepBridges, fm.KeepBridges)

	c, fc := &dst.Cache, src.Cache
	setString(&c.Backend, fc.Backend)
	setString(&c.Path, expandEnv(fc.Path))
	setPtr(&c.Entries, fc.Entries)
	setString(&c.Redis.Addr, fc.Redis.Addr)
	setString(&c.Redis.Password, expandEnv(fc.Redis.Password))
	setPtr(&c.Redis.DB, fc.Redis.DB)
	setPtr(&c.Redis.TTL, fc.Redis.TTL)

	setString(&dst.Output.Dir, expandEnv(src.Output.Dir))
	setString(&dst.Output.Jar, expandEnv(src.Output.Jar))
	setString(&dst.Output.LineMap, expandEnv(src.Output.LineMap))
	setString(&dst.Metrics.Addr, src.Metrics.Addr)

	t, ft := &dst.Telemetry, src.Telemetry
	setPtr(&t.Enabled, ft.Enabled)
	setString(&t.Exporter, ft.Exporter)
	setString(&t.Endpoint, ft.Endpoint)
	setPtr(&t.SamplingRate, ft.SamplingRate)
}

// mergeEnv applies LOOMSRC_* overrides.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvPrefix+"LOG_LEVEL", cfg.LogLevel)

	d := &cfg.Decompiler
	d.Backend = l.envString(EnvPrefix+"BACKEND", d.Backend)
	d.Threads = l.envInt(EnvPrefix+"THREADS", d.Threads)
	d.MaxWorkers = l.envInt(EnvPrefix+"MAX_WORKERS", d.MaxWorkers)
	d.LineNumbers = l.envBool(EnvPrefix+"LINE_NUMBERS", d.LineNumbers)
	d.Generics = l.envBool(EnvPrefix+"GENERICS", d.Generics)
	d.Synthetics = l.envBool(EnvPrefix+"SYNTHETICS", d.Synthetics)
	d.JavaBin = l.envString(EnvPrefix+"JAVA_BIN", d.JavaBin)
	d.JVMArgs = l.envList(EnvPrefix+"JVM_ARGS", d.JVMArgs)
	d.Timeout = l.envDuration(EnvPrefix+"ENGINE_TIMEOUT", d.Timeout)
	d.ScratchDir = l.envString(EnvPrefix+"SCRATCH_DIR", d.ScratchDir)
	for _, name := range backends.Names() {
		key := EnvPrefix + strings.ToUpper(name) + "_JAR"
		if jar := l.envString(key, d.Engines[name]); jar != "" {
			d.Engines[name] = jar
		}
	}

	m := &cfg.Mappings
	m.Path = l.envString(EnvPrefix+"MAPPINGS", m.Path)
	m.SourceNamespace = l.envString(EnvPrefix+"SOURCE_NAMESPACE", m.SourceNamespace)
	m.TargetNamespace = l.envString(EnvPrefix+"TARGET_NAMESPACE", m.TargetNamespace)
	m.Watch = l.envBool(EnvPrefix+"MAPPINGS_WATCH", m.Watch)

	c := &cfg.Cache
	c.Backend = l.envString(EnvPrefix+"CACHE_BACKEND", c.Backend)
	c.Path = l.envString(EnvPrefix+"CACHE_PATH", c.Path)
	c.Entries = l.envInt(EnvPrefix+"CACHE_ENTRIES", c.Entries)
	c.Redis.Addr = l.envString(EnvPrefix+"REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = l.envString(EnvPrefix+"REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = l.envInt(EnvPrefix+"REDIS_DB", c.Redis.DB)

	cfg.Output.Dir = l.envString(EnvPrefix+"OUTPUT_DIR", cfg.Output.Dir)
	cfg.Output.Jar = l.envString(EnvPrefix+"OUTPUT_JAR", cfg.Output.Jar)
	cfg.Output.LineMap = l.envString(EnvPrefix+"LINEMAP", cfg.Output.LineMap)
	cfg.Metrics.Addr = l.envString(EnvPrefix+"METRICS_ADDR", cfg.Metrics.Addr)

	t := &cfg.Telemetry
	t.Enabled = l.envBool(EnvPrefix+"TELEMETRY_ENABLED", t.Enabled)
	t.Exporter = l.envString(EnvPrefix+"OTLP_EXPORTER", t.Exporter)
	t.Endpoint = l.envString(EnvPrefix+"OTLP_ENDPOINT", t.Endpoint)
	t.SamplingRate = l.envFloat(EnvPrefix+"TRACE_SAMPLING", t.SamplingRate)
}

// UnknownEnvKeys lists set LOOMSRC_* variables the loader never consumed,
// usually typos.
func (l *Loader) UnknownEnvKeys() []string {
	var out []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := l.ConsumedEnvKeys[key]; !ok && key != EnvConfigPath {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
