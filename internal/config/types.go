// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// FileConfig is the on-disk YAML shape. Pointer fields distinguish an
// explicit false or zero from an absent key.
type FileConfig struct {
	LogLevel   string               `yaml:"logLevel,omitempty"`
	Decompiler DecompilerFileConfig `yaml:"decompiler,omitempty"`
	Mappings   MappingsFileConfig   `yaml:"mappings,omitempty"`
	Cache      CacheFileConfig      `yaml:"cache,omitempty"`
	Output     OutputConfig         `yaml:"output,omitempty"`
	Metrics    MetricsConfig        `yaml:"metrics,omitempty"`
	Telemetry  TelemetryFileConfig  `yaml:"telemetry,omitempty"`
}

// DecompilerFileConfig selects the engine and its options.
type DecompilerFileConfig struct {
	Backend     string            `yaml:"backend,omitempty"`
	Threads     *int              `yaml:"threads,omitempty"`
	MaxWorkers  *int              `yaml:"maxWorkers,omitempty"`
	LineNumbers *bool             `yaml:"lineNumbers,omitempty"`
	Generics    *bool             `yaml:"generics,omitempty"`
	Synthetics  *bool             `yaml:"synthetics,omitempty"`
	Indent      *string           `yaml:"indent,omitempty"`
	JavaBin     string            `yaml:"javaBin,omitempty"`
	JVMArgs     []string          `yaml:"jvmArgs,omitempty"`
	Timeout     *time.Duration    `yaml:"timeout,omitempty"`
	KillGrace   *time.Duration    `yaml:"killGrace,omitempty"`
	ScratchDir  string            `yaml:"scratchDir,omitempty"`
	Engines     map[string]string `yaml:"engines,omitempty"`
}

// MappingsFileConfig points at the mapping file.
type MappingsFileConfig struct {
	Path            string `yaml:"path,omitempty"`
	SourceNamespace string `yaml:"sourceNamespace,omitempty"`
	TargetNamespace string `yaml:"targetNamespace,omitempty"`
	Watch           *bool  `yaml:"watch,omitempty"`
	Javadoc         *bool  `yaml:"javadoc,omitempty"`
	KeepBridges     *bool  `yaml:"keepBridges,omitempty"`
}

// CacheFileConfig selects the unit cache.
type CacheFileConfig struct {
	Backend string          `yaml:"backend,omitempty"`
	Path    string          `yaml:"path,omitempty"`
	Entries *int            `yaml:"entries,omitempty"`
	Redis   RedisFileConfig `yaml:"redis,omitempty"`
}

// RedisFileConfig holds the shared cache connection.
type RedisFileConfig struct {
	Addr     string         `yaml:"addr,omitempty"`
	Password string         `yaml:"password,omitempty"`
	DB       *int           `yaml:"db,omitempty"`
	TTL      *time.Duration `yaml:"ttl,omitempty"`
}

// OutputConfig names the artifacts a run writes. Empty fields are skipped.
type OutputConfig struct {
	Dir     string `yaml:"dir,omitempty"`
	Jar     string `yaml:"jar,omitempty"`
	LineMap string `yaml:"linemap,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// TelemetryFileConfig configures OTLP tracing.
type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

// AppConfig is the resolved runtime configuration.
type AppConfig struct {
	Version    string
	LogLevel   string
	Decompiler DecompilerConfig
	Mappings   MappingsConfig
	Cache      CacheConfig
	Output     OutputConfig
	Metrics    MetricsConfig
	Telemetry  TelemetryConfig
}

// DecompilerConfig is the resolved engine selection.
type DecompilerConfig struct {
	Backend string
	// Threads bounds class groups per run; zero means one per CPU.
	Threads int
	// MaxWorkers bounds class groups across concurrent runs; zero disables the bound.
	MaxWorkers  int
	LineNumbers bool
	Generics    bool
	Synthetics  bool
	Indent      string
	JavaBin     string
	JVMArgs     []string
	Timeout     time.Duration
	KillGrace   time.Duration
	ScratchDir  string
	// Engines maps a backend name to an engine jar. Backends without a jar
	// use the built-in engine.
	Engines map[string]string
}

// MappingsConfig is the resolved mapping input.
type MappingsConfig struct {
	Path string
	// SourceNamespace is the archive namespace; empty means the first
	// namespace of the mapping file.
	SourceNamespace string
	// TargetNamespace is the remap target; empty skips remapping.
	TargetNamespace string
	Watch           bool
	Javadoc         bool
	KeepBridges     bool
}

// CacheConfig is the resolved cache selection.
type CacheConfig struct {
	Backend string
	Path    string
	Entries int
	Redis   RedisConfig
}

// RedisConfig is the resolved redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// TelemetryConfig is the resolved tracing setup.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}
