// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package backends assembles the registry of the shipped adapters.
package backends

import (
	"strings"
	"time"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/cfr"
	"github.com/ManuGH/loomsrc/internal/decompiler/engine"
	"github.com/ManuGH/loomsrc/internal/decompiler/fernflower"
	"github.com/ManuGH/loomsrc/internal/decompiler/vineflower"
)

// Default is the backend used when a request names none.
const Default = vineflower.Name

// Config carries the engine settings shared by every backend. A backend
// without an entry in Jars runs on the built-in engine.
type Config struct {
	JavaBin    string
	JVMArgs    []string
	Timeout    time.Duration
	KillGrace  time.Duration
	ScratchDir string
	Jars       map[string]string
}

// Names lists the shipped backends.
func Names() []string {
	return []string{cfr.Name, fernflower.Name, vineflower.Name}
}

// Registry returns a registry holding fernflower, cfr and vineflower.
func Registry(cfg Config) *decompiler.Registry {
	reg := decompiler.NewRegistry()
	reg.Register(fernflower.Name, func() decompiler.Adapter { return fernflower.New(cfg.runner(fernflower.Name)) })
	reg.Register(cfr.Name, func() decompiler.Adapter { return cfr.New(cfg.runner(cfr.Name)) })
	reg.Register(vineflower.Name, func() decompiler.Adapter { return vineflower.New(cfg.runner(vineflower.Name)) })
	return reg
}

func (c Config) runner(backend string) *engine.Runner {
	jar := c.Jars[strings.ToLower(backend)]
	if jar == "" {
		return nil
	}
	return engine.New(engine.Config{
		JavaBin:    c.JavaBin,
		Jar:        jar,
		JVMArgs:    c.JVMArgs,
		Timeout:    c.Timeout,
		KillGrace:  c.KillGrace,
		ScratchDir: c.ScratchDir,
	})
}
