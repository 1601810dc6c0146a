// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"fmt"

	"github.com/ManuGH/loomsrc/internal/decompiler"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and configures a store.
type Config struct {
	Backend string
	// Path is the SQLite database file.
	Path string
	// Entries bounds the in-process LRU, alone or in front of a persistent store.
	Entries int
	Redis   RedisConfig
}

// Open builds the configured store. It returns a nil cache for BackendNone
// or an empty backend. The returned close function is never nil.
func Open(ctx context.Context, cfg Config) (decompiler.Cache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", BackendNone:
		return nil, noop, nil
	case BackendMemory:
		m, err := NewMemory(cfg.Entries)
		if err != nil {
			return nil, noop, err
		}
		return m, noop, nil
	case BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		front, err := NewMemory(cfg.Entries)
		if err != nil {
			_ = s.Close()
			return nil, noop, err
		}
		return NewTiered(front, s), s.Close, nil
	case BackendRedis:
		r, err := NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		front, err := NewMemory(cfg.Entries)
		if err != nil {
			_ = r.Close()
			return nil, noop, err
		}
		return NewTiered(front, r), r.Close, nil
	default:
		return nil, noop, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
