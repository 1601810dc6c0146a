// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ManuGH/loomsrc/internal/decompiler"
)

// DefaultMemoryEntries bounds the in-process store when no size is configured.
const DefaultMemoryEntries = 4096

// Memory is a bounded in-process LRU of units.
type Memory struct {
	entries *lru.Cache[decompiler.Key, decompiler.Unit]
}

// NewMemory returns a store holding at most size units.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	c, err := lru.New[decompiler.Key, decompiler.Unit](size)
	if err != nil {
		return nil, fmt.Errorf("cache: memory store: %w", err)
	}
	return &Memory{entries: c}, nil
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(_ context.Context, key decompiler.Key) (decompiler.Unit, bool, error) {
	u, ok := m.entries.Get(key)
	return u, ok, nil
}

func (m *Memory) Put(_ context.Context, key decompiler.Key, u decompiler.Unit) error {
	if u.Failed() {
		return nil
	}
	m.entries.Add(key, u)
	return nil
}

// Len returns the number of stored units.
func (m *Memory) Len() int { return m.entries.Len() }
