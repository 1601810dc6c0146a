// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"

	"github.com/ManuGH/loomsrc/internal/decompiler"
)

// Tiered fronts a persistent store with an in-process LRU. Hits in the
// backing store are promoted to the front.
type Tiered struct {
	front *Memory
	back  decompiler.Cache
}

// NewTiered layers front over back.
func NewTiered(front *Memory, back decompiler.Cache) *Tiered {
	return &Tiered{front: front, back: back}
}

func (t *Tiered) Name() string { return t.back.Name() }

func (t *Tiered) Get(ctx context.Context, key decompiler.Key) (decompiler.Unit, bool, error) {
	if u, ok, _ := t.front.Get(ctx, key); ok {
		return u, true, nil
	}
	u, ok, err := t.back.Get(ctx, key)
	if err != nil || !ok {
		return u, ok, err
	}
	_ = t.front.Put(ctx, key, u)
	return u, true, nil
}

func (t *Tiered) Put(ctx context.Context, key decompiler.Key, u decompiler.Unit) error {
	_ = t.front.Put(ctx, key, u)
	return t.back.Put(ctx, key, u)
}
