// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decompiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownBackend is returned when no adapter is registered for an identifier.
var ErrUnknownBackend = errors.New("unknown decompiler backend")

// UnknownBackendError names the requested identifier and the known ones.
type UnknownBackendError struct {
	Backend string
	Known   []string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown decompiler backend %q (known: %s)", e.Backend, strings.Join(e.Known, ", "))
}

func (e *UnknownBackendError) Unwrap() error { return ErrUnknownBackend }

// Factory builds an adapter. Factories must not perform I/O.
type Factory func() Adapter

// Registry maps backend identifiers to adapter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Resolve returns a fresh adapter for name.
func (r *Registry) Resolve(name string) (Adapter, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownBackendError{Backend: name, Known: r.Backends()}
	}
	return f(), nil
}

// Backends lists registered identifiers in sorted order.
func (r *Registry) Backends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
