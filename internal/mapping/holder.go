// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mapping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xlog "github.com/ManuGH/loomsrc/internal/log"
)

const defaultDebounce = 500 * time.Millisecond

// Holder keeps the current mapping Set for a file and swaps it atomically
// when the file changes. A reload that fails to parse keeps the previous Set.
type Holder struct {
	mu       sync.RWMutex
	current  *Set
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger

	listenMu  sync.RWMutex
	listeners []chan<- *Set
}

// NewHolder loads path once and returns a Holder serving the result.
func NewHolder(path string) (*Holder, error) {
	set, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &Holder{
		current:  set,
		path:     path,
		debounce: defaultDebounce,
		logger:   xlog.WithComponent("mapping"),
	}, nil
}

// Get returns the current Set.
func (h *Holder) Get() *Set {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload re-reads the file. On error the current Set stays in place.
func (h *Holder) Reload(_ context.Context) error {
	set, err := LoadFile(h.path)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(xlog.FieldEvent, "mapping.reload_failed").
			Str(xlog.FieldPath, h.path).
			Msg("mapping reload failed, keeping previous table")
		return fmt.Errorf("reload mappings: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = set
	h.mu.Unlock()

	h.notify(set)
	h.logger.Info().
		Str(xlog.FieldEvent, "mapping.reloaded").
		Str(xlog.FieldPath, h.path).
		Int("old_entries", old.Len()).
		Int("new_entries", set.Len()).
		Msg("mappings reloaded")
	return nil
}

// Watch reloads the file whenever it is written or recreated, until ctx ends.
func (h *Holder) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(h.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch mappings: %w", err)
	}
	h.watcher = watcher
	h.logger.Info().
		Str(xlog.FieldEvent, "mapping.watch_started").
		Str(xlog.FieldPath, h.path).
		Msg("watching mapping file")

	go h.loop(ctx, watcher)
	return nil
}

func (h *Holder) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(h.debounce, func() {
				_ = h.Reload(ctx)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Warn().Err(err).Str(xlog.FieldEvent, "mapping.watch_error").Msg("mapping watcher error")
		}
	}
}

// Stop closes the watcher, if any.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// Subscribe registers ch to receive every successfully reloaded Set.
// Sends never block; a full channel misses the update.
func (h *Holder) Subscribe(ch chan<- *Set) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(set *Set) {
	h.listenMu.RLock()
	defer h.listenMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- set:
		default:
			h.logger.Warn().Str(xlog.FieldEvent, "mapping.listener_skip").Msg("listener channel full")
		}
	}
}
