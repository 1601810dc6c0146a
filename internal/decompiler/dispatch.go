// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decompiler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/loomsrc/internal/archive"
	xlog "github.com/ManuGH/loomsrc/internal/log"
	"github.com/ManuGH/loomsrc/internal/linemap"
	"github.com/ManuGH/loomsrc/internal/metrics"
)

// DispatchOption tunes a single Decompile call.
type DispatchOption func(*dispatchConfig)

type dispatchConfig struct {
	limiter *semaphore.Weighted
	cache   Cache
	logger  *zerolog.Logger
}

// WithLimiter shares a process-wide worker capacity between concurrent
// runs. Each class group holds one unit of sem while it is decompiled.
func WithLimiter(sem *semaphore.Weighted) DispatchOption {
	return func(c *dispatchConfig) { c.limiter = sem }
}

// WithCache reuses units from earlier runs with identical inputs.
func WithCache(cache Cache) DispatchOption {
	return func(c *dispatchConfig) { c.cache = cache }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) DispatchOption {
	return func(c *dispatchConfig) { c.logger = &l }
}

// Stream is the lazy, finite, single-use sequence of units of one
// Decompile call. Work starts when iteration starts.
type Stream struct {
	ctx     context.Context
	adapter Adapter
	arc     *archive.Archive
	native  Native
	groups  []archive.ClassGroup
	cfg     dispatchConfig
	keys    *keyer
	logger  zerolog.Logger

	used   atomic.Bool
	hits   atomic.Int64
	misses atomic.Int64
	err    atomic.Pointer[error]
}

// Decompile prepares the decompilation of every class group of arc.
// Groups are dispatched in lexicographic order over a pool bounded by
// opts.ThreadCount and, when given, a shared limiter; units are emitted in
// the same order. A failing group yields a unit carrying a PartialFailure.
// An archive without classes fails with *archive.ArchiveUnreadableError.
func Decompile(ctx context.Context, adapter Adapter, arc *archive.Archive, opts Options, dopts ...DispatchOption) (*Stream, error) {
	if adapter == nil {
		return nil, errors.New("decompile: nil adapter")
	}
	if arc == nil || arc.Len() == 0 {
		path := ""
		if arc != nil {
			path = arc.Path()
		}
		return nil, archive.Empty(path)
	}
	var cfg dispatchConfig
	for _, o := range dopts {
		o(&cfg)
	}
	native := adapter.Translate(opts.Normalize())
	s := &Stream{
		ctx:     ctx,
		adapter: adapter,
		arc:     arc,
		native:  native,
		groups:  arc.Groups(),
		cfg:     cfg,
	}
	if cfg.logger != nil {
		s.logger = *cfg.logger
	} else {
		s.logger = xlog.WithContext(ctx, xlog.WithComponent("decompiler"))
	}
	if cfg.cache != nil {
		s.keys = newKeyer(arc, native)
	}
	return s, nil
}

// Len returns the number of units the stream yields when fully consumed.
func (s *Stream) Len() int { return len(s.groups) }

// Native returns the translated engine options.
func (s *Stream) Native() Native { return s.native }

// Stats returns cache statistics gathered so far.
func (s *Stream) Stats() CacheStats {
	return CacheStats{Hits: int(s.hits.Load()), Misses: int(s.misses.Load())}
}

// Err reports why iteration stopped before every unit was emitted. It is
// nil after a complete iteration.
func (s *Stream) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Units yields each unit once, in class name order. A second iteration
// yields nothing. Stopping early cancels outstanding work; groups already
// being decompiled are allowed to finish.
func (s *Stream) Units() iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		if !s.used.CompareAndSwap(false, true) {
			return
		}
		s.run(yield)
	}
}

// Collect drains the stream.
func (s *Stream) Collect() ([]Unit, error) {
	units := make([]Unit, 0, len(s.groups))
	for u := range s.Units() {
		units = append(units, u)
	}
	return units, s.Err()
}

type slot struct {
	unit Unit
	done chan struct{}
}

func (s *Stream) run(yield func(Unit) bool) {
	threads := s.native.Options.ThreadCount
	slots := make([]slot, len(s.groups))
	for i := range slots {
		slots[i].done = make(chan struct{})
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	// In-flight groups run to completion even after cancellation.
	workCtx := context.WithoutCancel(runCtx)

	// window bounds how far dispatch may run ahead of the consumer.
	window := semaphore.NewWeighted(int64(2 * threads))
	var eg errgroup.Group
	eg.SetLimit(threads)

	stopped := make(chan struct{})
	var dispatched int
	go func() {
		defer close(stopped)
		for i := range s.groups {
			if runCtx.Err() != nil || window.Acquire(runCtx, 1) != nil {
				return
			}
			if s.cfg.limiter != nil {
				if err := s.cfg.limiter.Acquire(runCtx, 1); err != nil {
					window.Release(1)
					return
				}
			}
			dispatched = i + 1
			eg.Go(func() error {
				defer close(slots[i].done)
				if s.cfg.limiter != nil {
					defer s.cfg.limiter.Release(1)
				}
				slots[i].unit = s.decompileOne(workCtx, s.groups[i])
				return nil
			})
		}
	}()

	emitted := 0
consume:
	for i := range slots {
		select {
		case <-slots[i].done:
		case <-stopped:
			if i >= dispatched {
				break consume
			}
			<-slots[i].done
		}
		window.Release(1)
		emitted++
		if !yield(slots[i].unit) {
			break
		}
	}

	cancel()
	<-stopped
	_ = eg.Wait()
	if emitted < len(slots) {
		err := s.ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		err = fmt.Errorf("decompile stopped after %d of %d units: %w", emitted, len(slots), err)
		s.err.Store(&err)
	}
}

func (s *Stream) decompileOne(ctx context.Context, g archive.ClassGroup) Unit {
	backend := s.adapter.Backend()
	inner := make([]string, 0, len(g.Classes)-1)
	for _, c := range g.Inner() {
		inner = append(inner, c.Name)
	}
	logger := s.logger.With().Str(xlog.FieldClass, g.Name).Logger()

	metrics.WorkerStarted()
	defer metrics.WorkerDone()
	start := time.Now()

	var key Key
	if s.cfg.cache != nil {
		key = s.keys.key(g)
		u, ok, err := s.cfg.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.IncCacheError(s.cfg.cache.Name())
			logger.Warn().Err(err).Str(xlog.FieldEvent, "decompile.cache_read_failed").Msg("cache read failed")
		case ok:
			s.hits.Add(1)
			metrics.IncCacheHit(s.cfg.cache.Name())
			metrics.IncClass(backend, "cached")
			u.ClassName, u.Namespace, u.Inner, u.Cached = g.Name, s.arc.Namespace(), inner, true
			return u
		default:
			s.misses.Add(1)
			metrics.IncCacheMiss(s.cfg.cache.Name())
		}
	}

	src, err := s.safeDecompile(ctx, g)
	metrics.ObserveClassDuration(backend, time.Since(start))
	if err != nil {
		metrics.IncClass(backend, "partial")
		logger.Warn().Err(err).Str(xlog.FieldEvent, "decompile.class_failed").Msg("class failed to decompile")
		return failedUnit(backend, g.Name, s.arc.Namespace(), inner, err)
	}

	u := Unit{
		ClassName: g.Name,
		Namespace: s.arc.Namespace(),
		Source:    src.Text,
		Inner:     inner,
	}
	if s.native.Options.IncludeLineNumbers {
		u.Lines = src.Lines
	} else {
		u.Lines = linemap.Map{}
	}
	metrics.IncClass(backend, "ok")
	logger.Debug().Str(xlog.FieldEvent, "decompile.class_done").Int("lines", u.Lines.Len()).Msg("class decompiled")

	if s.cfg.cache != nil {
		if err := s.cfg.cache.Put(ctx, key, u); err != nil {
			metrics.IncCacheError(s.cfg.cache.Name())
			logger.Warn().Err(err).Str(xlog.FieldEvent, "decompile.cache_write_failed").Msg("cache write failed")
		}
	}
	return u
}

// safeDecompile turns engine panics into per-class errors.
func (s *Stream) safeDecompile(ctx context.Context, g archive.ClassGroup) (src Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str(xlog.FieldEvent, "decompile.engine_panic").
				Str(xlog.FieldClass, g.Name).
				Bytes("stack", debug.Stack()).
				Msg("engine panicked")
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return s.adapter.DecompileClass(ctx, g, s.native)
}
