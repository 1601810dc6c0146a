// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package orchestrator drives one decompile run through its lifecycle:
// resolve the backend, load and check the inputs, dispatch class groups to
// the pool and optionally remap the result.
//
// A run moves Idle -> Loading -> Running -> Completed, and to Failed from
// any non-terminal state. Per-class failures do not fail the run; they are
// counted on the result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/loomsrc/internal/archive"
	"github.com/ManuGH/loomsrc/internal/decompiler"
	"github.com/ManuGH/loomsrc/internal/decompiler/backends"
	xlog "github.com/ManuGH/loomsrc/internal/log"
	"github.com/ManuGH/loomsrc/internal/mapping"
	"github.com/ManuGH/loomsrc/internal/metrics"
	"github.com/ManuGH/loomsrc/internal/pipeline/fsm"
	"github.com/ManuGH/loomsrc/internal/remap"
	"github.com/ManuGH/loomsrc/internal/telemetry"
)

// State is a run lifecycle state.
type State string

const (
	Idle      State = "idle"
	Loading   State = "loading"
	Running   State = "running"
	Completed State = "completed"
	Failed    State = "failed"
)

// Event drives a run between states.
type Event string

const (
	EventLoad     Event = "load"
	EventDispatch Event = "dispatch"
	EventFinish   Event = "finish"
	EventFail     Event = "fail"
)

var transitions = []fsm.Transition[State, Event]{
	{From: Idle, Event: EventLoad, To: Loading},
	{From: Idle, Event: EventFail, To: Failed},
	{From: Loading, Event: EventDispatch, To: Running},
	{From: Loading, Event: EventFail, To: Failed},
	{From: Running, Event: EventFinish, To: Completed},
	{From: Running, Event: EventFail, To: Failed},
}

// Request describes one run.
type Request struct {
	// Backend names the engine; empty selects backends.Default.
	Backend string
	// Archive is used as given. When nil, ArchivePath is opened during
	// Loading with ArchiveNamespace (default: the mapping source namespace).
	Archive          *archive.Archive
	ArchivePath      string
	ArchiveNamespace mapping.Namespace
	// Mappings must declare the archive namespace.
	Mappings *mapping.Set
	Options  decompiler.Options
	// Target, when set, remaps the produced units into that namespace.
	Target       mapping.Namespace
	RemapOptions []remap.Option
}

// Result is the outcome of a run. Failed runs keep the units produced so
// far for diagnostics; they must not be written out as a complete result.
type Result struct {
	RunID    string
	Backend  string
	State    State
	Units    []decompiler.Unit
	Partial  int
	Cache    decompiler.CacheStats
	Remap    *remap.Report
	Err      error
	Duration time.Duration
	History  []State
}

// Orchestrator runs requests. It is safe for concurrent use; concurrent
// runs share the cache and the worker capacity.
type Orchestrator struct {
	registry  *decompiler.Registry
	cache     decompiler.Cache
	limiter   *semaphore.Weighted
	observers []fsm.Observer[State, Event]
	logger    *zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCache reuses decompiled units across runs.
func WithCache(c decompiler.Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithMaxWorkers bounds the class groups decompiled at once across all
// runs. Zero or negative leaves only the per-run ThreadCount bound.
func WithMaxWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.limiter = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithObserver registers a callback for every state transition.
func WithObserver(obs fsm.Observer[State, Event]) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs) }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = &l }
}

// New returns an orchestrator resolving backends from reg.
func New(reg *decompiler.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{registry: reg}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run carries the state of one Run call.
type run struct {
	id      string
	req     Request
	machine *fsm.Machine[State, Event]
	logger  zerolog.Logger
	result  *Result
}

// Run executes req. The returned Result is never nil; the error is non-nil
// exactly when the run ends Failed.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if req.Backend == "" {
		req.Backend = backends.Default
	}
	backend := strings.ToLower(req.Backend)
	r := &run{
		id:     uuid.NewString(),
		req:    req,
		result: &Result{Backend: backend, State: Idle},
	}
	r.result.RunID = r.id

	ctx = xlog.ContextWithRunID(ctx, r.id)
	ctx = xlog.ContextWithBackend(ctx, backend)
	ctx, span := telemetry.Tracer("loomsrc/orchestrator").Start(ctx, "decompile.run")
	defer span.End()
	span.SetAttributes(telemetry.RunAttributes(r.id, backend, archiveLabel(req))...)

	r.logger = xlog.WithContext(ctx, xlog.WithComponent("orchestrator"))
	if o.logger != nil {
		r.logger = xlog.WithContext(ctx, *o.logger)
	}

	observers := append([]fsm.Observer[State, Event]{r.observe}, o.observers...)
	m, err := fsm.New(Idle, transitions, observers...)
	if err != nil {
		return r.result, fmt.Errorf("orchestrator: %w", err)
	}
	r.machine = m

	err = o.execute(ctx, r)
	res := r.result
	res.Duration = time.Since(start)
	res.State = m.State()
	res.History = m.History()

	outcome := string(res.State)
	metrics.IncRun(backend, outcome)
	metrics.ObserveRunDuration(backend, res.Duration)
	span.SetAttributes(telemetry.ResultAttributes(outcome, len(res.Units), res.Partial, int64(res.Cache.Hits))...)

	if err != nil {
		res.Err = err
		telemetry.RecordError(span, err, errorType(err))
		r.logger.Error().
			Err(err).
			Str(xlog.FieldEvent, "run.failed").
			Int(xlog.FieldClasses, len(res.Units)).
			Dur("duration", res.Duration).
			Msg("decompile run failed")
		return res, err
	}
	r.logger.Info().
		Str(xlog.FieldEvent, "run.completed").
		Int(xlog.FieldClasses, len(res.Units)).
		Int(xlog.FieldPartial, res.Partial).
		Int("cache_hits", res.Cache.Hits).
		Int("cache_misses", res.Cache.Misses).
		Dur("duration", res.Duration).
		Msg("decompile run completed")
	return res, nil
}

// execute walks the state machine. Any error moves the run to Failed.
func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	adapter, err := o.registry.Resolve(r.req.Backend)
	if err != nil {
		return r.fail(ctx, err)
	}
	if _, err := r.machine.Fire(ctx, EventLoad); err != nil {
		return err
	}

	arc, err := r.load()
	if err != nil {
		return r.fail(ctx, err)
	}
	if _, err := r.machine.Fire(ctx, EventDispatch); err != nil {
		return err
	}

	dopts := []decompiler.DispatchOption{decompiler.WithLogger(xlog.WithContext(ctx, xlog.WithComponent("decompiler")))}
	if o.cache != nil {
		dopts = append(dopts, decompiler.WithCache(o.cache))
	}
	if o.limiter != nil {
		dopts = append(dopts, decompiler.WithLimiter(o.limiter))
	}
	stream, err := decompiler.Decompile(ctx, adapter, arc, r.req.Options, dopts...)
	if err != nil {
		return r.fail(ctx, err)
	}
	units, err := stream.Collect()
	r.result.Cache = stream.Stats()
	r.setUnits(units)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("decompile %s: %w", r.req.Backend, err))
	}

	if r.req.Target != "" {
		rep, err := remap.Remap(ctx, units, r.req.Mappings, r.req.Target, r.req.RemapOptions...)
		if err != nil {
			return r.fail(ctx, err)
		}
		r.result.Remap = rep
		r.setUnits(rep.Units)
	}

	if _, err := r.machine.Fire(ctx, EventFinish); err != nil {
		return err
	}
	return nil
}

// load resolves the archive and checks it against the mappings.
func (r *run) load() (*archive.Archive, error) {
	arc := r.req.Archive
	if arc == nil && r.req.ArchivePath != "" {
		ns := r.req.ArchiveNamespace
		if ns == "" && r.req.Mappings != nil {
			ns = r.req.Mappings.Source()
		}
		var err error
		if arc, err = archive.Open(r.req.ArchivePath, ns); err != nil {
			return nil, err
		}
	}
	if arc == nil || arc.Len() == 0 {
		path := r.req.ArchivePath
		if arc != nil {
			path = arc.Path()
		}
		return nil, archive.Empty(path)
	}
	if err := mapping.Require(r.req.Mappings, arc.Namespace()); err != nil {
		return nil, err
	}
	r.logger.Debug().
		Str(xlog.FieldEvent, "run.loaded").
		Str(xlog.FieldArchive, arc.Path()).
		Str(xlog.FieldNamespace, string(arc.Namespace())).
		Int(xlog.FieldClasses, arc.Len()).
		Msg("inputs loaded")
	return arc, nil
}

func (r *run) fail(ctx context.Context, cause error) error {
	if _, err := r.machine.Fire(ctx, EventFail); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// setUnits stores units sorted by class name and counts partial failures.
func (r *run) setUnits(units []decompiler.Unit) {
	sorted := slices.Clone(units)
	slices.SortStableFunc(sorted, func(a, b decompiler.Unit) int { return strings.Compare(a.ClassName, b.ClassName) })
	r.result.Units = sorted
	r.result.Partial = 0
	for _, u := range sorted {
		if u.Failed() {
			r.result.Partial++
		}
	}
}

func (r *run) observe(from, to State, event Event) {
	metrics.IncTransition(string(from), string(to))
	r.logger.Debug().
		Str(xlog.FieldEvent, "run.transition").
		Str(xlog.FieldOldState, string(from)).
		Str(xlog.FieldNewState, string(to)).
		Str("trigger", string(event)).
		Msg("state changed")
}

func archiveLabel(req Request) string {
	if req.Archive != nil && req.Archive.Path() != "" {
		return req.Archive.Path()
	}
	if req.ArchivePath != "" {
		return req.ArchivePath
	}
	return "memory"
}

// errorType maps run errors to a low-cardinality label.
func errorType(err error) string {
	switch {
	case errors.Is(err, decompiler.ErrUnknownBackend):
		return "unknown_backend"
	case errors.Is(err, archive.ErrArchiveUnreadable):
		return "archive_unreadable"
	case errors.Is(err, mapping.ErrNamespaceMismatch):
		return "namespace_mismatch"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "internal"
}
