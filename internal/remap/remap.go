// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package remap renames decompiled sources from the namespace they were
// decompiled in to a target namespace.
//
// Rewriting works on the lexed token stream: only identifier tokens are
// replaced, and whole lines are inserted (javadoc) or removed (bridge
// methods). Literals and comments are left alone, so the output lexes
// whenever the input did. Line maps follow the inserted and removed lines.
package remap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ManuGH/loomsrc/internal/decompiler"
	xlog "github.com/ManuGH/loomsrc/internal/log"
	"github.com/ManuGH/loomsrc/internal/mapping"
	"github.com/ManuGH/loomsrc/internal/metrics"
	"github.com/ManuGH/loomsrc/internal/telemetry"
)

// Option tunes a Remap call.
type Option func(*options)

type options struct {
	keepBridges bool
	javadoc     bool
	logger      *zerolog.Logger
}

// KeepBridges keeps bridge methods instead of dropping them.
func KeepBridges() Option { return func(o *options) { o.keepBridges = true } }

// WithoutJavadoc disables documentation injection.
func WithoutJavadoc() Option { return func(o *options) { o.javadoc = false } }

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = &l } }

// Report is the outcome of a Remap call.
type Report struct {
	// Units holds every unit that was not rejected, in input order.
	Units []decompiler.Unit
	// Errors holds one entry per rejected unit.
	Errors []*RemapError

	Remapped      int
	Unchanged     int
	PassedThrough int
}

// Remap rewrites units into target. Units carrying a PartialFailure pass
// through untouched; units already in target are returned unchanged. A unit
// that cannot be matched to its class is dropped and reported. The error
// is non-nil only when set does not declare target or ctx is done.
func Remap(ctx context.Context, units []decompiler.Unit, set *mapping.Set, target mapping.Namespace, opts ...Option) (*Report, error) {
	if err := mapping.Require(set, target); err != nil {
		return nil, err
	}
	o := options{javadoc: true}
	for _, opt := range opts {
		opt(&o)
	}
	logger := xlog.WithContext(ctx, xlog.WithComponent("remap"))
	if o.logger != nil {
		logger = *o.logger
	}

	ctx, span := telemetry.Tracer("loomsrc/remap").Start(ctx, "remap")
	defer span.End()

	rep := &Report{Units: make([]decompiler.Unit, 0, len(units))}
	indexes := make(map[mapping.Namespace]*index)
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			telemetry.RecordError(span, err, "canceled")
			return rep, fmt.Errorf("remap: %w", err)
		}
		switch {
		case u.Failed():
			rep.PassedThrough++
			rep.Units = append(rep.Units, u)
			metrics.IncRemap("passthrough")
			continue
		case set.Canonical(u.Namespace) == set.Canonical(target):
			rep.Unchanged++
			rep.Units = append(rep.Units, u)
			metrics.IncRemap("unchanged")
			continue
		}

		if !set.HasNamespace(u.Namespace) {
			rep.reject(logger, &RemapError{Class: u.ClassName, From: u.Namespace, To: target, Reason: "namespace not declared by the mapping set"})
			continue
		}
		ix, ok := indexes[u.Namespace]
		if !ok {
			ix = newIndex(set, u.Namespace, target)
			indexes[u.Namespace] = ix
		}
		out, err := newRewriter(ix, u, o).run()
		if err != nil {
			rep.reject(logger, err)
			continue
		}
		rep.Remapped++
		rep.Units = append(rep.Units, out)
		metrics.IncRemap("ok")
	}

	span.SetAttributes(telemetry.RemapAttributes(string(set.Canonical(firstNamespace(units))), string(target), len(rep.Units), len(rep.Errors))...)
	logger.Info().
		Str(xlog.FieldEvent, "remap.done").
		Str(xlog.FieldNamespace, string(target)).
		Int("remapped", rep.Remapped).
		Int("unchanged", rep.Unchanged).
		Int("passed_through", rep.PassedThrough).
		Int("rejected", len(rep.Errors)).
		Msg("remap finished")
	return rep, nil
}

func (r *Report) reject(logger zerolog.Logger, err *RemapError) {
	r.Errors = append(r.Errors, err)
	metrics.IncRemap("rejected")
	logger.Warn().
		Err(err).
		Str(xlog.FieldEvent, "remap.unit_rejected").
		Str(xlog.FieldClass, err.Class).
		Msg("unit dropped from remapped output")
}

func firstNamespace(units []decompiler.Unit) mapping.Namespace {
	if len(units) == 0 {
		return ""
	}
	return units[0].Namespace
}
