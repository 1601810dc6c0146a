// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	RunIDKey     = "loomsrc.run_id"
	BackendKey   = "decompile.backend"
	ArchiveKey   = "decompile.archive"
	ClassesKey   = "decompile.classes"
	PartialKey   = "decompile.partial"
	CacheHitsKey = "decompile.cache_hits"
	StateKey     = "decompile.state"

	FromNamespaceKey = "remap.from"
	ToNamespaceKey   = "remap.to"
	UnitsKey         = "remap.units"
	RejectedKey      = "remap.rejected"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// RunAttributes describes a decompile run at start.
func RunAttributes(runID, backend, archive string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(RunIDKey, runID),
		attribute.String(BackendKey, backend),
	}
	if archive != "" {
		attrs = append(attrs, attribute.String(ArchiveKey, archive))
	}
	return attrs
}

// ResultAttributes describes a finished decompile run.
func ResultAttributes(state string, classes, partial int, cacheHits int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(StateKey, state),
		attribute.Int(ClassesKey, classes),
		attribute.Int(PartialKey, partial),
		attribute.Int64(CacheHitsKey, cacheHits),
	}
}

// RemapAttributes describes a remap pass.
func RemapAttributes(from, to string, units, rejected int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(FromNamespaceKey, from),
		attribute.String(ToNamespaceKey, to),
		attribute.Int(UnitsKey, units),
		attribute.Int(RejectedKey, rejected),
	}
}

// ErrorAttributes flags a span as failed with a coarse error type.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// RecordError marks span as failed.
func RecordError(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(ErrorAttributes(errorType)...)
}
