// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID   = "run_id"
	FieldTraceID = "trace_id"
	FieldSpanID  = "span_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldBackend   = "backend"

	// Domain fields
	FieldClass     = "class"
	FieldNamespace = "namespace"
	FieldClasses   = "classes"
	FieldPartial   = "partial_failures"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path fields
	FieldPath     = "path"
	FieldArchive  = "archive"
	FieldMappings = "mappings"
)
