// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mapping

import (
	"errors"
	"fmt"
)

// ErrMalformedMapping classifies every structural fault found while loading a
// mapping table. Use errors.Is(err, ErrMalformedMapping).
var ErrMalformedMapping = errors.New("malformed mapping")

// MalformedMappingError carries the position and reason of a load failure.
// A load that returns it has produced no Set at all.
type MalformedMappingError struct {
	Line   int // 1-based, 0 when the fault is not tied to a row
	Reason string
	Err    error
}

func (e *MalformedMappingError) Error() string {
	msg := "mapping: " + e.Reason
	if e.Line > 0 {
		msg = fmt.Sprintf("mapping: line %d: %s", e.Line, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *MalformedMappingError) Unwrap() error {
	if e.Err != nil {
		return errors.Join(ErrMalformedMapping, e.Err)
	}
	return ErrMalformedMapping
}

func malformed(line int, format string, args ...any) *MalformedMappingError {
	return &MalformedMappingError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// ErrNamespaceMismatch is returned when a Set does not declare a namespace
// an operation needs.
var ErrNamespaceMismatch = errors.New("namespace mismatch")

// NamespaceMismatchError names the missing namespace and what the Set
// declares. An empty Set mismatches every namespace.
type NamespaceMismatchError struct {
	Namespace Namespace
	Declared  []Namespace
}

func (e *NamespaceMismatchError) Error() string {
	if len(e.Declared) == 0 {
		return fmt.Sprintf("mapping set is empty, namespace %q is not declared", e.Namespace)
	}
	return fmt.Sprintf("namespace %q is not declared by the mapping set (declared: %v)", e.Namespace, e.Declared)
}

func (e *NamespaceMismatchError) Unwrap() error { return ErrNamespaceMismatch }

// Require returns a *NamespaceMismatchError unless s is non-empty and
// declares every namespace in ns.
func Require(s *Set, ns ...Namespace) error {
	if s == nil || s.Len() == 0 {
		var missing Namespace
		if len(ns) > 0 {
			missing = ns[0]
		}
		return &NamespaceMismatchError{Namespace: missing}
	}
	for _, n := range ns {
		if !s.HasNamespace(n) {
			return &NamespaceMismatchError{Namespace: n, Declared: s.Namespaces()}
		}
	}
	return nil
}
