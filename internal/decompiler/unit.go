// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decompiler

import (
	"errors"
	"fmt"

	"github.com/ManuGH/loomsrc/internal/linemap"
	"github.com/ManuGH/loomsrc/internal/mapping"
)

// ErrClassFailed classifies per-class decompile failures.
var ErrClassFailed = errors.New("class failed to decompile")

// PartialFailure marks a class group the backend could not decompile. The
// run continues; the failure is reported on the unit.
type PartialFailure struct {
	Class   string
	Backend string
	Cause   error
}

func (f *PartialFailure) Error() string {
	return fmt.Sprintf("%s: decompile %s: %v", f.Backend, f.Class, f.Cause)
}

func (f *PartialFailure) Unwrap() error {
	return errors.Join(ErrClassFailed, f.Cause)
}

// Unit is one decompiled source file. Units are values and are not
// modified after they are produced.
type Unit struct {
	// ClassName is the internal name of the top-level class.
	ClassName string
	// Namespace the names inside Source are expressed in.
	Namespace mapping.Namespace
	Source    string
	Lines     linemap.Map
	// Inner lists the fragments inlined into this unit.
	Inner []string
	// Failure is set for partial-failure markers; Source is empty then.
	Failure *PartialFailure
	// Cached reports that the unit came from the decompile cache.
	Cached bool
}

// Failed reports whether u is a partial-failure marker.
func (u Unit) Failed() bool { return u.Failure != nil }

// FileName returns the relative source path of the unit ("a/b/C.java").
func (u Unit) FileName() string { return u.ClassName + ".java" }

func failedUnit(backend, class string, ns mapping.Namespace, inner []string, cause error) Unit {
	return Unit{
		ClassName: class,
		Namespace: ns,
		Inner:     inner,
		Failure:   &PartialFailure{Class: class, Backend: backend, Cause: cause},
	}
}
