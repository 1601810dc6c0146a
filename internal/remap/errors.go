// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package remap

import (
	"errors"
	"fmt"

	"github.com/ManuGH/loomsrc/internal/mapping"
)

// ErrRemap classifies units the remapper rejected.
var ErrRemap = errors.New("remap failed")

// RemapError explains why one unit was dropped from the output.
type RemapError struct {
	Class  string
	From   mapping.Namespace
	To     mapping.Namespace
	Reason string
	Err    error
}

func (e *RemapError) Error() string {
	msg := fmt.Sprintf("remap %s (%s -> %s): %s", e.Class, e.From, e.To, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemapError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRemap, e.Err}
	}
	return []error{ErrRemap}
}
