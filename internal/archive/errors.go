// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package archive

import (
	"errors"
	"fmt"
)

// ErrArchiveUnreadable classifies archive-level failures: an unreadable
// container, duplicate class names, or an archive without classes.
var ErrArchiveUnreadable = errors.New("archive unreadable")

// ArchiveUnreadableError describes why an archive cannot be used.
type ArchiveUnreadableError struct {
	Path   string // empty for in-memory archives
	Reason string
	Err    error
}

func (e *ArchiveUnreadableError) Error() string {
	msg := "archive"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ArchiveUnreadableError) Unwrap() error {
	if e.Err != nil {
		return errors.Join(ErrArchiveUnreadable, e.Err)
	}
	return ErrArchiveUnreadable
}

// Empty reports an archive holding zero classes.
func Empty(path string) *ArchiveUnreadableError {
	return &ArchiveUnreadableError{Path: path, Reason: "contains no classes"}
}
