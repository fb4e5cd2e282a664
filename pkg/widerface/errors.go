// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package widerface

import (
	"errors"
	"fmt"
)

// Common errors returned by the library.
var (
	// ErrSourceMissing is returned when the extracted image tree expected by
	// materialization does not exist. It indicates the extraction stage did
	// not produce the expected layout, as opposed to a generic disk problem.
	ErrSourceMissing = errors.New("source directory not found (extraction did not produce the expected layout)")

	// ErrNotADirectory is returned when the materialization source exists
	// but is a regular file.
	ErrNotADirectory = errors.New("source path is not a directory")
)

// FetchError wraps a failed archive download with its URL context.
type FetchError struct {
	URL        string
	Status     string // HTTP status line, when the failure was HTTP-level
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("fetch %s: bad status: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractError wraps a failed extraction with the archive path.
type ExtractError struct {
	Archive string
	Path    string // destination entry path, when the failure was per-entry
	Err     error
}

func (e *ExtractError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("extract %s: entry %s: %v", e.Archive, e.Path, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// MaterializeError wraps a failed materialization with the path involved.
type MaterializeError struct {
	Path string
	Err  error
}

func (e *MaterializeError) Error() string {
	return fmt.Sprintf("materialize %s: %v", e.Path, e.Err)
}

func (e *MaterializeError) Unwrap() error {
	return e.Err
}
